package cli

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/victornm/etrivia/internal/server"
)

func TestLoadConfig(t *testing.T) {
	p := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(p, []byte(`
quiz:
  amount: 5
  difficulty: hard
leaderboard:
  backend: memory
`), 0o600))

	c, err := loadConfig(p)
	require.NoError(t, err)

	assert.Equal(t, 5, c.Quiz.Amount)
	assert.Equal(t, "hard", c.Quiz.Difficulty)
	assert.Equal(t, server.BackendMemory, c.Leaderboard.Backend)
	assert.Equal(t, server.DefaultConfig().HTTP.Port, c.HTTP.Port, "should keep defaults not in the file")
	assert.Equal(t, server.DefaultConfig().Quiz.TimePerQuestion, c.Quiz.TimePerQuestion)
}

func TestRootCmd(t *testing.T) {
	cmd := newRootCmd()

	var names []string
	for _, c := range cmd.Commands() {
		names = append(names, c.Name())
	}
	assert.ElementsMatch(t, []string{"serve", "play", "categories", "leaderboard"}, names)

	play, _, err := cmd.Find([]string{"play"})
	require.NoError(t, err)
	for _, f := range []string{"name", "amount", "difficulty", "category", "time"} {
		assert.NotNil(t, play.Flags().Lookup(f), "flag %s", f)
	}
}
