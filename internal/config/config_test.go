package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/victornm/etrivia/internal/config"
)

type testConfig struct {
	HTTP struct {
		Port int32
	}

	Trivia struct {
		BaseURL string
		Timeout time.Duration
	}

	Redis struct {
		Addrs []string
	}
}

func defaults() testConfig {
	var c testConfig
	c.HTTP.Port = 8080
	c.Trivia.BaseURL = "https://opentdb.com"
	c.Trivia.Timeout = 10 * time.Second
	return c
}

func TestLoad_Defaults(t *testing.T) {
	c := defaults()

	require.NoError(t, config.Load("", &c))
	require.Equal(t, int32(8080), c.HTTP.Port)
	require.Equal(t, "https://opentdb.com", c.Trivia.BaseURL)
	require.Equal(t, 10*time.Second, c.Trivia.Timeout)
	require.Empty(t, c.Redis.Addrs)
}

func TestLoad_File(t *testing.T) {
	p := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(p, []byte(`
http:
  port: 9090
trivia:
  timeout: 3s
redis:
  addrs:
    - localhost:6379
`), 0o600))

	c := defaults()
	require.NoError(t, config.Load(p, &c))

	require.Equal(t, int32(9090), c.HTTP.Port)
	require.Equal(t, 3*time.Second, c.Trivia.Timeout)
	require.Equal(t, "https://opentdb.com", c.Trivia.BaseURL, "keys missing from the file should keep their defaults")
	require.Equal(t, []string{"localhost:6379"}, c.Redis.Addrs)
}

func TestLoad_Env(t *testing.T) {
	t.Setenv("HTTP_PORT", "7070")
	t.Setenv("TRIVIA_BASEURL", "http://trivia.local")

	c := defaults()
	require.NoError(t, config.Load("", &c))

	require.Equal(t, int32(7070), c.HTTP.Port)
	require.Equal(t, "http://trivia.local", c.Trivia.BaseURL)
}

func TestLoad_MissingFile(t *testing.T) {
	c := defaults()
	require.Error(t, config.Load(filepath.Join(t.TempDir(), "missing.yaml"), &c))
}
