package history_test

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/victornm/etrivia/internal/domain"
	"github.com/victornm/etrivia/internal/event"
	"github.com/victornm/etrivia/internal/history"
)

// Set HISTORY_TEST_DSN to a disposable Postgres database to run these tests.
func makeService(t *testing.T, eb *event.Bus) *history.Service {
	t.Helper()

	dsn := os.Getenv("HISTORY_TEST_DSN")
	if dsn == "" {
		t.Skip("HISTORY_TEST_DSN not set")
	}

	ctx := context.Background()
	db, err := pgxpool.New(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(db.Close)

	s := history.NewService(history.Config{EventBus: eb, DB: db})
	require.NoError(t, s.Migrate(ctx))

	_, err = db.Exec(ctx, "TRUNCATE quiz_results")
	require.NoError(t, err)

	return s
}

func TestService_RecordAndList(t *testing.T) {
	ctx := context.Background()
	s := makeService(t, nil)

	base := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	for i, name := range []string{"Ada", "Bob", "Cy"} {
		_, err := s.Record(ctx, finished(name, decimal.NewFromFloat(1.5), base.Add(time.Duration(i)*time.Minute)))
		require.NoError(t, err)
	}

	entries, err := s.ListRecent(ctx, 2)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "Cy", entries[0].PlayerName)
	assert.Equal(t, "Bob", entries[1].PlayerName)
	assert.True(t, decimal.NewFromFloat(1.5).Equal(entries[0].Score))
	assert.Equal(t, domain.DifficultyHard, entries[0].Difficulty)
	assert.Equal(t, "9", entries[0].Category)
	assert.True(t, base.Add(2*time.Minute).Equal(entries[0].FinishedAt))
}

func TestService_RecordOnSessionFinished(t *testing.T) {
	ctx := context.Background()
	eb := event.NewBus()
	s := makeService(t, eb)

	eb.Publish(ctx, finished("Ada", decimal.NewFromInt(3), time.Now()))
	eb.Stop()

	entries, err := s.ListRecent(ctx, 0)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "Ada", entries[0].PlayerName)
}

func finished(name string, score decimal.Decimal, at time.Time) domain.EventSessionFinished {
	return domain.EventSessionFinished{
		Result: domain.Result{
			PlayerName: name,
			Difficulty: domain.DifficultyHard,
			Score:      score,
			MaxScore:   decimal.NewFromInt(3),
			Percentage: 50,
			Tier:       domain.TierAverage,
			Correct:    1,
			Incorrect:  1,
			Total:      2,
		},
		Settings:   domain.Settings{Amount: 2, Difficulty: domain.DifficultyHard, Category: "9", TimePerQuestion: 10},
		FinishedAt: at,
	}
}
