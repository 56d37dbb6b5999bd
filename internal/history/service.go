// Package history keeps a log of finished quiz sessions in Postgres.
package history

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/victornm/etrivia/internal/domain"
	"github.com/victornm/etrivia/internal/errors"
	"github.com/victornm/etrivia/internal/event"
)

const (
	DefaultLimit = 20
	maxLimit     = 100
)

type Config struct {
	EventBus *event.Bus
	DB       *pgxpool.Pool
}

type Service struct {
	db *pgxpool.Pool
}

// NewService subscribes the service to finished sessions.
func NewService(c Config) *Service {
	s := &Service{
		db: c.DB,
	}

	if c.EventBus != nil {
		c.EventBus.Subscribe(domain.EventNameSessionFinished, func(ctx context.Context, e event.Event) error {
			_, err := s.Record(ctx, e.(domain.EventSessionFinished))
			return err
		})
	}

	return s
}

type Entry struct {
	ID         string            `json:"id"`
	PlayerName string            `json:"player_name"`
	Difficulty domain.Difficulty `json:"difficulty"`
	Category   string            `json:"category,omitempty"`
	Score      decimal.Decimal   `json:"score"`
	MaxScore   decimal.Decimal   `json:"max_score"`
	Percentage float64           `json:"percentage"`
	Tier       domain.Tier       `json:"tier"`
	Correct    int               `json:"correct"`
	Total      int               `json:"total"`
	FinishedAt time.Time         `json:"finished_at"`
}

// Migrate creates the results table when it does not exist yet.
func (s *Service) Migrate(ctx context.Context) error {
	const stmt = `
CREATE TABLE IF NOT EXISTS quiz_results (
	id          UUID PRIMARY KEY,
	player_name TEXT NOT NULL,
	difficulty  TEXT NOT NULL,
	category    TEXT NOT NULL DEFAULT '',
	score       NUMERIC NOT NULL,
	max_score   NUMERIC NOT NULL,
	percentage  DOUBLE PRECISION NOT NULL,
	tier        TEXT NOT NULL,
	correct     INTEGER NOT NULL,
	total       INTEGER NOT NULL,
	finished_at TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS quiz_results_finished_at_idx ON quiz_results (finished_at DESC);`

	if _, err := s.db.Exec(ctx, stmt); err != nil {
		return fmt.Errorf("history: migrate: %w", err)
	}

	return nil
}

// Record stores a finished session.
func (s *Service) Record(ctx context.Context, e domain.EventSessionFinished) (*Entry, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return nil, errors.Internal(fmt.Errorf("history: generate id: %w", err))
	}

	res := e.Result
	entry := &Entry{
		ID:         id.String(),
		PlayerName: res.PlayerName,
		Difficulty: res.Difficulty,
		Category:   e.Settings.Category,
		Score:      res.Score,
		MaxScore:   res.MaxScore,
		Percentage: res.Percentage,
		Tier:       res.Tier,
		Correct:    res.Correct,
		Total:      res.Total,
		FinishedAt: e.FinishedAt.UTC(),
	}

	const stmt = `
INSERT INTO quiz_results (id, player_name, difficulty, category, score, max_score, percentage, tier, correct, total, finished_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11);`

	_, err = s.db.Exec(ctx, stmt,
		entry.ID, entry.PlayerName, string(entry.Difficulty), entry.Category,
		entry.Score, entry.MaxScore, entry.Percentage, string(entry.Tier),
		entry.Correct, entry.Total, entry.FinishedAt,
	)
	if err != nil {
		return nil, errors.Internal(fmt.Errorf("history: insert: %w", err))
	}

	return entry, nil
}

// ListRecent returns the latest finished sessions, newest first.
func (s *Service) ListRecent(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = DefaultLimit
	}
	if limit > maxLimit {
		limit = maxLimit
	}

	const stmt = `
SELECT id::text, player_name, difficulty, category, score, max_score, percentage, tier, correct, total, finished_at
FROM quiz_results
ORDER BY finished_at DESC
LIMIT $1;`

	rows, err := s.db.Query(ctx, stmt, limit)
	if err != nil {
		return nil, errors.Internal(fmt.Errorf("history: list: %w", err))
	}

	entries, err := pgx.CollectRows(rows, func(r pgx.CollectableRow) (Entry, error) {
		var (
			e          Entry
			difficulty string
			tier       string
		)
		if err := r.Scan(&e.ID, &e.PlayerName, &difficulty, &e.Category, &e.Score, &e.MaxScore,
			&e.Percentage, &tier, &e.Correct, &e.Total, &e.FinishedAt); err != nil {
			return Entry{}, err
		}
		e.Difficulty = domain.Difficulty(difficulty)
		e.Tier = domain.Tier(tier)
		return e, nil
	})
	if err != nil {
		return nil, errors.Internal(fmt.Errorf("history: scan: %w", err))
	}

	return entries, nil
}
