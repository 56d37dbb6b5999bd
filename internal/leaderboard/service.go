package leaderboard

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"github.com/victornm/etrivia/internal/domain"
	"github.com/victornm/etrivia/internal/errors"
	"github.com/victornm/etrivia/internal/event"
	"github.com/victornm/etrivia/internal/kv"
)

const (
	DefaultKey  = "quizLeaderboard"
	DefaultSize = 3
)

type Config struct {
	EventBus *event.Bus
	Store    kv.Store
	// Key is the single key the whole leaderboard is stored under.
	Key  string
	Size int
}

type Service struct {
	mu    sync.Mutex
	eb    *event.Bus
	store kv.Store
	key   string
	size  int
}

func NewService(c Config) *Service {
	s := &Service{
		eb:    c.EventBus,
		store: c.Store,
		key:   c.Key,
		size:  c.Size,
	}

	if s.key == "" {
		s.key = DefaultKey
	}
	if s.size <= 0 {
		s.size = DefaultSize
	}

	return s
}

// Load returns the stored leaderboard, sorted by score in descending order.
// Missing or corrupt data yields an empty leaderboard.
func (s *Service) Load(ctx context.Context) ([]domain.LeaderboardEntry, error) {
	raw, err := s.store.Get(ctx, s.key)
	if stderrors.Is(err, kv.ErrNotFound) {
		return []domain.LeaderboardEntry{}, nil
	}
	if err != nil {
		return nil, errors.Internal(fmt.Errorf("leaderboard: load: %w", err))
	}

	var entries []domain.LeaderboardEntry
	if err := json.Unmarshal([]byte(raw), &entries); err != nil {
		slog.WarnContext(ctx, "leaderboard: stored data is corrupt, treating as empty",
			"key", s.key,
			"error", err,
		)
		return []domain.LeaderboardEntry{}, nil
	}
	if entries == nil {
		entries = []domain.LeaderboardEntry{}
	}

	return entries, nil
}

// Record adds an entry and keeps only the best scores. Entries with equal
// scores keep their insertion order.
func (s *Service) Record(ctx context.Context, entry domain.LeaderboardEntry) ([]domain.LeaderboardEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := s.Load(ctx)
	if err != nil {
		return nil, err
	}

	entries = append(entries, entry)
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Score > entries[j].Score
	})
	if len(entries) > s.size {
		entries = entries[:s.size]
	}

	b, err := json.Marshal(entries)
	if err != nil {
		return nil, errors.Internal(fmt.Errorf("leaderboard: marshal: %w", err))
	}

	if err := s.store.Set(ctx, s.key, string(b)); err != nil {
		return nil, errors.Internal(fmt.Errorf("leaderboard: save: %w", err))
	}

	if s.eb != nil {
		s.eb.Publish(ctx, domain.EventLeaderboardUpdated{
			Entries: append([]domain.LeaderboardEntry(nil), entries...),
		})
	}

	return entries, nil
}
