package game

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/victornm/etrivia/internal/domain"
	"github.com/victornm/etrivia/internal/errors"
)

// Registry holds the controllers of all open games, keyed by game id.
type Registry struct {
	c Config

	mu    sync.RWMutex
	games map[string]*Controller
}

func NewRegistry(c Config) *Registry {
	return &Registry{
		c:     c,
		games: make(map[string]*Controller),
	}
}

// Create opens a new game and returns its id.
func (r *Registry) Create() (string, *Controller, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return "", nil, errors.Internal(fmt.Errorf("game: generate id: %w", err))
	}

	g := NewController(r.c)

	r.mu.Lock()
	r.games[id.String()] = g
	r.mu.Unlock()

	return id.String(), g, nil
}

func (r *Registry) Get(id string) (*Controller, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	g, ok := r.games[id]
	if !ok {
		return nil, domain.ErrGameNotFound
	}

	return g, nil
}

// Remove closes the game and forgets it.
func (r *Registry) Remove(id string) error {
	r.mu.Lock()
	g, ok := r.games[id]
	delete(r.games, id)
	r.mu.Unlock()

	if !ok {
		return domain.ErrGameNotFound
	}

	g.Close()
	return nil
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.games)
}

// Close closes every open game.
func (r *Registry) Close() {
	r.mu.Lock()
	games := r.games
	r.games = make(map[string]*Controller)
	r.mu.Unlock()

	for _, g := range games {
		g.Close()
	}
}

// EvictIdle closes and forgets every game that has had no command and no
// subscriber for longer than idle. It returns the number of evicted games.
func (r *Registry) EvictIdle(idle time.Duration) int {
	now := time.Now()
	if r.c.Now != nil {
		now = r.c.Now()
	}

	var evicted []*Controller
	r.mu.Lock()
	for id, g := range r.games {
		if g.idleFor(now) > idle {
			delete(r.games, id)
			evicted = append(evicted, g)
		}
	}
	r.mu.Unlock()

	for _, g := range evicted {
		g.Close()
	}

	return len(evicted)
}

// RunEviction evicts idle games every interval until ctx is done.
func (r *Registry) RunEviction(ctx context.Context, interval, idle time.Duration) {
	t := time.NewTicker(interval)
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			if n := r.EvictIdle(idle); n > 0 {
				slog.InfoContext(ctx, "game: evicted idle games", "count", n, "open", r.Len())
			}
		}
	}
}
