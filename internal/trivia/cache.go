package trivia

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/victornm/etrivia/internal/domain"
)

// CategorySource lists the categories offered by a provider.
type CategorySource interface {
	Categories(ctx context.Context) ([]domain.Category, error)
}

// CategoryCache caches categories for a TTL. Concurrent misses share one
// upstream request and failures are not cached.
type CategoryCache struct {
	source CategorySource
	ttl    time.Duration
	clock  func() time.Time
	sf     singleflight.Group

	rndMu sync.Mutex
	rnd   *rand.Rand

	mu        sync.RWMutex
	cats      []domain.Category
	expiresAt time.Time
}

func NewCategoryCache(source CategorySource, ttl time.Duration) *CategoryCache {
	return &CategoryCache{
		source: source,
		ttl:    ttl,
		clock:  time.Now,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (c *CategoryCache) Categories(ctx context.Context) ([]domain.Category, error) {
	if cats, ok := c.cached(); ok {
		return cats, nil
	}

	result, err, _ := c.sf.Do(endpointCategories, func() (interface{}, error) {
		if cats, ok := c.cached(); ok {
			return cats, nil
		}

		cats, err := c.source.Categories(ctx)
		if err != nil {
			return nil, err
		}

		ttl := c.ttlWithJitter()

		c.mu.Lock()
		c.cats = cats
		c.expiresAt = c.clock().Add(ttl)
		c.mu.Unlock()
		return cats, nil
	})
	if err != nil {
		return nil, err
	}

	return result.([]domain.Category), nil
}

func (c *CategoryCache) cached() ([]domain.Category, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.cats == nil || !c.expiresAt.After(c.clock()) {
		return nil, false
	}
	return c.cats, true
}

func (c *CategoryCache) ttlWithJitter() time.Duration {
	if c.ttl <= 0 {
		return 0
	}
	// up to 10% jitter
	jitterMax := int64(c.ttl) / 10

	c.rndMu.Lock()
	defer c.rndMu.Unlock()
	return c.ttl + time.Duration(c.rnd.Int63n(jitterMax+1))
}
