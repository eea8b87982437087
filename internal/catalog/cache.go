package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/smartkasir/pos-backend/pkg/logger"
	"github.com/smartkasir/pos-backend/pkg/redis"
)

type cacheStore interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	CatalogKey(productID string) string
}

// CachedStore layers a redis read-through cache over another Store. Cache
// failures degrade to the underlying store, never to a lookup failure.
type CachedStore struct {
	next  Store
	cache cacheStore
	ttl   time.Duration
	logg  *logger.Logger
}

// NewCachedStore wraps next with a read-through cache.
func NewCachedStore(next Store, cache cacheStore, ttl time.Duration, logg *logger.Logger) (*CachedStore, error) {
	if next == nil {
		return nil, fmt.Errorf("catalog store required")
	}
	if cache == nil {
		return nil, fmt.Errorf("cache store required")
	}
	return &CachedStore{next: next, cache: cache, ttl: ttl, logg: logg}, nil
}

// Get returns the cached product when fresh, falling back to the next store.
func (s *CachedStore) Get(ctx context.Context, productID string) (*Product, error) {
	key := s.cache.CatalogKey(productID)

	raw, err := s.cache.Get(ctx, key)
	switch {
	case err == nil:
		var cached Product
		if jsonErr := json.Unmarshal([]byte(raw), &cached); jsonErr == nil {
			return &cached, nil
		}
		// Corrupt entry: fall through and refresh.
	case !errors.Is(err, redis.ErrCacheMiss):
		if s.logg != nil {
			s.logg.Warn(s.logg.WithField(ctx, "product_id", productID), "catalog cache read failed")
		}
	}

	product, err := s.next.Get(ctx, productID)
	if err != nil {
		return nil, err
	}

	if encoded, jsonErr := json.Marshal(product); jsonErr == nil {
		if setErr := s.cache.Set(ctx, key, encoded, s.ttl); setErr != nil && s.logg != nil {
			s.logg.Warn(s.logg.WithField(ctx, "product_id", productID), "catalog cache write failed")
		}
	}

	return product, nil
}
