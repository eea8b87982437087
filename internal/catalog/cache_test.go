package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	pkgerrors "github.com/smartkasir/pos-backend/pkg/errors"
	"github.com/smartkasir/pos-backend/pkg/redis"
)

type fakeCache struct {
	entries map[string]string
	getErr  error
	setErr  error
	sets    int
}

func (c *fakeCache) Get(_ context.Context, key string) (string, error) {
	if c.getErr != nil {
		return "", c.getErr
	}
	if val, ok := c.entries[key]; ok {
		return val, nil
	}
	return "", redis.ErrCacheMiss
}

func (c *fakeCache) Set(_ context.Context, key string, value any, _ time.Duration) error {
	c.sets++
	if c.setErr != nil {
		return c.setErr
	}
	if c.entries == nil {
		c.entries = map[string]string{}
	}
	switch v := value.(type) {
	case string:
		c.entries[key] = v
	case []byte:
		c.entries[key] = string(v)
	}
	return nil
}

func (c *fakeCache) CatalogKey(productID string) string {
	return "sk:catalog:" + productID
}

type countingStore struct {
	product *Product
	err     error
	calls   int
}

func (s *countingStore) Get(context.Context, string) (*Product, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return s.product, nil
}

func sampleProduct() *Product {
	return &Product{ID: "p1", Name: "Kopi Susu", Price: decimal.NewFromInt(10000), DiscountPercent: decimal.Zero}
}

func TestCachedStoreMissThenHit(t *testing.T) {
	t.Parallel()

	next := &countingStore{product: sampleProduct()}
	cache := &fakeCache{}
	store, err := NewCachedStore(next, cache, time.Minute, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got, err := store.Get(context.Background(), "p1")
	if err != nil || got.ID != "p1" {
		t.Fatalf("unexpected result %+v %v", got, err)
	}
	if next.calls != 1 {
		t.Fatalf("expected 1 db lookup got %d", next.calls)
	}

	got, err = store.Get(context.Background(), "p1")
	if err != nil || !got.Price.Equal(decimal.NewFromInt(10000)) {
		t.Fatalf("unexpected result %+v %v", got, err)
	}
	if next.calls != 1 {
		t.Fatalf("second lookup should hit the cache, db calls %d", next.calls)
	}
}

func TestCachedStoreDegradesOnCacheFailure(t *testing.T) {
	t.Parallel()

	next := &countingStore{product: sampleProduct()}
	cache := &fakeCache{getErr: errors.New("connection refused"), setErr: errors.New("connection refused")}
	store, err := NewCachedStore(next, cache, time.Minute, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got, err := store.Get(context.Background(), "p1")
	if err != nil || got.ID != "p1" {
		t.Fatalf("cache failure must degrade to the store, got %+v %v", got, err)
	}
}

func TestCachedStoreCorruptEntryRefreshes(t *testing.T) {
	t.Parallel()

	next := &countingStore{product: sampleProduct()}
	cache := &fakeCache{entries: map[string]string{"sk:catalog:p1": "{corrupt"}}
	store, err := NewCachedStore(next, cache, time.Minute, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got, err := store.Get(context.Background(), "p1")
	if err != nil || got.ID != "p1" {
		t.Fatalf("unexpected result %+v %v", got, err)
	}
	if next.calls != 1 {
		t.Fatalf("corrupt entry must refresh from the store")
	}

	var refreshed Product
	if jsonErr := json.Unmarshal([]byte(cache.entries["sk:catalog:p1"]), &refreshed); jsonErr != nil {
		t.Fatalf("expected refreshed cache entry, got %q", cache.entries["sk:catalog:p1"])
	}
}

func TestCachedStorePropagatesNotFound(t *testing.T) {
	t.Parallel()

	next := &countingStore{err: pkgerrors.New(pkgerrors.CodeNotFound, "product not found")}
	store, err := NewCachedStore(next, &fakeCache{}, time.Minute, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	_, err = store.Get(context.Background(), "ghost")
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not-found error got %v", err)
	}
}
