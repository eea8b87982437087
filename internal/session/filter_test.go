package session

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/smartkasir/pos-backend/internal/catalog"
	pkgerrors "github.com/smartkasir/pos-backend/pkg/errors"
)

type stubCatalog struct {
	products map[string]*catalog.Product
	err      error
}

func (s *stubCatalog) Get(_ context.Context, productID string) (*catalog.Product, error) {
	if s.err != nil {
		return nil, s.err
	}
	if p, ok := s.products[productID]; ok {
		return p, nil
	}
	return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
}

func testProducts() map[string]*catalog.Product {
	return map[string]*catalog.Product{
		"p1": {ID: "p1", Name: "Kopi Susu", Price: decimal.NewFromInt(10000), DiscountPercent: decimal.Zero},
		"p2": {ID: "p2", Name: "Teh Manis", Price: decimal.NewFromInt(5000), DiscountPercent: decimal.NewFromInt(10)},
	}
}

func TestFilterResolveAccepts(t *testing.T) {
	t.Parallel()

	f := &messageFilter{catalog: &stubCatalog{products: testProducts()}}
	payload := []byte(`{"id":"kasir-1","items":[{"id":"p1","qty":2},{"id":"p2","qty":1}]}`)

	userID, items, notFound, err := f.Resolve(context.Background(), payload)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if userID != "kasir-1" {
		t.Fatalf("expected user kasir-1 got %q", userID)
	}
	if len(notFound) != 0 {
		t.Fatalf("expected no unresolved ids, got %v", notFound)
	}
	if len(items) != 2 {
		t.Fatalf("expected 2 items got %d", len(items))
	}

	if got := items[0].LineTotal(); !got.Equal(decimal.NewFromInt(20000)) {
		t.Fatalf("expected line total 20000 got %s", got)
	}
	if got := items[1].LineTotal(); !got.Equal(decimal.NewFromInt(4500)) {
		t.Fatalf("expected discounted line total 4500 got %s", got)
	}
}

func TestFilterResolveDefaultsUserAndQty(t *testing.T) {
	t.Parallel()

	f := &messageFilter{catalog: &stubCatalog{products: testProducts()}}
	payload := []byte(`{"items":[{"id":"p1","qty":0}]}`)

	userID, items, _, err := f.Resolve(context.Background(), payload)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if userID != "unknown" {
		t.Fatalf("expected default user got %q", userID)
	}
	if items[0].Quantity != 1 {
		t.Fatalf("expected qty normalized to 1 got %d", items[0].Quantity)
	}
}

func TestFilterResolveMalformed(t *testing.T) {
	t.Parallel()

	f := &messageFilter{catalog: &stubCatalog{products: testProducts()}}

	for _, payload := range []string{`not json`, `{"id":"kasir-1"}`, `[]`} {
		_, _, _, err := f.Resolve(context.Background(), []byte(payload))
		typed := pkgerrors.As(err)
		if typed == nil || typed.Code() != pkgerrors.CodeValidation {
			t.Fatalf("payload %q: expected validation error got %v", payload, err)
		}
	}
}

func TestFilterResolveEmptyCart(t *testing.T) {
	t.Parallel()

	f := &messageFilter{catalog: &stubCatalog{products: testProducts()}}
	_, _, _, err := f.Resolve(context.Background(), []byte(`{"id":"kasir-1","items":[]}`))

	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error got %v", err)
	}
}

func TestFilterResolveDropsUnknownItems(t *testing.T) {
	t.Parallel()

	f := &messageFilter{catalog: &stubCatalog{products: testProducts()}}
	payload := []byte(`{"id":"kasir-1","items":[{"id":"p1","qty":1},{"id":"ghost","qty":3},{"qty":2}]}`)

	_, items, notFound, err := f.Resolve(context.Background(), payload)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(items) != 1 || items[0].ProductID != "p1" {
		t.Fatalf("expected only p1 resolved, got %+v", items)
	}
	if len(notFound) != 2 {
		t.Fatalf("expected 2 unresolved entries got %v", notFound)
	}
}

func TestFilterResolveNothingResolved(t *testing.T) {
	t.Parallel()

	f := &messageFilter{catalog: &stubCatalog{products: testProducts()}}
	_, _, notFound, err := f.Resolve(context.Background(), []byte(`{"items":[{"id":"ghost","qty":1}]}`))

	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not-found error got %v", err)
	}
	if len(notFound) != 1 || notFound[0] != "ghost" {
		t.Fatalf("expected ghost unresolved got %v", notFound)
	}
}

func TestFilterResolveLookupFailureCountsAsNotFound(t *testing.T) {
	t.Parallel()

	f := &messageFilter{catalog: &stubCatalog{err: pkgerrors.New(pkgerrors.CodeDependency, "db down")}}
	_, _, _, err := f.Resolve(context.Background(), []byte(`{"items":[{"id":"p1","qty":1}]}`))

	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not-found error got %v", err)
	}
}
