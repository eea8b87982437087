package errors

import (
	stdErrors "errors"
	"fmt"
	"net/http"
	"testing"
)

func TestWrapPreservesCause(t *testing.T) {
	t.Parallel()

	cause := stdErrors.New("connection refused")
	err := Wrap(CodeTransport, cause, "subscribe cart topic")

	if !stdErrors.Is(err, cause) {
		t.Fatalf("expected wrapped cause to be reachable")
	}
	if err.Code() != CodeTransport {
		t.Fatalf("unexpected code %s", err.Code())
	}
}

func TestAsThroughFmtWrap(t *testing.T) {
	t.Parallel()

	inner := New(CodeStateConflict, "no checkout in progress")
	outer := fmt.Errorf("handling request: %w", inner)

	typed := As(outer)
	if typed == nil || typed.Code() != CodeStateConflict {
		t.Fatalf("expected typed error through the chain, got %v", typed)
	}
}

func TestAsUntyped(t *testing.T) {
	t.Parallel()

	if typed := As(stdErrors.New("boom")); typed != nil {
		t.Fatalf("expected nil for untyped error got %v", typed)
	}
	if typed := As(nil); typed != nil {
		t.Fatalf("expected nil for nil error got %v", typed)
	}
}

func TestMetadataFor(t *testing.T) {
	t.Parallel()

	cases := []struct {
		code   Code
		status int
	}{
		{CodeValidation, http.StatusBadRequest},
		{CodeNotFound, http.StatusNotFound},
		{CodeStateConflict, http.StatusUnprocessableEntity},
		{CodeTransport, http.StatusServiceUnavailable},
		{CodeGateway, http.StatusBadGateway},
		{CodeDependency, http.StatusServiceUnavailable},
		{Code("NOT_A_REAL_CODE"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		if got := MetadataFor(tc.code).HTTPStatus; got != tc.status {
			t.Fatalf("MetadataFor(%s).HTTPStatus = %d, want %d", tc.code, got, tc.status)
		}
	}
}

func TestDump(t *testing.T) {
	t.Parallel()

	cause := stdErrors.New("dial tcp: refused")
	err := Wrap(CodeDependency, cause, "record sale")

	d := Dump(err)
	if d.Code != CodeDependency {
		t.Fatalf("unexpected code %s", d.Code)
	}
	if len(d.Chain) != 2 {
		t.Fatalf("expected chain of 2 got %v", d.Chain)
	}
}
