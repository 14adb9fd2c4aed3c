package weberr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/irsalhamdi/e-commerce-store/storeerr"
)

func TestStore(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		body   *ErrorResponse
	}{
		{
			name:   "no cart",
			err:    fmt.Errorf("adding item: %w", storeerr.New(storeerr.NoCart, "please create a cart")),
			status: http.StatusNotFound,
			body:   &ErrorResponse{Error: "please create a cart", Kind: "no_cart"},
		},
		{
			name:   "insufficient stock",
			err:    fmt.Errorf("adding item: %w", storeerr.Stock("Widget", 5, 6)),
			status: http.StatusUnprocessableEntity,
			body: &ErrorResponse{
				Error:   "there are only 5 items of type Widget, but 6 were requested",
				Kind:    "insufficient_stock",
				Details: map[string]interface{}{"available": 5, "requested": 6},
			},
		},
		{
			name:   "conflict",
			err:    storeerr.Wrap(storeerr.Conflict, errors.New("40001"), "concurrent update"),
			status: http.StatusConflict,
			body:   &ErrorResponse{Error: "concurrent update", Kind: "conflict", Retryable: true},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			body, status, ok := Response(Store(tt.err))
			if !ok {
				t.Fatal("expected a response to be attached")
			}
			if status != tt.status {
				t.Fatalf("expected status %d, got %d", tt.status, status)
			}
			if diff := cmp.Diff(tt.body, body); diff != "" {
				t.Fatalf("wrong body (-want +got):\n%s", diff)
			}
		})
	}
}

func TestStoreUnknown(t *testing.T) {
	err := errors.New("boom")
	if got := Store(err); got != err {
		t.Fatalf("expected error untouched, got %v", got)
	}
	if _, _, ok := Response(Store(err)); ok {
		t.Fatal("did not expect a response for an unknown error")
	}
}

func TestFields(t *testing.T) {
	inner := Wrap(errors.New("boom"), WithFields(map[string]interface{}{"a": 1, "b": 1}))
	outer := Wrap(fmt.Errorf("outer: %w", inner), WithFields(map[string]interface{}{"b": 2}))

	got, ok := Fields(outer)
	if !ok {
		t.Fatal("expected fields")
	}
	exp := map[string]interface{}{"a": 1, "b": 2}
	if diff := cmp.Diff(exp, got); diff != "" {
		t.Fatalf("wrong fields (-want +got):\n%s", diff)
	}
}
