// Package claims carries the identity of the caller through a request.
// Identity is an opaque key handed in by the caller; it is not verified.
package claims

import (
	"context"
	"errors"
	"strings"
)

const UserIDHeader = "X-User-Id"

type Claims struct {
	UserID string
}

type ctxKey int

const claimsKey ctxKey = 1

func Set(ctx context.Context, claims Claims) context.Context {
	return context.WithValue(ctx, claimsKey, claims)
}

func Get(ctx context.Context) (Claims, error) {
	v, ok := ctx.Value(claimsKey).(Claims)
	if !ok {
		return Claims{}, errors.New("claim value missing from context")
	}
	return v, nil
}

// FromHeader builds the claims for a raw header value.
func FromHeader(v string) (Claims, error) {
	id := strings.TrimSpace(v)
	if id == "" {
		return Claims{}, errors.New("user id header is empty")
	}
	if len(id) > 128 {
		return Claims{}, errors.New("user id is too long")
	}
	return Claims{UserID: id}, nil
}
