package middleware

import (
	"context"
	"net/http"

	"github.com/irsalhamdi/e-commerce-store/api/web"
	"github.com/irsalhamdi/e-commerce-store/api/weberr"
	"github.com/irsalhamdi/e-commerce-store/core/claims"
)

// Identify requires the caller's user id header and stores it in the
// request context.
func Identify() web.Middleware {
	m := func(handler web.Handler) web.Handler {
		h := func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
			clm, err := claims.FromHeader(r.Header.Get(claims.UserIDHeader))
			if err != nil {
				return weberr.NewError(err, err.Error(), http.StatusUnauthorized)
			}

			return handler(claims.Set(ctx, clm), w, r)
		}
		return h
	}
	return m
}
