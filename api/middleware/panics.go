package middleware

import (
	"context"
	"fmt"
	"net/http"
	"runtime/debug"

	"github.com/irsalhamdi/e-commerce-store/api/web"
	"github.com/irsalhamdi/e-commerce-store/api/weberr"
)

// Panics turns a panic in a handler into an internal error so the Errors
// middleware can report it.
func Panics() web.Middleware {
	m := func(handler web.Handler) web.Handler {
		h := func(ctx context.Context, w http.ResponseWriter, r *http.Request) (err error) {

			defer func() {
				if rec := recover(); rec != nil {
					trace := debug.Stack()
					err = weberr.InternalError(
						fmt.Errorf("PANIC [%v]", rec),
						weberr.WithFields(map[string]interface{}{"trace": string(trace)}),
					)
				}
			}()

			return handler(ctx, w, r)
		}
		return h
	}
	return m
}
