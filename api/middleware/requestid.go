package middleware

import (
	"context"
	"net/http"

	"github.com/google/uuid"
	"github.com/irsalhamdi/e-commerce-store/api/web"
)

const (
	RequestIDHeader = "X-Request-Id"

	requestIDLengthLimit = 128
)

type reqIDKeyCtx int

const reqIDKey reqIDKeyCtx = 1

// RequestID tags the request with the id sent by the caller, or a fresh one,
// and echoes it back in the response.
func RequestID() web.Middleware {
	m := func(handler web.Handler) web.Handler {
		h := func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {

			id := r.Header.Get(RequestIDHeader)
			if id == "" {
				id = uuid.NewString()
			} else if len(id) > requestIDLengthLimit {
				id = id[:requestIDLengthLimit]
			}
			w.Header().Set(RequestIDHeader, id)

			return handler(context.WithValue(ctx, reqIDKey, id), w, r)
		}
		return h
	}
	return m
}

func ContextRequestID(ctx context.Context) string {
	id, _ := ctx.Value(reqIDKey).(string)
	return id
}
