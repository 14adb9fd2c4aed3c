package middleware

import (
	"context"
	"net/http"
	"time"

	"github.com/irsalhamdi/e-commerce-store/api/web"
	"github.com/irsalhamdi/e-commerce-store/core/claims"
	"github.com/sirupsen/logrus"
	"github.com/zenazn/goji/web/mutil"
)

// Logger writes one entry per request, tagged with the caller when known.
func Logger(log logrus.FieldLogger) web.Middleware {
	m := func(handler web.Handler) web.Handler {
		h := func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {

			log := log.WithFields(logrus.Fields{
				"req_id":     ContextRequestID(ctx),
				"method":     r.Method,
				"path":       r.URL.Path,
				"remoteaddr": r.RemoteAddr,
			})
			if user := r.Header.Get(claims.UserIDHeader); user != "" {
				log = log.WithField("user_id", user)
			}

			log.Debug("started")
			start := time.Now()

			lw := mutil.WrapWriter(w)
			err := handler(ctx, lw, r)

			log = log.WithFields(logrus.Fields{
				"statuscode": lw.Status(),
				"bytes":      lw.BytesWritten(),
				"since_ms":   time.Since(start).Milliseconds(),
			})
			if lw.Status() >= http.StatusInternalServerError {
				log.Warn("completed")
			} else {
				log.Info("completed")
			}
			return err
		}
		return h
	}
	return m
}
