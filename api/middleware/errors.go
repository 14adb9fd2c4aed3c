package middleware

import (
	"context"
	"net/http"

	"github.com/irsalhamdi/e-commerce-store/api/web"
	"github.com/irsalhamdi/e-commerce-store/api/weberr"
	"github.com/sirupsen/logrus"
)

// Errors logs every error a handler returns and writes the response
// attached to it, or a generic internal error when there is none. Handled
// errors do not travel further up the chain.
func Errors(log logrus.FieldLogger) web.Middleware {
	m := func(handler web.Handler) web.Handler {
		h := func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {

			err := handler(ctx, w, r)
			if err == nil {
				return nil
			}

			fields := logrus.Fields{
				"req_id":  ContextRequestID(ctx),
				"message": err,
			}
			if f, ok := weberr.Fields(err); ok {
				for k, v := range f {
					fields[k] = v
				}
			}

			if body, code, ok := weberr.Response(err); ok {
				entry := log.WithFields(fields).WithField("statuscode", code)
				if code >= http.StatusInternalServerError {
					entry.Error("ERROR")
				} else {
					entry.Info("request rejected")
				}
				return web.Respond(ctx, w, body, code)
			}

			log.WithFields(fields).Error("ERROR")

			er := weberr.ErrorResponse{
				Error: http.StatusText(http.StatusInternalServerError),
			}
			return web.Respond(ctx, w, er, http.StatusInternalServerError)
		}
		return h
	}
	return m
}
