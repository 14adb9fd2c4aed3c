package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/irsalhamdi/e-commerce-store/api/middleware"
	"github.com/irsalhamdi/e-commerce-store/api/web"
	"github.com/irsalhamdi/e-commerce-store/core/cart"
	"github.com/irsalhamdi/e-commerce-store/core/order"
	"github.com/irsalhamdi/e-commerce-store/core/product"
	"github.com/irsalhamdi/e-commerce-store/core/reservation"
	"github.com/irsalhamdi/e-commerce-store/database"
	"github.com/irsalhamdi/e-commerce-store/rate"
	"github.com/jmoiron/sqlx"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
)

type APIConfig struct {
	CorsOrigin string
	Log        logrus.FieldLogger
	DB         *sqlx.DB
	Limiter    *rate.Limiter
	Registry   *prometheus.Registry
}

type api struct {
	*mux.Router
	mw  []web.Middleware
	log logrus.FieldLogger
}

func APIMux(cfg APIConfig) http.Handler {
	a := &api{
		Router: mux.NewRouter(),
		log:    cfg.Log,
	}

	a.mw = append(a.mw, middleware.RequestID())
	a.mw = append(a.mw, middleware.Logger(cfg.Log))
	if cfg.Registry != nil {
		a.mw = append(a.mw, middleware.NewMetrics(cfg.Registry).Instrument())
	}
	a.mw = append(a.mw, middleware.Errors(cfg.Log))
	a.mw = append(a.mw, middleware.Panics())
	if cfg.Limiter != nil {
		a.mw = append(a.mw, middleware.RateLimit(cfg.Limiter))
	}

	if cfg.CorsOrigin != "" {
		a.mw = append(a.mw, middleware.Cors(cfg.CorsOrigin))

		h := func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
			w.WriteHeader(http.StatusNoContent)
			return nil
		}

		a.Handle(http.MethodOptions, "/{path:.*}", h)
	}

	eng := reservation.New(cfg.Log, cfg.DB)
	ident := middleware.Identify()

	a.Handle(http.MethodGet, "/health", handleHealth(cfg.DB))
	if cfg.Registry != nil {
		a.Router.Handle("/metrics", promhttp.HandlerFor(cfg.Registry, promhttp.HandlerOpts{})).Methods(http.MethodGet)
	}

	a.Handle(http.MethodGet, "/products", product.HandleList(cfg.DB))
	a.Handle(http.MethodPost, "/products", product.HandleCreate(eng))
	a.Handle(http.MethodGet, "/products/{title}", product.HandleShow(cfg.DB))
	a.Handle(http.MethodPost, "/products/{title}/purchase", product.HandlePurchase(eng))

	a.Handle(http.MethodPost, "/cart", cart.HandleCreate(eng), ident)
	a.Handle(http.MethodGet, "/cart", cart.HandleShow(eng), ident)
	a.Handle(http.MethodDelete, "/cart", cart.HandleDelete(eng), ident)
	a.Handle(http.MethodPut, "/cart/items", cart.HandleCreateItem(eng), ident)
	a.Handle(http.MethodPost, "/cart/complete", cart.HandleComplete(eng), ident)

	a.Handle(http.MethodGet, "/orders", order.HandleList(cfg.DB), ident)

	return a.Router
}

func (a *api) Handle(method string, path string, handler web.Handler, mw ...web.Middleware) {

	handler = web.WrapMiddleware(mw, handler)

	handler = web.WrapMiddleware(a.mw, handler)

	h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {

		ctx := r.Context()

		if err := handler(ctx, w, r); err != nil {

			a.log.WithFields(logrus.Fields{
				"req_id":  middleware.ContextRequestID(ctx),
				"message": err,
			}).Error("ERROR")
		}
	})

	a.Router.Handle(path, h).Methods(method)
}

func handleHealth(db *sqlx.DB) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		ctx, cancel := context.WithTimeout(ctx, time.Second)
		defer cancel()

		status := struct {
			Status string `json:"status"`
		}{
			Status: "ok",
		}

		code := http.StatusOK
		if err := database.StatusCheck(ctx, db); err != nil {
			status.Status = "db not ready"
			code = http.StatusServiceUnavailable
		}

		return web.Respond(ctx, w, status, code)
	}
}
