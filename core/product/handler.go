package product

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/irsalhamdi/e-commerce-store/api/web"
	"github.com/irsalhamdi/e-commerce-store/api/weberr"
	"github.com/irsalhamdi/e-commerce-store/storeerr"
	"github.com/irsalhamdi/e-commerce-store/validate"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
)

// Ledger is the part of the reservation engine that changes products.
type Ledger interface {
	CreateProduct(ctx context.Context, np ProductNew) (Product, error)
	Purchase(ctx context.Context, title string, funds decimal.Decimal) (Product, error)
}

func HandleCreate(l Ledger) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		var np ProductNew
		if err := web.Decode(w, r, &np); err != nil {
			return weberr.BadRequest(fmt.Errorf("unable to decode payload: %w", err))
		}

		if err := validate.Check(np); err != nil {
			return weberr.NewError(err, err.Error(), http.StatusBadRequest)
		}

		p, err := l.CreateProduct(ctx, np)
		if err != nil {
			return weberr.Store(fmt.Errorf("creating product: %w", err))
		}

		return web.Respond(ctx, w, p, http.StatusCreated)
	}
}

func HandleShow(db *sqlx.DB) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		title := strings.TrimSpace(web.Param(r, "title"))

		p, err := FetchByTitle(ctx, db, title)
		if err != nil {
			if storeerr.Is(err, storeerr.NotFound) {
				return weberr.NotFound(err)
			}
			return fmt.Errorf("fetching product[%s]: %w", title, err)
		}

		return web.Respond(ctx, w, p, http.StatusOK)
	}
}

func HandleList(db *sqlx.DB) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		available, err := web.QueryBool(r, "available", false)
		if err != nil {
			return weberr.NewError(err, err.Error(), http.StatusBadRequest)
		}

		prods, err := Query(ctx, db, available)
		if err != nil {
			return fmt.Errorf("listing products: %w", err)
		}

		return web.Respond(ctx, w, prods, http.StatusOK)
	}
}

func HandlePurchase(l Ledger) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		title := web.Param(r, "title")

		var pur Purchase
		if err := web.Decode(w, r, &pur); err != nil {
			return weberr.BadRequest(fmt.Errorf("unable to decode payload: %w", err))
		}

		if err := validate.Check(pur); err != nil {
			return weberr.NewError(err, err.Error(), http.StatusBadRequest)
		}

		p, err := l.Purchase(ctx, title, pur.Funds)
		if err != nil {
			return weberr.Store(fmt.Errorf("purchasing product[%s]: %w", title, err))
		}

		return web.Respond(ctx, w, p, http.StatusOK)
	}
}
