package cart

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/irsalhamdi/e-commerce-store/api/web"
	"github.com/irsalhamdi/e-commerce-store/api/weberr"
	"github.com/irsalhamdi/e-commerce-store/core/claims"
	"github.com/irsalhamdi/e-commerce-store/core/product"
	"github.com/irsalhamdi/e-commerce-store/validate"
	"github.com/shopspring/decimal"
)

// Reserver is the reservation engine as seen by the cart endpoints.
type Reserver interface {
	CreateCart(ctx context.Context, userID string) (Cart, error)
	FetchCart(ctx context.Context, userID string) (Cart, error)
	DeleteCart(ctx context.Context, userID string) error
	AddItem(ctx context.Context, userID string, title string, quantity int) ([]Item, error)
	CompleteCart(ctx context.Context, userID string, funds decimal.Decimal) ([]product.Product, error)
}

func HandleCreate(rs Reserver) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		clm, err := claims.Get(ctx)
		if err != nil {
			return weberr.NotAuthorized(errors.New("user not identified"))
		}

		c, err := rs.CreateCart(ctx, clm.UserID)
		if err != nil {
			return weberr.Store(err)
		}

		return web.Respond(ctx, w, c, http.StatusCreated)
	}
}

func HandleShow(rs Reserver) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		clm, err := claims.Get(ctx)
		if err != nil {
			return weberr.NotAuthorized(errors.New("user not identified"))
		}

		c, err := rs.FetchCart(ctx, clm.UserID)
		if err != nil {
			return weberr.Store(fmt.Errorf("fetching cart: %w", err))
		}

		return web.Respond(ctx, w, c, http.StatusOK)
	}
}

func HandleDelete(rs Reserver) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		clm, err := claims.Get(ctx)
		if err != nil {
			return weberr.NotAuthorized(errors.New("user not identified"))
		}

		if err := rs.DeleteCart(ctx, clm.UserID); err != nil {
			return weberr.Store(fmt.Errorf("deleting cart: %w", err))
		}

		return web.Respond(ctx, w, nil, http.StatusNoContent)
	}
}

func HandleCreateItem(rs Reserver) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		clm, err := claims.Get(ctx)
		if err != nil {
			return weberr.NotAuthorized(errors.New("user not identified"))
		}

		var in ItemNew
		if err := web.Decode(w, r, &in); err != nil {
			return weberr.BadRequest(fmt.Errorf("unable to decode payload: %w", err))
		}

		if err := validate.Check(in); err != nil {
			return weberr.NewError(err, err.Error(), http.StatusBadRequest)
		}

		items, err := rs.AddItem(ctx, clm.UserID, in.Title, in.Quantity)
		if err != nil {
			return weberr.Store(err)
		}

		return web.Respond(ctx, w, items, http.StatusOK)
	}
}

func HandleComplete(rs Reserver) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		clm, err := claims.Get(ctx)
		if err != nil {
			return weberr.NotAuthorized(errors.New("user not identified"))
		}

		var in Checkout
		if err := web.Decode(w, r, &in); err != nil {
			return weberr.BadRequest(fmt.Errorf("unable to decode payload: %w", err))
		}

		prods, err := rs.CompleteCart(ctx, clm.UserID, in.Funds)
		if err != nil {
			return weberr.Store(err)
		}

		return web.Respond(ctx, w, prods, http.StatusOK)
	}
}
