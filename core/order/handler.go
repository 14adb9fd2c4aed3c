package order

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/irsalhamdi/e-commerce-store/api/web"
	"github.com/irsalhamdi/e-commerce-store/api/weberr"
	"github.com/irsalhamdi/e-commerce-store/core/claims"
	"github.com/jmoiron/sqlx"
)

func HandleList(db *sqlx.DB) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		clm, err := claims.Get(ctx)
		if err != nil {
			return weberr.NotAuthorized(errors.New("user not identified"))
		}

		ords, err := QueryByUser(ctx, db, clm.UserID)
		if err != nil {
			return fmt.Errorf("listing orders: %w", err)
		}

		return web.Respond(ctx, w, ords, http.StatusOK)
	}
}
