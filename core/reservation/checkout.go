package reservation

import (
	"context"
	"fmt"
	"time"

	"github.com/irsalhamdi/e-commerce-store/core/cart"
	"github.com/irsalhamdi/e-commerce-store/core/order"
	"github.com/irsalhamdi/e-commerce-store/core/product"
	"github.com/irsalhamdi/e-commerce-store/database"
	"github.com/irsalhamdi/e-commerce-store/storeerr"
	"github.com/irsalhamdi/e-commerce-store/validate"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// CompleteCart checks the user's cart out against funds.
//
// Items whose product no longer has enough stock are dropped silently; every
// other product is decremented by one unit. The whole cart total must be
// covered by funds, otherwise nothing changes. On success the cart and its
// items are gone and a receipt is recorded. All of it commits as one
// transaction.
func (e *Engine) CompleteCart(ctx context.Context, userID string, funds decimal.Decimal) ([]product.Product, error) {
	if funds.IsNegative() {
		return nil, storeerr.New(storeerr.InvalidArgument, "funds must not be negative")
	}

	var (
		bought  []product.Product
		dropped int
		total   decimal.Decimal
	)

	err := database.Transaction(ctx, e.db, func(tx sqlx.ExtContext) error {
		c, err := cart.FetchForUpdate(ctx, tx, userID)
		if err != nil {
			return err
		}

		items, err := cart.FetchItems(ctx, tx, c.ID)
		if err != nil {
			return err
		}

		locked, err := product.FetchForUpdate(ctx, tx, productIDs(items))
		if err != nil {
			return err
		}

		stock := make(map[string]product.Product, len(locked))
		for _, p := range locked {
			stock[p.ID] = p
		}

		candidates := purchasable(items, stock)

		if c.Total.GreaterThan(funds) {
			return storeerr.Funds(c.Total, funds)
		}

		bought = make([]product.Product, 0, len(candidates))
		for _, p := range candidates {
			np, err := product.Decrement(ctx, tx, p.ID, 1)
			if err != nil {
				return err
			}
			bought = append(bought, np)
		}

		if err := record(ctx, tx, c, funds, candidates, e.now()); err != nil {
			return err
		}

		if err := cart.Delete(ctx, tx, c.ID); err != nil {
			return err
		}

		dropped = len(items) - len(candidates)
		total = c.Total
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("completing the cart of user[%s]: %w", userID, classify(err))
	}

	e.log.WithFields(logrus.Fields{
		"user_id":   userID,
		"purchased": len(bought),
		"dropped":   dropped,
		"total":     total.StringFixed(2),
	}).Info("cart completed")

	return bought, nil
}

// record writes the receipt of a completed cart. Prices are the ones in
// force when the cart was completed.
func record(ctx context.Context, tx sqlx.ExtContext, c cart.Cart, funds decimal.Decimal, bought []product.Product, now time.Time) error {
	ord := order.Order{
		ID:        validate.GenerateID(),
		UserID:    c.UserID,
		Total:     c.Total,
		Funds:     funds,
		CreatedAt: now,
	}

	if err := order.Create(ctx, tx, ord); err != nil {
		return fmt.Errorf("creating order: %w", err)
	}

	for _, p := range bought {
		it := order.Item{
			OrderID:   ord.ID,
			ProductID: p.ID,
			Title:     p.Title,
			Price:     p.Price,
			Quantity:  1,
			CreatedAt: now,
		}
		if err := order.CreateItem(ctx, tx, it); err != nil {
			return fmt.Errorf("creating order item: %w", err)
		}
	}

	return nil
}
