package order

import (
	"context"
	"fmt"

	"github.com/irsalhamdi/e-commerce-store/database"
	"github.com/jmoiron/sqlx"
)

func Create(ctx context.Context, tx sqlx.ExtContext, o Order) error {
	const q = `
	INSERT INTO orders
		(order_id, user_id, total, funds, created_at)
	VALUES
		(:order_id, :user_id, :total, :funds, :created_at)`

	if _, err := database.NamedExecContext(ctx, tx, q, o); err != nil {
		return fmt.Errorf("inserting order: %w", err)
	}

	return nil
}

func CreateItem(ctx context.Context, tx sqlx.ExtContext, it Item) error {
	const q = `
	INSERT INTO order_items
		(order_id, product_id, title, price, quantity, created_at)
	VALUES
		(:order_id, :product_id, :title, :price, :quantity, :created_at)`

	if _, err := database.NamedExecContext(ctx, tx, q, it); err != nil {
		return fmt.Errorf("inserting order item: %w", err)
	}

	return nil
}

// QueryByUser returns the user's orders, newest first, with their items.
func QueryByUser(ctx context.Context, db sqlx.ExtContext, userID string) ([]Order, error) {
	in := struct {
		UserID string `db:"user_id"`
	}{
		UserID: userID,
	}

	const qo = `
	SELECT
		*
	FROM
		orders
	WHERE
		user_id = :user_id
	ORDER BY
		created_at DESC, order_id`

	var ords []Order
	if err := database.NamedQuerySlice(ctx, db, qo, in, &ords); err != nil {
		return nil, fmt.Errorf("selecting orders of user[%s]: %w", userID, err)
	}

	const qi = `
	SELECT
		i.*
	FROM
		order_items AS i
	JOIN
		orders AS o ON o.order_id = i.order_id
	WHERE
		o.user_id = :user_id
	ORDER BY
		i.title`

	var items []Item
	if err := database.NamedQuerySlice(ctx, db, qi, in, &items); err != nil {
		return nil, fmt.Errorf("selecting order items of user[%s]: %w", userID, err)
	}

	byOrder := make(map[string][]Item, len(ords))
	for _, it := range items {
		byOrder[it.OrderID] = append(byOrder[it.OrderID], it)
	}

	out := make([]Order, 0, len(ords))
	for _, o := range ords {
		o.Items = byOrder[o.ID]
		if o.Items == nil {
			o.Items = []Item{}
		}
		out = append(out, o)
	}

	return out, nil
}
