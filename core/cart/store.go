package cart

import (
	"context"
	"errors"
	"fmt"

	"github.com/irsalhamdi/e-commerce-store/database"
	"github.com/irsalhamdi/e-commerce-store/storeerr"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
)

// Create inserts the cart unless the user already owns one. The unique
// user_id constraint makes the check and the insert a single atomic step.
func Create(ctx context.Context, db sqlx.ExtContext, c Cart) error {
	const q = `
	INSERT INTO carts
		(cart_id, user_id, total, created_at, updated_at)
	VALUES
		(:cart_id, :user_id, :total, :created_at, :updated_at)
	ON CONFLICT (user_id) DO NOTHING`

	n, err := database.NamedExecContext(ctx, db, q, c)
	if err != nil {
		return fmt.Errorf("inserting cart: %w", err)
	}
	if n == 0 {
		return storeerr.Newf(storeerr.AlreadyExists, "cart already exists for user[%s]", c.UserID)
	}

	return nil
}

func Fetch(ctx context.Context, db sqlx.ExtContext, userID string) (Cart, error) {
	return fetch(ctx, db, userID, false)
}

// FetchForUpdate locks the user's cart row until the surrounding
// transaction ends. Every operation that changes a cart's contents takes
// this lock first.
func FetchForUpdate(ctx context.Context, tx sqlx.ExtContext, userID string) (Cart, error) {
	return fetch(ctx, tx, userID, true)
}

func fetch(ctx context.Context, db sqlx.ExtContext, userID string, lock bool) (Cart, error) {
	in := struct {
		UserID string `db:"user_id"`
	}{
		UserID: userID,
	}

	q := `
	SELECT
		cart_id, user_id, total, created_at, updated_at
	FROM
		carts
	WHERE
		user_id = :user_id`
	if lock {
		q += `
	FOR UPDATE`
	}

	var c Cart
	if err := database.NamedQueryStruct(ctx, db, q, in, &c); err != nil {
		if errors.Is(err, database.ErrDBNotFound) {
			return Cart{}, storeerr.Newf(storeerr.NoCart, "cart does not exist for user[%s]", userID)
		}
		if errors.Is(err, database.ErrDBConflict) {
			return Cart{}, storeerr.Wrap(storeerr.Conflict, err, "locking cart")
		}
		return Cart{}, fmt.Errorf("selecting cart of user[%s]: %w", userID, err)
	}

	return c, nil
}

func FetchItems(ctx context.Context, db sqlx.ExtContext, cartID string) ([]Item, error) {
	in := struct {
		CartID string `db:"cart_id"`
	}{
		CartID: cartID,
	}

	const q = `
	SELECT
		i.item_id, i.cart_id, i.product_id, p.title, i.quantity, i.created_at, i.updated_at
	FROM
		cart_items AS i
	JOIN
		products AS p ON p.product_id = i.product_id
	WHERE
		i.cart_id = :cart_id
	ORDER BY
		i.created_at, i.item_id`

	items := []Item{}
	if err := database.NamedQuerySlice(ctx, db, q, in, &items); err != nil {
		return nil, fmt.Errorf("selecting items of cart[%s]: %w", cartID, err)
	}
	if items == nil {
		items = []Item{}
	}

	return items, nil
}

func CreateItem(ctx context.Context, tx sqlx.ExtContext, it Item) error {
	const q = `
	INSERT INTO cart_items
		(item_id, cart_id, product_id, quantity, created_at, updated_at)
	VALUES
		(:item_id, :cart_id, :product_id, :quantity, :created_at, :updated_at)`

	if _, err := database.NamedExecContext(ctx, tx, q, it); err != nil {
		if errors.Is(err, database.ErrDBConflict) {
			return storeerr.Wrap(storeerr.Conflict, err, "inserting cart item")
		}
		return fmt.Errorf("inserting cart item: %w", err)
	}

	return nil
}

func UpdateItemQuantity(ctx context.Context, tx sqlx.ExtContext, it Item) error {
	const q = `
	UPDATE
		cart_items
	SET
		quantity = :quantity,
		updated_at = :updated_at
	WHERE
		item_id = :item_id`

	n, err := database.NamedExecContext(ctx, tx, q, it)
	if err != nil {
		if errors.Is(err, database.ErrDBConflict) {
			return storeerr.Wrap(storeerr.Conflict, err, "updating cart item")
		}
		return fmt.Errorf("updating cart item[%s]: %w", it.ID, err)
	}
	if n == 0 {
		return storeerr.Newf(storeerr.Conflict, "cart item[%s] vanished during update", it.ID)
	}

	return nil
}

// AddToTotal adds amount to the cart's running total.
func AddToTotal(ctx context.Context, tx sqlx.ExtContext, cartID string, amount decimal.Decimal) (decimal.Decimal, error) {
	in := struct {
		CartID string          `db:"cart_id"`
		Amount decimal.Decimal `db:"amount"`
	}{
		CartID: cartID,
		Amount: amount,
	}

	const q = `
	UPDATE
		carts
	SET
		total = total + :amount,
		updated_at = now() AT TIME ZONE 'utc'
	WHERE
		cart_id = :cart_id
	RETURNING
		cart_id, user_id, total, created_at, updated_at`

	var c Cart
	if err := database.NamedQueryStruct(ctx, tx, q, in, &c); err != nil {
		if errors.Is(err, database.ErrDBNotFound) || errors.Is(err, database.ErrDBConflict) {
			return decimal.Decimal{}, storeerr.Wrap(storeerr.Conflict, err, fmt.Sprintf("updating total of cart[%s]", cartID))
		}
		return decimal.Decimal{}, fmt.Errorf("updating total of cart[%s]: %w", cartID, err)
	}

	return c.Total, nil
}

// Delete removes the cart together with its items.
func Delete(ctx context.Context, tx sqlx.ExtContext, cartID string) error {
	in := struct {
		CartID string `db:"cart_id"`
	}{
		CartID: cartID,
	}

	const qi = `
	DELETE FROM
		cart_items
	WHERE
		cart_id = :cart_id`

	if _, err := database.NamedExecContext(ctx, tx, qi, in); err != nil {
		return fmt.Errorf("deleting items of cart[%s]: %w", cartID, err)
	}

	const qc = `
	DELETE FROM
		carts
	WHERE
		cart_id = :cart_id`

	n, err := database.NamedExecContext(ctx, tx, qc, in)
	if err != nil {
		return fmt.Errorf("deleting cart[%s]: %w", cartID, err)
	}
	if n == 0 {
		return storeerr.Newf(storeerr.NoCart, "cart[%s] does not exist", cartID)
	}

	return nil
}
