package product

import (
	"context"
	"errors"
	"fmt"

	"github.com/irsalhamdi/e-commerce-store/database"
	"github.com/irsalhamdi/e-commerce-store/storeerr"
	"github.com/jmoiron/sqlx"
)

func Create(ctx context.Context, db sqlx.ExtContext, p Product) error {
	const q = `
	INSERT INTO products
		(product_id, title, price, inventory_count, created_at, updated_at)
	VALUES
		(:product_id, :title, :price, :inventory_count, :created_at, :updated_at)`

	if _, err := database.NamedExecContext(ctx, db, q, p); err != nil {
		if errors.Is(err, database.ErrDBDuplicatedEntry) {
			return storeerr.Newf(storeerr.AlreadyExists, "product %q already exists", p.Title)
		}
		return fmt.Errorf("inserting product: %w", err)
	}

	return nil
}

func FetchByTitle(ctx context.Context, db sqlx.ExtContext, title string) (Product, error) {
	in := struct {
		Title string `db:"title"`
	}{
		Title: title,
	}

	const q = `
	SELECT
		*
	FROM
		products
	WHERE
		title = :title`

	var p Product
	if err := database.NamedQueryStruct(ctx, db, q, in, &p); err != nil {
		if errors.Is(err, database.ErrDBNotFound) {
			return Product{}, storeerr.Newf(storeerr.NotFound, "product %q does not exist", title)
		}
		return Product{}, fmt.Errorf("selecting product[%s]: %w", title, err)
	}

	return p, nil
}

// FetchAvailable returns the product only when it has at least minQuantity
// units in stock.
func FetchAvailable(ctx context.Context, db sqlx.ExtContext, title string, minQuantity int) (Product, error) {
	in := struct {
		Title       string `db:"title"`
		MinQuantity int    `db:"min_quantity"`
	}{
		Title:       title,
		MinQuantity: minQuantity,
	}

	const q = `
	SELECT
		*
	FROM
		products
	WHERE
		title = :title AND
		inventory_count >= :min_quantity`

	var p Product
	if err := database.NamedQueryStruct(ctx, db, q, in, &p); err != nil {
		if errors.Is(err, database.ErrDBNotFound) {
			return Product{}, storeerr.Newf(storeerr.NotFound, "product %q not in stock in quantity %d", title, minQuantity)
		}
		return Product{}, fmt.Errorf("selecting available product[%s]: %w", title, err)
	}

	return p, nil
}

// FetchAvailableShared is FetchAvailable holding a share lock on the row
// until the surrounding transaction ends, so the stock cannot be consumed
// by a checkout while the caller acts on it.
func FetchAvailableShared(ctx context.Context, tx sqlx.ExtContext, title string, minQuantity int) (Product, error) {
	in := struct {
		Title       string `db:"title"`
		MinQuantity int    `db:"min_quantity"`
	}{
		Title:       title,
		MinQuantity: minQuantity,
	}

	const q = `
	SELECT
		*
	FROM
		products
	WHERE
		title = :title AND
		inventory_count >= :min_quantity
	FOR SHARE`

	var p Product
	if err := database.NamedQueryStruct(ctx, tx, q, in, &p); err != nil {
		if errors.Is(err, database.ErrDBNotFound) {
			return Product{}, storeerr.Newf(storeerr.NotFound, "product %q not in stock in quantity %d", title, minQuantity)
		}
		if errors.Is(err, database.ErrDBConflict) {
			return Product{}, storeerr.Wrap(storeerr.Conflict, err, "locking product")
		}
		return Product{}, fmt.Errorf("selecting available product[%s]: %w", title, err)
	}

	return p, nil
}

// FetchForUpdate locks the given products and returns them ordered by id.
// Locks are always taken in id order so two checkouts never wait on each
// other in a cycle.
func FetchForUpdate(ctx context.Context, tx sqlx.ExtContext, ids []string) ([]Product, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	q, args, err := sqlx.In(`
	SELECT
		*
	FROM
		products
	WHERE
		product_id IN (?)
	ORDER BY
		product_id
	FOR UPDATE`, ids)
	if err != nil {
		return nil, fmt.Errorf("building query: %w", err)
	}

	var prods []Product
	if err := sqlx.SelectContext(ctx, tx, &prods, tx.Rebind(q), args...); err != nil {
		if err := database.MapError(err); errors.Is(err, database.ErrDBConflict) {
			return nil, storeerr.Wrap(storeerr.Conflict, err, "locking products")
		}
		return nil, fmt.Errorf("selecting products for update: %w", err)
	}

	return prods, nil
}

func Query(ctx context.Context, db sqlx.ExtContext, onlyAvailable bool) ([]Product, error) {
	in := struct {
		OnlyAvailable bool `db:"only_available"`
	}{
		OnlyAvailable: onlyAvailable,
	}

	const q = `
	SELECT
		*
	FROM
		products
	WHERE
		NOT :only_available OR inventory_count > 0
	ORDER BY
		title`

	prods := []Product{}
	if err := database.NamedQuerySlice(ctx, db, q, in, &prods); err != nil {
		return nil, fmt.Errorf("selecting products: %w", err)
	}
	if prods == nil {
		prods = []Product{}
	}

	return prods, nil
}

// Decrement takes by units off the product's stock. It only applies while
// enough stock remains, otherwise a retryable conflict is returned and
// nothing changes.
func Decrement(ctx context.Context, tx sqlx.ExtContext, id string, by int) (Product, error) {
	in := struct {
		ID string `db:"product_id"`
		By int    `db:"by"`
	}{
		ID: id,
		By: by,
	}

	const q = `
	UPDATE
		products
	SET
		inventory_count = inventory_count - :by,
		updated_at = now() AT TIME ZONE 'utc'
	WHERE
		product_id = :product_id AND
		inventory_count >= :by
	RETURNING
		*`

	var p Product
	if err := database.NamedQueryStruct(ctx, tx, q, in, &p); err != nil {
		if errors.Is(err, database.ErrDBNotFound) || errors.Is(err, database.ErrDBConflict) {
			return Product{}, storeerr.Wrap(storeerr.Conflict, err, fmt.Sprintf("decrementing product[%s]", id))
		}
		return Product{}, fmt.Errorf("decrementing product[%s]: %w", id, err)
	}

	return p, nil
}
