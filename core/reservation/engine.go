// Package reservation adds products to carts against the current stock and
// completes carts, turning their contents into inventory decrements without
// ever overselling.
package reservation

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/irsalhamdi/e-commerce-store/core/cart"
	"github.com/irsalhamdi/e-commerce-store/core/product"
	"github.com/irsalhamdi/e-commerce-store/database"
	"github.com/irsalhamdi/e-commerce-store/storeerr"
	"github.com/irsalhamdi/e-commerce-store/validate"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

type Engine struct {
	log logrus.FieldLogger
	db  *sqlx.DB
	now func() time.Time
}

func New(log logrus.FieldLogger, db *sqlx.DB) *Engine {
	return &Engine{
		log: log,
		db:  db,
		now: func() time.Time { return time.Now().UTC().Truncate(time.Microsecond) },
	}
}

func (e *Engine) CreateProduct(ctx context.Context, np product.ProductNew) (product.Product, error) {
	np.Title = strings.TrimSpace(np.Title)
	if err := validate.Check(np); err != nil {
		return product.Product{}, storeerr.Wrap(storeerr.InvalidArgument, err, "validating product")
	}

	now := e.now()
	p := product.Product{
		ID:             validate.GenerateID(),
		Title:          np.Title,
		Price:          np.Price.Round(2),
		InventoryCount: np.InventoryCount,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	if err := product.Create(ctx, e.db, p); err != nil {
		return product.Product{}, fmt.Errorf("creating product[%s]: %w", p.Title, classify(err))
	}

	return p, nil
}

func (e *Engine) CreateCart(ctx context.Context, userID string) (cart.Cart, error) {
	if strings.TrimSpace(userID) == "" {
		return cart.Cart{}, storeerr.New(storeerr.InvalidArgument, "user id is required")
	}

	now := e.now()
	c := cart.Cart{
		ID:        validate.GenerateID(),
		UserID:    userID,
		Total:     decimal.Zero,
		CreatedAt: now,
		UpdatedAt: now,
		Items:     []cart.Item{},
	}

	if err := cart.Create(ctx, e.db, c); err != nil {
		return cart.Cart{}, fmt.Errorf("creating cart for user[%s]: %w", userID, err)
	}

	return c, nil
}

func (e *Engine) FetchCart(ctx context.Context, userID string) (cart.Cart, error) {
	c, err := cart.Fetch(ctx, e.db, userID)
	if err != nil {
		return cart.Cart{}, err
	}

	items, err := cart.FetchItems(ctx, e.db, c.ID)
	if err != nil {
		return cart.Cart{}, err
	}
	c.Items = items

	return c, nil
}

// DeleteCart abandons the user's cart. No stock is touched.
func (e *Engine) DeleteCart(ctx context.Context, userID string) error {
	return database.Transaction(ctx, e.db, func(tx sqlx.ExtContext) error {
		c, err := cart.FetchForUpdate(ctx, tx, userID)
		if err != nil {
			return err
		}
		return cart.Delete(ctx, tx, c.ID)
	})
}

// AddItem declares the intent to buy quantity units of the product titled
// title. Stock is checked but not consumed; it is only consumed when the
// cart is completed. The cart's total grows by the unit price once per call,
// whatever the quantity.
func (e *Engine) AddItem(ctx context.Context, userID string, title string, quantity int) ([]cart.Item, error) {
	if err := checkQuantity(quantity); err != nil {
		return nil, err
	}
	title = strings.TrimSpace(title)

	var items []cart.Item
	err := database.Transaction(ctx, e.db, func(tx sqlx.ExtContext) error {

		// The cart is locked before the product, the order CompleteCart uses.
		c, cartErr := cart.FetchForUpdate(ctx, tx, userID)
		if cartErr != nil && !storeerr.Is(cartErr, storeerr.NoCart) {
			return cartErr
		}

		p, err := product.FetchAvailableShared(ctx, tx, title, quantity)
		if err != nil {
			if storeerr.Is(err, storeerr.NotFound) {
				return storeerr.Wrap(storeerr.OutOfStock, err, "item not in stock in sufficient quantities")
			}
			return err
		}

		if cartErr != nil {
			return cartErr
		}

		current, err := cart.FetchItems(ctx, tx, c.ID)
		if err != nil {
			return err
		}

		now := e.now()
		if existing, ok := findItem(current, p.ID); ok {
			newQty, err := mergedQuantity(existing, quantity, p)
			if err != nil {
				return err
			}

			existing.Quantity = newQty
			existing.UpdatedAt = now
			if err := cart.UpdateItemQuantity(ctx, tx, existing); err != nil {
				return err
			}
		} else {
			it := cart.Item{
				ID:        validate.GenerateID(),
				CartID:    c.ID,
				ProductID: p.ID,
				Title:     p.Title,
				Quantity:  quantity,
				CreatedAt: now,
				UpdatedAt: now,
			}
			if err := cart.CreateItem(ctx, tx, it); err != nil {
				return err
			}
		}

		if _, err := cart.AddToTotal(ctx, tx, c.ID, p.Price); err != nil {
			return err
		}

		items, err = cart.FetchItems(ctx, tx, c.ID)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("adding %d of %q to the cart of user[%s]: %w", quantity, title, userID, classify(err))
	}

	return items, nil
}

// Purchase buys a single unit of a product outside of any cart.
func (e *Engine) Purchase(ctx context.Context, title string, funds decimal.Decimal) (product.Product, error) {
	if funds.IsNegative() {
		return product.Product{}, storeerr.New(storeerr.InvalidArgument, "funds must not be negative")
	}
	title = strings.TrimSpace(title)

	p, err := product.FetchAvailable(ctx, e.db, title, 1)
	if err != nil {
		if storeerr.Is(err, storeerr.NotFound) {
			return product.Product{}, storeerr.Wrap(storeerr.OutOfStock, err, "product not in store")
		}
		return product.Product{}, err
	}

	if funds.LessThan(p.Price) {
		return product.Product{}, storeerr.Funds(p.Price, funds)
	}

	var bought product.Product
	err = database.Transaction(ctx, e.db, func(tx sqlx.ExtContext) error {
		bought, err = product.Decrement(ctx, tx, p.ID, 1)
		return err
	})
	if err != nil {
		return product.Product{}, fmt.Errorf("purchasing %q: %w", title, classify(err))
	}

	e.log.WithFields(logrus.Fields{
		"product_id": bought.ID,
		"remaining":  bought.InventoryCount,
	}).Info("product purchased")

	return bought, nil
}
