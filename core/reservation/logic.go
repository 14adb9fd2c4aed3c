package reservation

import (
	"errors"

	"github.com/irsalhamdi/e-commerce-store/core/cart"
	"github.com/irsalhamdi/e-commerce-store/core/product"
	"github.com/irsalhamdi/e-commerce-store/database"
	"github.com/irsalhamdi/e-commerce-store/storeerr"
)

func checkQuantity(quantity int) error {
	if quantity < 1 {
		return storeerr.Newf(storeerr.InvalidArgument, "quantity must be at least 1, got %d", quantity)
	}
	return nil
}

func findItem(items []cart.Item, productID string) (cart.Item, bool) {
	for _, it := range items {
		if it.ProductID == productID {
			return it, true
		}
	}
	return cart.Item{}, false
}

// mergedQuantity is the quantity a line item holds after adding quantity
// more units of p to it. It fails when the stock cannot cover the total.
func mergedQuantity(existing cart.Item, quantity int, p product.Product) (int, error) {
	newQty := existing.Quantity + quantity
	if newQty > p.InventoryCount {
		return 0, storeerr.Stock(p.Title, p.InventoryCount, newQty)
	}
	return newQty, nil
}

// purchasable returns, in cart order, the products whose current stock
// still covers the quantity requested by the line item. Items whose
// product is missing from stock are left out.
func purchasable(items []cart.Item, stock map[string]product.Product) []product.Product {
	out := make([]product.Product, 0, len(items))
	for _, it := range items {
		p, ok := stock[it.ProductID]
		if !ok || p.InventoryCount < it.Quantity {
			continue
		}
		out = append(out, p)
	}
	return out
}

func productIDs(items []cart.Item) []string {
	ids := make([]string, 0, len(items))
	for _, it := range items {
		ids = append(ids, it.ProductID)
	}
	return ids
}

// classify gives database failures that surfaced without a kind the kind
// the caller can act on: collisions are retryable conflicts, amounts the
// columns cannot hold are invalid arguments.
func classify(err error) error {
	if storeerr.KindOf(err) != storeerr.Unknown {
		return err
	}

	switch {
	case errors.Is(err, database.ErrDBConflict):
		return storeerr.Wrap(storeerr.Conflict, err, "concurrent update")
	case errors.Is(err, database.ErrDBOutOfRange):
		return storeerr.Wrap(storeerr.InvalidArgument, err, "amount out of range")
	}
	return err
}
