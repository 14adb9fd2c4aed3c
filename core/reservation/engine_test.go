package reservation_test

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/irsalhamdi/e-commerce-store/core/cart"
	"github.com/irsalhamdi/e-commerce-store/core/order"
	"github.com/irsalhamdi/e-commerce-store/core/product"
	"github.com/irsalhamdi/e-commerce-store/core/reservation"
	"github.com/irsalhamdi/e-commerce-store/database"
	"github.com/irsalhamdi/e-commerce-store/database/dbtest"
	"github.com/irsalhamdi/e-commerce-store/storeerr"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

type engineTest struct {
	db  *sqlx.DB
	eng *reservation.Engine
}

func TestEngine(t *testing.T) {
	db := dbtest.NewUnit(t, "engine_test")
	et := &engineTest{db: db, eng: reservation.New(dbtest.Logger(t), db)}

	t.Run("checkout scenario", et.checkoutScenario)
	t.Run("quantity bounds", et.quantityBounds)
	t.Run("re-add merges quantity", et.reAdd)
	t.Run("precondition order", et.preconditionOrder)
	t.Run("partial checkout", et.partialCheckout)
	t.Run("failed checkout changes nothing", et.failedCheckout)
	t.Run("single cart per user", et.singleCart)
	t.Run("no oversell", et.noOversell)
	t.Run("purchase", et.purchase)
	t.Run("create product", et.createProduct)
	t.Run("delete cart", et.deleteCart)
	t.Run("concurrent adds", et.concurrentAdds)
	t.Run("money range", et.moneyRange)
	t.Run("titles are trimmed", et.trimmedTitles)
}

func (et *engineTest) newProduct(t *testing.T, title string, price string, stock int) product.Product {
	t.Helper()

	p, err := et.eng.CreateProduct(context.Background(), product.ProductNew{
		Title:          title,
		Price:          dec(price),
		InventoryCount: stock,
	})
	if err != nil {
		t.Fatalf("creating product %q: %v", title, err)
	}
	return p
}

func (et *engineTest) newCart(t *testing.T, userID string) cart.Cart {
	t.Helper()

	c, err := et.eng.CreateCart(context.Background(), userID)
	if err != nil {
		t.Fatalf("creating cart for %q: %v", userID, err)
	}
	return c
}

func (et *engineTest) stock(t *testing.T, title string) int {
	t.Helper()

	p, err := product.FetchByTitle(context.Background(), et.db, title)
	if err != nil {
		t.Fatalf("fetching %q: %v", title, err)
	}
	return p.InventoryCount
}

func expectKind(t *testing.T, err error, kind storeerr.Kind) {
	t.Helper()

	if !storeerr.Is(err, kind) {
		t.Fatalf("expected %s error, got %v", kind, err)
	}
}

func (et *engineTest) checkoutScenario(t *testing.T) {
	ctx := context.Background()
	et.newProduct(t, "Widget", "9.99", 5)
	et.newCart(t, "1")

	items, err := et.eng.AddItem(ctx, "1", "Widget", 3)
	if err != nil {
		t.Fatalf("adding 3 widgets: %v", err)
	}
	if len(items) != 1 || items[0].Quantity != 3 || items[0].Title != "Widget" {
		t.Fatalf("expected one line item with quantity 3, got %+v", items)
	}

	_, err = et.eng.AddItem(ctx, "1", "Widget", 3)
	expectKind(t, err, storeerr.InsufficientStock)

	bought, err := et.eng.CompleteCart(ctx, "1", dec("9.99"))
	if err != nil {
		t.Fatalf("completing cart: %v", err)
	}
	if len(bought) != 1 || bought[0].Title != "Widget" {
		t.Fatalf("expected Widget to be purchased, got %+v", bought)
	}
	if got := et.stock(t, "Widget"); got != 4 {
		t.Fatalf("expected Widget stock 4, got %d", got)
	}

	_, err = et.eng.FetchCart(ctx, "1")
	expectKind(t, err, storeerr.NoCart)

	ords, err := order.QueryByUser(ctx, et.db, "1")
	if err != nil {
		t.Fatal(err)
	}
	if len(ords) != 1 || len(ords[0].Items) != 1 || !ords[0].Total.Equal(dec("9.99")) {
		t.Fatalf("expected one receipt for one widget, got %+v", ords)
	}
}

func (et *engineTest) quantityBounds(t *testing.T) {
	ctx := context.Background()
	et.newProduct(t, "Bolt", "0.25", 4)
	et.newCart(t, "bounds")

	_, err := et.eng.AddItem(ctx, "bounds", "Bolt", 0)
	expectKind(t, err, storeerr.InvalidArgument)

	_, err = et.eng.AddItem(ctx, "bounds", "Bolt", 5)
	expectKind(t, err, storeerr.OutOfStock)

	items, err := et.eng.AddItem(ctx, "bounds", "Bolt", 4)
	if err != nil {
		t.Fatalf("adding the whole stock: %v", err)
	}
	if len(items) != 1 || items[0].Quantity != 4 {
		t.Fatalf("expected quantity 4, got %+v", items)
	}
}

func (et *engineTest) reAdd(t *testing.T) {
	ctx := context.Background()
	et.newProduct(t, "Gadget", "2.50", 10)
	et.newCart(t, "readd")

	if _, err := et.eng.AddItem(ctx, "readd", "Gadget", 2); err != nil {
		t.Fatal(err)
	}
	items, err := et.eng.AddItem(ctx, "readd", "Gadget", 3)
	if err != nil {
		t.Fatal(err)
	}
	if len(items) != 1 || items[0].Quantity != 5 {
		t.Fatalf("expected one line item with quantity 5, got %+v", items)
	}

	c, err := et.eng.FetchCart(ctx, "readd")
	if err != nil {
		t.Fatal(err)
	}
	if !c.Total.Equal(dec("5.00")) {
		t.Fatalf("expected total 5.00 (price once per add), got %s", c.Total)
	}
}

func (et *engineTest) preconditionOrder(t *testing.T) {
	ctx := context.Background()
	et.newProduct(t, "Sprocket", "1.00", 1)

	_, err := et.eng.AddItem(ctx, "nocart", "Nothing", 1)
	expectKind(t, err, storeerr.OutOfStock)

	_, err = et.eng.AddItem(ctx, "nocart", "Sprocket", 1)
	expectKind(t, err, storeerr.NoCart)

	_, err = et.eng.CompleteCart(ctx, "nocart", dec("100"))
	expectKind(t, err, storeerr.NoCart)

	_, err = et.eng.CompleteCart(ctx, "nocart", dec("-1"))
	expectKind(t, err, storeerr.InvalidArgument)
}

func (et *engineTest) partialCheckout(t *testing.T) {
	ctx := context.Background()
	et.newProduct(t, "Apple", "1.00", 5)
	et.newProduct(t, "Banana", "2.00", 1)
	et.newCart(t, "partial")

	if _, err := et.eng.AddItem(ctx, "partial", "Apple", 1); err != nil {
		t.Fatal(err)
	}
	if _, err := et.eng.AddItem(ctx, "partial", "Banana", 1); err != nil {
		t.Fatal(err)
	}

	// Someone else takes the last banana.
	if _, err := et.eng.Purchase(ctx, "Banana", dec("2.00")); err != nil {
		t.Fatal(err)
	}

	bought, err := et.eng.CompleteCart(ctx, "partial", dec("3.00"))
	if err != nil {
		t.Fatalf("completing cart: %v", err)
	}
	if len(bought) != 1 || bought[0].Title != "Apple" {
		t.Fatalf("expected only Apple purchased, got %+v", bought)
	}
	if got := et.stock(t, "Apple"); got != 4 {
		t.Fatalf("expected Apple stock 4, got %d", got)
	}
	if got := et.stock(t, "Banana"); got != 0 {
		t.Fatalf("expected Banana stock 0, got %d", got)
	}

	_, err = et.eng.FetchCart(ctx, "partial")
	expectKind(t, err, storeerr.NoCart)
}

type snapshot struct {
	Products []product.Product
	Carts    []cart.Cart
	Items    []cart.Item
}

func (et *engineTest) snapshot(t *testing.T) snapshot {
	t.Helper()

	var s snapshot
	if err := et.db.Select(&s.Products, `SELECT * FROM products ORDER BY product_id`); err != nil {
		t.Fatal(err)
	}
	if err := et.db.Select(&s.Carts, `SELECT cart_id, user_id, total, created_at, updated_at FROM carts ORDER BY cart_id`); err != nil {
		t.Fatal(err)
	}
	const q = `
	SELECT i.item_id, i.cart_id, i.product_id, p.title, i.quantity, i.created_at, i.updated_at
	FROM cart_items AS i JOIN products AS p ON p.product_id = i.product_id
	ORDER BY i.item_id`
	if err := et.db.Select(&s.Items, q); err != nil {
		t.Fatal(err)
	}
	return s
}

func (et *engineTest) failedCheckout(t *testing.T) {
	ctx := context.Background()
	et.newProduct(t, "Lamp", "30.00", 2)
	et.newProduct(t, "Bulb", "4.00", 10)
	et.newCart(t, "broke")

	if _, err := et.eng.AddItem(ctx, "broke", "Lamp", 1); err != nil {
		t.Fatal(err)
	}
	if _, err := et.eng.AddItem(ctx, "broke", "Bulb", 2); err != nil {
		t.Fatal(err)
	}

	before := et.snapshot(t)

	_, err := et.eng.CompleteCart(ctx, "broke", dec("33.99"))
	expectKind(t, err, storeerr.InsufficientFunds)

	_, err = et.eng.CompleteCart(ctx, "nobody", dec("1000"))
	expectKind(t, err, storeerr.NoCart)

	if diff := cmp.Diff(before, et.snapshot(t)); diff != "" {
		t.Fatalf("store changed by failed checkouts (-before +after):\n%s", diff)
	}
}

func (et *engineTest) singleCart(t *testing.T) {
	const n = 10

	var (
		mu      sync.Mutex
		created int
		exists  int
	)

	var g errgroup.Group
	for i := 0; i < n; i++ {
		g.Go(func() error {
			_, err := et.eng.CreateCart(context.Background(), "racer")

			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				created++
			case storeerr.Is(err, storeerr.AlreadyExists):
				exists++
			default:
				return err
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		t.Fatalf("unexpected error creating carts: %v", err)
	}

	if created != 1 || exists != n-1 {
		t.Fatalf("expected 1 creation and %d already exists, got %d and %d", n-1, created, exists)
	}
}

func (et *engineTest) noOversell(t *testing.T) {
	const (
		stock = 3
		users = 12
	)
	ctx := context.Background()
	et.newProduct(t, "Scarce", "5.00", stock)

	for i := 0; i < users; i++ {
		u := fmt.Sprintf("crowd-%d", i)
		et.newCart(t, u)
		if _, err := et.eng.AddItem(ctx, u, "Scarce", 1); err != nil {
			t.Fatalf("reserving for %s: %v", u, err)
		}
	}

	var (
		mu     sync.Mutex
		bought int
	)

	var g errgroup.Group
	for i := 0; i < users; i++ {
		u := fmt.Sprintf("crowd-%d", i)
		g.Go(func() error {
			prods, err := et.eng.CompleteCart(ctx, u, dec("5.00"))
			if storeerr.Is(err, storeerr.Conflict) {
				return nil
			}
			if err != nil {
				return err
			}

			mu.Lock()
			bought += len(prods)
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		t.Fatalf("unexpected checkout error: %v", err)
	}

	left := et.stock(t, "Scarce")
	if bought > stock {
		t.Fatalf("oversold: %d units bought out of %d", bought, stock)
	}
	if left < 0 || bought+left != stock {
		t.Fatalf("expected bought %d + left %d to equal %d", bought, left, stock)
	}
}

func (et *engineTest) purchase(t *testing.T) {
	ctx := context.Background()
	et.newProduct(t, "Single", "7.00", 1)

	_, err := et.eng.Purchase(ctx, "Single", dec("6.99"))
	expectKind(t, err, storeerr.InsufficientFunds)

	p, err := et.eng.Purchase(ctx, "Single", dec("7.00"))
	if err != nil {
		t.Fatal(err)
	}
	if p.InventoryCount != 0 {
		t.Fatalf("expected stock 0 after purchase, got %d", p.InventoryCount)
	}

	_, err = et.eng.Purchase(ctx, "Single", dec("7.00"))
	expectKind(t, err, storeerr.OutOfStock)

	err = database.Transaction(ctx, et.db, func(tx sqlx.ExtContext) error {
		_, err := product.Decrement(ctx, tx, p.ID, 1)
		return err
	})
	expectKind(t, err, storeerr.Conflict)
}

func (et *engineTest) createProduct(t *testing.T) {
	ctx := context.Background()
	et.newProduct(t, "Unique", "1.00", 1)

	_, err := et.eng.CreateProduct(ctx, product.ProductNew{Title: "Unique", Price: dec("2.00"), InventoryCount: 3})
	expectKind(t, err, storeerr.AlreadyExists)

	_, err = et.eng.CreateProduct(ctx, product.ProductNew{Title: "Negative", Price: dec("-1"), InventoryCount: 3})
	expectKind(t, err, storeerr.InvalidArgument)

	_, err = et.eng.CreateProduct(ctx, product.ProductNew{Title: "Minus", Price: dec("1"), InventoryCount: -1})
	expectKind(t, err, storeerr.InvalidArgument)

	_, err = et.eng.CreateProduct(ctx, product.ProductNew{Title: "Fraction", Price: dec("9.999"), InventoryCount: 1})
	expectKind(t, err, storeerr.InvalidArgument)

	_, err = et.eng.CreateProduct(ctx, product.ProductNew{Title: "Huge", Price: dec("1e11"), InventoryCount: 1})
	expectKind(t, err, storeerr.InvalidArgument)

	p, err := product.FetchAvailable(ctx, et.db, "Unique", 1)
	if err != nil || p.Title != "Unique" {
		t.Fatalf("expected Unique available, got %+v, %v", p, err)
	}
	_, err = product.FetchAvailable(ctx, et.db, "Unique", 2)
	expectKind(t, err, storeerr.NotFound)
}

func (et *engineTest) deleteCart(t *testing.T) {
	ctx := context.Background()
	et.newProduct(t, "Kept", "1.00", 2)
	et.newCart(t, "leaver")

	if _, err := et.eng.AddItem(ctx, "leaver", "Kept", 2); err != nil {
		t.Fatal(err)
	}
	if err := et.eng.DeleteCart(ctx, "leaver"); err != nil {
		t.Fatal(err)
	}
	if got := et.stock(t, "Kept"); got != 2 {
		t.Fatalf("expected stock untouched at 2, got %d", got)
	}

	err := et.eng.DeleteCart(ctx, "leaver")
	expectKind(t, err, storeerr.NoCart)

	et.newCart(t, "leaver")
}

func (et *engineTest) concurrentAdds(t *testing.T) {
	const (
		stock = 4
		adds  = 16
	)
	ctx := context.Background()
	et.newProduct(t, "Contended", "3.00", stock)
	et.newCart(t, "eager")

	var (
		mu       sync.Mutex
		accepted int
	)

	var g errgroup.Group
	for i := 0; i < adds; i++ {
		g.Go(func() error {
			_, err := et.eng.AddItem(ctx, "eager", "Contended", 1)

			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				accepted++
			case storeerr.Is(err, storeerr.InsufficientStock), storeerr.Is(err, storeerr.Conflict):
			default:
				return err
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		t.Fatalf("unexpected error adding items: %v", err)
	}

	c, err := et.eng.FetchCart(ctx, "eager")
	if err != nil {
		t.Fatal(err)
	}
	if len(c.Items) != 1 {
		t.Fatalf("expected a single line item, got %+v", c.Items)
	}
	if c.Items[0].Quantity != accepted || accepted > stock {
		t.Fatalf("expected quantity %d within stock %d, got %d", accepted, stock, c.Items[0].Quantity)
	}
	if exp := dec("3.00").Mul(decimal.NewFromInt(int64(accepted))); !c.Total.Equal(exp) {
		t.Fatalf("expected total %s for %d accepted adds, got %s", exp, accepted, c.Total)
	}
}

func (et *engineTest) moneyRange(t *testing.T) {
	ctx := context.Background()
	et.newProduct(t, "Penny", "0.01", 1)
	et.newCart(t, "rich")

	if _, err := et.eng.AddItem(ctx, "rich", "Penny", 1); err != nil {
		t.Fatal(err)
	}

	funds := dec("1e12")
	bought, err := et.eng.CompleteCart(ctx, "rich", funds)
	if err != nil {
		t.Fatalf("completing with large funds: %v", err)
	}
	if len(bought) != 1 {
		t.Fatalf("expected the penny to be purchased, got %+v", bought)
	}

	ords, err := order.QueryByUser(ctx, et.db, "rich")
	if err != nil {
		t.Fatal(err)
	}
	if len(ords) != 1 || !ords[0].Funds.Equal(funds) {
		t.Fatalf("expected a receipt recording funds %s, got %+v", funds, ords)
	}

	// The running total column overflows on the 101st add of the dearest price.
	const adds = 100
	et.newProduct(t, "Dearest", "9999999999.99", adds+1)
	et.newCart(t, "spender")
	for i := 0; i < adds; i++ {
		if _, err := et.eng.AddItem(ctx, "spender", "Dearest", 1); err != nil {
			t.Fatalf("add %d: %v", i+1, err)
		}
	}

	_, err = et.eng.AddItem(ctx, "spender", "Dearest", 1)
	expectKind(t, err, storeerr.InvalidArgument)

	c, err := et.eng.FetchCart(ctx, "spender")
	if err != nil {
		t.Fatal(err)
	}
	if c.Items[0].Quantity != adds || !c.Total.Equal(dec("999999999999.00")) {
		t.Fatalf("expected cart untouched by the rejected add, got quantity %d total %s", c.Items[0].Quantity, c.Total)
	}
}

func (et *engineTest) trimmedTitles(t *testing.T) {
	ctx := context.Background()
	et.newProduct(t, " Spaced ", "1.00", 3)
	et.newCart(t, "spacer")

	items, err := et.eng.AddItem(ctx, "spacer", "Spaced ", 1)
	if err != nil {
		t.Fatalf("adding with trailing space: %v", err)
	}
	if len(items) != 1 || items[0].Title != "Spaced" {
		t.Fatalf("expected one Spaced line item, got %+v", items)
	}

	p, err := et.eng.Purchase(ctx, "  Spaced", dec("1.00"))
	if err != nil {
		t.Fatalf("purchasing with leading space: %v", err)
	}
	if p.InventoryCount != 2 {
		t.Fatalf("expected stock 2, got %d", p.InventoryCount)
	}
}
