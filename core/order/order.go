package order

import (
	"time"

	"github.com/shopspring/decimal"
)

// Order is the receipt of a completed cart.
type Order struct {
	ID        string          `json:"id" db:"order_id"`
	UserID    string          `json:"userId" db:"user_id"`
	Total     decimal.Decimal `json:"total" db:"total"`
	Funds     decimal.Decimal `json:"funds" db:"funds"`
	CreatedAt time.Time       `json:"createdAt" db:"created_at"`
	Items     []Item          `json:"items" db:"-"`
}

type Item struct {
	OrderID   string          `json:"orderId" db:"order_id"`
	ProductID string          `json:"productId" db:"product_id"`
	Title     string          `json:"title" db:"title"`
	Price     decimal.Decimal `json:"price" db:"price"`
	Quantity  int             `json:"quantity" db:"quantity"`
	CreatedAt time.Time       `json:"createdAt" db:"created_at"`
}
