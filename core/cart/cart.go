package cart

import (
	"time"

	"github.com/shopspring/decimal"
)

type Cart struct {
	ID        string          `json:"id" db:"cart_id"`
	UserID    string          `json:"userId" db:"user_id"`
	Total     decimal.Decimal `json:"total" db:"total"`
	CreatedAt time.Time       `json:"createdAt" db:"created_at"`
	UpdatedAt time.Time       `json:"updatedAt" db:"updated_at"`
	Items     []Item          `json:"items" db:"-"`
}

type Item struct {
	ID        string    `json:"id" db:"item_id"`
	CartID    string    `json:"-" db:"cart_id"`
	ProductID string    `json:"productId" db:"product_id"`
	Title     string    `json:"title" db:"title"`
	Quantity  int       `json:"quantity" db:"quantity"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt time.Time `json:"updatedAt" db:"updated_at"`
}

type ItemNew struct {
	Title    string `json:"title" validate:"required"`
	Quantity int    `json:"quantity"`
}

type Checkout struct {
	Funds decimal.Decimal `json:"funds"`
}
