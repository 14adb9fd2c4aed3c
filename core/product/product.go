package product

import (
	"time"

	"github.com/shopspring/decimal"
)

type Product struct {
	ID             string          `json:"id" db:"product_id"`
	Title          string          `json:"title" db:"title"`
	Price          decimal.Decimal `json:"price" db:"price"`
	InventoryCount int             `json:"inventoryCount" db:"inventory_count"`
	CreatedAt      time.Time       `json:"createdAt" db:"created_at"`
	UpdatedAt      time.Time       `json:"updatedAt" db:"updated_at"`
}

type ProductNew struct {
	Title          string          `json:"title" validate:"required,max=256"`
	Price          decimal.Decimal `json:"price" validate:"gte=0,money"`
	InventoryCount int             `json:"inventoryCount" validate:"gte=0"`
}

type Purchase struct {
	Funds decimal.Decimal `json:"funds" validate:"gte=0"`
}
