package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product is a catalogue entry from the `products` table.  Price is a
// fixed-point decimal; StockQuantity is decremented by order placement
// and overwritten by admin edits.
type Product struct {
	ID            string          `db:"id" json:"id"`
	Name          string          `db:"name" json:"name"`
	Category      string          `db:"category" json:"category"`
	Description   *string         `db:"description" json:"description"`
	Price         decimal.Decimal `db:"price" json:"price"`
	StockQuantity int             `db:"stock_quantity" json:"stock_quantity"`
	ImageURL      *string         `db:"image_url" json:"image_url"`
	IsActive      bool            `db:"is_active" json:"is_active"`
	CreatedAt     time.Time       `db:"created_at" json:"created_at"`
}

// InStock reports whether qty units can be taken from the product.
func (p Product) InStock(qty int) bool { return qty > 0 && p.StockQuantity >= qty }
