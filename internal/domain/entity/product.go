package entity

import (
	"encoding/json"

	"github.com/shopspring/decimal"
)

// Product is a catalog entry owned by the backend
type Product struct {
	ID            int64            `json:"id"`
	BusinessID    int64            `json:"business_id"`
	Name          string           `json:"product_name"`
	SKU           string           `json:"sku"`
	Category      string           `json:"category,omitempty"`
	Unit          string           `json:"unit"`
	SellingPrice  decimal.Decimal  `json:"selling_price"`
	GSTPercentage *decimal.Decimal `json:"gst_percentage"`
	CurrentStock  decimal.Decimal  `json:"current_stock"`
	MinStockLevel decimal.Decimal  `json:"min_stock_level"`
}

// TaxPercentage returns the product's GST rate, zero when the backend has none
func (p *Product) TaxPercentage() decimal.Decimal {
	if p.GSTPercentage == nil {
		return decimal.Zero
	}
	return *p.GSTPercentage
}

// IsLowStock reports whether stock is at or below the minimum level
func (p *Product) IsLowStock() bool {
	return p.CurrentStock.LessThanOrEqual(p.MinStockLevel)
}

// MarshalJSON adds the derived low_stock flag for the catalog view
func (p Product) MarshalJSON() ([]byte, error) {
	type product Product
	return json.Marshal(struct {
		product
		LowStock bool `json:"low_stock"`
	}{product(p), p.IsLowStock()})
}
