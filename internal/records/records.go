// Package records defines the row types shared by the source, cleaner, and
// aggregator, plus the canonical column set of a sales file.
package records

import "time"

// Canonical column names. Sources fold their headers to these; everything
// downstream keys on them.
const (
	ColOrderID         = "order_id"
	ColProductName     = "product_name"
	ColCategory        = "category"
	ColQuantity        = "quantity"
	ColUnitPrice       = "unit_price"
	ColDiscountPercent = "discount_percent"
	ColRegion          = "region"
	ColSaleDate        = "sale_date"
	ColRevenue         = "revenue"
)

// Columns is the full canonical column set in file order.
var Columns = []string{
	ColOrderID,
	ColProductName,
	ColCategory,
	ColQuantity,
	ColUnitPrice,
	ColDiscountPercent,
	ColRegion,
	ColSaleDate,
	ColRevenue,
}

// Required lists the columns an input file must carry. Revenue is absent:
// it is derived by the cleaner and never trusted from the source.
var Required = []string{
	ColOrderID,
	ColProductName,
	ColCategory,
	ColQuantity,
	ColUnitPrice,
	ColDiscountPercent,
	ColRegion,
	ColSaleDate,
}

// Raw is one uncleaned row keyed by canonical column name. Values start as
// strings (or nil for empty cells) and are replaced in place by cleaning
// rules with typed values, or nil when a value cannot be resolved.
type Raw map[string]any

// Sale is one cleaned, fully typed sales record.
type Sale struct {
	OrderID         string
	ProductName     string
	Category        string
	Quantity        float64
	UnitPrice       float64
	DiscountPercent float64
	Region          string
	SaleDate        time.Time
	Revenue         float64
}
