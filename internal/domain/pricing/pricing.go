// Package pricing computes per-line order pricing from catalog prices and
// promotional offers. All monetary arithmetic uses shopspring/decimal; values
// exposed to callers are rounded to 2 decimal places, half up.
package pricing

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
)

// ProductNotFoundError indicates a requested product does not exist or does
// not belong to the stated company.
type ProductNotFoundError struct {
	ProductID string
}

func (e *ProductNotFoundError) Error() string {
	return fmt.Sprintf("product %s not found", e.ProductID)
}

// ProductInactiveError indicates a requested product exists but is not
// currently orderable.
type ProductInactiveError struct {
	ProductID string
}

func (e *ProductInactiveError) Error() string {
	return fmt.Sprintf("product %s is inactive", e.ProductID)
}

// Line is a single (product, quantity) pair to be priced.
type Line struct {
	ProductID string
	Quantity  int
}

// LinePricing is the fully priced form of a Line. Monetary fields are
// snapshots: once a quote is issued they are persisted verbatim and never
// re-derived.
type LinePricing struct {
	ProductID      string          `json:"product_id"`
	ProductName    string          `json:"product_name"`
	Quantity       int             `json:"quantity"`
	UnitPrice      decimal.Decimal `json:"unit_price"`
	DiscountAmount decimal.Decimal `json:"discount_amount"`
	LineTotal      decimal.Decimal `json:"line_total"`
	OfferID        *string         `json:"offer_id,omitempty"`
	BonusUnits     int             `json:"bonus_units"`
}

// Pricer computes pricing for a company's order lines.
type Pricer interface {
	Price(ctx context.Context, companyID string, lines []Line) ([]LinePricing, error)
}
