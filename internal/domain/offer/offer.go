package offer

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// Offer is a promotional rule attached to a single product. It grants a
// percentage discount on the line, extra bonus units, or both, once the
// ordered quantity reaches MinQty.
type Offer struct {
	ID              string
	ProductID       string
	MinQty          int
	DiscountPercent decimal.Decimal
	BonusUnits      int
	Active          bool
	CreatedAt       time.Time
}

// Eligible reports whether the offer applies to the given quantity.
func (o *Offer) Eligible(qty int) bool {
	return o.Active && qty >= o.MinQty
}

// Benefit returns the monetary value the customer gains from this offer for
// a line with the given unit price and quantity: the discount on the paid
// units plus the value of the free bonus units.
func (o *Offer) Benefit(unitPrice decimal.Decimal, qty int) decimal.Decimal {
	paid := unitPrice.Mul(decimal.NewFromInt(int64(qty)))
	discount := paid.Mul(o.DiscountPercent).Div(decimal.NewFromInt(100))
	bonus := unitPrice.Mul(decimal.NewFromInt(int64(o.BonusUnits)))
	return discount.Add(bonus)
}

// Repository provides lookup of active offers for a set of products.
type Repository interface {
	ListByProducts(ctx context.Context, productIDs []string) ([]Offer, error)
}
