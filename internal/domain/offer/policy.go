package offer

import "github.com/shopspring/decimal"

// SelectionPolicy picks which offer (if any) applies to a priced line.
// Implementations receive only offers for the line's product and must
// return nil when none is eligible.
type SelectionPolicy interface {
	Select(offers []Offer, unitPrice decimal.Decimal, qty int) *Offer
}

// BestBenefit selects the eligible offer with the highest customer benefit
// for the line. Ties are broken by the most recently created offer.
type BestBenefit struct{}

// Select implements SelectionPolicy.
func (BestBenefit) Select(offers []Offer, unitPrice decimal.Decimal, qty int) *Offer {
	var (
		best        *Offer
		bestBenefit decimal.Decimal
	)
	for i := range offers {
		o := &offers[i]
		if !o.Eligible(qty) {
			continue
		}
		b := o.Benefit(unitPrice, qty)
		switch {
		case best == nil,
			b.GreaterThan(bestBenefit),
			b.Equal(bestBenefit) && o.CreatedAt.After(best.CreatedAt):
			best = o
			bestBenefit = b
		}
	}
	return best
}
