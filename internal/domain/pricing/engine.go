package pricing

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/averix/orderhold/internal/domain/offer"
	"github.com/averix/orderhold/internal/domain/product"
)

var hundred = decimal.NewFromInt(100)

// Engine implements Pricer against the product catalog and offer book.
// Offer selection is delegated to the injected policy so tie-break rules can
// change without touching the pricing control flow.
type Engine struct {
	products product.Repository
	offers   offer.Repository
	policy   offer.SelectionPolicy
}

var _ Pricer = (*Engine)(nil)

// NewEngine creates a pricing Engine with the given catalog dependencies.
func NewEngine(products product.Repository, offers offer.Repository, policy offer.SelectionPolicy) *Engine {
	return &Engine{
		products: products,
		offers:   offers,
		policy:   policy,
	}
}

// Price computes pricing for every line. All products are fetched in a
// single batch, as are their offers. A missing, foreign-company or inactive
// product fails the whole request.
func (e *Engine) Price(ctx context.Context, companyID string, lines []Line) ([]LinePricing, error) {
	ids := make([]string, len(lines))
	for i, line := range lines {
		ids[i] = line.ProductID
	}

	fetched, err := e.products.GetByIDs(ctx, companyID, ids)
	if err != nil {
		return nil, errors.Wrap(err, "get products")
	}
	productMap := make(map[string]product.Product, len(fetched))
	for _, p := range fetched {
		productMap[p.ID] = p
	}

	for _, line := range lines {
		p, ok := productMap[line.ProductID]
		if !ok {
			return nil, &ProductNotFoundError{ProductID: line.ProductID}
		}
		if !p.Active {
			return nil, &ProductInactiveError{ProductID: line.ProductID}
		}
	}

	allOffers, err := e.offers.ListByProducts(ctx, ids)
	if err != nil {
		return nil, errors.Wrap(err, "list offers")
	}
	offersByProduct := make(map[string][]offer.Offer, len(ids))
	for _, o := range allOffers {
		offersByProduct[o.ProductID] = append(offersByProduct[o.ProductID], o)
	}

	priced := make([]LinePricing, len(lines))
	for i, line := range lines {
		p := productMap[line.ProductID]
		priced[i] = e.priceLine(p, line.Quantity, offersByProduct[p.ID])
	}
	return priced, nil
}

// priceLine prices a single line against the selected offer. With no offer
// the discount is zero and no bonus units are granted.
func (e *Engine) priceLine(p product.Product, qty int, candidates []offer.Offer) LinePricing {
	gross := p.UnitPrice.Mul(decimal.NewFromInt(int64(qty)))

	lp := LinePricing{
		ProductID:      p.ID,
		ProductName:    p.Name,
		Quantity:       qty,
		UnitPrice:      p.UnitPrice,
		DiscountAmount: decimal.Zero,
		LineTotal:      gross.Round(2),
	}

	selected := e.policy.Select(candidates, p.UnitPrice, qty)
	if selected == nil {
		return lp
	}

	discount := gross.Mul(selected.DiscountPercent).Div(hundred)
	if discount.IsNegative() {
		discount = decimal.Zero
	}
	discount = discount.Round(2)

	total := gross.Sub(discount)
	if total.IsNegative() {
		total = decimal.Zero
	}

	id := selected.ID
	lp.OfferID = &id
	lp.DiscountAmount = discount
	lp.LineTotal = total.Round(2)
	lp.BonusUnits = selected.BonusUnits
	return lp
}
