package order

import (
	"time"

	"github.com/shopspring/decimal"
)

// Detail is the response shape of a persisted order, with derived totals.
type Detail struct {
	OrderNo       string          `json:"order_no"`
	Status        Status          `json:"status"`
	Note          string          `json:"note"`
	Items         []ItemDetail    `json:"items"`
	Subtotal      decimal.Decimal `json:"subtotal"`
	TotalDiscount decimal.Decimal `json:"total_discount"`
	FinalTotal    decimal.Decimal `json:"final_total"`
	SubmittedAt   time.Time       `json:"submitted_at"`
}

// ItemDetail is the response shape of one order line.
type ItemDetail struct {
	ProductID      string          `json:"product_id"`
	ProductName    string          `json:"product_name,omitempty"`
	Quantity       int             `json:"quantity"`
	UnitPrice      decimal.Decimal `json:"unit_price"`
	DiscountAmount decimal.Decimal `json:"discount_amount"`
	LineTotal      decimal.Decimal `json:"line_total"`
	OfferID        *string         `json:"offer_id,omitempty"`
	Bonuses        []BonusDetail   `json:"bonuses"`
}

// BonusDetail is the response shape of one bonus grant.
type BonusDetail struct {
	Quantity int `json:"quantity"`
}

// Present serializes a persisted aggregate into its response shape.
// Subtotal is the sum of unit price × quantity, total discount the sum of
// discount snapshots, final total the sum of line totals — the line values
// themselves are reported verbatim, never re-derived.
func Present(o *Order) Detail {
	items := make([]ItemDetail, len(o.Items))
	subtotal := decimal.Zero
	totalDiscount := decimal.Zero
	finalTotal := decimal.Zero

	for i, item := range o.Items {
		bonuses := make([]BonusDetail, len(item.Bonuses))
		for j, b := range item.Bonuses {
			bonuses[j] = BonusDetail{Quantity: b.Quantity}
		}
		items[i] = ItemDetail{
			ProductID:      item.ProductID,
			ProductName:    item.ProductName,
			Quantity:       item.Quantity,
			UnitPrice:      item.UnitPrice,
			DiscountAmount: item.DiscountAmount,
			LineTotal:      item.LineTotal,
			OfferID:        item.OfferID,
			Bonuses:        bonuses,
		}

		qty := decimal.NewFromInt(int64(item.Quantity))
		subtotal = subtotal.Add(item.UnitPrice.Mul(qty))
		totalDiscount = totalDiscount.Add(item.DiscountAmount)
		finalTotal = finalTotal.Add(item.LineTotal)
	}

	return Detail{
		OrderNo:       o.OrderNo,
		Status:        o.Status,
		Note:          o.Note,
		Items:         items,
		Subtotal:      subtotal.Round(2),
		TotalDiscount: totalDiscount.Round(2),
		FinalTotal:    finalTotal.Round(2),
		SubmittedAt:   o.SubmittedAt,
	}
}
