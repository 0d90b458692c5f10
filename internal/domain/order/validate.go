package order

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/averix/orderhold/internal/domain/pricing"
)

// ValidationError carries field-indexed violations. Keys are field paths
// like "company_id" or "items[2].quantity".
type ValidationError struct {
	Violations map[string]string
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Violations))
	for field, msg := range e.Violations {
		parts = append(parts, field+": "+msg)
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// SnapshotLineInput is a caller-supplied, pre-priced line on the direct
// creation path. The monetary fields are pointers so that absent JSON
// fields are distinguishable from explicit zeros.
type SnapshotLineInput struct {
	ProductID      string
	Quantity       int
	UnitPrice      *decimal.Decimal
	DiscountAmount *decimal.Decimal
	LineTotal      *decimal.Decimal
	OfferID        *string
}

// ValidateLines runs the structural checks shared by the preview path:
// company present, at least one line, every quantity positive, no product
// referenced twice. Any single violation rejects the whole request.
func ValidateLines(companyID string, lines []pricing.Line) error {
	v := map[string]string{}
	validateHeader(companyID, len(lines), v)
	for i, line := range lines {
		validateLineCommon(i, line.ProductID, line.Quantity, v)
	}
	validateUniqueProducts(lines, func(l pricing.Line) string { return l.ProductID }, v)
	if len(v) > 0 {
		return &ValidationError{Violations: v}
	}
	return nil
}

// ValidateSnapshotLines runs the direct-create checks: everything
// ValidateLines does plus presence and non-negativity of the price
// snapshots. The snapshot's internal arithmetic is deliberately not
// cross-checked against quantity and unit price; the direct path exists
// for integrations that price upstream.
func ValidateSnapshotLines(companyID string, lines []SnapshotLineInput) error {
	v := map[string]string{}
	validateHeader(companyID, len(lines), v)
	for i, line := range lines {
		validateLineCommon(i, line.ProductID, line.Quantity, v)
		validateSnapshot(i, "unit_price", line.UnitPrice, v)
		validateSnapshot(i, "discount_amount", line.DiscountAmount, v)
		validateSnapshot(i, "line_total", line.LineTotal, v)
	}
	validateUniqueProducts(lines, func(l SnapshotLineInput) string { return l.ProductID }, v)
	if len(v) > 0 {
		return &ValidationError{Violations: v}
	}
	return nil
}

func validateHeader(companyID string, lineCount int, v map[string]string) {
	if companyID == "" {
		v["company_id"] = "required"
	}
	if lineCount == 0 {
		v["items"] = "at least one item is required"
	}
}

func validateLineCommon(i int, productID string, qty int, v map[string]string) {
	if productID == "" {
		v[fmt.Sprintf("items[%d].product_id", i)] = "required"
	}
	if qty <= 0 {
		v[fmt.Sprintf("items[%d].quantity", i)] = "must be greater than 0"
	}
}

func validateSnapshot(i int, field string, d *decimal.Decimal, v map[string]string) {
	key := fmt.Sprintf("items[%d].%s", i, field)
	switch {
	case d == nil:
		v[key] = "required"
	case d.IsNegative():
		v[key] = "must not be negative"
	}
}

func validateUniqueProducts[T any](lines []T, productID func(T) string, v map[string]string) {
	seen := make(map[string]int, len(lines))
	for i, line := range lines {
		id := productID(line)
		if id == "" {
			continue
		}
		if first, ok := seen[id]; ok {
			v[fmt.Sprintf("items[%d].product_id", i)] = fmt.Sprintf("duplicate of items[%d]", first)
			continue
		}
		seen[id] = i
	}
}
