package product

import (
	"context"

	"github.com/shopspring/decimal"
)

// Product is a catalog item a company sells to its customers.
type Product struct {
	ID        string
	CompanyID string
	Name      string
	UnitPrice decimal.Decimal
	Active    bool
}

// Repository defines read operations for the product catalog.
type Repository interface {
	// GetByIDs returns the products with the given IDs that belong to the
	// company. IDs with no matching row are simply absent from the result.
	GetByIDs(ctx context.Context, companyID string, ids []string) ([]Product, error)
}
