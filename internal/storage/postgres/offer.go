package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/averix/orderhold/internal/domain/offer"
)

const listOffersByProductsSQL = `SELECT id, product_id, min_qty, discount_percent, bonus_units, active, created_at
	FROM offers WHERE active = TRUE AND product_id = ANY($1)`

var _ offer.Repository = (*OfferRepository)(nil)

// OfferRepository implements offer.Repository backed by PostgreSQL.
type OfferRepository struct {
	pool *pgxpool.Pool
}

// NewOfferRepository returns an OfferRepository that uses the given pool.
func NewOfferRepository(pool *pgxpool.Pool) *OfferRepository {
	return &OfferRepository{pool: pool}
}

// ListByProducts returns all active offers for the given products.
func (r *OfferRepository) ListByProducts(ctx context.Context, productIDs []string) ([]offer.Offer, error) {
	rows, err := r.pool.Query(ctx, listOffersByProductsSQL, productIDs)
	if err != nil {
		return nil, fmt.Errorf("listing offers by products: %w", err)
	}
	return pgx.CollectRows(rows, scanOffer)
}

func scanOffer(row pgx.CollectableRow) (offer.Offer, error) {
	var (
		o      offer.Offer
		minQty int32
		bonus  int32
	)
	err := row.Scan(&o.ID, &o.ProductID, &minQty, &o.DiscountPercent, &bonus, &o.Active, &o.CreatedAt)
	o.MinQty = int(minQty)
	o.BonusUnits = int(bonus)
	return o, err
}
