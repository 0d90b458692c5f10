package postgres

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/averix/orderhold/internal/domain/order"
)

const (
	nextOrderNoSQL = `SELECT nextval('order_no_seq')`

	insertOrderSQL = `INSERT INTO orders (id, order_no, company_id, customer_id, status, note, submitted_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`

	insertOrderItemSQL = `INSERT INTO order_items (id, order_id, product_id, quantity, unit_price, discount_amount, line_total, offer_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	insertItemBonusSQL = `INSERT INTO order_item_bonuses (id, order_item_id, quantity)
		VALUES ($1, $2, $3)`

	insertStatusLogSQL = `INSERT INTO order_status_logs (id, order_id, from_status, to_status, changed_by, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`
)

var _ order.Repository = (*OrderRepository)(nil)

// OrderRepository implements order.Repository backed by PostgreSQL.
type OrderRepository struct {
	pool *pgxpool.Pool
}

// NewOrderRepository returns an OrderRepository that uses the given pool.
func NewOrderRepository(pool *pgxpool.Pool) *OrderRepository {
	return &OrderRepository{pool: pool}
}

// Materialize persists the whole aggregate in one transaction: header,
// items, bonus rows and the status log. The order number is allocated from
// a sequence inside the transaction, so concurrent creations never collide.
// Any failure rolls everything back.
func (r *OrderRepository) Materialize(ctx context.Context, o *order.Order) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return errors.Wrap(err, "begin transaction")
	}
	defer tx.Rollback(ctx) //nolint:errcheck // rollback after commit is a no-op

	var seq int64
	if err := tx.QueryRow(ctx, nextOrderNoSQL).Scan(&seq); err != nil {
		return errors.Wrap(err, "allocate order number")
	}
	orderNo := fmt.Sprintf("SO-%s-%06d", o.SubmittedAt.UTC().Format("20060102"), seq)

	_, err = tx.Exec(ctx, insertOrderSQL,
		o.ID, orderNo, o.CompanyID, o.CustomerID, string(o.Status), o.Note, o.SubmittedAt,
	)
	if err != nil {
		return errors.Wrapf(err, "insert order %q", o.ID)
	}

	for i := range o.Items {
		item := &o.Items[i]
		_, err = tx.Exec(ctx, insertOrderItemSQL,
			item.ID, o.ID, item.ProductID, item.Quantity,
			item.UnitPrice, item.DiscountAmount, item.LineTotal, item.OfferID,
		)
		if err != nil {
			return errors.Wrapf(err, "insert order item %q", item.ID)
		}

		for _, b := range item.Bonuses {
			_, err = tx.Exec(ctx, insertItemBonusSQL, b.ID, item.ID, b.Quantity)
			if err != nil {
				return errors.Wrapf(err, "insert item bonus %q", b.ID)
			}
		}
	}

	for _, sc := range o.StatusLog {
		var from *string
		if sc.From != nil {
			s := string(*sc.From)
			from = &s
		}
		_, err = tx.Exec(ctx, insertStatusLogSQL,
			sc.ID, o.ID, from, string(sc.To), sc.ChangedBy, sc.At,
		)
		if err != nil {
			return errors.Wrapf(err, "insert status log %q", sc.ID)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return errors.Wrap(err, "commit transaction")
	}

	o.OrderNo = orderNo
	return nil
}
