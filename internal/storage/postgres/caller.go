package postgres

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/averix/orderhold/internal/domain/auth"
)

const findCallerByKeyHashSQL = `SELECT u.id, u.company_id, u.name, u.role, u.active, k.key_hash
	FROM api_keys k
	JOIN users u ON u.id = k.user_id
	WHERE k.key_hash = $1 AND k.active = TRUE`

var _ auth.Repository = (*CallerRepository)(nil)

// CallerRepository resolves API key hashes to caller identities.
type CallerRepository struct {
	pool *pgxpool.Pool
}

// NewCallerRepository returns a CallerRepository that uses the given pool.
func NewCallerRepository(pool *pgxpool.Pool) *CallerRepository {
	return &CallerRepository{pool: pool}
}

// FindByKeyHash looks up the caller behind an active API key hash.
func (r *CallerRepository) FindByKeyHash(ctx context.Context, hash string) (*auth.Caller, error) {
	var c auth.Caller
	err := r.pool.QueryRow(ctx, findCallerByKeyHashSQL, hash).Scan(
		&c.ID, &c.CompanyID, &c.Name, &c.Role, &c.Active, &c.KeyHash,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, auth.ErrKeyNotFound
		}
		return nil, errors.Wrap(err, "find caller by key hash")
	}
	return &c, nil
}
