// Package preview defines the ephemeral price-quote payload and the store
// contract that holds quotes between the preview and confirm calls.
package preview

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"time"

	"github.com/go-faster/errors"

	"github.com/averix/orderhold/internal/domain/pricing"
)

// ErrNotFound is returned when a token is absent, expired, or already
// consumed. The three causes are deliberately indistinguishable: a preview
// token is a single-use capability and callers learn nothing beyond "gone".
var ErrNotFound = errors.New("preview not found or expired")

// Payload is a computed quote held behind a token until it is confirmed,
// forgotten, or expires. It is never written to durable storage.
type Payload struct {
	Token      string                `json:"token"`
	CompanyID  string                `json:"company_id"`
	CustomerID string                `json:"customer_id"`
	Note       string                `json:"note"`
	Lines      []pricing.LinePricing `json:"lines"`
	CreatedAt  time.Time             `json:"created_at"`
}

// Store is the ephemeral token → payload mapping. Implementations must
// enforce the TTL themselves: an entry older than its TTL behaves exactly
// like a missing one for every reader, Peek included.
type Store interface {
	// Put inserts the payload under its token with the given TTL.
	Put(ctx context.Context, p *Payload, ttl time.Duration) error
	// Peek returns the payload without consuming it, or ErrNotFound.
	Peek(ctx context.Context, token string) (*Payload, error)
	// Consume atomically fetches and deletes the payload. When two callers
	// race on the same token exactly one of them gets the payload; the
	// other gets ErrNotFound.
	Consume(ctx context.Context, token string) (*Payload, error)
	// Forget drops the payload. Forgetting an absent token is a no-op.
	Forget(ctx context.Context, token string) error
}

// NewToken builds a preview token: a fixed prefix, the current date for
// human inspection, and 16 random bytes for uniqueness.
func NewToken(now time.Time) string {
	buf := make([]byte, 16)
	_, _ = rand.Read(buf)
	return "PV-" + now.UTC().Format("20060102") + "-" + hex.EncodeToString(buf)
}
