package order

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/google/uuid"

	"github.com/averix/orderhold/internal/domain/auth"
	"github.com/averix/orderhold/internal/domain/preview"
	"github.com/averix/orderhold/internal/domain/pricing"
)

// ErrCompanyMismatch is returned when the request names a company the caller
// does not belong to.
var ErrCompanyMismatch = errors.New("caller does not belong to the stated company")

// Service implements the two order entry sequences: the server-priced
// preview→confirm handshake and the pre-priced direct creation path. Both
// converge on the same Repository.
type Service struct {
	pricer     pricing.Pricer
	previews   preview.Store
	orders     Repository
	previewTTL time.Duration
	now        func() time.Time
}

// NewService creates an order Service. ttl bounds the lifetime of preview
// tokens.
func NewService(pricer pricing.Pricer, previews preview.Store, orders Repository, ttl time.Duration) *Service {
	return &Service{
		pricer:     pricer,
		previews:   previews,
		orders:     orders,
		previewTTL: ttl,
		now:        time.Now,
	}
}

// PreviewRequest is the input for computing a new quote.
type PreviewRequest struct {
	CompanyID string
	Note      string
	Lines     []pricing.Line
}

// PreviewResult is an issued quote: the token to confirm it with, its
// expiry, and the priced lines.
type PreviewResult struct {
	Token     string
	ExpiresAt time.Time
	Lines     []pricing.LinePricing
}

// Preview validates the request, prices it, and parks the quote in the
// preview store behind a fresh single-use token.
func (s *Service) Preview(ctx context.Context, caller *auth.Caller, req PreviewRequest) (*PreviewResult, error) {
	if err := ValidateLines(req.CompanyID, req.Lines); err != nil {
		return nil, err
	}
	if req.CompanyID != caller.CompanyID {
		return nil, ErrCompanyMismatch
	}

	priced, err := s.pricer.Price(ctx, req.CompanyID, req.Lines)
	if err != nil {
		return nil, err
	}

	now := s.now()
	p := &preview.Payload{
		Token:      preview.NewToken(now),
		CompanyID:  req.CompanyID,
		CustomerID: caller.ID,
		Note:       req.Note,
		Lines:      priced,
		CreatedAt:  now,
	}
	if err := s.previews.Put(ctx, p, s.previewTTL); err != nil {
		return nil, errors.Wrap(err, "store preview")
	}

	return &PreviewResult{
		Token:     p.Token,
		ExpiresAt: now.Add(s.previewTTL),
		Lines:     priced,
	}, nil
}

// Fetch returns a still-valid quote without consuming it.
func (s *Service) Fetch(ctx context.Context, caller *auth.Caller, token string) (*PreviewResult, error) {
	p, err := s.previews.Peek(ctx, token)
	if err != nil {
		return nil, err
	}
	if p.CompanyID != caller.CompanyID || p.CustomerID != caller.ID {
		// A foreign token looks exactly like a missing one.
		return nil, preview.ErrNotFound
	}
	return &PreviewResult{
		Token:     p.Token,
		ExpiresAt: p.CreatedAt.Add(s.previewTTL),
		Lines:     p.Lines,
	}, nil
}

// Discard drops a quote before its expiry. Discarding an unknown token is
// not an error.
func (s *Service) Discard(ctx context.Context, token string) error {
	return s.previews.Forget(ctx, token)
}

// Confirm converts a still-valid quote into a durable order. The token is
// consumed atomically, so two racing confirms produce exactly one order.
// The quote is frozen: lines are persisted verbatim with no re-pricing.
// If persistence fails after consumption the token is NOT restored; the
// quote is spent and the caller must request a fresh preview.
func (s *Service) Confirm(ctx context.Context, caller *auth.Caller, token string) (*Order, error) {
	p, err := s.previews.Consume(ctx, token)
	if err != nil {
		return nil, err
	}
	if p.CompanyID != caller.CompanyID || p.CustomerID != caller.ID {
		return nil, preview.ErrNotFound
	}

	o := s.fromPricedLines(p, caller)
	if err := s.orders.Materialize(ctx, o); err != nil {
		return nil, errors.Wrap(err, "materialize order")
	}
	return o, nil
}

// DirectCreateRequest is the input for the pre-priced creation path.
type DirectCreateRequest struct {
	CompanyID string
	Note      string
	Lines     []SnapshotLineInput
}

// Create persists an order from caller-supplied price snapshots. Structural
// and business rules are enforced, but the snapshot arithmetic is trusted
// as-is: this path exists for integrations that price upstream.
func (s *Service) Create(ctx context.Context, caller *auth.Caller, req DirectCreateRequest) (*Order, error) {
	if err := ValidateSnapshotLines(req.CompanyID, req.Lines); err != nil {
		return nil, err
	}
	if req.CompanyID != caller.CompanyID {
		return nil, ErrCompanyMismatch
	}

	o := s.fromSnapshots(req, caller)
	if err := s.orders.Materialize(ctx, o); err != nil {
		return nil, errors.Wrap(err, "materialize order")
	}
	return o, nil
}

// fromPricedLines builds the aggregate for the confirm path from a frozen
// quote payload.
func (s *Service) fromPricedLines(p *preview.Payload, caller *auth.Caller) *Order {
	items := make([]Item, len(p.Lines))
	for i, line := range p.Lines {
		item := Item{
			ID:             uuid.New().String(),
			ProductID:      line.ProductID,
			ProductName:    line.ProductName,
			Quantity:       line.Quantity,
			UnitPrice:      line.UnitPrice,
			DiscountAmount: line.DiscountAmount,
			LineTotal:      line.LineTotal,
			OfferID:        line.OfferID,
			Bonuses:        []ItemBonus{},
		}
		if line.BonusUnits > 0 {
			item.Bonuses = append(item.Bonuses, ItemBonus{
				ID:       uuid.New().String(),
				Quantity: line.BonusUnits,
			})
		}
		items[i] = item
	}
	return s.newOrder(p.CompanyID, caller.ID, p.Note, items)
}

// fromSnapshots builds the aggregate for the direct path. Snapshot lines
// never grant bonus units: bonuses are a pricing-engine product.
func (s *Service) fromSnapshots(req DirectCreateRequest, caller *auth.Caller) *Order {
	items := make([]Item, len(req.Lines))
	for i, line := range req.Lines {
		items[i] = Item{
			ID:             uuid.New().String(),
			ProductID:      line.ProductID,
			Quantity:       line.Quantity,
			UnitPrice:      *line.UnitPrice,
			DiscountAmount: *line.DiscountAmount,
			LineTotal:      *line.LineTotal,
			OfferID:        line.OfferID,
			Bonuses:        []ItemBonus{},
		}
	}
	return s.newOrder(req.CompanyID, caller.ID, req.Note, items)
}

// newOrder assembles the common aggregate shape: submitted status and
// exactly one creation audit entry with a nil from-status.
func (s *Service) newOrder(companyID, customerID, note string, items []Item) *Order {
	now := s.now()
	return &Order{
		ID:          uuid.New().String(),
		CompanyID:   companyID,
		CustomerID:  customerID,
		Status:      StatusSubmitted,
		Note:        note,
		SubmittedAt: now,
		Items:       items,
		StatusLog: []StatusChange{{
			ID:        uuid.New().String(),
			From:      nil,
			To:        StatusSubmitted,
			ChangedBy: customerID,
			At:        now,
		}},
	}
}
