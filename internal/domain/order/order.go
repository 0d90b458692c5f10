package order

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// Status is an order lifecycle state.
type Status string

const (
	// StatusSubmitted is the fixed initial state of every order.
	StatusSubmitted Status = "submitted"
	// StatusApproved and StatusDelivered are later lifecycle states; they
	// are never assigned at creation time.
	StatusApproved  Status = "approved"
	StatusDelivered Status = "delivered"
)

// Order is the durable order aggregate. It exclusively owns its items and
// status log entries; items own their bonus rows.
type Order struct {
	ID          string
	OrderNo     string
	CompanyID   string
	CustomerID  string
	Status      Status
	Note        string
	SubmittedAt time.Time
	ApprovedAt  *time.Time
	DeliveredAt *time.Time
	Items       []Item
	StatusLog   []StatusChange
}

// Item is a single order line. Its monetary fields are snapshots, stored
// verbatim from either the pricing engine or the caller-supplied values.
type Item struct {
	ID             string
	ProductID      string
	ProductName    string
	Quantity       int
	UnitPrice      decimal.Decimal
	DiscountAmount decimal.Decimal
	LineTotal      decimal.Decimal
	OfferID        *string
	Bonuses        []ItemBonus
}

// ItemBonus records free units granted by an offer on one line.
type ItemBonus struct {
	ID       string
	Quantity int
}

// StatusChange is one append-only audit record of a status transition.
// From is nil for the creation event.
type StatusChange struct {
	ID        string
	From      *Status
	To        Status
	ChangedBy string
	At        time.Time
}

// Repository persists order aggregates. Materialize writes the header, all
// items, all bonus rows and the status log in a single transaction and
// assigns the generated OrderNo on the passed aggregate. Any failure rolls
// the whole write back; a partial order is never observable.
type Repository interface {
	Materialize(ctx context.Context, o *Order) error
}
