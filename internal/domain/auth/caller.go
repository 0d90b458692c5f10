// Package auth resolves API keys to callers and carries the caller through
// request contexts.
package auth

import (
	"context"

	"github.com/go-faster/errors"
)

// Role is a caller's function within their company.
type Role string

const (
	RoleCustomer Role = "customer"
	RoleStaff    Role = "staff"
)

// ErrKeyNotFound is returned when no active API key matches the presented
// hash.
var ErrKeyNotFound = errors.New("api key not found")

// Caller is the authenticated principal behind a request.
type Caller struct {
	ID        string
	CompanyID string
	Name      string
	Role      Role
	Active    bool
	KeyHash   string
}

// IsCustomer reports whether the caller holds the customer role. The Active
// flag is deliberately not consulted: role gating answers "who are you",
// not "are you in good standing".
func (c *Caller) IsCustomer() bool {
	return c.Role == RoleCustomer
}

// Repository resolves hashed API keys to callers.
type Repository interface {
	FindByKeyHash(ctx context.Context, keyHash string) (*Caller, error)
}

type callerKey struct{}

// WithCaller stores the caller on the context.
func WithCaller(ctx context.Context, c *Caller) context.Context {
	return context.WithValue(ctx, callerKey{}, c)
}

// CallerFromContext extracts the caller stored by WithCaller.
func CallerFromContext(ctx context.Context) (*Caller, bool) {
	c, ok := ctx.Value(callerKey{}).(*Caller)
	return c, ok
}
