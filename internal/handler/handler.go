// Package handler exposes the order API over plain net/http.
package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/averix/orderhold/internal/domain/auth"
	"github.com/averix/orderhold/internal/domain/order"
)

// OrderService is the slice of order.Service the handlers need.
type OrderService interface {
	Preview(ctx context.Context, caller *auth.Caller, req order.PreviewRequest) (*order.PreviewResult, error)
	Fetch(ctx context.Context, caller *auth.Caller, token string) (*order.PreviewResult, error)
	Discard(ctx context.Context, token string) error
	Confirm(ctx context.Context, caller *auth.Caller, token string) (*order.Order, error)
	Create(ctx context.Context, caller *auth.Caller, req order.DirectCreateRequest) (*order.Order, error)
}

// Handler holds the API endpoints and their dependencies.
type Handler struct {
	orders OrderService
}

// NewHandler constructs a Handler.
func NewHandler(orders OrderService) *Handler {
	return &Handler{orders: orders}
}

// RegisterRoutes attaches all API routes to the mux. Every route requires an
// authenticated customer caller; sec wraps each handler accordingly.
func (h *Handler) RegisterRoutes(mux *http.ServeMux, sec *Security) {
	guard := func(fn http.HandlerFunc) http.Handler {
		return sec.Authenticate(RequireCustomer(fn))
	}

	mux.Handle("POST /api/orders/preview", guard(h.previewOrder))
	mux.Handle("GET /api/orders/preview/{token}", guard(h.fetchPreview))
	mux.Handle("DELETE /api/orders/preview/{token}", guard(h.discardPreview))
	mux.Handle("POST /api/orders/confirm", guard(h.confirmOrder))
	mux.Handle("POST /api/orders", guard(h.createOrder))
}

// errorResponse is the uniform 4xx/5xx body.
type errorResponse struct {
	Code       int               `json:"code"`
	Message    string            `json:"message"`
	Violations map[string]string `json:"violations,omitempty"`
}

func respondJSON(w http.ResponseWriter, r *http.Request, status int, body any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		zctx.From(r.Context()).Error("encode response", zap.Error(err))
	}
}

func respondError(w http.ResponseWriter, r *http.Request, status int, message string) {
	respondJSON(w, r, status, errorResponse{Code: status, Message: message})
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		respondError(w, r, http.StatusBadRequest, "malformed request body")
		return false
	}
	return true
}
