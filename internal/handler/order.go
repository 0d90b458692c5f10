package handler

import (
	"net/http"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/averix/orderhold/internal/domain/auth"
	"github.com/averix/orderhold/internal/domain/order"
	"github.com/averix/orderhold/internal/domain/preview"
	"github.com/averix/orderhold/internal/domain/pricing"
)

type previewRequest struct {
	CompanyID string        `json:"company_id"`
	Note      string        `json:"note"`
	Items     []previewItem `json:"items"`
}

type previewItem struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

type previewResponse struct {
	PreviewToken  string                `json:"preview_token"`
	ExpiresAt     time.Time             `json:"expires_at"`
	Items         []pricing.LinePricing `json:"items"`
	Subtotal      decimal.Decimal       `json:"subtotal"`
	TotalDiscount decimal.Decimal       `json:"total_discount"`
	FinalTotal    decimal.Decimal       `json:"final_total"`
}

type confirmRequest struct {
	PreviewToken string `json:"preview_token"`
}

type confirmNotFoundResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

type createRequest struct {
	CompanyID string       `json:"company_id"`
	Note      string       `json:"note"`
	Items     []createItem `json:"items"`
}

type createItem struct {
	ProductID      string           `json:"product_id"`
	Quantity       int              `json:"quantity"`
	UnitPrice      *decimal.Decimal `json:"unit_price_snapshot"`
	DiscountAmount *decimal.Decimal `json:"discount_amount_snapshot"`
	LineTotal      *decimal.Decimal `json:"final_line_total_snapshot"`
	OfferID        *string          `json:"selected_offer_id"`
}

func (h *Handler) previewOrder(w http.ResponseWriter, r *http.Request) {
	caller, _ := auth.CallerFromContext(r.Context())

	var req previewRequest
	if !decodeBody(w, r, &req) {
		return
	}

	lines := make([]pricing.Line, len(req.Items))
	for i, item := range req.Items {
		lines[i] = pricing.Line{ProductID: item.ProductID, Quantity: item.Quantity}
	}

	result, err := h.orders.Preview(r.Context(), caller, order.PreviewRequest{
		CompanyID: req.CompanyID,
		Note:      req.Note,
		Lines:     lines,
	})
	if err != nil {
		h.respondOrderError(w, r, err)
		return
	}

	respondJSON(w, r, http.StatusOK, newPreviewResponse(result))
}

func (h *Handler) fetchPreview(w http.ResponseWriter, r *http.Request) {
	caller, _ := auth.CallerFromContext(r.Context())

	result, err := h.orders.Fetch(r.Context(), caller, r.PathValue("token"))
	if err != nil {
		h.respondOrderError(w, r, err)
		return
	}

	respondJSON(w, r, http.StatusOK, newPreviewResponse(result))
}

func (h *Handler) discardPreview(w http.ResponseWriter, r *http.Request) {
	if err := h.orders.Discard(r.Context(), r.PathValue("token")); err != nil {
		h.respondOrderError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) confirmOrder(w http.ResponseWriter, r *http.Request) {
	caller, _ := auth.CallerFromContext(r.Context())

	var req confirmRequest
	if !decodeBody(w, r, &req) {
		return
	}

	o, err := h.orders.Confirm(r.Context(), caller, req.PreviewToken)
	if err != nil {
		h.respondOrderError(w, r, err)
		return
	}

	respondJSON(w, r, http.StatusCreated, order.Present(o))
}

func (h *Handler) createOrder(w http.ResponseWriter, r *http.Request) {
	caller, _ := auth.CallerFromContext(r.Context())

	var req createRequest
	if !decodeBody(w, r, &req) {
		return
	}

	lines := make([]order.SnapshotLineInput, len(req.Items))
	for i, item := range req.Items {
		lines[i] = order.SnapshotLineInput{
			ProductID:      item.ProductID,
			Quantity:       item.Quantity,
			UnitPrice:      item.UnitPrice,
			DiscountAmount: item.DiscountAmount,
			LineTotal:      item.LineTotal,
			OfferID:        item.OfferID,
		}
	}

	o, err := h.orders.Create(r.Context(), caller, order.DirectCreateRequest{
		CompanyID: req.CompanyID,
		Note:      req.Note,
		Lines:     lines,
	})
	if err != nil {
		h.respondOrderError(w, r, err)
		return
	}

	respondJSON(w, r, http.StatusCreated, order.Present(o))
}

// respondOrderError maps domain errors to HTTP responses. Preview tokens
// that are absent, expired or already consumed all yield the same 404 body.
func (h *Handler) respondOrderError(w http.ResponseWriter, r *http.Request, err error) {
	var vErr *order.ValidationError
	if errors.As(err, &vErr) {
		respondJSON(w, r, http.StatusUnprocessableEntity, errorResponse{
			Code:       http.StatusUnprocessableEntity,
			Message:    "validation failed",
			Violations: vErr.Violations,
		})
		return
	}

	var pnfErr *pricing.ProductNotFoundError
	if errors.As(err, &pnfErr) {
		respondError(w, r, http.StatusUnprocessableEntity, pnfErr.Error())
		return
	}

	var piErr *pricing.ProductInactiveError
	if errors.As(err, &piErr) {
		respondError(w, r, http.StatusUnprocessableEntity, piErr.Error())
		return
	}

	if errors.Is(err, order.ErrCompanyMismatch) {
		respondError(w, r, http.StatusForbidden, err.Error())
		return
	}

	if errors.Is(err, preview.ErrNotFound) {
		respondJSON(w, r, http.StatusNotFound, confirmNotFoundResponse{
			Success: false,
			Message: "Preview not found or expired",
		})
		return
	}

	zctx.From(r.Context()).Error("order request failed", zap.Error(err))
	respondError(w, r, http.StatusInternalServerError, "internal error")
}

func newPreviewResponse(result *order.PreviewResult) previewResponse {
	subtotal := decimal.Zero
	totalDiscount := decimal.Zero
	finalTotal := decimal.Zero
	for _, line := range result.Lines {
		qty := decimal.NewFromInt(int64(line.Quantity))
		subtotal = subtotal.Add(line.UnitPrice.Mul(qty))
		totalDiscount = totalDiscount.Add(line.DiscountAmount)
		finalTotal = finalTotal.Add(line.LineTotal)
	}

	return previewResponse{
		PreviewToken:  result.Token,
		ExpiresAt:     result.ExpiresAt,
		Items:         result.Lines,
		Subtotal:      subtotal.Round(2),
		TotalDiscount: totalDiscount.Round(2),
		FinalTotal:    finalTotal.Round(2),
	}
}
