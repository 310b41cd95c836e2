package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/utafrali/storefront/internal/checkout"
	"github.com/utafrali/storefront/pkg/httputil"
)

// FieldRequest carries one checkout field value.
type FieldRequest struct {
	Value string `json:"value"`
}

// FieldResponse is the result of validating one field.
type FieldResponse struct {
	Field string `json:"field"`
	Valid bool   `json:"valid"`
	Error string `json:"error,omitempty"`
}

// OpenCheckout handles POST /api/v1/checkout/open
func (h *StorefrontHandler) OpenCheckout(w http.ResponseWriter, r *http.Request) {
	s, ok := h.state(w, r)
	if !ok {
		return
	}
	if err := s.OpenCheckout(); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	h.render(w, http.StatusOK, s)
}

// CloseCheckout handles POST /api/v1/checkout/close
func (h *StorefrontHandler) CloseCheckout(w http.ResponseWriter, r *http.Request) {
	s, ok := h.state(w, r)
	if !ok {
		return
	}
	s.CloseCheckout()
	h.render(w, http.StatusOK, s)
}

// BlurField handles POST /api/v1/checkout/fields/{field}/blur
func (h *StorefrontHandler) BlurField(w http.ResponseWriter, r *http.Request) {
	field := checkout.Field(chi.URLParam(r, "field"))
	var req FieldRequest
	if !h.decode(w, r, &req) {
		return
	}
	s, ok := h.state(w, r)
	if !ok {
		return
	}
	msg, err := s.BlurField(field, req.Value)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusOK, FieldResponse{Field: string(field), Valid: msg == "", Error: msg})
}

// EditField handles POST /api/v1/checkout/fields/{field}/edit
func (h *StorefrontHandler) EditField(w http.ResponseWriter, r *http.Request) {
	field := checkout.Field(chi.URLParam(r, "field"))
	var req FieldRequest
	if !h.decode(w, r, &req) {
		return
	}
	s, ok := h.state(w, r)
	if !ok {
		return
	}
	if err := s.EditField(field, req.Value); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusOK, FieldResponse{Field: string(field), Valid: true})
}

// SubmitCheckout handles POST /api/v1/checkout. A valid form answers 202
// while the order is processed; field errors answer 400 VALIDATION_ERROR.
// The form is validated by the checkout state machine, not here.
func (h *StorefrontHandler) SubmitCheckout(w http.ResponseWriter, r *http.Request) {
	var form checkout.Form
	if !h.decodeJSON(w, r, &form) {
		return
	}
	s, ok := h.state(w, r)
	if !ok {
		return
	}
	if err := s.SubmitCheckout(r.Context(), form); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	h.render(w, http.StatusAccepted, s)
}
