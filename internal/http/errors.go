package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/GitwithRaj/talktocart/internal/catalog"
	"github.com/GitwithRaj/talktocart/internal/http/dto"
	"github.com/GitwithRaj/talktocart/internal/invoice"
	"github.com/GitwithRaj/talktocart/internal/middleware"
	"github.com/GitwithRaj/talktocart/internal/session"
)

// statusFor maps service errors to HTTP statuses and client-facing messages.
func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, session.ErrEmptyPrompt),
		errors.Is(err, session.ErrInvalidAction),
		errors.Is(err, catalog.ErrUnknownItem):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, session.ErrCommandInFlight):
		return http.StatusConflict, session.ErrCommandInFlight.Error()
	case errors.Is(err, invoice.ErrEmptyCartInvoice):
		return http.StatusUnprocessableEntity, invoice.ErrEmptyCartInvoice.Error()
	case errors.Is(err, session.ErrInterpreterUnavailable):
		return http.StatusBadGateway, session.ErrInterpreterUnavailable.Error()
	default:
		return http.StatusInternalServerError, "internal error"
	}
}

func (h *Handler) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	status, msg := statusFor(err)
	if status >= http.StatusInternalServerError {
		h.logger.Error("request failed",
			zap.String("path", r.URL.Path),
			zap.String("correlation_id", middleware.GetCorrelationID(r.Context())),
			zap.Error(err),
		)
	}
	writeError(w, r, status, msg)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, r *http.Request, status int, msg string) {
	writeJSON(w, status, dto.ErrorResponse{
		Error:         msg,
		CorrelationID: middleware.GetCorrelationID(r.Context()),
	})
}
