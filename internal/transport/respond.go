package transport

import (
	"encoding/json"
	"errors"
	"net/http"

	"gerai-be/internal/checkout"
	"gerai-be/internal/order"
	"gerai-be/internal/shipping"
)

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

// writeError maps domain errors onto HTTP statuses and stable error codes
// the storefront can branch on.
func writeError(w http.ResponseWriter, err error) {
	var (
		ite *order.InvalidTransitionError
		uqe *shipping.UnknownQuoteError
	)

	switch {
	case errors.As(err, &ite):
		writeJSON(w, http.StatusConflict, errorResponse{Error: err.Error(), Code: "INVALID_TRANSITION"})
	case errors.As(err, &uqe):
		writeJSON(w, http.StatusConflict, errorResponse{Error: err.Error(), Code: "UNKNOWN_QUOTE"})
	case errors.Is(err, shipping.ErrNoQuotesAvailable):
		// Expected business outcome: shipping unavailable for this
		// address, not a server fault.
		writeJSON(w, http.StatusUnprocessableEntity, errorResponse{Error: err.Error(), Code: "NO_QUOTES_AVAILABLE"})
	case errors.Is(err, order.ErrExternalDependency):
		writeJSON(w, http.StatusBadGateway, errorResponse{Error: err.Error(), Code: "EXTERNAL_DEPENDENCY"})
	case errors.Is(err, order.ErrStatusConflict):
		writeJSON(w, http.StatusConflict, errorResponse{Error: err.Error(), Code: "STATUS_CONFLICT"})
	case errors.Is(err, order.ErrOrderNotFound),
		errors.Is(err, checkout.ErrSessionNotFound):
		writeJSON(w, http.StatusNotFound, errorResponse{Error: err.Error()})
	case errors.Is(err, order.ErrUnauthorized),
		errors.Is(err, checkout.ErrForbidden):
		writeJSON(w, http.StatusForbidden, errorResponse{Error: err.Error()})
	case errors.Is(err, checkout.ErrSessionExpired),
		errors.Is(err, checkout.ErrSessionNotEditable),
		errors.Is(err, checkout.ErrNoItems),
		errors.Is(err, checkout.ErrNoAddress),
		errors.Is(err, checkout.ErrBadItem),
		errors.Is(err, shipping.ErrNoSelection),
		errors.Is(err, shipping.ErrMissingPostalCode),
		errors.Is(err, shipping.ErrMissingCountryCode),
		errors.Is(err, shipping.ErrEmptyManifest),
		errors.Is(err, order.ErrEmptyOrder),
		errors.Is(err, order.ErrInvalidQuantity),
		errors.Is(err, order.ErrPaymentRequired):
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
	default:
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal server error"})
	}
}
