package transport

import (
	"net/http"

	"gerai-be/internal/logger"
	"gerai-be/internal/order"
	"gerai-be/internal/payment"

	"go.uber.org/zap"
)

// paymentWebhook receives payment-status notifications. It only ever
// advances the payment axis; order lifecycle status is untouched here.
func (h *Handler) paymentWebhook(w http.ResponseWriter, r *http.Request) {
	log := logger.FromCtx(r.Context()).With(zap.String("handler", "paymentWebhook"))

	event, err := payment.VerifyAndParse(r, h.webhookSecret)
	if err != nil {
		log.Warn("rejected payment webhook", zap.Error(err))
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid webhook"})
		return
	}

	var status order.PaymentStatus
	switch event.Status {
	case "PAID", "SETTLED", "CAPTURED":
		status = order.PaymentPaid
	case "FAILED", "EXPIRED":
		status = order.PaymentFailed
	case "REFUNDED":
		status = order.PaymentRefunded
	default:
		log.Warn("ignoring webhook with unknown status", zap.String("status", event.Status))
		w.WriteHeader(http.StatusOK)
		return
	}

	if err := h.orders.MarkPaymentStatus(r.Context(), event.OrderRef, status); err != nil {
		writeError(w, err)
		return
	}

	w.WriteHeader(http.StatusOK)
}
