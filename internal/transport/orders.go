package transport

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"gerai-be/internal/courier"
	"gerai-be/internal/order"
	"gerai-be/internal/payment"
	"gerai-be/internal/utils"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"gerai-be/internal/logger"
)

type orderItemPayload struct {
	VariantID   string `json:"variant_id"`
	VariantName string `json:"variant_name"`
	ProductName string `json:"product_name"`
	Quantity    int    `json:"quantity"`
	Price       int    `json:"price"`
	Subtotal    int    `json:"subtotal"`
}

type orderPayload struct {
	ID             uint               `json:"id"`
	ExternalID     string             `json:"external_id"`
	Status         string             `json:"status"`
	StatusLabel    string             `json:"status_label"`
	NextStatuses   []string           `json:"next_statuses"`
	PaymentStatus  string             `json:"payment_status"`
	Currency       string             `json:"currency"`
	Subtotal       int                `json:"subtotal"`
	Tax            int                `json:"tax"`
	ShippingCost   int                `json:"shipping_cost"`
	TotalAmount    int                `json:"total_amount"`
	CourierCode    string             `json:"courier_code"`
	ServiceCode    string             `json:"service_code"`
	Courier        *string            `json:"courier,omitempty"`
	TrackingNumber *string            `json:"tracking_number,omitempty"`
	Items          []orderItemPayload `json:"items,omitempty"`
	Tracking       *trackingPayload   `json:"tracking,omitempty"`
}

type trackingPayload struct {
	Status string                  `json:"status"`
	Events []courier.TrackingEvent `json:"events"`
}

// toOrderPayload maps an order for the storefront. Status labels and the
// reachable next statuses come from the same lifecycle table the
// validator uses, so screens can't drift from the machine.
func toOrderPayload(o *order.Order, tracking *courier.TrackingInfo) orderPayload {
	next := order.NextStatuses(o.Status)
	nextOut := make([]string, 0, len(next))
	for _, s := range next {
		nextOut = append(nextOut, string(s))
	}

	items := make([]orderItemPayload, 0, len(o.Items))
	for _, item := range o.Items {
		items = append(items, orderItemPayload{
			VariantID:   item.VariantID,
			VariantName: item.VariantName,
			ProductName: item.ProductName,
			Quantity:    item.Quantity,
			Price:       item.Price,
			Subtotal:    item.Subtotal,
		})
	}

	payload := orderPayload{
		ID:             o.ID,
		ExternalID:     o.ExternalID.String(),
		Status:         string(o.Status),
		StatusLabel:    order.MetaFor(o.Status).Label,
		NextStatuses:   nextOut,
		PaymentStatus:  string(o.PaymentStatus),
		Currency:       o.Currency,
		Subtotal:       o.Subtotal,
		Tax:            o.Tax,
		ShippingCost:   o.ShippingCost,
		TotalAmount:    o.TotalAmount,
		CourierCode:    o.CourierCode,
		ServiceCode:    o.ServiceCode,
		Courier:        o.Courier,
		TrackingNumber: o.TrackingNumber,
		Items:          items,
	}
	if tracking != nil {
		payload.Tracking = &trackingPayload{Status: tracking.Status, Events: tracking.Events}
	}
	return payload
}

func (h *Handler) listOrders(w http.ResponseWriter, r *http.Request) {
	var filter order.ListFilter

	if !utils.IsAdmin(r.Context()) {
		userID, ok := utils.GetUserIDFromContext(r.Context())
		if !ok {
			writeJSON(w, http.StatusUnauthorized, errorResponse{Error: "authentication required"})
			return
		}
		filter.UserID = &userID
	}

	if raw := r.URL.Query().Get("status"); raw != "" {
		status := order.Status(raw)
		if !order.IsValidStatus(status) {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: "unknown status filter"})
			return
		}
		filter.Status = &status
	}

	limit := int32(20)
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			limit = int32(n)
		}
	}
	offset := int32(0)
	if raw := r.URL.Query().Get("offset"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n >= 0 {
			offset = int32(n)
		}
	}

	orders, err := h.orders.ListOrders(r.Context(), filter, limit, offset)
	if err != nil {
		writeError(w, err)
		return
	}

	payload := make([]orderPayload, 0, len(orders))
	for _, o := range orders {
		payload = append(payload, toOrderPayload(o, nil))
	}
	writeJSON(w, http.StatusOK, map[string]any{"orders": payload})
}

func (h *Handler) getOrder(w http.ResponseWriter, r *http.Request) {
	orderID, err := strconv.ParseUint(chi.URLParam(r, "orderID"), 10, 32)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid order id"})
		return
	}

	userID, _ := utils.GetUserIDFromContext(r.Context())
	o, err := h.orders.GetOrderDetail(r.Context(), userID, uint(orderID), utils.IsAdmin(r.Context()))
	if err != nil {
		writeError(w, err)
		return
	}

	// An unpaid order may have settled since the last webhook; ask the
	// payment collaborator so the detail view gates on its state, not a
	// stale row. Display only, the webhook path owns the write.
	if h.payments != nil && o.PaymentStatus == order.PaymentUnpaid {
		status, err := h.payments.GetPaymentStatus(r.Context(), o.ExternalID.String())
		switch {
		case err == nil:
			o.PaymentStatus = status
		case !errors.Is(err, payment.ErrPaymentNotFound):
			logger.FromCtx(r.Context()).Warn("payment status lookup failed",
				zap.String("order_ref", o.ExternalID.String()),
				zap.Error(err),
			)
		}
	}

	// Tracking is read-only decoration; a carrier hiccup must not break
	// the order detail view.
	var tracking *courier.TrackingInfo
	if o.TrackingNumber != nil && o.Courier != nil {
		tracking, err = h.courier.TrackShipment(r.Context(), *o.TrackingNumber, *o.Courier)
		if err != nil {
			logger.FromCtx(r.Context()).Warn("tracking lookup failed",
				zap.String("tracking_number", *o.TrackingNumber),
				zap.Error(err),
			)
			tracking = nil
		}
	}

	writeJSON(w, http.StatusOK, toOrderPayload(o, tracking))
}

func (h *Handler) updateStatus(w http.ResponseWriter, r *http.Request) {
	orderID, err := strconv.ParseUint(chi.URLParam(r, "orderID"), 10, 32)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid order id"})
		return
	}

	var body struct {
		Status string `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}

	target := order.Status(body.Status)
	if !order.IsValidStatus(target) {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "unknown status"})
		return
	}

	o, err := h.orders.Transition(r.Context(), uint(orderID), target)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toOrderPayload(o, nil))
}
