package transport

import (
	"encoding/json"
	"net/http"

	"gerai-be/internal/checkout"
	"gerai-be/internal/order"
	"gerai-be/internal/shipping"
	"gerai-be/internal/utils"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

type itemPayload struct {
	VariantID   string `json:"variant_id"`
	VariantName string `json:"variant_name"`
	ProductName string `json:"product_name"`
	Price       int    `json:"price"`
	Quantity    int    `json:"quantity"`
	WeightGrams int    `json:"weight_grams"`
}

type addressPayload struct {
	Name     string  `json:"name"`
	Phone    string  `json:"phone"`
	Line1    string  `json:"line1"`
	Line2    *string `json:"line2,omitempty"`
	City     string  `json:"city"`
	Province string  `json:"province"`
	Postal   string  `json:"postal_code"`
	Country  string  `json:"country_code"`
}

type quotePayload struct {
	CourierCode string `json:"courier_code"`
	CourierName string `json:"courier_name"`
	ServiceCode string `json:"service_code"`
	ServiceType string `json:"service_type"`
	Price       int    `json:"price"`
	Currency    string `json:"currency"`
	MinDays     int    `json:"min_days"`
	MaxDays     int    `json:"max_days"`
	Provider    string `json:"provider"`
}

func toQuotePayload(q shipping.Quote) quotePayload {
	return quotePayload{
		CourierCode: q.CourierCode,
		CourierName: q.CourierName,
		ServiceCode: q.ServiceCode,
		ServiceType: string(q.ServiceType),
		Price:       q.Price,
		Currency:    q.Currency,
		MinDays:     q.ETA.MinDays,
		MaxDays:     q.ETA.MaxDays,
		Provider:    q.Provider,
	}
}

func toItems(payloads []itemPayload) []checkout.Item {
	items := make([]checkout.Item, 0, len(payloads))
	for _, p := range payloads {
		items = append(items, checkout.Item{
			VariantID:   p.VariantID,
			VariantName: p.VariantName,
			ProductName: p.ProductName,
			Price:       p.Price,
			Quantity:    p.Quantity,
			WeightGrams: p.WeightGrams,
		})
	}
	return items
}

func userIDFrom(r *http.Request) *uint {
	if id, ok := utils.GetUserIDFromContext(r.Context()); ok {
		return &id
	}
	return nil
}

func sessionIDFrom(r *http.Request) (uuid.UUID, error) {
	return uuid.Parse(chi.URLParam(r, "sessionID"))
}

func (h *Handler) createSession(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Currency string        `json:"currency"`
		Items    []itemPayload `json:"items"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}

	session, err := h.checkouts.CreateSession(r.Context(), checkout.CreateSessionInput{
		UserID:   userIDFrom(r),
		Currency: body.Currency,
		Items:    toItems(body.Items),
	})
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"id":         session.ID.String(),
		"status":     string(session.Status),
		"subtotal":   session.Subtotal(),
		"expires_at": session.ExpiresAt,
	})
}

func (h *Handler) getSession(w http.ResponseWriter, r *http.Request) {
	sessionID, err := sessionIDFrom(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid session id"})
		return
	}

	session, err := h.checkouts.GetSession(r.Context(), sessionID, userIDFrom(r))
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"id":         session.ID.String(),
		"status":     string(session.Status),
		"subtotal":   session.Subtotal(),
		"expires_at": session.ExpiresAt,
	})
}

func (h *Handler) setDestination(w http.ResponseWriter, r *http.Request) {
	sessionID, err := sessionIDFrom(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid session id"})
		return
	}

	var body addressPayload
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}

	addr := order.Address{
		Name:     body.Name,
		Phone:    body.Phone,
		Line1:    body.Line1,
		Line2:    body.Line2,
		City:     body.City,
		Province: body.Province,
		Postal:   body.Postal,
		Country:  body.Country,
	}

	if err := h.checkouts.SetDestination(r.Context(), sessionID, userIDFrom(r), addr); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) setItems(w http.ResponseWriter, r *http.Request) {
	sessionID, err := sessionIDFrom(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid session id"})
		return
	}

	var body struct {
		Items []itemPayload `json:"items"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}

	if err := h.checkouts.SetItems(r.Context(), sessionID, userIDFrom(r), toItems(body.Items)); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) getRates(w http.ResponseWriter, r *http.Request) {
	sessionID, err := sessionIDFrom(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid session id"})
		return
	}

	quotes, selected, err := h.checkouts.Rates(r.Context(), sessionID, userIDFrom(r))
	if err != nil {
		writeError(w, err)
		return
	}

	payload := make([]quotePayload, 0, len(quotes))
	for _, q := range quotes {
		payload = append(payload, toQuotePayload(q))
	}

	resp := map[string]any{"quotes": payload}
	if selected != nil {
		resp["selected"] = toQuotePayload(*selected)
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) selectRate(w http.ResponseWriter, r *http.Request) {
	sessionID, err := sessionIDFrom(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid session id"})
		return
	}

	var body struct {
		CourierCode string `json:"courier_code"`
		ServiceCode string `json:"service_code"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}

	selected, err := h.checkouts.SelectRate(r.Context(), sessionID, userIDFrom(r), body.CourierCode, body.ServiceCode)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"selected": toQuotePayload(*selected)})
}

func (h *Handler) completeSession(w http.ResponseWriter, r *http.Request) {
	sessionID, err := sessionIDFrom(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid session id"})
		return
	}

	o, err := h.checkouts.Complete(r.Context(), sessionID, userIDFrom(r))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toOrderPayload(o, nil))
}
