package transport

import (
	"net/http"

	"gerai-be/internal/checkout"
	"gerai-be/internal/courier"
	"gerai-be/internal/middleware"
	"gerai-be/internal/order"
	"gerai-be/internal/payment"

	"github.com/go-chi/chi/v5"
)

// Handler wires the REST surface over the checkout manager and order
// service. Page rendering, auth issuance, and payment capture live in
// their own collaborators; this layer only speaks JSON.
type Handler struct {
	checkouts     *checkout.Manager
	orders        order.Service
	courier       *courier.Client
	payments      payment.StatusClient
	webhookSecret string
}

func NewHandler(checkouts *checkout.Manager, orders order.Service, courierClient *courier.Client, payments payment.StatusClient, webhookSecret string) *Handler {
	return &Handler{
		checkouts:     checkouts,
		orders:        orders,
		courier:       courierClient,
		payments:      payments,
		webhookSecret: webhookSecret,
	}
}

func (h *Handler) Routes() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.LoggingMiddleware)
	r.Use(middleware.CORS)
	r.Use(middleware.AuthMiddleware)
	r.Use(middleware.RateLimitMiddleware)

	r.Route("/checkout/sessions", func(r chi.Router) {
		r.Post("/", h.createSession)
		r.Route("/{sessionID}", func(r chi.Router) {
			r.Get("/", h.getSession)
			r.Put("/destination", h.setDestination)
			r.Put("/items", h.setItems)
			r.Get("/rates", h.getRates)
			r.Put("/rates/select", h.selectRate)
			r.Post("/complete", h.completeSession)
		})
	})

	r.Route("/orders", func(r chi.Router) {
		r.Get("/", h.listOrders)
		r.Get("/{orderID}", h.getOrder)
		r.With(middleware.RequireAdmin).Patch("/{orderID}/status", h.updateStatus)
	})

	r.Post("/webhook/payment", h.paymentWebhook)

	return r
}
