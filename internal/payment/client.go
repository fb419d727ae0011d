package payment

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"gerai-be/internal/order"
)

var (
	ErrPaymentNotFound    = errors.New("payment not found")
	ErrGatewayUnavailable = errors.New("payment gateway unavailable")
)

// StatusClient reads payment state from the payment collaborator. This
// core never writes payment status through it; the collaborator advances
// the axis on its own and notifies via webhook.
type StatusClient interface {
	GetPaymentStatus(ctx context.Context, orderRef string) (order.PaymentStatus, error)
}

type statusClient struct {
	baseURL string
	apiKey  string
	http    *http.Client
}

func NewStatusClient(baseURL, apiKey string) StatusClient {
	return &statusClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		http:    &http.Client{Timeout: 10 * time.Second},
	}
}

func (c *statusClient) GetPaymentStatus(ctx context.Context, orderRef string) (order.PaymentStatus, error) {
	url := fmt.Sprintf("%s/payments/%s/status", c.baseURL, orderRef)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrGatewayUnavailable, err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusNotFound:
		return "", ErrPaymentNotFound
	default:
		return "", fmt.Errorf("%w: status %d", ErrGatewayUnavailable, resp.StatusCode)
	}

	var body struct {
		Status string `json:"status"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", fmt.Errorf("%w: decode: %v", ErrGatewayUnavailable, err)
	}

	return mapGatewayStatus(body.Status)
}

// mapGatewayStatus folds the gateway's vocabulary onto the order payment
// axis.
func mapGatewayStatus(raw string) (order.PaymentStatus, error) {
	switch strings.ToUpper(strings.TrimSpace(raw)) {
	case "PAID", "SETTLED", "CAPTURED", "COMPLETED":
		return order.PaymentPaid, nil
	case "PENDING", "UNPAID", "AWAITING_PAYMENT":
		return order.PaymentUnpaid, nil
	case "FAILED", "EXPIRED", "DENIED":
		return order.PaymentFailed, nil
	case "REFUNDED", "REVERSED":
		return order.PaymentRefunded, nil
	default:
		return "", fmt.Errorf("unknown payment status %q", raw)
	}
}
