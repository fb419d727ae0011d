package payment

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"io"
	"net/http"
)

var ErrInvalidSignature = errors.New("invalid webhook signature")

// WebhookEvent is the gateway's payment notification after signature
// verification.
type WebhookEvent struct {
	EventID  string `json:"event_id"`
	OrderRef string `json:"order_ref"`
	Status   string `json:"status"`
}

// VerifyAndParse checks the HMAC signature header against the raw body and
// decodes the event. The body is read fully; callers must not have
// consumed it.
func VerifyAndParse(r *http.Request, secret string) (*WebhookEvent, error) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		return nil, err
	}

	signature := r.Header.Get("X-Callback-Signature")
	if !validSignature(body, signature, secret) {
		return nil, ErrInvalidSignature
	}

	var event WebhookEvent
	if err := json.Unmarshal(body, &event); err != nil {
		return nil, err
	}
	if event.OrderRef == "" {
		return nil, errors.New("webhook missing order_ref")
	}
	return &event, nil
}

func validSignature(body []byte, signature, secret string) bool {
	if signature == "" || secret == "" {
		return false
	}
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	expected := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(signature))
}
