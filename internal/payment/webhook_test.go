package payment

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sign(body []byte, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

func webhookRequest(body []byte, signature string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/webhook/payment", bytes.NewReader(body))
	if signature != "" {
		req.Header.Set("X-Callback-Signature", signature)
	}
	return req
}

func TestVerifyAndParse(t *testing.T) {
	secret := "whsec-test"
	body := []byte(`{"event_id":"evt-1","order_ref":"ref-1","status":"PAID"}`)

	t.Run("ValidSignature", func(t *testing.T) {
		event, err := VerifyAndParse(webhookRequest(body, sign(body, secret)), secret)

		require.NoError(t, err)
		assert.Equal(t, "evt-1", event.EventID)
		assert.Equal(t, "ref-1", event.OrderRef)
		assert.Equal(t, "PAID", event.Status)
	})

	t.Run("WrongSignature", func(t *testing.T) {
		_, err := VerifyAndParse(webhookRequest(body, "deadbeef"), secret)
		assert.ErrorIs(t, err, ErrInvalidSignature)
	})

	t.Run("SignedWithWrongSecret", func(t *testing.T) {
		_, err := VerifyAndParse(webhookRequest(body, sign(body, "other-secret")), secret)
		assert.ErrorIs(t, err, ErrInvalidSignature)
	})

	t.Run("MissingSignatureHeader", func(t *testing.T) {
		_, err := VerifyAndParse(webhookRequest(body, ""), secret)
		assert.ErrorIs(t, err, ErrInvalidSignature)
	})

	t.Run("EmptySecretNeverVerifies", func(t *testing.T) {
		_, err := VerifyAndParse(webhookRequest(body, sign(body, "")), "")
		assert.ErrorIs(t, err, ErrInvalidSignature)
	})

	t.Run("TamperedBody", func(t *testing.T) {
		tampered := []byte(`{"event_id":"evt-1","order_ref":"ref-2","status":"PAID"}`)
		_, err := VerifyAndParse(webhookRequest(tampered, sign(body, secret)), secret)
		assert.ErrorIs(t, err, ErrInvalidSignature)
	})

	t.Run("MissingOrderRef", func(t *testing.T) {
		noRef := []byte(`{"event_id":"evt-1","status":"PAID"}`)
		_, err := VerifyAndParse(webhookRequest(noRef, sign(noRef, secret)), secret)
		assert.Error(t, err)
	})
}
