package courier

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"gerai-be/internal/order"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClient_CreateWaybill(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		var received WaybillRequest
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, http.MethodPost, r.Method)
			assert.Equal(t, "/waybills", r.URL.Path)
			assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
			require.NoError(t, json.NewDecoder(r.Body).Decode(&received))

			w.WriteHeader(http.StatusCreated)
			_ = json.NewEncoder(w).Encode(Waybill{Courier: "jne", TrackingNumber: "JNE0042"})
		}))
		defer server.Close()

		client := NewClient(server.URL, "test-key")

		wb, err := client.CreateWaybill(context.Background(), WaybillRequest{
			OrderRef:    "ref-1",
			CourierCode: "jne",
			ServiceCode: "REG",
			Name:        "Budi",
			Postal:      "12190",
		})

		require.NoError(t, err)
		assert.Equal(t, "JNE0042", wb.TrackingNumber)
		assert.Equal(t, "jne", received.CourierCode)
		assert.Equal(t, "ref-1", received.OrderRef)
	})

	t.Run("GatewayError", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
		}))
		defer server.Close()

		client := NewClient(server.URL, "test-key")

		_, err := client.CreateWaybill(context.Background(), WaybillRequest{OrderRef: "ref-1"})
		assert.ErrorIs(t, err, ErrWaybillFailed)
	})

	t.Run("EmptyTrackingNumber", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_ = json.NewEncoder(w).Encode(Waybill{Courier: "jne"})
		}))
		defer server.Close()

		client := NewClient(server.URL, "test-key")

		_, err := client.CreateWaybill(context.Background(), WaybillRequest{OrderRef: "ref-1"})
		assert.ErrorIs(t, err, ErrWaybillFailed)
	})

	t.Run("Unreachable", func(t *testing.T) {
		client := NewClient("http://127.0.0.1:1", "test-key")

		_, err := client.CreateWaybill(context.Background(), WaybillRequest{OrderRef: "ref-1"})
		assert.ErrorIs(t, err, ErrWaybillFailed)
	})
}

func TestClient_TrackShipment(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/trackings/JNE0042", r.URL.Path)
			assert.Equal(t, "jne", r.URL.Query().Get("courier"))

			_ = json.NewEncoder(w).Encode(TrackingInfo{
				Status: "IN_TRANSIT",
				Events: []TrackingEvent{{Location: "Jakarta Hub", Message: "Departed"}},
			})
		}))
		defer server.Close()

		client := NewClient(server.URL, "test-key")

		info, err := client.TrackShipment(context.Background(), "JNE0042", "jne")

		require.NoError(t, err)
		assert.Equal(t, "IN_TRANSIT", info.Status)
		assert.Len(t, info.Events, 1)
	})

	t.Run("NotFound", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNotFound)
		}))
		defer server.Close()

		client := NewClient(server.URL, "test-key")

		_, err := client.TrackShipment(context.Background(), "NOPE", "jne")
		assert.ErrorIs(t, err, ErrShipmentNotFound)
	})

	t.Run("Rejected", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusTooManyRequests)
		}))
		defer server.Close()

		client := NewClient(server.URL, "test-key")

		_, err := client.TrackShipment(context.Background(), "JNE0042", "jne")
		assert.ErrorIs(t, err, ErrTrackingRejected)
	})
}

func TestDispatcher_CreateWaybill(t *testing.T) {
	line2 := "Blok C2"
	o := &order.Order{
		ExternalID:  uuid.New(),
		Status:      order.StatusPacked,
		CourierCode: "jne",
		ServiceCode: "REG",
		Address: order.Address{
			Name: "Budi", Phone: "0812", Line1: "Jl. Sudirman 1", Line2: &line2,
			City: "Jakarta Selatan", Province: "DKI Jakarta", Postal: "12190", Country: "ID",
		},
	}

	t.Run("MapsOrderOntoRequest", func(t *testing.T) {
		var received WaybillRequest
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			require.NoError(t, json.NewDecoder(r.Body).Decode(&received))
			w.WriteHeader(http.StatusCreated)
			_ = json.NewEncoder(w).Encode(Waybill{Courier: "jne", TrackingNumber: "JNE0042"})
		}))
		defer server.Close()

		dispatcher := NewDispatcher(NewClient(server.URL, "test-key"))

		wb, err := dispatcher.CreateWaybill(context.Background(), o)

		require.NoError(t, err)
		assert.Equal(t, "jne", wb.Courier)
		assert.Equal(t, "JNE0042", wb.TrackingNumber)
		assert.Equal(t, o.ExternalID.String(), received.OrderRef)
		assert.Equal(t, "REG", received.ServiceCode)
		assert.Equal(t, "Blok C2", received.Line2)
		assert.Equal(t, "12190", received.Postal)
	})

	t.Run("PropagatesFailure", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		}))
		defer server.Close()

		dispatcher := NewDispatcher(NewClient(server.URL, "test-key"))

		_, err := dispatcher.CreateWaybill(context.Background(), o)
		assert.ErrorIs(t, err, ErrWaybillFailed)
	})
}
