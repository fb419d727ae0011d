package courier

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"
)

var (
	ErrWaybillFailed    = errors.New("failed to create waybill")
	ErrShipmentNotFound = errors.New("shipment not found")
	ErrTrackingRejected = errors.New("tracking request rejected")
)

// Waybill is the carrier-issued shipping document created on dispatch.
type Waybill struct {
	Courier        string `json:"courier"`
	TrackingNumber string `json:"tracking_number"`
}

type WaybillRequest struct {
	OrderRef    string `json:"order_ref"`
	CourierCode string `json:"courier_code"`
	ServiceCode string `json:"service_code"`
	Name        string `json:"recipient_name"`
	Phone       string `json:"recipient_phone"`
	Line1       string `json:"address_line1"`
	Line2       string `json:"address_line2,omitempty"`
	City        string `json:"city"`
	Province    string `json:"province"`
	Postal      string `json:"postal_code"`
	Country     string `json:"country_code"`
}

type TrackingEvent struct {
	Time     time.Time `json:"time"`
	Location string    `json:"location"`
	Message  string    `json:"message"`
}

type TrackingInfo struct {
	Status string          `json:"status"`
	Events []TrackingEvent `json:"events"`
}

// Client talks to the carrier gateway for waybill creation and shipment
// tracking.
type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
}

func NewClient(baseURL, apiKey string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		http:    &http.Client{Timeout: 15 * time.Second},
	}
}

func (c *Client) CreateWaybill(ctx context.Context, req WaybillRequest) (*Waybill, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/waybills", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrWaybillFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated && resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: status %d", ErrWaybillFailed, resp.StatusCode)
	}

	var wb Waybill
	if err := json.NewDecoder(resp.Body).Decode(&wb); err != nil {
		return nil, fmt.Errorf("%w: decode: %v", ErrWaybillFailed, err)
	}
	if wb.TrackingNumber == "" {
		return nil, fmt.Errorf("%w: empty tracking number", ErrWaybillFailed)
	}
	return &wb, nil
}

func (c *Client) TrackShipment(ctx context.Context, trackingNumber, courierCode string) (*TrackingInfo, error) {
	url := fmt.Sprintf("%s/trackings/%s?courier=%s", c.baseURL, trackingNumber, courierCode)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTrackingRejected, err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusNotFound:
		return nil, ErrShipmentNotFound
	default:
		return nil, fmt.Errorf("%w: status %d", ErrTrackingRejected, resp.StatusCode)
	}

	var info TrackingInfo
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return nil, fmt.Errorf("%w: decode: %v", ErrTrackingRejected, err)
	}
	return &info, nil
}
