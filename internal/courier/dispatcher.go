package courier

import (
	"context"

	"gerai-be/internal/order"
)

// Dispatcher adapts the carrier client to the order state machine's
// waybill hook. It is the only side effect the PACKED -> SHIPPED
// transition performs.
type Dispatcher struct {
	client *Client
}

func NewDispatcher(client *Client) *Dispatcher {
	return &Dispatcher{client: client}
}

func (d *Dispatcher) CreateWaybill(ctx context.Context, o *order.Order) (*order.Waybill, error) {
	req := WaybillRequest{
		OrderRef:    o.ExternalID.String(),
		CourierCode: o.CourierCode,
		ServiceCode: o.ServiceCode,
		Name:        o.Address.Name,
		Phone:       o.Address.Phone,
		Line1:       o.Address.Line1,
		City:        o.Address.City,
		Province:    o.Address.Province,
		Postal:      o.Address.Postal,
		Country:     o.Address.Country,
	}
	if o.Address.Line2 != nil {
		req.Line2 = *o.Address.Line2
	}

	wb, err := d.client.CreateWaybill(ctx, req)
	if err != nil {
		return nil, err
	}
	return &order.Waybill{Courier: wb.Courier, TrackingNumber: wb.TrackingNumber}, nil
}
