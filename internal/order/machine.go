package order

import (
	"context"
	"fmt"
	"time"
)

// transitions is the single source of truth for the order lifecycle. Both
// Transition validation and the display metadata below consult this table,
// so the admin screens can never drift from what the validator accepts.
var transitions = map[Status][]Status{
	StatusUnpaid:    {StatusPacked, StatusCancelled},
	StatusPacked:    {StatusShipped, StatusCancelled},
	StatusShipped:   {StatusReceived},
	StatusReceived:  {},
	StatusCancelled: {},
}

// StatusMeta drives labels and admin action buttons per status.
type StatusMeta struct {
	Label string
	// ActionLabel names the admin action that moves an order *into*
	// this status, e.g. "Create Waybill" for SHIPPED.
	ActionLabel string
}

var statusMeta = map[Status]StatusMeta{
	StatusUnpaid:    {Label: "Awaiting Payment"},
	StatusPacked:    {Label: "Packed", ActionLabel: "Mark Packed"},
	StatusShipped:   {Label: "Shipped", ActionLabel: "Create Waybill"},
	StatusReceived:  {Label: "Received", ActionLabel: "Mark Received"},
	StatusCancelled: {Label: "Cancelled", ActionLabel: "Cancel Order"},
}

func MetaFor(s Status) StatusMeta {
	return statusMeta[s]
}

func IsValidStatus(s Status) bool {
	_, ok := transitions[s]
	return ok
}

func IsTerminal(s Status) bool {
	return len(transitions[s]) == 0
}

func CanTransition(from, to Status) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// NextStatuses returns the statuses reachable from s, in table order.
func NextStatuses(s Status) []Status {
	next := transitions[s]
	out := make([]Status, len(next))
	copy(out, next)
	return out
}

// WaybillCreator is the courier collaborator invoked on PACKED -> SHIPPED.
type WaybillCreator interface {
	CreateWaybill(ctx context.Context, o *Order) (*Waybill, error)
}

// Policy is an optional extra guard evaluated after table validation.
// Policies are how presentation-level rules (e.g. requiring payment before
// dispatch) opt in without being baked into the lifecycle table.
type Policy func(o *Order, target Status) error

// RequirePaidBeforeShipment rejects dispatch of unpaid orders. Not
// installed by default; see DESIGN.md.
func RequirePaidBeforeShipment(o *Order, target Status) error {
	if target == StatusShipped && o.PaymentStatus != PaymentPaid {
		return ErrPaymentRequired
	}
	return nil
}

// Machine validates and applies status transitions on an in-memory order.
// Persistence is the caller's job; see service.Transition for the
// lock + compare-and-swap discipline around this.
type Machine struct {
	waybills WaybillCreator
	policies []Policy
}

func NewMachine(waybills WaybillCreator, policies ...Policy) *Machine {
	return &Machine{waybills: waybills, policies: policies}
}

// Transition moves o to target if the lifecycle table allows it.
//
// Requesting the current status is a no-op success so retried client calls
// stay harmless. PACKED -> SHIPPED runs the waybill side effect first and
// only mutates the order when the courier call succeeds; a failed side
// effect leaves o untouched and returns ErrExternalDependency.
func (m *Machine) Transition(ctx context.Context, o *Order, target Status) error {
	if target == o.Status {
		return nil
	}

	if !IsValidStatus(target) || !CanTransition(o.Status, target) {
		return &InvalidTransitionError{From: o.Status, To: target}
	}

	for _, policy := range m.policies {
		if err := policy(o, target); err != nil {
			return err
		}
	}

	if o.Status == StatusPacked && target == StatusShipped {
		if m.waybills == nil {
			return fmt.Errorf("%w: no waybill creator configured", ErrExternalDependency)
		}
		wb, err := m.waybills.CreateWaybill(ctx, o)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrExternalDependency, err)
		}
		o.Courier = &wb.Courier
		o.TrackingNumber = &wb.TrackingNumber
	}

	o.Status = target
	o.UpdatedAt = time.Now()
	return nil
}
