package order

import (
	"errors"
	"fmt"
)

var (
	ErrOrderNotFound   = errors.New("order not found")
	ErrUnauthorized    = errors.New("unauthorized")
	ErrEmptyOrder      = errors.New("order has no items")
	ErrInvalidQuantity = errors.New("item quantity must be at least one")

	// -- Transition failures --
	ErrExternalDependency = errors.New("external dependency failed")
	ErrPaymentRequired    = errors.New("payment not completed")
	ErrStatusConflict     = errors.New("order status changed concurrently")
)

// InvalidTransitionError reports an attempt to move an order along an edge
// that is not in the lifecycle table.
type InvalidTransitionError struct {
	From Status
	To   Status
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("invalid transition from %s to %s", e.From, e.To)
}

func IsInvalidTransition(err error) bool {
	var ite *InvalidTransitionError
	return errors.As(err, &ite)
}
