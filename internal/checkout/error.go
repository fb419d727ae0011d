package checkout

import "errors"

var (
	ErrSessionNotFound    = errors.New("checkout session not found")
	ErrSessionExpired     = errors.New("checkout session expired")
	ErrSessionNotEditable = errors.New("checkout session is not editable")
	ErrForbidden          = errors.New("forbidden")

	ErrNoItems    = errors.New("checkout session has no items")
	ErrNoAddress  = errors.New("shipping address not set")
	ErrBadItem    = errors.New("item quantity and weight must be positive")
)
