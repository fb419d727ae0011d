package shipping

import (
	"errors"
	"fmt"
)

var (
	// -- Validation & Input --
	ErrMissingPostalCode  = errors.New("postal code is required")
	ErrMissingCountryCode = errors.New("country code is required")
	ErrEmptyManifest      = errors.New("manifest must not be empty")

	// -- Resolution outcomes --
	// ErrNoQuotesAvailable is a business outcome, not a transport
	// failure: every routed provider failed or returned nothing usable.
	ErrNoQuotesAvailable = errors.New("no shipping quotes available for this destination")
	ErrNoSelection       = errors.New("no quote selected")

	// -- Provider failures (absorbed per provider) --
	ErrProviderTimeout     = errors.New("carrier provider timed out")
	ErrProviderUnavailable = errors.New("carrier provider unavailable")
)

// UnknownQuoteError reports a selection that is not part of the
// last-resolved quote set, usually stale client state.
type UnknownQuoteError struct {
	CourierCode string
	ServiceCode string
}

func (e *UnknownQuoteError) Error() string {
	return fmt.Sprintf("quote %s/%s is not in the resolved set", e.CourierCode, e.ServiceCode)
}

func IsUnknownQuote(err error) bool {
	var uqe *UnknownQuoteError
	return errors.As(err, &uqe)
}
