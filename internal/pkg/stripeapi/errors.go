package stripeapi

import (
	"errors"

	stripe "github.com/stripe/stripe-go/v82"
)

// IsInvalidRequest reports whether err is a Stripe invalid-request error,
// for example a malformed or unknown identifier.
func IsInvalidRequest(err error) bool {
	var stripeErr *stripe.Error
	if errors.As(err, &stripeErr) {
		return stripeErr.Type == stripe.ErrorTypeInvalidRequest
	}
	return false
}

// IsNotFound reports whether err means the remote object does not exist.
func IsNotFound(err error) bool {
	var stripeErr *stripe.Error
	if errors.As(err, &stripeErr) {
		return stripeErr.HTTPStatusCode == 404 || stripeErr.Code == stripe.ErrorCodeResourceMissing
	}
	return false
}
