package contracts

import (
	"errors"
	"fmt"
)

// Provider outcome taxonomy. Adapters return these (wrapped) instead of being
// probed for optional capabilities; the resolvers absorb all of them into the
// next fallback attempt.
var (
	// ErrDisabled means the feature or credentials are not configured.
	// Expected, not a failure.
	ErrDisabled = errors.New("provider disabled")

	// ErrUnavailable means the provider was reachable but returned nothing
	// usable, or the request failed.
	ErrUnavailable = errors.New("provider unavailable")

	// ErrInvalid means the provider response was malformed or unparseable.
	ErrInvalid = errors.New("invalid provider response")
)

// Disabledf wraps ErrDisabled with a provider-specific message.
func Disabledf(format string, args ...interface{}) error {
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), ErrDisabled)
}

// Unavailablef wraps ErrUnavailable with a provider-specific message.
func Unavailablef(format string, args ...interface{}) error {
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), ErrUnavailable)
}

// Invalidf wraps ErrInvalid with a provider-specific message.
func Invalidf(format string, args ...interface{}) error {
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), ErrInvalid)
}

// IsDisabled reports whether err is (or wraps) ErrDisabled.
func IsDisabled(err error) bool {
	return errors.Is(err, ErrDisabled)
}
