package dca

import (
	"errors"
	"fmt"
)

// NoDataError signals "nothing to compute": the price index came back empty
// or no schedule point landed on an available price. It is the terminal
// condition for the current request, distinct from a numeric fault.
type NoDataError struct {
	Symbol string
	Reason string
}

func (e *NoDataError) Error() string {
	return fmt.Sprintf("no data for %s: %s", e.Symbol, e.Reason)
}

// PriceUnavailableError wraps a failed current-price lookup.
type PriceUnavailableError struct {
	Symbol string
	Err    error
}

func (e *PriceUnavailableError) Error() string {
	return fmt.Sprintf("current price unavailable for %s: %v", e.Symbol, e.Err)
}

func (e *PriceUnavailableError) Unwrap() error { return e.Err }

// InvalidParameterError reports a malformed request, detected before any
// network I/O.
type InvalidParameterError struct {
	Field  string
	Reason string
}

func (e *InvalidParameterError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

func IsNoData(err error) bool {
	var target *NoDataError
	return errors.As(err, &target)
}

func IsPriceUnavailable(err error) bool {
	var target *PriceUnavailableError
	return errors.As(err, &target)
}

func IsInvalidParameter(err error) bool {
	var target *InvalidParameterError
	return errors.As(err, &target)
}
