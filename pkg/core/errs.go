package core

import (
	"errors"
	"fmt"
)

var (
	ErrTransientFetch  = errors.New("venue returned no data")
	ErrOrderRejected   = errors.New("order rejected by venue")
	ErrRemoteFailure   = errors.New("venue reported a failed leg")
	ErrConfiguration   = errors.New("invalid configuration")
	ErrPersistence     = errors.New("persistence failure")
	ErrSessionNotFound = errors.New("session not found")
	ErrInvalidSession  = errors.New("invalid session")
)

// OrderError carries the context of a rejected SmartTrade submission
type OrderError struct {
	Err        error
	Instrument string
	Side       Side
	Quantity   float64
}

func (e *OrderError) Error() string {
	return fmt.Sprintf("order error: %v, instrument: %s, side: %s, quantity: %f",
		e.Err, e.Instrument, e.Side, e.Quantity)
}

func (e *OrderError) Unwrap() error {
	return e.Err
}
