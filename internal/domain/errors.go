package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors for domain-level error discrimination.
// Services wrap these so handlers can map to HTTP status codes without leaking infrastructure details.
var (
	ErrNotFound     = errors.New("not found")
	ErrBadRequest   = errors.New("bad request")
	ErrUnauthorized = errors.New("unauthorized")
	ErrUpstream     = errors.New("upstream failure")
	ErrStore        = errors.New("store failure")
	ErrTemplate     = errors.New("template failure")
	ErrTransport    = errors.New("transport failure")
)

// LookupError reports an identity lookup that failed while enriching a view.
// It matches ErrUpstream as well as the underlying cause.
type LookupError struct {
	UserID string
	Err    error
}

func (e *LookupError) Error() string {
	return fmt.Sprintf("identity lookup for %q: %v", e.UserID, e.Err)
}

func (e *LookupError) Unwrap() []error { return []error{ErrUpstream, e.Err} }

// DeliveryError reports an email that could not be rendered or sent after its
// in-app notification record was already created.
type DeliveryError struct {
	NotificationID string
	Err            error
}

func (e *DeliveryError) Error() string {
	return fmt.Sprintf("notification %s recorded but email not delivered: %v", e.NotificationID, e.Err)
}

func (e *DeliveryError) Unwrap() error { return e.Err }

// StoreErr wraps a persistence failure with ErrStore. ErrNotFound and
// ErrBadRequest pass through unchanged so callers keep their meaning.
func StoreErr(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrNotFound) || errors.Is(err, ErrBadRequest) {
		return err
	}
	return fmt.Errorf("%s: %w: %w", op, ErrStore, err)
}
