// Package pipeline classifies the failures a monitor or notifier can hit.
// Connection, Subscription and Registration errors end the pipeline they
// happen in; Query and Delivery errors are logged and the loop goes on.
package pipeline

import (
	"errors"
	"fmt"
)

type Kind int

const (
	KindConnection Kind = iota + 1
	KindSubscription
	KindQuery
	KindDelivery
	KindRegistration
)

func (k Kind) String() string {
	switch k {
	case KindConnection:
		return "connection"
	case KindSubscription:
		return "subscription"
	case KindQuery:
		return "query"
	case KindDelivery:
		return "delivery"
	case KindRegistration:
		return "registration"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Error is a classified pipeline failure.
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Kind, e.Op, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

func Connection(op string, err error) error   { return &Error{KindConnection, op, err} }
func Subscription(op string, err error) error { return &Error{KindSubscription, op, err} }
func Query(op string, err error) error        { return &Error{KindQuery, op, err} }
func Delivery(op string, err error) error     { return &Error{KindDelivery, op, err} }
func Registration(op string, err error) error { return &Error{KindRegistration, op, err} }

// KindOf returns the kind of the first *Error in err's chain, or 0.
func KindOf(err error) Kind {
	var pe *Error
	if errors.As(err, &pe) {
		return pe.Kind
	}
	return 0
}

// IsFatal reports whether err ends the pipeline.
func IsFatal(err error) bool {
	switch KindOf(err) {
	case KindConnection, KindSubscription, KindRegistration:
		return true
	}
	return false
}
