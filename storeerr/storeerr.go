// Package storeerr defines the kinds of failure the store reports to its
// callers, so they can tell a business rejection from a retryable
// concurrent-write collision.
package storeerr

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

type Kind int

const (
	Unknown Kind = iota
	InvalidArgument
	NotFound
	NoCart
	OutOfStock
	AlreadyExists
	InsufficientStock
	InsufficientFunds
	Conflict
)

var kindNames = map[Kind]string{
	Unknown:           "unknown",
	InvalidArgument:   "invalid_argument",
	NotFound:          "not_found",
	NoCart:            "no_cart",
	OutOfStock:        "out_of_stock",
	AlreadyExists:     "already_exists",
	InsufficientStock: "insufficient_stock",
	InsufficientFunds: "insufficient_funds",
	Conflict:          "conflict",
}

func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Retryable reports whether replaying the whole operation from fresh reads
// may succeed.
func (k Kind) Retryable() bool {
	return k == Conflict
}

type Error struct {
	Kind   Kind
	Msg    string
	Err    error
	fields map[string]interface{}
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Msg + ": " + e.Err.Error()
	}
	return e.Msg
}

func (e *Error) Unwrap() error { return e.Err }

// Fields returns the figures a business rejection carries, such as the
// available and the requested quantity.
func (e *Error) Fields() map[string]interface{} {
	f := map[string]interface{}{"kind": e.Kind.String()}
	for k, v := range e.fields {
		f[k] = v
	}
	return f
}

func New(kind Kind, msg string) error {
	return &Error{Kind: kind, Msg: msg}
}

func Newf(kind Kind, format string, args ...interface{}) error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

// Wrap attaches a kind to a lower level error.
func Wrap(kind Kind, err error, msg string) error {
	return &Error{Kind: kind, Msg: msg, Err: err}
}

func WithFields(err error, fields map[string]interface{}) error {
	var e *Error
	if errors.As(err, &e) {
		if e.fields == nil {
			e.fields = make(map[string]interface{}, len(fields))
		}
		for k, v := range fields {
			e.fields[k] = v
		}
	}
	return err
}

// KindOf returns the kind of the first *Error in err's chain, or Unknown.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return Unknown
}

func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

// Stock reports that the requested quantity of a product exceeds what is
// available.
func Stock(title string, available, requested int) error {
	err := Newf(InsufficientStock, "there are only %d items of type %s, but %d were requested", available, title, requested)
	return WithFields(err, map[string]interface{}{
		"available": available,
		"requested": requested,
	})
}

// Funds reports that a total exceeds the funds provided for it.
func Funds(total, funds decimal.Decimal) error {
	err := Newf(InsufficientFunds, "insufficient funds: total is %s but %s was provided", total.StringFixed(2), funds.StringFixed(2))
	return WithFields(err, map[string]interface{}{
		"total": total.StringFixed(2),
		"funds": funds.StringFixed(2),
	})
}
