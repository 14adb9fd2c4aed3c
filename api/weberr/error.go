package weberr

import (
	"errors"
	"net/http"

	"github.com/irsalhamdi/e-commerce-store/storeerr"
)

type ErrorResponse struct {
	Error     string                 `json:"error"`
	Kind      string                 `json:"kind,omitempty"`
	Retryable bool                   `json:"retryable,omitempty"`
	Details   map[string]interface{} `json:"details,omitempty"`
}

type RequestError struct {
	Err error
}

func (r *RequestError) Error() string { return r.Err.Error() }

func (e *RequestError) Unwrap() error { return e.Err }

func NewError(err error, msg string, status int, opts ...Opt) error {
	e := &RequestError{Err: err}
	opts = append(opts, WithResponse(
		&ErrorResponse{Error: msg},
		status,
	))

	return Wrap(e, opts...)
}

func NotFound(err error, opts ...Opt) error {
	return NewError(
		err,
		"the resource could not be found",
		http.StatusNotFound,
		opts...,
	)
}

func NotAuthorized(err error, opts ...Opt) error {
	return NewError(
		err,
		"not authorized to access resource",
		http.StatusUnauthorized,
		opts...,
	)
}

func InternalError(err error, opts ...Opt) error {
	return NewError(
		err,
		"the server encountered a problem and could not process your request",
		http.StatusInternalServerError,
		opts...,
	)
}

func BadRequest(err error, opts ...Opt) error {
	return NewError(
		err,
		"bad request",
		http.StatusBadRequest,
		opts...,
	)
}

var kindStatus = map[storeerr.Kind]int{
	storeerr.InvalidArgument:   http.StatusBadRequest,
	storeerr.NotFound:          http.StatusNotFound,
	storeerr.NoCart:            http.StatusNotFound,
	storeerr.OutOfStock:        http.StatusNotFound,
	storeerr.AlreadyExists:     http.StatusConflict,
	storeerr.InsufficientStock: http.StatusUnprocessableEntity,
	storeerr.InsufficientFunds: http.StatusUnprocessableEntity,
	storeerr.Conflict:          http.StatusConflict,
}

// Store turns a store failure into the response its kind calls for. Errors
// without a kind are returned untouched and end up as internal errors.
func Store(err error) error {
	kind := storeerr.KindOf(err)
	status, ok := kindStatus[kind]
	if !ok {
		return err
	}

	var details map[string]interface{}
	if f, ok := Fields(err); ok {
		details = make(map[string]interface{}, len(f))
		for k, v := range f {
			if k != "kind" {
				details[k] = v
			}
		}
		if len(details) == 0 {
			details = nil
		}
	}

	body := &ErrorResponse{
		Error:     message(err),
		Kind:      kind.String(),
		Retryable: kind.Retryable(),
		Details:   details,
	}

	return Wrap(&RequestError{Err: err}, WithResponse(body, status))
}

// message is the text of the outermost kinded error, without the call
// path prefixes added on the way up.
func message(err error) string {
	var se *storeerr.Error
	if errors.As(err, &se) {
		return se.Msg
	}
	return err.Error()
}
