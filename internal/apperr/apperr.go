// Package apperr defines the error kinds shared by the store, the HTTP layer
// and the client. A kind survives the wire so the client can rebuild it.
package apperr

import (
	"errors"
	"fmt"
)

type Kind string

const (
	KindValidation      Kind = "validation"
	KindUnauthenticated Kind = "unauthenticated"
	KindForbidden       Kind = "forbidden"
	KindNotFound        Kind = "not_found"
	KindTransport       Kind = "transport"
	KindInternal        Kind = "internal"
)

type Error struct {
	Kind    Kind   `json:"kind"`
	Message string `json:"message"`
	Field   string `json:"field,omitempty"`
}

func (e *Error) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("%s: %s: %s", e.Kind, e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func New(kind Kind, msg string) *Error {
	return &Error{Kind: kind, Message: msg}
}

func Validation(msg string) *Error {
	return New(KindValidation, msg)
}

func ValidationField(field, msg string) *Error {
	return &Error{Kind: KindValidation, Field: field, Message: msg}
}

func Unauthenticated(msg string) *Error {
	return New(KindUnauthenticated, msg)
}

func Forbidden(msg string) *Error {
	return New(KindForbidden, msg)
}

func NotFound(msg string) *Error {
	return New(KindNotFound, msg)
}

func Transport(msg string) *Error {
	return New(KindTransport, msg)
}

func Internal(msg string) *Error {
	return New(KindInternal, msg)
}

// As returns the first *Error in err's chain.
func As(err error) (*Error, bool) {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// KindOf reports the kind of err. Errors without a kind are internal.
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	if appErr, ok := As(err); ok {
		return appErr.Kind
	}
	return KindInternal
}

func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

// IsAuthorization covers both an anonymous caller and a caller without the
// required role.
func IsAuthorization(err error) bool {
	kind := KindOf(err)
	return kind == KindUnauthenticated || kind == KindForbidden
}
