package errors

import (
	"errors"
	"fmt"

	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var (
	ErrEmptyAuth    = errors.New("missing authorization")
	ErrEmptySubject = errors.New("missing subject")
	ErrTokenInvalid = errors.New("invalid token")
	ErrUserMismatch = errors.New("token subject does not match user")

	ErrValidation   = errors.New("validation failed")
	ErrCartNotFound = errors.New("cart not found")
	ErrCartExpired  = errors.New("cart expired")
)

// StoreError wraps a failure returned by the document store. The underlying
// error is passed through untouched.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("store %s failed with error=%s", e.Op, e.Err.Error())
}

func (e *StoreError) Unwrap() error {
	return e.Err
}

func NewStoreError(op string, err error) error {
	if err == nil {
		return nil
	}
	return &StoreError{Op: op, Err: err}
}

func IsStoreError(err error) bool {
	var storeErr *StoreError
	return errors.As(err, &storeErr)
}

func Validation(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

func HandleError(err error, span trace.Span) {
	if err == nil {
		return
	}
	span.AddEvent(err.Error())
	span.SetStatus(codes.Error, err.Error())
	span.RecordError(err)
}
