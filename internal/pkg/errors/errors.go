package errors

import "errors"

var (
	ErrNotFound      = errors.New("not found")
	ErrInvalid       = errors.New("invalid")
	ErrConflict      = errors.New("conflict")
	ErrTooMany       = errors.New("too many requests")
	ErrInternal      = errors.New("internal")
	ErrConfiguration = errors.New("configuration error")
	ErrUnavailable   = errors.New("service unavailable")
)

func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

func IsConfiguration(err error) bool {
	return errors.Is(err, ErrConfiguration)
}
