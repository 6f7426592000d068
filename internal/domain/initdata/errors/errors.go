package errors

import (
	"errors"
	"fmt"
)

// Сообщения совпадают с теми, что ждёт фронтенд mini-app.
var (
	ErrEmptyPayload     = errors.New("init data is empty")
	ErrMissingSecret    = errors.New("bot token is required")
	ErrMalformedPayload = errors.New("init data is malformed")
	ErrMissingHash      = errors.New("hash sign is missing")
	ErrInvalidAuthDate  = errors.New("parse auth_date to int64: auth_date is invalid")
	ErrMissingAuthDate  = errors.New("auth_date is missing")
	ErrExpired          = errors.New("init data is expired")
	ErrInvalidHash      = errors.New("hash sign is invalid")
)

func NewMalformed(err error) error {
	return fmt.Errorf("%w: %v", ErrMalformedPayload, err)
}

func IsEmptyPayload(err error) bool {
	return errors.Is(err, ErrEmptyPayload)
}

func IsMissingSecret(err error) bool {
	return errors.Is(err, ErrMissingSecret)
}

func IsMalformed(err error) bool {
	return errors.Is(err, ErrMalformedPayload)
}

// IsRejected reports whether err is a verification verdict against the
// payload itself, as opposed to bad input or server misconfiguration.
func IsRejected(err error) bool {
	return errors.Is(err, ErrMissingHash) ||
		errors.Is(err, ErrInvalidAuthDate) ||
		errors.Is(err, ErrMissingAuthDate) ||
		errors.Is(err, ErrExpired) ||
		errors.Is(err, ErrInvalidHash)
}

func IsExpired(err error) bool {
	return errors.Is(err, ErrExpired)
}

func IsInvalidHash(err error) bool {
	return errors.Is(err, ErrInvalidHash)
}

// Reason returns a stable snake_case label for err, used in metrics and logs.
func Reason(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrEmptyPayload):
		return "empty_payload"
	case errors.Is(err, ErrMissingSecret):
		return "missing_secret"
	case errors.Is(err, ErrMalformedPayload):
		return "malformed_payload"
	case errors.Is(err, ErrMissingHash):
		return "missing_hash"
	case errors.Is(err, ErrInvalidAuthDate):
		return "invalid_auth_date"
	case errors.Is(err, ErrMissingAuthDate):
		return "missing_auth_date"
	case errors.Is(err, ErrExpired):
		return "expired"
	case errors.Is(err, ErrInvalidHash):
		return "invalid_hash"
	default:
		return "internal"
	}
}
