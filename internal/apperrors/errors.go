package apperrors

import (
	"errors"
	"fmt"
	"strings"
)

type Kind string

const (
	// KindConfig aborts a run before any segment is processed.
	KindConfig Kind = "config"
	// KindParse marks a resource file (TM, tracked changes, figures) that could not be read.
	KindParse Kind = "parse"

	KindTransient  Kind = "transient"
	KindRateLimit  Kind = "rate_limit"
	KindAuth       Kind = "auth"
	KindBadRequest Kind = "bad_request"
	KindValidation Kind = "validation"
)

type Error struct {
	Kind Kind
	// SafeMessage is intended for user-facing output, logs and placeholders.
	SafeMessage string
	// Cause keeps the original internal error for troubleshooting.
	Cause error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if msg := strings.TrimSpace(e.SafeMessage); msg != "" {
		return msg
	}
	if e.Cause != nil {
		return e.Cause.Error()
	}
	return "unknown error"
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

func defaultSafeMessage(kind Kind) string {
	switch kind {
	case KindConfig:
		return "Invalid configuration."
	case KindParse:
		return "Input file could not be parsed."
	case KindTransient:
		return "Temporary upstream error."
	case KindRateLimit:
		return "Rate limit exceeded."
	case KindAuth:
		return "Authentication failed. Please verify your API key and permissions."
	case KindBadRequest:
		return "Request rejected by upstream API."
	case KindValidation:
		return "Response validation failed."
	default:
		return "Request failed."
	}
}

func New(kind Kind, safeMessage string, cause error) error {
	msg := strings.TrimSpace(safeMessage)
	if msg == "" {
		msg = defaultSafeMessage(kind)
	}
	return &Error{
		Kind:        kind,
		SafeMessage: msg,
		Cause:       cause,
	}
}

// Configf builds a configuration error whose message is shown verbatim.
func Configf(format string, args ...any) error {
	msg := fmt.Sprintf(format, args...)
	return New(KindConfig, msg, errors.New(msg))
}

func Parse(path string, cause error) error {
	return New(KindParse, fmt.Sprintf("failed to parse %s", path), cause)
}

func Transient(err error) error {
	return New(KindTransient, "", err)
}

func RateLimit(err error) error {
	return New(KindRateLimit, "", err)
}

func Auth(err error) error {
	return New(KindAuth, "", err)
}

func Validation(err error) error {
	return New(KindValidation, "", err)
}

func BadRequest(err error) error {
	return New(KindBadRequest, "", err)
}

func KindOf(err error) (Kind, bool) {
	var e *Error
	if !errors.As(err, &e) {
		return "", false
	}
	return e.Kind, true
}

// Is reports whether err carries the given kind anywhere in its chain.
func Is(err error, kind Kind) bool {
	k, ok := KindOf(err)
	return ok && k == kind
}

func PublicMessage(err error) string {
	if err == nil {
		return ""
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Error()
	}
	return err.Error()
}

// IsProviderFailure reports whether err came from a model call rather than local setup.
func IsProviderFailure(err error) bool {
	k, ok := KindOf(err)
	if !ok {
		return false
	}
	switch k {
	case KindTransient, KindRateLimit, KindAuth, KindBadRequest, KindValidation:
		return true
	}
	return false
}
