// Package apperr carries the error taxonomy shared by every handler:
// machine-readable codes, HTTP status mapping, and wrapped causes.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

type Kind int

const (
	KindValidation Kind = iota
	KindUnauthorized
	KindForbidden
	KindNotFound
	KindNotParticipant
	KindInvalidState
	KindStorage
)

type Error struct {
	Kind    Kind
	Code    string
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Code + ": " + e.Message + ": " + e.Err.Error()
	}
	return e.Code + ": " + e.Message
}

func (e *Error) Unwrap() error { return e.Err }

func Validation(field, reason string) *Error {
	return &Error{Kind: KindValidation, Code: "validation_error", Message: fmt.Sprintf("%s: %s", field, reason)}
}

func Unauthorized(msg string) *Error {
	return &Error{Kind: KindUnauthorized, Code: "unauthorized", Message: msg}
}

func Forbidden(msg string) *Error {
	return &Error{Kind: KindForbidden, Code: "forbidden", Message: msg}
}

func NotFound(what string) *Error {
	return &Error{Kind: KindNotFound, Code: "not_found", Message: what + " not found"}
}

func NotParticipant(login string) *Error {
	return &Error{Kind: KindNotParticipant, Code: "not_participant", Message: login + " is not a participant"}
}

func InvalidState(msg string) *Error {
	return &Error{Kind: KindInvalidState, Code: "invalid_state", Message: msg}
}

func Storage(op string, err error) *Error {
	return &Error{Kind: KindStorage, Code: "storage_error", Message: op + " failed", Err: err}
}

// PartialFanout reports the recipients a batched fan-out could not reach.
// It is a soft warning: the triggering action already succeeded.
type PartialFanout struct {
	Failed []string
}

func (e *PartialFanout) Error() string {
	return fmt.Sprintf("fanout failed for %d recipients: %s", len(e.Failed), strings.Join(e.Failed, ","))
}

// Status maps an error to its HTTP status code. Unknown errors are treated
// as storage/internal failures.
func Status(err error) int {
	var ae *Error
	if !errors.As(err, &ae) {
		return http.StatusInternalServerError
	}
	switch ae.Kind {
	case KindValidation, KindNotParticipant, KindInvalidState:
		return http.StatusBadRequest
	case KindUnauthorized:
		return http.StatusUnauthorized
	case KindForbidden:
		return http.StatusForbidden
	case KindNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// Code returns the stable machine-readable code for an error.
func Code(err error) string {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Code
	}
	return "internal_error"
}
