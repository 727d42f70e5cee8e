// Package apperr defines the error kinds surfaced by the portal's services and
// maps them to HTTP responses.
package apperr

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/landrecords/demarcation-backend/internal/logger"
)

type Kind int

const (
	KindInternal Kind = iota
	KindValidation
	KindAuthorization
	KindNotFound
	KindConflict
	KindUnsupportedFormat
	KindNoData
)

type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

func Validation(msg string) error { return &Error{Kind: KindValidation, Message: msg} }
func Forbidden(msg string) error  { return &Error{Kind: KindAuthorization, Message: msg} }
func NotFound(msg string) error   { return &Error{Kind: KindNotFound, Message: msg} }
func Conflict(msg string) error   { return &Error{Kind: KindConflict, Message: msg} }
func NoData(msg string) error     { return &Error{Kind: KindNoData, Message: msg} }

func UnsupportedFormat(format string) error {
	return &Error{Kind: KindUnsupportedFormat, Message: fmt.Sprintf("unsupported format %q", format)}
}

func Internal(err error) error {
	return &Error{Kind: KindInternal, Message: "internal error", Err: err}
}

// KindOf reports the kind of err. Errors not created by this package are Internal.
func KindOf(err error) Kind {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return KindInternal
}

// Is reports whether err carries the given kind.
func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

func StatusCode(kind Kind) int {
	switch kind {
	case KindValidation, KindUnsupportedFormat:
		return http.StatusBadRequest
	case KindAuthorization:
		return http.StatusForbidden
	case KindNotFound, KindNoData:
		return http.StatusNotFound
	case KindConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// Write sends err as a JSON error body. Internal errors are logged and replaced
// with a generic message.
func Write(w http.ResponseWriter, log *logger.Logger, err error) {
	kind := KindOf(err)
	msg := "Internal server error"
	if kind != KindInternal {
		var appErr *Error
		errors.As(err, &appErr)
		msg = appErr.Message
	} else if log != nil {
		log.Error("request failed", "error", err)
	}
	WriteJSON(w, StatusCode(kind), map[string]string{"error": msg})
}

func WriteJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
