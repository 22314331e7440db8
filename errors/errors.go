// Package errors holds the error taxonomy shared by the repositories, the
// services and the HTTP layer. Every failure the API can report is an *Error
// of one Kind; the HTTP status for a Kind lives in a single table.
package errors

import (
	"net/http"

	pkgerrors "github.com/pkg/errors"
)

type Kind int

const (
	KindInternal Kind = iota
	KindValidation
	KindForbidden
	KindNotFound
	KindRateLimited
	KindStorage
	KindDatabase
	KindTooLarge
)

var kindNames = map[Kind]string{
	KindInternal:    "internal",
	KindValidation:  "validation",
	KindForbidden:   "forbidden",
	KindNotFound:    "not_found",
	KindRateLimited: "rate_limited",
	KindStorage:     "storage",
	KindDatabase:    "database",
	KindTooLarge:    "too_large",
}

var statusByKind = map[Kind]int{
	KindInternal:    http.StatusInternalServerError,
	KindValidation:  http.StatusBadRequest,
	KindForbidden:   http.StatusForbidden,
	KindNotFound:    http.StatusNotFound,
	KindRateLimited: http.StatusTooManyRequests,
	KindStorage:     http.StatusInternalServerError,
	KindDatabase:    http.StatusInternalServerError,
	KindTooLarge:    http.StatusRequestEntityTooLarge,
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return "unknown"
}

// Status returns the HTTP status code for the kind.
func (k Kind) Status() int {
	if status, ok := statusByKind[k]; ok {
		return status
	}
	return http.StatusInternalServerError
}

type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	switch {
	case e.Message != "" && e.Err != nil:
		return e.Message + ": " + e.Err.Error()
	case e.Err != nil:
		return e.Err.Error()
	default:
		return e.Message
	}
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is lets errors.Is match on two *Error values of the same kind and message,
// so sentinel values survive being rebuilt.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == t.Kind && e.Message == t.Message
}

func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

func Wrap(kind Kind, err error, message string) *Error {
	if err == nil {
		return nil
	}
	return &Error{Kind: kind, Message: message, Err: err}
}

func Validation(message string) *Error { return New(KindValidation, message) }

func Forbidden(message string) *Error { return New(KindForbidden, message) }

func NotFound(message string) *Error { return New(KindNotFound, message) }

func RateLimited(message string) *Error { return New(KindRateLimited, message) }

func Storage(err error, message string) *Error { return Wrap(KindStorage, err, message) }

func Database(err error, message string) *Error { return Wrap(KindDatabase, err, message) }

var (
	ErrMissingName       = Validation("Faltan datos")
	ErrTooManyFiles      = Validation("Solo se permiten máximo 2 fotos")
	ErrReportNotFound    = NotFound("Reporte no encontrado")
	ErrUnauthorized      = Forbidden("No autorizado")
	ErrCreateThrottled   = RateLimited("Has excedido el límite. Espera 20 minutos.")
	ErrQuotaExceeded     = RateLimited("Demasiadas solicitudes. Intenta más tarde.")
	ErrBodyTooLarge      = New(KindTooLarge, "La solicitud excede el tamaño máximo permitido")
	ErrInternalServerErr = New(KindInternal, "internal server error")
)

// KindOf returns the kind of the first *Error in err's chain, KindInternal
// when there is none.
func KindOf(err error) Kind {
	var e *Error
	if pkgerrors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// StatusCode maps err onto an HTTP status through the kind table.
func StatusCode(err error) int {
	return KindOf(err).Status()
}

// Is reports whether err carries the given kind.
func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}
