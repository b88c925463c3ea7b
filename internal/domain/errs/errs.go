// Package errs define la taxonomía de errores compartida por todos los módulos.
// Los handlers la traducen a códigos HTTP en platform/httpx.
package errs

import (
	"errors"
	"fmt"
)

var (
	ErrValidation        = errors.New("validation failed")
	ErrUnauthorized      = errors.New("unauthorized")
	ErrForbidden         = errors.New("forbidden")
	ErrIllegalTransition = errors.New("illegal transition")
	ErrNotFound          = errors.New("not found")
	ErrConflict          = errors.New("conflict")

	// ErrConfiguration: la consulta necesita algo que el store no tiene provisionado
	// (tabla, índice). No es lo mismo que "no hay datos".
	ErrConfiguration = errors.New("store configuration pending")

	// ErrTransient: store no disponible (red, timeout). Sin retry automático.
	ErrTransient = errors.New("store unavailable")
)

// ValidationError describe el campo que no cumple el esquema.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

// Invalid es un atajo para construir un ValidationError.
func Invalid(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}

// IllegalTransitionError indica que el destino no es alcanzable desde el estado actual.
type IllegalTransitionError struct {
	Machine string
	From    string
	To      string
}

func (e *IllegalTransitionError) Error() string {
	return fmt.Sprintf("%s: illegal transition %q -> %q", e.Machine, e.From, e.To)
}

func (e *IllegalTransitionError) Is(target error) bool { return target == ErrIllegalTransition }

// Kind devuelve un nombre estable para la categoría del error (útil en respuestas JSON).
func Kind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrValidation):
		return "validation"
	case errors.Is(err, ErrUnauthorized):
		return "unauthorized"
	case errors.Is(err, ErrForbidden):
		return "forbidden"
	case errors.Is(err, ErrIllegalTransition):
		return "illegal_transition"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrConflict):
		return "conflict"
	case errors.Is(err, ErrConfiguration):
		return "configuration"
	case errors.Is(err, ErrTransient):
		return "transient"
	default:
		return "internal"
	}
}
