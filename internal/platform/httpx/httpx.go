// Package httpx junta los helpers de respuesta que antes estaban duplicados por módulo.
package httpx

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"apa-backoffice/internal/domain/errs"
	"apa-backoffice/internal/platform/logger"
)

const maxBody = 1 << 20

func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// ErrorBody es el cuerpo de toda respuesta de error.
type ErrorBody struct {
	Error string `json:"error"`
	Kind  string `json:"kind"`
	Field string `json:"field,omitempty"`
}

// StatusOf traduce la taxonomía de errs a un código HTTP.
func StatusOf(err error) int {
	switch {
	case errors.Is(err, errs.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, errs.ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, errs.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, errs.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, errs.ErrIllegalTransition), errors.Is(err, errs.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, errs.ErrConfiguration), errors.Is(err, errs.ErrTransient):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// WriteError responde {"error","kind"}. Los errores internos no exponen detalle.
func WriteError(w http.ResponseWriter, r *http.Request, err error) {
	status := StatusOf(err)
	body := ErrorBody{Error: err.Error(), Kind: errs.Kind(err)}

	var ve *errs.ValidationError
	if errors.As(err, &ve) {
		body.Field = ve.Field
	}

	if status == http.StatusInternalServerError {
		logger.FromContext(r.Context(), nil).Error("request failed", map[string]any{"err": err.Error()})
		body.Error = "internal error"
	}

	WriteJSON(w, status, body)
}

// DecodeJSON decodifica el body con límite de tamaño. Un body inválido es ErrValidation.
func DecodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBody))
	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return errs.Invalid("", "empty body")
		}
		return errs.Invalid("", "invalid json")
	}
	return nil
}
