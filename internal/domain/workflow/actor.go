package workflow

import (
	"strings"

	"apa-backoffice/internal/domain/errs"
)

// Role es el rol guardado en el perfil del usuario (no lo emite el proveedor de auth).
type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// Actor es quien ejecuta una operación. UserID vacío = anónimo.
type Actor struct {
	UserID string
	Email  string
	Role   Role
}

func (a Actor) Authenticated() bool { return strings.TrimSpace(a.UserID) != "" }

func (a Actor) IsAdmin() bool { return a.Authenticated() && a.Role == RoleAdmin }

// RequireAuthenticated falla con ErrUnauthorized para actores anónimos.
func RequireAuthenticated(a Actor) error {
	if !a.Authenticated() {
		return errs.ErrUnauthorized
	}
	return nil
}

// RequireAdmin es el chequeo de política que cada servicio aplica antes de escribir.
func RequireAdmin(a Actor) error {
	if !a.Authenticated() {
		return errs.ErrUnauthorized
	}
	if a.Role != RoleAdmin {
		return errs.ErrUnauthorized
	}
	return nil
}
