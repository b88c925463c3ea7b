package middleware

import (
	"context"
	"errors"
	"net/http"

	"apa-backoffice/internal/domain/errs"
	"apa-backoffice/internal/domain/workflow"
	"apa-backoffice/internal/platform/httpx"
	"apa-backoffice/internal/platform/logger"
	"apa-backoffice/internal/ports/auth"
)

const actorKey ctxKey = "actor"

// ActorResolver convierte claims verificadas en un Actor con rol (identity.Service).
type ActorResolver interface {
	Resolve(ctx context.Context, claims auth.Claims) (workflow.Actor, error)
}

// Actor resuelve el rol del usuario autenticado una vez por request.
// Sin claims el request sigue como anónimo.
func Actor(res ActorResolver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, ok := GetClaims(r.Context())
			if !ok || claims.UserID == "" {
				next.ServeHTTP(w, r)
				return
			}

			a, err := res.Resolve(r.Context(), claims)
			if err != nil {
				if errors.Is(err, errs.ErrConfiguration) || errors.Is(err, errs.ErrTransient) {
					httpx.WriteError(w, r, err)
					return
				}
				logger.FromContext(r.Context(), nil).Warn("actor resolve failed", map[string]any{
					"user_id": claims.UserID,
					"err":     err.Error(),
				})
				next.ServeHTTP(w, r)
				return
			}

			ctx := context.WithValue(r.Context(), actorKey, a)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// ActorFrom devuelve el actor del request; el zero value es anónimo.
func ActorFrom(ctx context.Context) workflow.Actor {
	a, _ := ctx.Value(actorKey).(workflow.Actor)
	return a
}

// WithActor se usa en tests de handlers.
func WithActor(ctx context.Context, a workflow.Actor) context.Context {
	return context.WithValue(ctx, actorKey, a)
}
