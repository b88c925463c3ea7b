package partners

import (
	"net/http"

	"apa-backoffice/internal/domain/errs"
	"apa-backoffice/internal/livequery"
	"apa-backoffice/internal/middleware"
	"apa-backoffice/internal/platform/httpx"
	"apa-backoffice/internal/platform/logger"

	"github.com/go-chi/chi/v5"
)

const FlagPartners = "partners"

func RegisterRoutes(r chi.Router, svc *Service, hub *livequery.Hub, flags middleware.FlagChecker) {
	r.With(middleware.RequireFlag(flags, FlagPartners)).Get("/partners", listPublicHandler(svc))
	r.With(middleware.RequireFlag(flags, FlagPartners)).Get("/ws/partners", streamHandler(svc, hub, false))

	r.Route("/admin/partners", func(ar chi.Router) {
		ar.Get("/", listHandler(svc))
		ar.Post("/", createHandler(svc))
		ar.Put("/{partnerID}", updateHandler(svc))
		ar.Post("/{partnerID}/toggle-active", toggleHandler(svc))
		ar.Delete("/{partnerID}", deleteHandler(svc))
	})
	r.Get("/ws/admin/partners", streamHandler(svc, hub, true))
}

type partnerRequest struct {
	Name        string `json:"name"`
	Logo        string `json:"logo"`
	Website     string `json:"website"`
	Description string `json:"description"`
	Order       int    `json:"order"`
	IsActive    *bool  `json:"isActive"`
}

func (req partnerRequest) input() Input {
	return Input{
		Name:        req.Name,
		Logo:        req.Logo,
		Website:     req.Website,
		Description: req.Description,
		Order:       req.Order,
		IsActive:    req.IsActive,
	}
}

// listPublicHandler godoc
// @Summary Empresas apoiadoras activas
// @Tags partners
// @Produce json
// @Success 200 {array} Partner
// @Router /partners [get]
func listPublicHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		items, err := svc.ListPublic(r.Context())
		if err != nil {
			httpx.WriteError(w, r, err)
			return
		}
		httpx.WriteJSON(w, http.StatusOK, items)
	}
}

func listHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		items, err := svc.List(r.Context(), middleware.ActorFrom(r.Context()))
		if err != nil {
			httpx.WriteError(w, r, err)
			return
		}
		httpx.WriteJSON(w, http.StatusOK, items)
	}
}

// createHandler godoc
// @Summary Crear apoiador
// @Tags partners
// @Accept json
// @Produce json
// @Param payload body partnerRequest true "Apoiador"
// @Success 201 {object} Partner
// @Failure 400 {object} httpx.ErrorBody
// @Failure 401 {object} httpx.ErrorBody
// @Router /admin/partners [post]
func createHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req partnerRequest
		if err := httpx.DecodeJSON(r, &req); err != nil {
			httpx.WriteError(w, r, err)
			return
		}
		p, err := svc.Create(r.Context(), middleware.ActorFrom(r.Context()), req.input())
		if err != nil {
			httpx.WriteError(w, r, err)
			return
		}
		httpx.WriteJSON(w, http.StatusCreated, p)
	}
}

func updateHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req partnerRequest
		if err := httpx.DecodeJSON(r, &req); err != nil {
			httpx.WriteError(w, r, err)
			return
		}
		p, err := svc.Update(r.Context(), middleware.ActorFrom(r.Context()), chi.URLParam(r, "partnerID"), req.input())
		if err != nil {
			httpx.WriteError(w, r, err)
			return
		}
		httpx.WriteJSON(w, http.StatusOK, p)
	}
}

func toggleHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, err := svc.ToggleActive(r.Context(), middleware.ActorFrom(r.Context()), chi.URLParam(r, "partnerID"))
		if err != nil {
			httpx.WriteError(w, r, err)
			return
		}
		httpx.WriteJSON(w, http.StatusOK, p)
	}
}

func deleteHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := svc.Delete(r.Context(), middleware.ActorFrom(r.Context()), chi.URLParam(r, "partnerID")); err != nil {
			httpx.WriteError(w, r, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func streamHandler(svc *Service, hub *livequery.Hub, admin bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if admin && !middleware.ActorFrom(r.Context()).IsAdmin() {
			httpx.WriteError(w, r, errs.ErrUnauthorized)
			return
		}
		sub := livequery.Subscribe(r.Context(), hub, Collection, svc.Query(!admin))
		defer sub.Close()

		livequery.Serve(w, r, logger.FromContext(r.Context(), nil), livequery.Pump(sub))
	}
}
