package rescues

import (
	"net/http"
	"time"

	"apa-backoffice/internal/domain/errs"
	"apa-backoffice/internal/livequery"
	"apa-backoffice/internal/middleware"
	"apa-backoffice/internal/platform/httpx"
	"apa-backoffice/internal/platform/logger"
	"apa-backoffice/internal/platform/tabular"

	"github.com/go-chi/chi/v5"
)

func RegisterRoutes(r chi.Router, svc *Service, hub *livequery.Hub) {
	r.Route("/admin/rescues", func(rr chi.Router) {
		rr.Get("/", listHandler(svc))
		rr.Post("/", createHandler(svc))
		rr.Get("/export", exportHandler(svc))
		rr.Get("/{rescueID}", getHandler(svc))
		rr.Post("/{rescueID}/transition", transitionHandler(svc))
		rr.Delete("/{rescueID}", deleteHandler(svc))
	})
	r.Get("/ws/admin/rescues", streamHandler(svc, hub))
}

type createRescueRequest struct {
	Description string  `json:"description"`
	Location    string  `json:"location"`
	Urgency     Urgency `json:"urgency" enums:"baixa,media,alta,critica"`
	ContactInfo string  `json:"contactInfo"`
}

type transitionRequest struct {
	Status Status `json:"status" enums:"pendente,em_andamento,concluido,cancelado"`
}

// createHandler godoc
// @Summary Registrar ocurrencia de resgate
// @Tags rescues
// @Accept json
// @Produce json
// @Param payload body createRescueRequest true "Ocurrencia"
// @Success 201 {object} Rescue
// @Failure 400 {object} httpx.ErrorBody
// @Failure 401 {object} httpx.ErrorBody
// @Router /admin/rescues [post]
func createHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req createRescueRequest
		if err := httpx.DecodeJSON(r, &req); err != nil {
			httpx.WriteError(w, r, err)
			return
		}
		res, err := svc.Create(r.Context(), middleware.ActorFrom(r.Context()), CreateInput{
			Description: req.Description,
			Location:    req.Location,
			Urgency:     req.Urgency,
			ContactInfo: req.ContactInfo,
		})
		if err != nil {
			httpx.WriteError(w, r, err)
			return
		}
		httpx.WriteJSON(w, http.StatusCreated, res)
	}
}

// listHandler godoc
// @Summary Listar resgates
// @Tags rescues
// @Produce json
// @Param q query string false "Busca en descripción y localización"
// @Success 200 {array} Rescue
// @Failure 401 {object} httpx.ErrorBody
// @Router /admin/rescues [get]
func listHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		items, err := svc.List(r.Context(), middleware.ActorFrom(r.Context()), r.URL.Query().Get("q"))
		if err != nil {
			httpx.WriteError(w, r, err)
			return
		}
		httpx.WriteJSON(w, http.StatusOK, items)
	}
}

func exportHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		t, err := svc.Export(r.Context(), middleware.ActorFrom(r.Context()), r.URL.Query().Get("q"))
		if err != nil {
			httpx.WriteError(w, r, err)
			return
		}
		tabular.Serve(w, tabular.FileName("resgates_apa", time.Now()), t)
	}
}

func getHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		res, err := svc.Get(r.Context(), middleware.ActorFrom(r.Context()), chi.URLParam(r, "rescueID"))
		if err != nil {
			httpx.WriteError(w, r, err)
			return
		}
		httpx.WriteJSON(w, http.StatusOK, res)
	}
}

func transitionHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req transitionRequest
		if err := httpx.DecodeJSON(r, &req); err != nil {
			httpx.WriteError(w, r, err)
			return
		}
		res, err := svc.Transition(r.Context(), middleware.ActorFrom(r.Context()), chi.URLParam(r, "rescueID"), req.Status)
		if err != nil {
			httpx.WriteError(w, r, err)
			return
		}
		httpx.WriteJSON(w, http.StatusOK, res)
	}
}

func deleteHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := svc.Delete(r.Context(), middleware.ActorFrom(r.Context()), chi.URLParam(r, "rescueID")); err != nil {
			httpx.WriteError(w, r, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func streamHandler(svc *Service, hub *livequery.Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !middleware.ActorFrom(r.Context()).IsAdmin() {
			httpx.WriteError(w, r, errs.ErrUnauthorized)
			return
		}
		sub := livequery.Subscribe(r.Context(), hub, Collection, svc.Query(r.URL.Query().Get("q")))
		defer sub.Close()

		livequery.Serve(w, r, logger.FromContext(r.Context(), nil), livequery.Pump(sub))
	}
}
