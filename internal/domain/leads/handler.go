package leads

import (
	"context"
	"net/http"
	"strings"
	"time"

	"apa-backoffice/internal/domain/errs"
	"apa-backoffice/internal/livequery"
	"apa-backoffice/internal/middleware"
	"apa-backoffice/internal/platform/httpx"
	"apa-backoffice/internal/platform/logger"
	"apa-backoffice/internal/platform/tabular"

	"github.com/go-chi/chi/v5"
)

// Deps agrupa lo que necesitan los handlers además del servicio.
type Deps struct {
	Hub   *livequery.Hub
	Flags middleware.FlagChecker // opcional
	Log   logger.Logger
}

func RegisterRoutes(r chi.Router, svc *Service, d Deps) {
	r.Route("/leads/{kind}", func(lr chi.Router) {
		lr.Post("/", submitLeadHandler(svc, d))
		lr.Get("/{leadID}", getLeadHandler(svc))
		// "tentar novamente": el dueño reabre su lead rechazado
		lr.Post("/{leadID}/reopen", reopenLeadHandler(svc))
	})

	r.Get("/me/leads/{kind}", currentLeadHandler(svc))

	r.Route("/admin/leads/{kind}", func(ar chi.Router) {
		ar.Get("/", listLeadsHandler(svc))
		ar.Get("/export", exportLeadsHandler(svc))
		ar.Post("/{leadID}/transition", transitionLeadHandler(svc))
		ar.Delete("/{leadID}", deleteLeadHandler(svc))
	})

	r.Get("/ws/me/leads/{kind}", streamCurrentLeadHandler(svc, d))
	r.Get("/ws/admin/leads/{kind}", streamAdminLeadsHandler(svc, d))
}

type submitLeadRequest struct {
	PetID   string `json:"petId"`
	Name    string `json:"name"`
	Email   string `json:"email"`
	Phone   string `json:"phone"`
	Message string `json:"message"`

	// voluntariado
	Area VolunteerArea `json:"area" enums:"limpeza,eventos,passeios,outros"`

	// lar temporário
	Address          string       `json:"address"`
	DwellingType     DwellingType `json:"dwellingType" enums:"casa,apartamento,sitio"`
	HasOtherPets     string       `json:"hasOtherPets"`
	PetDetails       string       `json:"petDetails"`
	HouseholdCount   string       `json:"householdCount"`
	SpaceDescription string       `json:"spaceDescription"`
	Availability     string       `json:"availability"`

	// Status se acepta pero se ignora: todo lead nace pending.
	Status Status `json:"status"`
}

type leadResponse struct {
	Lead
	// RejectionMessage es el texto a mostrar al usuario cuando el lead está rechazado.
	RejectionMessage string `json:"rejectionMessage,omitempty"`
}

type transitionRequest struct {
	Status Status `json:"status" enums:"pending,approved,rejected,contacted"`
	Reason string `json:"reason"`
}

type conflictResponse struct {
	Error    string       `json:"error"`
	Kind     string       `json:"kind"`
	Existing leadResponse `json:"existing"`
}

func toLeadResponse(l Lead) leadResponse {
	return leadResponse{Lead: l, RejectionMessage: l.DisplayRejectionReason()}
}

func toLeadResponses(items []Lead) []leadResponse {
	out := make([]leadResponse, 0, len(items))
	for _, l := range items {
		out = append(out, toLeadResponse(l))
	}
	return out
}

func kindParam(r *http.Request) (Kind, error) {
	k, ok := ParseKind(chi.URLParam(r, "kind"))
	if !ok {
		return "", errs.ErrNotFound
	}
	return k, nil
}

// submitLeadHandler godoc
// @Summary Enviar lead
// @Description Crea un lead de adopción, voluntariado o lar temporário en estado pending. Si el usuario ya tiene uno activo responde 409 con el existente.
// @Tags leads
// @Accept json
// @Produce json
// @Param X-Debug-User-ID header string false "Solo en modo dev, ID de usuario para depuración"
// @Param Authorization header string false "Bearer token en producción"
// @Param kind path string true "adoption | volunteer | foster"
// @Param payload body submitLeadRequest true "Formulario"
// @Success 201 {object} leadResponse
// @Failure 400 {object} httpx.ErrorBody
// @Failure 401 {object} httpx.ErrorBody
// @Failure 404 {object} httpx.ErrorBody "tipo desconocido o sección deshabilitada"
// @Failure 409 {object} conflictResponse
// @Router /leads/{kind} [post]
func submitLeadHandler(svc *Service, d Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		kind, err := kindParam(r)
		if err != nil {
			httpx.WriteError(w, r, err)
			return
		}
		if d.Flags != nil && !d.Flags.Enabled(kind.Flag()) {
			httpx.WriteError(w, r, errs.ErrNotFound)
			return
		}

		var req submitLeadRequest
		if err := httpx.DecodeJSON(r, &req); err != nil {
			httpx.WriteError(w, r, err)
			return
		}

		l, err := svc.Submit(r.Context(), middleware.ActorFrom(r.Context()), kind, SubmitInput{
			PetID:   req.PetID,
			Name:    req.Name,
			Email:   req.Email,
			Phone:   req.Phone,
			Message: req.Message,
			Area:    req.Area,
			Foster: FosterDetails{
				Address:          req.Address,
				DwellingType:     req.DwellingType,
				HasOtherPets:     req.HasOtherPets,
				PetDetails:       req.PetDetails,
				HouseholdCount:   req.HouseholdCount,
				SpaceDescription: req.SpaceDescription,
				Availability:     req.Availability,
			},
			Status: req.Status,
		})
		if err != nil {
			if l.ID != "" {
				httpx.WriteJSON(w, http.StatusConflict, conflictResponse{
					Error:    "an active request already exists",
					Kind:     errs.Kind(err),
					Existing: toLeadResponse(l),
				})
				return
			}
			httpx.WriteError(w, r, err)
			return
		}

		httpx.WriteJSON(w, http.StatusCreated, toLeadResponse(l))
	}
}

func getLeadHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		kind, err := kindParam(r)
		if err != nil {
			httpx.WriteError(w, r, err)
			return
		}
		l, err := svc.Get(r.Context(), middleware.ActorFrom(r.Context()), kind, chi.URLParam(r, "leadID"))
		if err != nil {
			httpx.WriteError(w, r, err)
			return
		}
		httpx.WriteJSON(w, http.StatusOK, toLeadResponse(l))
	}
}

// currentLeadHandler godoc
// @Summary Lead actual del usuario
// @Description Devuelve el lead más reciente del usuario (para adopción, de la mascota indicada). 204 si nunca envió uno.
// @Tags leads
// @Produce json
// @Param kind path string true "adoption | volunteer | foster"
// @Param petId query string false "Mascota (solo adopción)"
// @Success 200 {object} leadResponse
// @Success 204
// @Failure 401 {object} httpx.ErrorBody
// @Router /me/leads/{kind} [get]
func currentLeadHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		kind, err := kindParam(r)
		if err != nil {
			httpx.WriteError(w, r, err)
			return
		}
		l, ok, err := svc.Current(r.Context(), middleware.ActorFrom(r.Context()), kind, r.URL.Query().Get("petId"))
		if err != nil {
			httpx.WriteError(w, r, err)
			return
		}
		if !ok {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		httpx.WriteJSON(w, http.StatusOK, toLeadResponse(l))
	}
}

func reopenLeadHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		kind, err := kindParam(r)
		if err != nil {
			httpx.WriteError(w, r, err)
			return
		}
		l, err := svc.Reopen(r.Context(), middleware.ActorFrom(r.Context()), kind, chi.URLParam(r, "leadID"))
		if err != nil {
			httpx.WriteError(w, r, err)
			return
		}
		httpx.WriteJSON(w, http.StatusOK, toLeadResponse(l))
	}
}

func statusFilter(r *http.Request) Filter {
	var f Filter
	if s := strings.TrimSpace(r.URL.Query().Get("status")); s != "" && s != "all" {
		for _, part := range strings.Split(s, ",") {
			f.Statuses = append(f.Statuses, Status(strings.TrimSpace(part)))
		}
	}
	return f
}

// listLeadsHandler godoc
// @Summary Cola de moderación de leads
// @Tags leads
// @Produce json
// @Param kind path string true "adoption | volunteer | foster"
// @Param status query string false "pending,approved,... (coma-separado) o all"
// @Success 200 {array} leadResponse
// @Failure 401 {object} httpx.ErrorBody
// @Router /admin/leads/{kind} [get]
func listLeadsHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		kind, err := kindParam(r)
		if err != nil {
			httpx.WriteError(w, r, err)
			return
		}
		items, err := svc.List(r.Context(), middleware.ActorFrom(r.Context()), kind, statusFilter(r))
		if err != nil {
			httpx.WriteError(w, r, err)
			return
		}
		httpx.WriteJSON(w, http.StatusOK, toLeadResponses(items))
	}
}

// transitionLeadHandler godoc
// @Summary Cambiar estado de un lead
// @Description Aprobar, rechazar (con motivo), marcar contactado o devolver a pending. Solo admin.
// @Tags leads
// @Accept json
// @Produce json
// @Param kind path string true "adoption | volunteer | foster"
// @Param leadID path string true "ID del lead"
// @Param payload body transitionRequest true "Estado destino y motivo"
// @Success 200 {object} leadResponse
// @Failure 400 {object} httpx.ErrorBody "motivo faltante"
// @Failure 401 {object} httpx.ErrorBody
// @Failure 409 {object} httpx.ErrorBody "transición ilegal"
// @Router /admin/leads/{kind}/{leadID}/transition [post]
func transitionLeadHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		kind, err := kindParam(r)
		if err != nil {
			httpx.WriteError(w, r, err)
			return
		}
		var req transitionRequest
		if err := httpx.DecodeJSON(r, &req); err != nil {
			httpx.WriteError(w, r, err)
			return
		}
		l, err := svc.Transition(r.Context(), middleware.ActorFrom(r.Context()), kind, chi.URLParam(r, "leadID"), req.Status, req.Reason)
		if err != nil {
			httpx.WriteError(w, r, err)
			return
		}
		httpx.WriteJSON(w, http.StatusOK, toLeadResponse(l))
	}
}

func deleteLeadHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		kind, err := kindParam(r)
		if err != nil {
			httpx.WriteError(w, r, err)
			return
		}
		if err := svc.Delete(r.Context(), middleware.ActorFrom(r.Context()), kind, chi.URLParam(r, "leadID")); err != nil {
			httpx.WriteError(w, r, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// exportLeadsHandler godoc
// @Summary Exportar leads a CSV
// @Tags leads
// @Produce text/csv
// @Param kind path string true "adoption | volunteer | foster"
// @Success 200 {file} file
// @Failure 401 {object} httpx.ErrorBody
// @Router /admin/leads/{kind}/export [get]
func exportLeadsHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		kind, err := kindParam(r)
		if err != nil {
			httpx.WriteError(w, r, err)
			return
		}
		t, err := svc.Export(r.Context(), middleware.ActorFrom(r.Context()), kind)
		if err != nil {
			httpx.WriteError(w, r, err)
			return
		}
		tabular.Serve(w, tabular.FileName("leads_"+string(kind), time.Now()), t)
	}
}

// streamCurrentLeadHandler abre un websocket con el lead actual del usuario.
// Un envío en curso se muestra enseguida con speculative=true y el siguiente
// snapshot lo confirma o lo descarta.
func streamCurrentLeadHandler(svc *Service, d Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		kind, err := kindParam(r)
		if err != nil {
			httpx.WriteError(w, r, err)
			return
		}
		actor := middleware.ActorFrom(r.Context())
		if !actor.Authenticated() {
			httpx.WriteError(w, r, errs.ErrUnauthorized)
			return
		}
		petID := strings.TrimSpace(r.URL.Query().Get("petId"))

		sub := livequery.Subscribe(r.Context(), d.Hub, kind.Collection(), svc.CurrentQuery(actor.UserID, kind, petID))
		defer sub.Close()

		submissions, stop := svc.WatchSubmissions(kind, actor.UserID)
		defer stop()

		livequery.Serve(w, r, logger.FromContext(r.Context(), d.Log), currentLeadPump(kind, petID, submissions, sub.C()))
	}
}

// currentLeadPump intercala los ecos de envío con los snapshots. El snapshot que
// contradice un eco sale con discarded=true para que el cliente lo retire.
func currentLeadPump(kind Kind, petID string, submissions <-chan Lead, snaps <-chan livequery.Snapshot[Lead]) livequery.PumpFunc {
	proj := livequery.NewProjection(func(a, b Lead) bool { return a.ID == b.ID })

	return func(ctx context.Context, send livequery.SendFunc) error {
		for {
			select {
			case <-ctx.Done():
				return nil

			case l := <-submissions:
				if kind == KindAdoption && petID != "" && l.PetID != petID {
					continue
				}
				proj.Speculate(l)
				if err := send(livequery.Frame{
					State:       livequery.StateReady,
					Records:     []leadResponse{toLeadResponse(l)},
					Speculative: true,
				}); err != nil {
					return err
				}

			case snap, ok := <-snaps:
				if !ok {
					return nil
				}
				f := livequery.FrameOf(snap)
				if snap.Err == nil {
					var cur Lead
					if len(snap.Records) > 0 {
						cur = snap.Records[0]
					}
					f.Discarded = proj.Apply(cur, len(snap.Records) > 0)
				}
				f.Records = toLeadResponses(snap.Records)
				if err := send(f); err != nil {
					return err
				}
			}
		}
	}
}

func streamAdminLeadsHandler(svc *Service, d Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		kind, err := kindParam(r)
		if err != nil {
			httpx.WriteError(w, r, err)
			return
		}
		if !middleware.ActorFrom(r.Context()).IsAdmin() {
			httpx.WriteError(w, r, errs.ErrUnauthorized)
			return
		}

		sub := livequery.Subscribe(r.Context(), d.Hub, kind.Collection(), svc.ListQuery(kind, statusFilter(r)))
		defer sub.Close()

		livequery.Serve(w, r, logger.FromContext(r.Context(), d.Log), livequery.Pump(sub))
	}
}
