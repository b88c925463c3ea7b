package medical

import (
	"net/http"
	"strconv"
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

func RegisterRoutes(r chi.Router, svc *Service, hub *livequery.Hub) {
	r.Route("/admin/medical-records", func(mr chi.Router) {
		mr.Get("/", listHandler(svc))
		mr.Post("/", createHandler(svc))
		mr.Get("/export", exportHandler(svc))
		mr.Get("/{recordID}", getHandler(svc))
		mr.Post("/{recordID}/transition", transitionHandler(svc))
		mr.Delete("/{recordID}", deleteHandler(svc))
	})
	r.Get("/ws/admin/medical-records", streamHandler(svc, hub))
}

// createRecordRequest es el cuerpo para registrar un procedimiento.
type createRecordRequest struct {
	PetID     string     `json:"petId"`
	Type      RecordType `json:"type" enums:"consulta,vacina,cirurgia,exame"`
	Procedure string     `json:"procedure"`
	VetName   string     `json:"vetName"`
	Date      string     `json:"date"` // aaaa-mm-dd o RFC3339
	Notes     string     `json:"notes"`
	Status    Status     `json:"status" enums:"agendado,concluido,cancelado"`
}

type transitionRequest struct {
	Status Status `json:"status" enums:"agendado,concluido,cancelado"`
}

// createHandler godoc
// @Summary Registrar procedimiento en el prontuário
// @Tags medical
// @Accept json
// @Produce json
// @Param payload body createRecordRequest true "Procedimiento; date en aaaa-mm-dd o RFC3339"
// @Success 201 {object} Record
// @Failure 400 {object} httpx.ErrorBody
// @Failure 401 {object} httpx.ErrorBody
// @Router /admin/medical-records [post]
func createHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req createRecordRequest
		if err := httpx.DecodeJSON(r, &req); err != nil {
			httpx.WriteError(w, r, err)
			return
		}
		date, err := parseDate("date", req.Date)
		if err != nil {
			httpx.WriteError(w, r, err)
			return
		}

		rec, err := svc.Create(r.Context(), middleware.ActorFrom(r.Context()), CreateInput{
			PetID:     req.PetID,
			Type:      req.Type,
			Procedure: req.Procedure,
			VetName:   req.VetName,
			Date:      date,
			Notes:     req.Notes,
			Status:    req.Status,
		})
		if err != nil {
			httpx.WriteError(w, r, err)
			return
		}
		httpx.WriteJSON(w, http.StatusCreated, rec)
	}
}

// listHandler godoc
// @Summary Listar prontuários
// @Description Ordenados por fecha desc. Permite filtrar por animal, tipos, rango de fechas y texto.
// @Tags medical
// @Produce json
// @Param petId query string false "ID del animal"
// @Param limit query int false "Máximo de registros (1-200). Por defecto 50"
// @Param types query string false "Lista CSV de tipos (ej: vacina,exame)"
// @Param from query string false "Fecha mínima (aaaa-mm-dd o RFC3339)"
// @Param to query string false "Fecha máxima (aaaa-mm-dd o RFC3339)"
// @Param q query string false "Busca en animal, procedimiento y veterinario"
// @Success 200 {array} Record
// @Failure 400 {object} httpx.ErrorBody
// @Failure 401 {object} httpx.ErrorBody
// @Router /admin/medical-records [get]
func listHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		f, err := parseListFilter(r, 50)
		if err != nil {
			httpx.WriteError(w, r, err)
			return
		}
		items, err := svc.List(r.Context(), middleware.ActorFrom(r.Context()), f)
		if err != nil {
			httpx.WriteError(w, r, err)
			return
		}
		httpx.WriteJSON(w, http.StatusOK, items)
	}
}

func exportHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		f, err := parseListFilter(r, 0)
		if err != nil {
			httpx.WriteError(w, r, err)
			return
		}
		t, err := svc.Export(r.Context(), middleware.ActorFrom(r.Context()), f)
		if err != nil {
			httpx.WriteError(w, r, err)
			return
		}
		tabular.Serve(w, tabular.FileName("prontuarios_apa", time.Now()), t)
	}
}

func getHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rec, err := svc.Get(r.Context(), middleware.ActorFrom(r.Context()), chi.URLParam(r, "recordID"))
		if err != nil {
			httpx.WriteError(w, r, err)
			return
		}
		httpx.WriteJSON(w, http.StatusOK, rec)
	}
}

func transitionHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req transitionRequest
		if err := httpx.DecodeJSON(r, &req); err != nil {
			httpx.WriteError(w, r, err)
			return
		}
		rec, err := svc.Transition(r.Context(), middleware.ActorFrom(r.Context()), chi.URLParam(r, "recordID"), req.Status)
		if err != nil {
			httpx.WriteError(w, r, err)
			return
		}
		httpx.WriteJSON(w, http.StatusOK, rec)
	}
}

func deleteHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := svc.Delete(r.Context(), middleware.ActorFrom(r.Context()), chi.URLParam(r, "recordID")); err != nil {
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
		f, err := parseListFilter(r, 0)
		if err != nil {
			httpx.WriteError(w, r, err)
			return
		}
		sub := livequery.Subscribe(r.Context(), hub, Collection, svc.Query(f))
		defer sub.Close()

		livequery.Serve(w, r, logger.FromContext(r.Context(), nil), livequery.Pump(sub))
	}
}

func parseListFilter(r *http.Request, limit int) (ListFilter, error) {
	q := r.URL.Query()
	if v := q.Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 200 {
			limit = n
		}
	}

	f := ListFilter{
		PetID: strings.TrimSpace(q.Get("petId")),
		Query: strings.TrimSpace(q.Get("q")),
		Limit: limit,
	}

	// types=vacina,exame
	if v := strings.TrimSpace(q.Get("types")); v != "" {
		for _, p := range strings.Split(v, ",") {
			if t := RecordType(strings.TrimSpace(p)); t != "" {
				f.Types = append(f.Types, t)
			}
		}
	}

	for _, b := range []struct {
		name string
		dst  **time.Time
	}{{"from", &f.From}, {"to", &f.To}} {
		v := strings.TrimSpace(q.Get(b.name))
		if v == "" {
			continue
		}
		t, err := parseDate(b.name, v)
		if err != nil {
			return ListFilter{}, err
		}
		*b.dst = &t
	}
	return f, nil
}

func parseDate(field, v string) (time.Time, error) {
	v = strings.TrimSpace(v)
	if v == "" {
		return time.Time{}, errs.Invalid(field, "required")
	}
	if t, err := time.Parse(time.RFC3339, v); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.DateOnly, v)
	if err != nil {
		return time.Time{}, errs.Invalid(field, "must be aaaa-mm-dd or RFC3339")
	}
	return t, nil
}
