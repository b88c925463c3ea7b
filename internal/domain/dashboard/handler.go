package dashboard

import (
	"net/http"

	"apa-backoffice/internal/middleware"
	"apa-backoffice/internal/platform/httpx"

	"github.com/go-chi/chi/v5"
)

func RegisterRoutes(r chi.Router, svc *Service) {
	r.Get("/results/latest", latestResultHandler(svc))
	r.Get("/admin/dashboard", summaryHandler(svc))
	r.Put("/admin/results/{month}", setResultHandler(svc))
}

type resultRequest struct {
	HelpedCount int    `json:"helpedCount"`
	Notes       string `json:"notes"`
}

// summaryHandler godoc
// @Summary Contadores del dashboard admin
// @Tags dashboard
// @Produce json
// @Success 200 {object} Summary
// @Failure 401 {object} httpx.ErrorBody
// @Failure 503 {object} httpx.ErrorBody
// @Router /admin/dashboard [get]
func summaryHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sum, err := svc.Summary(r.Context(), middleware.ActorFrom(r.Context()))
		if err != nil {
			httpx.WriteError(w, r, err)
			return
		}
		httpx.WriteJSON(w, http.StatusOK, sum)
	}
}

func latestResultHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		res, ok, err := svc.LatestResult(r.Context())
		if err != nil {
			httpx.WriteError(w, r, err)
			return
		}
		if !ok {
			httpx.WriteError(w, r, ErrNoResult)
			return
		}
		httpx.WriteJSON(w, http.StatusOK, res)
	}
}

// setResultHandler godoc
// @Summary Cargar resultado mensual
// @Tags dashboard
// @Accept json
// @Produce json
// @Param month path string true "Mes en formato aaaamm"
// @Param payload body resultRequest true "Resultado"
// @Success 200 {object} MonthlyResult
// @Failure 400 {object} httpx.ErrorBody
// @Failure 401 {object} httpx.ErrorBody
// @Router /admin/results/{month} [put]
func setResultHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req resultRequest
		if err := httpx.DecodeJSON(r, &req); err != nil {
			httpx.WriteError(w, r, err)
			return
		}
		res, err := svc.SetResult(r.Context(), middleware.ActorFrom(r.Context()), chi.URLParam(r, "month"), req.HelpedCount, req.Notes)
		if err != nil {
			httpx.WriteError(w, r, err)
			return
		}
		httpx.WriteJSON(w, http.StatusOK, res)
	}
}
