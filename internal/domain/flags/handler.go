package flags

import (
	"context"
	"net/http"

	"apa-backoffice/internal/livequery"
	"apa-backoffice/internal/middleware"
	"apa-backoffice/internal/platform/httpx"
	"apa-backoffice/internal/platform/logger"

	"github.com/go-chi/chi/v5"
)

func RegisterRoutes(r chi.Router, svc *Service, hub *livequery.Hub) {
	r.Get("/flags", getFlagsHandler(svc))
	r.Get("/ws/flags", streamFlagsHandler(svc, hub))
	r.Get("/settings", getSettingsHandler(svc))

	r.Put("/admin/flags", setFlagsHandler(svc))
	r.Put("/admin/settings", updateSettingsHandler(svc))
}

// getFlagsHandler godoc
// @Summary Feature flags vigentes
// @Description Sin documento de flags todas las secciones están habilitadas.
// @Tags flags
// @Produce json
// @Success 200 {object} map[string]bool
// @Failure 503 {object} httpx.ErrorBody
// @Router /flags [get]
func getFlagsHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		f, err := svc.Flags(r.Context())
		if err != nil {
			httpx.WriteError(w, r, err)
			return
		}
		httpx.WriteJSON(w, http.StatusOK, f)
	}
}

// setFlagsHandler godoc
// @Summary Actualizar feature flags
// @Description Solo los flags enviados cambian.
// @Tags flags
// @Accept json
// @Produce json
// @Param payload body map[string]bool true "Flags"
// @Success 200 {object} map[string]bool
// @Failure 400 {object} httpx.ErrorBody
// @Failure 401 {object} httpx.ErrorBody
// @Router /admin/flags [put]
func setFlagsHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req map[string]bool
		if err := httpx.DecodeJSON(r, &req); err != nil {
			httpx.WriteError(w, r, err)
			return
		}
		f, err := svc.SetFlags(r.Context(), middleware.ActorFrom(r.Context()), req)
		if err != nil {
			httpx.WriteError(w, r, err)
			return
		}
		httpx.WriteJSON(w, http.StatusOK, f)
	}
}

func streamFlagsHandler(svc *Service, hub *livequery.Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		fetch := svc.Query()
		resolved := func(ctx context.Context) ([]Flags, error) {
			items, err := fetch(ctx)
			if err != nil {
				return nil, err
			}
			if len(items) == 0 {
				return []Flags{Flags{}.Resolved()}, nil
			}
			return []Flags{items[0].Resolved()}, nil
		}

		sub := livequery.Subscribe(r.Context(), hub, FlagsCollection, resolved)
		defer sub.Close()

		livequery.Serve(w, r, logger.FromContext(r.Context(), nil), livequery.Pump(sub))
	}
}

func getSettingsHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		st, err := svc.Settings(r.Context())
		if err != nil {
			httpx.WriteError(w, r, err)
			return
		}
		httpx.WriteJSON(w, http.StatusOK, st)
	}
}

// updateSettingsHandler godoc
// @Summary Configuración general (PIX, contacto, itens de doação)
// @Tags flags
// @Accept json
// @Produce json
// @Param payload body Settings true "Configuración"
// @Success 200 {object} Settings
// @Failure 400 {object} httpx.ErrorBody
// @Failure 401 {object} httpx.ErrorBody
// @Router /admin/settings [put]
func updateSettingsHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req Settings
		if err := httpx.DecodeJSON(r, &req); err != nil {
			httpx.WriteError(w, r, err)
			return
		}
		st, err := svc.UpdateSettings(r.Context(), middleware.ActorFrom(r.Context()), req)
		if err != nil {
			httpx.WriteError(w, r, err)
			return
		}
		httpx.WriteJSON(w, http.StatusOK, st)
	}
}
