package pets

import (
	"net/http"

	"apa-backoffice/internal/domain/errs"
	"apa-backoffice/internal/livequery"
	"apa-backoffice/internal/middleware"
	"apa-backoffice/internal/platform/httpx"
	"apa-backoffice/internal/platform/logger"

	"github.com/go-chi/chi/v5"
)

// FlagAdoption es el feature flag de la vitrina pública.
const FlagAdoption = "adoption"

func RegisterRoutes(r chi.Router, svc *Service, hub *livequery.Hub, flags middleware.FlagChecker) {
	// Vitrina pública (oculta si el flag adoption está apagado)
	r.With(middleware.RequireFlag(flags, FlagAdoption)).Route("/pets", func(pr chi.Router) {
		pr.Get("/", listAvailablePetsHandler(svc))
		pr.Get("/{petID}", getPetHandler(svc))
		// Cualquier usuario puede cargar un pet; queda pendente hasta aprobación
		pr.Post("/", createPetHandler(svc))
	})
	r.With(middleware.RequireFlag(flags, FlagAdoption)).Get("/ws/pets", streamPetsHandler(svc, hub, false))

	r.Get("/me/pets", listMyPetsHandler(svc))

	r.Route("/admin/pets", func(ar chi.Router) {
		ar.Get("/", listPetsHandler(svc))
		ar.Put("/order", reorderPetsHandler(svc))
		ar.Patch("/{petID}", updatePetHandler(svc))
		ar.Delete("/{petID}", deletePetHandler(svc))
		ar.Post("/{petID}/approve", approvePetHandler(svc))
		ar.Post("/{petID}/reject", rejectPetHandler(svc))
		ar.Post("/{petID}/status", setPetStatusHandler(svc))
	})
	r.Get("/ws/admin/pets", streamPetsHandler(svc, hub, true))
}

type createPetRequest struct {
	Species      Species  `json:"species" enums:"Cachorro,Gato"`
	Gender       Gender   `json:"gender" enums:"Macho,Fêmea"`
	Name         string   `json:"name"`
	Breed        string   `json:"breed"`
	Color        string   `json:"color"`
	AgeValue     string   `json:"ageValue"`
	AgeUnit      string   `json:"ageUnit" enums:"anos,meses"`
	Size         Size     `json:"size" enums:"P,M,G"`
	Tags         []string `json:"tags"`
	Photos       []string `json:"photos"`
	Description  string   `json:"description"`
	Address      string   `json:"address"`
	ContactPhone string   `json:"contactPhone"`
}

type updatePetRequest struct {
	// Punteros para PATCH real: nil = no tocar.
	Species      *Species  `json:"species"`
	Gender       *Gender   `json:"gender"`
	Name         *string   `json:"name"`
	Breed        *string   `json:"breed"`
	Color        *string   `json:"color"`
	Age          *string   `json:"age"`
	Size         *Size     `json:"size"`
	Tags         *[]string `json:"tags"`
	Photos       *[]string `json:"photos"`
	Description  *string   `json:"description"`
	Address      *string   `json:"address"`
	ContactPhone *string   `json:"contactPhone"`
}

type statusRequest struct {
	Status Status `json:"status" enums:"pendente,disponível,adotado,indisponível"`
}

type reorderRequest struct {
	IDs []string `json:"ids"`
}

// createPetHandler godoc
// @Summary Cargar mascota para adopción
// @Description Un admin publica directo (disponível); un usuario común queda pendente hasta aprobación.
// @Tags pets
// @Accept json
// @Produce json
// @Param X-Debug-User-ID header string false "Solo en modo dev, ID de usuario para depuración"
// @Param Authorization header string false "Bearer token en producción"
// @Param payload body createPetRequest true "Datos del pet"
// @Success 201 {object} Pet
// @Failure 400 {object} httpx.ErrorBody
// @Failure 401 {object} httpx.ErrorBody
// @Router /pets [post]
func createPetHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req createPetRequest
		if err := httpx.DecodeJSON(r, &req); err != nil {
			httpx.WriteError(w, r, err)
			return
		}

		p, err := svc.Create(r.Context(), middleware.ActorFrom(r.Context()), CreateInput{
			Species:      req.Species,
			Gender:       req.Gender,
			Name:         req.Name,
			Breed:        req.Breed,
			Color:        req.Color,
			AgeValue:     req.AgeValue,
			AgeUnit:      req.AgeUnit,
			Size:         req.Size,
			Tags:         req.Tags,
			Photos:       req.Photos,
			Description:  req.Description,
			Address:      req.Address,
			ContactPhone: req.ContactPhone,
		})
		if err != nil {
			httpx.WriteError(w, r, err)
			return
		}
		httpx.WriteJSON(w, http.StatusCreated, p)
	}
}

// listAvailablePetsHandler godoc
// @Summary Vitrina de adopción
// @Tags pets
// @Produce json
// @Success 200 {array} Pet
// @Failure 404 {object} httpx.ErrorBody "sección deshabilitada"
// @Failure 503 {object} httpx.ErrorBody "store no configurado"
// @Router /pets [get]
func listAvailablePetsHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		items, err := svc.ListAvailable(r.Context())
		if err != nil {
			httpx.WriteError(w, r, err)
			return
		}
		httpx.WriteJSON(w, http.StatusOK, items)
	}
}

func getPetHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, err := svc.Get(r.Context(), middleware.ActorFrom(r.Context()), chi.URLParam(r, "petID"))
		if err != nil {
			httpx.WriteError(w, r, err)
			return
		}
		httpx.WriteJSON(w, http.StatusOK, p)
	}
}

func listMyPetsHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		items, err := svc.ListMine(r.Context(), middleware.ActorFrom(r.Context()))
		if err != nil {
			httpx.WriteError(w, r, err)
			return
		}
		httpx.WriteJSON(w, http.StatusOK, items)
	}
}

func listPetsHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		items, err := svc.List(r.Context(), middleware.ActorFrom(r.Context()))
		if err != nil {
			httpx.WriteError(w, r, err)
			return
		}
		httpx.WriteJSON(w, http.StatusOK, items)
	}
}

func updatePetHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req updatePetRequest
		if err := httpx.DecodeJSON(r, &req); err != nil {
			httpx.WriteError(w, r, err)
			return
		}
		p, err := svc.Update(r.Context(), middleware.ActorFrom(r.Context()), chi.URLParam(r, "petID"), UpdateInput{
			Species:      req.Species,
			Gender:       req.Gender,
			Name:         req.Name,
			Breed:        req.Breed,
			Color:        req.Color,
			Age:          req.Age,
			Size:         req.Size,
			Tags:         req.Tags,
			Photos:       req.Photos,
			Description:  req.Description,
			Address:      req.Address,
			ContactPhone: req.ContactPhone,
		})
		if err != nil {
			httpx.WriteError(w, r, err)
			return
		}
		httpx.WriteJSON(w, http.StatusOK, p)
	}
}

func deletePetHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := svc.Delete(r.Context(), middleware.ActorFrom(r.Context()), chi.URLParam(r, "petID")); err != nil {
			httpx.WriteError(w, r, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func approvePetHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, err := svc.Approve(r.Context(), middleware.ActorFrom(r.Context()), chi.URLParam(r, "petID"))
		if err != nil {
			httpx.WriteError(w, r, err)
			return
		}
		httpx.WriteJSON(w, http.StatusOK, p)
	}
}

// rejectPetHandler godoc
// @Summary Rechazar anuncio pendente
// @Description Borra el anuncio. Solo aplica a anuncios en estado pendente.
// @Tags pets
// @Param petID path string true "ID del pet"
// @Success 204
// @Failure 401 {object} httpx.ErrorBody
// @Failure 409 {object} httpx.ErrorBody "el anuncio ya no está pendente"
// @Router /admin/pets/{petID}/reject [post]
func rejectPetHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := svc.Reject(r.Context(), middleware.ActorFrom(r.Context()), chi.URLParam(r, "petID")); err != nil {
			httpx.WriteError(w, r, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func setPetStatusHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req statusRequest
		if err := httpx.DecodeJSON(r, &req); err != nil {
			httpx.WriteError(w, r, err)
			return
		}
		p, err := svc.SetStatus(r.Context(), middleware.ActorFrom(r.Context()), chi.URLParam(r, "petID"), req.Status)
		if err != nil {
			httpx.WriteError(w, r, err)
			return
		}
		httpx.WriteJSON(w, http.StatusOK, p)
	}
}

// reorderPetsHandler godoc
// @Summary Reordenar la vitrina
// @Description Asigna sortOrder 0..n-1 en el orden recibido, en una sola escritura atómica.
// @Tags pets
// @Accept json
// @Param payload body reorderRequest true "IDs en el orden deseado"
// @Success 204
// @Failure 400 {object} httpx.ErrorBody
// @Failure 404 {object} httpx.ErrorBody "algún id no existe; no se escribe nada"
// @Router /admin/pets/order [put]
func reorderPetsHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req reorderRequest
		if err := httpx.DecodeJSON(r, &req); err != nil {
			httpx.WriteError(w, r, err)
			return
		}
		if err := svc.Reorder(r.Context(), middleware.ActorFrom(r.Context()), req.IDs); err != nil {
			httpx.WriteError(w, r, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func streamPetsHandler(svc *Service, hub *livequery.Hub, admin bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		fetch := svc.ListQuery([]Status{StatusAvailable})
		if admin {
			if !middleware.ActorFrom(r.Context()).IsAdmin() {
				httpx.WriteError(w, r, errs.ErrUnauthorized)
				return
			}
			fetch = svc.ListQuery(nil)
		}

		sub := livequery.Subscribe(r.Context(), hub, Collection, fetch)
		defer sub.Close()

		livequery.Serve(w, r, logger.FromContext(r.Context(), nil), livequery.Pump(sub))
	}
}
