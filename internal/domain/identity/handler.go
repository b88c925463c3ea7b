package identity

import (
	"net/http"

	"apa-backoffice/internal/domain/workflow"
	"apa-backoffice/internal/middleware"
	"apa-backoffice/internal/platform/httpx"

	"github.com/go-chi/chi/v5"
)

func RegisterRoutes(r chi.Router, svc *Service) {
	r.Get("/me", meHandler(svc))
	r.Patch("/me", updateMeHandler(svc))

	r.Route("/admin/users", func(ar chi.Router) {
		ar.Get("/", listHandler(svc))
		ar.Put("/{userID}/role", setRoleHandler(svc))
	})
}

type updateProfileRequest struct {
	DisplayName      *string `json:"displayName"`
	Phone            *string `json:"phone"`
	Address          *string `json:"address"`
	DwellingType     *string `json:"dwellingType" enums:"casa,apartamento,sitio"`
	HasOtherPets     *string `json:"hasOtherPets" enums:"sim,nao"`
	PetDetails       *string `json:"petDetails"`
	HouseholdCount   *string `json:"householdCount"`
	SpaceDescription *string `json:"spaceDescription"`
	Availability     *string `json:"availability"`
}

type setRoleRequest struct {
	Role workflow.Role `json:"role" enums:"user,admin"`
}

// meHandler godoc
// @Summary Perfil del usuario autenticado
// @Description Se crea con rol user en el primer request autenticado.
// @Tags identity
// @Produce json
// @Param X-Debug-User-ID header string false "Solo en modo dev, ID de usuario para depuración"
// @Param Authorization header string false "Bearer token en producción"
// @Success 200 {object} Profile
// @Failure 401 {object} httpx.ErrorBody
// @Router /me [get]
func meHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, err := svc.Me(r.Context(), middleware.ActorFrom(r.Context()))
		if err != nil {
			httpx.WriteError(w, r, err)
			return
		}
		httpx.WriteJSON(w, http.StatusOK, p)
	}
}

// updateMeHandler godoc
// @Summary Editar perfil
// @Description Campos omitidos no se tocan. El rol no se puede cambiar por acá.
// @Tags identity
// @Accept json
// @Produce json
// @Param payload body updateProfileRequest true "Campos a editar"
// @Success 200 {object} Profile
// @Failure 400 {object} httpx.ErrorBody
// @Failure 401 {object} httpx.ErrorBody
// @Router /me [patch]
func updateMeHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req updateProfileRequest
		if err := httpx.DecodeJSON(r, &req); err != nil {
			httpx.WriteError(w, r, err)
			return
		}
		p, err := svc.UpdateProfile(r.Context(), middleware.ActorFrom(r.Context()), ProfileInput{
			DisplayName:      req.DisplayName,
			Phone:            req.Phone,
			Address:          req.Address,
			DwellingType:     req.DwellingType,
			HasOtherPets:     req.HasOtherPets,
			PetDetails:       req.PetDetails,
			HouseholdCount:   req.HouseholdCount,
			SpaceDescription: req.SpaceDescription,
			Availability:     req.Availability,
		})
		if err != nil {
			httpx.WriteError(w, r, err)
			return
		}
		httpx.WriteJSON(w, http.StatusOK, p)
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

func setRoleHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req setRoleRequest
		if err := httpx.DecodeJSON(r, &req); err != nil {
			httpx.WriteError(w, r, err)
			return
		}
		p, err := svc.SetRole(r.Context(), middleware.ActorFrom(r.Context()), chi.URLParam(r, "userID"), req.Role)
		if err != nil {
			httpx.WriteError(w, r, err)
			return
		}
		httpx.WriteJSON(w, http.StatusOK, p)
	}
}
