package lostpets

import (
	"net/http"

	"apa-backoffice/internal/domain/errs"
	"apa-backoffice/internal/livequery"
	"apa-backoffice/internal/middleware"
	"apa-backoffice/internal/platform/httpx"
	"apa-backoffice/internal/platform/logger"

	"github.com/go-chi/chi/v5"
)

const FlagLostPets = "lostPets"

func RegisterRoutes(r chi.Router, svc *Service, hub *livequery.Hub, flags middleware.FlagChecker) {
	r.With(middleware.RequireFlag(flags, FlagLostPets)).Route("/lost-pets", func(lr chi.Router) {
		lr.Get("/", listPublicHandler(svc))
		lr.Post("/", reportHandler(svc))
		lr.Get("/{lostPetID}", getHandler(svc))
	})
	r.With(middleware.RequireFlag(flags, FlagLostPets)).Get("/ws/lost-pets", streamHandler(svc, hub, false))
	r.Get("/me/lost-pets", listMineHandler(svc))

	r.Route("/admin/lost-pets", func(ar chi.Router) {
		ar.Get("/", listForModerationHandler(svc))
		ar.Post("/{lostPetID}/moderation", moderateHandler(svc))
		ar.Post("/{lostPetID}/status", setStatusHandler(svc))
		ar.Post("/{lostPetID}/toggle", toggleStatusHandler(svc))
		ar.Delete("/{lostPetID}", deleteHandler(svc))
	})
	r.Get("/ws/admin/lost-pets", streamHandler(svc, hub, true))
}

type reportRequest struct {
	Name             string     `json:"name"`
	Species          Species    `json:"species" enums:"cachorro,gato,outro"`
	Status           Status     `json:"status" enums:"perdido,encontrado"`
	Description      string     `json:"description"`
	LastSeenLocation string     `json:"lastSeenLocation"`
	LastSeenDate     string     `json:"lastSeenDate"`
	ContactPhone     string     `json:"contactPhone"`
	PhotoURL         string     `json:"photoUrl"`
	HasReward        bool       `json:"hasReward"`
	RewardValue      string     `json:"rewardValue"`
	ModerationStatus Moderation `json:"moderationStatus"`
}

type moderationRequest struct {
	ModerationStatus Moderation `json:"moderationStatus" enums:"pending,approved,rejected"`
}

type statusRequest struct {
	Status Status `json:"status" enums:"perdido,encontrado"`
	// Texto opcional de la historia de final feliz (solo al pasar a encontrado).
	StoryTitle   string `json:"storyTitle"`
	StoryContent string `json:"storyContent"`
}

type moderationListResponse struct {
	Items  []LostPet `json:"items"`
	Counts Counts    `json:"counts"`
}

// reportHandler godoc
// @Summary Anunciar mascota perdida/encontrada
// @Description El anuncio entra en moderación (pending) sin importar lo que envíe el cliente.
// @Tags lost-pets
// @Accept json
// @Produce json
// @Param payload body reportRequest true "Anuncio"
// @Success 201 {object} LostPet
// @Failure 400 {object} httpx.ErrorBody
// @Failure 401 {object} httpx.ErrorBody
// @Router /lost-pets [post]
func reportHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req reportRequest
		if err := httpx.DecodeJSON(r, &req); err != nil {
			httpx.WriteError(w, r, err)
			return
		}
		p, err := svc.Report(r.Context(), middleware.ActorFrom(r.Context()), ReportInput{
			Name:             req.Name,
			Species:          req.Species,
			Status:           req.Status,
			Description:      req.Description,
			LastSeenLocation: req.LastSeenLocation,
			LastSeenDate:     req.LastSeenDate,
			ContactPhone:     req.ContactPhone,
			PhotoURL:         req.PhotoURL,
			HasReward:        req.HasReward,
			RewardValue:      req.RewardValue,
			ModerationStatus: req.ModerationStatus,
		})
		if err != nil {
			httpx.WriteError(w, r, err)
			return
		}
		httpx.WriteJSON(w, http.StatusCreated, p)
	}
}

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

func getHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, err := svc.Get(r.Context(), middleware.ActorFrom(r.Context()), chi.URLParam(r, "lostPetID"))
		if err != nil {
			httpx.WriteError(w, r, err)
			return
		}
		httpx.WriteJSON(w, http.StatusOK, p)
	}
}

func listMineHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		items, err := svc.ListMine(r.Context(), middleware.ActorFrom(r.Context()))
		if err != nil {
			httpx.WriteError(w, r, err)
			return
		}
		httpx.WriteJSON(w, http.StatusOK, items)
	}
}

// listForModerationHandler godoc
// @Summary Moderación de anuncios
// @Tags lost-pets
// @Produce json
// @Param tab query string false "pending | approved | rejected (vacío = todos)"
// @Success 200 {object} moderationListResponse
// @Failure 401 {object} httpx.ErrorBody
// @Router /admin/lost-pets [get]
func listForModerationHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		items, counts, err := svc.ListForModeration(r.Context(), middleware.ActorFrom(r.Context()), Moderation(r.URL.Query().Get("tab")))
		if err != nil {
			httpx.WriteError(w, r, err)
			return
		}
		httpx.WriteJSON(w, http.StatusOK, moderationListResponse{Items: items, Counts: counts})
	}
}

func moderateHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req moderationRequest
		if err := httpx.DecodeJSON(r, &req); err != nil {
			httpx.WriteError(w, r, err)
			return
		}
		p, err := svc.Moderate(r.Context(), middleware.ActorFrom(r.Context()), chi.URLParam(r, "lostPetID"), req.ModerationStatus)
		if err != nil {
			httpx.WriteError(w, r, err)
			return
		}
		httpx.WriteJSON(w, http.StatusOK, p)
	}
}

func setStatusHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req statusRequest
		if err := httpx.DecodeJSON(r, &req); err != nil {
			httpx.WriteError(w, r, err)
			return
		}
		p, err := svc.SetStatus(r.Context(), middleware.ActorFrom(r.Context()), chi.URLParam(r, "lostPetID"), req.Status,
			Story{Title: req.StoryTitle, Content: req.StoryContent})
		if err != nil {
			httpx.WriteError(w, r, err)
			return
		}
		httpx.WriteJSON(w, http.StatusOK, p)
	}
}

func toggleStatusHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req statusRequest
		if r.ContentLength > 0 {
			if err := httpx.DecodeJSON(r, &req); err != nil {
				httpx.WriteError(w, r, err)
				return
			}
		}
		p, err := svc.ToggleStatus(r.Context(), middleware.ActorFrom(r.Context()), chi.URLParam(r, "lostPetID"),
			Story{Title: req.StoryTitle, Content: req.StoryContent})
		if err != nil {
			httpx.WriteError(w, r, err)
			return
		}
		httpx.WriteJSON(w, http.StatusOK, p)
	}
}

func deleteHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := svc.Delete(r.Context(), middleware.ActorFrom(r.Context()), chi.URLParam(r, "lostPetID")); err != nil {
			httpx.WriteError(w, r, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func streamHandler(svc *Service, hub *livequery.Hub, admin bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		fetch := svc.ListQuery(ModerationApproved)
		if admin {
			if !middleware.ActorFrom(r.Context()).IsAdmin() {
				httpx.WriteError(w, r, errs.ErrUnauthorized)
				return
			}
			fetch = svc.ListQuery("")
		}

		sub := livequery.Subscribe(r.Context(), hub, Collection, fetch)
		defer sub.Close()

		livequery.Serve(w, r, logger.FromContext(r.Context(), nil), livequery.Pump(sub))
	}
}
