package posts

import (
	"context"
	"net/http"
	"time"

	"apa-backoffice/internal/domain/errs"
	"apa-backoffice/internal/domain/workflow"
	"apa-backoffice/internal/livequery"
	"apa-backoffice/internal/middleware"
	"apa-backoffice/internal/platform/httpx"
	"apa-backoffice/internal/platform/logger"

	"github.com/go-chi/chi/v5"
)

const FlagStories = "stories"

func RegisterRoutes(r chi.Router, svc *Service, hub *livequery.Hub, flags middleware.FlagChecker) {
	r.With(middleware.RequireFlag(flags, FlagStories)).Route("/posts", func(pr chi.Router) {
		pr.Get("/", listPublicHandler(svc))
		pr.Get("/highlighted", highlightedHandler(svc))
		pr.Get("/{postID}", getHandler(svc))
	})
	r.With(middleware.RequireFlag(flags, FlagStories)).Get("/ws/posts", streamHandler(svc, hub, false))

	r.Route("/admin/posts", func(ar chi.Router) {
		ar.Get("/", listHandler(svc))
		ar.Post("/", createHandler(svc))
		ar.Put("/{postID}", updateHandler(svc))
		ar.Delete("/{postID}", deleteHandler(svc))
		ar.Post("/{postID}/toggle-active", toggleHandler(svc, (*Service).ToggleActive))
		ar.Post("/{postID}/toggle-highlight", toggleHandler(svc, (*Service).ToggleHighlight))
	})
	r.Get("/ws/admin/posts", streamHandler(svc, hub, true))
}

type postRequest struct {
	Title       string     `json:"title"`
	Content     string     `json:"content"`
	Excerpt     string     `json:"excerpt"`
	Image       string     `json:"image"`
	Category    Category   `json:"category" enums:"notícia,resultado,evento,história"`
	Author      string     `json:"author"`
	PublishDate *time.Time `json:"publishDate"`
	IsActive    *bool      `json:"isActive"`
}

func (req postRequest) input() Input {
	return Input{
		Title:       req.Title,
		Content:     req.Content,
		Excerpt:     req.Excerpt,
		Image:       req.Image,
		Category:    req.Category,
		Author:      req.Author,
		PublishDate: req.PublishDate,
		IsActive:    req.IsActive,
	}
}

// listPublicHandler godoc
// @Summary Posts publicados
// @Tags posts
// @Produce json
// @Param category query string false "notícia | resultado | evento | história"
// @Success 200 {array} Post
// @Router /posts [get]
func listPublicHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		items, err := svc.ListPublic(r.Context(), Category(r.URL.Query().Get("category")))
		if err != nil {
			httpx.WriteError(w, r, err)
			return
		}
		httpx.WriteJSON(w, http.StatusOK, items)
	}
}

func highlightedHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		items, err := svc.HighlightedStories(r.Context())
		if err != nil {
			httpx.WriteError(w, r, err)
			return
		}
		httpx.WriteJSON(w, http.StatusOK, items)
	}
}

func getHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, err := svc.Get(r.Context(), middleware.ActorFrom(r.Context()), chi.URLParam(r, "postID"))
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

// createHandler godoc
// @Summary Crear post
// @Tags posts
// @Accept json
// @Produce json
// @Param payload body postRequest true "Post"
// @Success 201 {object} Post
// @Failure 400 {object} httpx.ErrorBody
// @Failure 401 {object} httpx.ErrorBody
// @Router /admin/posts [post]
func createHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req postRequest
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
		var req postRequest
		if err := httpx.DecodeJSON(r, &req); err != nil {
			httpx.WriteError(w, r, err)
			return
		}
		p, err := svc.Update(r.Context(), middleware.ActorFrom(r.Context()), chi.URLParam(r, "postID"), req.input())
		if err != nil {
			httpx.WriteError(w, r, err)
			return
		}
		httpx.WriteJSON(w, http.StatusOK, p)
	}
}

func deleteHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := svc.Delete(r.Context(), middleware.ActorFrom(r.Context()), chi.URLParam(r, "postID")); err != nil {
			httpx.WriteError(w, r, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func toggleHandler(svc *Service, fn func(*Service, context.Context, workflow.Actor, string) (Post, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, err := fn(svc, r.Context(), middleware.ActorFrom(r.Context()), chi.URLParam(r, "postID"))
		if err != nil {
			httpx.WriteError(w, r, err)
			return
		}
		httpx.WriteJSON(w, http.StatusOK, p)
	}
}

func streamHandler(svc *Service, hub *livequery.Hub, admin bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		fetch := svc.Query(Filter{ActiveOnly: true})
		if admin {
			if !middleware.ActorFrom(r.Context()).IsAdmin() {
				httpx.WriteError(w, r, errs.ErrUnauthorized)
				return
			}
			fetch = svc.Query(Filter{})
		}

		sub := livequery.Subscribe(r.Context(), hub, Collection, fetch)
		defer sub.Close()

		livequery.Serve(w, r, logger.FromContext(r.Context(), nil), livequery.Pump(sub))
	}
}
