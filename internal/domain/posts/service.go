package posts

import (
	"context"
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	"apa-backoffice/internal/domain/errs"
	"apa-backoffice/internal/domain/validate"
	"apa-backoffice/internal/domain/workflow"
	"apa-backoffice/internal/livequery"

	"github.com/google/uuid"
)

type Service struct {
	repo   Repository
	notify livequery.Notifier
	now    func() time.Time
}

func NewService(repo Repository, notify livequery.Notifier) *Service {
	return &Service{repo: repo, notify: notify, now: time.Now}
}

type Input struct {
	Title       string
	Content     string
	Excerpt     string
	Image       string
	Category    Category
	Author      string
	PublishDate *time.Time
	IsActive    *bool
}

func (s *Service) Create(ctx context.Context, actor workflow.Actor, in Input) (Post, error) {
	if err := workflow.RequireAdmin(actor); err != nil {
		return Post{}, err
	}
	now := s.now()
	p := Post{ID: uuid.NewString(), IsActive: true, PublishDate: now, CreatedAt: now}
	p, err := apply(p, in)
	if err != nil {
		return Post{}, err
	}
	p.UpdatedAt = now

	if err := s.repo.Create(ctx, p); err != nil {
		return Post{}, err
	}
	s.notify.Changed(Collection)
	return p, nil
}

func (s *Service) Update(ctx context.Context, actor workflow.Actor, id string, in Input) (Post, error) {
	if err := workflow.RequireAdmin(actor); err != nil {
		return Post{}, err
	}
	v, err := apply(Post{}, in)
	if err != nil {
		return Post{}, err
	}

	// el formulario no toca isHighlighted ni sourceId
	fields := map[string]any{
		"title":     v.Title,
		"content":   v.Content,
		"excerpt":   v.Excerpt,
		"image":     v.Image,
		"author":    v.Author,
		"category":  v.Category,
		"updatedAt": s.now(),
	}
	if in.PublishDate != nil && !in.PublishDate.IsZero() {
		fields["publishDate"] = v.PublishDate
	}
	if in.IsActive != nil {
		fields["isActive"] = v.IsActive
	}

	p, err := s.repo.Patch(ctx, id, fields)
	if err != nil {
		return Post{}, err
	}
	s.notify.Changed(Collection)
	return p, nil
}

func apply(p Post, in Input) (Post, error) {
	var c validate.Collect
	p.Title = c.Str(validate.MinLen("title", in.Title, 5))
	p.Content = c.Str(validate.MinLen("content", in.Content, 20))
	p.Excerpt = c.Str(validate.MinLen("excerpt", in.Excerpt, 10))
	p.Image = c.Str(validate.MinLen("image", in.Image, 5))
	p.Author = c.Str(validate.MinLen("author", in.Author, 2))
	if c.Err != nil {
		return Post{}, c.Err
	}

	var err error
	if p.Category, err = validate.OneOf("category", in.Category, CategoryNews, CategoryResult, CategoryEvent, CategoryStory); err != nil {
		return Post{}, err
	}
	if in.PublishDate != nil && !in.PublishDate.IsZero() {
		p.PublishDate = *in.PublishDate
	}
	if in.IsActive != nil {
		p.IsActive = *in.IsActive
	}
	return p, nil
}

func (s *Service) Get(ctx context.Context, actor workflow.Actor, id string) (Post, error) {
	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return Post{}, err
	}
	if !p.IsActive && !actor.IsAdmin() {
		return Post{}, errs.ErrNotFound
	}
	return p, nil
}

func (s *Service) Delete(ctx context.Context, actor workflow.Actor, id string) error {
	if err := workflow.RequireAdmin(actor); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.notify.Changed(Collection)
	return nil
}

// ToggleActive publica/oculta (rascunho) un post.
func (s *Service) ToggleActive(ctx context.Context, actor workflow.Actor, id string) (Post, error) {
	return s.toggle(ctx, actor, id, func(p Post) (string, bool) { return "isActive", !p.IsActive })
}

// ToggleHighlight destaca un post en la home.
func (s *Service) ToggleHighlight(ctx context.Context, actor workflow.Actor, id string) (Post, error) {
	return s.toggle(ctx, actor, id, func(p Post) (string, bool) { return "isHighlighted", !p.IsHighlighted })
}

// toggle escribe solo la bandera que devuelve flip.
func (s *Service) toggle(ctx context.Context, actor workflow.Actor, id string, flip func(Post) (string, bool)) (Post, error) {
	if err := workflow.RequireAdmin(actor); err != nil {
		return Post{}, err
	}
	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return Post{}, err
	}
	key, v := flip(p)
	p, err = s.repo.Patch(ctx, id, map[string]any{key: v, "updatedAt": s.now()})
	if err != nil {
		return Post{}, err
	}
	s.notify.Changed(Collection)
	return p, nil
}

// Filter para las consultas de posts. Zero value = todos.
type Filter struct {
	ActiveOnly      bool
	Category        Category
	HighlightedOnly bool
	Limit           int
}

func (s *Service) List(ctx context.Context, actor workflow.Actor) ([]Post, error) {
	if err := workflow.RequireAdmin(actor); err != nil {
		return nil, err
	}
	return s.Query(Filter{})(ctx)
}

// ListPublic: posts activos por publishDate desc.
func (s *Service) ListPublic(ctx context.Context, category Category) ([]Post, error) {
	return s.Query(Filter{ActiveOnly: true, Category: category})(ctx)
}

// HighlightedStories: las historias destacadas de la home.
func (s *Service) HighlightedStories(ctx context.Context) ([]Post, error) {
	return s.Query(Filter{ActiveOnly: true, Category: CategoryStory, HighlightedOnly: true, Limit: 3})(ctx)
}

func (s *Service) Query(f Filter) livequery.FetchFunc[Post] {
	return func(ctx context.Context) ([]Post, error) {
		items, err := s.repo.List(ctx)
		if err != nil {
			return nil, err
		}
		out := make([]Post, 0, len(items))
		for _, p := range items {
			if f.ActiveOnly && !p.IsActive {
				continue
			}
			if f.Category != "" && p.Category != f.Category {
				continue
			}
			if f.HighlightedOnly && !p.IsHighlighted {
				continue
			}
			out = append(out, p)
		}
		sort.SliceStable(out, func(i, j int) bool { return out[i].PublishDate.After(out[j].PublishDate) })
		if f.Limit > 0 && len(out) > f.Limit {
			out = out[:f.Limit]
		}
		return out, nil
	}
}

// Excerpt recorta a ExcerptLength caracteres y agrega "...".
func Excerpt(content string) string {
	content = strings.TrimSpace(content)
	if utf8.RuneCountInString(content) > ExcerptLength {
		content = string([]rune(content)[:ExcerptLength])
	}
	return content + "..."
}
