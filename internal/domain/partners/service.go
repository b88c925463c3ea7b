package partners

import (
	"context"
	"sort"
	"strings"
	"time"

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
	Name        string
	Logo        string
	Website     string
	Description string
	Order       int
	IsActive    *bool
}

func apply(p Partner, in Input) (Partner, error) {
	var c validate.Collect
	p.Name = c.Str(validate.MinLen("name", in.Name, 2))
	p.Logo = c.Str(validate.MinLen("logo", in.Logo, 5))
	p.Website = c.Str(validate.OptionalURL("website", in.Website))
	if c.Err != nil {
		return Partner{}, c.Err
	}
	p.Description = strings.TrimSpace(in.Description)
	p.Order = in.Order
	if in.IsActive != nil {
		p.IsActive = *in.IsActive
	}
	return p, nil
}

func (s *Service) Create(ctx context.Context, actor workflow.Actor, in Input) (Partner, error) {
	if err := workflow.RequireAdmin(actor); err != nil {
		return Partner{}, err
	}
	now := s.now()
	p, err := apply(Partner{ID: uuid.NewString(), IsActive: true, CreatedAt: now}, in)
	if err != nil {
		return Partner{}, err
	}
	p.UpdatedAt = now
	if err := s.repo.Create(ctx, p); err != nil {
		return Partner{}, err
	}
	s.notify.Changed(Collection)
	return p, nil
}

func (s *Service) Update(ctx context.Context, actor workflow.Actor, id string, in Input) (Partner, error) {
	if err := workflow.RequireAdmin(actor); err != nil {
		return Partner{}, err
	}
	v, err := apply(Partner{}, in)
	if err != nil {
		return Partner{}, err
	}
	fields := map[string]any{
		"name":        v.Name,
		"logo":        v.Logo,
		"website":     v.Website,
		"description": v.Description,
		"order":       v.Order,
		"updatedAt":   s.now(),
	}
	if in.IsActive != nil {
		fields["isActive"] = v.IsActive
	}
	p, err := s.repo.Patch(ctx, id, fields)
	if err != nil {
		return Partner{}, err
	}
	s.notify.Changed(Collection)
	return p, nil
}

func (s *Service) ToggleActive(ctx context.Context, actor workflow.Actor, id string) (Partner, error) {
	if err := workflow.RequireAdmin(actor); err != nil {
		return Partner{}, err
	}
	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return Partner{}, err
	}
	p, err = s.repo.Patch(ctx, id, map[string]any{"isActive": !p.IsActive, "updatedAt": s.now()})
	if err != nil {
		return Partner{}, err
	}
	s.notify.Changed(Collection)
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

func (s *Service) List(ctx context.Context, actor workflow.Actor) ([]Partner, error) {
	if err := workflow.RequireAdmin(actor); err != nil {
		return nil, err
	}
	return s.Query(false)(ctx)
}

// ListPublic: solo activos, por order asc.
func (s *Service) ListPublic(ctx context.Context) ([]Partner, error) {
	return s.Query(true)(ctx)
}

func (s *Service) Query(activeOnly bool) livequery.FetchFunc[Partner] {
	return func(ctx context.Context) ([]Partner, error) {
		items, err := s.repo.List(ctx)
		if err != nil {
			return nil, err
		}
		out := make([]Partner, 0, len(items))
		for _, p := range items {
			if activeOnly && !p.IsActive {
				continue
			}
			out = append(out, p)
		}
		sort.SliceStable(out, func(i, j int) bool {
			if out[i].Order != out[j].Order {
				return out[i].Order < out[j].Order
			}
			return out[i].Name < out[j].Name
		})
		return out, nil
	}
}
