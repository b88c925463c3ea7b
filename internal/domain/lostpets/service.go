package lostpets

import (
	"context"
	"sort"
	"strings"
	"time"

	"apa-backoffice/internal/domain/errs"
	"apa-backoffice/internal/domain/validate"
	"apa-backoffice/internal/domain/workflow"
	"apa-backoffice/internal/livequery"

	"github.com/google/uuid"
)

type Service struct {
	repo       Repository
	bus        *workflow.Bus
	notify     livequery.Notifier
	status     *workflow.Machine[Status]
	moderation *workflow.Machine[Moderation]
	now        func() time.Time
}

func NewService(repo Repository, bus *workflow.Bus, notify livequery.Notifier) *Service {
	return &Service{
		repo:       repo,
		bus:        bus,
		notify:     notify,
		status:     newStatusMachine(),
		moderation: newModerationMachine(),
		now:        time.Now,
	}
}

type ReportInput struct {
	Name             string
	Species          Species
	Status           Status
	Description      string
	LastSeenLocation string
	LastSeenDate     string
	ContactPhone     string
	PhotoURL         string
	HasReward        bool
	RewardValue      string

	// ModerationStatus se ignora: todo anuncio entra pending.
	ModerationStatus Moderation
}

// Report publica un anuncio para moderación.
func (s *Service) Report(ctx context.Context, actor workflow.Actor, in ReportInput) (LostPet, error) {
	if err := workflow.RequireAuthenticated(actor); err != nil {
		return LostPet{}, err
	}

	var c validate.Collect
	p := LostPet{
		Name:             c.Str(validate.MinLen("name", in.Name, 2)),
		Description:      c.Str(validate.MinLen("description", in.Description, 10)),
		LastSeenLocation: c.Str(validate.MinLen("lastSeenLocation", in.LastSeenLocation, 5)),
		LastSeenDate:     c.Str(validate.Required("lastSeenDate", in.LastSeenDate)),
		ContactPhone:     c.Str(validate.Phone("contactPhone", in.ContactPhone)),
		PhotoURL:         c.Str(validate.OptionalURL("photoUrl", in.PhotoURL)),
	}
	if c.Err != nil {
		return LostPet{}, c.Err
	}

	var err error
	if p.Species, err = validate.OneOf("species", in.Species, SpeciesDog, SpeciesCat, SpeciesOther); err != nil {
		return LostPet{}, err
	}
	p.Status = StatusLost
	if in.Status != "" {
		if p.Status, err = validate.OneOf("status", in.Status, StatusLost, StatusFound); err != nil {
			return LostPet{}, err
		}
	}
	if in.HasReward {
		p.HasReward = true
		p.RewardValue = strings.TrimSpace(in.RewardValue)
	}

	now := s.now()
	p.ID = uuid.NewString()
	p.UserID = actor.UserID
	p.ModerationStatus = s.moderation.Initial()
	p.CreatedAt = now
	p.UpdatedAt = now

	if err := s.repo.Create(ctx, p); err != nil {
		return LostPet{}, err
	}
	s.notify.Changed(Collection)
	return p, nil
}

// Moderate aprueba o rechaza un anuncio.
func (s *Service) Moderate(ctx context.Context, actor workflow.Actor, id string, to Moderation) (LostPet, error) {
	if err := workflow.RequireAdmin(actor); err != nil {
		return LostPet{}, err
	}
	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return LostPet{}, err
	}

	ch, err := s.moderation.Check(actor, p.ModerationStatus, to, "")
	if err != nil {
		return LostPet{}, err
	}
	p = s.normalize(p)
	if ch.Noop {
		return p, nil
	}

	// solo el eje de moderación: un cambio de status concurrente se conserva
	p, err = s.repo.Patch(ctx, id, map[string]any{"moderationStatus": ch.To, "updatedAt": s.now()})
	if err != nil {
		return LostPet{}, err
	}
	p = s.normalize(p)
	s.notify.Changed(Collection)
	s.bus.Publish(ctx, workflow.Event{
		Machine:  ModerationMachine,
		RecordID: p.ID,
		From:     string(ch.From),
		To:       string(ch.To),
		Actor:    actor,
		At:       p.UpdatedAt,
		Record:   p,
	})
	return p, nil
}

// Story es el texto opcional de la historia de final feliz.
type Story struct {
	Title   string
	Content string
}

// SetStatus mueve el anuncio entre perdido y encontrado. La entrada a encontrado
// emite un evento con Record Found (los posts crean la historia de éxito).
func (s *Service) SetStatus(ctx context.Context, actor workflow.Actor, id string, to Status, story Story) (LostPet, error) {
	if err := workflow.RequireAdmin(actor); err != nil {
		return LostPet{}, err
	}
	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return LostPet{}, err
	}
	return s.setStatus(ctx, actor, p, to, story)
}

// ToggleStatus invierte perdido <-> encontrado.
func (s *Service) ToggleStatus(ctx context.Context, actor workflow.Actor, id string, story Story) (LostPet, error) {
	if err := workflow.RequireAdmin(actor); err != nil {
		return LostPet{}, err
	}
	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return LostPet{}, err
	}
	to := StatusFound
	if s.status.Normalize(p.Status) == StatusFound {
		to = StatusLost
	}
	return s.setStatus(ctx, actor, p, to, story)
}

func (s *Service) setStatus(ctx context.Context, actor workflow.Actor, p LostPet, to Status, story Story) (LostPet, error) {
	ch, err := s.status.Check(actor, p.Status, to, "")
	if err != nil {
		return LostPet{}, err
	}
	p = s.normalize(p)
	if ch.Noop {
		return p, nil
	}

	p, err = s.repo.Patch(ctx, p.ID, map[string]any{"status": ch.To, "updatedAt": s.now()})
	if err != nil {
		return LostPet{}, err
	}
	p = s.normalize(p)
	s.notify.Changed(Collection)

	var record any = p
	if ch.To == StatusFound {
		record = Found{Pet: p, Title: strings.TrimSpace(story.Title), Content: strings.TrimSpace(story.Content)}
	}
	s.bus.Publish(ctx, workflow.Event{
		Machine:  StatusMachine,
		RecordID: p.ID,
		From:     string(ch.From),
		To:       string(ch.To),
		Actor:    actor,
		At:       p.UpdatedAt,
		Record:   record,
	})
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

func (s *Service) Get(ctx context.Context, actor workflow.Actor, id string) (LostPet, error) {
	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return LostPet{}, err
	}
	p = s.normalize(p)
	if p.ModerationStatus != ModerationApproved && !actor.IsAdmin() && p.UserID != actor.UserID {
		return LostPet{}, errs.ErrNotFound
	}
	return p, nil
}

// ListPublic: solo anuncios aprobados, más recientes primero.
func (s *Service) ListPublic(ctx context.Context) ([]LostPet, error) {
	return s.ListQuery(ModerationApproved)(ctx)
}

// ListForModeration devuelve la pestaña pedida y los contadores de las tres.
// Un anuncio sin moderationStatus cuenta como pending.
func (s *Service) ListForModeration(ctx context.Context, actor workflow.Actor, tab Moderation) ([]LostPet, Counts, error) {
	if err := workflow.RequireAdmin(actor); err != nil {
		return nil, Counts{}, err
	}
	all, err := s.ListQuery("")(ctx)
	if err != nil {
		return nil, Counts{}, err
	}

	var counts Counts
	out := make([]LostPet, 0)
	for _, p := range all {
		switch p.ModerationStatus {
		case ModerationPending:
			counts.Pending++
		case ModerationApproved:
			counts.Approved++
		case ModerationRejected:
			counts.Rejected++
		}
		if tab == "" || p.ModerationStatus == tab {
			out = append(out, p)
		}
	}
	return out, counts, nil
}

func (s *Service) ListMine(ctx context.Context, actor workflow.Actor) ([]LostPet, error) {
	if err := workflow.RequireAuthenticated(actor); err != nil {
		return nil, err
	}
	all, err := s.ListQuery("")(ctx)
	if err != nil {
		return nil, err
	}
	out := all[:0]
	for _, p := range all {
		if p.UserID == actor.UserID {
			out = append(out, p)
		}
	}
	return out, nil
}

// ListQuery filtra por moderación (vacío = todas) y ordena por createdAt desc.
func (s *Service) ListQuery(moderation Moderation) livequery.FetchFunc[LostPet] {
	return func(ctx context.Context) ([]LostPet, error) {
		items, err := s.repo.List(ctx)
		if err != nil {
			return nil, err
		}
		out := make([]LostPet, 0, len(items))
		for _, p := range items {
			p = s.normalize(p)
			if moderation != "" && p.ModerationStatus != moderation {
				continue
			}
			out = append(out, p)
		}
		sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
		return out, nil
	}
}

func (s *Service) normalize(p LostPet) LostPet {
	p.Status = s.status.Normalize(p.Status)
	p.ModerationStatus = s.moderation.Normalize(p.ModerationStatus)
	return p
}
