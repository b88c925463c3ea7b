package pets

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
	repo    Repository
	bus     *workflow.Bus
	notify  livequery.Notifier
	machine *workflow.Machine[Status]
	now     func() time.Time
}

func NewService(repo Repository, bus *workflow.Bus, notify livequery.Notifier) *Service {
	return &Service{
		repo:    repo,
		bus:     bus,
		notify:  notify,
		machine: newMachine(),
		now:     time.Now,
	}
}

func (s *Service) Machine() *workflow.Machine[Status] { return s.machine }

type CreateInput struct {
	Species      Species
	Gender       Gender
	Name         string
	Breed        string
	Color        string
	AgeValue     string
	AgeUnit      string // anos | meses
	Size         Size
	Tags         []string
	Photos       []string
	Description  string
	Address      string
	ContactPhone string
}

// Create: un admin publica directo (disponível); un usuario común deja el anuncio
// pendente hasta que un admin lo apruebe.
func (s *Service) Create(ctx context.Context, actor workflow.Actor, in CreateInput) (Pet, error) {
	if err := workflow.RequireAuthenticated(actor); err != nil {
		return Pet{}, err
	}

	p, err := s.validate(in, !actor.IsAdmin())
	if err != nil {
		return Pet{}, err
	}

	now := s.now()
	p.ID = uuid.NewString()
	p.UserID = actor.UserID
	p.Status = StatusPending
	if actor.IsAdmin() {
		p.Status = StatusAvailable
	}
	p.CreatedAt = now
	p.UpdatedAt = now

	if err := s.repo.Create(ctx, p); err != nil {
		return Pet{}, err
	}
	s.notify.Changed(Collection)
	s.bus.Publish(ctx, workflow.Event{
		Machine:  MachineName,
		RecordID: p.ID,
		To:       string(p.Status),
		Actor:    actor,
		At:       now,
		Record:   p,
	})
	return p, nil
}

func (s *Service) validate(in CreateInput, phoneRequired bool) (Pet, error) {
	var c validate.Collect
	p := Pet{
		Name:        c.Str(validate.MinLen("name", in.Name, 2)),
		Description: c.Str(validate.MinLen("description", in.Description, 10)),
		Address:     c.Str(validate.MinLen("address", in.Address, 5)),
		Breed:       strings.TrimSpace(in.Breed),
		Color:       strings.TrimSpace(in.Color),
	}
	if c.Err != nil {
		return Pet{}, c.Err
	}

	var err error
	if p.Species, err = validate.OneOf("species", in.Species, SpeciesDog, SpeciesCat); err != nil {
		return Pet{}, err
	}
	if p.Gender, err = validate.OneOf("gender", in.Gender, GenderMale, GenderFemale); err != nil {
		return Pet{}, err
	}
	if p.Size, err = validate.OneOf("size", in.Size, SizeSmall, SizeMedium, SizeLarge); err != nil {
		return Pet{}, err
	}

	age, err := validate.Required("age", in.AgeValue)
	if err != nil {
		return Pet{}, err
	}
	unit, err := validate.OneOf("ageUnit", firstNonEmpty(in.AgeUnit, "anos"), "anos", "meses")
	if err != nil {
		return Pet{}, err
	}
	p.Age = age + " " + unit

	if phoneRequired || strings.TrimSpace(in.ContactPhone) != "" {
		if p.ContactPhone, err = validate.Phone("contactPhone", in.ContactPhone); err != nil {
			return Pet{}, err
		}
	}

	if p.Photos, err = cleanPhotos(in.Photos); err != nil {
		return Pet{}, err
	}
	p.Tags = cleanTags(in.Tags)
	return p, nil
}

func cleanPhotos(in []string) ([]string, error) {
	out := make([]string, 0, len(in))
	for _, ph := range in {
		u, err := validate.OptionalURL("photos", ph)
		if err != nil {
			return nil, err
		}
		if u != "" {
			out = append(out, u)
		}
	}
	if len(out) > MaxPhotos {
		return nil, errs.Invalid("photos", "at most 3 photos")
	}
	return out, nil
}

func cleanTags(in []string) []string {
	seen := map[string]struct{}{}
	out := make([]string, 0, len(in))
	for _, t := range in {
		t = strings.TrimSpace(t)
		if t == "" {
			continue
		}
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}

// Get: los anuncios pendentes solo los ve un admin o quien los cargó.
func (s *Service) Get(ctx context.Context, actor workflow.Actor, id string) (Pet, error) {
	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return Pet{}, err
	}
	p.Status = s.machine.Normalize(p.Status)
	if p.Status == StatusPending && !actor.IsAdmin() && (p.UserID == "" || p.UserID != actor.UserID) {
		return Pet{}, errs.ErrNotFound
	}
	return p, nil
}

// PetName implementa medical.PetDirectory.
func (s *Service) PetName(ctx context.Context, petID string) (string, error) {
	p, err := s.repo.GetByID(ctx, petID)
	if err != nil {
		return "", err
	}
	return p.Name, nil
}

// AdoptionInfo implementa leads.PetDirectory: solo un anuncio disponível acepta pedidos.
func (s *Service) AdoptionInfo(ctx context.Context, petID string) (name string, available bool, err error) {
	p, err := s.repo.GetByID(ctx, petID)
	if err != nil {
		return "", false, err
	}
	return p.Name, s.machine.Normalize(p.Status) == StatusAvailable, nil
}

// Approve publica un anuncio pendente.
func (s *Service) Approve(ctx context.Context, actor workflow.Actor, id string) (Pet, error) {
	return s.SetStatus(ctx, actor, id, StatusAvailable)
}

// Reject borra un anuncio que todavía está pendente.
func (s *Service) Reject(ctx context.Context, actor workflow.Actor, id string) error {
	if err := workflow.RequireAdmin(actor); err != nil {
		return err
	}
	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if from := s.machine.Normalize(p.Status); from != StatusPending {
		return &errs.IllegalTransitionError{Machine: MachineName, From: string(from), To: "rejected"}
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.notify.Changed(Collection)
	return nil
}

func (s *Service) SetStatus(ctx context.Context, actor workflow.Actor, id string, to Status) (Pet, error) {
	if err := workflow.RequireAdmin(actor); err != nil {
		return Pet{}, err
	}
	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return Pet{}, err
	}

	ch, err := s.machine.Check(actor, p.Status, to, "")
	if err != nil {
		return Pet{}, err
	}
	if ch.Noop {
		p.Status = ch.To
		return p, nil
	}

	p, err = s.repo.Patch(ctx, id, map[string]any{"status": ch.To, "updatedAt": s.now()})
	if err != nil {
		return Pet{}, err
	}
	s.notify.Changed(Collection)
	s.bus.Publish(ctx, workflow.Event{
		Machine:  MachineName,
		RecordID: p.ID,
		From:     string(ch.From),
		To:       string(ch.To),
		Actor:    actor,
		At:       p.UpdatedAt,
		Record:   p,
	})
	return p, nil
}

// UpdateInput: punteros para PATCH real, nil = no tocar. El estado se cambia con SetStatus.
type UpdateInput struct {
	Species      *Species
	Gender       *Gender
	Name         *string
	Breed        *string
	Color        *string
	Age          *string
	Size         *Size
	Tags         *[]string
	Photos       *[]string
	Description  *string
	Address      *string
	ContactPhone *string
}

// Update escribe solo los campos presentes en in; lo que otro admin cambió en
// paralelo (estado, orden u otros campos) se conserva.
func (s *Service) Update(ctx context.Context, actor workflow.Actor, id string, in UpdateInput) (Pet, error) {
	if err := workflow.RequireAdmin(actor); err != nil {
		return Pet{}, err
	}
	if _, err := s.repo.GetByID(ctx, id); err != nil {
		return Pet{}, err
	}

	fields := map[string]any{}
	var c validate.Collect
	if in.Name != nil {
		fields["name"] = c.Str(validate.MinLen("name", *in.Name, 2))
	}
	if in.Description != nil {
		fields["description"] = c.Str(validate.MinLen("description", *in.Description, 10))
	}
	if in.Address != nil {
		fields["address"] = c.Str(validate.MinLen("address", *in.Address, 5))
	}
	if in.Age != nil {
		fields["age"] = c.Str(validate.Required("age", *in.Age))
	}
	if in.ContactPhone != nil {
		fields["contactPhone"] = c.Str(validate.Phone("contactPhone", *in.ContactPhone))
	}
	if c.Err != nil {
		return Pet{}, c.Err
	}

	if in.Species != nil {
		v, err := validate.OneOf("species", *in.Species, SpeciesDog, SpeciesCat)
		if err != nil {
			return Pet{}, err
		}
		fields["species"] = v
	}
	if in.Gender != nil {
		v, err := validate.OneOf("gender", *in.Gender, GenderMale, GenderFemale)
		if err != nil {
			return Pet{}, err
		}
		fields["gender"] = v
	}
	if in.Size != nil {
		v, err := validate.OneOf("size", *in.Size, SizeSmall, SizeMedium, SizeLarge)
		if err != nil {
			return Pet{}, err
		}
		fields["size"] = v
	}
	if in.Breed != nil {
		fields["breed"] = strings.TrimSpace(*in.Breed)
	}
	if in.Color != nil {
		fields["color"] = strings.TrimSpace(*in.Color)
	}
	if in.Tags != nil {
		fields["tags"] = cleanTags(*in.Tags)
	}
	if in.Photos != nil {
		photos, err := cleanPhotos(*in.Photos)
		if err != nil {
			return Pet{}, err
		}
		fields["photos"] = photos
	}

	fields["updatedAt"] = s.now()
	p, err := s.repo.Patch(ctx, id, fields)
	if err != nil {
		return Pet{}, err
	}
	p.Status = s.machine.Normalize(p.Status)
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

// Reorder fija el orden de la vitrina. Los ids deben existir y no repetirse.
func (s *Service) Reorder(ctx context.Context, actor workflow.Actor, ids []string) error {
	if err := workflow.RequireAdmin(actor); err != nil {
		return err
	}
	if len(ids) == 0 {
		return errs.Invalid("ids", "empty order")
	}
	seen := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		if _, dup := seen[id]; dup {
			return errs.Invalid("ids", "duplicated id "+id)
		}
		seen[id] = struct{}{}
	}
	if err := s.repo.Reorder(ctx, ids); err != nil {
		return err
	}
	s.notify.Changed(Collection)
	return nil
}

// List (admin) devuelve todos los anuncios en el orden de la vitrina.
func (s *Service) List(ctx context.Context, actor workflow.Actor) ([]Pet, error) {
	if err := workflow.RequireAdmin(actor); err != nil {
		return nil, err
	}
	return s.ListQuery(nil)(ctx)
}

// ListAvailable es la vitrina pública.
func (s *Service) ListAvailable(ctx context.Context) ([]Pet, error) {
	return s.ListQuery([]Status{StatusAvailable})(ctx)
}

// ListMine devuelve lo que cargó el usuario, con su estado.
func (s *Service) ListMine(ctx context.Context, actor workflow.Actor) ([]Pet, error) {
	if err := workflow.RequireAuthenticated(actor); err != nil {
		return nil, err
	}
	items, err := s.ListQuery(nil)(ctx)
	if err != nil {
		return nil, err
	}
	out := items[:0]
	for _, p := range items {
		if p.UserID == actor.UserID {
			out = append(out, p)
		}
	}
	return out, nil
}

// ListQuery es la consulta (también usada por las suscripciones en vivo).
// statuses vacío = todos.
func (s *Service) ListQuery(statuses []Status) livequery.FetchFunc[Pet] {
	return func(ctx context.Context) ([]Pet, error) {
		items, err := s.repo.List(ctx)
		if err != nil {
			return nil, err
		}
		out := make([]Pet, 0, len(items))
		for _, p := range items {
			p.Status = s.machine.Normalize(p.Status)
			if len(statuses) > 0 && !hasStatus(statuses, p.Status) {
				continue
			}
			out = append(out, p)
		}
		SortForShowcase(out)
		return out, nil
	}
}

// SortForShowcase: sortOrder asc (sin sortOrder al final), después createdAt desc.
func SortForShowcase(items []Pet) {
	sort.SliceStable(items, func(i, j int) bool {
		a, b := items[i], items[j]
		switch {
		case a.SortOrder != nil && b.SortOrder != nil && *a.SortOrder != *b.SortOrder:
			return *a.SortOrder < *b.SortOrder
		case a.SortOrder != nil && b.SortOrder == nil:
			return true
		case a.SortOrder == nil && b.SortOrder != nil:
			return false
		}
		return a.CreatedAt.After(b.CreatedAt)
	})
}

func (s *Service) Stats(ctx context.Context) (Stats, error) {
	items, err := s.ListQuery(nil)(ctx)
	if err != nil {
		return Stats{}, err
	}
	var st Stats
	for _, p := range items {
		st.Total++
		switch p.Status {
		case StatusPending:
			st.Pending++
		case StatusAvailable:
			st.Available++
		case StatusAdopted:
			st.Adopted++
		case StatusUnavailable:
			st.Unavailable++
		}
		switch p.Species {
		case SpeciesDog:
			st.Dogs++
		case SpeciesCat:
			st.Cats++
		}
	}
	return st, nil
}

func hasStatus(list []Status, s Status) bool {
	for _, x := range list {
		if x == s {
			return true
		}
	}
	return false
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
