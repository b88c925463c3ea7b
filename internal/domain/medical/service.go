package medical

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"

	"apa-backoffice/internal/domain/errs"
	"apa-backoffice/internal/domain/validate"
	"apa-backoffice/internal/domain/workflow"
	"apa-backoffice/internal/livequery"
	"apa-backoffice/internal/platform/tabular"

	"github.com/google/uuid"
)

type Service struct {
	repo    Repository
	pets    PetDirectory
	bus     *workflow.Bus
	notify  livequery.Notifier
	machine *workflow.Machine[Status]
	now     func() time.Time
}

func NewService(repo Repository, pets PetDirectory, bus *workflow.Bus, notify livequery.Notifier) *Service {
	return &Service{
		repo:    repo,
		pets:    pets,
		bus:     bus,
		notify:  notify,
		machine: newMachine(),
		now:     time.Now,
	}
}

type CreateInput struct {
	PetID     string
	Type      RecordType
	Procedure string
	VetName   string
	Date      time.Time
	Notes     string
	Status    Status
}

// Create registra un procedimiento. Solo el admin lleva el prontuário.
func (s *Service) Create(ctx context.Context, actor workflow.Actor, in CreateInput) (Record, error) {
	if err := workflow.RequireAdmin(actor); err != nil {
		return Record{}, err
	}

	var c validate.Collect
	petID := c.Str(validate.Required("petId", in.PetID))
	procedure := c.Str(validate.MinLen("procedure", in.Procedure, 5))
	vet := c.Str(validate.MinLen("vetName", in.VetName, 3))
	if c.Err != nil {
		return Record{}, c.Err
	}
	typ, err := validate.OneOf("type", in.Type, RecordTypes...)
	if err != nil {
		return Record{}, err
	}
	if in.Date.IsZero() {
		return Record{}, errs.Invalid("date", "required")
	}

	// un registro puede cargarse ya concluido (p.ej. vacuna aplicada)
	status := s.machine.Initial()
	if in.Status != "" {
		if !s.machine.Valid(in.Status) {
			return Record{}, errs.Invalid("status", "unknown status "+string(in.Status))
		}
		status = in.Status
	}

	petName, err := s.pets.PetName(ctx, petID)
	if err != nil {
		if errors.Is(err, errs.ErrNotFound) {
			return Record{}, errs.Invalid("petId", "pet not found")
		}
		return Record{}, err
	}

	now := s.now()
	r := Record{
		ID:        uuid.NewString(),
		PetID:     petID,
		PetName:   petName,
		Type:      typ,
		Procedure: procedure,
		VetName:   vet,
		Date:      in.Date,
		Notes:     strings.TrimSpace(in.Notes),
		Status:    status,
		CreatedBy: actor.UserID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.repo.Create(ctx, r); err != nil {
		return Record{}, err
	}
	s.notify.Changed(Collection)
	return r, nil
}

func (s *Service) Get(ctx context.Context, actor workflow.Actor, id string) (Record, error) {
	if err := workflow.RequireAdmin(actor); err != nil {
		return Record{}, err
	}
	r, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return Record{}, err
	}
	r.Status = s.machine.Normalize(r.Status)
	return r, nil
}

// Transition: agendado -> concluido/cancelado, cancelado -> agendado.
func (s *Service) Transition(ctx context.Context, actor workflow.Actor, id string, to Status) (Record, error) {
	if err := workflow.RequireAdmin(actor); err != nil {
		return Record{}, err
	}
	r, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return Record{}, err
	}
	ch, err := s.machine.Check(actor, r.Status, to, "")
	if err != nil {
		return Record{}, err
	}
	if ch.Noop {
		r.Status = ch.To
		return r, nil
	}

	r, err = s.repo.Patch(ctx, id, map[string]any{"status": ch.To, "updatedAt": s.now()})
	if err != nil {
		return Record{}, err
	}
	s.notify.Changed(Collection)
	s.bus.Publish(ctx, workflow.Event{
		Machine:  MachineName,
		RecordID: r.ID,
		From:     string(ch.From),
		To:       string(ch.To),
		Actor:    actor,
		At:       r.UpdatedAt,
		Record:   r,
	})
	return r, nil
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

func (s *Service) List(ctx context.Context, actor workflow.Actor, f ListFilter) ([]Record, error) {
	if err := workflow.RequireAdmin(actor); err != nil {
		return nil, err
	}
	return s.Query(f)(ctx)
}

// Query ordena por fecha del procedimiento desc.
func (s *Service) Query(f ListFilter) livequery.FetchFunc[Record] {
	return func(ctx context.Context) ([]Record, error) {
		items, err := s.repo.List(ctx, strings.TrimSpace(f.PetID))
		if err != nil {
			return nil, err
		}
		q := strings.ToLower(strings.TrimSpace(f.Query))

		out := make([]Record, 0, len(items))
		for _, r := range items {
			r.Status = s.machine.Normalize(r.Status)
			if len(f.Types) > 0 && !hasType(f.Types, r.Type) {
				continue
			}
			if f.From != nil && r.Date.Before(*f.From) {
				continue
			}
			if f.To != nil && r.Date.After(*f.To) {
				continue
			}
			if q != "" && !matches(r, q) {
				continue
			}
			out = append(out, r)
		}
		sort.SliceStable(out, func(i, j int) bool { return out[i].Date.After(out[j].Date) })
		if f.Limit > 0 && len(out) > f.Limit {
			out = out[:f.Limit]
		}
		return out, nil
	}
}

func hasType(types []RecordType, t RecordType) bool {
	for _, x := range types {
		if x == t {
			return true
		}
	}
	return false
}

func matches(r Record, q string) bool {
	for _, field := range []string{r.PetName, r.Procedure, r.VetName} {
		if strings.Contains(strings.ToLower(field), q) {
			return true
		}
	}
	return false
}

// Export arma el CSV con el mismo filtro de la pantalla.
func (s *Service) Export(ctx context.Context, actor workflow.Actor, f ListFilter) (tabular.Table, error) {
	items, err := s.List(ctx, actor, f)
	if err != nil {
		return tabular.Table{}, err
	}
	t := tabular.Table{Header: []string{"Data", "Pet", "Procedimento", "Tipo", "Veterinário", "Status", "Notas"}}
	for _, r := range items {
		t.Append(tabular.Date(r.Date), r.PetName, r.Procedure, string(r.Type), r.VetName, string(r.Status), r.Notes)
	}
	return t, nil
}
