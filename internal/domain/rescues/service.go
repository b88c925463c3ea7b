package rescues

import (
	"context"
	"sort"
	"strings"
	"time"

	"apa-backoffice/internal/domain/validate"
	"apa-backoffice/internal/domain/workflow"
	"apa-backoffice/internal/livequery"
	"apa-backoffice/internal/platform/tabular"

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
	return &Service{repo: repo, bus: bus, notify: notify, machine: newMachine(), now: time.Now}
}

type CreateInput struct {
	Description string
	Location    string
	Urgency     Urgency
	ContactInfo string
}

// Create abre una ocurrencia en pendente.
func (s *Service) Create(ctx context.Context, actor workflow.Actor, in CreateInput) (Rescue, error) {
	if err := workflow.RequireAdmin(actor); err != nil {
		return Rescue{}, err
	}

	var c validate.Collect
	r := Rescue{
		Description: c.Str(validate.MinLen("description", in.Description, 10)),
		Location:    c.Str(validate.MinLen("location", in.Location, 5)),
		ContactInfo: c.Str(validate.MinLen("contactInfo", in.ContactInfo, 5)),
	}
	if c.Err != nil {
		return Rescue{}, c.Err
	}
	urgency := in.Urgency
	if urgency == "" {
		urgency = UrgencyMedium
	}
	var err error
	if r.Urgency, err = validate.OneOf("urgency", urgency, UrgencyLow, UrgencyMedium, UrgencyHigh, UrgencyCritical); err != nil {
		return Rescue{}, err
	}

	now := s.now()
	r.ID = uuid.NewString()
	r.Status = s.machine.Initial()
	r.CreatedBy = actor.UserID
	r.CreatedAt = now
	r.UpdatedAt = now

	if err := s.repo.Create(ctx, r); err != nil {
		return Rescue{}, err
	}
	s.notify.Changed(Collection)
	return r, nil
}

func (s *Service) Transition(ctx context.Context, actor workflow.Actor, id string, to Status) (Rescue, error) {
	if err := workflow.RequireAdmin(actor); err != nil {
		return Rescue{}, err
	}
	r, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return Rescue{}, err
	}
	ch, err := s.machine.Check(actor, r.Status, to, "")
	if err != nil {
		return Rescue{}, err
	}
	if ch.Noop {
		r.Status = ch.To
		return r, nil
	}

	r, err = s.repo.Patch(ctx, id, map[string]any{"status": ch.To, "updatedAt": s.now()})
	if err != nil {
		return Rescue{}, err
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

func (s *Service) Get(ctx context.Context, actor workflow.Actor, id string) (Rescue, error) {
	if err := workflow.RequireAdmin(actor); err != nil {
		return Rescue{}, err
	}
	r, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return Rescue{}, err
	}
	r.Status = s.machine.Normalize(r.Status)
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

// List busca en descripción y localización; createdAt desc.
func (s *Service) List(ctx context.Context, actor workflow.Actor, search string) ([]Rescue, error) {
	if err := workflow.RequireAdmin(actor); err != nil {
		return nil, err
	}
	return s.Query(search)(ctx)
}

func (s *Service) Query(search string) livequery.FetchFunc[Rescue] {
	q := strings.ToLower(strings.TrimSpace(search))
	return func(ctx context.Context) ([]Rescue, error) {
		items, err := s.repo.List(ctx)
		if err != nil {
			return nil, err
		}
		out := make([]Rescue, 0, len(items))
		for _, r := range items {
			r.Status = s.machine.Normalize(r.Status)
			if q != "" &&
				!strings.Contains(strings.ToLower(r.Description), q) &&
				!strings.Contains(strings.ToLower(r.Location), q) {
				continue
			}
			out = append(out, r)
		}
		sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
		return out, nil
	}
}

func (s *Service) Export(ctx context.Context, actor workflow.Actor, search string) (tabular.Table, error) {
	items, err := s.List(ctx, actor, search)
	if err != nil {
		return tabular.Table{}, err
	}
	t := tabular.Table{Header: []string{"Data", "Descrição", "Localização", "Urgência", "Status", "Contato"}}
	for _, r := range items {
		t.Append(tabular.Date(r.CreatedAt), r.Description, r.Location, string(r.Urgency), string(r.Status), r.ContactInfo)
	}
	return t, nil
}
