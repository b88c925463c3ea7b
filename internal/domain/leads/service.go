package leads

import (
	"context"
	"errors"
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
	repo     Repository
	pets     PetDirectory
	bus      *workflow.Bus
	notify   livequery.Notifier
	machines map[Kind]*workflow.Machine[Status]
	watch    watchers
	now      func() time.Time
}

func NewService(repo Repository, pets PetDirectory, bus *workflow.Bus, notify livequery.Notifier) *Service {
	ms := map[Kind]*workflow.Machine[Status]{}
	for _, k := range Kinds {
		ms[k] = newMachine(k)
	}
	return &Service{
		repo:     repo,
		pets:     pets,
		bus:      bus,
		notify:   notify,
		machines: ms,
		now:      time.Now,
	}
}

func (s *Service) Machine(k Kind) *workflow.Machine[Status] { return s.machines[k] }

type SubmitInput struct {
	PetID   string
	Name    string
	Email   string
	Phone   string
	Message string

	Area   VolunteerArea
	Foster FosterDetails

	// Status se ignora siempre: el estado inicial lo decide el servidor.
	Status Status
}

// Submit crea un lead en pending. Si el usuario ya tiene uno activo devuelve ese lead
// junto con errs.ErrConflict.
func (s *Service) Submit(ctx context.Context, actor workflow.Actor, kind Kind, in SubmitInput) (Lead, error) {
	if err := workflow.RequireAuthenticated(actor); err != nil {
		return Lead{}, err
	}
	m, ok := s.machines[kind]
	if !ok {
		return Lead{}, errs.Invalid("kind", "unknown lead kind")
	}

	var c validate.Collect
	name := c.Str(validate.MinLen("name", in.Name, 2))
	phone := c.Str(validate.Phone("phone", in.Phone))
	if c.Err != nil {
		return Lead{}, c.Err
	}

	now := s.now()
	l := Lead{
		ID:        uuid.NewString(),
		Kind:      kind,
		UserID:    actor.UserID,
		Name:      name,
		Email:     strings.TrimSpace(firstNonEmpty(in.Email, actor.Email)),
		Phone:     phone,
		Message:   strings.TrimSpace(in.Message),
		Status:    m.Initial(),
		CreatedAt: now,
		UpdatedAt: now,
	}

	switch kind {
	case KindAdoption:
		petID, err := validate.Required("petId", in.PetID)
		if err != nil {
			return Lead{}, err
		}
		petName, available, err := s.pets.AdoptionInfo(ctx, petID)
		if err != nil {
			if errors.Is(err, errs.ErrNotFound) {
				return Lead{}, errs.Invalid("petId", "pet not found")
			}
			return Lead{}, err
		}
		if !available {
			return Lead{}, errs.Invalid("petId", "pet not available for adoption")
		}
		l.PetID = petID
		l.PetName = petName

	case KindVolunteer:
		area, err := validate.OneOf("area", in.Area, AreaCleaning, AreaEvents, AreaWalks, AreaOther)
		if err != nil {
			return Lead{}, err
		}
		l.Volunteer = &VolunteerDetails{Area: area}

	case KindFoster:
		f, err := validateFoster(in.Foster)
		if err != nil {
			return Lead{}, err
		}
		l.Foster = &f
	}

	// eco optimista; si la escritura falla, el Changed de abajo fuerza un snapshot que lo descarta
	s.watch.emit(l)

	existing, err := s.repo.CreateUnlessActive(ctx, l)
	if err != nil {
		s.notify.Changed(kind.Collection())
		if errors.Is(err, errs.ErrConflict) {
			existing.Status = m.Normalize(existing.Status)
			return existing, err
		}
		return Lead{}, err
	}

	s.notify.Changed(kind.Collection())
	s.bus.Publish(ctx, workflow.Event{
		Machine:  kind.MachineName(),
		RecordID: l.ID,
		To:       string(l.Status),
		Actor:    actor,
		At:       now,
		Record:   l,
	})
	return l, nil
}

func validateFoster(in FosterDetails) (FosterDetails, error) {
	var c validate.Collect
	out := FosterDetails{
		Address:          c.Str(validate.MinLen("address", in.Address, 5)),
		HasOtherPets:     strings.TrimSpace(in.HasOtherPets),
		PetDetails:       strings.TrimSpace(in.PetDetails),
		HouseholdCount:   strings.TrimSpace(in.HouseholdCount),
		SpaceDescription: strings.TrimSpace(in.SpaceDescription),
		Availability:     strings.TrimSpace(in.Availability),
	}
	if c.Err != nil {
		return FosterDetails{}, c.Err
	}

	dt, err := validate.OneOf("dwellingType", in.DwellingType, DwellingHouse, DwellingApartment, DwellingFarm)
	if err != nil {
		return FosterDetails{}, err
	}
	out.DwellingType = dt

	if out.HasOtherPets != "" && out.HasOtherPets != "sim" && out.HasOtherPets != "nao" {
		return FosterDetails{}, errs.Invalid("hasOtherPets", "must be sim or nao")
	}
	return out, nil
}

// Current devuelve el lead más reciente del usuario (para adopción, de esa mascota),
// sea cual sea su estado. ok=false si nunca postuló.
func (s *Service) Current(ctx context.Context, actor workflow.Actor, kind Kind, petID string) (Lead, bool, error) {
	if err := workflow.RequireAuthenticated(actor); err != nil {
		return Lead{}, false, err
	}
	items, err := s.repo.List(ctx, kind, s.currentFilter(actor.UserID, kind, petID))
	if err != nil {
		return Lead{}, false, err
	}
	return s.latest(kind, items)
}

// CurrentQuery es la consulta en vivo equivalente a Current, para suscripciones.
func (s *Service) CurrentQuery(userID string, kind Kind, petID string) livequery.FetchFunc[Lead] {
	return func(ctx context.Context) ([]Lead, error) {
		items, err := s.repo.List(ctx, kind, s.currentFilter(userID, kind, petID))
		if err != nil {
			return nil, err
		}
		l, ok, _ := s.latest(kind, items)
		if !ok {
			return []Lead{}, nil
		}
		return []Lead{l}, nil
	}
}

func (s *Service) currentFilter(userID string, kind Kind, petID string) Filter {
	f := Filter{UserID: userID, Limit: 1}
	if kind == KindAdoption {
		f.PetID = strings.TrimSpace(petID)
	}
	return f
}

func (s *Service) latest(kind Kind, items []Lead) (Lead, bool, error) {
	l, ok := workflow.Latest(items, func(l Lead) time.Time { return l.CreatedAt })
	if !ok {
		return Lead{}, false, nil
	}
	l.Status = s.machines[kind].Normalize(l.Status)
	return l, true, nil
}

// Get: el admin ve cualquiera; el usuario solo los suyos.
func (s *Service) Get(ctx context.Context, actor workflow.Actor, kind Kind, id string) (Lead, error) {
	if err := workflow.RequireAuthenticated(actor); err != nil {
		return Lead{}, err
	}
	l, err := s.repo.GetByID(ctx, kind, id)
	if err != nil {
		return Lead{}, err
	}
	if !actor.IsAdmin() && l.UserID != actor.UserID {
		return Lead{}, errs.ErrForbidden
	}
	l.Status = s.machines[kind].Normalize(l.Status)
	return l, nil
}

// List es la cola de moderación del admin.
func (s *Service) List(ctx context.Context, actor workflow.Actor, kind Kind, f Filter) ([]Lead, error) {
	if err := workflow.RequireAdmin(actor); err != nil {
		return nil, err
	}
	return s.ListQuery(kind, f)(ctx)
}

func (s *Service) ListQuery(kind Kind, f Filter) livequery.FetchFunc[Lead] {
	return func(ctx context.Context) ([]Lead, error) {
		items, err := s.repo.List(ctx, kind, f)
		if err != nil {
			return nil, err
		}
		m := s.machines[kind]
		for i := range items {
			items[i].Status = m.Normalize(items[i].Status)
		}
		return items, nil
	}
}

// Transition aplica un cambio de estado hecho por el admin.
func (s *Service) Transition(ctx context.Context, actor workflow.Actor, kind Kind, id string, to Status, reason string) (Lead, error) {
	m, ok := s.machines[kind]
	if !ok {
		return Lead{}, errs.Invalid("kind", "unknown lead kind")
	}
	if err := workflow.RequireAdmin(actor); err != nil {
		return Lead{}, err
	}

	l, err := s.repo.GetByID(ctx, kind, id)
	if err != nil {
		return Lead{}, err
	}

	ch, err := m.Check(actor, l.Status, to, reason)
	if err != nil {
		return Lead{}, err
	}
	return s.apply(ctx, actor, m, l, ch)
}

// Reopen vuelve un lead rechazado a pending sobre el mismo id. Lo puede hacer el admin
// o quien lo envió ("tentar novamente").
func (s *Service) Reopen(ctx context.Context, actor workflow.Actor, kind Kind, id string) (Lead, error) {
	m, ok := s.machines[kind]
	if !ok {
		return Lead{}, errs.Invalid("kind", "unknown lead kind")
	}
	if err := workflow.RequireAuthenticated(actor); err != nil {
		return Lead{}, err
	}

	l, err := s.repo.GetByID(ctx, kind, id)
	if err != nil {
		return Lead{}, err
	}
	if !actor.IsAdmin() && l.UserID != actor.UserID {
		return Lead{}, errs.ErrUnauthorized
	}

	from := m.Normalize(l.Status)
	if from != StatusRejected && from != StatusPending {
		return Lead{}, &errs.IllegalTransitionError{Machine: m.Name(), From: string(from), To: string(StatusPending)}
	}

	ch, err := m.CheckAs(from, StatusPending, "")
	if err != nil {
		return Lead{}, err
	}
	return s.apply(ctx, actor, m, l, ch)
}

func (s *Service) apply(ctx context.Context, actor workflow.Actor, m *workflow.Machine[Status], l Lead, ch workflow.Change[Status]) (Lead, error) {
	if ch.Noop {
		l.Status = ch.To
		return l, nil
	}

	fields := map[string]any{"status": ch.To, "updatedAt": s.now()}
	switch ch.To {
	case StatusRejected:
		fields["rejectionReason"] = ch.Reason
	case StatusPending:
		fields["rejectionReason"] = ""
	}

	var err error
	if !ch.From.Active() && ch.To.Active() {
		// reabrir no puede dejar dos leads activos del mismo usuario
		var cur Lead
		cur, err = s.repo.ReopenUnlessActive(ctx, l, fields)
		if errors.Is(err, errs.ErrConflict) {
			cur.Status = m.Normalize(cur.Status)
			return cur, err
		}
		l = cur
	} else {
		l, err = s.repo.Patch(ctx, l.Kind, l.ID, fields)
	}
	if err != nil {
		return Lead{}, err
	}
	l.Status = m.Normalize(l.Status)

	s.notify.Changed(l.Kind.Collection())
	s.bus.Publish(ctx, workflow.Event{
		Machine:  m.Name(),
		RecordID: l.ID,
		From:     string(ch.From),
		To:       string(ch.To),
		Actor:    actor,
		At:       l.UpdatedAt,
		Record:   l,
	})
	return l, nil
}

// Delete borra el documento (sin soft-delete).
func (s *Service) Delete(ctx context.Context, actor workflow.Actor, kind Kind, id string) error {
	if err := workflow.RequireAdmin(actor); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, kind, id); err != nil {
		return err
	}
	s.notify.Changed(kind.Collection())
	return nil
}

// Export arma el CSV de leads del tipo indicado.
func (s *Service) Export(ctx context.Context, actor workflow.Actor, kind Kind) (tabular.Table, error) {
	items, err := s.List(ctx, actor, kind, Filter{})
	if err != nil {
		return tabular.Table{}, err
	}

	t := tabular.Table{Header: []string{"Data", "Nome", "Email", "Telefone", "Pet ID", "Mensagem", "Status", "Motivo Rejeição"}}
	for _, l := range items {
		t.Append(
			tabular.Date(l.CreatedAt),
			l.Name,
			l.Email,
			validate.MaskPhone(l.Phone),
			l.PetID,
			l.Message,
			string(l.Status),
			l.RejectionReason,
		)
	}
	return t, nil
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
