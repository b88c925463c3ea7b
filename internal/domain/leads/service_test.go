package leads

import (
	"context"
	"encoding/json"
	"errors"
	"sort"
	"sync"
	"testing"
	"time"

	"apa-backoffice/internal/domain/errs"
	"apa-backoffice/internal/domain/workflow"
	"apa-backoffice/internal/ports/docstore"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// -------------------------
// Test repo (in-memory)
// -------------------------

type testRepo struct {
	mu      sync.Mutex
	byID    map[string]Lead
	patches []map[string]any
}

func newTestRepo() *testRepo {
	return &testRepo{byID: map[string]Lead{}}
}

func (r *testRepo) CreateUnlessActive(ctx context.Context, l Lead) (Lead, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, x := range r.byID {
		if x.Kind == l.Kind && x.UserID == l.UserID && x.PetID == l.PetID && x.Status.Active() {
			return x, errs.ErrConflict
		}
	}
	r.byID[l.ID] = l
	return l, nil
}

func (r *testRepo) ReopenUnlessActive(ctx context.Context, l Lead, fields map[string]any) (Lead, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, x := range r.byID {
		if x.ID != l.ID && x.Kind == l.Kind && x.UserID == l.UserID && x.PetID == l.PetID && x.Status.Active() {
			return x, errs.ErrConflict
		}
	}
	return r.patch(l.Kind, l.ID, fields)
}

func (r *testRepo) Patch(ctx context.Context, kind Kind, id string, fields map[string]any) (Lead, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.patch(kind, id, fields)
}

func (r *testRepo) patch(kind Kind, id string, fields map[string]any) (Lead, error) {
	cur, ok := r.byID[id]
	if !ok || cur.Kind != kind {
		return Lead{}, errs.ErrNotFound
	}
	b, err := json.Marshal(cur)
	if err != nil {
		return Lead{}, err
	}
	if b, err = docstore.Merge(b, fields); err != nil {
		return Lead{}, err
	}
	var out Lead
	if err := json.Unmarshal(b, &out); err != nil {
		return Lead{}, err
	}
	r.byID[id] = out
	r.patches = append(r.patches, fields)
	return out, nil
}

func (r *testRepo) GetByID(ctx context.Context, kind Kind, id string) (Lead, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	l, ok := r.byID[id]
	if !ok || l.Kind != kind {
		return Lead{}, errs.ErrNotFound
	}
	return l, nil
}

func (r *testRepo) List(ctx context.Context, kind Kind, f Filter) ([]Lead, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Lead, 0)
	for _, l := range r.byID {
		if l.Kind != kind || (f.UserID != "" && l.UserID != f.UserID) || (f.PetID != "" && l.PetID != f.PetID) {
			continue
		}
		if len(f.Statuses) > 0 && !containsStatus(f.Statuses, l.Status.Normalize()) {
			continue
		}
		out = append(out, l)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if f.Limit > 0 && len(out) > f.Limit {
		out = out[:f.Limit]
	}
	return out, nil
}

func (r *testRepo) Delete(ctx context.Context, kind Kind, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byID[id]; !ok {
		return errs.ErrNotFound
	}
	delete(r.byID, id)
	return nil
}

func (r *testRepo) put(l Lead) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byID[l.ID] = l
}

func containsStatus(list []Status, s Status) bool {
	for _, x := range list {
		if x == s {
			return true
		}
	}
	return false
}

type testPet struct {
	name      string
	available bool
}

type testPets map[string]testPet

func (p testPets) AdoptionInfo(ctx context.Context, petID string) (string, bool, error) {
	pet, ok := p[petID]
	if !ok {
		return "", false, errs.ErrNotFound
	}
	return pet.name, pet.available, nil
}

type testNotifier struct {
	mu      sync.Mutex
	changed []string
}

func (n *testNotifier) Changed(collections ...string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.changed = append(n.changed, collections...)
}

// -------------------------
// Helpers
// -------------------------

var (
	admin = workflow.Actor{UserID: "admin-1", Role: workflow.RoleAdmin}
	ana   = workflow.Actor{UserID: "ana", Email: "ana@example.com", Role: workflow.RoleUser}
	bia   = workflow.Actor{UserID: "bia", Role: workflow.RoleUser}
)

type fixture struct {
	svc    *Service
	repo   *testRepo
	notify *testNotifier
	events []workflow.Event
	clock  time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		repo:   newTestRepo(),
		notify: &testNotifier{},
		clock:  time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC),
	}
	bus := workflow.NewBus(nil)
	bus.Subscribe(workflow.AllMachines, func(ctx context.Context, e workflow.Event) error {
		f.events = append(f.events, e)
		return nil
	})
	f.svc = NewService(f.repo, testPets{
		"pet-1":    {name: "Thor", available: true},
		"pet-2":    {name: "Luna", available: true},
		"pet-wait": {name: "Bolt"},
		"pet-gone": {name: "Mel"},
	}, bus, f.notify)
	f.svc.now = func() time.Time {
		f.clock = f.clock.Add(time.Minute)
		return f.clock
	}
	return f
}

func adoptionInput(petID string) SubmitInput {
	return SubmitInput{
		PetID:   petID,
		Name:    "Ana Souza",
		Phone:   "(42) 99999-0000",
		Message: "Tenho quintal grande",
	}
}

// -------------------------
// Tests
// -------------------------

func TestSubmit_AlwaysPendingRegardlessOfInput(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	in := adoptionInput("pet-1")
	in.Status = StatusApproved

	l, err := f.svc.Submit(ctx, ana, KindAdoption, in)
	require.NoError(t, err)
	assert.Equal(t, StatusPending, l.Status)
	assert.Equal(t, "Thor", l.PetName)
	assert.Equal(t, "42999990000", l.Phone)
	assert.Equal(t, "ana@example.com", l.Email)
	assert.Equal(t, "ana", l.UserID)
	assert.Equal(t, []string{"leads_adoption"}, f.notify.changed)
}

func TestSubmit_RequiresAuthenticatedActor(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.Submit(context.Background(), workflow.Actor{}, KindAdoption, adoptionInput("pet-1"))
	assert.True(t, errors.Is(err, errs.ErrUnauthorized))
}

func TestSubmit_Validation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	cases := []struct {
		name  string
		kind  Kind
		in    SubmitInput
		field string
	}{
		{"short phone", KindAdoption, SubmitInput{PetID: "pet-1", Name: "Ana", Phone: "4299999"}, "phone"},
		{"missing name", KindAdoption, SubmitInput{PetID: "pet-1", Phone: "42999990000"}, "name"},
		{"missing pet", KindAdoption, SubmitInput{Name: "Ana", Phone: "42999990000"}, "petId"},
		{"unknown pet", KindAdoption, SubmitInput{PetID: "nope", Name: "Ana", Phone: "42999990000"}, "petId"},
		{"pending pet", KindAdoption, SubmitInput{PetID: "pet-wait", Name: "Ana", Phone: "42999990000"}, "petId"},
		{"adopted pet", KindAdoption, SubmitInput{PetID: "pet-gone", Name: "Ana", Phone: "42999990000"}, "petId"},
		{"bad area", KindVolunteer, SubmitInput{Name: "Ana", Phone: "42999990000", Area: "cozinha"}, "area"},
		{"bad dwelling", KindFoster, SubmitInput{Name: "Ana", Phone: "42999990000", Foster: FosterDetails{Address: "Rua A, 123", DwellingType: "barco"}}, "dwellingType"},
		{"short address", KindFoster, SubmitInput{Name: "Ana", Phone: "42999990000", Foster: FosterDetails{Address: "Rua", DwellingType: DwellingHouse}}, "address"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := f.svc.Submit(ctx, ana, tc.kind, tc.in)
			var ve *errs.ValidationError
			require.True(t, errors.As(err, &ve), "got %v", err)
			assert.Equal(t, tc.field, ve.Field)
		})
	}
}

func TestSubmit_VolunteerAndFoster(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	v, err := f.svc.Submit(ctx, ana, KindVolunteer, SubmitInput{Name: "Ana", Phone: "42999990000", Area: AreaWalks})
	require.NoError(t, err)
	require.NotNil(t, v.Volunteer)
	assert.Equal(t, AreaWalks, v.Volunteer.Area)

	lt, err := f.svc.Submit(ctx, ana, KindFoster, SubmitInput{
		Name:  "Ana",
		Phone: "42999990000",
		Foster: FosterDetails{
			Address:      "Rua das Flores, 10",
			DwellingType: DwellingApartment,
			HasOtherPets: "sim",
		},
	})
	require.NoError(t, err)
	require.NotNil(t, lt.Foster)
	assert.Equal(t, DwellingApartment, lt.Foster.DwellingType)
}

func TestSubmit_ActiveLeadConflictReturnsExisting(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	first, err := f.svc.Submit(ctx, ana, KindAdoption, adoptionInput("pet-1"))
	require.NoError(t, err)

	existing, err := f.svc.Submit(ctx, ana, KindAdoption, adoptionInput("pet-1"))
	assert.True(t, errors.Is(err, errs.ErrConflict))
	assert.Equal(t, first.ID, existing.ID)

	// otra mascota no choca
	_, err = f.svc.Submit(ctx, ana, KindAdoption, adoptionInput("pet-2"))
	assert.NoError(t, err)
}

func TestSubmit_RejectedLeadDoesNotBlockFreshSubmission(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	first, err := f.svc.Submit(ctx, ana, KindAdoption, adoptionInput("pet-1"))
	require.NoError(t, err)
	_, err = f.svc.Transition(ctx, admin, KindAdoption, first.ID, StatusRejected, "Perfil incompleto")
	require.NoError(t, err)

	second, err := f.svc.Submit(ctx, ana, KindAdoption, adoptionInput("pet-1"))
	require.NoError(t, err)
	assert.NotEqual(t, first.ID, second.ID)

	cur, ok, err := f.svc.Current(ctx, ana, KindAdoption, "pet-1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, second.ID, cur.ID)
	assert.Equal(t, StatusPending, cur.Status)
}

func TestTransition_RejectScenario(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	l, err := f.svc.Submit(ctx, ana, KindAdoption, adoptionInput("pet-1"))
	require.NoError(t, err)

	// sin motivo => validación, el lead sigue pending
	_, err = f.svc.Transition(ctx, admin, KindAdoption, l.ID, StatusRejected, "   ")
	var ve *errs.ValidationError
	require.True(t, errors.As(err, &ve))
	assert.Equal(t, "reason", ve.Field)
	got, _ := f.repo.GetByID(ctx, KindAdoption, l.ID)
	assert.Equal(t, StatusPending, got.Status)

	rejected, err := f.svc.Transition(ctx, admin, KindAdoption, l.ID, StatusRejected, "Perfil incompleto")
	require.NoError(t, err)
	assert.Equal(t, StatusRejected, rejected.Status)
	assert.Equal(t, "Perfil incompleto", rejected.RejectionReason)

	// Ana ve su lead rechazado con el motivo
	cur, ok, err := f.svc.Current(ctx, ana, KindAdoption, "pet-1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, StatusRejected, cur.Status)
	assert.Equal(t, "Perfil incompleto", cur.DisplayRejectionReason())

	require.Len(t, f.events, 2) // envío + rechazo
	assert.Equal(t, "leads.adoption", f.events[1].Machine)
	assert.Equal(t, "pending", f.events[1].From)
	assert.Equal(t, "rejected", f.events[1].To)
}

func TestTransition_NonAdminIsUnauthorized(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	l, err := f.svc.Submit(ctx, ana, KindAdoption, adoptionInput("pet-1"))
	require.NoError(t, err)

	for _, target := range []Status{StatusApproved, StatusRejected, "bogus"} {
		_, err := f.svc.Transition(ctx, ana, KindAdoption, l.ID, target, "x")
		assert.True(t, errors.Is(err, errs.ErrUnauthorized), "target %s", target)
	}
}

func TestTransition_IllegalAndIdempotent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	l, err := f.svc.Submit(ctx, ana, KindAdoption, adoptionInput("pet-1"))
	require.NoError(t, err)

	a1, err := f.svc.Transition(ctx, admin, KindAdoption, l.ID, StatusApproved, "")
	require.NoError(t, err)
	events := len(f.events)
	writes := len(f.notify.changed)

	// aprobar dos veces: no-op sin efectos
	a2, err := f.svc.Transition(ctx, admin, KindAdoption, l.ID, StatusApproved, "")
	require.NoError(t, err)
	assert.Equal(t, a1.Status, a2.Status)
	assert.Equal(t, a1.UpdatedAt, a2.UpdatedAt)
	assert.Len(t, f.events, events)
	assert.Len(t, f.notify.changed, writes)

	_, err = f.svc.Transition(ctx, admin, KindAdoption, l.ID, StatusContacted, "")
	require.NoError(t, err)

	_, err = f.svc.Transition(ctx, admin, KindAdoption, l.ID, StatusRejected, "tarde demais")
	var ite *errs.IllegalTransitionError
	require.True(t, errors.As(err, &ite))
	assert.Equal(t, "contacted", ite.From)
	assert.Equal(t, "rejected", ite.To)
}

func TestRead_MissingStatusDefaultsToPending(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.repo.put(Lead{ID: "legacy", Kind: KindVolunteer, UserID: "ana", Name: "Ana", CreatedAt: time.Now()})

	l, err := f.svc.Get(ctx, admin, KindVolunteer, "legacy")
	require.NoError(t, err)
	assert.Equal(t, StatusPending, l.Status)

	// y bloquea un nuevo envío como cualquier lead activo
	_, err = f.svc.Submit(ctx, ana, KindVolunteer, SubmitInput{Name: "Ana", Phone: "42999990000", Area: AreaOther})
	assert.True(t, errors.Is(err, errs.ErrConflict))

	// el admin puede aprobarlo desde el default
	approved, err := f.svc.Transition(ctx, admin, KindVolunteer, "legacy", StatusApproved, "")
	require.NoError(t, err)
	assert.Equal(t, StatusApproved, approved.Status)
}

func TestReopen_OwnerOrAdminOnly(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	l, err := f.svc.Submit(ctx, ana, KindAdoption, adoptionInput("pet-1"))
	require.NoError(t, err)
	_, err = f.svc.Transition(ctx, admin, KindAdoption, l.ID, StatusRejected, "Perfil incompleto")
	require.NoError(t, err)

	_, err = f.svc.Reopen(ctx, bia, KindAdoption, l.ID)
	assert.True(t, errors.Is(err, errs.ErrUnauthorized))

	reopened, err := f.svc.Reopen(ctx, ana, KindAdoption, l.ID)
	require.NoError(t, err)
	assert.Equal(t, l.ID, reopened.ID)
	assert.Equal(t, StatusPending, reopened.Status)
	assert.Empty(t, reopened.DisplayRejectionReason())

	// aprobado no se reabre
	_, err = f.svc.Transition(ctx, admin, KindAdoption, l.ID, StatusApproved, "")
	require.NoError(t, err)
	_, err = f.svc.Reopen(ctx, ana, KindAdoption, l.ID)
	assert.True(t, errors.Is(err, errs.ErrIllegalTransition))
}

func TestReopen_ConflictsWithNewerActiveLead(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	old, err := f.svc.Submit(ctx, ana, KindAdoption, adoptionInput("pet-1"))
	require.NoError(t, err)
	_, err = f.svc.Transition(ctx, admin, KindAdoption, old.ID, StatusRejected, "Perfil incompleto")
	require.NoError(t, err)
	fresh, err := f.svc.Submit(ctx, ana, KindAdoption, adoptionInput("pet-1"))
	require.NoError(t, err)
	events := len(f.events)

	existing, err := f.svc.Reopen(ctx, ana, KindAdoption, old.ID)
	assert.True(t, errors.Is(err, errs.ErrConflict))
	assert.Equal(t, fresh.ID, existing.ID)

	// el admin tampoco puede devolverlo a pending mientras el otro siga activo
	_, err = f.svc.Transition(ctx, admin, KindAdoption, old.ID, StatusPending, "")
	assert.True(t, errors.Is(err, errs.ErrConflict))

	got, _ := f.repo.GetByID(ctx, KindAdoption, old.ID)
	assert.Equal(t, StatusRejected, got.Status)
	assert.Equal(t, "Perfil incompleto", got.RejectionReason)
	assert.Len(t, f.events, events)

	active, err := f.svc.List(ctx, admin, KindAdoption, Filter{UserID: "ana", Statuses: ActiveStatuses})
	require.NoError(t, err)
	assert.Len(t, active, 1)

	// rechazado el nuevo, el viejo ya se puede reabrir
	_, err = f.svc.Transition(ctx, admin, KindAdoption, fresh.ID, StatusRejected, "Duplicado")
	require.NoError(t, err)
	reopened, err := f.svc.Reopen(ctx, ana, KindAdoption, old.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusPending, reopened.Status)
}

func TestTransition_WritesOnlyWorkflowFields(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	l, err := f.svc.Submit(ctx, ana, KindAdoption, adoptionInput("pet-1"))
	require.NoError(t, err)
	_, err = f.svc.Transition(ctx, admin, KindAdoption, l.ID, StatusRejected, "Sem quintal")
	require.NoError(t, err)

	require.Len(t, f.repo.patches, 1)
	var keys []string
	for k := range f.repo.patches[0] {
		keys = append(keys, k)
	}
	assert.ElementsMatch(t, []string{"status", "rejectionReason", "updatedAt"}, keys)
}

func TestGet_UserSeesOnlyOwnLeads(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	l, err := f.svc.Submit(ctx, ana, KindAdoption, adoptionInput("pet-1"))
	require.NoError(t, err)

	_, err = f.svc.Get(ctx, bia, KindAdoption, l.ID)
	assert.True(t, errors.Is(err, errs.ErrForbidden))

	_, err = f.svc.Get(ctx, ana, KindAdoption, l.ID)
	assert.NoError(t, err)
}

func TestListAndExport_AdminOnly(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	l1, _ := f.svc.Submit(ctx, ana, KindAdoption, adoptionInput("pet-1"))
	_, _ = f.svc.Submit(ctx, bia, KindAdoption, adoptionInput("pet-1"))
	_, err := f.svc.Transition(ctx, admin, KindAdoption, l1.ID, StatusRejected, "Sem quintal, casa pequena")
	require.NoError(t, err)

	_, err = f.svc.List(ctx, ana, KindAdoption, Filter{})
	assert.True(t, errors.Is(err, errs.ErrUnauthorized))

	pending, err := f.svc.List(ctx, admin, KindAdoption, Filter{Statuses: []Status{StatusPending}})
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, "bia", pending[0].UserID)

	tb, err := f.svc.Export(ctx, admin, KindAdoption)
	require.NoError(t, err)
	assert.Equal(t, "Motivo Rejeição", tb.Header[7])
	require.Len(t, tb.Rows, 2)
	assert.Equal(t, "(42) 99999-0000", tb.Rows[0][3])

	b, err := tb.Bytes()
	require.NoError(t, err)
	assert.Contains(t, string(b), `"Sem quintal, casa pequena"`)
}

func TestDelete_AdminPurge(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	l, _ := f.svc.Submit(ctx, ana, KindAdoption, adoptionInput("pet-1"))

	assert.True(t, errors.Is(f.svc.Delete(ctx, ana, KindAdoption, l.ID), errs.ErrUnauthorized))
	require.NoError(t, f.svc.Delete(ctx, admin, KindAdoption, l.ID))

	_, ok, err := f.svc.Current(ctx, ana, KindAdoption, "pet-1")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestWatchSubmissions_EchoesBeforeWrite(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	ch, stop := f.svc.WatchSubmissions(KindAdoption, "ana")
	defer stop()

	l, err := f.svc.Submit(ctx, ana, KindAdoption, adoptionInput("pet-1"))
	require.NoError(t, err)

	select {
	case got := <-ch:
		assert.Equal(t, l.ID, got.ID)
	default:
		t.Fatal("expected speculative echo")
	}
}
