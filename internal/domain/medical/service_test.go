package medical

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"apa-backoffice/internal/domain/errs"
	"apa-backoffice/internal/domain/workflow"
	"apa-backoffice/internal/ports/docstore"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testRepo struct {
	mu   sync.Mutex
	byID map[string]Record
}

func (r *testRepo) Create(ctx context.Context, rec Record) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byID[rec.ID] = rec
	return nil
}

func (r *testRepo) Patch(ctx context.Context, id string, fields map[string]any) (Record, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	cur, ok := r.byID[id]
	if !ok {
		return Record{}, errs.ErrNotFound
	}
	b, err := json.Marshal(cur)
	if err != nil {
		return Record{}, err
	}
	if b, err = docstore.Merge(b, fields); err != nil {
		return Record{}, err
	}
	var out Record
	if err := json.Unmarshal(b, &out); err != nil {
		return Record{}, err
	}
	r.byID[id] = out
	return out, nil
}

func (r *testRepo) GetByID(ctx context.Context, id string) (Record, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.byID[id]
	if !ok {
		return Record{}, errs.ErrNotFound
	}
	return rec, nil
}

func (r *testRepo) List(ctx context.Context, petID string) ([]Record, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []Record{}
	for _, rec := range r.byID {
		if petID == "" || rec.PetID == petID {
			out = append(out, rec)
		}
	}
	return out, nil
}

func (r *testRepo) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byID[id]; !ok {
		return errs.ErrNotFound
	}
	delete(r.byID, id)
	return nil
}

type testPets map[string]string

func (p testPets) PetName(ctx context.Context, id string) (string, error) {
	n, ok := p[id]
	if !ok {
		return "", errs.ErrNotFound
	}
	return n, nil
}

type nopNotifier struct{}

func (nopNotifier) Changed(...string) {}

var (
	admin = workflow.Actor{UserID: "admin-1", Role: workflow.RoleAdmin}
	user  = workflow.Actor{UserID: "u1", Role: workflow.RoleUser}
)

func newTestService() *Service {
	svc := NewService(&testRepo{byID: map[string]Record{}}, testPets{"p1": "Rex", "p2": "Mia"}, workflow.NewBus(nil), nopNotifier{})
	svc.now = func() time.Time { return time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC) }
	return svc
}

func day(d int) time.Time { return time.Date(2025, 2, d, 0, 0, 0, 0, time.UTC) }

func validInput() CreateInput {
	return CreateInput{
		PetID:     "p1",
		Type:      TypeVaccine,
		Procedure: "Vacina V10",
		VetName:   "Dra. Paula",
		Date:      day(10),
	}
}

func TestCreate_AdminOnlyAndValidation(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	_, err := svc.Create(ctx, user, validInput())
	assert.True(t, errors.Is(err, errs.ErrUnauthorized))

	rec, err := svc.Create(ctx, admin, validInput())
	require.NoError(t, err)
	assert.Equal(t, "Rex", rec.PetName)
	assert.Equal(t, StatusScheduled, rec.Status)

	cases := map[string]func(*CreateInput){
		"petId":     func(in *CreateInput) { in.PetID = "nope" },
		"procedure": func(in *CreateInput) { in.Procedure = "V10" },
		"vetName":   func(in *CreateInput) { in.VetName = "Dr" },
		"type":      func(in *CreateInput) { in.Type = "banho" },
		"date":      func(in *CreateInput) { in.Date = time.Time{} },
		"status":    func(in *CreateInput) { in.Status = "feito" },
	}
	for field, mutate := range cases {
		t.Run(field, func(t *testing.T) {
			in := validInput()
			mutate(&in)
			_, err := svc.Create(ctx, admin, in)
			var ve *errs.ValidationError
			require.True(t, errors.As(err, &ve), "got %v", err)
			assert.Equal(t, field, ve.Field)
		})
	}
}

func TestTransition(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	rec, err := svc.Create(ctx, admin, validInput())
	require.NoError(t, err)

	_, err = svc.Transition(ctx, user, rec.ID, StatusDone)
	assert.True(t, errors.Is(err, errs.ErrUnauthorized))

	got, err := svc.Transition(ctx, admin, rec.ID, StatusDone)
	require.NoError(t, err)
	assert.Equal(t, StatusDone, got.Status)

	_, err = svc.Transition(ctx, admin, rec.ID, StatusScheduled)
	assert.True(t, errors.Is(err, errs.ErrIllegalTransition))

	// cancelado vuelve a agendado
	in := validInput()
	in.Status = StatusCanceled
	c, err := svc.Create(ctx, admin, in)
	require.NoError(t, err)
	back, err := svc.Transition(ctx, admin, c.ID, StatusScheduled)
	require.NoError(t, err)
	assert.Equal(t, StatusScheduled, back.Status)
}

func TestList_FilterSearchAndOrder(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	mk := func(petID string, typ RecordType, proc string, d int) Record {
		in := validInput()
		in.PetID, in.Type, in.Procedure, in.Date = petID, typ, proc, day(d)
		rec, err := svc.Create(ctx, admin, in)
		require.NoError(t, err)
		return rec
	}
	a := mk("p1", TypeVaccine, "Vacina V10", 1)
	b := mk("p2", TypeExam, "Hemograma completo", 5)
	c := mk("p1", TypeSurgery, "Castração", 3)

	all, err := svc.List(ctx, admin, ListFilter{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, []string{b.ID, c.ID, a.ID}, []string{all[0].ID, all[1].ID, all[2].ID})

	byPet, err := svc.List(ctx, admin, ListFilter{PetID: "p1"})
	require.NoError(t, err)
	assert.Len(t, byPet, 2)

	found, err := svc.List(ctx, admin, ListFilter{Query: "mia"})
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, b.ID, found[0].ID)

	from := day(2)
	ranged, err := svc.List(ctx, admin, ListFilter{From: &from, Types: []RecordType{TypeSurgery, TypeVaccine}})
	require.NoError(t, err)
	require.Len(t, ranged, 1)
	assert.Equal(t, c.ID, ranged[0].ID)

	_, err = svc.List(ctx, user, ListFilter{})
	assert.True(t, errors.Is(err, errs.ErrUnauthorized))
}

func TestExport(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	in := validInput()
	in.Notes = "Reação leve, observar"
	_, err := svc.Create(ctx, admin, in)
	require.NoError(t, err)

	tbl, err := svc.Export(ctx, admin, ListFilter{})
	require.NoError(t, err)
	b, err := tbl.Bytes()
	require.NoError(t, err)

	out := string(b)
	assert.True(t, strings.Contains(out, "Data,Pet,Procedimento,Tipo,Veterinário,Status,Notas"))
	assert.True(t, strings.Contains(out, `10/02/2025,Rex,Vacina V10,vacina,Dra. Paula,agendado,"Reação leve, observar"`))
}
