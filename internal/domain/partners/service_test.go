package partners

import (
	"context"
	"encoding/json"
	"errors"
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
	byID map[string]Partner
}

func (r *testRepo) Create(ctx context.Context, p Partner) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byID[p.ID] = p
	return nil
}

func (r *testRepo) Patch(ctx context.Context, id string, fields map[string]any) (Partner, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	cur, ok := r.byID[id]
	if !ok {
		return Partner{}, errs.ErrNotFound
	}
	b, err := json.Marshal(cur)
	if err != nil {
		return Partner{}, err
	}
	if b, err = docstore.Merge(b, fields); err != nil {
		return Partner{}, err
	}
	var out Partner
	if err := json.Unmarshal(b, &out); err != nil {
		return Partner{}, err
	}
	r.byID[id] = out
	return out, nil
}

func (r *testRepo) GetByID(ctx context.Context, id string) (Partner, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.byID[id]
	if !ok {
		return Partner{}, errs.ErrNotFound
	}
	return p, nil
}

func (r *testRepo) List(ctx context.Context) ([]Partner, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Partner, 0, len(r.byID))
	for _, p := range r.byID {
		out = append(out, p)
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

type nopNotifier struct{}

func (nopNotifier) Changed(...string) {}

var (
	admin = workflow.Actor{UserID: "admin-1", Role: workflow.RoleAdmin}
	user  = workflow.Actor{UserID: "u1", Role: workflow.RoleUser}
)

func newTestService() *Service {
	svc := NewService(&testRepo{byID: map[string]Partner{}}, nopNotifier{})
	svc.now = func() time.Time { return time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC) }
	return svc
}

func TestCreate_Validation(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	_, err := svc.Create(ctx, user, Input{Name: "Pet Shop", Logo: "https://x.io/l.png"})
	assert.True(t, errors.Is(err, errs.ErrUnauthorized))

	cases := map[string]Input{
		"name":    {Name: "P", Logo: "https://x.io/l.png"},
		"logo":    {Name: "Pet Shop", Logo: "x"},
		"website": {Name: "Pet Shop", Logo: "https://x.io/l.png", Website: "petshop"},
	}
	for field, in := range cases {
		t.Run(field, func(t *testing.T) {
			_, err := svc.Create(ctx, admin, in)
			var ve *errs.ValidationError
			require.True(t, errors.As(err, &ve), "got %v", err)
			assert.Equal(t, field, ve.Field)
		})
	}
}

func TestListPublic_ActiveByOrder(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	b, err := svc.Create(ctx, admin, Input{Name: "Banco", Logo: "https://x.io/b.png", Order: 2})
	require.NoError(t, err)
	a, err := svc.Create(ctx, admin, Input{Name: "Agro", Logo: "https://x.io/a.png", Order: 1})
	require.NoError(t, err)
	c, err := svc.Create(ctx, admin, Input{Name: "Clínica", Logo: "https://x.io/c.png", Order: 0})
	require.NoError(t, err)

	_, err = svc.ToggleActive(ctx, admin, c.ID)
	require.NoError(t, err)

	items, err := svc.ListPublic(ctx)
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, a.ID, items[0].ID)
	assert.Equal(t, b.ID, items[1].ID)

	all, err := svc.List(ctx, admin)
	require.NoError(t, err)
	assert.Len(t, all, 3)
	assert.Equal(t, c.ID, all[0].ID)
}

func TestUpdate_KeepsActiveFlagUnlessSent(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	p, err := svc.Create(ctx, admin, Input{Name: "Banco", Logo: "https://x.io/b.png"})
	require.NoError(t, err)
	_, err = svc.ToggleActive(ctx, admin, p.ID)
	require.NoError(t, err)

	u, err := svc.Update(ctx, admin, p.ID, Input{Name: "Banco Sul", Logo: "https://x.io/b.png", Order: 3})
	require.NoError(t, err)
	assert.Equal(t, "Banco Sul", u.Name)
	assert.Equal(t, 3, u.Order)
	assert.False(t, u.IsActive)
}
