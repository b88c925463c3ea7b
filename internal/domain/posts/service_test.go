package posts

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"apa-backoffice/internal/domain/errs"
	"apa-backoffice/internal/domain/lostpets"
	"apa-backoffice/internal/domain/workflow"
	"apa-backoffice/internal/ports/docstore"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memRepo[T any] struct {
	mu   sync.Mutex
	id   func(T) string
	byID map[string]T
}

func newMemRepo[T any](id func(T) string) *memRepo[T] {
	return &memRepo[T]{id: id, byID: map[string]T{}}
}

func (r *memRepo[T]) Create(ctx context.Context, v T) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byID[r.id(v)] = v
	return nil
}

func (r *memRepo[T]) Patch(ctx context.Context, id string, fields map[string]any) (T, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out T
	cur, ok := r.byID[id]
	if !ok {
		return out, errs.ErrNotFound
	}
	b, err := json.Marshal(cur)
	if err != nil {
		return out, err
	}
	if b, err = docstore.Merge(b, fields); err != nil {
		return out, err
	}
	if err := json.Unmarshal(b, &out); err != nil {
		return out, err
	}
	r.byID[id] = out
	return out, nil
}

func (r *memRepo[T]) GetByID(ctx context.Context, id string) (T, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	v, ok := r.byID[id]
	if !ok {
		return v, errs.ErrNotFound
	}
	return v, nil
}

func (r *memRepo[T]) List(ctx context.Context) ([]T, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]T, 0, len(r.byID))
	for _, v := range r.byID {
		out = append(out, v)
	}
	return out, nil
}

func (r *memRepo[T]) Delete(ctx context.Context, id string) error {
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

func newTestService() (*Service, *memRepo[Post]) {
	repo := newMemRepo(func(p Post) string { return p.ID })
	svc := NewService(repo, nopNotifier{})
	t0 := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	svc.now = func() time.Time {
		t0 = t0.Add(time.Minute)
		return t0
	}
	return svc, repo
}

func validInput() Input {
	return Input{
		Title:    "Feira de adoção",
		Content:  "Neste sábado teremos feira de adoção na praça central.",
		Excerpt:  "Feira de adoção no sábado",
		Image:    "https://cdn.example.com/feira.jpg",
		Category: CategoryEvent,
		Author:   "Equipe APA",
	}
}

func TestCreate_AdminOnlyAndValidation(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	_, err := svc.Create(ctx, user, validInput())
	assert.True(t, errors.Is(err, errs.ErrUnauthorized))

	p, err := svc.Create(ctx, admin, validInput())
	require.NoError(t, err)
	assert.True(t, p.IsActive)
	assert.False(t, p.IsHighlighted)

	cases := map[string]func(*Input){
		"title":    func(in *Input) { in.Title = "Oi" },
		"content":  func(in *Input) { in.Content = "curto" },
		"excerpt":  func(in *Input) { in.Excerpt = "curto" },
		"author":   func(in *Input) { in.Author = "A" },
		"category": func(in *Input) { in.Category = "blog" },
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

func TestListPublic_ActiveByPublishDate(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	old := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	in := validInput()
	in.PublishDate = &old
	a, err := svc.Create(ctx, admin, in)
	require.NoError(t, err)

	b, err := svc.Create(ctx, admin, validInput())
	require.NoError(t, err)

	draft := validInput()
	off := false
	draft.IsActive = &off
	d, err := svc.Create(ctx, admin, draft)
	require.NoError(t, err)

	items, err := svc.ListPublic(ctx, "")
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, b.ID, items[0].ID)
	assert.Equal(t, a.ID, items[1].ID)

	_, err = svc.Get(ctx, user, d.ID)
	assert.True(t, errors.Is(err, errs.ErrNotFound))
	_, err = svc.Get(ctx, admin, d.ID)
	assert.NoError(t, err)

	_, err = svc.ToggleActive(ctx, admin, d.ID)
	require.NoError(t, err)
	items, err = svc.ListPublic(ctx, CategoryEvent)
	require.NoError(t, err)
	assert.Len(t, items, 3)
}

func TestUpdate_KeepsFlagsOutsideTheForm(t *testing.T) {
	svc, repo := newTestService()
	ctx := context.Background()

	p, err := svc.Create(ctx, admin, validInput())
	require.NoError(t, err)
	_, err = svc.ToggleHighlight(ctx, admin, p.ID)
	require.NoError(t, err)

	in := validInput()
	in.Title = "Feira de adoção adiada"
	_, err = svc.Update(ctx, user, p.ID, in)
	assert.True(t, errors.Is(err, errs.ErrUnauthorized))

	u, err := svc.Update(ctx, admin, p.ID, in)
	require.NoError(t, err)
	assert.Equal(t, "Feira de adoção adiada", u.Title)
	assert.True(t, u.IsHighlighted)
	assert.True(t, u.IsActive)
	assert.True(t, p.PublishDate.Equal(u.PublishDate))

	stored, err := repo.GetByID(ctx, p.ID)
	require.NoError(t, err)
	assert.True(t, stored.IsHighlighted)

	_, err = svc.Update(ctx, admin, "nope", in)
	assert.True(t, errors.Is(err, errs.ErrNotFound))
}

func TestHighlightedStories_LimitThree(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		in := validInput()
		in.Category = CategoryStory
		p, err := svc.Create(ctx, admin, in)
		require.NoError(t, err)
		if i < 4 {
			_, err = svc.ToggleHighlight(ctx, admin, p.ID)
			require.NoError(t, err)
		}
	}
	_, err := svc.Create(ctx, admin, validInput())
	require.NoError(t, err)

	items, err := svc.HighlightedStories(ctx)
	require.NoError(t, err)
	assert.Len(t, items, 3)
	for _, p := range items {
		assert.Equal(t, CategoryStory, p.Category)
		assert.True(t, p.IsHighlighted)
	}
}

func TestExcerpt(t *testing.T) {
	assert.Equal(t, "curto...", Excerpt("curto"))

	long := strings.Repeat("ã", 150)
	got := Excerpt(long)
	assert.Equal(t, strings.Repeat("ã", 100)+"...", got)
}

func TestSuccessStory_OnePerEntryIntoFound(t *testing.T) {
	ctx := context.Background()
	bus := workflow.NewBus(nil)

	svc, repo := newTestService()
	svc.SubscribeSuccessStories(bus)

	lostRepo := newMemRepo(func(p lostpets.LostPet) string { return p.ID })
	lost := lostpets.NewService(lostRepo, bus, nopNotifier{})

	reported, err := lost.Report(ctx, user, lostpets.ReportInput{
		Name:             "Thor",
		Species:          lostpets.SpeciesDog,
		Description:      "Vira-lata caramelo, coleira azul",
		LastSeenLocation: "Praça central",
		LastSeenDate:     "2025-02-10",
		ContactPhone:     "42999990000",
		PhotoURL:         "https://cdn.example.com/thor.jpg",
	})
	require.NoError(t, err)

	_, err = lost.SetStatus(ctx, admin, reported.ID, lostpets.StatusFound, lostpets.Story{})
	require.NoError(t, err)

	// no-op: ya está encontrado
	_, err = lost.SetStatus(ctx, admin, reported.ID, lostpets.StatusFound, lostpets.Story{})
	require.NoError(t, err)

	stories, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, stories, 1)
	s := stories[0]
	assert.Equal(t, "Final Feliz para Thor!", s.Title)
	assert.Equal(t, CategoryStory, s.Category)
	assert.Equal(t, SystemAuthor, s.Author)
	assert.Equal(t, "https://cdn.example.com/thor.jpg", s.Image)
	assert.Equal(t, reported.ID, s.SourceID)
	assert.True(t, s.IsActive)
	assert.False(t, s.IsHighlighted)
	assert.True(t, strings.HasSuffix(s.Excerpt, "..."))

	// volver a perdido y encontrar otra vez genera otra historia, con el texto del admin
	_, err = lost.ToggleStatus(ctx, admin, reported.ID, lostpets.Story{})
	require.NoError(t, err)
	_, err = lost.ToggleStatus(ctx, admin, reported.ID, lostpets.Story{Title: "Thor em casa", Content: "Depois de uma semana, o Thor voltou."})
	require.NoError(t, err)

	stories, err = repo.List(ctx)
	require.NoError(t, err)
	assert.Len(t, stories, 2)
	titles := []string{stories[0].Title, stories[1].Title}
	assert.Contains(t, titles, "Thor em casa")
}
