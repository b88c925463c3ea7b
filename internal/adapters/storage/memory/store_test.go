package memory

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"apa-backoffice/internal/domain/errs"
	"apa-backoffice/internal/ports/docstore"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStore_PutGetDelete(t *testing.T) {
	ctx := context.Background()
	s := NewStore()

	require.NoError(t, s.Put(ctx, "pets", "p1", json.RawMessage(`{"name":"Rex"}`)))

	b, err := s.Get(ctx, "pets", "p1")
	require.NoError(t, err)
	assert.JSONEq(t, `{"name":"Rex"}`, string(b))

	// la copia devuelta no comparte memoria con el store
	b[2] = 'X'
	again, _ := s.Get(ctx, "pets", "p1")
	assert.JSONEq(t, `{"name":"Rex"}`, string(again))

	require.NoError(t, s.Delete(ctx, "pets", "p1"))
	_, err = s.Get(ctx, "pets", "p1")
	assert.True(t, errors.Is(err, errs.ErrNotFound))
	assert.True(t, errors.Is(s.Delete(ctx, "pets", "p1"), errs.ErrNotFound))
}

func TestStore_FindFilters(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	_ = s.Put(ctx, "leads", "a", json.RawMessage(`{"userId":"u1","status":"pending"}`))
	_ = s.Put(ctx, "leads", "b", json.RawMessage(`{"userId":"u1","status":"rejected"}`))
	_ = s.Put(ctx, "leads", "c", json.RawMessage(`{"userId":"u2","status":"pending"}`))

	got, err := s.Find(ctx, "leads", docstore.Query{
		Eq: map[string]string{"userId": "u1"},
		In: map[string][]string{"status": {"pending", "approved"}},
	})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.JSONEq(t, `{"userId":"u1","status":"pending"}`, string(got[0]))

	all, err := s.Find(ctx, "leads", docstore.Query{})
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestStore_TxIsAllOrNothing(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	_ = s.Put(ctx, "pets", "a", json.RawMessage(`{"sortOrder":5}`))

	err := s.Tx(ctx, "reorder", func(tx docstore.Store) error {
		_ = tx.Put(ctx, "pets", "a", json.RawMessage(`{"sortOrder":0}`))
		return errors.New("boom")
	})
	require.Error(t, err)

	b, _ := s.Get(ctx, "pets", "a")
	assert.JSONEq(t, `{"sortOrder":5}`, string(b))

	require.NoError(t, s.Tx(ctx, "reorder", func(tx docstore.Store) error {
		return tx.Put(ctx, "pets", "a", json.RawMessage(`{"sortOrder":0}`))
	}))
	b, _ = s.Get(ctx, "pets", "a")
	assert.JSONEq(t, `{"sortOrder":0}`, string(b))
}

func TestStore_Fail(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	s.Fail(errs.ErrConfiguration)

	_, err := s.Find(ctx, "pets", docstore.Query{})
	assert.True(t, errors.Is(err, errs.ErrConfiguration))

	s.Fail(nil)
	_, err = s.Find(ctx, "pets", docstore.Query{})
	assert.NoError(t, err)
}

func TestStore_PatchMergesTopLevelFields(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	_ = s.Put(ctx, "lostpets", "a", json.RawMessage(`{"status":"lost","moderationStatus":"pending","name":"Thor"}`))

	b, err := s.Patch(ctx, "lostpets", "a", map[string]any{"moderationStatus": "approved"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"status":"lost","moderationStatus":"approved","name":"Thor"}`, string(b))

	_, err = s.Patch(ctx, "lostpets", "a", map[string]any{"status": "found"})
	require.NoError(t, err)
	b, _ = s.Get(ctx, "lostpets", "a")
	assert.JSONEq(t, `{"status":"found","moderationStatus":"approved","name":"Thor"}`, string(b))

	_, err = s.Patch(ctx, "lostpets", "ghost", map[string]any{"status": "found"})
	assert.True(t, errors.Is(err, errs.ErrNotFound))
}

func TestStore_TxPatchAppliesOverLatestCommit(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	_ = s.Put(ctx, "pets", "a", json.RawMessage(`{"name":"Rex","status":"disponível"}`))

	require.NoError(t, s.Tx(ctx, "pets:order", func(tx docstore.Store) error {
		if _, err := tx.Patch(ctx, "pets", "a", map[string]any{"sortOrder": 0}); err != nil {
			return err
		}
		// dentro de la tx se ve el patch pendiente
		b, err := tx.Get(ctx, "pets", "a")
		require.NoError(t, err)
		assert.JSONEq(t, `{"name":"Rex","status":"disponível","sortOrder":0}`, string(b))

		// escritura de otro campo por fuera de la tx antes del commit
		_, err = s.Patch(ctx, "pets", "a", map[string]any{"status": "adotado"})
		return err
	}))

	b, _ := s.Get(ctx, "pets", "a")
	assert.JSONEq(t, `{"name":"Rex","status":"adotado","sortOrder":0}`, string(b))
}
