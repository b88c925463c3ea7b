package docrepo

import (
	"context"
	"sort"
	"strings"
	"time"

	"apa-backoffice/internal/domain/errs"
	"apa-backoffice/internal/domain/leads"
	"apa-backoffice/internal/domain/workflow"
	"apa-backoffice/internal/ports/docstore"
)

type LeadsRepo struct {
	store docstore.Store
}

func NewLeadsRepo(s docstore.Store) *LeadsRepo {
	return &LeadsRepo{store: s}
}

func (r *LeadsRepo) col(k leads.Kind) Collection[leads.Lead] {
	return NewCollection[leads.Lead](r.store, k.Collection())
}

func lockKey(l leads.Lead) string {
	return strings.Join([]string{l.Kind.Collection(), l.UserID, l.PetID}, ":")
}

// activeFor busca el lead activo más reciente del mismo usuario y animal, sin contar skipID.
func activeFor(ctx context.Context, c Collection[leads.Lead], l leads.Lead, skipID string) (leads.Lead, bool, error) {
	items, err := c.Find(ctx, docstore.Query{Eq: ownerQuery(l.UserID, l.PetID)})
	if err != nil {
		return leads.Lead{}, false, err
	}
	active := items[:0]
	for _, it := range items {
		if it.ID != skipID && it.Status.Active() {
			active = append(active, it)
		}
	}
	cur, ok := workflow.Latest(active, leadCreatedAt)
	return cur, ok, nil
}

func (r *LeadsRepo) CreateUnlessActive(ctx context.Context, l leads.Lead) (leads.Lead, error) {
	var existing leads.Lead
	err := r.store.Tx(ctx, lockKey(l), func(tx docstore.Store) error {
		c := r.col(l.Kind).In(tx)
		cur, ok, err := activeFor(ctx, c, l, "")
		if err != nil {
			return err
		}
		if ok {
			existing = cur
			return errs.ErrConflict
		}
		return c.Put(ctx, l.ID, l)
	})
	if err != nil {
		return existing, err
	}
	return l, nil
}

// ReopenUnlessActive escribe fields sobre l (que vuelve a un estado activo) bajo el mismo
// lock que CreateUnlessActive. Si el usuario ya tiene otro lead activo para el animal
// devuelve ese lead y errs.ErrConflict.
func (r *LeadsRepo) ReopenUnlessActive(ctx context.Context, l leads.Lead, fields map[string]any) (leads.Lead, error) {
	var out leads.Lead
	err := r.store.Tx(ctx, lockKey(l), func(tx docstore.Store) error {
		c := r.col(l.Kind).In(tx)
		cur, ok, err := activeFor(ctx, c, l, l.ID)
		if err != nil {
			return err
		}
		if ok {
			out = cur
			return errs.ErrConflict
		}
		out, err = c.Patch(ctx, l.ID, fields)
		return err
	})
	if out.Kind == "" {
		out.Kind = l.Kind
	}
	return out, err
}

func (r *LeadsRepo) Patch(ctx context.Context, kind leads.Kind, id string, fields map[string]any) (leads.Lead, error) {
	l, err := r.col(kind).Patch(ctx, id, fields)
	if err != nil {
		return leads.Lead{}, err
	}
	if l.Kind == "" {
		l.Kind = kind
	}
	return l, nil
}

func (r *LeadsRepo) GetByID(ctx context.Context, kind leads.Kind, id string) (leads.Lead, error) {
	l, err := r.col(kind).Get(ctx, id)
	if err != nil {
		return leads.Lead{}, err
	}
	if l.Kind == "" {
		l.Kind = kind
	}
	return l, nil
}

func (r *LeadsRepo) List(ctx context.Context, kind leads.Kind, f leads.Filter) ([]leads.Lead, error) {
	items, err := r.col(kind).Find(ctx, docstore.Query{Eq: ownerQuery(f.UserID, f.PetID)})
	if err != nil {
		return nil, err
	}

	out := make([]leads.Lead, 0, len(items))
	for _, l := range items {
		if l.Kind == "" {
			l.Kind = kind
		}
		if len(f.Statuses) > 0 && !hasStatus(f.Statuses, l.Status.Normalize()) {
			continue
		}
		out = append(out, l)
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if f.Limit > 0 && len(out) > f.Limit {
		out = out[:f.Limit]
	}
	return out, nil
}

func (r *LeadsRepo) Delete(ctx context.Context, kind leads.Kind, id string) error {
	return r.col(kind).Delete(ctx, id)
}

func ownerQuery(userID, petID string) map[string]string {
	eq := map[string]string{}
	if userID != "" {
		eq["userId"] = userID
	}
	if petID != "" {
		eq["petId"] = petID
	}
	return eq
}

func hasStatus(list []leads.Status, s leads.Status) bool {
	for _, x := range list {
		if x == s {
			return true
		}
	}
	return false
}

func leadCreatedAt(l leads.Lead) time.Time { return l.CreatedAt }
