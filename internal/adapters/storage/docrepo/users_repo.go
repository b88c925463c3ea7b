package docrepo

import (
	"context"
	"errors"

	"apa-backoffice/internal/domain/errs"
	"apa-backoffice/internal/domain/identity"
	"apa-backoffice/internal/ports/docstore"
)

type UsersRepo struct {
	store docstore.Store
	col   Collection[identity.Profile]
}

func NewUsersRepo(s docstore.Store) *UsersRepo {
	return &UsersRepo{store: s, col: NewCollection[identity.Profile](s, identity.Collection)}
}

func (r *UsersRepo) CreateIfMissing(ctx context.Context, p identity.Profile) (identity.Profile, bool, error) {
	// camino común: el perfil ya existe y no hace falta el lock
	if cur, err := r.col.Get(ctx, p.UID); err == nil {
		return cur, false, nil
	} else if !errors.Is(err, errs.ErrNotFound) {
		return identity.Profile{}, false, err
	}

	out, created := p, false
	err := r.store.Tx(ctx, identity.Collection+":"+p.UID, func(tx docstore.Store) error {
		c := r.col.In(tx)
		cur, err := c.Get(ctx, p.UID)
		if err == nil {
			out = cur
			return nil
		}
		if !errors.Is(err, errs.ErrNotFound) {
			return err
		}
		created = true
		return c.Put(ctx, p.UID, p)
	})
	if err != nil {
		return identity.Profile{}, false, err
	}
	return out, created, nil
}

func (r *UsersRepo) Get(ctx context.Context, uid string) (identity.Profile, error) {
	return r.col.Get(ctx, uid)
}

func (r *UsersRepo) Patch(ctx context.Context, id string, fields map[string]any) (identity.Profile, error) {
	return r.col.Patch(ctx, id, fields)
}

func (r *UsersRepo) List(ctx context.Context) ([]identity.Profile, error) {
	return r.col.All(ctx)
}
