package docrepo

import (
	"context"

	"apa-backoffice/internal/domain/pets"
	"apa-backoffice/internal/ports/docstore"
)

type PetsRepo struct {
	store docstore.Store
	col   Collection[pets.Pet]
}

func NewPetsRepo(s docstore.Store) *PetsRepo {
	return &PetsRepo{store: s, col: NewCollection[pets.Pet](s, pets.Collection)}
}

func (r *PetsRepo) Create(ctx context.Context, p pets.Pet) error {
	return r.col.Put(ctx, p.ID, p)
}

func (r *PetsRepo) Patch(ctx context.Context, id string, fields map[string]any) (pets.Pet, error) {
	return r.col.Patch(ctx, id, fields)
}

func (r *PetsRepo) GetByID(ctx context.Context, id string) (pets.Pet, error) {
	return r.col.Get(ctx, id)
}

func (r *PetsRepo) List(ctx context.Context) ([]pets.Pet, error) {
	return r.col.All(ctx)
}

func (r *PetsRepo) Delete(ctx context.Context, id string) error {
	return r.col.Delete(ctx, id)
}

func (r *PetsRepo) Reorder(ctx context.Context, ids []string) error {
	return r.store.Tx(ctx, pets.Collection+":order", func(tx docstore.Store) error {
		c := r.col.In(tx)
		for i, id := range ids {
			if _, err := c.Patch(ctx, id, map[string]any{"sortOrder": i}); err != nil {
				return err
			}
		}
		return nil
	})
}
