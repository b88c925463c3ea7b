package docrepo

import (
	"context"

	"apa-backoffice/internal/domain/lostpets"
	"apa-backoffice/internal/ports/docstore"
)

type LostPetsRepo struct {
	col Collection[lostpets.LostPet]
}

func NewLostPetsRepo(s docstore.Store) *LostPetsRepo {
	return &LostPetsRepo{col: NewCollection[lostpets.LostPet](s, lostpets.Collection)}
}

func (r *LostPetsRepo) Create(ctx context.Context, p lostpets.LostPet) error {
	return r.col.Put(ctx, p.ID, p)
}

func (r *LostPetsRepo) Patch(ctx context.Context, id string, fields map[string]any) (lostpets.LostPet, error) {
	return r.col.Patch(ctx, id, fields)
}

func (r *LostPetsRepo) GetByID(ctx context.Context, id string) (lostpets.LostPet, error) {
	return r.col.Get(ctx, id)
}

func (r *LostPetsRepo) List(ctx context.Context) ([]lostpets.LostPet, error) {
	return r.col.All(ctx)
}

func (r *LostPetsRepo) Delete(ctx context.Context, id string) error {
	return r.col.Delete(ctx, id)
}
