package docrepo

import (
	"context"

	"apa-backoffice/internal/domain/partners"
	"apa-backoffice/internal/ports/docstore"
)

type PartnersRepo struct {
	col Collection[partners.Partner]
}

func NewPartnersRepo(s docstore.Store) *PartnersRepo {
	return &PartnersRepo{col: NewCollection[partners.Partner](s, partners.Collection)}
}

func (r *PartnersRepo) Create(ctx context.Context, p partners.Partner) error {
	return r.col.Put(ctx, p.ID, p)
}

func (r *PartnersRepo) Patch(ctx context.Context, id string, fields map[string]any) (partners.Partner, error) {
	return r.col.Patch(ctx, id, fields)
}

func (r *PartnersRepo) GetByID(ctx context.Context, id string) (partners.Partner, error) {
	return r.col.Get(ctx, id)
}

func (r *PartnersRepo) List(ctx context.Context) ([]partners.Partner, error) {
	return r.col.All(ctx)
}

func (r *PartnersRepo) Delete(ctx context.Context, id string) error {
	return r.col.Delete(ctx, id)
}
