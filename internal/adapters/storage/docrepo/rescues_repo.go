package docrepo

import (
	"context"

	"apa-backoffice/internal/domain/rescues"
	"apa-backoffice/internal/ports/docstore"
)

type RescuesRepo struct {
	col Collection[rescues.Rescue]
}

func NewRescuesRepo(s docstore.Store) *RescuesRepo {
	return &RescuesRepo{col: NewCollection[rescues.Rescue](s, rescues.Collection)}
}

func (r *RescuesRepo) Create(ctx context.Context, v rescues.Rescue) error {
	return r.col.Put(ctx, v.ID, v)
}

func (r *RescuesRepo) Patch(ctx context.Context, id string, fields map[string]any) (rescues.Rescue, error) {
	return r.col.Patch(ctx, id, fields)
}

func (r *RescuesRepo) GetByID(ctx context.Context, id string) (rescues.Rescue, error) {
	return r.col.Get(ctx, id)
}

func (r *RescuesRepo) List(ctx context.Context) ([]rescues.Rescue, error) {
	return r.col.All(ctx)
}

func (r *RescuesRepo) Delete(ctx context.Context, id string) error {
	return r.col.Delete(ctx, id)
}
