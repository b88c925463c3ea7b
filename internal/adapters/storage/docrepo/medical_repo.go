package docrepo

import (
	"context"

	"apa-backoffice/internal/domain/medical"
	"apa-backoffice/internal/ports/docstore"
)

type MedicalRepo struct {
	col Collection[medical.Record]
}

func NewMedicalRepo(s docstore.Store) *MedicalRepo {
	return &MedicalRepo{col: NewCollection[medical.Record](s, medical.Collection)}
}

func (r *MedicalRepo) Create(ctx context.Context, rec medical.Record) error {
	return r.col.Put(ctx, rec.ID, rec)
}

func (r *MedicalRepo) Patch(ctx context.Context, id string, fields map[string]any) (medical.Record, error) {
	return r.col.Patch(ctx, id, fields)
}

func (r *MedicalRepo) GetByID(ctx context.Context, id string) (medical.Record, error) {
	return r.col.Get(ctx, id)
}

// List filtra por animal en el store; el resto del filtro se aplica en el servicio.
func (r *MedicalRepo) List(ctx context.Context, petID string) ([]medical.Record, error) {
	q := docstore.Query{}
	if petID != "" {
		q.Eq = map[string]string{"petId": petID}
	}
	return r.col.Find(ctx, q)
}

func (r *MedicalRepo) Delete(ctx context.Context, id string) error {
	return r.col.Delete(ctx, id)
}
