package medical

import (
	"context"
	"time"
)

type Repository interface {
	Create(ctx context.Context, r Record) error
	Patch(ctx context.Context, id string, fields map[string]any) (Record, error)
	GetByID(ctx context.Context, id string) (Record, error)
	List(ctx context.Context, petID string) ([]Record, error)
	Delete(ctx context.Context, id string) error
}

// ListFilter: campos vacíos no filtran. Query busca en pet, procedimiento y veterinario.
type ListFilter struct {
	PetID string
	Types []RecordType
	From  *time.Time
	To    *time.Time
	Query string
	Limit int
}

// PetDirectory resuelve el nombre del animal.
type PetDirectory interface {
	PetName(ctx context.Context, petID string) (string, error)
}
