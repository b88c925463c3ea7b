package pets

import "context"

type Repository interface {
	Create(ctx context.Context, p Pet) error
	// Patch escribe solo fields (claves json) y devuelve el documento resultante.
	Patch(ctx context.Context, id string, fields map[string]any) (Pet, error)
	GetByID(ctx context.Context, id string) (Pet, error)
	List(ctx context.Context) ([]Pet, error)
	Delete(ctx context.Context, id string) error

	// Reorder asigna sortOrder = índice a cada id, todo o nada.
	Reorder(ctx context.Context, ids []string) error
}
