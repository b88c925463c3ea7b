package lostpets

import "context"

type Repository interface {
	Create(ctx context.Context, p LostPet) error
	// Patch escribe solo fields (claves json) y devuelve el documento resultante.
	Patch(ctx context.Context, id string, fields map[string]any) (LostPet, error)
	GetByID(ctx context.Context, id string) (LostPet, error)
	List(ctx context.Context) ([]LostPet, error)
	Delete(ctx context.Context, id string) error
}
