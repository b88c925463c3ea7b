package posts

import "context"

type Repository interface {
	Create(ctx context.Context, p Post) error
	// Patch escribe solo fields (claves json) y devuelve el documento resultante.
	Patch(ctx context.Context, id string, fields map[string]any) (Post, error)
	GetByID(ctx context.Context, id string) (Post, error)
	List(ctx context.Context) ([]Post, error)
	Delete(ctx context.Context, id string) error
}
