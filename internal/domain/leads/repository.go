package leads

import "context"

// Filter: campos vacíos no filtran. Los resultados vienen por createdAt desc.
type Filter struct {
	UserID   string
	PetID    string
	Statuses []Status
	Limit    int
}

type Repository interface {
	// CreateUnlessActive crea l salvo que ya exista un lead activo del mismo usuario
	// (y de la misma mascota, para adopción). Chequeo y escritura son atómicos.
	// Si existe, devuelve ese lead y errs.ErrConflict.
	CreateUnlessActive(ctx context.Context, l Lead) (Lead, error)
	// ReopenUnlessActive escribe fields sobre l cuando vuelve a un estado activo, con el
	// mismo chequeo atómico que CreateUnlessActive (sin contar a l). Si hay otro activo,
	// devuelve ese lead y errs.ErrConflict.
	ReopenUnlessActive(ctx context.Context, l Lead, fields map[string]any) (Lead, error)
	// Patch escribe solo fields (claves json) y devuelve el documento resultante.
	Patch(ctx context.Context, kind Kind, id string, fields map[string]any) (Lead, error)
	GetByID(ctx context.Context, kind Kind, id string) (Lead, error)
	List(ctx context.Context, kind Kind, f Filter) ([]Lead, error)
	Delete(ctx context.Context, kind Kind, id string) error
}

// PetDirectory resuelve una mascota sin importar el paquete pets.
// available indica si el anuncio acepta pedidos de adopción.
type PetDirectory interface {
	AdoptionInfo(ctx context.Context, petID string) (name string, available bool, err error)
}
