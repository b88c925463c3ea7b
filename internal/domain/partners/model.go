package partners

import (
	"context"
	"time"
)

const Collection = "partners"

// Partner es una empresa apoiadora que aparece en el sitio.
type Partner struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Logo        string    `json:"logo"`
	Website     string    `json:"website,omitempty"`
	Description string    `json:"description,omitempty"`
	Order       int       `json:"order"`
	IsActive    bool      `json:"isActive"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

type Repository interface {
	Create(ctx context.Context, p Partner) error
	Patch(ctx context.Context, id string, fields map[string]any) (Partner, error)
	GetByID(ctx context.Context, id string) (Partner, error)
	List(ctx context.Context) ([]Partner, error)
	Delete(ctx context.Context, id string) error
}
