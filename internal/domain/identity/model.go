package identity

import (
	"context"
	"time"

	"apa-backoffice/internal/domain/workflow"
)

const Collection = "users"

// Profile es el documento del usuario. El rol vive acá, no en el token.
type Profile struct {
	UID         string        `json:"uid"`
	Email       string        `json:"email"`
	DisplayName string        `json:"displayName,omitempty"`
	Phone       string        `json:"phone,omitempty"`
	Role        workflow.Role `json:"role"`

	// datos de lar temporário, centralizados en el perfil
	Address          string `json:"address,omitempty"`
	DwellingType     string `json:"dwellingType,omitempty"`
	HasOtherPets     string `json:"hasOtherPets,omitempty"`
	PetDetails       string `json:"petDetails,omitempty"`
	HouseholdCount   string `json:"householdCount,omitempty"`
	SpaceDescription string `json:"spaceDescription,omitempty"`
	Availability     string `json:"availability,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt,omitempty"`
}

func (p Profile) Actor() workflow.Actor {
	role := p.Role
	if role != workflow.RoleAdmin {
		role = workflow.RoleUser
	}
	return workflow.Actor{UserID: p.UID, Email: p.Email, Role: role}
}

type Repository interface {
	// CreateIfMissing guarda p solo si no existe un perfil con ese uid y devuelve
	// el perfil vigente. Chequeo y escritura son atómicos.
	CreateIfMissing(ctx context.Context, p Profile) (Profile, bool, error)
	Get(ctx context.Context, uid string) (Profile, error)
	// Patch escribe solo fields (claves json) y devuelve el perfil resultante.
	Patch(ctx context.Context, uid string, fields map[string]any) (Profile, error)
	List(ctx context.Context) ([]Profile, error)
}
