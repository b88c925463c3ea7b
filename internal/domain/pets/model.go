package pets

import (
	"time"

	"apa-backoffice/internal/domain/workflow"
)

// Collection donde viven las mascotas.
const Collection = "pets"

// Species define las especies soportadas.
// @Enum Cachorro, Gato
type Species string

const (
	SpeciesDog Species = "Cachorro"
	SpeciesCat Species = "Gato"
)

// Gender define el sexo de la mascota.
type Gender string

const (
	GenderMale   Gender = "Macho"
	GenderFemale Gender = "Fêmea"
)

type Size string

const (
	SizeSmall  Size = "P"
	SizeMedium Size = "M"
	SizeLarge  Size = "G"
)

// Status es el ciclo de vida del anuncio de adopción.
type Status string

const (
	StatusPending     Status = "pendente"
	StatusAvailable   Status = "disponível"
	StatusAdopted     Status = "adotado"
	StatusUnavailable Status = "indisponível"
)

// MaxPhotos por anuncio.
const MaxPhotos = 3

// MachineName identifica la máquina en eventos y métricas.
const MachineName = "pets"

func newMachine() *workflow.Machine[Status] {
	return workflow.New(workflow.Definition[Status]{
		Name:    MachineName,
		Initial: StatusPending,
		Transitions: map[Status][]Status{
			StatusPending:   {StatusAvailable},
			StatusAvailable: {StatusAdopted, StatusUnavailable},
		},
		// corrección manual: cualquier estado puede volver a disponível
		AnyTo: []Status{StatusAvailable},
	})
}

// Pet es un anuncio de adopción (PetListing).
type Pet struct {
	ID string `json:"id"`

	Species Species `json:"species"`
	Gender  Gender  `json:"gender"`
	Name    string  `json:"name"`
	Breed   string  `json:"breed,omitempty"`
	Color   string  `json:"color,omitempty"`
	Age     string  `json:"age"` // "2 anos", "6 meses"
	Size    Size    `json:"size"`

	Tags   []string `json:"tags"`
	Photos []string `json:"photos"`

	Description  string `json:"description"`
	Address      string `json:"address,omitempty"`
	ContactPhone string `json:"contactPhone,omitempty"`

	Status Status `json:"status"`

	// UserID es quien cargó el anuncio (usuario común o admin).
	UserID string `json:"userId,omitempty"`

	// SortOrder lo define el admin al reordenar; nil va al final.
	SortOrder *int `json:"sortOrder,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Stats alimenta el dashboard.
type Stats struct {
	Total       int `json:"total"`
	Pending     int `json:"pending"`
	Available   int `json:"available"`
	Adopted     int `json:"adopted"`
	Unavailable int `json:"unavailable"`
	Dogs        int `json:"dogs"`
	Cats        int `json:"cats"`
}
