package leads

import (
	"time"

	"apa-backoffice/internal/domain/workflow"
)

// Kind identifica el tipo de lead y su colección.
type Kind string

const (
	KindAdoption  Kind = "adoption"
	KindVolunteer Kind = "volunteer"
	KindFoster    Kind = "foster" // lar temporário (LT)
)

var Kinds = []Kind{KindAdoption, KindVolunteer, KindFoster}

func ParseKind(s string) (Kind, bool) {
	for _, k := range Kinds {
		if string(k) == s {
			return k, true
		}
	}
	return "", false
}

func (k Kind) Collection() string {
	switch k {
	case KindAdoption:
		return "leads_adoption"
	case KindVolunteer:
		return "leads_volunteer"
	case KindFoster:
		return "leads_lt"
	default:
		return ""
	}
}

func (k Kind) MachineName() string { return "leads." + string(k) }

type Status string

const (
	StatusPending   Status = "pending"
	StatusApproved  Status = "approved"
	StatusRejected  Status = "rejected"
	StatusContacted Status = "contacted"
)

// ActiveStatuses bloquean una nueva postulación del mismo usuario.
var ActiveStatuses = []Status{StatusPending, StatusApproved, StatusContacted}

// Normalize aplica el default de lectura: sin status (o desconocido) cuenta como pending.
func (s Status) Normalize() Status {
	switch s {
	case StatusPending, StatusApproved, StatusRejected, StatusContacted:
		return s
	}
	return StatusPending
}

func (s Status) Active() bool {
	s = s.Normalize()
	for _, a := range ActiveStatuses {
		if s == a {
			return true
		}
	}
	return false
}

func newMachine(k Kind) *workflow.Machine[Status] {
	return workflow.New(workflow.Definition[Status]{
		Name:    k.MachineName(),
		Initial: StatusPending,
		Transitions: map[Status][]Status{
			StatusPending:   {StatusApproved, StatusRejected},
			StatusApproved:  {StatusContacted, StatusPending},
			StatusContacted: {StatusPending},
			StatusRejected:  {StatusPending},
		},
		ReasonRequired: []Status{StatusRejected},
	})
}

// VolunteerArea es el área elegida en el formulario de voluntariado.
type VolunteerArea string

const (
	AreaCleaning VolunteerArea = "limpeza"
	AreaEvents   VolunteerArea = "eventos"
	AreaWalks    VolunteerArea = "passeios"
	AreaOther    VolunteerArea = "outros"
)

type VolunteerDetails struct {
	Area VolunteerArea `json:"area"`
}

type DwellingType string

const (
	DwellingHouse     DwellingType = "casa"
	DwellingApartment DwellingType = "apartamento"
	DwellingFarm      DwellingType = "sitio"
)

type FosterDetails struct {
	Address          string       `json:"address"`
	DwellingType     DwellingType `json:"dwellingType"`
	HasOtherPets     string       `json:"hasOtherPets,omitempty"` // sim | nao
	PetDetails       string       `json:"petDetails,omitempty"`
	HouseholdCount   string       `json:"householdCount,omitempty"`
	SpaceDescription string       `json:"spaceDescription,omitempty"`
	Availability     string       `json:"availability,omitempty"`
}

// Lead es una postulación (adopción, voluntariado o lar temporário) esperando revisión.
type Lead struct {
	ID   string `json:"id"`
	Kind Kind   `json:"kind"`

	UserID  string `json:"userId"`
	PetID   string `json:"petId,omitempty"`
	PetName string `json:"petName,omitempty"`

	Name    string `json:"name"`
	Email   string `json:"email,omitempty"`
	Phone   string `json:"phone"`
	Message string `json:"message,omitempty"`

	Status          Status `json:"status"`
	RejectionReason string `json:"rejectionReason,omitempty"`

	Volunteer *VolunteerDetails `json:"volunteer,omitempty"`
	Foster    *FosterDetails    `json:"foster,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// RejectionFallback se muestra cuando un lead rechazado no tiene motivo guardado.
const RejectionFallback = "Sua solicitação não pôde ser aprovada no momento."

func (l Lead) DisplayRejectionReason() string {
	if l.Status != StatusRejected {
		return ""
	}
	if l.RejectionReason == "" {
		return RejectionFallback
	}
	return l.RejectionReason
}

// Flag es el feature flag que habilita el formulario público de este tipo de lead.
func (k Kind) Flag() string {
	switch k {
	case KindAdoption:
		return "adoption"
	default:
		return "volunteers"
	}
}
