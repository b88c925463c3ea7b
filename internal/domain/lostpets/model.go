package lostpets

import (
	"time"

	"apa-backoffice/internal/domain/workflow"
)

const Collection = "lost_pets"

type Species string

const (
	SpeciesDog   Species = "cachorro"
	SpeciesCat   Species = "gato"
	SpeciesOther Species = "outro"
)

// Status es el eje "perdido/encontrado", independiente de la moderación.
type Status string

const (
	StatusLost  Status = "perdido"
	StatusFound Status = "encontrado"
)

// Moderation es el eje de aprobación del anuncio.
type Moderation string

const (
	ModerationPending  Moderation = "pending"
	ModerationApproved Moderation = "approved"
	ModerationRejected Moderation = "rejected"
)

const (
	StatusMachine     = "lostpets.status"
	ModerationMachine = "lostpets.moderation"
)

func newStatusMachine() *workflow.Machine[Status] {
	return workflow.New(workflow.Definition[Status]{
		Name:    StatusMachine,
		Initial: StatusLost,
		Transitions: map[Status][]Status{
			StatusLost:  {StatusFound},
			StatusFound: {StatusLost},
		},
	})
}

func newModerationMachine() *workflow.Machine[Moderation] {
	return workflow.New(workflow.Definition[Moderation]{
		Name:    ModerationMachine,
		Initial: ModerationPending,
		Transitions: map[Moderation][]Moderation{
			ModerationPending:  {ModerationApproved, ModerationRejected},
			ModerationRejected: {ModerationApproved},
			ModerationApproved: {ModerationRejected},
		},
	})
}

// LostPet es un anuncio de mascota perdida o encontrada.
type LostPet struct {
	ID string `json:"id"`

	Name             string  `json:"name"`
	Species          Species `json:"species"`
	Description      string  `json:"description"`
	LastSeenLocation string  `json:"lastSeenLocation"`
	LastSeenDate     string  `json:"lastSeenDate"` // aaaa-mm-dd aproximada
	ContactPhone     string  `json:"contactPhone"`
	PhotoURL         string  `json:"photoUrl,omitempty"`

	HasReward   bool   `json:"hasReward,omitempty"`
	RewardValue string `json:"rewardValue,omitempty"`

	Status           Status     `json:"status"`
	ModerationStatus Moderation `json:"moderationStatus"`

	UserID string `json:"userId"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Found es el Record del evento de transición a encontrado. Title y Content son
// opcionales: el texto de la historia de final feliz que escribió el admin.
type Found struct {
	Pet     LostPet
	Title   string
	Content string
}

// Counts por pestaña de moderación.
type Counts struct {
	Pending  int `json:"pending"`
	Approved int `json:"approved"`
	Rejected int `json:"rejected"`
}
