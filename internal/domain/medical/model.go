package medical

import (
	"time"

	"apa-backoffice/internal/domain/workflow"
)

const (
	Collection  = "medical_records"
	MachineName = "medical"
)

type RecordType string

const (
	TypeConsultation RecordType = "consulta"
	TypeVaccine      RecordType = "vacina"
	TypeSurgery      RecordType = "cirurgia"
	TypeExam         RecordType = "exame"
)

var RecordTypes = []RecordType{TypeConsultation, TypeVaccine, TypeSurgery, TypeExam}

type Status string

const (
	StatusScheduled Status = "agendado"
	StatusDone      Status = "concluido"
	StatusCanceled  Status = "cancelado"
)

func newMachine() *workflow.Machine[Status] {
	return workflow.New(workflow.Definition[Status]{
		Name:    MachineName,
		Initial: StatusScheduled,
		Transitions: map[Status][]Status{
			StatusScheduled: {StatusDone, StatusCanceled},
			StatusCanceled:  {StatusScheduled},
		},
	})
}

// Record es una entrada del prontuário de un animal de la APA.
type Record struct {
	ID      string `json:"id"`
	PetID   string `json:"petId"`
	PetName string `json:"petName"`

	Type      RecordType `json:"type"`
	Procedure string     `json:"procedure"`
	VetName   string     `json:"vetName"`
	Date      time.Time  `json:"date"`
	Notes     string     `json:"notes,omitempty"`
	Status    Status     `json:"status"`

	CreatedBy string    `json:"createdBy"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}
