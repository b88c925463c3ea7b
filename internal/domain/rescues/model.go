package rescues

import (
	"context"
	"time"

	"apa-backoffice/internal/domain/workflow"
)

const (
	Collection  = "rescues"
	MachineName = "rescues"
)

type Urgency string

const (
	UrgencyLow      Urgency = "baixa"
	UrgencyMedium   Urgency = "media"
	UrgencyHigh     Urgency = "alta"
	UrgencyCritical Urgency = "critica"
)

type Status string

const (
	StatusPending    Status = "pendente"
	StatusInProgress Status = "em_andamento"
	StatusDone       Status = "concluido"
	StatusCanceled   Status = "cancelado"
)

func newMachine() *workflow.Machine[Status] {
	return workflow.New(workflow.Definition[Status]{
		Name:    MachineName,
		Initial: StatusPending,
		Transitions: map[Status][]Status{
			StatusPending:    {StatusInProgress, StatusCanceled},
			StatusInProgress: {StatusDone, StatusCanceled},
			StatusCanceled:   {StatusPending},
		},
	})
}

// Rescue es una ocurrencia de resgate atendida por la APA.
type Rescue struct {
	ID          string    `json:"id"`
	Description string    `json:"description"`
	Location    string    `json:"location"`
	Urgency     Urgency   `json:"urgency"`
	ContactInfo string    `json:"contactInfo"`
	Status      Status    `json:"status"`
	CreatedBy   string    `json:"createdBy"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

type Repository interface {
	Create(ctx context.Context, r Rescue) error
	Patch(ctx context.Context, id string, fields map[string]any) (Rescue, error)
	GetByID(ctx context.Context, id string) (Rescue, error)
	List(ctx context.Context) ([]Rescue, error)
	Delete(ctx context.Context, id string) error
}
