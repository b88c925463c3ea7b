// Package dashboard junta los contadores del panel admin y el resultado mensual
// que se muestra en la home.
package dashboard

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"apa-backoffice/internal/domain/errs"
	"apa-backoffice/internal/domain/leads"
	"apa-backoffice/internal/domain/lostpets"
	"apa-backoffice/internal/domain/pets"
	"apa-backoffice/internal/domain/workflow"
	"apa-backoffice/internal/livequery"
)

const ResultsCollection = "results"

// MonthlyResult: id en formato aaaamm.
type MonthlyResult struct {
	ID          string    `json:"id"`
	HelpedCount int       `json:"helpedCount"`
	Notes       string    `json:"notes,omitempty"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

type ResultsRepository interface {
	Put(ctx context.Context, r MonthlyResult) error
	List(ctx context.Context) ([]MonthlyResult, error)
}

type PetStats interface {
	Stats(ctx context.Context) (pets.Stats, error)
}

type LeadLister interface {
	ListQuery(kind leads.Kind, f leads.Filter) livequery.FetchFunc[leads.Lead]
}

type LostPetLister interface {
	ListQuery(moderation lostpets.Moderation) livequery.FetchFunc[lostpets.LostPet]
}

// Summary son las tarjetas del dashboard.
type Summary struct {
	Pets              pets.Stats     `json:"pets"`
	NewLeads          int            `json:"newLeads"` // adopción aún no contactados
	LostPending       int            `json:"lostPending"`
	VolunteersPending int            `json:"volunteersPending"`
	FosterPending     int            `json:"fosterPending"`
	LatestResult      *MonthlyResult `json:"latestResult,omitempty"`
}

type Service struct {
	pets    PetStats
	leads   LeadLister
	lost    LostPetLister
	results ResultsRepository
	notify  livequery.Notifier
	now     func() time.Time
}

func NewService(p PetStats, l LeadLister, lost LostPetLister, results ResultsRepository, notify livequery.Notifier) *Service {
	return &Service{pets: p, leads: l, lost: lost, results: results, notify: notify, now: time.Now}
}

func (s *Service) Summary(ctx context.Context, actor workflow.Actor) (Summary, error) {
	if err := workflow.RequireAdmin(actor); err != nil {
		return Summary{}, err
	}

	var out Summary
	var err error
	if out.Pets, err = s.pets.Stats(ctx); err != nil {
		return Summary{}, err
	}

	adoption, err := s.leads.ListQuery(leads.KindAdoption, leads.Filter{})(ctx)
	if err != nil {
		return Summary{}, err
	}
	for _, l := range adoption {
		if l.Status != leads.StatusContacted {
			out.NewLeads++
		}
	}

	pending := leads.Filter{Statuses: []leads.Status{leads.StatusPending}}
	vol, err := s.leads.ListQuery(leads.KindVolunteer, pending)(ctx)
	if err != nil {
		return Summary{}, err
	}
	out.VolunteersPending = len(vol)

	lt, err := s.leads.ListQuery(leads.KindFoster, pending)(ctx)
	if err != nil {
		return Summary{}, err
	}
	out.FosterPending = len(lt)

	lost, err := s.lost.ListQuery(lostpets.ModerationPending)(ctx)
	if err != nil {
		return Summary{}, err
	}
	out.LostPending = len(lost)

	if r, ok, err := s.LatestResult(ctx); err != nil {
		return Summary{}, err
	} else if ok {
		out.LatestResult = &r
	}
	return out, nil
}

// LatestResult es el mes más reciente cargado (id desc).
func (s *Service) LatestResult(ctx context.Context) (MonthlyResult, bool, error) {
	items, err := s.results.List(ctx)
	if err != nil {
		return MonthlyResult{}, false, err
	}
	if len(items) == 0 {
		return MonthlyResult{}, false, nil
	}
	sort.Slice(items, func(i, j int) bool { return items[i].ID > items[j].ID })
	return items[0], true, nil
}

// SetResult carga o corrige el resultado de un mes.
func (s *Service) SetResult(ctx context.Context, actor workflow.Actor, month string, helped int, notes string) (MonthlyResult, error) {
	if err := workflow.RequireAdmin(actor); err != nil {
		return MonthlyResult{}, err
	}
	month = strings.TrimSpace(month)
	if _, err := time.Parse("200601", month); err != nil || len(month) != 6 {
		return MonthlyResult{}, errs.Invalid("id", "must be aaaamm")
	}
	if helped < 0 {
		return MonthlyResult{}, errs.Invalid("helpedCount", "must be >= 0")
	}

	r := MonthlyResult{ID: month, HelpedCount: helped, Notes: strings.TrimSpace(notes), UpdatedAt: s.now()}
	if err := s.results.Put(ctx, r); err != nil {
		return MonthlyResult{}, err
	}
	s.notify.Changed(ResultsCollection)
	return r, nil
}

// ErrNoResult se devuelve cuando todavía no se cargó ningún mes.
var ErrNoResult = fmt.Errorf("no monthly result yet: %w", errs.ErrNotFound)
