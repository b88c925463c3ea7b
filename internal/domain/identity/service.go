package identity

import (
	"context"
	"sort"
	"strings"
	"time"

	"apa-backoffice/internal/domain/errs"
	"apa-backoffice/internal/domain/validate"
	"apa-backoffice/internal/domain/workflow"
	"apa-backoffice/internal/livequery"
	"apa-backoffice/internal/ports/auth"
)

type Service struct {
	repo   Repository
	notify livequery.Notifier
	admins map[string]struct{}
	now    func() time.Time
}

// NewService recibe los uids que se crean directamente como admin.
func NewService(repo Repository, notify livequery.Notifier, bootstrapAdmins []string) *Service {
	admins := map[string]struct{}{}
	for _, id := range bootstrapAdmins {
		if id = strings.TrimSpace(id); id != "" {
			admins[id] = struct{}{}
		}
	}
	return &Service{repo: repo, notify: notify, admins: admins, now: time.Now}
}

// EnsureProfile crea el perfil en el primer login. Repetirlo no cambia nada.
func (s *Service) EnsureProfile(ctx context.Context, claims auth.Claims) (Profile, error) {
	uid := strings.TrimSpace(claims.UserID)
	if uid == "" {
		return Profile{}, errs.ErrUnauthorized
	}

	role := workflow.RoleUser
	if _, ok := s.admins[uid]; ok {
		role = workflow.RoleAdmin
	}
	now := s.now()
	p, created, err := s.repo.CreateIfMissing(ctx, Profile{
		UID:         uid,
		Email:       strings.TrimSpace(claims.Email),
		DisplayName: strings.TrimSpace(claims.Name),
		Role:        role,
		CreatedAt:   now,
		UpdatedAt:   now,
	})
	if err != nil {
		return Profile{}, err
	}
	if created {
		s.notify.Changed(Collection)
	}
	return p, nil
}

// Resolve implementa middleware.ActorResolver.
func (s *Service) Resolve(ctx context.Context, claims auth.Claims) (workflow.Actor, error) {
	p, err := s.EnsureProfile(ctx, claims)
	if err != nil {
		return workflow.Actor{}, err
	}
	return p.Actor(), nil
}

func (s *Service) Me(ctx context.Context, actor workflow.Actor) (Profile, error) {
	if err := workflow.RequireAuthenticated(actor); err != nil {
		return Profile{}, err
	}
	return s.repo.Get(ctx, actor.UserID)
}

// ProfileInput: nil = no tocar. El rol no se edita por acá.
type ProfileInput struct {
	DisplayName      *string
	Phone            *string
	Address          *string
	DwellingType     *string
	HasOtherPets     *string
	PetDetails       *string
	HouseholdCount   *string
	SpaceDescription *string
	Availability     *string
}

// UpdateProfile escribe solo los campos enviados; role nunca viaja en el patch,
// así una degradación concurrente no se pisa.
func (s *Service) UpdateProfile(ctx context.Context, actor workflow.Actor, in ProfileInput) (Profile, error) {
	if err := workflow.RequireAuthenticated(actor); err != nil {
		return Profile{}, err
	}

	fields := map[string]any{}
	if in.Phone != nil {
		phone := ""
		if strings.TrimSpace(*in.Phone) != "" {
			var err error
			if phone, err = validate.Phone("phone", *in.Phone); err != nil {
				return Profile{}, err
			}
		}
		fields["phone"] = phone
	}
	if in.DwellingType != nil && *in.DwellingType != "" {
		if _, err := validate.OneOf("dwellingType", *in.DwellingType, "casa", "apartamento", "sitio"); err != nil {
			return Profile{}, err
		}
	}
	if in.HasOtherPets != nil && *in.HasOtherPets != "" {
		if _, err := validate.OneOf("hasOtherPets", *in.HasOtherPets, "sim", "nao"); err != nil {
			return Profile{}, err
		}
	}

	set := func(key string, v *string) {
		if v != nil {
			fields[key] = strings.TrimSpace(*v)
		}
	}
	set("displayName", in.DisplayName)
	set("address", in.Address)
	set("dwellingType", in.DwellingType)
	set("hasOtherPets", in.HasOtherPets)
	set("petDetails", in.PetDetails)
	set("householdCount", in.HouseholdCount)
	set("spaceDescription", in.SpaceDescription)
	set("availability", in.Availability)
	fields["updatedAt"] = s.now()

	p, err := s.repo.Patch(ctx, actor.UserID, fields)
	if err != nil {
		return Profile{}, err
	}
	s.notify.Changed(Collection)
	return p, nil
}

// SetRole promueve o degrada un usuario. Solo admin.
func (s *Service) SetRole(ctx context.Context, actor workflow.Actor, uid string, role workflow.Role) (Profile, error) {
	if err := workflow.RequireAdmin(actor); err != nil {
		return Profile{}, err
	}
	role, err := validate.OneOf("role", role, workflow.RoleUser, workflow.RoleAdmin)
	if err != nil {
		return Profile{}, err
	}
	p, err := s.repo.Get(ctx, uid)
	if err != nil {
		return Profile{}, err
	}
	if p.Role == role {
		return p, nil
	}
	p, err = s.repo.Patch(ctx, uid, map[string]any{"role": role, "updatedAt": s.now()})
	if err != nil {
		return Profile{}, err
	}
	s.notify.Changed(Collection)
	return p, nil
}

// List ordena por fecha de alta desc.
func (s *Service) List(ctx context.Context, actor workflow.Actor) ([]Profile, error) {
	if err := workflow.RequireAdmin(actor); err != nil {
		return nil, err
	}
	items, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(items, func(i, j int) bool { return items[i].CreatedAt.After(items[j].CreatedAt) })
	return items, nil
}
