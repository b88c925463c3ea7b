package flags

import (
	"context"
	"errors"
	"strings"
	"time"

	"apa-backoffice/internal/domain/errs"
	"apa-backoffice/internal/domain/validate"
	"apa-backoffice/internal/domain/workflow"
	"apa-backoffice/internal/livequery"
)

type Service struct {
	repo   Repository
	notify livequery.Notifier
	now    func() time.Time
}

func NewService(repo Repository, notify livequery.Notifier) *Service {
	return &Service{repo: repo, notify: notify, now: time.Now}
}

// Flags devuelve los flags efectivos (sin documento = todo encendido).
func (s *Service) Flags(ctx context.Context) (Flags, error) {
	f, err := s.repo.Flags(ctx)
	if err != nil && !errors.Is(err, errs.ErrNotFound) {
		return nil, err
	}
	return f.Resolved(), nil
}

// Query es la consulta en vivo del documento de flags: cero o un registro.
func (s *Service) Query() livequery.FetchFunc[Flags] {
	return func(ctx context.Context) ([]Flags, error) {
		f, err := s.repo.Flags(ctx)
		if errors.Is(err, errs.ErrNotFound) {
			return []Flags{}, nil
		}
		if err != nil {
			return nil, err
		}
		return []Flags{f}, nil
	}
}

// SetFlags mezcla los valores recibidos con el documento actual. Solo admin.
func (s *Service) SetFlags(ctx context.Context, actor workflow.Actor, in map[string]bool) (Flags, error) {
	if err := workflow.RequireAdmin(actor); err != nil {
		return nil, err
	}
	for k := range in {
		if !isKnown(k) {
			return nil, errs.Invalid(k, "unknown flag")
		}
	}

	cur, err := s.repo.Flags(ctx)
	if err != nil && !errors.Is(err, errs.ErrNotFound) {
		return nil, err
	}
	next := cur.Resolved()
	for k, v := range in {
		next[k] = v
	}
	if err := s.repo.PutFlags(ctx, next); err != nil {
		return nil, err
	}
	s.notify.Changed(FlagsCollection)
	return next, nil
}

func isKnown(name string) bool {
	for _, k := range Known {
		if k == name {
			return true
		}
	}
	return false
}

// Settings devuelve la configuración general; vacía si nunca se guardó.
func (s *Service) Settings(ctx context.Context) (Settings, error) {
	st, err := s.repo.Settings(ctx)
	if errors.Is(err, errs.ErrNotFound) {
		return Settings{DonationItems: []string{}}, nil
	}
	return st, err
}

func (s *Service) UpdateSettings(ctx context.Context, actor workflow.Actor, in Settings) (Settings, error) {
	if err := workflow.RequireAdmin(actor); err != nil {
		return Settings{}, err
	}

	var c validate.Collect
	out := Settings{
		PixKey:          c.Str(validate.MinLen("pixKey", in.PixKey, 5)),
		ContactPhone:    c.Str(validate.Phone("contactPhone", in.ContactPhone)),
		ContactEmail:    c.Str(validate.Email("contactEmail", in.ContactEmail)),
		Address:         c.Str(validate.MinLen("address", in.Address, 10)),
		SocialInstagram: strings.TrimSpace(in.SocialInstagram),
		SocialFacebook:  strings.TrimSpace(in.SocialFacebook),
	}
	if c.Err != nil {
		return Settings{}, c.Err
	}
	for _, it := range in.DonationItems {
		if it = strings.TrimSpace(it); it != "" {
			out.DonationItems = append(out.DonationItems, it)
		}
	}
	if len(out.DonationItems) == 0 {
		return Settings{}, errs.Invalid("donationItems", "at least one item")
	}
	out.UpdatedAt = s.now()

	if err := s.repo.PutSettings(ctx, out); err != nil {
		return Settings{}, err
	}
	s.notify.Changed(SettingsCollection)
	return out, nil
}
