// Package flags guarda los feature flags del sitio y la configuración general de la APA.
package flags

import (
	"context"
	"time"
)

const (
	FlagsCollection    = "flags"
	FlagsID            = "global"
	SettingsCollection = "config"
	SettingsID         = "general"
)

const (
	Adoption   = "adoption"
	Donations  = "donations"
	LostPets   = "lostPets"
	Partners   = "partners"
	Stories    = "stories"
	Volunteers = "volunteers"
)

var Known = []string{Adoption, Donations, LostPets, Partners, Stories, Volunteers}

// Flags es el documento flags/global. Un flag ausente cuenta como encendido.
type Flags map[string]bool

func (f Flags) Enabled(name string) bool {
	v, ok := f[name]
	return !ok || v
}

// Resolved devuelve todos los flags conocidos con su valor efectivo.
func (f Flags) Resolved() Flags {
	out := make(Flags, len(Known))
	for _, k := range Known {
		out[k] = f.Enabled(k)
	}
	return out
}

// Settings es el documento config/general.
type Settings struct {
	PixKey          string    `json:"pixKey"`
	ContactPhone    string    `json:"contactPhone"`
	ContactEmail    string    `json:"contactEmail"`
	Address         string    `json:"address"`
	SocialInstagram string    `json:"socialInstagram,omitempty"`
	SocialFacebook  string    `json:"socialFacebook,omitempty"`
	DonationItems   []string  `json:"donationItems"`
	UpdatedAt       time.Time `json:"updatedAt,omitempty"`
}

type Repository interface {
	// Flags devuelve errs.ErrNotFound si el documento no existe.
	Flags(ctx context.Context) (Flags, error)
	PutFlags(ctx context.Context, f Flags) error
	Settings(ctx context.Context) (Settings, error)
	PutSettings(ctx context.Context, s Settings) error
}
