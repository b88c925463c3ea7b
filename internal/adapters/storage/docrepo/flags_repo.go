package docrepo

import (
	"context"

	"apa-backoffice/internal/domain/flags"
	"apa-backoffice/internal/ports/docstore"
)

// FlagsRepo guarda los dos documentos únicos de configuración.
type FlagsRepo struct {
	flags    Collection[flags.Flags]
	settings Collection[flags.Settings]
}

func NewFlagsRepo(s docstore.Store) *FlagsRepo {
	return &FlagsRepo{
		flags:    NewCollection[flags.Flags](s, flags.FlagsCollection),
		settings: NewCollection[flags.Settings](s, flags.SettingsCollection),
	}
}

func (r *FlagsRepo) Flags(ctx context.Context) (flags.Flags, error) {
	return r.flags.Get(ctx, flags.FlagsID)
}

func (r *FlagsRepo) PutFlags(ctx context.Context, f flags.Flags) error {
	return r.flags.Put(ctx, flags.FlagsID, f)
}

func (r *FlagsRepo) Settings(ctx context.Context) (flags.Settings, error) {
	return r.settings.Get(ctx, flags.SettingsID)
}

func (r *FlagsRepo) PutSettings(ctx context.Context, s flags.Settings) error {
	return r.settings.Put(ctx, flags.SettingsID, s)
}
