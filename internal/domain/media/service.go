// Package media recibe las fotos de mascotas, posts y parceiros y las guarda
// en el object store.
package media

import (
	"context"
	"io"
	"path"
	"strings"
	"time"

	"apa-backoffice/internal/domain/errs"
	"apa-backoffice/internal/domain/workflow"
	"apa-backoffice/internal/ports/media"

	"github.com/google/uuid"
)

const MaxSize = 5 << 20

// Folders donde se puede subir. Los de contenido institucional son solo admin.
var folders = map[string]bool{
	"pets":      false,
	"lost-pets": false,
	"posts":     true,
	"partners":  true,
}

var extensions = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/webp": ".webp",
}

type Upload struct {
	Folder      string
	ContentType string
	Size        int64
	Body        io.Reader
}

type Result struct {
	URL string `json:"url"`
	Key string `json:"key"`
}

type Service struct {
	store media.ObjectStore
	now   func() time.Time
}

func NewService(store media.ObjectStore) *Service {
	return &Service{store: store, now: time.Now}
}

func (s *Service) Upload(ctx context.Context, actor workflow.Actor, in Upload) (Result, error) {
	if err := workflow.RequireAuthenticated(actor); err != nil {
		return Result{}, err
	}
	adminOnly, ok := folders[in.Folder]
	if !ok {
		return Result{}, errs.Invalid("folder", "unknown folder")
	}
	if adminOnly && !actor.IsAdmin() {
		return Result{}, errs.ErrUnauthorized
	}
	if s.store == nil {
		return Result{}, errs.ErrConfiguration
	}

	ct := strings.ToLower(strings.TrimSpace(in.ContentType))
	ext, ok := extensions[ct]
	if !ok {
		return Result{}, errs.Invalid("file", "only jpeg, png or webp")
	}
	if in.Size <= 0 || in.Size > MaxSize {
		return Result{}, errs.Invalid("file", "must be up to 5MB")
	}

	key := path.Join(in.Folder, s.now().UTC().Format("2006/01"), uuid.NewString()+ext)
	url, err := s.store.Put(ctx, media.Object{Key: key, ContentType: ct, Size: in.Size, Body: in.Body})
	if err != nil {
		return Result{}, err
	}
	return Result{URL: url, Key: key}, nil
}
