package media

import (
	"context"
	"io"
)

// Object es lo que se sube al bucket de imágenes.
type Object struct {
	Key         string
	ContentType string
	Size        int64
	Body        io.Reader
}

// ObjectStore guarda el objeto y devuelve su URL pública.
type ObjectStore interface {
	Put(ctx context.Context, obj Object) (string, error)
	Remove(ctx context.Context, key string) error
}
