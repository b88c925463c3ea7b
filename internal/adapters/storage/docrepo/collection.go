// Package docrepo implementa los repositorios de dominio sobre un docstore.Store,
// el mismo código para memoria y Postgres.
package docrepo

import (
	"context"
	"encoding/json"
	"fmt"

	"apa-backoffice/internal/ports/docstore"
)

// Collection es una vista tipada de una colección.
type Collection[T any] struct {
	store docstore.Store
	name  string
}

func NewCollection[T any](s docstore.Store, name string) Collection[T] {
	return Collection[T]{store: s, name: name}
}

func (c Collection[T]) Name() string { return c.name }

// In devuelve la misma colección leyendo y escribiendo dentro de tx.
func (c Collection[T]) In(tx docstore.Store) Collection[T] {
	return Collection[T]{store: tx, name: c.name}
}

func (c Collection[T]) Get(ctx context.Context, id string) (T, error) {
	var v T
	b, err := c.store.Get(ctx, c.name, id)
	if err != nil {
		return v, err
	}
	if err := json.Unmarshal(b, &v); err != nil {
		return v, fmt.Errorf("decode %s/%s: %w", c.name, id, err)
	}
	return v, nil
}

func (c Collection[T]) Put(ctx context.Context, id string, v T) error {
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s/%s: %w", c.name, id, err)
	}
	return c.store.Put(ctx, c.name, id, b)
}

// Patch escribe solo fields (claves json de T) y devuelve el documento resultante.
func (c Collection[T]) Patch(ctx context.Context, id string, fields map[string]any) (T, error) {
	var v T
	b, err := c.store.Patch(ctx, c.name, id, fields)
	if err != nil {
		return v, err
	}
	if err := json.Unmarshal(b, &v); err != nil {
		return v, fmt.Errorf("decode %s/%s: %w", c.name, id, err)
	}
	return v, nil
}

func (c Collection[T]) Delete(ctx context.Context, id string) error {
	return c.store.Delete(ctx, c.name, id)
}

func (c Collection[T]) Find(ctx context.Context, q docstore.Query) ([]T, error) {
	raw, err := c.store.Find(ctx, c.name, q)
	if err != nil {
		return nil, err
	}
	out := make([]T, 0, len(raw))
	for _, b := range raw {
		var v T
		if err := json.Unmarshal(b, &v); err != nil {
			return nil, fmt.Errorf("decode %s: %w", c.name, err)
		}
		out = append(out, v)
	}
	return out, nil
}

func (c Collection[T]) All(ctx context.Context) ([]T, error) {
	return c.Find(ctx, docstore.Query{})
}
