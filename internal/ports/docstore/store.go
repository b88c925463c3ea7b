// Package docstore es el puerto del store de documentos: colecciones de documentos JSON
// identificados por id. Lo implementan adapters/storage/memory y adapters/storage/postgres.
package docstore

import (
	"context"
	"encoding/json"
)

// Query filtra por igualdad sobre campos de primer nivel del documento.
// Campos vacíos no filtran. El orden del resultado no está definido.
type Query struct {
	Eq map[string]string
	In map[string][]string
}

func (q Query) Match(doc map[string]any) bool {
	for k, want := range q.Eq {
		if fieldString(doc[k]) != want {
			return false
		}
	}
	for k, vals := range q.In {
		got := fieldString(doc[k])
		found := false
		for _, v := range vals {
			if got == v {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

// fieldString replica data->>'field' de Postgres para valores escalares.
func fieldString(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case bool:
		if t {
			return "true"
		}
		return "false"
	default:
		b, _ := json.Marshal(t)
		return string(b)
	}
}

// Merge aplica fields sobre las claves de primer nivel de doc.
func Merge(doc json.RawMessage, fields map[string]any) (json.RawMessage, error) {
	m := map[string]json.RawMessage{}
	if err := json.Unmarshal(doc, &m); err != nil {
		return nil, err
	}
	for k, v := range fields {
		b, err := json.Marshal(v)
		if err != nil {
			return nil, err
		}
		m[k] = b
	}
	return json.Marshal(m)
}

// Store es el acceso crudo por colección.
type Store interface {
	Get(ctx context.Context, collection, id string) (json.RawMessage, error)
	// Put crea o reemplaza el documento completo (last-write-wins).
	Put(ctx context.Context, collection, id string, data json.RawMessage) error
	// Patch escribe solo las claves de primer nivel de fields sobre el documento
	// existente (last-write-wins por campo) y devuelve el documento resultante.
	// Si no existe devuelve errs.ErrNotFound.
	Patch(ctx context.Context, collection, id string, fields map[string]any) (json.RawMessage, error)
	Delete(ctx context.Context, collection, id string) error
	Find(ctx context.Context, collection string, q Query) ([]json.RawMessage, error)

	// Tx corre fn en una sección serializada por lockKey. Las escrituras de fn
	// se confirman juntas o ninguna.
	Tx(ctx context.Context, lockKey string, fn func(tx Store) error) error

	// Ping reporta si el store está alcanzable y con el schema esperado.
	Ping(ctx context.Context) error
}
