package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"apa-backoffice/internal/domain/errs"
	"apa-backoffice/internal/ports/docstore"
)

// Store guarda documentos JSON en memoria. Se usa en modo dev y en tests;
// misma semántica que el store de Postgres (copias en cada lectura, last-write-wins).
type Store struct {
	mu   sync.RWMutex
	data map[string]map[string]json.RawMessage

	// txMu serializa las secciones Tx entre sí.
	txMu sync.Mutex

	// failWith, si no es nil, se devuelve en toda operación (tests de degradación).
	failWith error
}

func NewStore() *Store {
	return &Store{data: map[string]map[string]json.RawMessage{}}
}

// Fail hace que toda operación devuelva err hasta que se llame con nil.
func (s *Store) Fail(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failWith = err
}

func (s *Store) Ping(ctx context.Context) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.failWith
}

func (s *Store) Get(ctx context.Context, collection, id string) (json.RawMessage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.failWith != nil {
		return nil, s.failWith
	}
	b, ok := s.data[collection][id]
	if !ok {
		return nil, fmt.Errorf("%s/%s: %w", collection, id, errs.ErrNotFound)
	}
	return clone(b), nil
}

func (s *Store) Put(ctx context.Context, collection, id string, data json.RawMessage) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.failWith != nil {
		return s.failWith
	}
	s.put(collection, id, data)
	return nil
}

func (s *Store) Patch(ctx context.Context, collection, id string, fields map[string]any) (json.RawMessage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.failWith != nil {
		return nil, s.failWith
	}
	return s.patch(collection, id, fields)
}

// patch corre con s.mu tomado.
func (s *Store) patch(collection, id string, fields map[string]any) (json.RawMessage, error) {
	cur, ok := s.data[collection][id]
	if !ok {
		return nil, fmt.Errorf("%s/%s: %w", collection, id, errs.ErrNotFound)
	}
	next, err := docstore.Merge(cur, fields)
	if err != nil {
		return nil, fmt.Errorf("patch %s/%s: %w", collection, id, err)
	}
	s.data[collection][id] = next
	return clone(next), nil
}

func (s *Store) put(collection, id string, data json.RawMessage) {
	c := s.data[collection]
	if c == nil {
		c = map[string]json.RawMessage{}
		s.data[collection] = c
	}
	c[id] = clone(data)
}

func (s *Store) Delete(ctx context.Context, collection, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.failWith != nil {
		return s.failWith
	}
	if _, ok := s.data[collection][id]; !ok {
		return fmt.Errorf("%s/%s: %w", collection, id, errs.ErrNotFound)
	}
	delete(s.data[collection], id)
	return nil
}

func (s *Store) Find(ctx context.Context, collection string, q docstore.Query) ([]json.RawMessage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.failWith != nil {
		return nil, s.failWith
	}

	out := make([]json.RawMessage, 0, len(s.data[collection]))
	for _, b := range s.data[collection] {
		if len(q.Eq) > 0 || len(q.In) > 0 {
			var doc map[string]any
			if err := json.Unmarshal(b, &doc); err != nil {
				continue
			}
			if !q.Match(doc) {
				continue
			}
		}
		out = append(out, clone(b))
	}
	return out, nil
}

// Tx acumula las escrituras de fn y las aplica juntas bajo el lock de datos.
// lockKey se ignora: en memoria todas las transacciones se serializan.
func (s *Store) Tx(ctx context.Context, lockKey string, fn func(tx docstore.Store) error) error {
	s.txMu.Lock()
	defer s.txMu.Unlock()

	tx := &txStore{parent: s}
	if err := fn(tx); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failWith != nil {
		return s.failWith
	}
	// los patches se mezclan sobre el valor vigente al confirmar, no sobre lo leído en fn
	for _, op := range tx.ops {
		switch {
		case op.del:
			delete(s.data[op.collection], op.id)
		case op.fields != nil:
			if _, err := s.patch(op.collection, op.id, op.fields); err != nil {
				return err
			}
		default:
			s.put(op.collection, op.id, op.data)
		}
	}
	return nil
}

type txOp struct {
	collection string
	id         string
	data       json.RawMessage
	fields     map[string]any
	del        bool
}

// txStore lee lo confirmado y encola escrituras.
type txStore struct {
	parent *Store
	ops    []txOp
}

func (t *txStore) Get(ctx context.Context, collection, id string) (json.RawMessage, error) {
	var pending []map[string]any
	for i := len(t.ops) - 1; i >= 0; i-- {
		op := t.ops[i]
		if op.collection != collection || op.id != id {
			continue
		}
		if op.del {
			return nil, fmt.Errorf("%s/%s: %w", collection, id, errs.ErrNotFound)
		}
		if op.fields != nil {
			pending = append(pending, op.fields)
			continue
		}
		return applyPatches(clone(op.data), pending)
	}
	b, err := t.parent.Get(ctx, collection, id)
	if err != nil {
		return nil, err
	}
	return applyPatches(b, pending)
}

// applyPatches aplica los patches encolados, que vienen del más nuevo al más viejo.
func applyPatches(b json.RawMessage, pending []map[string]any) (json.RawMessage, error) {
	var err error
	for i := len(pending) - 1; i >= 0; i-- {
		if b, err = docstore.Merge(b, pending[i]); err != nil {
			return nil, err
		}
	}
	return b, nil
}

func (t *txStore) Patch(ctx context.Context, collection, id string, fields map[string]any) (json.RawMessage, error) {
	cur, err := t.Get(ctx, collection, id)
	if err != nil {
		return nil, err
	}
	next, err := docstore.Merge(cur, fields)
	if err != nil {
		return nil, err
	}
	t.ops = append(t.ops, txOp{collection: collection, id: id, fields: fields})
	return next, nil
}

func (t *txStore) Put(ctx context.Context, collection, id string, data json.RawMessage) error {
	t.ops = append(t.ops, txOp{collection: collection, id: id, data: clone(data)})
	return nil
}

func (t *txStore) Delete(ctx context.Context, collection, id string) error {
	if _, err := t.Get(ctx, collection, id); err != nil {
		return err
	}
	t.ops = append(t.ops, txOp{collection: collection, id: id, del: true})
	return nil
}

func (t *txStore) Find(ctx context.Context, collection string, q docstore.Query) ([]json.RawMessage, error) {
	return t.parent.Find(ctx, collection, q)
}

func (t *txStore) Tx(ctx context.Context, _ string, fn func(tx docstore.Store) error) error {
	return fn(t)
}

func (t *txStore) Ping(ctx context.Context) error { return t.parent.Ping(ctx) }

func clone(b json.RawMessage) json.RawMessage {
	if b == nil {
		return nil
	}
	out := make(json.RawMessage, len(b))
	copy(out, b)
	return out
}
