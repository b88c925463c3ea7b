package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"apa-backoffice/internal/domain/errs"
	"apa-backoffice/internal/ports/docstore"
)

type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Store implementa docstore.Store sobre la tabla documents.
type Store struct {
	db *sql.DB
	q  querier
}

func NewStore(db *sql.DB) *Store {
	return &Store{db: db, q: db}
}

func (s *Store) Ping(ctx context.Context) error {
	if s.db != nil {
		if err := s.db.PingContext(ctx); err != nil {
			return mapErr(err)
		}
	}
	var one int
	err := s.q.QueryRowContext(ctx, `SELECT 1 FROM documents LIMIT 1`).Scan(&one)
	if err == sql.ErrNoRows {
		return nil
	}
	return mapErr(err)
}

func (s *Store) Get(ctx context.Context, collection, id string) (json.RawMessage, error) {
	var data []byte
	err := s.q.QueryRowContext(ctx, `
		SELECT data FROM documents
		WHERE collection = $1 AND id = $2
	`, collection, id).Scan(&data)
	if err != nil {
		err = mapErr(err)
		if err == errs.ErrNotFound {
			return nil, fmt.Errorf("%s/%s: %w", collection, id, errs.ErrNotFound)
		}
		return nil, err
	}
	return json.RawMessage(data), nil
}

func (s *Store) Put(ctx context.Context, collection, id string, data json.RawMessage) error {
	_, err := s.q.ExecContext(ctx, `
		INSERT INTO documents (collection, id, data)
		VALUES ($1, $2, $3::jsonb)
		ON CONFLICT (collection, id)
		DO UPDATE SET data = EXCLUDED.data, updated_at = now()
	`, collection, id, string(data))
	return mapErr(err)
}

// Patch usa el operador || de jsonb: reemplaza solo las claves de primer nivel enviadas.
func (s *Store) Patch(ctx context.Context, collection, id string, fields map[string]any) (json.RawMessage, error) {
	b, err := json.Marshal(fields)
	if err != nil {
		return nil, fmt.Errorf("patch %s/%s: %w", collection, id, err)
	}
	var data []byte
	err = s.q.QueryRowContext(ctx, `
		UPDATE documents SET data = data || $3::jsonb, updated_at = now()
		WHERE collection = $1 AND id = $2
		RETURNING data
	`, collection, id, string(b)).Scan(&data)
	if err != nil {
		err = mapErr(err)
		if err == errs.ErrNotFound {
			return nil, fmt.Errorf("%s/%s: %w", collection, id, errs.ErrNotFound)
		}
		return nil, err
	}
	return json.RawMessage(data), nil
}

func (s *Store) Delete(ctx context.Context, collection, id string) error {
	res, err := s.q.ExecContext(ctx, `
		DELETE FROM documents WHERE collection = $1 AND id = $2
	`, collection, id)
	if err != nil {
		return mapErr(err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return fmt.Errorf("%s/%s: %w", collection, id, errs.ErrNotFound)
	}
	return nil
}

func (s *Store) Find(ctx context.Context, collection string, q docstore.Query) ([]json.RawMessage, error) {
	query, args := buildFind(collection, q)

	rows, err := s.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, mapErr(err)
	}
	defer rows.Close()

	out := make([]json.RawMessage, 0)
	for rows.Next() {
		var data []byte
		if err := rows.Scan(&data); err != nil {
			return nil, mapErr(err)
		}
		out = append(out, json.RawMessage(data))
	}
	return out, mapErr(rows.Err())
}

// buildFind arma el SELECT. Los nombres de campo viajan como parámetros (data->>$n).
func buildFind(collection string, q docstore.Query) (string, []any) {
	var b strings.Builder
	b.WriteString(`SELECT data FROM documents WHERE collection = $1`)
	args := []any{collection}

	for _, k := range sortedKeys(q.Eq) {
		args = append(args, k, q.Eq[k])
		fmt.Fprintf(&b, ` AND coalesce(data->>$%d, '') = $%d`, len(args)-1, len(args))
	}
	for _, k := range sortedKeys(q.In) {
		args = append(args, k, q.In[k])
		fmt.Fprintf(&b, ` AND coalesce(data->>$%d, '') = ANY($%d)`, len(args)-1, len(args))
	}
	return b.String(), args
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Tx abre una transacción y toma un advisory lock por lockKey, así dos
// chequear-y-escribir sobre la misma clave no se intercalan.
func (s *Store) Tx(ctx context.Context, lockKey string, fn func(tx docstore.Store) error) error {
	if s.db == nil {
		// ya estamos dentro de una transacción
		return fn(s)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return mapErr(err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, lockKey); err != nil {
		return mapErr(err)
	}

	if err := fn(&Store{q: tx}); err != nil {
		return err
	}
	return mapErr(tx.Commit())
}
