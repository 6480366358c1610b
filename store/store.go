// Package store implements the ownership-scoped resource accessor shared by
// every owned collection. Each access filters on both id and owner in a
// single statement, so a foreign row and an absent row are indistinguishable
// by construction. Ownership is never transferred after creation, so no
// locking is needed between check and mutation.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"strings"
)

// ErrNotFound covers both nonexistent ids and rows owned by someone else.
var ErrNotFound = errors.New("resource not found")

// Scanner is satisfied by *sql.Row and *sql.Rows.
type Scanner interface {
	Scan(dest ...any) error
}

// Descriptor binds a Store to one resource table.
type Descriptor[T any] struct {
	// Table is the SQL table name.
	Table string
	// Columns lists every selectable column, in the order Scan expects.
	// Must include "id" and "owner".
	Columns []string
	// Scan reads one row into a T.
	Scan func(row Scanner) (T, error)
}

// Store is a generic accessor over one owned-resource table.
type Store[T any] struct {
	db   *sql.DB
	desc Descriptor[T]
}

func New[T any](db *sql.DB, desc Descriptor[T]) *Store[T] {
	return &Store[T]{db: db, desc: desc}
}

func (s *Store[T]) columns() string {
	return strings.Join(s.desc.Columns, ", ")
}

// List returns every row owned by owner, ordered by id.
func (s *Store[T]) List(ctx context.Context, owner int) ([]T, error) {
	query := fmt.Sprintf("SELECT %s FROM %s WHERE owner = $1 ORDER BY id", s.columns(), s.desc.Table)
	rows, err := s.db.QueryContext(ctx, query, owner)
	if err != nil {
		return nil, fmt.Errorf("listing %s: %w", s.desc.Table, err)
	}
	defer rows.Close()

	var items []T
	for rows.Next() {
		item, err := s.desc.Scan(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning %s: %w", s.desc.Table, err)
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

// Get returns the row with the given id if owner owns it, ErrNotFound
// otherwise.
func (s *Store[T]) Get(ctx context.Context, id, owner int) (T, error) {
	var zero T
	query := fmt.Sprintf("SELECT %s FROM %s WHERE id = $1 AND owner = $2", s.columns(), s.desc.Table)
	item, err := s.desc.Scan(s.db.QueryRowContext(ctx, query, id, owner))
	if errors.Is(err, sql.ErrNoRows) {
		return zero, ErrNotFound
	}
	if err != nil {
		return zero, fmt.Errorf("fetching %s %d: %w", s.desc.Table, id, err)
	}
	return item, nil
}

// Create inserts a row with the given columns and values. The owner column
// always comes from the authenticated user; client-supplied owners are never
// honored.
func (s *Store[T]) Create(ctx context.Context, owner int, cols []string, vals []any) (T, error) {
	var zero T
	insertCols := append([]string{"owner"}, cols...)
	placeholders := make([]string, len(insertCols))
	for i := range insertCols {
		placeholders[i] = fmt.Sprintf("$%d", i+1)
	}
	query := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s) RETURNING %s",
		s.desc.Table, strings.Join(insertCols, ", "), strings.Join(placeholders, ", "), s.columns())

	args := append([]any{owner}, vals...)
	item, err := s.desc.Scan(s.db.QueryRowContext(ctx, query, args...))
	if err != nil {
		return zero, fmt.Errorf("creating %s: %w", s.desc.Table, err)
	}
	return item, nil
}

// Update applies the supplied column changes in one statement and returns the
// post-update row. Columns absent from changes are untouched; concurrent
// updates to disjoint columns therefore never clobber each other. An empty
// change set degrades to Get.
func (s *Store[T]) Update(ctx context.Context, id, owner int, changes map[string]any) (T, error) {
	if len(changes) == 0 {
		return s.Get(ctx, id, owner)
	}
	var zero T

	cols := make([]string, 0, len(changes))
	for col := range changes {
		cols = append(cols, col)
	}
	sort.Strings(cols)

	assignments := make([]string, len(cols))
	args := make([]any, 0, len(cols)+2)
	for i, col := range cols {
		assignments[i] = fmt.Sprintf("%s = $%d", col, i+1)
		args = append(args, changes[col])
	}
	args = append(args, id, owner)
	query := fmt.Sprintf("UPDATE %s SET %s WHERE id = $%d AND owner = $%d RETURNING %s",
		s.desc.Table, strings.Join(assignments, ", "), len(cols)+1, len(cols)+2, s.columns())

	item, err := s.desc.Scan(s.db.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return zero, ErrNotFound
	}
	if err != nil {
		return zero, fmt.Errorf("updating %s %d: %w", s.desc.Table, id, err)
	}
	return item, nil
}

// Delete removes the row if owner owns it. Dependent rows (todo children) go
// with it via the schema's cascade rules, not application code.
func (s *Store[T]) Delete(ctx context.Context, id, owner int) error {
	query := fmt.Sprintf("DELETE FROM %s WHERE id = $1 AND owner = $2", s.desc.Table)
	res, err := s.db.ExecContext(ctx, query, id, owner)
	if err != nil {
		return fmt.Errorf("deleting %s %d: %w", s.desc.Table, id, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}
