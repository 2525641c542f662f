package db

import (
	"context"
	"database/sql"
	"time"

	"github.com/hpungsan/thoughts/internal/errors"
	"github.com/hpungsan/thoughts/internal/thought"
)

// TimeLayout is the stored timestamp format: ISO-8601 in UTC with fixed
// millisecond width, so text ordering matches time ordering.
const TimeLayout = "2006-01-02T15:04:05.000Z"

// FormatTime formats t as a stored timestamp.
func FormatTime(t time.Time) string {
	return t.UTC().Format(TimeLayout)
}

// ParseTime parses a stored timestamp. RFC 3339 values written by other
// tools are accepted too.
func ParseTime(s string) (time.Time, error) {
	if t, err := time.Parse(TimeLayout, s); err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339Nano, s)
}

// Store is the thoughts table behind the create/get/update/scan contract.
// It never stamps timestamps itself; callers supply createdAt and updatedAt.
type Store struct {
	db *sql.DB
}

// NewStore wraps an initialized database.
func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// DB returns the underlying database handle.
func (s *Store) DB() *sql.DB {
	return s.db
}

// Create inserts a new record and returns its store-assigned id.
// r.ID is ignored.
func (s *Store) Create(ctx context.Context, r *thought.Record) (int64, error) {
	fieldsJSON, err := r.Fields.Encode()
	if err != nil {
		return 0, errors.NewInternal(err)
	}

	query := `
		INSERT INTO thoughts (
			fields_json, situation, thought, is_draft,
			schema_revision, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?)
	`

	result, err := s.db.ExecContext(ctx, query,
		string(fieldsJSON), r.Fields.Situation, r.Fields.Thought, r.IsDraft,
		thought.CurrentRevision, FormatTime(r.CreatedAt), FormatTime(r.UpdatedAt),
	)
	if err != nil {
		return 0, storeError(err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, storeError(err)
	}
	return id, nil
}

// Update replaces the fields, draft flag, and updated_at of record r.ID.
// created_at is never rewritten.
func (s *Store) Update(ctx context.Context, r *thought.Record) error {
	fieldsJSON, err := r.Fields.Encode()
	if err != nil {
		return errors.NewInternal(err)
	}

	query := `
		UPDATE thoughts
		SET fields_json = ?, situation = ?, thought = ?, is_draft = ?,
			schema_revision = ?, updated_at = ?
		WHERE id = ?
	`

	result, err := s.db.ExecContext(ctx, query,
		string(fieldsJSON), r.Fields.Situation, r.Fields.Thought, r.IsDraft,
		thought.CurrentRevision, FormatTime(r.UpdatedAt),
		r.ID,
	)
	if err != nil {
		return storeError(err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return storeError(err)
	}
	if rowsAffected == 0 {
		return errors.NewNotFound(r.ID)
	}

	return nil
}

// Get retrieves a record by id. Returns NOT_FOUND if it does not exist.
func (s *Store) Get(ctx context.Context, id int64) (*thought.Stored, error) {
	query := `
		SELECT id, fields_json, is_draft, schema_revision, created_at, updated_at
		FROM thoughts
		WHERE id = ?
	`

	st, err := scanStored(s.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, errors.NewNotFound(id)
	}
	if err != nil {
		return nil, storeError(err)
	}
	return st, nil
}

// ScanFilter narrows a scan. The zero value scans everything.
type ScanFilter struct {
	Drafts *bool // nil: both; true: drafts only; false: finalized only
	Limit  int   // 0: no limit
	Offset int
}

// ScanByUpdatedDesc returns all records, most recently updated first.
func (s *Store) ScanByUpdatedDesc(ctx context.Context) ([]thought.Stored, error) {
	return s.Scan(ctx, ScanFilter{})
}

// Scan returns records matching f, most recently updated first.
// Ties on updated_at break by id, newest first.
func (s *Store) Scan(ctx context.Context, f ScanFilter) ([]thought.Stored, error) {
	where, args := f.where()
	query := `
		SELECT id, fields_json, is_draft, schema_revision, created_at, updated_at
		FROM thoughts` + where + `
		ORDER BY updated_at DESC, id DESC
	`
	if f.Limit > 0 {
		query += " LIMIT ? OFFSET ?"
		args = append(args, f.Limit, f.Offset)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, storeError(err)
	}
	defer rows.Close()

	out := make([]thought.Stored, 0)
	for rows.Next() {
		st, err := scanStored(rows)
		if err != nil {
			return nil, storeError(err)
		}
		out = append(out, *st)
	}
	if err := rows.Err(); err != nil {
		return nil, storeError(err)
	}
	return out, nil
}

// Count returns the number of records matching f's draft filter.
func (s *Store) Count(ctx context.Context, f ScanFilter) (int, error) {
	where, args := f.where()
	var n int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM thoughts"+where, args...).Scan(&n); err != nil {
		return 0, storeError(err)
	}
	return n, nil
}

func (f ScanFilter) where() (string, []any) {
	if f.Drafts == nil {
		return "", nil
	}
	return " WHERE is_draft = ?", []any{*f.Drafts}
}

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanStored(row rowScanner) (*thought.Stored, error) {
	var (
		st         thought.Stored
		fieldsJSON string
		createdAt  string
		updatedAt  string
	)

	err := row.Scan(&st.ID, &fieldsJSON, &st.IsDraft, &st.Revision, &createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}

	st.Fields = []byte(fieldsJSON)
	if st.CreatedAt, err = ParseTime(createdAt); err != nil {
		return nil, err
	}
	if st.UpdatedAt, err = ParseTime(updatedAt); err != nil {
		return nil, err
	}
	return &st, nil
}

// storeError maps driver failures to STORE_UNAVAILABLE. Structured errors
// pass through unchanged.
func storeError(err error) error {
	if _, ok := err.(*errors.ThoughtsError); ok {
		return err
	}
	return errors.NewStoreUnavailable(err)
}
