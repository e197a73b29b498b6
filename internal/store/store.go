// Package store persists the ledger in SQLite and promotes a new ledger
// generation with a rename swap that keeps one backup.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	_ "modernc.org/sqlite"

	"github.com/releve-dev/releve/internal/model"
	"github.com/releve-dev/releve/internal/reconcile"
)

var (
	// ErrCommit is matched by every *CommitError.
	ErrCommit = errors.New("ledger commit failed")
	// ErrNotFound is returned when a row id is not in the ledger.
	ErrNotFound = errors.New("ledger row not found")
)

// CommitError reports which step of the swap failed. The canonical table is
// unchanged and the temp table is left in place for inspection.
type CommitError struct {
	Step string
	Err  error
}

func (e *CommitError) Error() string {
	return fmt.Sprintf("committing ledger: %s: %v", e.Step, e.Err)
}

func (e *CommitError) Unwrap() error { return e.Err }

func (e *CommitError) Is(target error) bool { return target == ErrCommit }

// Gateway is the ledger store used by the pipeline and the commands.
type Gateway interface {
	ReadAll(ctx context.Context) (reconcile.Table, error)
	WriteReplace(ctx context.Context, name string, rows []model.Transaction) error
	Exec(ctx context.Context, stmt string, args ...any) error
	Commit(ctx context.Context, rows []model.Transaction) error
	SetCategory(ctx context.Context, id int, category string) error
	Close() error
}

// Tables names the canonical ledger table, its backup and the staging table.
type Tables struct {
	Canonical string
	Backup    string
	Temp      string
}

// Options configures a SQLite store.
type Options struct {
	Tables          Tables
	DefaultCategory string // empty means model.DefaultCategory
}

// SQLite is a Gateway backed by a single SQLite file.
type SQLite struct {
	db     *sql.DB
	tables Tables
	def    string
}

var _ Gateway = (*SQLite)(nil)

// Open opens (or creates) the SQLite file at path.
func Open(path string, opts Options) (*SQLite, error) {
	t := opts.Tables
	if t.Canonical == "" || t.Backup == "" || t.Temp == "" {
		return nil, fmt.Errorf("opening ledger store: table names are required")
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening ledger store: %w", err)
	}
	// SQLite allows a single writer.
	db.SetMaxOpenConns(1)
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("opening ledger store %s: %w", path, err)
	}

	def := opts.DefaultCategory
	if def == "" {
		def = model.DefaultCategory
	}
	return &SQLite{db: db, tables: t, def: def}, nil
}

// Close closes the database handle.
func (s *SQLite) Close() error {
	return s.db.Close()
}

// Tables returns the configured table names.
func (s *SQLite) Tables() Tables {
	return s.tables
}

// ReadAll returns the canonical ledger in id order. A missing table reads as
// an empty ledger with every column.
func (s *SQLite) ReadAll(ctx context.Context) (reconcile.Table, error) {
	return s.ReadTable(ctx, s.tables.Canonical)
}

// Exec runs a single statement outside the swap.
func (s *SQLite) Exec(ctx context.Context, stmt string, args ...any) error {
	if _, err := s.db.ExecContext(ctx, stmt, args...); err != nil {
		return fmt.Errorf("executing statement: %w", err)
	}
	return nil
}

// WriteReplace drops table name if present and writes rows into a fresh one,
// all in one transaction.
func (s *SQLite) WriteReplace(ctx context.Context, name string, rows []model.Transaction) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning write of %s: %w", name, err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DROP TABLE IF EXISTS "+quoteIdent(name)); err != nil {
		return fmt.Errorf("dropping %s: %w", name, err)
	}
	if _, err := tx.ExecContext(ctx, createTableSQL(name)); err != nil {
		return fmt.Errorf("creating %s: %w", name, err)
	}
	if err := insertRows(ctx, tx, name, rows); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing write of %s: %w", name, err)
	}
	return nil
}

// Commit stages rows in the temp table, then in one transaction drops the
// backup, renames the canonical table to the backup name and renames the
// temp table to the canonical name. A reader sees either the old ledger or
// the new one.
func (s *SQLite) Commit(ctx context.Context, rows []model.Transaction) error {
	t := s.tables
	if err := s.Exec(ctx, "DROP TABLE IF EXISTS "+quoteIdent(t.Temp)); err != nil {
		return &CommitError{Step: "drop stale temp", Err: err}
	}
	if err := s.WriteReplace(ctx, t.Temp, rows); err != nil {
		return &CommitError{Step: "write temp", Err: err}
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return &CommitError{Step: "begin swap", Err: err}
	}
	defer tx.Rollback()

	exists, err := tableExists(ctx, tx, t.Canonical)
	if err != nil {
		return &CommitError{Step: "inspect canonical", Err: err}
	}
	if _, err := tx.ExecContext(ctx, "DROP TABLE IF EXISTS "+quoteIdent(t.Backup)); err != nil {
		return &CommitError{Step: "drop backup", Err: err}
	}
	if exists {
		if _, err := tx.ExecContext(ctx, renameSQL(t.Canonical, t.Backup)); err != nil {
			return &CommitError{Step: "rename canonical to backup", Err: err}
		}
	}
	if _, err := tx.ExecContext(ctx, renameSQL(t.Temp, t.Canonical)); err != nil {
		return &CommitError{Step: "rename temp to canonical", Err: err}
	}
	if err := tx.Commit(); err != nil {
		return &CommitError{Step: "commit swap", Err: err}
	}
	return nil
}

// SetCategory records a manual decision on one row: the category is replaced
// and the row settled, except that choosing the default category only
// settles the row.
func (s *SQLite) SetCategory(ctx context.Context, id int, category string) error {
	table := quoteIdent(s.tables.Canonical)
	var (
		res sql.Result
		err error
	)
	if category == s.def {
		res, err = s.db.ExecContext(ctx,
			"UPDATE "+table+" SET "+model.ColSettled+" = 1 WHERE "+model.ColID+" = ?", id)
	} else {
		res, err = s.db.ExecContext(ctx,
			"UPDATE "+table+" SET "+model.ColCategory+" = ?, "+model.ColSettled+" = 1 WHERE "+model.ColID+" = ?",
			category, id)
	}
	if err != nil {
		return fmt.Errorf("updating row %d: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("updating row %d: %w", id, err)
	}
	if n == 0 {
		return fmt.Errorf("row %d: %w", id, ErrNotFound)
	}
	return nil
}

type queryer interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func tableExists(ctx context.Context, q queryer, name string) (bool, error) {
	var n int
	err := q.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = ?", name).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("checking table %s: %w", name, err)
	}
	return n > 0, nil
}
