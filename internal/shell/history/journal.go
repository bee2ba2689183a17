package history

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// =============================================================================
// Run Record
// =============================================================================

// Run is one recorded deployment or rollback attempt.
type Run struct {
	ID            string
	Kind          string // "deploy" or "rollback"
	Tag           string
	Project       string
	Mode          string // "single" or "swarm"
	Stage         string // terminal stage the run reached
	Succeeded     bool
	RolledTargets int
	TotalTargets  int
	Error         string
	StartedAt     time.Time
	FinishedAt    time.Time
}

// NewRunID returns a fresh run identifier.
func NewRunID() string {
	return uuid.NewString()
}

// =============================================================================
// Journal
// =============================================================================

// Journal records runs in SQLite. Callers treat it as best-effort: a journal
// failure is logged by the caller and never changes a run's outcome.
type Journal struct {
	db *sqlx.DB
}

// Open opens (creating if needed) the journal database and runs migrations.
func Open(dsn string) (*Journal, error) {
	db, err := sqlx.Open("sqlite3", dsn+"?_foreign_keys=on")
	if err != nil {
		return nil, NewJournalError("Open", "", "failed to open database", ErrConnectionFailed)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, NewJournalError("Open", "", "failed to ping database", ErrConnectionFailed)
	}

	if err := runMigrations(db.DB); err != nil {
		db.Close()
		return nil, NewJournalError("Open", "", err.Error(), ErrMigrationFailed)
	}

	return &Journal{db: db}, nil
}

// runMigrations runs schema migrations using embedded SQL files.
func runMigrations(db *sql.DB) error {
	driver, err := sqlite3.WithInstance(db, &sqlite3.Config{})
	if err != nil {
		return fmt.Errorf("failed to create migration driver: %w", err)
	}

	source, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("failed to create migration source: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", source, "sqlite3", driver)
	if err != nil {
		return fmt.Errorf("failed to create migrator: %w", err)
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	return nil
}

// Close closes the database connection.
func (j *Journal) Close() error {
	return j.db.Close()
}

// =============================================================================
// Run Operations
// =============================================================================

// runRow represents a run row in the database.
type runRow struct {
	ID            string `db:"id"`
	Kind          string `db:"kind"`
	Tag           string `db:"tag"`
	Project       string `db:"project"`
	Mode          string `db:"mode"`
	Stage         string `db:"stage"`
	Succeeded     bool   `db:"succeeded"`
	RolledTargets int    `db:"rolled_targets"`
	TotalTargets  int    `db:"total_targets"`
	ErrorMessage  string `db:"error_message"`
	StartedAt     string `db:"started_at"`
	FinishedAt    string `db:"finished_at"`
}

// RecordRun inserts one finished run.
func (j *Journal) RecordRun(ctx context.Context, run Run) error {
	if run.ID == "" {
		run.ID = NewRunID()
	}
	row := runRow{
		ID:            run.ID,
		Kind:          run.Kind,
		Tag:           run.Tag,
		Project:       run.Project,
		Mode:          run.Mode,
		Stage:         run.Stage,
		Succeeded:     run.Succeeded,
		RolledTargets: run.RolledTargets,
		TotalTargets:  run.TotalTargets,
		ErrorMessage:  run.Error,
		StartedAt:     run.StartedAt.UTC().Format(time.RFC3339Nano),
		FinishedAt:    run.FinishedAt.UTC().Format(time.RFC3339Nano),
	}

	_, err := j.db.NamedExecContext(ctx, `
		INSERT INTO runs (id, kind, tag, project, mode, stage, succeeded,
			rolled_targets, total_targets, error_message, started_at, finished_at)
		VALUES (:id, :kind, :tag, :project, :mode, :stage, :succeeded,
			:rolled_targets, :total_targets, :error_message, :started_at, :finished_at)
	`, row)
	if err != nil {
		return NewJournalError("RecordRun", run.ID, err.Error(), err)
	}
	return nil
}

// ListRuns returns the most recent runs, newest first.
func (j *Journal) ListRuns(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 20
	}

	var rows []runRow
	err := j.db.SelectContext(ctx, &rows, `
		SELECT id, kind, tag, project, mode, stage, succeeded,
			rolled_targets, total_targets, error_message, started_at, finished_at
		FROM runs
		ORDER BY started_at DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, NewJournalError("ListRuns", "", err.Error(), err)
	}

	runs := make([]Run, 0, len(rows))
	for _, row := range rows {
		runs = append(runs, row.toRun())
	}
	return runs, nil
}

func (r runRow) toRun() Run {
	startedAt, _ := time.Parse(time.RFC3339Nano, r.StartedAt)
	finishedAt, _ := time.Parse(time.RFC3339Nano, r.FinishedAt)
	return Run{
		ID:            r.ID,
		Kind:          r.Kind,
		Tag:           r.Tag,
		Project:       r.Project,
		Mode:          r.Mode,
		Stage:         r.Stage,
		Succeeded:     r.Succeeded,
		RolledTargets: r.RolledTargets,
		TotalTargets:  r.TotalTargets,
		Error:         r.ErrorMessage,
		StartedAt:     startedAt,
		FinishedAt:    finishedAt,
	}
}
