package history

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/studiowebux/benchverify/internal/config"
	"github.com/studiowebux/benchverify/internal/message"
	"github.com/studiowebux/benchverify/internal/migrations"
)

// timestampFormat sorts lexically when stored in UTC
const timestampFormat = "2006-01-02T15:04:05.000000000Z07:00"

type Manager struct {
	db *sql.DB
}

func NewManager(dbPath string) (*Manager, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, config.DirPermissions); err != nil {
		return nil, fmt.Errorf("failed to create history directory: %w", err)
	}

	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("failed to open history database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to history database: %w", err)
	}

	if err := migrations.Run(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return &Manager{db: db}, nil
}

// Save stores run and its findings in one transaction
func (m *Manager) Save(run *Run) error {
	tx, err := m.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin history transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.Exec(`
		INSERT INTO runs (
			id, test_type, url, database, status, warnings, errors, started_at, finished_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		run.ID,
		run.TestType,
		run.URL,
		run.Database,
		run.Status,
		run.Warnings,
		run.Errors,
		run.StartedAt.UTC().Format(timestampFormat),
		run.FinishedAt.UTC().Format(timestampFormat),
	)
	if err != nil {
		return fmt.Errorf("failed to save run: %w", err)
	}

	stmt, err := tx.Prepare(`
		INSERT INTO findings (run_id, position, kind, message, short_message, url, headers, body)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare finding insert: %w", err)
	}
	defer stmt.Close()

	for i, f := range run.Findings {
		if _, err := stmt.Exec(run.ID, i, f.Kind.String(), f.Message, f.ShortMessage, f.URL, f.Headers, f.Body); err != nil {
			return fmt.Errorf("failed to save finding: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit run: %w", err)
	}
	return nil
}

// List returns the latest runs, newest first, with their findings.
// limit <= 0 returns every run.
func (m *Manager) List(limit int) ([]*Run, error) {
	query := `
		SELECT id, test_type, url, COALESCE(database, ''), status, warnings, errors, started_at, finished_at
		FROM runs
		ORDER BY started_at DESC
	`
	args := []any{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := m.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to load history: %w", err)
	}
	runs, err := scanRuns(rows)
	rows.Close()
	if err != nil {
		return nil, err
	}

	for _, run := range runs {
		if run.Findings, err = m.findings(run.ID); err != nil {
			return nil, err
		}
	}
	return runs, nil
}

// Get returns one run by id
func (m *Manager) Get(id string) (*Run, error) {
	rows, err := m.db.Query(`
		SELECT id, test_type, url, COALESCE(database, ''), status, warnings, errors, started_at, finished_at
		FROM runs
		WHERE id = ?
	`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load run: %w", err)
	}
	runs, err := scanRuns(rows)
	rows.Close()
	if err != nil {
		return nil, err
	}
	if len(runs) == 0 {
		return nil, fmt.Errorf("run %s not found", id)
	}

	run := runs[0]
	if run.Findings, err = m.findings(run.ID); err != nil {
		return nil, err
	}
	return run, nil
}

func scanRuns(rows *sql.Rows) ([]*Run, error) {
	var runs []*Run

	for rows.Next() {
		var run Run
		var startedAt, finishedAt string

		err := rows.Scan(
			&run.ID,
			&run.TestType,
			&run.URL,
			&run.Database,
			&run.Status,
			&run.Warnings,
			&run.Errors,
			&startedAt,
			&finishedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}

		run.StartedAt, _ = time.Parse(timestampFormat, startedAt)
		run.FinishedAt, _ = time.Parse(timestampFormat, finishedAt)
		runs = append(runs, &run)
	}

	return runs, rows.Err()
}

func (m *Manager) findings(runID string) ([]message.Record, error) {
	rows, err := m.db.Query(`
		SELECT kind, message, short_message, url, COALESCE(headers, ''), COALESCE(body, '')
		FROM findings
		WHERE run_id = ?
		ORDER BY position
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to load findings: %w", err)
	}
	defer rows.Close()

	var records []message.Record
	for rows.Next() {
		var r message.Record
		var kind string
		if err := rows.Scan(&kind, &r.Message, &r.ShortMessage, &r.URL, &r.Headers, &r.Body); err != nil {
			return nil, fmt.Errorf("failed to scan finding: %w", err)
		}
		if err := r.Kind.UnmarshalText([]byte(kind)); err != nil {
			return nil, fmt.Errorf("failed to decode finding: %w", err)
		}
		records = append(records, r)
	}
	return records, rows.Err()
}

func (m *Manager) Clear() error {
	if _, err := m.db.Exec("DELETE FROM findings"); err != nil {
		return fmt.Errorf("failed to clear findings: %w", err)
	}
	if _, err := m.db.Exec("DELETE FROM runs"); err != nil {
		return fmt.Errorf("failed to clear history: %w", err)
	}
	return nil
}

func (m *Manager) Delete(id string) error {
	_, err := m.db.Exec("DELETE FROM runs WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete run: %w", err)
	}
	return nil
}

func (m *Manager) GetCount() (int, error) {
	var count int
	err := m.db.QueryRow("SELECT COUNT(*) FROM runs").Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to get history count: %w", err)
	}
	return count, nil
}

func (m *Manager) Close() error {
	if m.db != nil {
		return m.db.Close()
	}
	return nil
}
