package core

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

const (
	dataDirName   = ".mdlinker"
	historyDBName = "history.sqlite"
)

// Change statuses stored in the history database.
const (
	StatusWritten  = "written"
	StatusFailed   = "failed"
	StatusReverted = "reverted"
)

// ErrRunNotFound is returned when no recorded run matches an id.
var ErrRunNotFound = errors.New("run not found")

// RunRecord is what a finished workflow hands to a Recorder.
type RunRecord struct {
	ID         string
	Mode       string
	StartedAt  time.Time
	FinishedAt time.Time
	Changes    []ChangeRecord
}

// ChangeRecord is one applied (or failed) change operation of a run.
type ChangeRecord struct {
	Operation ChangeOperation
	Err       error
}

// Recorder persists finished runs.
type Recorder interface {
	RecordRun(ctx context.Context, rec RunRecord) error
}

// RunSummary is one row of the run list.
type RunSummary struct {
	ID         string `json:"id"`
	Mode       string `json:"mode"`
	StartedAt  int64  `json:"started_at"`
	FinishedAt int64  `json:"finished_at"`
	Documents  int    `json:"documents"`
	Edits      int    `json:"edits"` // written and not reverted
	Failed     int    `json:"failed"`
	Reverted   int    `json:"reverted"`
}

// StoredChange is one document change as recorded.
type StoredChange struct {
	ID              int64
	RunID           string
	DocumentID      string
	OriginalContent string
	NewContent      string
	Edits           int
	Status          string
	Error           string
}

// History stores finished runs in .mdlinker/history.sqlite under the vault.
type History struct {
	db *sql.DB
}

var _ Recorder = (*History)(nil)

func historyPath(vaultPath string) string {
	return filepath.Join(vaultPath, dataDirName, historyDBName)
}

func ensureDataDir(vaultPath string) (string, error) {
	dir := filepath.Join(vaultPath, dataDirName)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	return dir, nil
}

// OpenHistory opens (creating if needed) the vault's history database.
func OpenHistory(vaultPath string) (*History, error) {
	if _, err := ensureDataDir(vaultPath); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", fmt.Sprintf("file:%s", historyPath(vaultPath)))
	if err != nil {
		return nil, err
	}
	if err := initSchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("history schema: %w", err)
	}
	return &History{db: db}, nil
}

// Close closes the database.
func (h *History) Close() error { return h.db.Close() }

func initSchema(db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS runs (
			id          TEXT PRIMARY KEY,
			mode        TEXT NOT NULL,
			started_at  INTEGER NOT NULL,
			finished_at INTEGER NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS changes (
			id               INTEGER PRIMARY KEY,
			run_id           TEXT NOT NULL,
			document_id      TEXT NOT NULL,
			original_content BLOB NOT NULL,
			new_content      BLOB NOT NULL,
			edits            INTEGER NOT NULL,
			status           TEXT NOT NULL,
			error            TEXT,
			FOREIGN KEY(run_id) REFERENCES runs(id)
		);`,
		`CREATE INDEX IF NOT EXISTS idx_changes_run ON changes(run_id);`,
		`CREATE TABLE IF NOT EXISTS edits (
			id               INTEGER PRIMARY KEY,
			change_id        INTEGER NOT NULL,
			position         INTEGER NOT NULL,
			original_text    TEXT NOT NULL,
			replacement_text TEXT NOT NULL,
			target_id        TEXT NOT NULL,
			FOREIGN KEY(change_id) REFERENCES changes(id)
		);`,
		`CREATE INDEX IF NOT EXISTS idx_edits_change ON edits(change_id);`,
	}
	for _, stmt := range stmts {
		if _, err := db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

// RecordRun stores a run and its changes in one transaction.
func (h *History) RecordRun(ctx context.Context, rec RunRecord) error {
	tx, err := h.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO runs (id, mode, started_at, finished_at) VALUES (?, ?, ?, ?)`,
		rec.ID, rec.Mode, rec.StartedAt.Unix(), rec.FinishedAt.Unix(),
	); err != nil {
		return err
	}
	for _, ch := range rec.Changes {
		op := ch.Operation
		status, errText := StatusWritten, ""
		if ch.Err != nil {
			status, errText = StatusFailed, ch.Err.Error()
		}
		res, err := tx.ExecContext(ctx,
			`INSERT INTO changes (run_id, document_id, original_content, new_content, edits, status, error)
			 VALUES (?, ?, ?, ?, ?, ?, ?)`,
			rec.ID, op.DocumentID, []byte(op.OriginalContent), []byte(op.Content), len(op.Edits), status, errText,
		)
		if err != nil {
			return err
		}
		changeID, err := res.LastInsertId()
		if err != nil {
			return err
		}
		for _, e := range op.Edits {
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO edits (change_id, position, original_text, replacement_text, target_id)
				 VALUES (?, ?, ?, ?, ?)`,
				changeID, e.Position, e.OriginalText, e.ReplacementText, e.TargetID,
			); err != nil {
				return err
			}
		}
	}
	return tx.Commit()
}

// Runs lists recorded runs, newest first.
func (h *History) Runs(ctx context.Context) ([]RunSummary, error) {
	rows, err := h.db.QueryContext(ctx, `
		SELECT r.id, r.mode, r.started_at, r.finished_at,
		       COUNT(c.id),
		       COALESCE(SUM(CASE WHEN c.status = 'written' THEN c.edits ELSE 0 END), 0),
		       COALESCE(SUM(CASE WHEN c.status = 'failed' THEN 1 ELSE 0 END), 0),
		       COALESCE(SUM(CASE WHEN c.status = 'reverted' THEN 1 ELSE 0 END), 0)
		FROM runs r LEFT JOIN changes c ON c.run_id = r.id
		GROUP BY r.id
		ORDER BY r.started_at DESC, r.id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []RunSummary
	for rows.Next() {
		var s RunSummary
		if err := rows.Scan(&s.ID, &s.Mode, &s.StartedAt, &s.FinishedAt, &s.Documents, &s.Edits, &s.Failed, &s.Reverted); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// ResolveRunID expands a unique id prefix to the full run id.
func (h *History) ResolveRunID(ctx context.Context, prefix string) (string, error) {
	rows, err := h.db.QueryContext(ctx, `SELECT id FROM runs WHERE substr(id, 1, ?) = ?`, len(prefix), prefix)
	if err != nil {
		return "", err
	}
	defer rows.Close()
	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return "", err
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return "", err
	}
	switch len(ids) {
	case 0:
		return "", fmt.Errorf("%w: %s", ErrRunNotFound, prefix)
	case 1:
		return ids[0], nil
	default:
		return "", fmt.Errorf("ambiguous run id prefix %s: %d runs", prefix, len(ids))
	}
}

// Changes returns the recorded changes of a run in document order.
func (h *History) Changes(ctx context.Context, runID string) ([]StoredChange, error) {
	rows, err := h.db.QueryContext(ctx, `
		SELECT id, run_id, document_id, original_content, new_content, edits, status, COALESCE(error, '')
		FROM changes WHERE run_id = ? ORDER BY document_id`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []StoredChange
	for rows.Next() {
		var c StoredChange
		if err := rows.Scan(&c.ID, &c.RunID, &c.DocumentID, &c.OriginalContent, &c.NewContent, &c.Edits, &c.Status, &c.Error); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// Edits returns the recorded edits of one change in position order.
func (h *History) Edits(ctx context.Context, changeID int64) ([]Edit, error) {
	rows, err := h.db.QueryContext(ctx, `
		SELECT position, original_text, replacement_text, target_id
		FROM edits WHERE change_id = ? ORDER BY position`, changeID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Edit
	for rows.Next() {
		var e Edit
		if err := rows.Scan(&e.Position, &e.OriginalText, &e.ReplacementText, &e.TargetID); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (h *History) markReverted(ctx context.Context, changeID int64) error {
	_, err := h.db.ExecContext(ctx, `UPDATE changes SET status = ? WHERE id = ?`, StatusReverted, changeID)
	return err
}
