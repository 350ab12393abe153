package history

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

// Run is one finished job as kept in the ledger.
type Run struct {
	JobID           string    `json:"job_id"`
	AccountID       string    `json:"account_id"`
	ItemID          string    `json:"item_id"`
	UserID          string    `json:"user_id"`
	Status          string    `json:"status"`
	UnitNumber      string    `json:"unit_number,omitempty"`
	BlockNumber     string    `json:"block_number,omitempty"`
	SubunitsCreated int       `json:"subunits_created"`
	SubunitsUpdated int       `json:"subunits_updated"`
	SubunitsDeleted int       `json:"subunits_deleted"`
	OwnersCreated   int       `json:"owners_created"`
	OwnersUpdated   int       `json:"owners_updated"`
	OwnersDeleted   int       `json:"owners_deleted"`
	Failures        int       `json:"failures"`
	Notes           string    `json:"notes,omitempty"`
	Error           string    `json:"error,omitempty"`
	StartedAt       time.Time `json:"started_at"`
	FinishedAt      time.Time `json:"finished_at"`
}

const schema = `CREATE TABLE IF NOT EXISTS sync_runs (
	job_id           TEXT PRIMARY KEY,
	account_id       TEXT NOT NULL,
	item_id          TEXT NOT NULL,
	user_id          TEXT NOT NULL DEFAULT '',
	status           TEXT NOT NULL,
	unit_number      TEXT NOT NULL DEFAULT '',
	block_number     TEXT NOT NULL DEFAULT '',
	subunits_created INTEGER NOT NULL DEFAULT 0,
	subunits_updated INTEGER NOT NULL DEFAULT 0,
	subunits_deleted INTEGER NOT NULL DEFAULT 0,
	owners_created   INTEGER NOT NULL DEFAULT 0,
	owners_updated   INTEGER NOT NULL DEFAULT 0,
	owners_deleted   INTEGER NOT NULL DEFAULT 0,
	failures         INTEGER NOT NULL DEFAULT 0,
	notes            TEXT NOT NULL DEFAULT '',
	error            TEXT NOT NULL DEFAULT '',
	started_at       TEXT NOT NULL,
	finished_at      TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_sync_runs_account ON sync_runs(account_id, finished_at);`

// timeLayout is fixed width so stored timestamps sort as text.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

// Store is the SQLite ledger of finished sync runs.
type Store struct {
	db *sql.DB
}

// Open opens (or creates) the ledger at path. ":memory:" gives a private
// in-memory ledger.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open history db: %w", err)
	}
	// One connection keeps writes serialized and shares an in-memory db.
	db.SetMaxOpenConns(1)

	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("set pragma: %w", err)
		}
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Record stores a finished run, replacing any earlier row for the job.
func (s *Store) Record(ctx context.Context, r Run) error {
	_, err := s.db.ExecContext(ctx, `INSERT OR REPLACE INTO sync_runs (
		job_id, account_id, item_id, user_id, status, unit_number, block_number,
		subunits_created, subunits_updated, subunits_deleted,
		owners_created, owners_updated, owners_deleted,
		failures, notes, error, started_at, finished_at
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.JobID, r.AccountID, r.ItemID, r.UserID, r.Status, r.UnitNumber, r.BlockNumber,
		r.SubunitsCreated, r.SubunitsUpdated, r.SubunitsDeleted,
		r.OwnersCreated, r.OwnersUpdated, r.OwnersDeleted,
		r.Failures, r.Notes, r.Error,
		r.StartedAt.UTC().Format(timeLayout), r.FinishedAt.UTC().Format(timeLayout),
	)
	if err != nil {
		return fmt.Errorf("record run %s: %w", r.JobID, err)
	}
	return nil
}

// Recent lists the latest runs of an account, newest first.
func (s *Store) Recent(ctx context.Context, accountID string, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx, `SELECT
		job_id, account_id, item_id, user_id, status, unit_number, block_number,
		subunits_created, subunits_updated, subunits_deleted,
		owners_created, owners_updated, owners_deleted,
		failures, notes, error, started_at, finished_at
	FROM sync_runs WHERE account_id = ? ORDER BY finished_at DESC LIMIT ?`, accountID, limit)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var r Run
		var started, finished string
		if err := rows.Scan(
			&r.JobID, &r.AccountID, &r.ItemID, &r.UserID, &r.Status, &r.UnitNumber, &r.BlockNumber,
			&r.SubunitsCreated, &r.SubunitsUpdated, &r.SubunitsDeleted,
			&r.OwnersCreated, &r.OwnersUpdated, &r.OwnersDeleted,
			&r.Failures, &r.Notes, &r.Error, &started, &finished,
		); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		r.StartedAt, _ = time.Parse(timeLayout, started)
		r.FinishedAt, _ = time.Parse(timeLayout, finished)
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

func (s *Store) Close() error {
	return s.db.Close()
}
