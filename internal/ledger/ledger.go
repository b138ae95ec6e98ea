// Package ledger keeps a sqlite history of validation runs so repeated
// checks of the same unit can be compared.
package ledger

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/tidwall/gjson"
	_ "modernc.org/sqlite"

	"github.com/dshills/watscheck/internal/verdict"
	"github.com/dshills/watscheck/internal/violation"
)

// openDB is a package-level var to allow test injection.
var openDB = sql.Open

// Run is one recorded validation.
type Run struct {
	ID        int64                  `json:"id"`
	File      string                 `json:"file"`
	Digest    string                 `json:"digest"`
	ReportID  string                 `json:"report_id,omitempty"`
	PN        string                 `json:"pn,omitempty"`
	SN        string                 `json:"sn,omitempty"`
	Profile   string                 `json:"profile"`
	Verdict   verdict.Verdict        `json:"verdict"`
	Score     int                    `json:"score"`
	Total     int                    `json:"total"`
	Counts    map[violation.Kind]int `json:"counts"`
	CreatedAt string                 `json:"created_at"`
}

// RecordParams holds the input for recording a run.
type RecordParams struct {
	File    string
	Raw     []byte
	Profile string
	Summary verdict.Summary
}

// Query filters Recent. A zero Limit means 20.
type Query struct {
	SN    string
	Limit int
}

// Ledger is an open history database.
type Ledger struct {
	db  *sql.DB
	now func() time.Time
}

// Open opens or creates the database at path.
func Open(path string) (*Ledger, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return nil, fmt.Errorf("ledger: create data dir: %w", err)
		}
	}
	db, err := openDB("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("ledger: open database: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA synchronous = NORMAL",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			db.Close()
			return nil, fmt.Errorf("ledger: pragma %q: %w", p, err)
		}
	}

	l := &Ledger{db: db, now: time.Now}
	if err := l.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ledger: migration: %w", err)
	}
	return l, nil
}

// Close closes the underlying database connection.
func (l *Ledger) Close() error {
	return l.db.Close()
}

func (l *Ledger) migrate() error {
	_, err := l.db.Exec(`
		CREATE TABLE IF NOT EXISTS runs (
			id         INTEGER PRIMARY KEY AUTOINCREMENT,
			file       TEXT NOT NULL,
			digest     TEXT NOT NULL,
			report_id  TEXT,
			pn         TEXT,
			sn         TEXT,
			profile    TEXT NOT NULL,
			verdict    TEXT NOT NULL,
			score      INTEGER NOT NULL,
			total      INTEGER NOT NULL,
			counts     TEXT NOT NULL,
			created_at TEXT NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_runs_sn ON runs(sn);
		CREATE INDEX IF NOT EXISTS idx_runs_created ON runs(created_at);
	`)
	return err
}

// Record stores a run. Report identity fields are read from Raw when it is
// valid JSON; otherwise they are left empty.
func (l *Ledger) Record(ctx context.Context, p RecordParams) (Run, error) {
	sum := sha256.Sum256(p.Raw)
	run := Run{
		File:      p.File,
		Digest:    hex.EncodeToString(sum[:]),
		Profile:   p.Profile,
		Verdict:   p.Summary.Verdict,
		Score:     p.Summary.Score,
		Total:     p.Summary.Total,
		Counts:    p.Summary.Counts,
		CreatedAt: l.now().UTC().Format(time.RFC3339Nano),
	}
	if gjson.ValidBytes(p.Raw) {
		doc := gjson.ParseBytes(p.Raw)
		run.ReportID = doc.Get("id").String()
		run.PN = doc.Get("pn").String()
		run.SN = doc.Get("sn").String()
	}
	if run.Counts == nil {
		run.Counts = map[violation.Kind]int{}
	}
	counts, err := json.Marshal(run.Counts)
	if err != nil {
		return Run{}, fmt.Errorf("ledger: encode counts: %w", err)
	}

	res, err := l.db.ExecContext(ctx,
		`INSERT INTO runs (file, digest, report_id, pn, sn, profile, verdict, score, total, counts, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.File, run.Digest, run.ReportID, run.PN, run.SN, run.Profile,
		string(run.Verdict), run.Score, run.Total, string(counts), run.CreatedAt)
	if err != nil {
		return Run{}, fmt.Errorf("ledger: insert run: %w", err)
	}
	if run.ID, err = res.LastInsertId(); err != nil {
		return Run{}, fmt.Errorf("ledger: insert run: %w", err)
	}
	return run, nil
}

// Recent returns the newest runs first.
func (l *Ledger) Recent(ctx context.Context, q Query) ([]Run, error) {
	limit := q.Limit
	if limit <= 0 {
		limit = 20
	}
	query := `SELECT id, file, digest, report_id, pn, sn, profile, verdict, score, total, counts, created_at
		FROM runs`
	args := []any{}
	if q.SN != "" {
		query += ` WHERE sn = ?`
		args = append(args, q.SN)
	}
	query += ` ORDER BY id DESC LIMIT ?`
	args = append(args, limit)

	rows, err := l.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("ledger: query runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var (
			r                Run
			reportID, pn, sn sql.NullString
			verdictStr       string
			counts           string
		)
		if err := rows.Scan(&r.ID, &r.File, &r.Digest, &reportID, &pn, &sn, &r.Profile,
			&verdictStr, &r.Score, &r.Total, &counts, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("ledger: scan run: %w", err)
		}
		r.ReportID, r.PN, r.SN = reportID.String, pn.String, sn.String
		r.Verdict = verdict.Verdict(verdictStr)
		if err := json.Unmarshal([]byte(counts), &r.Counts); err != nil {
			return nil, fmt.Errorf("ledger: decode counts for run %d: %w", r.ID, err)
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}
