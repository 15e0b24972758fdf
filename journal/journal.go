// Package journal records crossing events to sqlite so runs can be reported
// on after they finish.  It is never used to restore counts.
package journal

import (
	"database/sql"
	_ "embed"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/swdee/go-crosscount/counter"
	_ "modernc.org/sqlite"
)

// schema.sql creates the runs and crossings tables
//
//go:embed schema.sql
var schemaSQL string

// Run is a single start to stop processing of a source
type Run struct {
	RunID       string `json:"run_id"`
	Source      string `json:"source"`
	StartedAtNs int64  `json:"started_at_ns"`
	EndedAtNs   *int64 `json:"ended_at_ns,omitempty"`
	Crossings   int    `json:"crossings"`
}

// Journal is a sqlite crossing journal, safe for concurrent use
type Journal struct {
	db *sql.DB
}

// Open opens or creates the journal database at path
func Open(path string) (*Journal, error) {

	db, err := sql.Open("sqlite", path)

	if err != nil {
		return nil, fmt.Errorf("failed to open journal: %w", err)
	}

	// single connection, writers never see SQLITE_BUSY
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create journal schema: %w", err)
	}

	return &Journal{db: db}, nil
}

// Close the database
func (j *Journal) Close() error {
	return j.db.Close()
}

// BeginRun records the start of a run and returns its id
func (j *Journal) BeginRun(source string) (string, error) {

	runID := uuid.New().String()

	_, err := j.db.Exec(`INSERT INTO runs (run_id, source, started_at_ns) VALUES (?, ?, ?)`,
		runID, source, time.Now().UnixNano())

	if err != nil {
		return "", fmt.Errorf("failed to insert run: %w", err)
	}

	return runID, nil
}

// EndRun records the end of a run
func (j *Journal) EndRun(runID string) error {

	res, err := j.db.Exec(`UPDATE runs SET ended_at_ns = ? WHERE run_id = ?`,
		time.Now().UnixNano(), runID)

	if err != nil {
		return fmt.Errorf("failed to end run: %w", err)
	}

	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("run %s not found", runID)
	}

	return nil
}

// RecordCrossing stores a crossing against a run
func (j *Journal) RecordCrossing(runID string, c counter.Crossing) error {

	_, err := j.db.Exec(`
		INSERT INTO crossings (run_id, track_id, boundary, class, direction, x, y, at_ns)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		runID, c.ID, c.Boundary, c.Class, c.Direction, c.To.X, c.To.Y,
		c.Time.UnixNano())

	if err != nil {
		return fmt.Errorf("failed to insert crossing: %w", err)
	}

	return nil
}

// Runs returns all runs, most recent first
func (j *Journal) Runs() ([]Run, error) {

	rows, err := j.db.Query(`
		SELECT r.run_id, r.source, r.started_at_ns, r.ended_at_ns, COUNT(c.crossing_id)
		FROM runs r LEFT JOIN crossings c ON c.run_id = r.run_id
		GROUP BY r.run_id
		ORDER BY r.started_at_ns DESC, r.rowid DESC`)

	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}

	defer rows.Close()

	runs := []Run{}

	for rows.Next() {

		var r Run
		var ended sql.NullInt64

		if err := rows.Scan(&r.RunID, &r.Source, &r.StartedAtNs, &ended, &r.Crossings); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}

		if ended.Valid {
			r.EndedAtNs = &ended.Int64
		}

		runs = append(runs, r)
	}

	return runs, rows.Err()
}

// DirectionCounts are the crossings of one class over one boundary, split by
// the side of the boundary the motion ended on
type DirectionCounts struct {
	Positive int `json:"positive"`
	Negative int `json:"negative"`
}

// Breakdown maps boundary label to class label to direction counts
type Breakdown map[string]map[string]DirectionCounts

// Summary returns the number of crossings per boundary label for a run
func (j *Journal) Summary(runID string) (map[string]int, error) {

	if err := j.checkRun(runID); err != nil {
		return nil, err
	}

	rows, err := j.db.Query(`
		SELECT boundary, COUNT(*) FROM crossings WHERE run_id = ? GROUP BY boundary`, runID)

	if err != nil {
		return nil, fmt.Errorf("failed to query summary: %w", err)
	}

	defer rows.Close()

	summary := make(map[string]int)

	for rows.Next() {

		var label string
		var n int

		if err := rows.Scan(&label, &n); err != nil {
			return nil, fmt.Errorf("failed to scan summary: %w", err)
		}

		summary[label] = n
	}

	return summary, rows.Err()
}

// Breakdown returns the crossings of a run per boundary, class and direction
func (j *Journal) Breakdown(runID string) (Breakdown, error) {

	if err := j.checkRun(runID); err != nil {
		return nil, err
	}

	rows, err := j.db.Query(`
		SELECT boundary, class, direction, COUNT(*) FROM crossings
		WHERE run_id = ? GROUP BY boundary, class, direction`, runID)

	if err != nil {
		return nil, fmt.Errorf("failed to query breakdown: %w", err)
	}

	defer rows.Close()

	breakdown := Breakdown{}

	for rows.Next() {

		var boundary, class string
		var direction, n int

		if err := rows.Scan(&boundary, &class, &direction, &n); err != nil {
			return nil, fmt.Errorf("failed to scan breakdown: %w", err)
		}

		classes, ok := breakdown[boundary]

		if !ok {
			classes = make(map[string]DirectionCounts)
			breakdown[boundary] = classes
		}

		dc := classes[class]

		if direction > 0 {
			dc.Positive += n
		} else {
			dc.Negative += n
		}

		classes[class] = dc
	}

	return breakdown, rows.Err()
}

// checkRun returns an error if runID was never started
func (j *Journal) checkRun(runID string) error {

	var exists int

	err := j.db.QueryRow(`SELECT COUNT(*) FROM runs WHERE run_id = ?`, runID).Scan(&exists)

	if err != nil {
		return fmt.Errorf("failed to query run: %w", err)
	}

	if exists == 0 {
		return fmt.Errorf("run %s not found", runID)
	}

	return nil
}
