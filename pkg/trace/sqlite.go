package trace

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"vclr/pkg/interpreter"
)

var ErrNoRun = errors.New("no run in progress")

var schema = []string{`
CREATE TABLE IF NOT EXISTS runs (
	id       INTEGER PRIMARY KEY AUTOINCREMENT,
	module   TEXT NOT NULL,
	entry    TEXT NOT NULL,
	started  TEXT NOT NULL,
	finished TEXT,
	steps    INTEGER NOT NULL DEFAULT 0,
	outcome  TEXT
)`, `
CREATE TABLE IF NOT EXISTS steps (
	run_id   INTEGER NOT NULL REFERENCES runs(id),
	seq      INTEGER NOT NULL,
	method   TEXT NOT NULL,
	depth    INTEGER NOT NULL,
	position INTEGER NOT NULL,
	il_offset INTEGER NOT NULL,
	opcode   TEXT NOT NULL,
	operand  TEXT NOT NULL,
	stack    INTEGER NOT NULL,
	PRIMARY KEY (run_id, seq)
)`,
}

// Run is one recorded interpretation.
type Run struct {
	ID       int64
	Module   string
	Entry    string
	Started  string
	Finished string
	Steps    int
	Outcome  string
}

// Step is one recorded instruction dispatch.
type Step struct {
	Seq      int
	Method   string
	Depth    int
	Position int
	Offset   int
	Opcode   string
	Operand  string
	Stack    int
}

// SQLiteRecorder stores runs and their steps in a SQLite database. Steps of
// a run are written in one transaction committed by Finish.
type SQLiteRecorder struct {
	db *sql.DB

	tx     *sql.Tx
	insert *sql.Stmt
	run    int64
	seq    int
	err    error
}

// OpenRecorder opens or creates the trace database at path.
func OpenRecorder(path string) (*SQLiteRecorder, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening trace database: %w", err)
	}

	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting busy timeout: %w", err)
	}
	for _, stmt := range schema {
		if _, err := db.Exec(stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("creating tables: %w", err)
		}
	}

	return &SQLiteRecorder{db: db}, nil
}

// Begin starts recording a run and returns its id.
func (r *SQLiteRecorder) Begin(module, entry string) (int64, error) {
	if r.tx != nil {
		return 0, fmt.Errorf("run %d still in progress", r.run)
	}

	tx, err := r.db.Begin()
	if err != nil {
		return 0, fmt.Errorf("beginning run: %w", err)
	}

	res, err := tx.Exec(
		"INSERT INTO runs (module, entry, started) VALUES (?, ?, ?)",
		module, entry, now(),
	)
	if err != nil {
		tx.Rollback()
		return 0, fmt.Errorf("inserting run: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		tx.Rollback()
		return 0, fmt.Errorf("reading run id: %w", err)
	}

	insert, err := tx.Prepare(`INSERT INTO steps
		(run_id, seq, method, depth, position, il_offset, opcode, operand, stack)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		tx.Rollback()
		return 0, fmt.Errorf("preparing step insert: %w", err)
	}

	r.tx, r.insert, r.run, r.seq, r.err = tx, insert, id, 0, nil
	return id, nil
}

// Step implements interpreter.Tracer. The first failure is kept and
// reported by Err and Finish; later steps are dropped.
func (r *SQLiteRecorder) Step(ev interpreter.StepEvent) {
	if r.err != nil {
		return
	}
	if r.tx == nil {
		r.err = ErrNoRun
		return
	}

	in := ev.Instruction
	_, err := r.insert.Exec(r.run, r.seq, ev.Method, ev.Depth, ev.Position,
		in.Offset, in.Op.String(), in.Operand.String(), ev.StackSize)
	if err != nil {
		r.err = fmt.Errorf("recording step %d: %w", r.seq, err)
		return
	}
	r.seq++
}

// Err returns the first error met while recording steps.
func (r *SQLiteRecorder) Err() error {
	return r.err
}

// Finish closes the current run with outcome and commits it.
func (r *SQLiteRecorder) Finish(outcome string) error {
	if r.tx == nil {
		return ErrNoRun
	}
	tx := r.tx
	r.insert.Close()
	r.tx, r.insert = nil, nil

	if r.err != nil {
		tx.Rollback()
		return r.err
	}

	_, err := tx.Exec(
		"UPDATE runs SET finished = ?, steps = ?, outcome = ? WHERE id = ?",
		now(), r.seq, outcome, r.run,
	)
	if err != nil {
		tx.Rollback()
		return fmt.Errorf("finishing run: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing run: %w", err)
	}
	return nil
}

// Runs lists recorded runs, oldest first.
func (r *SQLiteRecorder) Runs() ([]Run, error) {
	rows, err := r.db.Query(`SELECT id, module, entry, started,
		COALESCE(finished, ''), steps, COALESCE(outcome, '') FROM runs ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("querying runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var run Run
		if err := rows.Scan(&run.ID, &run.Module, &run.Entry, &run.Started, &run.Finished, &run.Steps, &run.Outcome); err != nil {
			return nil, fmt.Errorf("scanning run: %w", err)
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// Steps returns the steps recorded for a run in dispatch order.
func (r *SQLiteRecorder) Steps(runID int64) ([]Step, error) {
	rows, err := r.db.Query(`SELECT seq, method, depth, position, il_offset, opcode, operand, stack
		FROM steps WHERE run_id = ? ORDER BY seq`, runID)
	if err != nil {
		return nil, fmt.Errorf("querying steps: %w", err)
	}
	defer rows.Close()

	var steps []Step
	for rows.Next() {
		var s Step
		if err := rows.Scan(&s.Seq, &s.Method, &s.Depth, &s.Position, &s.Offset, &s.Opcode, &s.Operand, &s.Stack); err != nil {
			return nil, fmt.Errorf("scanning step: %w", err)
		}
		steps = append(steps, s)
	}
	return steps, rows.Err()
}

// Close rolls back an unfinished run and closes the database.
func (r *SQLiteRecorder) Close() error {
	if r.tx != nil {
		r.insert.Close()
		r.tx.Rollback()
		r.tx, r.insert = nil, nil
	}
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

func now() string {
	return time.Now().UTC().Format(time.RFC3339Nano)
}
