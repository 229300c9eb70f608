package storage

import (
	"database/sql"
	"fmt"
	"os"
	"sync"

	// Registers the sqlite3 driver.
	_ "github.com/mattn/go-sqlite3"

	"github.com/rs/xid"
	"github.com/tebeka/atexit"

	"github.com/san-kum/robosim/internal/physics"
	"github.com/san-kum/robosim/internal/scene"
	"github.com/san-kum/robosim/internal/sim"
)

const defaultBatchSize = 1000

type stepRow struct {
	step   uint64
	sim    int64
	real   int64
	pause  int64
	paused bool
}

type poseRow struct {
	step    uint64
	body    string
	x, y, z float64
}

type traceBatch struct {
	steps []stepRow
	poses []poseRow
}

// TraceWriter is a sim.Observer that records every engine step, and the
// pose of every body after it, into a SQLite database. Rows are buffered
// and written in batched transactions by a background goroutine.
type TraceWriter struct {
	db        *sql.DB
	path      string
	batchSize int

	mu       sync.Mutex
	buf      traceBatch
	lastStep uint64
	closed   bool

	errMu sync.Mutex
	err   error

	batches chan traceBatch
	done    chan struct{}
}

// NewTraceWriter creates the database at path. An empty path picks a unique
// file name in the working directory. The writer flushes itself at exit.
func NewTraceWriter(path string) (*TraceWriter, error) {
	if path == "" {
		path = "robosim_trace_" + xid.New().String() + ".sqlite3"
	}
	if _, err := os.Stat(path); err == nil {
		return nil, fmt.Errorf("storage: trace %s already exists", path)
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}
	w := &TraceWriter{
		db:        db,
		path:      path,
		batchSize: defaultBatchSize,
		batches:   make(chan traceBatch, 4),
		done:      make(chan struct{}),
	}
	if err := w.createTables(); err != nil {
		db.Close()
		return nil, err
	}

	go w.writeLoop()
	atexit.Register(func() { w.Close() })
	return w, nil
}

func (w *TraceWriter) Path() string { return w.path }

func (w *TraceWriter) createTables() error {
	stmts := []string{
		`create table if not exists step
		(
			step   integer primary key,
			sim    integer not null,
			real   integer not null,
			pause  integer not null,
			paused integer not null
		);`,
		`create table if not exists pose
		(
			step integer not null,
			body varchar(200) not null,
			x    float not null,
			y    float not null,
			z    float not null
		);`,
		`create index if not exists pose_step_index on pose (step);`,
		`create index if not exists pose_body_index on pose (body);`,
	}
	for _, s := range stmts {
		if _, err := w.db.Exec(s); err != nil {
			return fmt.Errorf("storage: create trace tables: %w", err)
		}
	}
	return nil
}

// OnUpdate buffers the update if the engine stepped since the last one.
func (w *TraceWriter) OnUpdate(l *sim.Locked, t sim.Times) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed || t.Steps == 0 || t.Steps == w.lastStep {
		return
	}
	w.lastStep = t.Steps

	w.buf.steps = append(w.buf.steps, stepRow{
		step:   t.Steps,
		sim:    int64(t.Sim),
		real:   int64(t.Real),
		pause:  int64(t.Pause),
		paused: t.Paused,
	})
	if g := l.Graph(); g != nil {
		for _, e := range g.OfKind(scene.KindBody) {
			p := e.Object.(physics.Body).Position()
			w.buf.poses = append(w.buf.poses, poseRow{
				step: t.Steps,
				body: g.ScopedName(e.ID),
				x:    p[0],
				y:    p[1],
				z:    p[2],
			})
		}
	}

	if len(w.buf.steps) >= w.batchSize {
		w.handOff()
	}
}

func (w *TraceWriter) handOff() {
	if len(w.buf.steps) == 0 {
		return
	}
	w.batches <- w.buf
	w.buf = traceBatch{}
}

func (w *TraceWriter) writeLoop() {
	defer close(w.done)
	for b := range w.batches {
		if err := w.write(b); err != nil {
			w.setErr(err)
		}
	}
}

func (w *TraceWriter) setErr(err error) {
	w.errMu.Lock()
	defer w.errMu.Unlock()
	if w.err == nil {
		w.err = err
	}
}

func (w *TraceWriter) Err() error {
	w.errMu.Lock()
	defer w.errMu.Unlock()
	return w.err
}

func (w *TraceWriter) write(b traceBatch) error {
	tx, err := w.db.Begin()
	if err != nil {
		return err
	}
	stepStmt, err := tx.Prepare(`insert into step (step, sim, real, pause, paused) values (?, ?, ?, ?, ?)`)
	if err != nil {
		tx.Rollback()
		return err
	}
	defer stepStmt.Close()
	poseStmt, err := tx.Prepare(`insert into pose (step, body, x, y, z) values (?, ?, ?, ?, ?)`)
	if err != nil {
		tx.Rollback()
		return err
	}
	defer poseStmt.Close()

	for _, r := range b.steps {
		if _, err := stepStmt.Exec(r.step, r.sim, r.real, r.pause, r.paused); err != nil {
			tx.Rollback()
			return fmt.Errorf("storage: insert step %d: %w", r.step, err)
		}
	}
	for _, r := range b.poses {
		if _, err := poseStmt.Exec(r.step, r.body, r.x, r.y, r.z); err != nil {
			tx.Rollback()
			return fmt.Errorf("storage: insert pose %d %s: %w", r.step, r.body, err)
		}
	}
	return tx.Commit()
}

// Flush hands the buffered rows to the writer goroutine.
func (w *TraceWriter) Flush() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if !w.closed {
		w.handOff()
	}
}

// Close writes what is buffered, waits for the writer and closes the
// database. It returns the first write error. Later calls do nothing.
func (w *TraceWriter) Close() error {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return w.Err()
	}
	w.handOff()
	w.closed = true
	close(w.batches)
	w.mu.Unlock()

	<-w.done
	if err := w.db.Close(); err != nil {
		w.setErr(err)
	}
	return w.Err()
}

// StepCount returns the number of steps stored so far.
func (w *TraceWriter) StepCount() (int, error) {
	var n int
	err := w.db.QueryRow(`select count(*) from step`).Scan(&n)
	return n, err
}

// TraceStep is one row of the step table.
type TraceStep struct {
	Step   uint64
	Sim    int64
	Real   int64
	Pause  int64
	Paused bool
}

// ReadTrace returns the stored steps of a closed trace, in step order.
func ReadTrace(path string) ([]TraceStep, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}
	defer db.Close()

	rows, err := db.Query(`select step, sim, real, pause, paused from step order by step`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []TraceStep
	for rows.Next() {
		var s TraceStep
		if err := rows.Scan(&s.Step, &s.Sim, &s.Real, &s.Pause, &s.Paused); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// ReadPoses returns the stored positions of one body, in step order.
func ReadPoses(path, body string) ([]uint64, [][3]float64, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, nil, err
	}
	defer db.Close()

	rows, err := db.Query(`select step, x, y, z from pose where body = ? order by step`, body)
	if err != nil {
		return nil, nil, err
	}
	defer rows.Close()

	var steps []uint64
	var poses [][3]float64
	for rows.Next() {
		var s uint64
		var p [3]float64
		if err := rows.Scan(&s, &p[0], &p[1], &p[2]); err != nil {
			return nil, nil, err
		}
		steps = append(steps, s)
		poses = append(poses, p)
	}
	return steps, poses, rows.Err()
}
