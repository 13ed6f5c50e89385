package biteopt

import (
	"database/sql"
	"fmt"
	"sync"

	"github.com/google/uuid"
)

const (
	// TblEvals is the name of the sql database table that contains every
	// evaluated point and its value.
	TblEvals = "biteoptevals"
	// TblAttempts is the name of the sql database table that contains the
	// best point of each attempt.
	TblAttempts = "biteoptattempts"
)

// tracer writes evaluation traces.  Rows of an attempt are buffered and
// written in a single transaction when the attempt ends.
type tracer struct {
	db    *sql.DB
	n     int
	runID string
	mu    sync.Mutex
}

type evalRow struct {
	eval int
	val  float64
	x    []float64
}

type attemptTrace struct {
	attempt int
	rows    []evalRow
}

func newTracer(db *sql.DB, n int) (*tracer, error) {
	if db == nil {
		return nil, nil
	}
	t := &tracer{db: db, n: n, runID: uuid.NewString()}
	if err := t.initdb(); err != nil {
		return nil, err
	}
	return t, nil
}

func (t *tracer) initdb() error {
	s := "CREATE TABLE IF NOT EXISTS " + TblEvals + " (run TEXT,attempt INTEGER,eval INTEGER,val REAL"
	s += t.xdbsql("define")
	s += ");"
	if _, err := t.db.Exec(s); err != nil {
		return fmt.Errorf("create %v: %w", TblEvals, err)
	}

	s = "CREATE TABLE IF NOT EXISTS " + TblAttempts + " (run TEXT,attempt INTEGER,evals INTEGER,stall INTEGER,val REAL"
	s += t.xdbsql("define")
	s += ");"
	if _, err := t.db.Exec(s); err != nil {
		return fmt.Errorf("create %v: %w", TblAttempts, err)
	}
	return nil
}

func (t *tracer) xdbsql(op string) string {
	s := ""
	for i := 0; i < t.n; i++ {
		switch op {
		case "?":
			s += ",?"
		case "define":
			s += fmt.Sprintf(",x%v REAL", i)
		case "x":
			s += fmt.Sprintf(",x%v", i)
		default:
			panic("invalid db op " + op)
		}
	}
	return s
}

// RunID identifies this run's rows in the trace tables.
func (t *tracer) RunID() string { return t.runID }

func (t *tracer) begin(attempt int) *attemptTrace {
	if t == nil {
		return nil
	}
	return &attemptTrace{attempt: attempt}
}

func (at *attemptTrace) record(eval int, val float64, x []float64) {
	if at == nil {
		return
	}
	at.rows = append(at.rows, evalRow{eval: eval, val: val, x: append([]float64(nil), x...)})
}

func (t *tracer) flush(at *attemptTrace, res AttemptResult) (err error) {
	if t == nil {
		return nil
	}
	t.mu.Lock()
	defer t.mu.Unlock()

	tx, err := t.db.Begin()
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			tx.Rollback()
			return
		}
		err = tx.Commit()
	}()

	s1 := "INSERT INTO " + TblEvals + " (run,attempt,eval,val" + t.xdbsql("x") + ") VALUES (?,?,?,?" + t.xdbsql("?") + ");"
	stmt, err := tx.Prepare(s1)
	if err != nil {
		return err
	}
	defer stmt.Close()
	for _, r := range at.rows {
		args := []interface{}{t.runID, at.attempt, r.eval, r.val}
		args = append(args, pos2iface(r.x)...)
		if _, err = stmt.Exec(args...); err != nil {
			return err
		}
	}

	s2 := "INSERT INTO " + TblAttempts + " (run,attempt,evals,stall,val" + t.xdbsql("x") + ") VALUES (?,?,?,?,?" + t.xdbsql("?") + ");"
	args := []interface{}{t.runID, res.Attempt, res.Evals, res.Stall, res.Cost}
	if res.Params == nil {
		args = append(args, make([]interface{}, t.n)...)
	} else {
		args = append(args, pos2iface(res.Params)...)
	}
	_, err = tx.Exec(s2, args...)
	return err
}

func pos2iface(pos []float64) []interface{} {
	vals := make([]interface{}, len(pos))
	for i, v := range pos {
		vals[i] = v
	}
	return vals
}
