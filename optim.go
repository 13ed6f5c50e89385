// Package biteopt is a derivative-free global optimizer for bound-constrained
// real-valued objective functions.  Minimize runs one or more independent
// attempts of an ensemble of self-tuning population engines and reports the
// best point found.
package biteopt

import (
	"crypto/sha1"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"os"
	"sync"
)

type Point struct {
	pos []float64
	Val float64
}

func NewPoint(pos []float64, val float64) Point {
	cpos := make([]float64, len(pos))
	copy(cpos, pos)
	return Point{pos: cpos, Val: val}
}

func (p Point) At(i int) float64 { return p.pos[i] }

func (p Point) Len() int { return len(p.pos) }

func (p Point) Pos() []float64 {
	pos := make([]float64, len(p.pos))
	copy(pos, p.pos)
	return pos
}

func (p Point) String() string { return fmt.Sprintf("%v -> %v", p.pos, p.Val) }

func hashPos(v []float64) [sha1.Size]byte {
	data := make([]byte, len(v)*8)
	for i, x := range v {
		binary.BigEndian.PutUint64(data[i*8:], math.Float64bits(x))
	}
	return sha1.Sum(data)
}

type Objectiver interface {
	// Objective evaluates the variables in v and returns the objective
	// function value.  The objective function must be framed so that lower
	// values are better.  If the evaluation fails, positive infinity should
	// be returned along with an error; the error stops the run after this
	// evaluation and the value is ignored.  NaN values are treated as a very
	// large cost.
	Objective(v []float64) (float64, error)
}

// Func adapts a plain function to the Objectiver interface.
type Func func([]float64) float64

func (f Func) Objective(v []float64) (float64, error) { return f(v), nil }

// CacheObjectiver remembers the values of points it has already evaluated.
// It is safe for concurrent use when the wrapped Objectiver is.
type CacheObjectiver struct {
	Objectiver
	Hits int

	mu    sync.Mutex
	cache map[[sha1.Size]byte]float64
}

func NewCacheObjectiver(obj Objectiver) *CacheObjectiver {
	return &CacheObjectiver{
		Objectiver: obj,
		cache:      map[[sha1.Size]byte]float64{},
	}
}

func (c *CacheObjectiver) Objective(v []float64) (float64, error) {
	h := hashPos(v)
	c.mu.Lock()
	if val, ok := c.cache[h]; ok {
		c.Hits++
		c.mu.Unlock()
		return val, nil
	}
	c.mu.Unlock()

	val, err := c.Objectiver.Objective(v)
	if err != nil {
		return val, err
	}

	c.mu.Lock()
	c.cache[h] = val
	c.mu.Unlock()
	return val, nil
}

// ObjectivePrinter writes every evaluation as a line of the evaluation
// count, the variables and the value.
type ObjectivePrinter struct {
	Objectiver
	W     io.Writer
	Count int
}

func NewObjectivePrinter(obj Objectiver) *ObjectivePrinter {
	return &ObjectivePrinter{Objectiver: obj, W: os.Stdout}
}

func (op *ObjectivePrinter) Objective(v []float64) (float64, error) {
	val, err := op.Objectiver.Objective(v)

	op.Count++
	fmt.Fprint(op.W, op.Count, " ")
	for _, x := range v {
		fmt.Fprint(op.W, x, " ")
	}
	fmt.Fprintln(op.W, "    ", val)

	return val, err
}
