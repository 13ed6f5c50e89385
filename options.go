package biteopt

import (
	"database/sql"
	"fmt"
	"log/slog"
	"math"

	"github.com/rwcarlsen/biteopt/deep"
	"github.com/rwcarlsen/biteopt/logger"
	"github.com/rwcarlsen/biteopt/rng"
)

const (
	DefaultIters    = 1000
	DefaultDepth    = 1
	DefaultAttempts = 10
	DefaultSeed     = 1

	MinPopSize = 8
)

// Observer receives progress events from Minimize.  Calls for different
// attempts may arrive concurrently from MinimizeConcurrent.
type Observer interface {
	ObserveEval(attempt int, cost float64)
	ObserveAttempt(attempt, evals int, best float64)
}

// Settings holds the run configuration assembled from Options.
type Settings struct {
	// Iters is the evaluation budget per attempt before scaling by the
	// square root of Depth.
	Iters    int
	Depth    int
	Attempts int
	// StopMul > 0 stops an attempt once the stall count reaches
	// 128*N*StopMul.
	StopMul float64
	Seed    int
	// Source replaces the built-in generator; seeding it is the caller's
	// responsibility.
	Source     rng.Source
	Target     float64
	HasTarget  bool
	PopSize    int
	InitParams []float64
	InitRadius float64

	Log          *slog.Logger
	DB           *sql.DB
	Observer     Observer
	KeepAttempts int
}

type Option func(*Settings)

func defaultSettings() *Settings {
	return &Settings{
		Iters:      DefaultIters,
		Depth:      DefaultDepth,
		Attempts:   DefaultAttempts,
		Seed:       DefaultSeed,
		InitRadius: 1,
		Log:        logger.Discard(),
	}
}

func Iters(n int) Option { return func(s *Settings) { s.Iters = n } }

// Depth sets the number of engines in the ensemble, in [1, 36].
func Depth(m int) Option { return func(s *Settings) { s.Depth = m } }

func Attempts(n int) Option { return func(s *Settings) { s.Attempts = n } }

func StopMul(v float64) Option { return func(s *Settings) { s.StopMul = v } }

func Seed(seed int) Option { return func(s *Settings) { s.Seed = seed } }

func Source(src rng.Source) Option { return func(s *Settings) { s.Source = src } }

// Target stops an attempt, and the run, once the best cost is at or below v.
func Target(v float64) Option {
	return func(s *Settings) {
		s.Target = v
		s.HasTarget = true
	}
}

// PopSize overrides the engines' population size.
func PopSize(n int) Option { return func(s *Settings) { s.PopSize = n } }

// InitParams sets a starting point that the initial populations are
// centered on.
func InitParams(v []float64) Option {
	return func(s *Settings) { s.InitParams = append([]float64(nil), v...) }
}

// InitRadius scales the spread of the initial populations.
func InitRadius(r float64) Option { return func(s *Settings) { s.InitRadius = r } }

func Logger(l *slog.Logger) Option { return func(s *Settings) { s.Log = l } }

// DB records every evaluation and attempt in the trace tables of db.
func DB(db *sql.DB) Option { return func(s *Settings) { s.DB = db } }

func Observe(o Observer) Option { return func(s *Settings) { s.Observer = o } }

// KeepAttempts retains the n best attempt results in Result.Attempts.
func KeepAttempts(n int) Option { return func(s *Settings) { s.KeepAttempts = n } }

func (s *Settings) validate(lb, ub []float64) error {
	if len(lb) != len(ub) {
		return fmt.Errorf("%w: %v lower, %v upper", ErrBoundsLen, len(lb), len(ub))
	}
	if len(lb) == 0 {
		return ErrNoParams
	}
	for i := range lb {
		if math.IsNaN(lb[i]) || math.IsNaN(ub[i]) || math.IsInf(lb[i], 0) || math.IsInf(ub[i], 0) {
			return fmt.Errorf("%w: dimension %v is [%v, %v]", ErrBadBounds, i, lb[i], ub[i])
		}
		if lb[i] > ub[i] {
			return fmt.Errorf("%w: dimension %v is [%v, %v]", ErrBoundsOrder, i, lb[i], ub[i])
		}
	}

	switch {
	case s.Iters < 1:
		return fmt.Errorf("%w: iters must be positive, got %v", ErrBadConfig, s.Iters)
	case s.Depth < 1 || s.Depth > deep.MaxDepth:
		return fmt.Errorf("%w: depth must be in [1, %v], got %v", ErrBadConfig, deep.MaxDepth, s.Depth)
	case s.Attempts < 1:
		return fmt.Errorf("%w: attempts must be positive, got %v", ErrBadConfig, s.Attempts)
	case s.PopSize != 0 && s.PopSize < MinPopSize:
		return fmt.Errorf("%w: pop size must be 0 (default) or at least %v, got %v", ErrBadConfig, MinPopSize, s.PopSize)
	case s.InitRadius <= 0:
		return fmt.Errorf("%w: init radius must be positive, got %v", ErrBadConfig, s.InitRadius)
	case s.KeepAttempts < 0:
		return fmt.Errorf("%w: negative attempt count to keep %v", ErrBadConfig, s.KeepAttempts)
	case s.Log == nil:
		return fmt.Errorf("%w: nil logger", ErrBadConfig)
	}
	if s.InitParams != nil && len(s.InitParams) != len(lb) {
		return fmt.Errorf("%w: %v init params for %v dimensions", ErrBadConfig, len(s.InitParams), len(lb))
	}
	return nil
}
