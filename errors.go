package biteopt

import "errors"

var (
	ErrNoParams    = errors.New("biteopt: no parameters")
	ErrBoundsLen   = errors.New("biteopt: lower and upper bounds differ in length")
	ErrBoundsOrder = errors.New("biteopt: lower bound exceeds upper bound")
	ErrBadBounds   = errors.New("biteopt: bounds must be finite")
	ErrBadConfig   = errors.New("biteopt: invalid configuration")
)
