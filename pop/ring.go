package pop

// Ring is a fixed set of parallel populations orbiting a primary
// population.  New solutions are routed to the population whose centroid
// is nearest, so each member keeps refining its own region.
type Ring[T Num] struct {
	Pops  []*Population[T]
	dists []float64
}

// NewRing returns a ring of count populations of the given dimensions.
func NewRing[T Num](count, nparams, size int) *Ring[T] {
	r := &Ring[T]{
		Pops:  make([]*Population[T], count),
		dists: make([]float64, count),
	}
	for i := range r.Pops {
		r.Pops[i] = New[T](nparams, size)
	}
	return r
}

// Len returns the number of populations in the ring.
func (r *Ring[T]) Len() int { return len(r.Pops) }

// CopyFrom replaces every ring population with a copy of src.
func (r *Ring[T]) CopyFrom(src *Population[T]) {
	for _, p := range r.Pops {
		p.Copy(src)
	}
}

// Dists returns the squared Euclidean distances from params to each ring
// population's centroid.  The returned slice is reused between calls.
func (r *Ring[T]) Dists(params []T) []float64 {
	for k, p := range r.Pops {
		s := 0.0
		for i, c := range p.cent {
			d := float64(c - params[i])
			s += d * d
		}
		r.dists[k] = s
	}
	return r.dists
}

// Nearest returns the index of the population whose centroid is nearest to
// params.  Ties go to the later population.
func (r *Ring[T]) Nearest(params []T) int {
	s := r.Dists(params)
	pp := 0
	d := s[0]
	for i := 1; i < len(s); i++ {
		if s[i] <= d {
			pp = i
			d = s[i]
		}
	}
	return pp
}

// Route inserts a solution into the nearest population, updating its
// centroid incrementally.  No cost bound is applied before routing; the
// chosen population still rejects costs above its worst rank.  Route
// returns the chosen population index and the insertion index.
func (r *Ring[T]) Route(cost float64, params []T) (int, int) {
	k := r.Nearest(params)
	return k, r.Pops[k].Update(cost, params, true, 0)
}
