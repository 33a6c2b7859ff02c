package nav

import "sync"

// Visit is one recorded navigation.
type Visit struct {
	Route   Route
	Context Context
}

// Recorder is a Navigator that only remembers where it was sent.
type Recorder struct {
	mu     sync.Mutex
	visits []Visit
}

func (r *Recorder) Navigate(route Route, c Context) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.visits = append(r.visits, Visit{Route: route, Context: c})
}

// Visits returns a copy of the recorded navigations.
func (r *Recorder) Visits() []Visit {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Visit, len(r.visits))
	copy(out, r.visits)
	return out
}

// Last returns the most recent navigation.
func (r *Recorder) Last() (Visit, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.visits) == 0 {
		return Visit{}, false
	}
	return r.visits[len(r.visits)-1], true
}
