package picker

import "sync"

// Shared serialises access to a Picker from several goroutines.
type Shared struct {
	mu sync.Mutex
	p  *Picker
}

// NewShared wraps p.
func NewShared(p *Picker) *Shared {
	return &Shared{p: p}
}

// Do runs fn with exclusive access to the picker. fn must not call Do, and
// neither may any callback the picker fires while fn runs.
func (s *Shared) Do(fn func(p *Picker)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(s.p)
}
