// ABOUTME: Per-resource console session holding form state, flash text and results.
// ABOUTME: Serializes action completions and optionally discards stale ones by generation.

package console

import (
	"sync"

	"github.com/2389/reco/internal/form"
)

// Snapshot is a consistent copy of a session's visible state
type Snapshot struct {
	State      form.State
	Flash      string
	Results    string
	Generation uint64
}

// Session is the shared mutable state of one resource page. Actions read a
// snapshot, release the lock while the request is in flight, and apply their
// completion under the lock, so completions never interleave.
type Session struct {
	mu           sync.Mutex
	state        form.State
	flash        string
	results      string
	issued       uint64
	applied      uint64
	discardStale bool
}

// NewSession creates an empty session. With discardStale, a completion that
// started before the newest applied one is dropped instead of applied.
func NewSession(discardStale bool) *Session {
	return &Session{state: form.NewState(nil), discardStale: discardStale}
}

func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Snapshot{State: s.state, Flash: s.flash, Results: s.results, Generation: s.applied}
}

// SetState replaces the form values, as when the page submits its inputs
func (s *Session) SetState(state form.State) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = state
}

// emitFunc publishes a flash write. Sessions call it with the lock held so
// notifications arrive in the order the writes were applied.
type emitFunc func(flash string, gen uint64)

// begin clears the flash and issues a generation for a new action
func (s *Session) begin(emit emitFunc) (form.State, uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.issued++
	s.flash = ""
	if emit != nil {
		emit("", s.issued)
	}
	return s.state, s.issued
}

// completion is the set of writes an action makes when its request finishes
type completion struct {
	update  func(form.State) form.State // applied to the state current at completion
	results *string
	flash   string
}

// complete applies c for generation gen and reports whether it was applied
func (s *Session) complete(gen uint64, c completion, emit emitFunc) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.discardStale && gen < s.applied {
		return false
	}
	if c.update != nil {
		s.state = c.update(s.state)
	}
	if c.results != nil {
		s.results = *c.results
	}
	s.flash = c.flash
	if gen > s.applied {
		s.applied = gen
	}
	if emit != nil {
		emit(c.flash, gen)
	}
	return true
}
