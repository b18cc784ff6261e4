// Package registry holds the set of processes being monitored.
//
// A Registry is an insertion-ordered collection of entries guarded by a single
// mutex. Every operation holds the lock for its whole duration, so a sampling
// pass and a request never observe each other's partial updates.
package registry

import (
	"sync"

	"github.com/ja7ad/pidwatch/pkg/types"
)

// Entry is one tracked process.
type Entry struct {
	PID int
	// CPUTime is the last sampled accumulated CPU time; 0 until the first
	// sampling pass visits the entry.
	CPUTime types.CPUTime
}

// VisitFunc is called for each entry by ForEachPrune. It returns the entry's
// new CPU time and whether the entry should be kept.
type VisitFunc func(e Entry) (cpu types.CPUTime, keep bool)

// Registry is safe for concurrent use.
type Registry struct {
	mu         sync.Mutex
	entries    []Entry
	maxEntries int
}

// Option configures a Registry.
type Option func(*Registry)

// WithMaxEntries bounds the number of entries. Zero or negative means
// unbounded.
func WithMaxEntries(n int) Option {
	return func(r *Registry) {
		if n > 0 {
			r.maxEntries = n
		}
	}
}

// New returns an empty registry.
func New(opts ...Option) *Registry {
	r := &Registry{}
	for _, o := range opts {
		o(r)
	}
	return r
}

// Insert appends pid with a zero CPU time. Duplicates are not checked.
func (r *Registry) Insert(pid int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.maxEntries > 0 && len(r.entries) >= r.maxEntries {
		return ErrFull
	}
	r.entries = append(r.entries, Entry{PID: pid})
	return nil
}

// Snapshot returns an ordered copy of all entries.
func (r *Registry) Snapshot() []Entry {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]Entry, len(r.entries))
	copy(out, r.entries)
	return out
}

// ForEachPrune visits every entry in order while holding the lock. Entries
// for which visit reports keep == false are removed; the others take the
// returned CPU time. Removal compacts in place and never skips or revisits
// a later entry. visit must not call back into the registry.
func (r *Registry) ForEachPrune(visit VisitFunc) (visited, pruned int) {
	r.mu.Lock()
	defer r.mu.Unlock()

	kept := r.entries[:0]
	for _, e := range r.entries {
		visited++
		cpu, keep := visit(e)
		if !keep {
			pruned++
			continue
		}
		e.CPUTime = cpu
		kept = append(kept, e)
	}
	r.entries = kept
	return visited, pruned
}

// Len returns the number of tracked entries.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}

// Drain removes every entry and returns how many were released.
func (r *Registry) Drain() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	n := len(r.entries)
	r.entries = nil
	return n
}
