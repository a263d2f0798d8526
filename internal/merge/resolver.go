// Package merge decides when three identical slot items fuse and schedules
// the fusion after a visual delay.
package merge

import (
	"time"

	"github.com/xtding233/junkroom/internal/catalog"
	"github.com/xtding233/junkroom/internal/clock"
)

// Lookup is the slice of the catalog the resolver needs.
type Lookup interface {
	Item(id string) (catalog.Item, error)
}

// Outcome is one fusion: three From items become one To item.
type Outcome struct {
	From string `json:"from"`
	To   string `json:"to"`
}

// Check is the pure trigger test: all slots hold the same item and that item
// has a next tier. Terminal triples never trigger.
func Check(cat Lookup, s Slots) (Outcome, bool, error) {
	id, ok := s.Triple()
	if !ok {
		return Outcome{}, false, nil
	}
	it, err := cat.Item(id)
	if err != nil {
		return Outcome{}, false, err
	}
	if it.Terminal() {
		return Outcome{}, false, nil
	}
	return Outcome{From: it.ID, To: it.MergeTo}, true, nil
}

// Executor runs f serialized with every other slot mutation.
type Executor func(f func())

type token struct {
	timer clock.Timer
	slots Slots
	out   Outcome
}

// Resolver owns at most one scheduled merge. All methods must be called from
// inside the owner's serialization (the same one Executor provides).
type Resolver struct {
	cat     Lookup
	sched   clock.Scheduler
	exec    Executor
	delay   time.Duration
	onMerge func(Outcome)

	pending *token
}

// NewResolver wires a resolver. onMerge runs inside exec once a scheduled
// merge fires and is still current.
func NewResolver(cat Lookup, sched clock.Scheduler, exec Executor, delay time.Duration, onMerge func(Outcome)) *Resolver {
	if sched == nil {
		sched = clock.Real()
	}
	if exec == nil {
		exec = func(f func()) { f() }
	}
	return &Resolver{cat: cat, sched: sched, exec: exec, delay: delay, onMerge: onMerge}
}

// Evaluate re-checks the slots after a mutation. A triple with a next tier
// schedules a merge unless one is already pending for the same slots; any
// other state cancels the pending merge.
func (r *Resolver) Evaluate(s Slots) error {
	out, ok, err := Check(r.cat, s)
	if err != nil || !ok {
		r.Cancel()
		return err
	}
	if r.pending != nil && r.pending.slots == s {
		return nil
	}
	r.Cancel()
	tok := &token{slots: s, out: out}
	tok.timer = r.sched.AfterFunc(r.delay, func() {
		r.exec(func() { r.fire(tok) })
	})
	r.pending = tok
	return nil
}

func (r *Resolver) fire(tok *token) {
	if r.pending != tok {
		return // cancelled or superseded
	}
	r.pending = nil
	if r.onMerge != nil {
		r.onMerge(tok.out)
	}
}

// Cancel drops the pending merge, if any.
func (r *Resolver) Cancel() {
	if r.pending == nil {
		return
	}
	r.pending.timer.Stop()
	r.pending = nil
}

// Pending reports the scheduled merge, if any.
func (r *Resolver) Pending() (Outcome, bool) {
	if r.pending == nil {
		return Outcome{}, false
	}
	return r.pending.out, true
}
