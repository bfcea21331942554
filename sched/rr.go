package sched

import (
	"sync"

	"github.com/arctir/schedcore/proc"
)

// RR implements Round-Robin: each call to SelectNext resumes scanning
// just after the slot most recently dispatched, wrapping around the
// table, and returns the first RUNNABLE slot it finds. The original's
// scheduler() sweeps the whole table once per pass inside a single
// loop iteration; the capability-interface redesign calls SelectNext
// once per dispatch instead, so RR needs its own cursor to reproduce
// genuine round-robin order across repeated calls -- a disclosed
// adaptation, not a behavior change.
type RR struct {
	mu      sync.Mutex
	lastIdx int
}

func (r *RR) Name() string { return "RR" }

func (r *RR) SelectNext(t *proc.Table) *proc.Process {
	r.mu.Lock()
	start := r.lastIdx
	r.mu.Unlock()

	n := t.NumSlots()
	var chosen *proc.Process
	chosenIdx := -1

	for step := 1; step <= n; step++ {
		idx := (start + step) % n
		p := t.Slot(idx)
		found := false
		p.WithLock(func() {
			found = p.StateL() == proc.Runnable
		})
		if found {
			chosen = p
			chosenIdx = idx
			break
		}
	}

	if chosen != nil {
		r.mu.Lock()
		r.lastIdx = chosenIdx
		r.mu.Unlock()
	}
	return chosen
}

func (r *RR) OnEnqueue(p *proc.Process)  {}
func (r *RR) OnDispatch(p *proc.Process) {}
func (r *RR) OnTick(p *proc.Process)     {}
