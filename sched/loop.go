package sched

import (
	"context"
	"sync"

	"github.com/arctir/schedcore/proc"
)

// Loop is a per-CPU scheduler loop: it repeatedly asks the table's
// active policy for a candidate and, if one is RUNNABLE, dispatches
// it. Per spec §4.13, dispatch means: under the candidate's lock,
// verify it is still RUNNABLE, transition it to RUNNING, record it as
// this CPU's current process, and hand off into its saved context. On
// return from that hand-off the CPU's current pointer is cleared.
//
// Here "hand off into its saved context" is the run callback supplied
// to RunOnce/Run: it executes the dispatched process's simulated
// workload and returns once that workload has called a lifecycle
// operation (Yield, Sleep, or Exit) that moves the process out of
// RUNNING. For workloads that run on their own goroutine and need a
// genuine suspend/resume handshake across goroutines (rather than a
// direct call-through), Process.AttachResume/Handoff provide the
// channel-based rendezvous primitive; Loop does not require it.
type Loop struct {
	CPUID int
	Table *proc.Table

	mu      sync.Mutex
	current *proc.Process
}

// NewLoop returns a scheduler loop for the given CPU index over t.
func NewLoop(cpuID int, t *proc.Table) *Loop {
	return &Loop{CPUID: cpuID, Table: t}
}

// Current returns the process this CPU is currently running, or nil
// if it is idle.
func (l *Loop) Current() *proc.Process {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.current
}

// RunOnce performs a single select-and-dispatch cycle and reports
// whether a candidate was found and dispatched. run is invoked with
// the dispatched process once it is RUNNING; it must return once the
// process has left RUNNING.
func (l *Loop) RunOnce(run func(p *proc.Process)) bool {
	if l.Table.Policy == nil {
		return false
	}
	p := l.Table.Policy.SelectNext(l.Table)
	if p == nil {
		return false
	}

	dispatched := false
	p.WithLock(func() {
		if p.StateL() != proc.Runnable {
			return
		}
		p.SetStateL(proc.Running)
		l.Table.Policy.OnDispatch(p)
		dispatched = true
	})
	if !dispatched {
		return false
	}

	l.mu.Lock()
	l.current = p
	l.mu.Unlock()

	run(p)

	l.mu.Lock()
	l.current = nil
	l.mu.Unlock()
	return true
}

// Run drives RunOnce in a loop until ctx is cancelled. idle, if
// non-nil, is invoked whenever a cycle finds no runnable candidate --
// modeling the per-CPU wait for the next timer interrupt rather than a
// hot spin.
func (l *Loop) Run(ctx context.Context, run func(p *proc.Process), idle func()) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}
		if !l.RunOnce(run) && idle != nil {
			idle()
		}
	}
}
