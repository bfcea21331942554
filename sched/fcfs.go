// Package sched provides the four pluggable scheduling policies
// (FCFS, RR, PBS, MLFQ) as proc.Policy implementations, plus the
// per-CPU scheduler loop that drives them.
package sched

import "github.com/arctir/schedcore/proc"

// FCFS implements First-Come-First-Served: among RUNNABLE slots, the
// one with the smallest creation tick is chosen, ties broken by
// whichever is encountered first in table order. It is
// non-preemptive -- the tick timer must not force a yield on an FCFS
// process, a contract enforced by the trap collaborator, not here.
type FCFS struct{}

func (FCFS) Name() string { return "FCFS" }

func (FCFS) SelectNext(t *proc.Table) *proc.Process {
	var best *proc.Process
	var bestCTime int64
	t.ForEach(func(p *proc.Process) {
		p.WithLock(func() {
			if p.StateL() != proc.Runnable {
				return
			}
			if best == nil || p.CTimeL() < bestCTime {
				best = p
				bestCTime = p.CTimeL()
			}
		})
	})
	return best
}

func (FCFS) OnEnqueue(p *proc.Process)  {}
func (FCFS) OnDispatch(p *proc.Process) {}
func (FCFS) OnTick(p *proc.Process)     {}
