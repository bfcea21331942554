package sched

import (
	"github.com/arctir/schedcore/mlfq"
	"github.com/arctir/schedcore/proc"
)

// MLFQ implements the Multi-Level Feedback Queue policy: five FIFO
// queues of RUNNABLE PIDs, selection from the lowest-indexed non-empty
// queue, and ageing-driven promotion. The queue set and ageing sweep
// traditionally treated as part of the generic timing accountant's MLFQ-specific path
// live here, as methods on this policy, rather than as a branch in the
// generic per-tick sweep.
type MLFQ struct {
	Queues *mlfq.Set
}

// NewMLFQ returns an MLFQ policy with a freshly initialised queue set
// sized for a table of nproc slots.
func NewMLFQ(nproc int) *MLFQ {
	return &MLFQ{Queues: mlfq.New(nproc)}
}

func (m *MLFQ) Name() string { return "MLFQ" }

// SelectNext finds the lowest-indexed non-empty queue and peeks its
// head PID; if that process is RUNNABLE, it is returned as the
// candidate (without being removed -- removal happens in OnDispatch,
// once the scheduler loop has committed to dispatching it).
func (m *MLFQ) SelectNext(t *proc.Table) *proc.Process {
	for level := 0; level < mlfq.NumLevels; level++ {
		pid, ok := m.Queues.PeekHead(level)
		if !ok {
			continue
		}
		p := t.Lookup(pid)
		if p == nil {
			continue
		}
		var runnable bool
		p.WithLock(func() {
			runnable = p.StateL() == proc.Runnable
		})
		if runnable {
			return p
		}
	}
	return nil
}

// OnEnqueue pushes p onto the tail of its current level's queue,
// mirroring its mlfq_priority to that level. Called whenever p
// transitions into RUNNABLE: on fork (level 0), yield, wakeup, and
// kill-from-sleep (current level preserved).
func (m *MLFQ) OnEnqueue(p *proc.Process) {
	level := p.CurQueueL()
	p.SetMLFQPriorityL(level)
	m.Queues.PushTail(level, p.PidL())
}

// OnDispatch removes p from its queue and marks it off-queue
// (mlfq_priority <- -1), incrementing its scheduled count.
func (m *MLFQ) OnDispatch(p *proc.Process) {
	m.Queues.RemovePID(p.CurQueueL(), p.PidL())
	p.SetMLFQPriorityL(-1)
	p.IncNSL()
}

// OnTick implements ageing: a RUNNABLE process whose time at its
// current level (above 0) has exceeded that level's threshold is
// promoted one level, its wait-time window reset. This is the sole
// MLFQ promotion mechanism -- there is no time-slice demotion in this
// design (see the design notes on MLFQ's open questions).
func (m *MLFQ) OnTick(p *proc.Process) {
	if p.StateL() != proc.Runnable {
		return
	}
	level := p.CurQueueL()
	if level <= 0 {
		return
	}
	threshold := mlfq.AgeingThresholds[level]
	if threshold < 0 || p.WTimeL() <= int64(threshold) {
		return
	}
	m.Queues.RemovePID(level, p.PidL())
	newLevel := level - 1
	p.SetCurQueueL(newLevel)
	p.SetMLFQPriorityL(newLevel)
	m.Queues.PushTail(newLevel, p.PidL())
	p.SetWTimeL(0)
}
