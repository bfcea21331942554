package proc

import (
	"fmt"
	"runtime"
	"sync"
)

var (
	// ErrNoChildren is returned by Wait/Waitx when the caller has no
	// children (or has been killed while waiting).
	ErrNoChildren = fmt.Errorf("proc: no children")
	// ErrNoSuchPid is returned by Kill/SetPriority when no slot
	// matches the given PID.
	ErrNoSuchPid = fmt.Errorf("proc: no such pid")
	// ErrInitExited is returned by Exit when called on the designated
	// init process -- fatal in the original (a kernel panic); here
	// surfaced as a distinguished error for the caller to treat as fatal.
	ErrInitExited = fmt.Errorf("proc: init process exited")
)

// Killed reports whether p has been marked killed.
func (p *Process) Killed() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.killed
}

// SetName sets p's name. Used by Fork and by boot-time process
// creation; takes p's lock internally.
func (p *Process) SetName(name string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.name = name
}

// Fork allocates a child slot, copies the parent's memory and file
// state into it, links parent/child under the wait lock, and makes
// the child RUNNABLE. It returns the child's PID, or an error if the
// table is exhausted or the memory collaborator fails.
//
// Lock note: AllocSlot returns the child already locked; wait_lock is
// then acquired nested inside it to set child.parent. This reverses
// the package's general wait_lock-before-slot-lock ordering, but is
// safe here because the child slot is not yet visible to any other
// goroutine (no PID lookup, wakeup, or wait loop can reach it until
// this function returns and releases the lock) -- the same reasoning
// the original relies on.
func (t *Table) Fork(parent *Process) (int, error) {
	child, err := t.AllocSlot()
	if err != nil {
		return -1, err
	}

	parent.mu.Lock()
	parentPT := parent.pageTable
	parentSize := parent.memSize
	parentFiles := parent.openFiles
	parentCwd := parent.cwd
	parentName := parent.name
	parentTraceMask := parent.traceMask
	parent.mu.Unlock()

	if err := t.Mem.CopyUserMem(parentPT, child.pageTable, parentSize); err != nil {
		t.FreeSlot(child)
		child.mu.Unlock()
		return -1, fmt.Errorf("proc: fork copy mem: %s", err)
	}
	child.memSize = parentSize

	for i := range parentFiles {
		if parentFiles[i] != nil {
			child.openFiles[i] = t.Files.Dup(parentFiles[i])
		}
	}
	child.cwd = t.Files.DupCwd(parentCwd)
	child.name = parentName
	child.traceMask = parentTraceMask

	t.waitLock.Lock()
	child.parent = parent
	t.waitLock.Unlock()

	child.state = Runnable
	child.curQueue = 0
	child.mlfqPriority = 0
	if t.Policy != nil {
		t.Policy.OnEnqueue(child)
	}
	pid := child.pid
	child.mu.Unlock()
	return pid, nil
}

// reparentLocked re-points every child of p at the table's init
// process. Caller must hold t.waitLock.
func (t *Table) reparentLocked(p *Process) {
	for i := range t.slots {
		c := &t.slots[i]
		c.mu.Lock()
		if c.parent == p {
			c.parent = t.initProc
		}
		c.mu.Unlock()
	}
}

// Exit closes p's open files and cwd, reparents its children to init,
// wakes init and p's parent, marks p a zombie, and hands off to the
// scheduler. Exit never returns to its caller under normal operation;
// the caller's kernel-thread goroutine should terminate immediately
// after Exit returns (which only happens if Handoff has no attached
// scheduler loop to resume from, i.e. in tests).
func (t *Table) Exit(p *Process, status int) error {
	if p == t.initProc {
		return ErrInitExited
	}

	p.mu.Lock()
	for i := range p.openFiles {
		if p.openFiles[i] != nil {
			t.Files.Close(p.openFiles[i])
			p.openFiles[i] = nil
		}
	}
	if p.cwd != nil {
		t.Files.PutCwd(p.cwd)
		p.cwd = nil
	}
	p.mu.Unlock()

	t.waitLock.Lock()
	t.reparentLocked(p)
	if t.initProc != nil {
		t.wakeupLocked(p, t.initProc)
	}

	p.mu.Lock()
	p.exitStatus = status
	p.etime = t.currentTick()
	p.state = Zombie
	parent := p.parent
	if parent != nil {
		t.wakeupLocked(p, parent)
	}
	t.waitLock.Unlock()
	p.Handoff()
	p.mu.Unlock()

	return nil
}

// sleepOn deposits p into SLEEPING on channel, releasing lk (if
// non-nil) for the duration, and hands off to the scheduler. lk is
// reacquired before sleepOn returns. Caller must hold lk (if non-nil)
// on entry and must not hold p's lock. sleepOn returns only once a
// wakeup or kill has moved p out of SLEEPING, whether or not a
// scheduler loop is attached.
func (t *Table) sleepOn(p *Process, channel any, lk *sync.Mutex) {
	p.mu.Lock()
	if lk != nil {
		lk.Unlock()
	}
	p.sleepChan = channel
	p.state = Sleeping
	p.Handoff()
	for p.state == Sleeping {
		p.mu.Unlock()
		runtime.Gosched()
		p.mu.Lock()
	}
	p.sleepChan = nil
	p.mu.Unlock()
	if lk != nil {
		lk.Lock()
	}
}

// Sleep suspends the calling process p on channel, atomically
// releasing lk (which may be nil) and reacquiring it on wake. This is
// the general-purpose condition-variable primitive; Wait/Waitx and the
// sleep(ticks) syscall are both built on it.
func (t *Table) Sleep(p *Process, channel any, lk *sync.Mutex) {
	t.sleepOn(p, channel, lk)
}

// wakeupLocked wakes every slot other than caller that is SLEEPING on
// channel, transitioning it to RUNNABLE and, if a policy is active,
// notifying it via OnEnqueue.
func (t *Table) wakeupLocked(caller *Process, channel any) {
	for i := range t.slots {
		q := &t.slots[i]
		if q == caller {
			continue
		}
		q.mu.Lock()
		if q.state == Sleeping && q.sleepChan == channel {
			q.state = Runnable
			q.sleepChan = nil
			q.mlfqPriority = q.curQueue
			if t.Policy != nil {
				t.Policy.OnEnqueue(q)
			}
		}
		q.mu.Unlock()
	}
}

// Wakeup wakes every sleeper (other than caller, which may be nil) on
// channel. Safe to call without holding any lock.
func (t *Table) Wakeup(caller *Process, channel any) {
	t.wakeupLocked(caller, channel)
}

// Yield transitions the calling process back to RUNNABLE and hands
// off to the scheduler.
func (t *Table) Yield(p *Process) {
	p.mu.Lock()
	p.state = Runnable
	p.mlfqPriority = p.curQueue
	if t.Policy != nil {
		t.Policy.OnEnqueue(p)
	}
	p.Handoff()
	p.mu.Unlock()
}

// Wait blocks the calling process until one of its children exits,
// reaping the first zombie child found and returning its PID and exit
// status. It returns ErrNoChildren if the caller has no children or
// has been killed while waiting.
func (t *Table) Wait(parent *Process) (pid int, status int, err error) {
	return t.wait(parent, false)
}

// WaitResult is the extended return of Waitx: the reaped child's PID,
// its accumulated runtime, and its wait time (wall-clock lifetime
// minus runtime).
type WaitResult struct {
	PID   int
	RTime int64
	WTime int64
}

// Waitx behaves like Wait but additionally reports the reaped child's
// rtime and wtime = (etime - ctime - rtime).
func (t *Table) Waitx(parent *Process) (WaitResult, int, error) {
	pid, status, rtime, wtime, err := t.waitExtended(parent)
	return WaitResult{PID: pid, RTime: rtime, WTime: wtime}, status, err
}

func (t *Table) wait(parent *Process, _ bool) (int, int, error) {
	pid, status, _, _, err := t.waitExtended(parent)
	return pid, status, err
}

func (t *Table) waitExtended(parent *Process) (pid, status int, rtime, wtime int64, err error) {
	t.waitLock.Lock()
	for {
		haveKids := false
		var reaped *Process
		for i := range t.slots {
			c := &t.slots[i]
			c.mu.Lock()
			if c.parent == parent {
				haveKids = true
				if c.state == Zombie {
					reaped = c
					c.mu.Unlock()
					break
				}
			}
			c.mu.Unlock()
		}

		if reaped != nil {
			reaped.mu.Lock()
			pid = reaped.pid
			status = reaped.exitStatus
			rtime = reaped.rtime
			wtime = reaped.etime - reaped.ctime - reaped.rtime
			t.FreeSlot(reaped)
			reaped.mu.Unlock()
			t.waitLock.Unlock()
			return pid, status, rtime, wtime, nil
		}

		if !haveKids || parent.Killed() {
			t.waitLock.Unlock()
			return -1, 0, 0, 0, ErrNoChildren
		}

		t.sleepOn(parent, parent, &t.waitLock)
	}
}

// SleepTicks parks the calling process until n ticks have elapsed on
// the global tick counter, or until it is killed, matching the
// sleep(ticks) syscall's wrapper over the sleep/wakeup primitive
// (channel = the tick counter's address, lk = the tick lock). Returns
// 0 normally, -1 if the caller was killed before the interval elapsed.
func (t *Table) SleepTicks(p *Process, n int) int {
	start := t.currentTick()
	for t.currentTick()-start < int64(n) {
		if p.Killed() {
			return -1
		}
		t.tickMu.Lock()
		t.sleepOn(p, &t.tick, &t.tickMu)
		t.tickMu.Unlock()
	}
	return 0
}

// Kill marks the process identified by pid as killed. If it is
// currently SLEEPING, it is forced to RUNNABLE immediately; otherwise
// termination happens the next time it observes the killed flag (the
// trap collaborator's responsibility, out of scope here). Returns
// ErrNoSuchPid if no slot has that PID.
func (t *Table) Kill(pid int) error {
	p := t.Lookup(pid)
	if p == nil {
		return ErrNoSuchPid
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.killed = true
	if p.state == Sleeping {
		p.state = Runnable
		p.sleepChan = nil
		p.mlfqPriority = p.curQueue
		if t.Policy != nil {
			t.Policy.OnEnqueue(p)
		}
	}
	return nil
}

// ClampPriority clamps v into [lo, hi].
func ClampPriority(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// ComputeDynamicPriority derives PBS's dynamic priority from a static
// priority and a niceness value: clamp(pstatic - niceness + 5, 0, 100).
func ComputeDynamicPriority(pstatic, niceness int) int {
	return ClampPriority(pstatic-niceness+5, 0, 100)
}

// SetPriority sets pid's static priority to newPriority, resetting its
// PBS recomputation window. It returns the previous static priority
// and whether the caller should yield -- true when the newly computed
// dynamic priority is strictly better (lower) than the process's prior
// dynamic priority, giving the scheduler a chance to prefer it
// immediately rather than waiting for the next natural reschedule.
func (t *Table) SetPriority(pid, newPriority int) (prevStatic int, shouldYield bool, err error) {
	p := t.Lookup(pid)
	if p == nil {
		return -1, false, ErrNoSuchPid
	}
	p.mu.Lock()
	defer p.mu.Unlock()

	prevStatic = p.pstatic
	oldDynamic := p.pdynamic
	newDynamic := ComputeDynamicPriority(newPriority, p.niceness)

	p.pstatic = newPriority
	p.isNew = true
	p.rtimePrev, p.stimePrev = 0, 0

	shouldYield = newDynamic < oldDynamic
	return prevStatic, shouldYield, nil
}
