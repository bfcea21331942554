package sched

import (
	"testing"

	"github.com/arctir/schedcore/proc"
)

type fakeMem struct{}

func (fakeMem) CreatePagetable() (proc.PageTable, error)                      { return &struct{}{}, nil }
func (fakeMem) CopyUserMem(parent, child proc.PageTable, size uintptr) error { return nil }
func (fakeMem) FreePagetable(pt proc.PageTable, size uintptr)                 {}
func (fakeMem) AllocTrapFrame() (proc.TrapFrame, error)                       { return &struct{}{}, nil }
func (fakeMem) FreeTrapFrame(tf proc.TrapFrame)                               {}

type fakeFiles struct{}

func (fakeFiles) Dup(h proc.FileHandle) proc.FileHandle    { return h }
func (fakeFiles) Close(h proc.FileHandle)                  {}
func (fakeFiles) DupCwd(h proc.FileHandle) proc.FileHandle { return h }
func (fakeFiles) PutCwd(h proc.FileHandle)                 {}

func newTable(policy proc.Policy, n int) *proc.Table {
	return proc.NewTable(n, policy, fakeMem{}, fakeFiles{})
}

func allocRunnable(t *testing.T, tbl *proc.Table) *proc.Process {
	t.Helper()
	p, err := tbl.AllocSlot()
	if err != nil {
		t.Fatalf("AllocSlot: %v", err)
	}
	p.Unlock()
	p.WithLock(func() { p.SetStateL(proc.Runnable) })
	return p
}

func setState(p *proc.Process, s proc.State) {
	p.WithLock(func() { p.SetStateL(s) })
}

func TestFCFSChoosesSmallestCTime(t *testing.T) {
	policy := FCFS{}
	tbl := newTable(policy, 4)

	tbl.Step() // advances tick so the two allocations get distinct ctimes
	first := allocRunnable(t, tbl)
	tbl.Step()
	second := allocRunnable(t, tbl)

	got := policy.SelectNext(tbl)
	if got == nil || got.PidL() != first.PidL() {
		t.Fatalf("SelectNext chose pid %v, want %d (smallest ctime)", got, first.PidL())
	}
	_ = second
}

func TestRRCyclesThroughRunnables(t *testing.T) {
	policy := &RR{}
	tbl := newTable(policy, 3)

	a := allocRunnable(t, tbl)
	b := allocRunnable(t, tbl)
	c := allocRunnable(t, tbl)

	seen := map[int]bool{}
	for i := 0; i < 3; i++ {
		p := policy.SelectNext(tbl)
		if p == nil {
			t.Fatalf("round %d: SelectNext returned nil", i)
		}
		seen[p.PidL()] = true
	}
	for _, p := range []*proc.Process{a, b, c} {
		if !seen[p.PidL()] {
			t.Errorf("pid %d never selected across a full round", p.PidL())
		}
	}
}

func TestPBSPicksLowestDynamicPriority(t *testing.T) {
	policy := PBS{}
	tbl := newTable(policy, 2)

	a := allocRunnable(t, tbl)
	a.WithLock(func() { a.SetPStaticL(60) })
	b := allocRunnable(t, tbl)
	b.WithLock(func() { b.SetPStaticL(40) })

	got := policy.SelectNext(tbl)
	if got == nil || got.PidL() != b.PidL() {
		t.Fatalf("SelectNext chose pid %v, want %d (lower pstatic => lower pdynamic)", got, b.PidL())
	}
}

func TestMLFQSelectsFromLowestNonEmptyLevel(t *testing.T) {
	policy := NewMLFQ(3)
	tbl := newTable(policy, 3)

	hi := allocRunnable(t, tbl)
	hi.WithLock(func() { hi.SetCurQueueL(2) })
	policy.OnEnqueue(hi)

	lo := allocRunnable(t, tbl)
	lo.WithLock(func() { lo.SetCurQueueL(0) })
	policy.OnEnqueue(lo)

	got := policy.SelectNext(tbl)
	if got == nil || got.PidL() != lo.PidL() {
		t.Fatalf("SelectNext chose pid %v, want %d (level 0 over level 2)", got, lo.PidL())
	}
}

func TestMLFQOnDispatchRemovesFromQueue(t *testing.T) {
	policy := NewMLFQ(2)
	tbl := newTable(policy, 2)

	p := allocRunnable(t, tbl)
	policy.OnEnqueue(p)
	if policy.Queues.Empty(0) {
		t.Fatal("expected pid to be queued at level 0 after OnEnqueue")
	}

	p.WithLock(func() {
		policy.OnDispatch(p)
	})
	if !policy.Queues.Empty(0) {
		t.Error("OnDispatch should remove the process from its queue")
	}
	if p.MLFQPriorityL() != -1 {
		t.Errorf("MLFQPriorityL after dispatch = %d, want -1", p.MLFQPriorityL())
	}
}

func TestMLFQAgeingPromotes(t *testing.T) {
	policy := NewMLFQ(2)
	tbl := newTable(policy, 2)

	p := allocRunnable(t, tbl)
	p.WithLock(func() { p.SetCurQueueL(4) })
	policy.OnEnqueue(p)

	for i := 0; i < 41; i++ {
		tbl.Step()
	}

	if got := p.CurQueueL(); got != 3 {
		t.Errorf("CurQueueL after 41 ticks at level 4 = %d, want 3", got)
	}
	if got := p.WTimeL(); got != 0 {
		t.Errorf("WTimeL after promotion = %d, want 0", got)
	}
}

func TestLoopDispatchesAndClearsCurrent(t *testing.T) {
	policy := FCFS{}
	tbl := newTable(policy, 2)
	p := allocRunnable(t, tbl)

	loop := NewLoop(0, tbl)
	ran := false
	ok := loop.RunOnce(func(dispatched *proc.Process) {
		ran = true
		if dispatched.PidL() != p.PidL() {
			t.Errorf("dispatched pid = %d, want %d", dispatched.PidL(), p.PidL())
		}
		if got := dispatched.StateL(); got != proc.Running {
			t.Errorf("state during dispatch = %v, want RUNNING", got)
		}
		setState(dispatched, proc.Runnable)
	})
	if !ok || !ran {
		t.Fatal("RunOnce did not dispatch the runnable process")
	}
	if loop.Current() != nil {
		t.Error("Loop.Current() should be nil after RunOnce returns")
	}
}

func TestLoopRunOnceNoCandidate(t *testing.T) {
	policy := FCFS{}
	tbl := newTable(policy, 2)
	loop := NewLoop(0, tbl)
	if loop.RunOnce(func(p *proc.Process) {}) {
		t.Error("RunOnce with no runnable process should return false")
	}
}
