package kernel

import (
	"runtime"
	"testing"

	"github.com/arctir/schedcore/config"
	"github.com/arctir/schedcore/proc"
)

func bootTest(t *testing.T, policy string) *Kernel {
	t.Helper()
	b := config.Default()
	b.NProc = 16
	b.Policy = policy
	k, err := BootInit(b)
	if err != nil {
		t.Fatalf("BootInit: %v", err)
	}
	return k
}

func spawnChild(t *testing.T, k *Kernel, parent *proc.Process) *proc.Process {
	t.Helper()
	pid := k.Fork(parent)
	if pid < 0 {
		t.Fatalf("Fork failed")
	}
	return k.Table.Lookup(pid)
}

// Scenario 1: single child fork/wait under RR.
func TestScenarioForkWaitUnderRR(t *testing.T) {
	k := bootTest(t, config.PolicyRR)
	parent := spawnChild(t, k, k.Init)

	child := spawnChild(t, k, parent)
	if err := k.Exit(child, 42); err != nil {
		t.Fatalf("Exit: %v", err)
	}

	pid, status := k.Wait(parent)
	if pid != child.Pid() {
		t.Errorf("Wait pid = %d, want %d", pid, child.Pid())
	}
	if status != 42 {
		t.Errorf("Wait status = %d, want 42", status)
	}
	if child.State() != proc.Unused {
		t.Errorf("child state after reap = %v, want UNUSED", child.State())
	}
	if parent.Pid() == 0 {
		t.Error("parent slot's own pid should be untouched by reaping its child")
	}
}

// Scenario 2: PBS overtake.
func TestScenarioPBSOvertake(t *testing.T) {
	k := bootTest(t, config.PolicyPBS)
	a := spawnChild(t, k, k.Init)
	a.WithLock(func() { a.SetPStaticL(60); a.SetStateL(proc.Runnable) })
	// init is RUNNABLE after boot with the same (pdynamic, ns, ctime) key
	// as A and comes first in table order; park it so A is the only
	// candidate.
	k.Init.WithLock(func() { k.Init.SetStateL(proc.Sleeping) })

	policy := k.Table.Policy
	first := policy.SelectNext(k.Table)
	if first == nil || first.Pid() != a.Pid() {
		t.Fatalf("expected A selected first, got %v", first)
	}

	b := spawnChild(t, k, k.Init)
	b.WithLock(func() { b.SetPStaticL(40) })

	a.WithLock(func() { a.SetStateL(proc.Runnable) })

	second := policy.SelectNext(k.Table)
	if second == nil || second.Pid() != b.Pid() {
		t.Fatalf("expected B (lower pstatic) selected over A, got %v", second)
	}
	if b.NSL() < 0 {
		t.Error("unexpected negative ns")
	}
}

// Scenario 3: MLFQ does not demote on yield.
func TestScenarioMLFQNoDemotionOnYield(t *testing.T) {
	k := bootTest(t, config.PolicyMLFQ)
	a := spawnChild(t, k, k.Init)

	// Simulate the scheduler having dispatched a (removing it from its
	// queue and transitioning it to RUNNING) before it yields, the only
	// sequence under which a real scheduler loop would ever call Yield.
	policy := k.Table.Policy
	a.WithLock(func() {
		policy.OnDispatch(a)
		a.SetStateL(proc.Running)
	})

	k.Yield(a)

	if got := a.CurQueueL(); got != 0 {
		t.Errorf("CurQueueL after yield = %d, want 0 (no demotion on yield)", got)
	}
	if got := a.State(); got != proc.Runnable {
		t.Errorf("state after yield = %v, want RUNNABLE", got)
	}
}

// Scenario 4: MLFQ ageing promotes after the level-4 threshold.
func TestScenarioMLFQAgeing(t *testing.T) {
	k := bootTest(t, config.PolicyMLFQ)
	p := spawnChild(t, k, k.Init)
	p.WithLock(func() {
		p.SetCurQueueL(4)
		p.SetMLFQPriorityL(4)
	})

	for i := 0; i < 41; i++ {
		k.Table.Step()
	}

	if got := p.CurQueueL(); got != 3 {
		t.Errorf("CurQueueL after 41 ticks = %d, want 3", got)
	}
	if got := p.WTimeL(); got != 0 {
		t.Errorf("WTimeL after promotion = %d, want 0", got)
	}
}

// Scenario 5: sleep/wake ordering -- no wakeup is lost.
func TestScenarioSleepWakeOrdering(t *testing.T) {
	k := bootTest(t, config.PolicyRR)
	t0 := spawnChild(t, k, k.Init)

	done := make(chan struct{})
	go func() {
		k.Table.Sleep(t0, "chanC", nil)
		close(done)
	}()
	for i := 0; i < 100000 && t0.State() != proc.Sleeping; i++ {
		runtime.Gosched()
	}
	if t0.State() != proc.Sleeping {
		t.Fatal("sleeper never reached SLEEPING")
	}
	k.Table.Wakeup(nil, "chanC")
	<-done

	if got := t0.State(); got != proc.Runnable {
		t.Errorf("state after wakeup = %v, want RUNNABLE", got)
	}
}

// Scenario 6: waitx accounting.
func TestScenarioWaitxAccounting(t *testing.T) {
	k := bootTest(t, config.PolicyRR)
	parent := spawnChild(t, k, k.Init)
	child := spawnChild(t, k, parent)

	child.WithLock(func() { child.SetStateL(proc.Running) })
	for i := 0; i < 4; i++ {
		k.Table.Step()
	}
	child.WithLock(func() { child.SetStateL(proc.Sleeping) })
	for i := 0; i < 2; i++ {
		k.Table.Step()
	}
	wantPID := child.Pid()
	child.WithLock(func() { child.SetStateL(proc.Runnable) })
	if err := k.Exit(child, 7); err != nil {
		t.Fatalf("Exit: %v", err)
	}
	pid, status, rtime, wtime := k.Waitx(parent)
	if pid != wantPID {
		t.Errorf("pid = %d, want %d", pid, wantPID)
	}
	if status != 7 {
		t.Errorf("status = %d, want 7", status)
	}
	if rtime != 4 {
		t.Errorf("rtime = %d, want 4", rtime)
	}
	if wtime != 2 {
		t.Errorf("wtime = %d, want 2", wtime)
	}
}

// Scenario 7: kill during sleep.
func TestScenarioKillDuringSleep(t *testing.T) {
	k := bootTest(t, config.PolicyRR)
	p := spawnChild(t, k, k.Init)
	p.WithLock(func() {
		p.SetStateL(proc.Sleeping)
	})

	if rc := k.Kill(p.Pid()); rc != 0 {
		t.Fatalf("Kill = %d, want 0", rc)
	}
	if !p.Killed() {
		t.Error("Killed() = false")
	}
	if got := p.State(); got != proc.Runnable {
		t.Errorf("state after kill-during-sleep = %v, want RUNNABLE", got)
	}
}

func TestInitExitIsFatal(t *testing.T) {
	k := bootTest(t, config.PolicyRR)
	if err := k.Exit(k.Init, 0); err != proc.ErrInitExited {
		t.Errorf("Exit(init) = %v, want ErrInitExited", err)
	}
}

func TestForkNoSlotReturnsNegativeOne(t *testing.T) {
	k := bootTest(t, config.PolicyRR)
	for {
		if k.Fork(k.Init) < 0 {
			break
		}
	}
}
