package diag

import (
	"strings"
	"testing"

	"github.com/arctir/schedcore/proc"
	"github.com/arctir/schedcore/sched"
)

type fakeMem struct{}

func (fakeMem) CreatePagetable() (proc.PageTable, error)                    { return &struct{}{}, nil }
func (fakeMem) CopyUserMem(parent, child proc.PageTable, size uintptr) error { return nil }
func (fakeMem) FreePagetable(pt proc.PageTable, size uintptr)                {}
func (fakeMem) AllocTrapFrame() (proc.TrapFrame, error)                     { return &struct{}{}, nil }
func (fakeMem) FreeTrapFrame(tf proc.TrapFrame)                             {}

type fakeFiles struct{}

func (fakeFiles) Dup(h proc.FileHandle) proc.FileHandle    { return h }
func (fakeFiles) Close(h proc.FileHandle)                  {}
func (fakeFiles) DupCwd(h proc.FileHandle) proc.FileHandle { return h }
func (fakeFiles) PutCwd(h proc.FileHandle)                 {}

func newTable(policy proc.Policy, n int) *proc.Table {
	return proc.NewTable(n, policy, fakeMem{}, fakeFiles{})
}

func allocNamed(t *testing.T, tbl *proc.Table, name string) *proc.Process {
	t.Helper()
	p, err := tbl.AllocSlot()
	if err != nil {
		t.Fatalf("AllocSlot: %v", err)
	}
	p.Unlock()
	p.SetName(name)
	p.WithLock(func() { p.SetStateL(proc.Runnable) })
	return p
}

func TestProcDumpBaseColumns(t *testing.T) {
	tbl := newTable(sched.FCFS{}, 4)
	allocNamed(t, tbl, "shell")

	out := string(ProcDump(tbl, "FCFS"))
	if !strings.Contains(out, "shell") {
		t.Errorf("ProcDump output missing process name:\n%s", out)
	}
	if !strings.Contains(out, "PID") && !strings.Contains(out, "pid") {
		t.Errorf("ProcDump output missing pid column:\n%s", out)
	}
	if strings.Contains(out, "pdynamic") {
		t.Errorf("FCFS listing should not carry PBS columns:\n%s", out)
	}
}

func TestProcDumpOmitsUnusedSlots(t *testing.T) {
	tbl := newTable(sched.FCFS{}, 4)
	allocNamed(t, tbl, "only")

	out := string(ProcDump(tbl, "FCFS"))
	if strings.Count(out, "only") != 1 {
		t.Errorf("expected exactly one data row, got:\n%s", out)
	}
}

func TestProcDumpPBSColumns(t *testing.T) {
	tbl := newTable(sched.PBS{}, 4)
	allocNamed(t, tbl, "a")

	out := string(ProcDump(tbl, "PBS"))
	if !strings.Contains(out, "pdynamic") || !strings.Contains(out, "ns") {
		t.Errorf("PBS listing missing expected columns:\n%s", out)
	}
}

func TestProcDumpMLFQColumns(t *testing.T) {
	tbl := newTable(sched.NewMLFQ(4), 4)
	allocNamed(t, tbl, "a")

	out := string(ProcDump(tbl, "MLFQ"))
	for level := 0; level < 5; level++ {
		if !strings.Contains(out, "q"+string(rune('0'+level))) {
			t.Errorf("MLFQ listing missing q%d column:\n%s", level, out)
		}
	}
}

func TestDumpUnknownPid(t *testing.T) {
	tbl := newTable(sched.FCFS{}, 2)
	out := Dump(tbl, 999)
	if !strings.Contains(out, "no such pid") {
		t.Errorf("Dump(unknown) = %q, want a no-such-pid message", out)
	}
}

func TestDumpKnownPidIncludesFieldNames(t *testing.T) {
	tbl := newTable(sched.FCFS{}, 2)
	p := allocNamed(t, tbl, "a")

	out := Dump(tbl, p.Pid())
	if !strings.Contains(out, "PID") {
		t.Errorf("Dump output missing PID field:\n%s", out)
	}
}
