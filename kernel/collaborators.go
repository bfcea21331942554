package kernel

import (
	"fmt"
	"sync"

	"github.com/arctir/schedcore/proc"
)

// SimMemory is a simulated implementation of proc.MemoryManager. It
// does not model page tables or physical memory at all -- that's the
// real VM collaborator's job -- but it does enforce
// the same allocation-can-fail contract real callers depend on, via
// FailNextAlloc, so AllocSlot/Fork failure paths are exercisable in
// tests without a real VM subsystem.
type SimMemory struct {
	mu            sync.Mutex
	failNextAlloc bool
}

// FailNextAlloc makes the next CreatePagetable or AllocTrapFrame call
// fail, simulating OutOfMemory for exactly one allocation.
func (m *SimMemory) FailNextAlloc() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failNextAlloc = true
}

func (m *SimMemory) takeFailure() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failNextAlloc {
		m.failNextAlloc = false
		return true
	}
	return false
}

type simPagetable struct{ id int }

func (m *SimMemory) CreatePagetable() (proc.PageTable, error) {
	if m.takeFailure() {
		return nil, fmt.Errorf("kernel: simulated page-table allocation failure")
	}
	return &simPagetable{}, nil
}

func (m *SimMemory) CopyUserMem(parent, child proc.PageTable, size uintptr) error {
	return nil
}

func (m *SimMemory) FreePagetable(pt proc.PageTable, size uintptr) {}

type simTrapFrame struct{}

func (m *SimMemory) AllocTrapFrame() (proc.TrapFrame, error) {
	if m.takeFailure() {
		return nil, fmt.Errorf("kernel: simulated trap-frame allocation failure")
	}
	return &simTrapFrame{}, nil
}

func (m *SimMemory) FreeTrapFrame(tf proc.TrapFrame) {}

// SimFiles is a simulated implementation of proc.FileManager. File
// handles are opaque tokens passed through unchanged; there is no
// reference counting, and real inode/file-table semantics are out of
// scope here.
type SimFiles struct{}

type simFile struct{ name string }

func (SimFiles) Dup(h proc.FileHandle) proc.FileHandle    { return h }
func (SimFiles) Close(h proc.FileHandle)                  {}
func (SimFiles) DupCwd(h proc.FileHandle) proc.FileHandle { return h }
func (SimFiles) PutCwd(h proc.FileHandle)                 {}

// Trap is the narrow slice of the trap collaborator the kernel needs:
// observing a process's killed flag on return to user space. It has no
// hook for the RR preemption timer, and trampoline/trap-frame mechanics
// are a VM/assembly concern out of scope here.
type Trap interface {
	// CheckKilled reports whether p has been marked killed, for a
	// syscall return path to act on by routing to Exit. No code in this
	// module calls it.
	CheckKilled(p *proc.Process) bool
}

// NopTrap is a Trap that reports the killed flag as it stands and takes
// no further action -- suitable for tests that drive Kill/Exit directly
// rather than through a trap return path.
type NopTrap struct{}

func (NopTrap) CheckKilled(p *proc.Process) bool { return p.Killed() }
