// Package proc implements the process table, PID allocator, timing
// accountant and lifecycle operations (fork, exit, wait, waitx, yield,
// sleep, wakeup, kill, setpriority) of the scheduler core. It defines
// the narrow collaborator interfaces the table needs from memory and
// file-system management, and the Policy capability interface that
// lets the scheduler loop plug in FCFS/RR/PBS/MLFQ without a
// compile-time selector.
package proc

import (
	"fmt"
	"sync"
)

// State is one of the process lifecycle states.
type State int

const (
	Unused State = iota
	Used
	Runnable
	Running
	Sleeping
	Zombie
)

func (s State) String() string {
	switch s {
	case Unused:
		return "UNUSED"
	case Used:
		return "USED"
	case Runnable:
		return "RUNNABLE"
	case Running:
		return "RUNNING"
	case Sleeping:
		return "SLEEPING"
	case Zombie:
		return "ZOMBIE"
	default:
		return "UNKNOWN"
	}
}

// NumOpenFiles mirrors NOFILE: the number of file descriptor slots a
// process carries.
const NumOpenFiles = 16

// PageTable, TrapFrame and FileHandle are opaque handles owned by the
// memory and file-system collaborators (spec's "external interfaces").
// schedcore never interprets their contents -- only allocates, copies,
// and frees them through MemoryManager / FileManager.
type (
	PageTable  any
	TrapFrame  any
	FileHandle any
)

// MemoryManager is the narrow slice of the virtual-memory collaborator
// that process allocation and fork need. The actual page-table
// representation is out of scope; callers supply any
// implementation, including an in-memory simulation for testing.
type MemoryManager interface {
	CreatePagetable() (PageTable, error)
	CopyUserMem(parent, child PageTable, size uintptr) error
	FreePagetable(pt PageTable, size uintptr)
	AllocTrapFrame() (TrapFrame, error)
	FreeTrapFrame(tf TrapFrame)
}

// FileManager is the narrow slice of the file-system collaborator that
// fork/exit need to duplicate and release open files and the working
// directory.
type FileManager interface {
	Dup(h FileHandle) FileHandle
	Close(h FileHandle)
	DupCwd(h FileHandle) FileHandle
	PutCwd(h FileHandle)
}

// Process is one process-table slot.
type Process struct {
	mu sync.Mutex

	state  State
	pid    int
	parent *Process

	memSize     uintptr
	pageTable   PageTable
	trapFrame   TrapFrame
	openFiles   [NumOpenFiles]FileHandle
	cwd         FileHandle
	kernelStack any

	name       string
	traceMask  int
	killed     bool
	exitStatus int

	sleepChan any

	ctime int64
	rtime int64
	etime int64
	wtime int64
	twtime int64

	rtimePrev int64
	stimePrev int64
	isNew     bool

	pstatic  int
	pdynamic int
	niceness int
	ns       int

	curQueue      int
	mlfqPriority  int
	qcount        [5]int64

	context any

	resumeCh chan struct{}
}

// Pid returns the process's PID under its own lock.
func (p *Process) Pid() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.pid
}

// State returns the process's current state under its own lock.
func (p *Process) State() State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

// MemSize returns the process's tracked user-memory size under its
// own lock. The actual page-table backing is out of scope here (an
// external VM collaborator's concern); this is bookkeeping only.
func (p *Process) MemSize() uintptr {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.memSize
}

// GrowMemSize adjusts the process's tracked memory size by delta
// (which may be negative) and returns the size before the change,
// matching sbrk's "returns old break" contract.
func (p *Process) GrowMemSize(delta int) uintptr {
	p.mu.Lock()
	defer p.mu.Unlock()
	old := p.memSize
	p.memSize = uintptr(int64(p.memSize) + int64(delta))
	return old
}

// Name returns the process's name under its own lock.
func (p *Process) Name() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.name
}

// Snapshot is a racy, lock-free copy of a process's bookkeeping fields
// for diagnostics use -- procdump is allowed to read without the
// per-slot lock, by design.
type Snapshot struct {
	PID        int
	State      State
	Name       string
	ParentPID  int
	CTime      int64
	RTime      int64
	WTime      int64
	TWTime     int64
	PStatic    int
	PDynamic   int
	Niceness   int
	NS         int
	CurQueue   int
	QCount     [5]int64
	TraceMask  int
	Killed     bool
}

// Snapshot reads p's fields without locking, by design, for
// diagnostics.
func (p *Process) Snapshot() Snapshot {
	parentPID := 0
	if p.parent != nil {
		parentPID = p.parent.pid
	}
	return Snapshot{
		PID: p.pid, State: p.state, Name: p.name, ParentPID: parentPID,
		CTime: p.ctime, RTime: p.rtime, WTime: p.wtime, TWTime: p.twtime,
		PStatic: p.pstatic, PDynamic: p.pdynamic, Niceness: p.niceness,
		NS: p.ns, CurQueue: p.curQueue, QCount: p.qcount,
		TraceMask: p.traceMask, Killed: p.killed,
	}
}

// Policy is the scheduling-policy capability set. One implementation
// exists per mode (FCFS, RR, PBS, MLFQ); the active one is selected at
// boot and plugged into the Table, replacing the original's
// compile-time selector with a runtime-pluggable interface.
type Policy interface {
	// Name identifies the policy for diagnostics (e.g. "RR", "MLFQ").
	Name() string
	// SelectNext returns the next slot to dispatch, or nil if none is
	// runnable. The table's slot locks are not held across the call;
	// implementations must acquire per-slot locks themselves as needed.
	SelectNext(t *Table) *Process
	// OnEnqueue is invoked whenever a process transitions into
	// RUNNABLE (fork, yield, wakeup, kill-from-sleep). Called with p's
	// lock held.
	OnEnqueue(p *Process)
	// OnDispatch is invoked immediately before a process is
	// transitioned to RUNNING. Called with p's lock held.
	OnDispatch(p *Process)
	// OnTick is invoked once per process per timer tick, after the
	// generic timing update in Table.Step. Called with p's lock held.
	OnTick(p *Process)
}

// Table is the fixed-size process table plus the global collaborators
// it needs: the PID allocator, the wait-queue lock, the current tick,
// and the active scheduling policy.
type Table struct {
	slots []Process

	waitLock sync.Mutex

	pid PIDAllocator

	tickMu sync.Mutex
	tick   int64

	Policy Policy

	Mem   MemoryManager
	Files FileManager

	initProc *Process
}

// NewTable allocates a table with nproc slots, all initially UNUSED.
func NewTable(nproc int, policy Policy, mem MemoryManager, files FileManager) *Table {
	return &Table{
		slots:  make([]Process, nproc),
		Policy: policy,
		Mem:    mem,
		Files:  files,
	}
}

// Tick returns the current tick count.
func (t *Table) Tick() int64 {
	t.tickMu.Lock()
	defer t.tickMu.Unlock()
	return t.tick
}

func (t *Table) currentTick() int64 {
	t.tickMu.Lock()
	defer t.tickMu.Unlock()
	return t.tick
}

// SetInitProc designates p as initproc, the reparenting target for
// orphaned children and the process whose exit is fatal.
func (t *Table) SetInitProc(p *Process) {
	t.initProc = p
}

// InitProc returns the designated init process, or nil if none has
// been set yet.
func (t *Table) InitProc() *Process {
	return t.initProc
}

// ErrNoSlot is returned when the table is exhausted.
var ErrNoSlot = fmt.Errorf("proc: no free slot")

// ErrOutOfMemory describes a memory-collaborator failure during
// allocation. AllocSlot formats its text into the error it returns
// (with %s), so that error is not ErrOutOfMemory itself.
var ErrOutOfMemory = fmt.Errorf("proc: out of memory")

// AllocSlot scans the table for the first UNUSED slot, claims it, and
// initialises its bookkeeping fields per spec §4.2. It returns the
// slot locked -- the caller is responsible for unlocking it (normally
// after finishing initialisation or via FreeSlot on failure).
func (t *Table) AllocSlot() (*Process, error) {
	for i := range t.slots {
		p := &t.slots[i]
		p.mu.Lock()
		if p.state != Unused {
			p.mu.Unlock()
			continue
		}

		p.state = Used
		p.pid = t.pid.Allocate()
		p.ctime = t.currentTick()
		p.rtime, p.etime, p.wtime, p.twtime = 0, 0, 0, 0
		p.rtimePrev, p.stimePrev = 0, 0
		p.isNew = true
		p.pstatic = 60
		p.pdynamic, p.niceness, p.ns = 0, 0, 0
		p.curQueue = 0
		p.mlfqPriority = -1
		p.qcount = [5]int64{}
		p.killed = false
		p.exitStatus = 0
		p.traceMask = 0
		p.sleepChan = nil
		p.parent = nil

		pt, err := t.Mem.CreatePagetable()
		if err != nil {
			t.freeSlotLocked(p)
			p.mu.Unlock()
			return nil, fmt.Errorf("proc: alloc pagetable: %s", ErrOutOfMemory)
		}
		p.pageTable = pt

		tf, err := t.Mem.AllocTrapFrame()
		if err != nil {
			t.freeSlotLocked(p)
			p.mu.Unlock()
			return nil, fmt.Errorf("proc: alloc trapframe: %s", ErrOutOfMemory)
		}
		p.trapFrame = tf
		p.context = nil

		return p, nil
	}
	return nil, ErrNoSlot
}

// FreeSlot releases a slot's resources and resets it to UNUSED. The
// caller must hold p's lock.
func (t *Table) FreeSlot(p *Process) {
	t.freeSlotLocked(p)
}

func (t *Table) freeSlotLocked(p *Process) {
	if p.trapFrame != nil {
		t.Mem.FreeTrapFrame(p.trapFrame)
	}
	if p.pageTable != nil {
		t.Mem.FreePagetable(p.pageTable, p.memSize)
	}
	p.state = Unused
	p.pid = 0
	p.parent = nil
	p.name = ""
	p.killed = false
	p.exitStatus = 0
	p.traceMask = 0
	p.sleepChan = nil
	p.pageTable = nil
	p.trapFrame = nil
	p.memSize = 0
	p.mlfqPriority = -1
}

// ForEach calls fn once per slot in table order, without acquiring any
// lock. It is meant for policy selectors, which must lock each slot
// themselves via Process.WithLock (so the table-wide scan never holds
// any one slot's lock longer than the inspection of that single slot).
func (t *Table) ForEach(fn func(p *Process)) {
	for i := range t.slots {
		fn(&t.slots[i])
	}
}

// NumSlots returns the table's fixed slot count (NPROC).
func (t *Table) NumSlots() int {
	return len(t.slots)
}

// Slot returns a pointer to the i'th slot, for callers (policy
// selectors) that need direct index-based access. i must be in
// [0, NumSlots()).
func (t *Table) Slot(i int) *Process {
	return &t.slots[i]
}

// Lookup finds the slot with the given PID and returns it, or nil if
// none matches. The returned process is not locked.
func (t *Table) Lookup(pid int) *Process {
	for i := range t.slots {
		p := &t.slots[i]
		p.mu.Lock()
		found := p.state != Unused && p.pid == pid
		p.mu.Unlock()
		if found {
			return p
		}
	}
	return nil
}
