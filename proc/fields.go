package proc

// Unlock releases p's lock. It exists to pair with AllocSlot, which
// -- like the original's alloc_slot -- returns the claimed slot
// already locked, leaving release to the caller once it has finished
// initialising fields the generic AllocSlot does not set (such as the
// process's name).
func (p *Process) Unlock() {
	p.mu.Unlock()
}

// WithLock runs fn with p's lock held, then releases it. It is the
// entry point policy implementations in an external package use to
// safely inspect and mutate scheduling-relevant fields via the *L
// accessor methods below, none of which lock internally.
func (p *Process) WithLock(fn func()) {
	p.mu.Lock()
	defer p.mu.Unlock()
	fn()
}

// The *L accessor methods below assume the caller already holds p's
// lock -- true both inside a WithLock callback and whenever the table
// invokes a Policy hook (OnEnqueue, OnDispatch, OnTick), which it
// always does with the slot locked. They exist so policy
// implementations living outside this package can read and mutate
// scheduling fields without proc needing to export the fields
// themselves or make Process's lock reentrant.

func (p *Process) PidL() int      { return p.pid }
func (p *Process) NameL() string  { return p.name }
func (p *Process) StateL() State  { return p.state }
func (p *Process) SetStateL(s State) { p.state = s }
func (p *Process) CTimeL() int64  { return p.ctime }
func (p *Process) ParentL() *Process { return p.parent }

func (p *Process) PStaticL() int       { return p.pstatic }
func (p *Process) SetPStaticL(v int)   { p.pstatic = v }
func (p *Process) PDynamicL() int      { return p.pdynamic }
func (p *Process) SetPDynamicL(v int)  { p.pdynamic = v }
func (p *Process) NicenessL() int      { return p.niceness }
func (p *Process) SetNicenessL(v int)  { p.niceness = v }
func (p *Process) NSL() int            { return p.ns }
func (p *Process) IncNSL()             { p.ns++ }
func (p *Process) IsNewL() bool        { return p.isNew }
func (p *Process) SetIsNewL(v bool)    { p.isNew = v }
func (p *Process) RTimePrevL() int64   { return p.rtimePrev }
func (p *Process) StimePrevL() int64   { return p.stimePrev }
func (p *Process) ResetPBSWindowL() {
	p.rtimePrev = 0
	p.stimePrev = 0
}

func (p *Process) TraceMaskL() int          { return p.traceMask }
func (p *Process) SetTraceMaskL(v int)      { p.traceMask = v }

func (p *Process) CurQueueL() int           { return p.curQueue }
func (p *Process) SetCurQueueL(v int)       { p.curQueue = v }
func (p *Process) MLFQPriorityL() int       { return p.mlfqPriority }
func (p *Process) SetMLFQPriorityL(v int)   { p.mlfqPriority = v }
func (p *Process) WTimeL() int64            { return p.wtime }
func (p *Process) SetWTimeL(v int64)        { p.wtime = v }
