package kernel

import (
	"log"

	"github.com/arctir/schedcore/proc"
)

// The methods below implement the syscall surface from the external
// interfaces table: each takes the calling process explicitly (the
// trap collaborator's job of resolving "current process" from a trap
// frame is out of scope here) and returns the same (int, ...) shape
// user space would see, never a Go error for expected failure paths
// (NoSlot, NoChildren, NoSuchPid, BadArgument) -- those are encoded as
// -1. A Go error is returned only
// for conditions that have no meaningful negative-return encoding,
// such as Exit being called on the init process.

// Fork implements the fork syscall from the parent's side: child PID,
// or -1. The child's own 0 return is not modelled here.
func (k *Kernel) Fork(caller *proc.Process) int {
	pid, err := k.Table.Fork(caller)
	if err != nil {
		return -1
	}
	return pid
}

// Exit implements the exit syscall. It does not return under normal
// operation; ErrInitExited is the one fatal condition a caller must
// treat as unrecoverable.
func (k *Kernel) Exit(caller *proc.Process, status int) error {
	return k.Table.Exit(caller, status)
}

// Wait implements the wait syscall: reaped PID and exit status, or -1.
func (k *Kernel) Wait(caller *proc.Process) (pid int, status int) {
	pid, status, err := k.Table.Wait(caller)
	if err != nil {
		return -1, 0
	}
	return pid, status
}

// Waitx implements the waitx syscall: reaped PID, exit status, runtime
// ticks and wait ticks, or -1 with the rest zeroed.
func (k *Kernel) Waitx(caller *proc.Process) (pid, status int, rtime, wtime int64) {
	res, status, err := k.Table.Waitx(caller)
	if err != nil {
		return -1, 0, 0, 0
	}
	return res.PID, status, res.RTime, res.WTime
}

// SleepTicks implements the sleep(ticks) syscall: 0, or -1 if killed
// before the interval elapsed.
func (k *Kernel) SleepTicks(caller *proc.Process, ticks int) int {
	return k.Table.SleepTicks(caller, ticks)
}

// Kill implements the kill syscall: 0 on hit, -1 if no such PID.
func (k *Kernel) Kill(pid int) int {
	if err := k.Table.Kill(pid); err != nil {
		return -1
	}
	return 0
}

// GetPID implements the getpid syscall.
func (k *Kernel) GetPID(caller *proc.Process) int {
	return caller.Pid()
}

// Sbrk implements the sbrk syscall: it returns the old break. The
// actual page mapping sbrk would trigger is out of scope (VM
// collaborator); this only adjusts the tracked memory-size bookkeeping,
// has no failure path, and never returns -1.
func (k *Kernel) Sbrk(caller *proc.Process, delta int) int {
	old := caller.GrowMemSize(delta)
	return int(old)
}

// Uptime implements the uptime syscall.
func (k *Kernel) Uptime() int64 {
	return k.Table.Tick()
}

// Strace implements the strace syscall: sets the caller's trace mask.
func (k *Kernel) Strace(caller *proc.Process, mask int) int {
	caller.WithLock(func() {
		caller.SetTraceMaskL(mask)
	})
	return 0
}

// SetPriority implements the setpriority syscall. Argument order
// matters here exactly as in the original's sys_setpriority: priority
// first, pid second. Returns the previous static priority, or -1 if no
// such PID. If the newly computed dynamic priority is strictly better,
// the caller should call Yield immediately afterward -- SetPriority
// reports this via the second return value rather than yielding on
// the caller's behalf, since only the caller's own kernel thread may
// yield itself.
func (k *Kernel) SetPriority(priority, pid int) (prev int, shouldYield bool) {
	prevStatic, yield, err := k.Table.SetPriority(pid, priority)
	if err != nil {
		return -1, false
	}
	log.Printf("pid %d: priority %d -> %d", pid, prevStatic, priority)
	return prevStatic, yield
}

// Yield implements the yield syscall (not user-facing in the original
// table but invoked by SetPriority's caller and by the RR timer path).
func (k *Kernel) Yield(caller *proc.Process) {
	k.Table.Yield(caller)
}
