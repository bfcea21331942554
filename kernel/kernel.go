// Package kernel wires the process table, its collaborators, and the
// active scheduling policy into a bootable unit, and exposes the
// lifecycle operations as the syscall surface a user-space CLI (or a
// test harness standing in for one) calls into.
package kernel

import (
	"fmt"
	"log"

	"github.com/arctir/schedcore/config"
	"github.com/arctir/schedcore/proc"
	"github.com/arctir/schedcore/sched"
)

// Kernel is schedcore's booted state: the process table, the init
// process, and the host info used in its boot banner.
type Kernel struct {
	Table *proc.Table
	Host  HostInfo

	Mem   *SimMemory
	Files SimFiles
	Trap  Trap

	Init *proc.Process
}

// resolvePolicy constructs the concrete sched.Policy for a boot
// config's policy name -- the runtime equivalent of the original's
// compile-time #ifdef selector. nproc sizes MLFQ's queue set to the
// table it will back.
func resolvePolicy(name string, nproc int) (proc.Policy, error) {
	switch name {
	case config.PolicyFCFS:
		return sched.FCFS{}, nil
	case config.PolicyRR:
		return &sched.RR{}, nil
	case config.PolicyPBS:
		return sched.PBS{}, nil
	case config.PolicyMLFQ:
		return sched.NewMLFQ(nproc), nil
	default:
		return nil, fmt.Errorf("kernel: unknown policy %q", name)
	}
}

// BootInit constructs a Kernel from boot config b. The policy (and,
// for MLFQ, its queue set), the process table and the init process are
// built explicitly here, in that order. The PID allocator starts from
// its zero value inside the table, and the ageing thresholds are the
// package-level mlfq.AgeingThresholds.
func BootInit(b config.Boot) (*Kernel, error) {
	if err := b.Validate(); err != nil {
		return nil, fmt.Errorf("kernel: invalid boot config: %s", err)
	}

	policy, err := resolvePolicy(b.Policy, b.NProc)
	if err != nil {
		return nil, err
	}

	mem := &SimMemory{}
	files := SimFiles{}
	table := proc.NewTable(b.NProc, policy, mem, files)

	k := &Kernel{
		Table: table,
		Host:  DescribeHost(b.NCPU),
		Mem:   mem,
		Files: files,
		Trap:  NopTrap{},
	}

	init, err := k.spawnInit()
	if err != nil {
		return nil, fmt.Errorf("kernel: spawn init: %s", err)
	}
	k.Init = init
	table.SetInitProc(init)

	log.Printf("%s, policy=%s", k.Host.Banner(), policy.Name())
	return k, nil
}

// spawnInit allocates the table's first process directly (bypassing
// Fork, which requires an existing parent) and makes it RUNNABLE --
// the teaching-kernel equivalent of userinit().
func (k *Kernel) spawnInit() (*proc.Process, error) {
	p, err := k.Table.AllocSlot()
	if err != nil {
		return nil, err
	}
	p.Unlock()

	p.SetName("init")
	p.WithLock(func() {
		p.SetStateL(proc.Runnable)
		if k.Table.Policy != nil {
			k.Table.Policy.OnEnqueue(p)
		}
	})
	return p, nil
}
