package cmd

import (
	"context"
	"fmt"
	"log"
	"strconv"
	"time"

	"github.com/arctir/schedcore/config"
	"github.com/arctir/schedcore/diag"
	"github.com/arctir/schedcore/kernel"
	"github.com/arctir/schedcore/proc"
	"github.com/arctir/schedcore/sched"
)

// RunServe boots a table, forks a few demo children, and serves a live
// HTML dashboard over it at addr until the process is interrupted. A
// single-CPU scheduler loop runs in the background so the dashboard
// shows processes actually cycling through RUNNABLE/RUNNING rather
// than sitting forked-but-never-dispatched.
func RunServe(policyName string, nproc int, addr string) {
	k, err := bootDemo(policyName, nproc)
	if err != nil {
		log.Fatalf("boot: %v", err)
	}
	for i := 0; i < 3; i++ {
		k.Fork(k.Init)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go driveLoop(ctx, k)

	d := diag.NewDashboard(k.Table, policyName)
	if err := d.ListenAndServe(addr); err != nil {
		log.Fatalf("serve: %v", err)
	}
}

// driveLoop runs a single-CPU sched.Loop against k's table until ctx
// is cancelled. Each dispatched process "runs" for a couple of ticks
// and then voluntarily yields, so the table keeps cycling PIDs through
// RUNNABLE/RUNNING the way a live scheduler would rather than leaving
// forked children parked in RUNNABLE forever.
func driveLoop(ctx context.Context, k *kernel.Kernel) {
	loop := sched.NewLoop(0, k.Table)
	run := func(p *proc.Process) {
		k.Table.Step()
		k.Table.Step()
		k.Table.Yield(p)
	}
	idle := func() {
		k.Table.Step()
		time.Sleep(50 * time.Millisecond)
	}
	loop.Run(ctx, run, idle)
}

func bootDemo(policyName string, nproc int) (*kernel.Kernel, error) {
	b := config.Default()
	b.Policy = policyName
	b.NProc = nproc
	return kernel.BootInit(b)
}

// RunPS boots a table under the given policy, forks a handful of
// demo children off init (staggering their static priorities so a PBS
// listing has something to differentiate), advances a few ticks, and
// prints the resulting procdump.
func RunPS(policyName string, nproc int) {
	k, err := bootDemo(policyName, nproc)
	if err != nil {
		log.Fatalf("boot: %v", err)
	}

	priorities := []int{60, 40, 80}
	for i, pr := range priorities {
		pid := k.Fork(k.Init)
		if pid < 0 {
			log.Printf("fork %d failed, table exhausted", i)
			break
		}
		child := k.Table.Lookup(pid)
		child.WithLock(func() { child.SetPStaticL(pr) })
	}

	for i := 0; i < 5; i++ {
		k.Table.Step()
	}

	fmt.Print(string(diag.ProcDump(k.Table, policyName)))
}

// RunDump boots a table, forks one demo child, and deep-dumps the
// process matching pidArg -- falling back to the demo child's own pid
// if pidArg does not parse or does not match anything in the table,
// since a freshly booted table has no other history to inspect.
func RunDump(policyName string, nproc int, pidArg string) {
	k, err := bootDemo(policyName, nproc)
	if err != nil {
		log.Fatalf("boot: %v", err)
	}

	childPID := k.Fork(k.Init)
	if childPID < 0 {
		log.Fatal("fork: table exhausted")
	}

	pid, err := strconv.Atoi(pidArg)
	if err != nil || k.Table.Lookup(pid) == nil {
		pid = childPID
	}
	fmt.Print(diag.Dump(k.Table, pid))
}

// RunDemo scripts a fork/wait/sleep/kill scenario against a freshly
// booted table, logging each syscall's return value -- a walkthrough
// of the lifecycle operations rather than a real workload.
func RunDemo(policyName string, nproc int) {
	k, err := bootDemo(policyName, nproc)
	if err != nil {
		log.Fatalf("boot: %v", err)
	}

	childPID := k.Fork(k.Init)
	log.Printf("fork(init) -> %d", childPID)
	child := k.Table.Lookup(childPID)
	if child == nil {
		log.Fatal("fork did not produce a lookup-able child")
	}

	loop := sched.NewLoop(0, k.Table)
	dispatched := loop.RunOnce(func(p *proc.Process) {
		log.Printf("scheduler dispatched pid %d, yielding back", p.Pid())
		k.Table.Yield(p)
	})
	log.Printf("scheduler RunOnce -> dispatched=%v", dispatched)

	prev, shouldYield := k.SetPriority(50, childPID)
	log.Printf("setpriority(50, %d) -> prev=%d shouldYield=%v", childPID, prev, shouldYield)

	k.Table.Step()
	k.Table.Step()

	rc := k.SleepTicks(child, 0)
	log.Printf("sleep(0) on child -> %d", rc)

	if err := k.Exit(child, 9); err != nil {
		log.Printf("exit(child, 9) -> error: %v", err)
	} else {
		log.Printf("exit(child, 9) -> ok")
	}

	pid, status, rtime, wtime := k.Waitx(k.Init)
	log.Printf("waitx(init) -> pid=%d status=%d rtime=%d wtime=%d", pid, status, rtime, wtime)

	if rc := k.Kill(999); rc != 0 {
		log.Printf("kill(999) -> %d (no such pid, as expected)", rc)
	}
}
