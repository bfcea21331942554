package proc

// Step advances the global tick counter by one and sweeps every slot,
// updating the generic runtime/wait/sleep/queue-residence counters and
// then invoking the active policy's OnTick hook, which is where
// policy-specific accounting (MLFQ ageing, in particular) lives -- per
// the redesign that makes the timing accountant's MLFQ-specific path a
// method on the MLFQ policy rather than an inline branch here.
func (t *Table) Step() {
	t.tickMu.Lock()
	t.tick++
	t.tickMu.Unlock()

	for i := range t.slots {
		p := &t.slots[i]
		p.mu.Lock()
		if p.state == Unused {
			p.mu.Unlock()
			continue
		}

		if p.mlfqPriority != -1 {
			p.qcount[p.curQueue]++
		}

		switch p.state {
		case Running:
			p.rtime++
			p.rtimePrev++
		case Sleeping:
			p.stimePrev++
		case Runnable:
			p.wtime++
			p.twtime++
		}

		if t.Policy != nil {
			t.Policy.OnTick(p)
		}
		p.mu.Unlock()
	}

	// Wake any process parked in SleepTicks waiting for the tick
	// counter to advance, regardless of which policy is active.
	t.Wakeup(nil, &t.tick)
}
