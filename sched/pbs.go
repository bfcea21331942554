package sched

import "github.com/arctir/schedcore/proc"

// PBS implements Priority-Based Scheduling: every RUNNABLE slot's
// dynamic priority is recomputed from its static priority and recent
// sleep/run ratio, and the slot minimising (pdynamic, ns, ctime) is
// chosen.
type PBS struct{}

func (PBS) Name() string { return "PBS" }

func (PBS) SelectNext(t *proc.Table) *proc.Process {
	var best *proc.Process
	var bestDynamic, bestNS int
	var bestCTime int64

	t.ForEach(func(p *proc.Process) {
		p.WithLock(func() {
			if p.StateL() != proc.Runnable {
				return
			}

			var niceness int
			if p.IsNewL() {
				niceness = 5
			} else {
				rp, sp := p.RTimePrevL(), p.StimePrevL()
				if rp+sp > 0 {
					niceness = int(10 * sp / (rp + sp))
				}
			}
			p.SetNicenessL(niceness)
			dynamic := proc.ComputeDynamicPriority(p.PStaticL(), niceness)
			p.SetPDynamicL(dynamic)

			ns := p.NSL()
			ctime := p.CTimeL()

			if best == nil ||
				dynamic < bestDynamic ||
				(dynamic == bestDynamic && ns < bestNS) ||
				(dynamic == bestDynamic && ns == bestNS && ctime < bestCTime) {
				best = p
				bestDynamic, bestNS, bestCTime = dynamic, ns, ctime
			}
		})
	})
	return best
}

func (PBS) OnEnqueue(p *proc.Process) {}

// OnDispatch clears the PBS recomputation window for the chosen
// process and marks it no longer "new": is_new <- 0; rtime_prev,
// stime_prev <- 0; ns++.
func (PBS) OnDispatch(p *proc.Process) {
	p.SetIsNewL(false)
	p.ResetPBSWindowL()
	p.IncNSL()
}

func (PBS) OnTick(p *proc.Process) {}
