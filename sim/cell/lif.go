// Package cell provides the built-in cell-group integrators consumed by
// the simulation engine through the sim.CellGroup contract: a leaky
// integrate-and-fire group and a scheduled spike source.
package cell

import (
	"container/heap"
	"fmt"
	"math"

	"github.com/kanduri/arbor/sim"
)

// LIFParams are the leaky integrate-and-fire membrane parameters.
// Voltages in mV, times in ms.
type LIFParams struct {
	TauM    float64 // membrane time constant
	VRest   float64 // resting potential
	VReset  float64 // post-spike reset potential
	VThresh float64 // firing threshold
	TRef    float64 // absolute refractory period
}

// DefaultLIFParams returns standard textbook constants.
func DefaultLIFParams() LIFParams {
	return LIFParams{
		TauM:    10.0,
		VRest:   -65.0,
		VReset:  -65.0,
		VThresh: -50.0,
		TRef:    2.0,
	}
}

// LIF is a leaky integrate-and-fire cell group with one spike source and a
// configurable number of synapse targets. Incoming events are delta
// synapses: each adds its weight to the membrane voltage at its delivery
// time. Advancement is forward-Euler with a fixed step.
type LIF struct {
	params     LIFParams
	numTargets int

	source      sim.GID
	firstTarget sim.TargetID

	t          float64
	v          float64
	refractory float64 // absolute time the refractory period ends

	pending eventQueue
	spikes  []sim.Spike
	probes  []*probe
}

// NewLIF creates a group with the given membrane parameters and synapse
// target count, at rest at t=0.
func NewLIF(params LIFParams, numTargets int) *LIF {
	return &LIF{
		params:     params,
		numTargets: numTargets,
		v:          params.VRest,
	}
}

func (g *LIF) NumTargets() int { return g.numTargets }
func (g *LIF) NumSources() int { return 1 }

func (g *LIF) SetGIDs(firstSource sim.GID, firstTarget sim.TargetID) {
	g.source = firstSource
	g.firstTarget = firstTarget
}

// Voltage returns the current membrane voltage.
func (g *LIF) Voltage() float64 { return g.v }

// EnqueueEvents adds inbound events to the pending queue. Events are
// delivered in time order during Advance regardless of arrival order.
func (g *LIF) EnqueueEvents(events []sim.PostSynapticEvent) {
	for _, ev := range events {
		heap.Push(&g.pending, ev)
	}
}

// Advance integrates the membrane from the group's current time to tEnd
// with step dt, applying pending events at their delivery times and
// recording a spike whenever the voltage crosses threshold outside the
// refractory period.
func (g *LIF) Advance(tEnd, dt float64) error {
	for g.t < tEnd {
		step := math.Min(dt, tEnd-g.t)
		tNext := g.t + step

		for g.pending.Len() > 0 && g.pending[0].Time <= tNext {
			ev := heap.Pop(&g.pending).(sim.PostSynapticEvent)
			g.v += ev.Weight
		}

		if tNext >= g.refractory {
			g.v += -(g.v - g.params.VRest) / g.params.TauM * step
		}

		if math.IsNaN(g.v) || math.IsInf(g.v, 0) {
			return fmt.Errorf("%w: membrane voltage diverged to %g at t=%g",
				sim.ErrIntegrator, g.v, tNext)
		}

		if g.v >= g.params.VThresh && tNext >= g.refractory {
			g.spikes = append(g.spikes, sim.Spike{Source: g.source, Time: tNext})
			g.v = g.params.VReset
			g.refractory = tNext + g.params.TRef
		}

		for _, p := range g.probes {
			for p.next <= tNext {
				p.trace.Append(p.next, g.v)
				p.next += p.dt
			}
		}

		g.t = tNext
	}
	return nil
}

func (g *LIF) Spikes() []sim.Spike { return g.spikes }
func (g *LIF) ClearSpikes()        { g.spikes = g.spikes[:0] }

// AddProbe samples the membrane voltage into tr every sampleDt, starting
// at the group's current time. The trace must not be read until the run
// has finished.
func (g *LIF) AddProbe(tr *sim.Trace, sampleDt float64) {
	g.probes = append(g.probes, &probe{trace: tr, dt: sampleDt, next: g.t})
}

type probe struct {
	trace *sim.Trace
	dt    float64
	next  float64
}

// eventQueue orders pending events by delivery time.
// See canonical Golang example here: https://pkg.go.dev/container/heap#example-package-IntHeap
type eventQueue []sim.PostSynapticEvent

func (eq eventQueue) Len() int           { return len(eq) }
func (eq eventQueue) Less(i, j int) bool { return eq[i].Time < eq[j].Time }
func (eq eventQueue) Swap(i, j int)      { eq[i], eq[j] = eq[j], eq[i] }

func (eq *eventQueue) Push(x any) {
	*eq = append(*eq, x.(sim.PostSynapticEvent))
}

func (eq *eventQueue) Pop() any {
	old := *eq
	n := len(old)
	item := old[n-1]
	*eq = old[0 : n-1]
	return item
}
