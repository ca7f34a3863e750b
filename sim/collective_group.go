// In-process multi-domain collective.
//
// Each domain runs as its own goroutine holding one GroupPolicy handle; the
// shared groupState implements every collective as one barrier round: each
// rank deposits its contribution into a per-rank slot, the last arriver
// combines the slots into a published result and releases the generation,
// and every rank reads the result before leaving the round. Because a rank
// cannot enter round n+1 before finishing round n, results are never
// overwritten while a straggler is still reading them.

package sim

import (
	"fmt"
	"sync"
)

// GroupPolicy is one domain's handle on an in-process collective group.
// Handles are created together by NewPolicyGroup and share one barrier.
type GroupPolicy struct {
	rank int
	g    *groupState
}

type groupState struct {
	mu   sync.Mutex
	cond *sync.Cond

	size       int
	arrived    int
	generation uint64

	u64Slots   []uint64
	f64Slots   []float64
	spikeSlots [][]Spike

	u64Out   []uint64
	f64Out   float64
	spikeOut []Spike
}

// NewPolicyGroup creates size connected GroupPolicy handles with dense
// ranks 0..size-1. Every handle must be driven by its own goroutine;
// collectives deadlock if a rank never calls in.
func NewPolicyGroup(size int) ([]*GroupPolicy, error) {
	if size < 1 {
		return nil, fmt.Errorf("%w: policy group size %d", ErrUsage, size)
	}
	g := &groupState{
		size:       size,
		u64Slots:   make([]uint64, size),
		f64Slots:   make([]float64, size),
		spikeSlots: make([][]Spike, size),
	}
	g.cond = sync.NewCond(&g.mu)

	policies := make([]*GroupPolicy, size)
	for rank := range policies {
		policies[rank] = &GroupPolicy{rank: rank, g: g}
	}
	return policies, nil
}

func (p *GroupPolicy) ID() int   { return p.rank }
func (p *GroupPolicy) Size() int { return p.g.size }

func (p *GroupPolicy) Name() string {
	return fmt.Sprintf("in-process group of %d", p.g.size)
}

// round runs one collective: put deposits this rank's contribution,
// combine (run once, by the last arriver) folds the slots into the
// published output, and get reads the output. All three run under the
// group lock.
func (g *groupState) round(put, combine, get func()) {
	g.mu.Lock()
	defer g.mu.Unlock()

	gen := g.generation
	put()
	g.arrived++
	if g.arrived == g.size {
		combine()
		g.arrived = 0
		g.generation++
		g.cond.Broadcast()
	} else {
		for gen == g.generation {
			g.cond.Wait()
		}
	}
	get()
}

func (p *GroupPolicy) MinFloat64(x float64) (float64, error) {
	var out float64
	p.g.round(
		func() { p.g.f64Slots[p.rank] = x },
		func() {
			m := p.g.f64Slots[0]
			for _, v := range p.g.f64Slots[1:] {
				if v < m {
					m = v
				}
			}
			p.g.f64Out = m
		},
		func() { out = p.g.f64Out },
	)
	return out, nil
}

func (p *GroupPolicy) AllGatherUint64(x uint64) ([]uint64, error) {
	out := make([]uint64, p.g.size)
	p.g.round(
		func() { p.g.u64Slots[p.rank] = x },
		func() {
			p.g.u64Out = make([]uint64, p.g.size)
			copy(p.g.u64Out, p.g.u64Slots)
		},
		func() { copy(out, p.g.u64Out) },
	)
	return out, nil
}

func (p *GroupPolicy) AllGatherSpikes(local []Spike) ([]Spike, error) {
	var out []Spike
	p.g.round(
		func() { p.g.spikeSlots[p.rank] = local },
		func() {
			var total int
			for _, s := range p.g.spikeSlots {
				total += len(s)
			}
			combined := make([]Spike, 0, total)
			for _, s := range p.g.spikeSlots {
				combined = append(combined, s...)
			}
			p.g.spikeOut = combined
		},
		func() {
			out = make([]Spike, len(p.g.spikeOut))
			copy(out, p.g.spikeOut)
		},
	)
	return out, nil
}
