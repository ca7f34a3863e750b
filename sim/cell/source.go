package cell

import "github.com/kanduri/arbor/sim"

// SpikeSource is a cell group that fires on a fixed schedule and carries
// no synapse targets. It models external drive: its spikes enter the
// exchange like any other cell's, but nothing can be delivered to it.
type SpikeSource struct {
	interval float64
	next     float64

	source sim.GID
	t      float64
	spikes []sim.Spike
}

// NewSpikeSource creates a source firing at start, start+interval, ...
func NewSpikeSource(start, interval float64) *SpikeSource {
	return &SpikeSource{interval: interval, next: start}
}

func (s *SpikeSource) NumTargets() int { return 0 }
func (s *SpikeSource) NumSources() int { return 1 }

func (s *SpikeSource) SetGIDs(firstSource sim.GID, _ sim.TargetID) {
	s.source = firstSource
}

// EnqueueEvents drops all events: a source has no synapses.
func (s *SpikeSource) EnqueueEvents([]sim.PostSynapticEvent) {}

// Advance emits every scheduled spike in [current time, tEnd).
func (s *SpikeSource) Advance(tEnd, _ float64) error {
	for s.next < tEnd {
		s.spikes = append(s.spikes, sim.Spike{Source: s.source, Time: s.next})
		s.next += s.interval
	}
	s.t = tEnd
	return nil
}

func (s *SpikeSource) Spikes() []sim.Spike { return s.spikes }
func (s *SpikeSource) ClearSpikes()        { s.spikes = s.spikes[:0] }
