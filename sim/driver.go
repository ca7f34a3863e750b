// Simulation driver: the outer bulk-synchronous time-stepping loop.
//
// The driver alternates two phases per epoch: advance all local cell
// groups in parallel over [t, t+delta), then run one collective exchange.
// delta never exceeds the network minimum delay, so no spike generated
// inside an epoch can affect any group before the epoch ends; that single
// inequality is what makes causal ordering across independently-advancing
// domains trivially correct.

package sim

import (
	"fmt"
	"math"
	"time"

	"github.com/sirupsen/logrus"
)

type runState int

const (
	stateSetup runState = iota
	stateStepping
	stateDone
)

// Model owns one domain's slice of the simulation: the communicator, the
// local cell groups, and the scheduler that advances them.
type Model struct {
	Comm   *Communicator
	Groups []CellGroup
	Sched  Scheduler

	metrics *Metrics
	state   runState
	t       float64
}

// NewModel performs domain decomposition bookkeeping for the given local
// groups: it builds the communicator from per-group target counts and
// installs global source and target ids on every group. Collective: all
// domains must call NewModel concurrently.
//
// The returned model is in the setup state; populate connectivity through
// Comm.AddConnection, then call Construct.
func NewModel(p Policy, groups []CellGroup, workers int, metrics *Metrics) (*Model, error) {
	targetCounts := make([]int, len(groups))
	sourceCounts := make([]int, len(groups))
	for i, g := range groups {
		targetCounts[i] = g.NumTargets()
		sourceCounts[i] = g.NumSources()
	}

	comm, err := NewCommunicator(p, targetCounts)
	if err != nil {
		return nil, err
	}

	sourceMap, err := MakeIndex(sourceCounts)
	if err != nil {
		return nil, fmt.Errorf("indexing spike sources: %w", err)
	}
	sourceBase, err := GlobalOffsets(p, sourceMap[len(groups)])
	if err != nil {
		return nil, fmt.Errorf("assigning source gids: %w", err)
	}

	for i, g := range groups {
		g.SetGIDs(
			GID(sourceBase[p.ID()]+sourceMap[i]),
			comm.TargetGIDFromGroupLID(LocalIndex(i)),
		)
	}

	if metrics != nil {
		metrics.SetLocalGroups(len(groups))
	}

	return &Model{
		Comm:    comm,
		Groups:  groups,
		Sched:   Scheduler{Workers: workers},
		metrics: metrics,
	}, nil
}

// Construct freezes the connection table and moves the model from setup to
// stepping. Collective.
func (m *Model) Construct() error {
	if m.state != stateSetup {
		return fmt.Errorf("%w: model constructed twice", ErrUsage)
	}
	if err := m.Comm.Construct(); err != nil {
		return err
	}
	m.state = stateStepping
	return nil
}

// Time returns the model's current simulated time.
func (m *Model) Time() float64 { return m.t }

// Run steps the simulation to tfinal with integrator step dt. The epoch
// length is min(minDelay, tfinal-t), so the loop performs exactly
// ceil(tfinal/minDelay) epochs, the last possibly shorter, and lands on
// tfinal with no overshoot.
func (m *Model) Run(tfinal, dt float64) error {
	if m.state == stateSetup {
		return fmt.Errorf("%w: run before model construction", ErrUsage)
	}
	if m.state == stateDone {
		return fmt.Errorf("%w: model already ran to completion", ErrUsage)
	}

	minDelay := m.Comm.MinDelay()
	epoch := 0
	for m.t < tfinal {
		delta := math.Min(minDelay, tfinal-m.t)
		tEnd := m.t + delta
		start := time.Now()

		if err := m.Sched.Advance(m.Groups, m.Comm, tEnd, dt); err != nil {
			return err
		}
		stats, err := m.Comm.Exchange()
		if err != nil {
			return err
		}

		if m.metrics != nil {
			m.metrics.ObserveEpoch(stats, time.Since(start))
		}
		logrus.Debugf("[domain %d] epoch %d: t=[%g, %g) spikes=%d events=%d",
			m.Comm.DomainID(), epoch, m.t, tEnd, stats.Gathered, stats.Delivered)

		m.t = tEnd
		epoch++
	}
	m.state = stateDone
	return nil
}
