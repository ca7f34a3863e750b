package sim

import (
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubGroup is a scripted CellGroup: it emits pre-planned spikes when the
// epoch covering their time is advanced and records everything the engine
// does to it.
type stubGroup struct {
	mu sync.Mutex

	targets int
	sources int

	source      GID
	firstTarget TargetID

	t      float64
	epochs []float64 // tEnd of every Advance call

	// enqueued records (event time, group-local time at enqueue) pairs so
	// tests can assert events never arrive after their delivery time.
	enqueued [][2]float64

	planned []Spike // emitted once their time falls inside an epoch
	spikes  []Spike

	failWith error
}

func (g *stubGroup) NumTargets() int { return g.targets }
func (g *stubGroup) NumSources() int { return g.sources }

func (g *stubGroup) SetGIDs(source GID, firstTarget TargetID) {
	g.source = source
	g.firstTarget = firstTarget
}

func (g *stubGroup) EnqueueEvents(events []PostSynapticEvent) {
	g.mu.Lock()
	defer g.mu.Unlock()
	for _, ev := range events {
		g.enqueued = append(g.enqueued, [2]float64{ev.Time, g.t})
	}
}

func (g *stubGroup) Advance(tEnd, dt float64) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.failWith != nil {
		return g.failWith
	}
	g.epochs = append(g.epochs, tEnd)
	for _, s := range g.planned {
		if s.Time >= g.t && s.Time < tEnd {
			g.spikes = append(g.spikes, s)
		}
	}
	g.t = tEnd
	return nil
}

func (g *stubGroup) Spikes() []Spike {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := make([]Spike, len(g.spikes))
	copy(out, g.spikes)
	return out
}

func (g *stubGroup) ClearSpikes() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.spikes = nil
}

func TestModel_EpochScheduleLandsExactlyOnTFinal(t *testing.T) {
	// GIVEN tfinal=17 and a network min delay of 5
	g := &stubGroup{targets: 1, sources: 1}
	m, err := NewModel(LocalPolicy{}, []CellGroup{g}, 0, nil)
	require.NoError(t, err)
	require.NoError(t, m.Comm.AddConnection(Connection{Source: 0, Target: 0, Weight: 1, Delay: 5}))
	require.NoError(t, m.Construct())

	// WHEN the model runs
	require.NoError(t, m.Run(17.0, 1.0))

	// THEN the driver performed epochs of length 5, 5, 5, 2 and landed on
	// t=17 exactly
	assert.Equal(t, []float64{5, 10, 15, 17}, g.epochs)
	assert.Equal(t, 17.0, m.Time())
}

func TestModel_RunBeforeConstructIsUsageError(t *testing.T) {
	g := &stubGroup{targets: 0, sources: 1}
	m, err := NewModel(LocalPolicy{}, []CellGroup{g}, 0, nil)
	require.NoError(t, err)

	assert.ErrorIs(t, m.Run(1, 1), ErrUsage)
}

func TestModel_DoubleConstructAndRerunAreUsageErrors(t *testing.T) {
	g := &stubGroup{targets: 0, sources: 1}
	m, err := NewModel(LocalPolicy{}, []CellGroup{g}, 0, nil)
	require.NoError(t, err)
	require.NoError(t, m.Construct())

	assert.ErrorIs(t, m.Construct(), ErrUsage)

	require.NoError(t, m.Run(1, 1))
	assert.ErrorIs(t, m.Run(1, 1), ErrUsage)
}

func TestModel_CausalityEventsNeverArriveLate(t *testing.T) {
	// GIVEN cell 0 spiking at t=1 with a delay-5 connection onto cell 1
	src := &stubGroup{targets: 0, sources: 1, planned: []Spike{{Source: 0, Time: 1.0}}}
	dst := &stubGroup{targets: 1, sources: 1}
	m, err := NewModel(LocalPolicy{}, []CellGroup{src, dst}, 0, nil)
	require.NoError(t, err)
	require.NoError(t, m.Comm.AddConnection(Connection{Source: 0, Target: 0, Weight: 0.5, Delay: 5}))
	require.NoError(t, m.Construct())

	// WHEN the model runs past the delivery time
	require.NoError(t, m.Run(12.0, 1.0))

	// THEN the event arrived with delivery time exactly 1+5, and at the
	// moment of enqueue the destination had not yet advanced past it
	require.Len(t, dst.enqueued, 1)
	assert.Equal(t, 6.0, dst.enqueued[0][0])
	assert.LessOrEqual(t, dst.enqueued[0][1], 6.0,
		"event enqueued after the group advanced past its delivery time")
	assert.Equal(t, uint64(1), m.Comm.NumSpikes())
}

func TestModel_IntegratorFailureAbortsRunWithGroupIdentity(t *testing.T) {
	boom := errors.New("step size underflow")
	bad := &stubGroup{targets: 1, sources: 1, failWith: boom}
	m, err := NewModel(LocalPolicy{}, []CellGroup{bad}, 0, nil)
	require.NoError(t, err)
	require.NoError(t, m.Comm.AddConnection(Connection{Source: 0, Target: 0, Weight: 1, Delay: 2}))
	require.NoError(t, m.Construct())

	err = m.Run(10, 1)
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "gid 0")
}

func TestModel_TwoDomainsAgreeOnSpikeTotals(t *testing.T) {
	// GIVEN two domains, each owning one cell that spikes once, cross-wired
	// with delay 5
	results := runOnGroup(t, 2, func(p Policy) (*Model, error) {
		g := &stubGroup{
			targets: 1,
			sources: 1,
			planned: []Spike{{Source: GID(p.ID()), Time: float64(p.ID()) + 0.5}},
		}
		m, err := NewModel(p, []CellGroup{g}, 0, nil)
		if err != nil {
			return nil, err
		}
		// Listen to the other domain's cell.
		other := GID(1 - p.ID())
		target := m.Comm.TargetGIDFromGroupLID(0)
		if err := m.Comm.AddConnection(Connection{Source: other, Target: target, Weight: 1, Delay: 5}); err != nil {
			return nil, err
		}
		if err := m.Construct(); err != nil {
			return nil, err
		}
		if err := m.Run(10, 1); err != nil {
			return nil, err
		}
		return m, nil
	})

	// THEN both domains observed both spikes
	assert.Equal(t, uint64(2), results[0].Comm.NumSpikes())
	assert.Equal(t, uint64(2), results[1].Comm.NumSpikes())
}
