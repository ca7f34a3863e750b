package cell

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"github.com/kanduri/arbor/sim"
)

// TestRingAcrossTwoDomains runs a 4-cell ring split over two in-process
// domains: cell i excites cell (i+1) mod 4 with a delay equal to one epoch.
// A single seeded spike on gid 0 propagates around the ring, crossing the
// domain boundary twice, and both domains must observe the same global
// spike count.
func TestRingAcrossTwoDomains(t *testing.T) {
	const (
		cells  = 4
		weight = 30.0
		delay  = 5.0
		tfinal = 20.0
		dt     = 0.25
	)

	policies, err := sim.NewPolicyGroup(2)
	require.NoError(t, err)

	counts := make([]uint64, 2)
	var eg errgroup.Group
	for rank := range policies {
		p := policies[rank]
		eg.Go(func() error {
			groups := []sim.CellGroup{
				NewLIF(DefaultLIFParams(), 1),
				NewLIF(DefaultLIFParams(), 1),
			}
			m, err := sim.NewModel(p, groups, 0, nil)
			if err != nil {
				return err
			}

			// One target per cell, so target ids coincide with gids. Each
			// domain holds the connections terminating on its own cells.
			first := uint64(m.Comm.GroupGIDFirst(p.ID()))
			for lid := range groups {
				tgt := first + uint64(lid)
				src := (tgt + cells - 1) % cells
				err := m.Comm.AddConnection(sim.Connection{
					Source: sim.GID(src),
					Target: sim.TargetID(tgt),
					Weight: weight,
					Delay:  delay,
				})
				if err != nil {
					return err
				}
			}
			if err := m.Construct(); err != nil {
				return err
			}

			if p.ID() == 0 {
				m.Comm.AddSpike(sim.Spike{Source: 0, Time: 0})
			}
			if err := m.Run(tfinal, dt); err != nil {
				return err
			}
			counts[p.ID()] = m.Comm.NumSpikes()
			return nil
		})
	}
	require.NoError(t, eg.Wait())

	assert.Equal(t, counts[0], counts[1], "domains must agree on the global spike count")
	assert.Equal(t, uint64(4), counts[0],
		"the seed plus one spike per downstream epoch: the ring fires once per hop")
}
