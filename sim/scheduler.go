// Cell-group scheduler: the fork-join parallel phase of one epoch.

package sim

import (
	"fmt"

	"golang.org/x/sync/errgroup"
)

// Scheduler advances all locally-owned cell groups over one epoch. Groups
// are independent, so they are processed as a fork-join task set with no
// inter-task ordering; Workers bounds the concurrency (0 means unbounded).
type Scheduler struct {
	Workers int
}

// Advance runs one epoch for every group: drain the group's inbound queue,
// integrate to tEnd, then forward freshly generated spikes to the
// communicator's outgoing buffer. The first integrator error aborts the
// epoch and is returned with the offending group's identity.
func (s *Scheduler) Advance(groups []CellGroup, comm *Communicator, tEnd, dt float64) error {
	var eg errgroup.Group
	if s.Workers > 0 {
		eg.SetLimit(s.Workers)
	}
	for lid, g := range groups {
		eg.Go(func() error {
			g.EnqueueEvents(comm.TakeQueue(LocalIndex(lid)))
			if err := g.Advance(tEnd, dt); err != nil {
				return fmt.Errorf("advancing group lid %d (gid %d): %w",
					lid, comm.GroupGIDFromGroupLID(LocalIndex(lid)), err)
			}
			comm.AddSpikes(g.Spikes())
			g.ClearSpikes()
			return nil
		})
	}
	return eg.Wait()
}
