// Network construction: contiguous domain partitioning and synaptic
// wiring. Connectivity is seeded per cell gid so the same scenario builds
// the same network regardless of how many domains it is split across.

package sim

import (
	"fmt"
	"math/rand"
)

// delayJitterRate shapes the exponential jitter added to every
// connection's base delay.
const delayJitterRate = 0.75

// GroupFactory builds the local cell group with local index lid. The
// factory decides the integrator kind and its synapse count.
type GroupFactory func(lid int, cfg Config) CellGroup

// PartitionSize returns the number of cells domain rank owns out of total
// cells split contiguously over domains, with the remainder spread over
// the low ranks.
func PartitionSize(total, domains, rank int) int {
	n := total / domains
	if rank < total%domains {
		n++
	}
	return n
}

// BuildModel assembles one domain's model: it instantiates the local cell
// groups, assigns global ids, wires the synaptic connectivity terminating
// on this domain, and constructs the communicator. Collective: every
// domain must call BuildModel concurrently with an identical cfg.
//
// Each cell's fan-in is drawn from an RNG seeded with the cell's gid (plus
// cfg.Seed), mirroring the reference network: either strict all-to-all
// order or uniformly random sources, never the cell itself. The per-cell
// weight budget is split evenly across its synapses, and every delay gets
// exponential jitter on top of the base, so cfg.MinDelay is the exact
// network-wide minimum.
func BuildModel(p Policy, cfg Config, factory GroupFactory, metrics *Metrics) (*Model, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	nlocal := PartitionSize(cfg.Cells, p.Size(), p.ID())
	groups := make([]CellGroup, nlocal)
	for i := range groups {
		groups[i] = factory(i, cfg)
	}

	m, err := NewModel(p, groups, cfg.Workers, metrics)
	if err != nil {
		return nil, err
	}

	var weight float64
	if cfg.SynapsesPerCell > 0 {
		weight = cfg.WeightPerCell / float64(cfg.SynapsesPerCell)
	}

	for lid := 0; lid < nlocal; lid++ {
		nsyn := groups[lid].NumTargets()
		if nsyn == 0 {
			continue
		}
		target := m.Comm.TargetGIDFromGroupLID(LocalIndex(lid))
		gid := m.Comm.GroupGIDFromGroupLID(LocalIndex(lid))
		rng := rand.New(rand.NewSource(cfg.Seed + int64(gid)))

		added := 0
		for i := 0; added < nsyn; i++ {
			source := GID(i)
			if !cfg.AllToAll {
				source = GID(rng.Intn(cfg.Cells))
			}
			if source == gid {
				continue
			}
			if err := m.Comm.AddConnection(Connection{
				Source: source,
				Target: target,
				Weight: weight,
				Delay:  cfg.MinDelay + rng.ExpFloat64()/delayJitterRate,
			}); err != nil {
				return nil, err
			}
			target++
			added++
		}
	}

	if err := m.Construct(); err != nil {
		return nil, err
	}
	return m, nil
}

// SeedSpikes injects a spike at t=0 for every stride-th cell owned by this
// domain, kicking off activity in an otherwise silent network.
func SeedSpikes(comm *Communicator, stride int) error {
	if stride <= 0 {
		return fmt.Errorf("%w: seed stride must be positive, got %d", ErrUsage, stride)
	}
	first := uint64(comm.GroupGIDFirst(comm.DomainID()))
	if rem := first % uint64(stride); rem != 0 {
		first += uint64(stride) - rem
	}
	last := uint64(comm.GroupGIDFirst(comm.DomainID() + 1))
	for gid := first; gid < last; gid += uint64(stride) {
		comm.AddSpike(Spike{Source: GID(gid), Time: 0})
	}
	return nil
}
