// Abstract collective-communication capability.
//
// A simulation run is split across domains: independent workers that own a
// disjoint slice of the network and coordinate only through collective
// operations. The engine never talks to a transport directly; it receives a
// Policy as an explicit capability, which keeps domain decomposition
// deterministic and lets tests drive multiple domains in-process.

package sim

// Policy is the collective contract consumed by the Communicator and the
// Driver. Every method is a collective: all domains in the group must call
// it the same number of times, in the same order. A call blocks until the
// whole group has contributed.
//
// Determinism requirement: ID() assigns dense ranks 0..Size()-1 agreed on
// by every domain before any collective runs; gathered results are always
// ordered by rank.
type Policy interface {
	// ID returns this domain's rank within the group.
	ID() int

	// Size returns the number of domains in the group.
	Size() int

	// Name identifies the transport for banners and logs.
	Name() string

	// MinFloat64 returns the minimum of x over all domains.
	MinFloat64(x float64) (float64, error)

	// AllGatherUint64 returns every domain's x, indexed by rank.
	AllGatherUint64(x uint64) ([]uint64, error)

	// AllGatherSpikes returns the concatenation of every domain's local
	// spikes in rank order. Every domain observes the identical sequence.
	AllGatherSpikes(local []Spike) ([]Spike, error)
}
