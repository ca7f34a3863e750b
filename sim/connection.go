// Connection table: the per-domain synaptic connectivity used to route
// gathered spikes to local targets.

package sim

import (
	"fmt"
	"math"
	"sort"
)

// Connection describes one synapse: a spike generated on Source is observed
// on Target no earlier than Delay after its generation time.
type Connection struct {
	Source GID
	Target TargetID
	Weight float64
	Delay  float64
}

// ConnectionTable accumulates candidate connections during setup and, once
// constructed, answers per-source range lookups. Construct must be called
// exactly once; afterwards the table is read-only and safe to share across
// worker goroutines.
type ConnectionTable struct {
	cons        []Connection
	minDelay    float64
	constructed bool
}

// Add appends a candidate connection. Calling Add after Construct is a
// usage error.
func (t *ConnectionTable) Add(c Connection) error {
	if t.constructed {
		return fmt.Errorf("%w: add connection after table construction", ErrUsage)
	}
	t.cons = append(t.cons, c)
	return nil
}

// Len returns the number of connections in the table.
func (t *ConnectionTable) Len() int { return len(t.cons) }

// Construct validates delays, sorts connections by source for contiguous
// range lookup, and computes the network-wide minimum delay through the
// collective policy. The minimum is a global property: it bounds the epoch
// length on every domain, including domains that hold no connections.
func (t *ConnectionTable) Construct(p Policy) error {
	if t.constructed {
		return fmt.Errorf("%w: connection table constructed twice", ErrUsage)
	}

	localMin := math.Inf(1)
	for _, c := range t.cons {
		if c.Delay < 0 {
			return fmt.Errorf("%w: negative delay %g on connection %d -> %d",
				ErrConnectivity, c.Delay, c.Source, c.Target)
		}
		if c.Delay < localMin {
			localMin = c.Delay
		}
	}

	sort.SliceStable(t.cons, func(i, j int) bool {
		return t.cons[i].Source < t.cons[j].Source
	})

	globalMin, err := p.MinFloat64(localMin)
	if err != nil {
		return fmt.Errorf("reducing min delay: %w", err)
	}
	// A zero min delay would make the epoch length zero and the driver loop
	// non-terminating. +Inf is fine: it means no connections anywhere, and
	// the driver clamps the epoch to the remaining simulation time.
	if globalMin <= 0 {
		return fmt.Errorf("%w: network min delay %g must be positive", ErrConnectivity, globalMin)
	}

	t.minDelay = globalMin
	t.constructed = true
	return nil
}

// MinDelay returns the global minimum delay computed by Construct.
func (t *ConnectionTable) MinDelay() float64 { return t.minDelay }

// ConnectionsFrom returns the connections whose source is src, in
// source-sorted order. O(log n) to locate the range, O(k) to return it.
// The returned slice aliases the table and must not be mutated.
func (t *ConnectionTable) ConnectionsFrom(src GID) []Connection {
	lo := sort.Search(len(t.cons), func(i int) bool { return t.cons[i].Source >= src })
	hi := lo
	for hi < len(t.cons) && t.cons[hi].Source == src {
		hi++
	}
	return t.cons[lo:hi]
}

// Connections returns the full table contents. Read-only after Construct.
func (t *ConnectionTable) Connections() []Connection { return t.cons }
