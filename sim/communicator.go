// Communicator: global addressing, the per-domain spike buffer, and the
// collective exchange that routes spikes between domains once per epoch.
//
// Lifecycle: NewCommunicator assigns global ids, AddConnection populates
// the table, Construct freezes it, then the driver alternates scheduler
// advancement with Exchange until the run completes.

package sim

import (
	"fmt"
	"sort"
	"sync"
)

// ExchangeStats reports what one Exchange call observed and did.
type ExchangeStats struct {
	// Gathered is the number of spikes in the combined global set for the
	// epoch, identical on every domain.
	Gathered int
	// Delivered is the number of events enqueued to this domain's local
	// cell groups.
	Delivered int
}

// Communicator owns the outgoing spike buffer and the per-group inbound
// event queues of one domain. The outgoing side is guarded by a mutex so
// the scheduler's parallel workers may harvest spikes concurrently; the
// inbound queues are written only by Exchange and drained per-group, which
// is race-free because each group drains only its own queue.
type Communicator struct {
	policy Policy
	table  ConnectionTable

	// groupFirst[d] is the first cell gid on domain d; len Size()+1.
	groupFirst []uint64
	// targetBase[d] is the first target id on domain d; len Size()+1.
	targetBase []uint64
	// targetMap[i] is the first global target id of local group i, already
	// rebased; len numLocalGroups+1.
	targetMap []uint64

	queues [][]PostSynapticEvent

	mu        sync.Mutex
	outgoing  []Spike
	numSpikes uint64
}

// NewCommunicator builds the global addressing state for one domain owning
// len(targetCounts) cell groups, where targetCounts[i] is the number of
// synapse targets on local group i. Collective: every domain in the policy
// group must construct its communicator concurrently.
func NewCommunicator(p Policy, targetCounts []int) (*Communicator, error) {
	local, err := MakeIndex(targetCounts)
	if err != nil {
		return nil, fmt.Errorf("indexing synapse targets: %w", err)
	}

	numGroups := len(targetCounts)
	groupFirst, err := GlobalOffsets(p, uint64(numGroups))
	if err != nil {
		return nil, fmt.Errorf("assigning cell gids: %w", err)
	}
	targetBase, err := GlobalOffsets(p, local[numGroups])
	if err != nil {
		return nil, fmt.Errorf("assigning target gids: %w", err)
	}

	targetMap := make([]uint64, len(local))
	base := targetBase[p.ID()]
	for i, off := range local {
		targetMap[i] = base + off
	}

	return &Communicator{
		policy:     p,
		groupFirst: groupFirst,
		targetBase: targetBase,
		targetMap:  targetMap,
		queues:     make([][]PostSynapticEvent, numGroups),
	}, nil
}

// DomainID returns this domain's rank.
func (c *Communicator) DomainID() int { return c.policy.ID() }

// NumDomains returns the number of domains in the run.
func (c *Communicator) NumDomains() int { return c.policy.Size() }

// NumLocalGroups returns the number of cell groups owned by this domain.
func (c *Communicator) NumLocalGroups() int { return len(c.queues) }

// NumGlobalCells returns the total number of cell groups across all domains.
func (c *Communicator) NumGlobalCells() uint64 { return c.groupFirst[len(c.groupFirst)-1] }

// GroupGIDFirst returns the gid of the first cell group on the given
// domain. GroupGIDFirst(NumDomains()) is one past the last gid.
func (c *Communicator) GroupGIDFirst(domain int) GID {
	return GID(c.groupFirst[domain])
}

// IsLocalGroup reports whether gid is owned by this domain.
func (c *Communicator) IsLocalGroup(gid GID) bool {
	d := c.policy.ID()
	return uint64(gid) >= c.groupFirst[d] && uint64(gid) < c.groupFirst[d+1]
}

// GroupLID converts a local gid to its local index. ok is false when gid
// is not owned by this domain.
func (c *Communicator) GroupLID(gid GID) (LocalIndex, bool) {
	if !c.IsLocalGroup(gid) {
		return 0, false
	}
	return LocalIndex(uint64(gid) - c.groupFirst[c.policy.ID()]), true
}

// GroupGIDFromGroupLID returns the global cell id of local group lid.
func (c *Communicator) GroupGIDFromGroupLID(lid LocalIndex) GID {
	return GID(c.groupFirst[c.policy.ID()] + uint64(lid))
}

// TargetGIDFromGroupLID returns the global id of the first synapse target
// on local group lid.
func (c *Communicator) TargetGIDFromGroupLID(lid LocalIndex) TargetID {
	return TargetID(c.targetMap[lid])
}

// AddConnection appends a candidate connection terminating on this domain.
// Must be called before Construct.
func (c *Communicator) AddConnection(con Connection) error {
	return c.table.Add(con)
}

// Construct validates and freezes the connection table. Collective: every
// domain participates in the min-delay reduction. Validation covers the
// endpoint ranges the addressing scheme defined: sources must name an
// existing cell, targets must be local to this domain.
func (c *Communicator) Construct() error {
	d := c.policy.ID()
	for _, con := range c.table.Connections() {
		if uint64(con.Source) >= c.groupFirst[len(c.groupFirst)-1] {
			return fmt.Errorf("%w: connection source gid %d out of range (%d cells)",
				ErrConnectivity, con.Source, c.groupFirst[len(c.groupFirst)-1])
		}
		if uint64(con.Target) < c.targetBase[d] || uint64(con.Target) >= c.targetBase[d+1] {
			return fmt.Errorf("%w: connection target %d not local to domain %d",
				ErrConnectivity, con.Target, d)
		}
	}
	return c.table.Construct(c.policy)
}

// MinDelay returns the network-wide minimum connection delay. Valid only
// after Construct.
func (c *Communicator) MinDelay() float64 { return c.table.MinDelay() }

// AddSpike appends one locally generated spike to the outgoing buffer.
func (c *Communicator) AddSpike(s Spike) {
	c.mu.Lock()
	c.outgoing = append(c.outgoing, s)
	c.mu.Unlock()
}

// AddSpikes appends a batch of locally generated spikes to the outgoing
// buffer. Safe to call from concurrent scheduler workers; the buffer is
// merged under the lock before Exchange reads it.
func (c *Communicator) AddSpikes(spikes []Spike) {
	if len(spikes) == 0 {
		return
	}
	c.mu.Lock()
	c.outgoing = append(c.outgoing, spikes...)
	c.mu.Unlock()
}

// Exchange performs the epoch's collective: it gathers every domain's
// outgoing buffer into one global spike sequence, routes each spike through
// the connection table, and enqueues an event at time spike.Time+Delay for
// every connection whose target lives on this domain. The outgoing buffer
// is cleared and the running spike total advanced.
//
// Exchange blocks until all domains have contributed; it is the only
// synchronization point between domains, and every event it enqueues has a
// delivery time at or beyond the epoch boundary because the epoch length
// never exceeds the minimum delay.
func (c *Communicator) Exchange() (ExchangeStats, error) {
	c.mu.Lock()
	out := c.outgoing
	c.outgoing = nil
	c.mu.Unlock()

	global, err := c.policy.AllGatherSpikes(out)
	if err != nil {
		return ExchangeStats{}, fmt.Errorf("spike exchange: %w", err)
	}
	c.numSpikes += uint64(len(global))

	delivered := 0
	for _, s := range global {
		// A spike whose source has no connections here is legal: it was
		// observed and counted, it just routes nowhere on this domain.
		for _, con := range c.table.ConnectionsFrom(s.Source) {
			lid := c.targetGroupLID(con.Target)
			c.queues[lid] = append(c.queues[lid], PostSynapticEvent{
				Target: con.Target,
				Time:   s.Time + con.Delay,
				Weight: con.Weight,
			})
			delivered++
		}
	}
	return ExchangeStats{Gathered: len(global), Delivered: delivered}, nil
}

// targetGroupLID maps a local target id to the owning local group via the
// target prefix map.
func (c *Communicator) targetGroupLID(target TargetID) LocalIndex {
	n := len(c.queues)
	i := sort.Search(n, func(i int) bool { return c.targetMap[i+1] > uint64(target) })
	return LocalIndex(i)
}

// Queue returns the pending inbound events of local group lid without
// draining them.
func (c *Communicator) Queue(lid LocalIndex) []PostSynapticEvent {
	return c.queues[lid]
}

// TakeQueue drains and returns the pending inbound events of local group
// lid. Distinct lids may be drained concurrently.
func (c *Communicator) TakeQueue(lid LocalIndex) []PostSynapticEvent {
	evs := c.queues[lid]
	c.queues[lid] = nil
	return evs
}

// NumSpikes returns the exact, monotonically increasing count of spikes
// observed in all exchanges so far. Identical on every domain.
func (c *Communicator) NumSpikes() uint64 { return c.numSpikes }
