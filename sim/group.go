package sim

// CellGroup is the contract the engine consumes from a numerical
// integrator: the smallest independently-advanced unit within a domain.
// Implementations live outside the engine (see sim/cell for the built-in
// ones); the engine only needs counts for addressing, event injection, and
// the advance/harvest cycle.
//
// Groups share no mutable state with each other. All methods are called
// from a single goroutine at a time, but different groups are advanced
// concurrently within one epoch.
type CellGroup interface {
	// NumTargets returns the number of synapse targets on this group,
	// consumed once during global id assignment.
	NumTargets() int

	// NumSources returns the number of spike sources on this group,
	// consumed once during global id assignment.
	NumSources() int

	// SetGIDs installs the group's first global spike-source id and first
	// global synapse-target id after domain decomposition.
	SetGIDs(firstSource GID, firstTarget TargetID)

	// EnqueueEvents hands inbound events to the group. Events may arrive
	// in any order; the group delivers each at its event time.
	EnqueueEvents(events []PostSynapticEvent)

	// Advance integrates the group's state from its current local time to
	// tEnd with step dt. A numerical failure is fatal for the run.
	Advance(tEnd, dt float64) error

	// Spikes returns the spikes generated by the most recent Advance.
	Spikes() []Spike

	// ClearSpikes discards the group's emitted-spike buffer.
	ClearSpikes()
}
