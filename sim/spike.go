// Core identifier and event types shared across the simulation engine.
//
// Cells and synapse targets live in two separate global numbering spaces:
// a cell-group id (GID) names a spike source, a TargetID names a synapse
// endpoint. Both are densely assigned in domain order during setup, so a
// (domain, local index) pair maps to exactly one GID and back.

package sim

// GID is a globally unique cell-group identifier, densely assigned across
// all domains in domain order.
type GID uint64

// TargetID is a globally unique synapse-target identifier. Targets have
// their own numbering space because a cell typically carries many synapses.
type TargetID uint64

// LocalIndex is the index of a cell group within its owning domain's
// local collection.
type LocalIndex int

// Spike records a threshold crossing on a source cell group. Spikes are
// produced only by local advancement and are immutable once created.
type Spike struct {
	Source GID     `json:"source"`
	Time   float64 `json:"time"`
}

// PostSynapticEvent is a routed spike: the weight of one connection,
// scheduled for delivery on a target synapse at a fixed simulation time.
type PostSynapticEvent struct {
	Target TargetID
	Time   float64
	Weight float64
}
