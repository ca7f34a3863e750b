package sim

import "fmt"

// Config holds the scenario parameters for one run. All domains must be
// given an identical Config, otherwise global addressing diverges.
type Config struct {
	Cells           int     // total cells across all domains (must be > 0)
	SynapsesPerCell int     // fan-in per cell (must be >= 0)
	AllToAll        bool    // true = connect to cells 0..n in order, false = random sources
	MinDelay        float64 // base synaptic delay in ms (jitter is added on top; must be > 0)
	WeightPerCell   float64 // total synaptic weight per cell, split across its synapses
	TFinal          float64 // simulated end time in ms (must be > 0)
	Dt              float64 // integrator step in ms (must be > 0)
	SampleDt        float64 // probe sampling interval in ms (0 disables probes)
	Workers         int     // parallel advance width per domain (0 = unbounded)
	Seed            int64   // offset mixed into each cell's gid-derived RNG seed
}

// DefaultConfig returns the standard demo scenario.
func DefaultConfig() Config {
	return Config{
		Cells:           100,
		SynapsesPerCell: 1,
		MinDelay:        20.0,
		WeightPerCell:   0.3,
		TFinal:          100.0,
		Dt:              0.025,
		SampleDt:        0.1,
	}
}

// Validate rejects configurations the engine cannot run.
func (c Config) Validate() error {
	if c.Cells <= 0 {
		return fmt.Errorf("%w: cells must be positive, got %d", ErrUsage, c.Cells)
	}
	if c.SynapsesPerCell < 0 {
		return fmt.Errorf("%w: synapses per cell must be non-negative, got %d", ErrUsage, c.SynapsesPerCell)
	}
	if c.SynapsesPerCell >= c.Cells && c.SynapsesPerCell > 0 {
		// Self-connections are skipped, so a cell can draw from at most
		// Cells-1 distinct sources in all-to-all mode.
		return fmt.Errorf("%w: %d synapses per cell needs more than %d cells",
			ErrUsage, c.SynapsesPerCell, c.Cells)
	}
	if c.MinDelay <= 0 {
		return fmt.Errorf("%w: min delay must be positive, got %g", ErrUsage, c.MinDelay)
	}
	if c.TFinal <= 0 {
		return fmt.Errorf("%w: tfinal must be positive, got %g", ErrUsage, c.TFinal)
	}
	if c.Dt <= 0 {
		return fmt.Errorf("%w: dt must be positive, got %g", ErrUsage, c.Dt)
	}
	if c.SampleDt < 0 {
		return fmt.Errorf("%w: sample dt must be non-negative, got %g", ErrUsage, c.SampleDt)
	}
	if c.Workers < 0 {
		return fmt.Errorf("%w: workers must be non-negative, got %d", ErrUsage, c.Workers)
	}
	return nil
}
