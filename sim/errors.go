package sim

import "errors"

// Error kinds surfaced by the engine. All of them are unrecoverable at the
// point of detection: a bulk-synchronous run cannot locally repair a
// divergence in global state, so callers are expected to abort the run.
var (
	// ErrUsage marks a programming error in API call ordering, such as
	// adding connections after the table has been constructed.
	ErrUsage = errors.New("usage error")

	// ErrConnectivity marks an invalid connection, such as a negative delay
	// or an out-of-range endpoint reference.
	ErrConnectivity = errors.New("connectivity error")

	// ErrAddressing marks an inconsistent global id assignment across
	// domains, detected during setup.
	ErrAddressing = errors.New("addressing error")

	// ErrIntegrator marks a numerical failure inside a cell group's
	// advancement. The wrapping error carries the offending group.
	ErrIntegrator = errors.New("integrator error")
)
