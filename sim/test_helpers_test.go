package sim

import (
	"testing"

	"golang.org/x/sync/errgroup"
)

// runOnGroup drives fn concurrently on every rank of a fresh in-process
// policy group and returns the per-rank results. Collective operations
// inside fn therefore behave as they would across real domains.
func runOnGroup[T any](t *testing.T, size int, fn func(p Policy) (T, error)) []T {
	t.Helper()

	policies, err := NewPolicyGroup(size)
	if err != nil {
		t.Fatalf("NewPolicyGroup(%d): %v", size, err)
	}

	results := make([]T, size)
	var eg errgroup.Group
	for rank, p := range policies {
		eg.Go(func() error {
			out, err := fn(p)
			results[rank] = out
			return err
		})
	}
	if err := eg.Wait(); err != nil {
		t.Fatalf("group run: %v", err)
	}
	return results
}
