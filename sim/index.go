// Index/domain mapping: the deterministic global addressing scheme.
//
// Per-domain addressing is a prefix sum over per-unit counts; global
// addressing adds a per-domain base obtained by prefix-summing the gathered
// per-domain totals in rank order. Both cells and synapse targets are
// numbered this way, in separate spaces.

package sim

import "fmt"

// MakeIndex converts per-unit counts into prefix-sum offsets of length
// len(counts)+1: entry k is the sum of all counts before unit k, the final
// entry is the total. Negative counts are rejected.
func MakeIndex(counts []int) ([]uint64, error) {
	offsets := make([]uint64, len(counts)+1)
	var sum uint64
	for i, c := range counts {
		if c < 0 {
			return nil, fmt.Errorf("%w: negative count %d for unit %d", ErrAddressing, c, i)
		}
		offsets[i] = sum
		sum += uint64(c)
	}
	offsets[len(counts)] = sum
	return offsets, nil
}

// GlobalOffsets gathers every domain's local total and returns the global
// base-offset table of length p.Size()+1: entry d is the sum of totals of
// all domains with rank below d, so entry p.ID() is this domain's base and
// the final entry is the global total. Identical on all domains.
func GlobalOffsets(p Policy, localTotal uint64) ([]uint64, error) {
	totals, err := p.AllGatherUint64(localTotal)
	if err != nil {
		return nil, fmt.Errorf("gathering domain totals: %w", err)
	}
	if len(totals) != p.Size() {
		return nil, fmt.Errorf("%w: gathered %d totals from %d domains", ErrAddressing, len(totals), p.Size())
	}
	bases := make([]uint64, len(totals)+1)
	for d, t := range totals {
		bases[d+1] = bases[d] + t
	}
	return bases, nil
}
