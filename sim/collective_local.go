package sim

// LocalPolicy is the single-domain collective: every operation is the
// identity. It is the default transport for serial runs.
type LocalPolicy struct{}

func (LocalPolicy) ID() int      { return 0 }
func (LocalPolicy) Size() int    { return 1 }
func (LocalPolicy) Name() string { return "serial" }

func (LocalPolicy) MinFloat64(x float64) (float64, error) {
	return x, nil
}

func (LocalPolicy) AllGatherUint64(x uint64) ([]uint64, error) {
	return []uint64{x}, nil
}

func (LocalPolicy) AllGatherSpikes(local []Spike) ([]Spike, error) {
	out := make([]Spike, len(local))
	copy(out, local)
	return out, nil
}
