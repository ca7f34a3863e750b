package sim

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalPolicy_Identity(t *testing.T) {
	p := LocalPolicy{}
	assert.Equal(t, 0, p.ID())
	assert.Equal(t, 1, p.Size())

	m, err := p.MinFloat64(3.5)
	require.NoError(t, err)
	assert.Equal(t, 3.5, m)

	g, err := p.AllGatherUint64(9)
	require.NoError(t, err)
	assert.Equal(t, []uint64{9}, g)

	s, err := p.AllGatherSpikes([]Spike{{Source: 1, Time: 2}})
	require.NoError(t, err)
	assert.Equal(t, []Spike{{Source: 1, Time: 2}}, s)
}

func TestGroupPolicy_MinFloat64(t *testing.T) {
	vals := []float64{5.0, 3.0, 7.0}
	results := runOnGroup(t, len(vals), func(p Policy) (float64, error) {
		return p.MinFloat64(vals[p.ID()])
	})
	for rank, got := range results {
		assert.Equalf(t, 3.0, got, "rank %d min", rank)
	}
}

func TestGroupPolicy_AllGatherUint64_RankOrder(t *testing.T) {
	results := runOnGroup(t, 4, func(p Policy) ([]uint64, error) {
		return p.AllGatherUint64(uint64(p.ID() * 10))
	})
	for rank, got := range results {
		assert.Equalf(t, []uint64{0, 10, 20, 30}, got, "rank %d gather", rank)
	}
}

func TestGroupPolicy_AllGatherSpikes_CombinedSetIdentical(t *testing.T) {
	// GIVEN each rank contributes a different number of spikes
	local := [][]Spike{
		{{Source: 0, Time: 1.0}, {Source: 1, Time: 1.5}},
		nil,
		{{Source: 5, Time: 0.5}},
	}

	// WHEN all ranks exchange
	results := runOnGroup(t, len(local), func(p Policy) ([]Spike, error) {
		return p.AllGatherSpikes(local[p.ID()])
	})

	// THEN every rank observes the identical rank-ordered combined sequence
	want := []Spike{{Source: 0, Time: 1.0}, {Source: 1, Time: 1.5}, {Source: 5, Time: 0.5}}
	for rank, got := range results {
		assert.Equalf(t, want, got, "rank %d combined spikes", rank)
	}
}

func TestGroupPolicy_RepeatedRounds(t *testing.T) {
	// Collectives are reusable: many rounds on the same group must not
	// deadlock or leak results across rounds.
	const rounds = 50
	results := runOnGroup(t, 3, func(p Policy) ([]uint64, error) {
		var last []uint64
		for r := 0; r < rounds; r++ {
			out, err := p.AllGatherUint64(uint64(r*10 + p.ID()))
			if err != nil {
				return nil, err
			}
			last = out
		}
		return last, nil
	})
	want := []uint64{490, 491, 492}
	for rank, got := range results {
		assert.Equalf(t, want, got, "rank %d final round", rank)
	}
}

func TestNewPolicyGroup_InvalidSize(t *testing.T) {
	_, err := NewPolicyGroup(0)
	assert.ErrorIs(t, err, ErrUsage)
}
