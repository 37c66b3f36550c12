package dpm

import (
	"errors"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDomain(t *testing.T) {
	d := Domain([]int{7, 4}, 3)
	assert.Equal(t, []Index{{0, 0}, {0, 3}, {1, 0}}, d)
	assert.Nil(t, Domain([]int{7}, 0))
	assert.True(t, Index{0, 5}.Less(Index{1, 0}))
	assert.Equal(t, "1:3", Index{1, 3}.String())
}

func TestPartition(t *testing.T) {
	p := NewPartition(Domain([]int{5}, 1))
	assert.Error(t, p.Validate(), "unassigned elements")

	a := p.NewCluster()
	b := p.NewCluster()
	for e := 0; e < 5; e++ {
		cl := a
		if e%2 == 1 {
			cl = b
		}
		require.NoError(t, p.Assign(e, cl))
	}
	require.NoError(t, p.Validate())
	assert.Equal(t, []int{0, 2, 4}, p.Members(a))
	assert.Equal(t, []int{3, 2}, p.Sizes())

	err := p.Assign(1, a)
	assert.True(t, errors.Is(err, ErrInvalidPartition))

	cl, deleted := p.Remove(1)
	assert.Equal(t, b, cl)
	assert.False(t, deleted)
	assert.Equal(t, -1, p.ClusterOf(1))
	require.NoError(t, p.Assign(1, a))
	assert.Equal(t, []int{0, 1, 2, 4}, p.Members(a))

	cl, deleted = p.Remove(3)
	assert.Equal(t, b, cl)
	assert.True(t, deleted)
	assert.Equal(t, 1, p.NClusters())
	assert.Error(t, p.Assign(3, b), "deleted cluster")

	c := p.NewCluster()
	assert.Greater(t, c, b, "cluster ids are not reused")
	require.NoError(t, p.Assign(3, c))
	require.NoError(t, p.Validate())
}

func TestPartitionRandomMoves(t *testing.T) {
	rng := rand.New(rand.NewSource(5))
	p := NewPartition(Domain([]int{20, 10}, 2))
	for e := range p.Domain() {
		require.NoError(t, p.Assign(e, p.NewCluster()))
	}
	for i := 0; i < 1000; i++ {
		e := rng.Intn(p.Len())
		p.Remove(e)
		ids := p.Clusters()
		choice := rng.Intn(len(ids) + 1)
		if choice == len(ids) {
			require.NoError(t, p.Assign(e, p.NewCluster()))
		} else {
			require.NoError(t, p.Assign(e, ids[choice]))
		}
		require.NoError(t, p.Validate())
	}
}

func TestExportImport(t *testing.T) {
	domain := Domain([]int{6}, 2)
	p := NewPartition(domain)
	a := p.NewCluster()
	b := p.NewCluster()
	require.NoError(t, p.Assign(2, a))
	require.NoError(t, p.Assign(0, a))
	require.NoError(t, p.Assign(1, b))
	exp := [][]Index{{{0, 0}, {0, 4}}, {{0, 2}}}
	assert.Equal(t, exp, p.Export())

	q, err := ImportPartition(domain, exp)
	require.NoError(t, err)
	assert.Equal(t, exp, q.Export())

	_, err = ImportPartition(domain, [][]Index{{{0, 0}, {0, 4}}})
	assert.ErrorIs(t, err, ErrInvalidPartition)
	_, err = ImportPartition(domain, [][]Index{{{0, 0}, {0, 1}}, {{0, 2}, {0, 4}}})
	assert.ErrorIs(t, err, ErrInvalidPartition)
	_, err = ImportPartition(domain, [][]Index{{{0, 0}, {0, 2}}, {{0, 2}, {0, 4}}})
	assert.ErrorIs(t, err, ErrInvalidPartition)
}
