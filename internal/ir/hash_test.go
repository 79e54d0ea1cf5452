package ir

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func dimerList() *NeighborList {
	return &NeighborList{Edges: []Edge{
		{Source: 0, Target: 1, Vector: Vec3{1, 0, 0}, Length: 1},
		{Source: 1, Target: 0, Vector: Vec3{-1, 0, 0}, Length: 1},
	}}
}

func TestDigest_KnownValue(t *testing.T) {
	assert.Equal(t, "b3dc2a34ac1499c84f2ccb97bdd70e224a352943091048a026eecdb04f771bd5", dimerList().Digest())
}

func TestDigest_IgnoresEdgeOrder(t *testing.T) {
	a := dimerList()
	b := dimerList()
	b.Edges[0], b.Edges[1] = b.Edges[1], b.Edges[0]
	assert.Equal(t, a.Digest(), b.Digest())
	assert.Equal(t, 1, a.Edges[1].Source, "Digest does not reorder the list")
}

func TestDigest_IgnoresPositionsAndCell(t *testing.T) {
	a := dimerList()
	b := dimerList()
	b.Edges[0].SourcePos = Vec3{9, 9, 9}
	b.Cell = &Mat3{{5, 0, 0}, {0, 5, 0}, {0, 0, 5}}
	b.Cutoff = 3
	assert.Equal(t, a.Digest(), b.Digest())
}

func TestDigest_SensitiveToEveryBit(t *testing.T) {
	base := dimerList().Digest()

	length := dimerList()
	length.Edges[0].Length = math.Nextafter(1, 2)
	assert.NotEqual(t, base, length.Digest())

	shift := dimerList()
	shift.Edges[0].Shift = Shift{0, 0, 1}
	assert.NotEqual(t, base, shift.Digest())

	missing := dimerList()
	missing.Edges = missing.Edges[:1]
	assert.NotEqual(t, base, missing.Digest())
}

func TestDigest_Empty(t *testing.T) {
	a := &NeighborList{}
	b := &NeighborList{Edges: []Edge{}}
	assert.Equal(t, a.Digest(), b.Digest())
	assert.Len(t, a.Digest(), 64)
}
