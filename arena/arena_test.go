package arena

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAllocateBumpsWithinChunk(t *testing.T) {
	a := New(GoAllocator{}, 64)
	x := a.Allocate(8)
	y := a.Allocate(8)
	require.Len(t, x, 8)
	require.Len(t, y, 8)
}

func TestAllocateSpillsToNewChunk(t *testing.T) {
	a := New(GoAllocator{}, 8)
	a.Allocate(8)
	big := a.Allocate(100)
	require.Len(t, big, 100)
	require.Len(t, a.chunks, 2)
}

func TestReallocGrowsLastAllocationInPlace(t *testing.T) {
	a := New(GoAllocator{}, 64)
	buf := a.Allocate(4)
	copy(buf, []byte("abcd"))
	grown := a.Realloc(buf, 8)
	require.Equal(t, []byte("abcd"), grown[:4])
	require.Len(t, a.chunks, 1)
}

func TestResetReleasesAllAllocationsAtOnce(t *testing.T) {
	a := New(GoAllocator{}, 64)
	a.Allocate(16)
	a.Reset()
	require.Equal(t, 0, a.chunks[0].used)
	again := a.Allocate(16)
	require.Len(t, again, 16)
}

func TestDestroyFreesChunks(t *testing.T) {
	a := New(GoAllocator{}, 64)
	a.Allocate(8)
	a.Destroy()
	require.Empty(t, a.chunks)
}
