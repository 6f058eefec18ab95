package btree

import (
	"testing"

	"github.com/stretchr/testify/require"

	"IndexDB/types"
)

func TestFirstInsert(t *testing.T) {
	bt := newTestIndex(t)

	r1 := types.RecordID{PageNo: 7, SlotNo: 3}
	require.NoError(t, bt.InsertEntry(10, r1))

	meta := readMeta(t, bt)
	require.Equal(t, int32(3), meta.NumPages)
	require.Equal(t, types.PageID(2), meta.RootPage)

	root := readInternal(t, bt, bt.rootPageNum)
	require.Equal(t, int32(11), root.Keys[0], "bootstrap separator is first key + 1")
	require.Equal(t, types.PageID(3), root.Children[0])
	require.Equal(t, types.InvalidPageID, root.Children[1])

	leaf := readLeaf(t, bt, 3)
	require.Equal(t, 1, leaf.occupancy())
	require.Equal(t, int32(10), leaf.Keys[0])
	require.Equal(t, r1, leaf.Rids[0])
	require.Equal(t, types.InvalidPageID, leaf.RightSib)
}

func TestSingleLeafOrderedInserts(t *testing.T) {
	bt := newTestIndex(t)

	require.NoError(t, bt.InsertEntry(10, ridFor(10)))
	require.NoError(t, bt.InsertEntry(5, ridFor(5)))
	require.NoError(t, bt.InsertEntry(20, ridFor(20)))

	// All three land in the sole leaf in key order; the bootstrap
	// separator is untouched.
	root := readInternal(t, bt, bt.rootPageNum)
	require.Equal(t, int32(11), root.Keys[0])

	leaf := readLeaf(t, bt, root.Children[0])
	require.Equal(t, 3, leaf.occupancy())
	require.Equal(t, []int32{5, 10, 20}, leaf.Keys[:3])
	require.Equal(t, ridFor(5), leaf.Rids[0])
	require.Equal(t, ridFor(10), leaf.Rids[1])
	require.Equal(t, ridFor(20), leaf.Rids[2])

	require.Equal(t, int32(3), readMeta(t, bt).NumPages)
}

func TestLeafFillWithoutSplit(t *testing.T) {
	bt := newTestIndex(t)

	for k := int32(1); k <= LeafCapacity; k++ {
		require.NoError(t, bt.InsertEntry(k, ridFor(k)))
	}

	require.Equal(t, 3, bt.numPages, "a full single leaf must not split yet")
	root := readInternal(t, bt, bt.rootPageNum)
	leaf := readLeaf(t, bt, root.Children[0])
	require.Equal(t, LeafCapacity, leaf.occupancy())
}

func TestFirstLeafSplit(t *testing.T) {
	bt := newTestIndex(t)

	for k := int32(1); k <= LeafCapacity+1; k++ {
		require.NoError(t, bt.InsertEntry(k, ridFor(k)))
	}

	require.Equal(t, 4, bt.numPages)
	require.Equal(t, int32(4), readMeta(t, bt).NumPages)

	root := readInternal(t, bt, bt.rootPageNum)
	require.Equal(t, 1, root.occupancy(), "bootstrap separator replaced, not appended")
	require.Equal(t, int32(LeafCapacity/2+1), root.Keys[0])

	left := readLeaf(t, bt, root.Children[0])
	right := readLeaf(t, bt, root.Children[1])
	require.Equal(t, LeafCapacity/2, left.occupancy())
	require.Equal(t, LeafCapacity/2+1, right.occupancy())
	require.Equal(t, int32(1), left.Keys[0])
	require.Equal(t, int32(LeafCapacity/2+1), right.Keys[0])
	require.Equal(t, root.Children[1], left.RightSib)
	require.Equal(t, types.InvalidPageID, right.RightSib)

	checkInvariants(t, bt)
}

func TestManyLeafSplits(t *testing.T) {
	bt := newTestIndex(t)

	// Enough for several leaves, inserted in a scattered order.
	n := int32(4 * LeafCapacity)
	for k := int32(0); k < n; k++ {
		key := (k*7919+13)%n + 1
		require.NoError(t, bt.InsertEntry(key, ridFor(key)))
	}

	checkInvariants(t, bt)

	keys := walkLeaves(t, bt)
	require.Len(t, keys, int(n))
	for i, k := range keys {
		require.Equal(t, int32(i+1), k, "leaf chain must hold every key exactly once")
	}

	// No allocation is lost: the meta count matches the file.
	meta := readMeta(t, bt)
	require.Equal(t, uint32(meta.NumPages), bt.file.NumPages())
}

func TestDuplicateKeys(t *testing.T) {
	bt := newTestIndex(t)

	for slot := uint16(0); slot < 5; slot++ {
		require.NoError(t, bt.InsertEntry(42, types.RecordID{PageNo: 9, SlotNo: slot}))
	}
	require.NoError(t, bt.InsertEntry(41, ridFor(41)))
	require.NoError(t, bt.InsertEntry(43, ridFor(43)))

	keys := walkLeaves(t, bt)
	require.Equal(t, []int32{41, 42, 42, 42, 42, 42, 43}, keys)
}

func TestInsertRejectsSentinelKey(t *testing.T) {
	bt := newTestIndex(t)
	require.Error(t, bt.InsertEntry(KeySentinel, ridFor(1)))
	require.Error(t, bt.InsertEntry(5, types.RecordID{}))
}
