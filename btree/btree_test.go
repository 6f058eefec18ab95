package btree

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"IndexDB/bufferpool"
	"IndexDB/types"
)

// newTestIndex creates a fresh index in a temp dir with no base relation.
func newTestIndex(t *testing.T) *BTreeIndex {
	t.Helper()

	bufMgr, err := bufferpool.NewBufMgr(32)
	require.NoError(t, err)
	t.Cleanup(bufMgr.Close)

	bt, _, err := NewBTreeIndex(filepath.Join(t.TempDir(), "rel"), bufMgr, 0, types.IntegerType)
	require.NoError(t, err)
	t.Cleanup(bt.Close)
	return bt
}

// ridFor derives a distinct record id from a key so scans can be checked
// against the inserted mapping.
func ridFor(key int32) types.RecordID {
	return types.RecordID{PageNo: types.PageID(key), SlotNo: uint16(key % 7)}
}

func readLeaf(t *testing.T, bt *BTreeIndex, pageNo types.PageID) *LeafNode {
	t.Helper()
	page, err := bt.bufMgr.ReadPage(bt.file, pageNo)
	require.NoError(t, err)
	leaf, err := decodeLeaf(page.Data())
	require.NoError(t, err)
	require.NoError(t, bt.bufMgr.UnpinPage(bt.file, pageNo, false))
	return leaf
}

func readInternal(t *testing.T, bt *BTreeIndex, pageNo types.PageID) *InternalNode {
	t.Helper()
	page, err := bt.bufMgr.ReadPage(bt.file, pageNo)
	require.NoError(t, err)
	node, err := decodeInternal(page.Data())
	require.NoError(t, err)
	require.NoError(t, bt.bufMgr.UnpinPage(bt.file, pageNo, false))
	return node
}

func readMeta(t *testing.T, bt *BTreeIndex) *IndexMeta {
	t.Helper()
	page, err := bt.bufMgr.ReadPage(bt.file, HeaderPageNum)
	require.NoError(t, err)
	meta := decodeMeta(page.Data())
	require.NoError(t, bt.bufMgr.UnpinPage(bt.file, HeaderPageNum, false))
	return meta
}

// checkInvariants verifies separator ordering and subtree key bounds for
// the whole tree, and that the leaf sibling chain ascends.
func checkInvariants(t *testing.T, bt *BTreeIndex) {
	t.Helper()
	root := readInternal(t, bt, bt.rootPageNum)
	if root.Children[0] == types.InvalidPageID {
		return // empty tree
	}
	if root.occupancy() == 1 && root.Children[1] == types.InvalidPageID {
		// Single-leaf tree: the bootstrap separator does not bound its
		// only child.
		checkLeafOrdered(t, readLeaf(t, bt, root.Children[0]))
		return
	}
	checkSubtree(t, bt, bt.rootPageNum, int64(-1)<<40, int64(1)<<40)

	keys := walkLeaves(t, bt)
	for i := 1; i < len(keys); i++ {
		require.LessOrEqual(t, keys[i-1], keys[i], "leaf chain out of order at %d", i)
	}
}

func checkSubtree(t *testing.T, bt *BTreeIndex, pageNo types.PageID, low, high int64) {
	t.Helper()
	node := readInternal(t, bt, pageNo)
	occ := node.occupancy()
	require.Greater(t, occ, 0, "internal node %d has no separators", pageNo)
	for i := 1; i < occ; i++ {
		require.Less(t, node.Keys[i-1], node.Keys[i], "separators of node %d not increasing", pageNo)
	}
	for i := 0; i < occ; i++ {
		k := int64(node.Keys[i])
		require.True(t, k >= low && k <= high, "separator %d of node %d escapes [%d,%d]", k, pageNo, low, high)
	}

	for i := 0; i <= occ; i++ {
		childLow, childHigh := low, high
		if i > 0 {
			childLow = int64(node.Keys[i-1])
		}
		if i < occ {
			childHigh = int64(node.Keys[i]) - 1
		}
		child := node.Children[i]
		require.NotEqual(t, types.InvalidPageID, child, "child %d of node %d missing", i, pageNo)
		if node.Level == 1 {
			leaf := readLeaf(t, bt, child)
			checkLeafOrdered(t, leaf)
			for j := 0; j < leaf.occupancy(); j++ {
				k := int64(leaf.Keys[j])
				require.True(t, k >= childLow && k <= childHigh,
					"leaf %d key %d escapes [%d,%d]", child, k, childLow, childHigh)
			}
		} else {
			checkSubtree(t, bt, child, childLow, childHigh)
		}
	}
}

func checkLeafOrdered(t *testing.T, leaf *LeafNode) {
	t.Helper()
	occ := leaf.occupancy()
	for i := 1; i < occ; i++ {
		require.LessOrEqual(t, leaf.Keys[i-1], leaf.Keys[i])
	}
	for i := occ; i < LeafCapacity; i++ {
		require.Equal(t, KeySentinel, leaf.Keys[i], "sentinel region interrupted at %d", i)
	}
}

// walkLeaves returns every stored key in sibling-chain order.
func walkLeaves(t *testing.T, bt *BTreeIndex) []int32 {
	t.Helper()
	pageNo := leftmostLeaf(t, bt)
	var keys []int32
	for pageNo != types.InvalidPageID {
		leaf := readLeaf(t, bt, pageNo)
		keys = append(keys, leaf.Keys[:leaf.occupancy()]...)
		pageNo = leaf.RightSib
	}
	return keys
}

func leftmostLeaf(t *testing.T, bt *BTreeIndex) types.PageID {
	t.Helper()
	pageNo := bt.rootPageNum
	for {
		node := readInternal(t, bt, pageNo)
		if node.Children[0] == types.InvalidPageID {
			return types.InvalidPageID
		}
		if node.Level == 1 {
			return node.Children[0]
		}
		pageNo = node.Children[0]
	}
}
