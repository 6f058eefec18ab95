package btree

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"IndexDB/bufferpool"
	"IndexDB/types"
)

func TestCloseAndReopen(t *testing.T) {
	dir := t.TempDir()
	relPath := filepath.Join(dir, "rel")

	bufMgr, err := bufferpool.NewBufMgr(16)
	require.NoError(t, err)
	defer bufMgr.Close()

	bt, indexName, err := NewBTreeIndex(relPath, bufMgr, 4, types.IntegerType)
	require.NoError(t, err)
	require.Equal(t, relPath+".4", indexName)

	n := int32(3 * LeafCapacity)
	for k := int32(1); k <= n; k++ {
		require.NoError(t, bt.InsertEntry(k, ridFor(k)))
	}
	pagesAtClose := bt.numPages
	bt.Close()

	reopened, _, err := NewBTreeIndex(relPath, bufMgr, 4, types.IntegerType)
	require.NoError(t, err)
	defer reopened.Close()

	require.Equal(t, pagesAtClose, reopened.numPages)
	checkInvariants(t, reopened)

	keys := walkLeaves(t, reopened)
	require.Len(t, keys, int(n))

	require.NoError(t, reopened.StartScan(n-10, types.GTE, n, types.LTE))
	for k := n - 10; k <= n; k++ {
		rid, err := reopened.ScanNext()
		require.NoError(t, err)
		require.Equal(t, ridFor(k), rid)
	}
	_, err = reopened.ScanNext()
	require.ErrorIs(t, err, ErrIndexScanCompleted)
	require.NoError(t, reopened.EndScan())
}

func TestReopenSurvivesSingleLeafState(t *testing.T) {
	dir := t.TempDir()
	relPath := filepath.Join(dir, "rel")

	bufMgr, err := bufferpool.NewBufMgr(16)
	require.NoError(t, err)
	defer bufMgr.Close()

	bt, _, err := NewBTreeIndex(relPath, bufMgr, 0, types.IntegerType)
	require.NoError(t, err)
	require.NoError(t, bt.InsertEntry(10, ridFor(10)))
	bt.Close()

	// The reopened tree must still take the single-leaf path: keys far
	// past the bootstrap separator go into the sole child.
	reopened, _, err := NewBTreeIndex(relPath, bufMgr, 0, types.IntegerType)
	require.NoError(t, err)
	defer reopened.Close()
	require.Equal(t, 3, reopened.numPages)
	require.NoError(t, reopened.InsertEntry(500, ridFor(500)))

	keys := walkLeaves(t, reopened)
	require.Equal(t, []int32{10, 500}, keys)
}

func TestReopenMismatchedMeta(t *testing.T) {
	// Short relative names: the stored relation name is a 20-byte field.
	origWd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(t.TempDir()))
	defer os.Chdir(origWd)
	relPath := "rel"

	bufMgr, err := bufferpool.NewBufMgr(16)
	require.NoError(t, err)
	defer bufMgr.Close()

	bt, indexName, err := NewBTreeIndex(relPath, bufMgr, 0, types.IntegerType)
	require.NoError(t, err)
	require.NoError(t, bt.InsertEntry(1, ridFor(1)))
	bt.Close()

	// Same file surfacing under a different attribute offset.
	moved := relPath + ".8"
	require.NoError(t, os.Rename(indexName, moved))
	_, _, err = NewBTreeIndex(relPath, bufMgr, 8, types.IntegerType)
	require.ErrorIs(t, err, ErrBadIndexInfo)

	// Same file surfacing under a different relation name.
	otherRel := "other"
	require.NoError(t, os.Rename(moved, otherRel+".0"))
	_, _, err = NewBTreeIndex(otherRel, bufMgr, 0, types.IntegerType)
	require.ErrorIs(t, err, ErrBadIndexInfo)
}
