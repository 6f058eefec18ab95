package btree

import (
	"sort"

	"github.com/juju/errors"

	"IndexDB/bufferpool"
	"IndexDB/types"
)

// splitLeaf splits a full leaf around a new entry. The merged sequence of
// LeafCapacity+1 entries is cut at the midpoint: the lower half stays in
// the old leaf, the upper half moves to a freshly allocated right sibling,
// and the new leaf is spliced into the sibling chain. The caller owns the
// pin on leafPage; it is released here. Returns the separator (the new
// leaf's first key) and the new leaf's page number.
func (bt *BTreeIndex) splitLeaf(leafID types.PageID, leafPage *bufferpool.Page, leaf *LeafNode, key int32, rid types.RecordID) (int32, types.PageID, error) {
	idx := sort.Search(LeafCapacity, func(i int) bool { return key < leaf.Keys[i] })

	mergedKeys := make([]int32, 0, LeafCapacity+1)
	mergedRids := make([]types.RecordID, 0, LeafCapacity+1)
	mergedKeys = append(mergedKeys, leaf.Keys[:idx]...)
	mergedRids = append(mergedRids, leaf.Rids[:idx]...)
	mergedKeys = append(mergedKeys, key)
	mergedRids = append(mergedRids, rid)
	mergedKeys = append(mergedKeys, leaf.Keys[idx:]...)
	mergedRids = append(mergedRids, leaf.Rids[idx:]...)

	newLeafID, newLeafPage, err := bt.bufMgr.AllocPage(bt.file)
	if err != nil {
		bt.bufMgr.UnpinPage(bt.file, leafID, false)
		return 0, types.InvalidPageID, errors.Trace(err)
	}

	mid := LeafCapacity / 2

	newLeaf := newLeafNode()
	copy(newLeaf.Keys[:], mergedKeys[mid:])
	copy(newLeaf.Rids[:], mergedRids[mid:])
	newLeaf.RightSib = leaf.RightSib
	encodeLeaf(newLeafPage.Data(), newLeaf)
	if err := bt.bufMgr.UnpinPage(bt.file, newLeafID, true); err != nil {
		return 0, types.InvalidPageID, errors.Trace(err)
	}

	copy(leaf.Keys[:mid], mergedKeys[:mid])
	copy(leaf.Rids[:mid], mergedRids[:mid])
	for i := mid; i < LeafCapacity; i++ {
		leaf.Keys[i] = KeySentinel
		leaf.Rids[i] = types.RecordID{}
	}
	leaf.RightSib = newLeafID
	encodeLeaf(leafPage.Data(), leaf)
	if err := bt.bufMgr.UnpinPage(bt.file, leafID, true); err != nil {
		return 0, types.InvalidPageID, errors.Trace(err)
	}

	if err := bt.bumpPageCount(); err != nil {
		return 0, types.InvalidPageID, errors.Trace(err)
	}
	return newLeaf.Keys[0], newLeafID, nil
}
