package btree

import (
	"sort"

	"github.com/juju/errors"

	"IndexDB/bufferpool"
	"IndexDB/types"
)

// InsertEntry places (key, rid) into the leaf whose key range contains key,
// splitting nodes as needed. Duplicate keys are permitted.
func (bt *BTreeIndex) InsertEntry(key int32, rid types.RecordID) error {
	if key == KeySentinel {
		return errors.Errorf("key %d is reserved as the empty-slot sentinel", key)
	}
	if !rid.Valid() {
		return errors.Errorf("record id %v has the invalid page number", rid)
	}

	rootPage, err := bt.bufMgr.ReadPage(bt.file, bt.rootPageNum)
	if err != nil {
		return errors.Trace(err)
	}
	root, err := decodeInternal(rootPage.Data())
	if err != nil {
		bt.bufMgr.UnpinPage(bt.file, bt.rootPageNum, false)
		return errors.Trace(err)
	}

	// Empty tree: the root has no children yet.
	if root.Children[0] == types.InvalidPageID {
		return bt.createFirstChild(key, rid, root, rootPage)
	}

	// Single-leaf tree: the sole child may be under half-full, so it is
	// filled directly until it overflows.
	if bt.numPages == 3 {
		return bt.insertInFirstLeaf(key, rid, root, rootPage)
	}

	if err := bt.bufMgr.UnpinPage(bt.file, bt.rootPageNum, false); err != nil {
		return errors.Trace(err)
	}
	return bt.insertGeneral(key, rid)
}

// createFirstChild allocates the first leaf and hangs it off the root. The
// bootstrap separator key+1 makes the strict-less-than descent route every
// key <= key into the sole child; it is replaced by a real separator when
// the leaf first splits.
func (bt *BTreeIndex) createFirstChild(key int32, rid types.RecordID, root *InternalNode, rootPage *bufferpool.Page) error {
	leafID, leafPage, err := bt.bufMgr.AllocPage(bt.file)
	if err != nil {
		bt.bufMgr.UnpinPage(bt.file, bt.rootPageNum, false)
		return errors.Trace(err)
	}

	leaf := newLeafNode()
	leaf.Keys[0] = key
	leaf.Rids[0] = rid
	encodeLeaf(leafPage.Data(), leaf)
	if err := bt.bufMgr.UnpinPage(bt.file, leafID, true); err != nil {
		return errors.Trace(err)
	}

	root.Keys[0] = key + 1
	root.Children[0] = leafID
	encodeInternal(rootPage.Data(), root)
	if err := bt.bufMgr.UnpinPage(bt.file, bt.rootPageNum, true); err != nil {
		return errors.Trace(err)
	}

	return bt.bumpPageCount()
}

// insertInFirstLeaf handles the single-leaf tree. The root stays pinned
// across the leaf access because an overflow must rewrite its separator.
func (bt *BTreeIndex) insertInFirstLeaf(key int32, rid types.RecordID, root *InternalNode, rootPage *bufferpool.Page) error {
	leafID := root.Children[0]
	leafPage, err := bt.bufMgr.ReadPage(bt.file, leafID)
	if err != nil {
		bt.bufMgr.UnpinPage(bt.file, bt.rootPageNum, false)
		return errors.Trace(err)
	}
	leaf, err := decodeLeaf(leafPage.Data())
	if err != nil {
		bt.bufMgr.UnpinPage(bt.file, leafID, false)
		bt.bufMgr.UnpinPage(bt.file, bt.rootPageNum, false)
		return errors.Trace(err)
	}

	if idx := leafInsertIndex(leaf, key); idx < LeafCapacity {
		orderedLeafInsert(leaf, idx, key, rid)
		encodeLeaf(leafPage.Data(), leaf)
		if err := bt.bufMgr.UnpinPage(bt.file, leafID, true); err != nil {
			return errors.Trace(err)
		}
		return errors.Trace(bt.bufMgr.UnpinPage(bt.file, bt.rootPageNum, false))
	}

	// The sole leaf is full: split it and replace the bootstrap separator
	// with the real one.
	sepKey, newLeafID, err := bt.splitLeaf(leafID, leafPage, leaf, key, rid)
	if err != nil {
		bt.bufMgr.UnpinPage(bt.file, bt.rootPageNum, false)
		return errors.Trace(err)
	}

	root.Keys[0] = sepKey
	root.Children[0] = leafID
	root.Children[1] = newLeafID
	encodeInternal(rootPage.Data(), root)
	return errors.Trace(bt.bufMgr.UnpinPage(bt.file, bt.rootPageNum, true))
}

// insertGeneral descends to the target leaf, inserting in place or
// splitting and propagating the separator upward.
func (bt *BTreeIndex) insertGeneral(key int32, rid types.RecordID) error {
	path, leafID, err := bt.locateInsert(key)
	if err != nil {
		return errors.Trace(err)
	}

	leafPage, err := bt.bufMgr.ReadPage(bt.file, leafID)
	if err != nil {
		return errors.Trace(err)
	}
	leaf, err := decodeLeaf(leafPage.Data())
	if err != nil {
		bt.bufMgr.UnpinPage(bt.file, leafID, false)
		return errors.Trace(err)
	}

	if idx := leafInsertIndex(leaf, key); idx < LeafCapacity {
		orderedLeafInsert(leaf, idx, key, rid)
		encodeLeaf(leafPage.Data(), leaf)
		return errors.Trace(bt.bufMgr.UnpinPage(bt.file, leafID, true))
	}

	sepKey, newLeafID, err := bt.splitLeaf(leafID, leafPage, leaf, key, rid)
	if err != nil {
		return errors.Trace(err)
	}
	return bt.insertIntoParent(path, len(path)-1, sepKey, newLeafID)
}

// leafInsertIndex returns the ordered insertion slot for key, or
// LeafCapacity when the leaf is full. Duplicates land after their equals.
func leafInsertIndex(leaf *LeafNode, key int32) int {
	occ := leaf.occupancy()
	if occ == LeafCapacity {
		return LeafCapacity
	}
	return sort.Search(occ, func(i int) bool { return key < leaf.Keys[i] })
}

// orderedLeafInsert shifts entries at [i, occupancy) right by one and
// writes the new entry at i. The leaf must have a free slot.
func orderedLeafInsert(leaf *LeafNode, i int, key int32, rid types.RecordID) {
	occ := leaf.occupancy()
	copy(leaf.Keys[i+1:occ+1], leaf.Keys[i:occ])
	copy(leaf.Rids[i+1:occ+1], leaf.Rids[i:occ])
	leaf.Keys[i] = key
	leaf.Rids[i] = rid
}
