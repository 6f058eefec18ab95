package btree

import (
	"sort"

	"github.com/juju/errors"

	"IndexDB/types"
)

// descentStep records one internal node visited on the way to a leaf and
// the child slot the descent took.
type descentStep struct {
	pageNo types.PageID
	slot   int
}

// childIndex picks the child slot for key: the smallest i with
// key < Keys[i], falling back to the child after the last separator. Equal
// keys route right, matching the separator invariant. Trailing empty child
// slots (the freshly created tree) are clamped away.
func childIndex(node *InternalNode, key int32) int {
	occ := node.occupancy()
	i := sort.Search(occ, func(i int) bool { return key < node.Keys[i] })
	for i > 0 && node.Children[i] == types.InvalidPageID {
		i--
	}
	return i
}

// locateLeaf walks from the root to the leaf whose key range contains key.
// Each visited internal page is pinned, read and unpinned clean before the
// next hop. The returned leaf page is not pinned; the caller pins it.
// InvalidPageID is returned for an empty tree.
func (bt *BTreeIndex) locateLeaf(key int32) (types.PageID, error) {
	pageNo := bt.rootPageNum
	for {
		page, err := bt.bufMgr.ReadPage(bt.file, pageNo)
		if err != nil {
			return types.InvalidPageID, errors.Trace(err)
		}
		node, err := decodeInternal(page.Data())
		if err != nil {
			bt.bufMgr.UnpinPage(bt.file, pageNo, false)
			return types.InvalidPageID, errors.Trace(err)
		}
		child := node.Children[childIndex(node, key)]
		level := node.Level
		if err := bt.bufMgr.UnpinPage(bt.file, pageNo, false); err != nil {
			return types.InvalidPageID, errors.Trace(err)
		}

		if child == types.InvalidPageID {
			return types.InvalidPageID, nil
		}
		if level == 1 {
			return child, nil
		}
		pageNo = child
	}
}

// locateInsert descends like locateLeaf but records every internal node and
// the slot taken, so a split can update the parents without re-descending.
// The last path entry is the level-1 parent of the returned leaf.
func (bt *BTreeIndex) locateInsert(key int32) ([]descentStep, types.PageID, error) {
	var path []descentStep
	pageNo := bt.rootPageNum
	for {
		page, err := bt.bufMgr.ReadPage(bt.file, pageNo)
		if err != nil {
			return nil, types.InvalidPageID, errors.Trace(err)
		}
		node, err := decodeInternal(page.Data())
		if err != nil {
			bt.bufMgr.UnpinPage(bt.file, pageNo, false)
			return nil, types.InvalidPageID, errors.Trace(err)
		}
		slot := childIndex(node, key)
		child := node.Children[slot]
		level := node.Level
		if err := bt.bufMgr.UnpinPage(bt.file, pageNo, false); err != nil {
			return nil, types.InvalidPageID, errors.Trace(err)
		}

		path = append(path, descentStep{pageNo: pageNo, slot: slot})
		if child == types.InvalidPageID {
			return nil, types.InvalidPageID, errors.Errorf("descent hit empty child slot %d of page %d", slot, pageNo)
		}
		if level == 1 {
			return path, child, nil
		}
		pageNo = child
	}
}
