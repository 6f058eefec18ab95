package btree

import (
	"github.com/juju/errors"

	"IndexDB/types"
)

// insertIntoParent places sepKey and the new right child into the internal
// node at path[depth]. The separator goes into the slot the descent took;
// the child pointer lands one to its right. A full parent splits and the
// promoted key propagates to path[depth-1]; the root grows instead when
// the split reaches the top of the path.
func (bt *BTreeIndex) insertIntoParent(path []descentStep, depth int, sepKey int32, rightID types.PageID) error {
	if depth < 0 {
		return errors.Trace(ErrNonLeafSplitUnsupported)
	}
	step := path[depth]

	page, err := bt.bufMgr.ReadPage(bt.file, step.pageNo)
	if err != nil {
		return errors.Trace(err)
	}
	node, err := decodeInternal(page.Data())
	if err != nil {
		bt.bufMgr.UnpinPage(bt.file, step.pageNo, false)
		return errors.Trace(err)
	}

	if node.occupancy() < InternalCapacity {
		orderedInternalInsert(node, step.slot, sepKey, rightID)
		encodeInternal(page.Data(), node)
		return errors.Trace(bt.bufMgr.UnpinPage(bt.file, step.pageNo, true))
	}

	promote, newNodeID, err := bt.splitInternal(step.pageNo, page, node, step.slot, sepKey, rightID)
	if err != nil {
		return errors.Trace(err)
	}

	if depth == 0 {
		return bt.growRoot(step.pageNo, promote, newNodeID)
	}
	return bt.insertIntoParent(path, depth-1, promote, newNodeID)
}

// orderedInternalInsert shifts separators at [i, occupancy) and children at
// [i+1, occupancy+1) right by one, then writes sepKey at i and childID at
// i+1. The node must have a free slot.
func orderedInternalInsert(node *InternalNode, i int, sepKey int32, childID types.PageID) {
	occ := node.occupancy()
	copy(node.Keys[i+1:occ+1], node.Keys[i:occ])
	copy(node.Children[i+2:occ+2], node.Children[i+1:occ+1])
	node.Keys[i] = sepKey
	node.Children[i+1] = childID
}
