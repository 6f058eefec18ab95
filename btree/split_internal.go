package btree

import (
	"github.com/juju/errors"

	"IndexDB/bufferpool"
	"IndexDB/types"
)

// splitInternal splits a full internal node around a new separator. The
// merged sequence of InternalCapacity+1 separators is cut at its middle
// key, which is promoted rather than kept in either half. The new right
// node sits at the same level as the old one. The caller owns the pin on
// page; it is released here.
func (bt *BTreeIndex) splitInternal(pageNo types.PageID, page *bufferpool.Page, node *InternalNode, slot int, sepKey int32, rightID types.PageID) (int32, types.PageID, error) {
	mergedKeys := make([]int32, 0, InternalCapacity+1)
	mergedKeys = append(mergedKeys, node.Keys[:slot]...)
	mergedKeys = append(mergedKeys, sepKey)
	mergedKeys = append(mergedKeys, node.Keys[slot:]...)

	mergedChildren := make([]types.PageID, 0, InternalCapacity+2)
	mergedChildren = append(mergedChildren, node.Children[:slot+1]...)
	mergedChildren = append(mergedChildren, rightID)
	mergedChildren = append(mergedChildren, node.Children[slot+1:]...)

	newNodeID, newPage, err := bt.bufMgr.AllocPage(bt.file)
	if err != nil {
		bt.bufMgr.UnpinPage(bt.file, pageNo, false)
		return 0, types.InvalidPageID, errors.Trace(err)
	}

	mid := (InternalCapacity + 1) / 2
	promote := mergedKeys[mid]

	newNode := newInternalNode(node.Level)
	copy(newNode.Keys[:], mergedKeys[mid+1:])
	copy(newNode.Children[:], mergedChildren[mid+1:])
	encodeInternal(newPage.Data(), newNode)
	if err := bt.bufMgr.UnpinPage(bt.file, newNodeID, true); err != nil {
		return 0, types.InvalidPageID, errors.Trace(err)
	}

	copy(node.Keys[:mid], mergedKeys[:mid])
	for i := mid; i < InternalCapacity; i++ {
		node.Keys[i] = KeySentinel
	}
	copy(node.Children[:mid+1], mergedChildren[:mid+1])
	for i := mid + 1; i <= InternalCapacity; i++ {
		node.Children[i] = types.InvalidPageID
	}
	encodeInternal(page.Data(), node)
	if err := bt.bufMgr.UnpinPage(bt.file, pageNo, true); err != nil {
		return 0, types.InvalidPageID, errors.Trace(err)
	}

	if err := bt.bumpPageCount(); err != nil {
		return 0, types.InvalidPageID, errors.Trace(err)
	}
	return promote, newNodeID, nil
}

// growRoot allocates a new root above a split old root, installing the two
// halves as its children under the promoted separator. The meta page picks
// up the new root page number.
func (bt *BTreeIndex) growRoot(oldRootID types.PageID, promote int32, rightID types.PageID) error {
	newRootID, newRootPage, err := bt.bufMgr.AllocPage(bt.file)
	if err != nil {
		return errors.Trace(err)
	}

	// Children of the new root are internal nodes, so its level is 0.
	root := newInternalNode(0)
	root.Keys[0] = promote
	root.Children[0] = oldRootID
	root.Children[1] = rightID
	encodeInternal(newRootPage.Data(), root)
	if err := bt.bufMgr.UnpinPage(bt.file, newRootID, true); err != nil {
		return errors.Trace(err)
	}

	bt.rootPageNum = newRootID
	return errors.Trace(bt.bumpPageCount())
}
