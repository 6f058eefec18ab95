// Structure of the index
/*
Index file (one blob file per indexed attribute, named "<relation>.<offset>")

 Page 1: meta (relation name, attr offset/type, root page, page count)
 Page 2: first root (internal, level 1)
 Pages 3..N: leaves and internal nodes, allocated on demand

 - keys: signed 32-bit, sorted ascending; MaxInt32 is the empty-slot sentinel
 - the root is always an internal node, even over a single leaf
 - leaves are linked left-to-right through rightSib for range scans
 - every page access goes through the buffer pool: pin, read/mutate, unpin
*/
package btree

import (
	"math"

	"IndexDB/blobfile"
	"IndexDB/bufferpool"
	"IndexDB/types"
)

const (
	// KeySentinel marks empty key slots. Real keys must never equal it.
	KeySentinel int32 = math.MaxInt32

	// HeaderPageNum is the fixed page number of the meta page.
	HeaderPageNum types.PageID = 1

	ridSize = 8 // pageNo u32 + slotNo u16 + 2 pad bytes

	// LeafCapacity is the number of key/record-id pairs per leaf.
	LeafCapacity = (types.PageSize - 1 - 4) / (4 + ridSize)

	// InternalCapacity is the number of separator keys per internal node;
	// an internal node carries one more child pointer than separators.
	InternalCapacity = (types.PageSize - 1 - 4 - 4) / (4 + 4)
)

// LeafNode is the decoded form of a leaf page. Keys[0:occupancy) are sorted
// ascending; the remaining slots hold KeySentinel.
type LeafNode struct {
	Keys     [LeafCapacity]int32
	Rids     [LeafCapacity]types.RecordID
	RightSib types.PageID // next leaf in key order, InvalidPageID for the last
}

// InternalNode is the decoded form of an internal page. Child i holds keys
// < Keys[i]; child i+1 holds keys >= Keys[i]. The one exception comes from
// a leaf split among duplicates: the left leaf can end in keys equal to the
// separator. Level 1 means the children are leaves.
type InternalNode struct {
	Level    int32
	Keys     [InternalCapacity]int32
	Children [InternalCapacity + 1]types.PageID
}

// IndexMeta is the decoded form of the meta page (always page 1).
type IndexMeta struct {
	RelationName   [20]byte
	AttrByteOffset int32
	AttrType       types.Datatype
	RootPage       types.PageID
	NumPages       int32
}

// BTreeIndex implements a B+Tree index on a single integer attribute of a
// relation. A single scan at a time is supported.
type BTreeIndex struct {
	file   *blobfile.BlobFile
	bufMgr *bufferpool.BufMgr

	indexName      string
	rootPageNum    types.PageID
	attrByteOffset int
	attrType       types.Datatype
	numPages       int

	// scan state
	scanExecuting  bool
	nextEntry      int
	currentPageNum types.PageID
	currentPage    *bufferpool.Page
	currentLeaf    *LeafNode
	lowVal         int32
	highVal        int32
	lowOp          types.Operator
	highOp         types.Operator
}

// newLeafNode returns a leaf with every key slot set to the sentinel.
func newLeafNode() *LeafNode {
	leaf := &LeafNode{RightSib: types.InvalidPageID}
	for i := range leaf.Keys {
		leaf.Keys[i] = KeySentinel
	}
	return leaf
}

// newInternalNode returns an internal node at level with sentinel keys and
// zeroed child pointers.
func newInternalNode(level int32) *InternalNode {
	node := &InternalNode{Level: level}
	for i := range node.Keys {
		node.Keys[i] = KeySentinel
	}
	return node
}

// occupancy counts the stored keys (the prefix before the sentinel region).
func (n *LeafNode) occupancy() int {
	occ := 0
	for occ < LeafCapacity && n.Keys[occ] != KeySentinel {
		occ++
	}
	return occ
}

func (n *InternalNode) occupancy() int {
	occ := 0
	for occ < InternalCapacity && n.Keys[occ] != KeySentinel {
		occ++
	}
	return occ
}
