package btree

import (
	"encoding/binary"

	"github.com/juju/errors"

	"IndexDB/types"
)

// On-page layouts (little endian, PageSize bytes each).
//
// Both node variants carry the isLeaf discriminator at byte 0 so a
// navigator holding only a page id can tell them apart.
//
//	Leaf:     isLeaf u8 | pad[3] | rightSib u32 | key[L]i32 | rid[L](pageNo u32, slotNo u16, pad u16)
//	Internal: isLeaf u8 | pad[3] | level i32   | key[M]i32 | child[M+1]u32
//	Meta:     relationName [20]byte | attrByteOffset i32 | attrType i32 | rootPage u32 | numPages i32
const (
	nodeKeysOffset   = 8
	leafRidsOffset   = nodeKeysOffset + 4*LeafCapacity
	internalChildren = nodeKeysOffset + 4*InternalCapacity
)

// IsLeafPage inspects the discriminator byte of a node page.
func IsLeafPage(page []byte) bool {
	return page[0] != 0
}

func encodeLeaf(page []byte, leaf *LeafNode) {
	page[0] = 1
	page[1], page[2], page[3] = 0, 0, 0
	binary.LittleEndian.PutUint32(page[4:8], uint32(leaf.RightSib))
	for i := 0; i < LeafCapacity; i++ {
		binary.LittleEndian.PutUint32(page[nodeKeysOffset+4*i:], uint32(leaf.Keys[i]))
	}
	for i := 0; i < LeafCapacity; i++ {
		base := leafRidsOffset + ridSize*i
		binary.LittleEndian.PutUint32(page[base:], uint32(leaf.Rids[i].PageNo))
		binary.LittleEndian.PutUint16(page[base+4:], leaf.Rids[i].SlotNo)
		binary.LittleEndian.PutUint16(page[base+6:], 0)
	}
}

func decodeLeaf(page []byte) (*LeafNode, error) {
	if !IsLeafPage(page) {
		return nil, errors.Errorf("page is not a leaf node")
	}
	leaf := &LeafNode{
		RightSib: types.PageID(binary.LittleEndian.Uint32(page[4:8])),
	}
	for i := 0; i < LeafCapacity; i++ {
		leaf.Keys[i] = int32(binary.LittleEndian.Uint32(page[nodeKeysOffset+4*i:]))
	}
	for i := 0; i < LeafCapacity; i++ {
		base := leafRidsOffset + ridSize*i
		leaf.Rids[i] = types.RecordID{
			PageNo: types.PageID(binary.LittleEndian.Uint32(page[base:])),
			SlotNo: binary.LittleEndian.Uint16(page[base+4:]),
		}
	}
	return leaf, nil
}

func encodeInternal(page []byte, node *InternalNode) {
	page[0] = 0
	page[1], page[2], page[3] = 0, 0, 0
	binary.LittleEndian.PutUint32(page[4:8], uint32(node.Level))
	for i := 0; i < InternalCapacity; i++ {
		binary.LittleEndian.PutUint32(page[nodeKeysOffset+4*i:], uint32(node.Keys[i]))
	}
	for i := 0; i <= InternalCapacity; i++ {
		binary.LittleEndian.PutUint32(page[internalChildren+4*i:], uint32(node.Children[i]))
	}
}

func decodeInternal(page []byte) (*InternalNode, error) {
	if IsLeafPage(page) {
		return nil, errors.Errorf("page is not an internal node")
	}
	node := &InternalNode{
		Level: int32(binary.LittleEndian.Uint32(page[4:8])),
	}
	for i := 0; i < InternalCapacity; i++ {
		node.Keys[i] = int32(binary.LittleEndian.Uint32(page[nodeKeysOffset+4*i:]))
	}
	for i := 0; i <= InternalCapacity; i++ {
		node.Children[i] = types.PageID(binary.LittleEndian.Uint32(page[internalChildren+4*i:]))
	}
	return node, nil
}

func encodeMeta(page []byte, meta *IndexMeta) {
	copy(page[0:20], meta.RelationName[:])
	binary.LittleEndian.PutUint32(page[20:24], uint32(meta.AttrByteOffset))
	binary.LittleEndian.PutUint32(page[24:28], uint32(meta.AttrType))
	binary.LittleEndian.PutUint32(page[28:32], uint32(meta.RootPage))
	binary.LittleEndian.PutUint32(page[32:36], uint32(meta.NumPages))
}

func decodeMeta(page []byte) *IndexMeta {
	meta := &IndexMeta{
		AttrByteOffset: int32(binary.LittleEndian.Uint32(page[20:24])),
		AttrType:       types.Datatype(binary.LittleEndian.Uint32(page[24:28])),
		RootPage:       types.PageID(binary.LittleEndian.Uint32(page[28:32])),
		NumPages:       int32(binary.LittleEndian.Uint32(page[32:36])),
	}
	copy(meta.RelationName[:], page[0:20])
	return meta
}

// relationNameBytes truncates a relation name into the fixed meta field.
func relationNameBytes(name string) [20]byte {
	var out [20]byte
	copy(out[:], name)
	return out
}
