package heapfile

import (
	"errors"
	"sync"

	"IndexDB/blobfile"
	"IndexDB/types"
)

const (
	PageHeaderSize = 32 // bytes
	SlotSize       = 4  // per slot entry (offset: 2B, length: 2B)
)

// ErrEndOfFile is returned by FileScan.Next when the relation is drained.
var ErrEndOfFile = errors.New("end of heap file")

// pageHeader sits in the first 32 bytes of every heap page. The slot
// directory grows backward from the end of the page.
type pageHeader struct {
	PageNo    uint32
	FreePtr   uint16 // offset of the next free payload byte
	SlotCount uint16
	Checksum  uint64 // xxhash64 of the page with this field's 8 bytes left out
}

// slot is one entry in the slot directory.
type slot struct {
	Offset uint16
	Length uint16
}

// HeapFile is a record-oriented relation file built from slotted pages.
type HeapFile struct {
	bf       *blobfile.BlobFile
	lastPage types.PageID // page that insertions currently fill
	mu       sync.Mutex
}
