package heapfile

import (
	"encoding/binary"
	"fmt"

	"github.com/cespare/xxhash/v2"

	"IndexDB/types"
)

// writePageHeader serializes the header into the first 32 bytes of the page
// and stamps the checksum. Bytes 16-31 are reserved.
func writePageHeader(page []byte, header *pageHeader) {
	binary.LittleEndian.PutUint32(page[0:4], header.PageNo)
	binary.LittleEndian.PutUint16(page[4:6], header.FreePtr)
	binary.LittleEndian.PutUint16(page[6:8], header.SlotCount)
	header.Checksum = pageChecksum(page)
	binary.LittleEndian.PutUint64(page[8:16], header.Checksum)
}

// readPageHeader deserializes and verifies the header of a heap page.
func readPageHeader(page []byte) (*pageHeader, error) {
	header := &pageHeader{
		PageNo:    binary.LittleEndian.Uint32(page[0:4]),
		FreePtr:   binary.LittleEndian.Uint16(page[4:6]),
		SlotCount: binary.LittleEndian.Uint16(page[6:8]),
		Checksum:  binary.LittleEndian.Uint64(page[8:16]),
	}
	if sum := pageChecksum(page); sum != header.Checksum {
		return nil, fmt.Errorf("heap page %d checksum mismatch: stored %x computed %x",
			header.PageNo, header.Checksum, sum)
	}
	return header, nil
}

// pageChecksum hashes the page with the checksum field excluded.
func pageChecksum(page []byte) uint64 {
	digest := xxhash.New()
	digest.Write(page[0:8])
	digest.Write(page[16:])
	return digest.Sum64()
}

// slotAt reads slot i from the directory at the page tail.
func slotAt(page []byte, i int) slot {
	base := types.PageSize - SlotSize*(i+1)
	return slot{
		Offset: binary.LittleEndian.Uint16(page[base : base+2]),
		Length: binary.LittleEndian.Uint16(page[base+2 : base+4]),
	}
}

// putSlotAt writes slot i into the directory at the page tail.
func putSlotAt(page []byte, i int, s slot) {
	base := types.PageSize - SlotSize*(i+1)
	binary.LittleEndian.PutUint16(page[base:base+2], s.Offset)
	binary.LittleEndian.PutUint16(page[base+2:base+4], s.Length)
}

// freeSpace reports the payload bytes left between the free pointer and the
// slot directory, less the slot entry a new record would need.
func freeSpace(header *pageHeader) int {
	return types.PageSize - SlotSize*(int(header.SlotCount)+1) - int(header.FreePtr)
}
