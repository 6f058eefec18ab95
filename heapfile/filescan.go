package heapfile

import (
	"IndexDB/types"
)

// FileScan iterates over every record of a heap file in page/slot order.
// It is the feed for index bulk construction.
type FileScan struct {
	hf       *HeapFile
	pageNo   types.PageID
	page     []byte
	header   *pageHeader
	nextSlot uint16
	current  []byte
}

// NewFileScan positions a scan before the first record of hf.
func NewFileScan(hf *HeapFile) *FileScan {
	return &FileScan{hf: hf}
}

// Next advances to the next record and returns its record id. It returns
// ErrEndOfFile when the relation is drained.
func (fs *FileScan) Next() (types.RecordID, error) {
	for {
		if fs.page == nil {
			if uint32(fs.pageNo) >= fs.hf.NumPages() {
				fs.current = nil
				return types.RecordID{}, ErrEndOfFile
			}
			fs.pageNo++
			page := make([]byte, types.PageSize)
			if err := fs.hf.bf.ReadPage(fs.pageNo, page); err != nil {
				return types.RecordID{}, err
			}
			header, err := readPageHeader(page)
			if err != nil {
				return types.RecordID{}, err
			}
			fs.page = page
			fs.header = header
			fs.nextSlot = 0
		}

		if fs.nextSlot >= fs.header.SlotCount {
			fs.page = nil
			continue
		}

		s := slotAt(fs.page, int(fs.nextSlot))
		rid := types.RecordID{PageNo: fs.pageNo, SlotNo: fs.nextSlot}
		fs.nextSlot++
		fs.current = fs.page[s.Offset : int(s.Offset)+int(s.Length)]
		return rid, nil
	}
}

// Bytes returns the record the scan is currently positioned on. The slice
// is only valid until the next call to Next.
func (fs *FileScan) Bytes() []byte {
	return fs.current
}
