package heapfile

import (
	"fmt"

	"IndexDB/blobfile"
	"IndexDB/logger"
	"IndexDB/types"
)

// Create creates a new heap file at path with one empty page.
func Create(path string) (*HeapFile, error) {
	bf, err := blobfile.Create(path)
	if err != nil {
		return nil, err
	}

	hf := &HeapFile{bf: bf}
	pageNo, err := hf.appendPage()
	if err != nil {
		bf.Close()
		return nil, err
	}
	hf.lastPage = pageNo
	logger.Infof("heapfile: created %s", path)
	return hf, nil
}

// Open opens an existing heap file.
func Open(path string) (*HeapFile, error) {
	bf, err := blobfile.Open(path)
	if err != nil {
		return nil, err
	}
	if bf.NumPages() == 0 {
		bf.Close()
		return nil, fmt.Errorf("heap file %s has no pages", path)
	}
	return &HeapFile{bf: bf, lastPage: types.PageID(bf.NumPages())}, nil
}

// Exists reports whether a heap file is present at path.
func Exists(path string) bool {
	return blobfile.Exists(path)
}

// InsertRecord appends a record and returns its record id.
func (hf *HeapFile) InsertRecord(rec []byte) (types.RecordID, error) {
	hf.mu.Lock()
	defer hf.mu.Unlock()

	if len(rec) == 0 || len(rec) > types.PageSize-PageHeaderSize-SlotSize {
		return types.RecordID{}, fmt.Errorf("record size %d out of range", len(rec))
	}

	page := make([]byte, types.PageSize)
	if err := hf.bf.ReadPage(hf.lastPage, page); err != nil {
		return types.RecordID{}, err
	}
	header, err := readPageHeader(page)
	if err != nil {
		return types.RecordID{}, err
	}

	if freeSpace(header) < len(rec) {
		pageNo, err := hf.appendPage()
		if err != nil {
			return types.RecordID{}, err
		}
		hf.lastPage = pageNo
		page = make([]byte, types.PageSize)
		if err := hf.bf.ReadPage(pageNo, page); err != nil {
			return types.RecordID{}, err
		}
		if header, err = readPageHeader(page); err != nil {
			return types.RecordID{}, err
		}
	}

	copy(page[header.FreePtr:], rec)
	putSlotAt(page, int(header.SlotCount), slot{Offset: header.FreePtr, Length: uint16(len(rec))})

	rid := types.RecordID{PageNo: hf.lastPage, SlotNo: header.SlotCount}
	header.FreePtr += uint16(len(rec))
	header.SlotCount++
	writePageHeader(page, header)

	if err := hf.bf.WritePage(hf.lastPage, page); err != nil {
		return types.RecordID{}, err
	}
	return rid, nil
}

// Record returns a copy of the record at rid.
func (hf *HeapFile) Record(rid types.RecordID) ([]byte, error) {
	hf.mu.Lock()
	defer hf.mu.Unlock()

	if !rid.Valid() {
		return nil, fmt.Errorf("invalid record id")
	}

	page := make([]byte, types.PageSize)
	if err := hf.bf.ReadPage(rid.PageNo, page); err != nil {
		return nil, err
	}
	header, err := readPageHeader(page)
	if err != nil {
		return nil, err
	}
	if rid.SlotNo >= header.SlotCount {
		return nil, fmt.Errorf("slot %d out of range on page %d", rid.SlotNo, rid.PageNo)
	}

	s := slotAt(page, int(rid.SlotNo))
	rec := make([]byte, s.Length)
	copy(rec, page[s.Offset:int(s.Offset)+int(s.Length)])
	return rec, nil
}

// Path returns the underlying file path.
func (hf *HeapFile) Path() string {
	return hf.bf.Path()
}

// NumPages returns the page count of the underlying file.
func (hf *HeapFile) NumPages() uint32 {
	return hf.bf.NumPages()
}

// Close syncs and closes the heap file.
func (hf *HeapFile) Close() error {
	hf.mu.Lock()
	defer hf.mu.Unlock()
	return hf.bf.Close()
}

// appendPage allocates and initializes a fresh slotted page.
func (hf *HeapFile) appendPage() (types.PageID, error) {
	pageNo, err := hf.bf.AllocatePage()
	if err != nil {
		return types.InvalidPageID, err
	}

	page := make([]byte, types.PageSize)
	writePageHeader(page, &pageHeader{
		PageNo:  uint32(pageNo),
		FreePtr: PageHeaderSize,
	})
	if err := hf.bf.WritePage(pageNo, page); err != nil {
		return types.InvalidPageID, err
	}
	return pageNo, nil
}
