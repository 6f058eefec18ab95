package bufferpool

import (
	"strconv"
	"sync"

	"IndexDB/blobfile"
	"IndexDB/types"
)

// Page is a buffer frame holding one page of a blob file. The frame stays
// resident while its pin count is positive.
type Page struct {
	data     []byte
	file     *blobfile.BlobFile
	pageNo   types.PageID
	pinCount int
	isDirty  bool
	mu       sync.Mutex
}

// Data returns the frame's page buffer. Callers must hold a pin while
// reading or mutating it; mutations must be reported through UnpinPage
// with dirty=true.
func (p *Page) Data() []byte {
	return p.data
}

// PageNo returns the page number this frame holds.
func (p *Page) PageNo() types.PageID {
	return p.pageNo
}

type frameKey struct {
	path   string
	pageNo types.PageID
}

func (k frameKey) String() string {
	return k.path + ":" + strconv.FormatUint(uint64(k.pageNo), 10)
}
