package bufferpool

import (
	"fmt"
	"sync"

	"github.com/dgraph-io/ristretto/v2"

	"IndexDB/blobfile"
	"IndexDB/logger"
	"IndexDB/types"
)

/*
BufMgr is an LRU page cache over blob files.

Every page access pins its frame; a pinned frame is never evicted. Unpins
carry a dirty flag that is OR-ed into the frame. Dirty frames are written
back on eviction and on FlushFile. Clean evicted frames drop into a
ristretto victim cache so a near-future re-read skips the disk.
*/

// BufMgr manages a bounded set of page frames across blob files.
type BufMgr struct {
	mu          sync.Mutex
	frames      map[frameKey]*Page
	capacity    int
	accessOrder []frameKey // least recently used first
	victims     *ristretto.Cache[string, []byte]
}

// NewBufMgr creates a buffer manager holding at most capacity frames.
func NewBufMgr(capacity int) (*BufMgr, error) {
	if capacity < 2 {
		return nil, fmt.Errorf("buffer pool capacity %d too small", capacity)
	}

	victims, err := ristretto.NewCache(&ristretto.Config[string, []byte]{
		NumCounters: int64(capacity) * 10,
		MaxCost:     int64(capacity) * types.PageSize,
		BufferItems: 64,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create victim cache: %w", err)
	}

	return &BufMgr{
		frames:      make(map[frameKey]*Page, capacity),
		capacity:    capacity,
		accessOrder: make([]frameKey, 0, capacity),
		victims:     victims,
	}, nil
}

// AllocPage appends a new page to the file and returns its number together
// with a zeroed, pinned frame for it.
func (bm *BufMgr) AllocPage(f *blobfile.BlobFile) (types.PageID, *Page, error) {
	bm.mu.Lock()
	defer bm.mu.Unlock()

	pageNo, err := f.AllocatePage()
	if err != nil {
		return types.InvalidPageID, nil, fmt.Errorf("failed to allocate page in %s: %w", f.Path(), err)
	}

	page := &Page{
		data:     make([]byte, types.PageSize),
		file:     f,
		pageNo:   pageNo,
		pinCount: 1,
		isDirty:  true, // a fresh page must reach disk even if never re-dirtied
	}
	if err := bm.addFrame(frameKey{f.Path(), pageNo}, page); err != nil {
		return types.InvalidPageID, nil, err
	}
	return pageNo, page, nil
}

// ReadPage pins and returns the frame for pageNo, loading it from the victim
// cache or disk on a miss.
func (bm *BufMgr) ReadPage(f *blobfile.BlobFile, pageNo types.PageID) (*Page, error) {
	bm.mu.Lock()
	defer bm.mu.Unlock()

	key := frameKey{f.Path(), pageNo}
	if page, ok := bm.frames[key]; ok {
		logger.Debugf("bufferpool: hit %s pin=%d", key, page.pinCount)
		bm.touch(key)
		page.mu.Lock()
		page.pinCount++
		page.mu.Unlock()
		return page, nil
	}

	page := &Page{
		data:     make([]byte, types.PageSize),
		file:     f,
		pageNo:   pageNo,
		pinCount: 1,
	}

	if data, ok := bm.victims.Get(key.String()); ok && len(data) == types.PageSize {
		logger.Debugf("bufferpool: victim hit %s", key)
		copy(page.data, data)
		bm.victims.Del(key.String())
	} else {
		logger.Debugf("bufferpool: miss %s, reading from disk", key)
		if err := f.ReadPage(pageNo, page.data); err != nil {
			return nil, fmt.Errorf("failed to read page %d of %s: %w", pageNo, f.Path(), err)
		}
	}

	if err := bm.addFrame(key, page); err != nil {
		return nil, err
	}
	return page, nil
}

// UnpinPage releases one pin on the frame. The dirty flag is OR-ed in.
func (bm *BufMgr) UnpinPage(f *blobfile.BlobFile, pageNo types.PageID, dirty bool) error {
	bm.mu.Lock()
	defer bm.mu.Unlock()

	key := frameKey{f.Path(), pageNo}
	page, ok := bm.frames[key]
	if !ok {
		return fmt.Errorf("page %s not in buffer pool", key)
	}

	page.mu.Lock()
	defer page.mu.Unlock()

	if page.pinCount == 0 {
		return fmt.Errorf("page %s is not pinned", key)
	}
	page.pinCount--
	if dirty {
		page.isDirty = true
	}
	return nil
}

// FlushFile writes every dirty frame of f back to disk and syncs the file.
func (bm *BufMgr) FlushFile(f *blobfile.BlobFile) error {
	bm.mu.Lock()
	defer bm.mu.Unlock()

	for key, page := range bm.frames {
		if key.path != f.Path() {
			continue
		}
		page.mu.Lock()
		if page.isDirty {
			if err := f.WritePage(page.pageNo, page.data); err != nil {
				page.mu.Unlock()
				return fmt.Errorf("failed to flush page %s: %w", key, err)
			}
			page.isDirty = false
		}
		page.mu.Unlock()
	}

	if err := f.Sync(); err != nil {
		return fmt.Errorf("failed to sync %s: %w", f.Path(), err)
	}
	return nil
}

// DisposeFile flushes f's dirty frames and drops all of its frames and
// victim-cache entries. Call it before deleting or recreating a file.
func (bm *BufMgr) DisposeFile(f *blobfile.BlobFile) error {
	if err := bm.FlushFile(f); err != nil {
		return err
	}

	bm.mu.Lock()
	defer bm.mu.Unlock()

	for key := range bm.frames {
		if key.path != f.Path() {
			continue
		}
		delete(bm.frames, key)
		bm.removeFromOrder(key)
	}
	for pageNo := types.PageID(1); uint32(pageNo) <= f.NumPages(); pageNo++ {
		bm.victims.Del(frameKey{f.Path(), pageNo}.String())
	}
	return nil
}

// Close releases the victim cache. Frames are abandoned; callers flush
// their files first.
func (bm *BufMgr) Close() {
	bm.victims.Close()
}

// addFrame inserts a frame, evicting the LRU unpinned frame if the pool is
// full. Assumes bm.mu is held.
func (bm *BufMgr) addFrame(key frameKey, page *Page) error {
	if _, ok := bm.frames[key]; ok {
		return fmt.Errorf("page %s already buffered", key)
	}

	if len(bm.frames) >= bm.capacity {
		if err := bm.evictLRU(); err != nil {
			return fmt.Errorf("failed to evict: %w", err)
		}
	}

	bm.frames[key] = page
	bm.touch(key)
	return nil
}

// evictLRU evicts the least recently used unpinned frame, writing it back
// first when dirty and parking the bytes in the victim cache. Assumes
// bm.mu is held.
func (bm *BufMgr) evictLRU() error {
	for i := 0; i < len(bm.accessOrder); i++ {
		key := bm.accessOrder[i]
		page, ok := bm.frames[key]
		if !ok {
			bm.accessOrder = append(bm.accessOrder[:i], bm.accessOrder[i+1:]...)
			i--
			continue
		}

		page.mu.Lock()
		if page.pinCount > 0 {
			page.mu.Unlock()
			continue
		}

		if page.isDirty {
			if err := page.file.WritePage(page.pageNo, page.data); err != nil {
				page.mu.Unlock()
				return fmt.Errorf("failed to write page %s during eviction: %w", key, err)
			}
			page.isDirty = false
		}
		logger.Debugf("bufferpool: evict %s", key)

		parked := make([]byte, types.PageSize)
		copy(parked, page.data)
		bm.victims.Set(key.String(), parked, types.PageSize)
		page.mu.Unlock()

		delete(bm.frames, key)
		bm.accessOrder = append(bm.accessOrder[:i], bm.accessOrder[i+1:]...)
		return nil
	}

	return fmt.Errorf("all pages are pinned, cannot evict")
}

// touch moves key to the most recently used position. Assumes bm.mu is held.
func (bm *BufMgr) touch(key frameKey) {
	bm.removeFromOrder(key)
	bm.accessOrder = append(bm.accessOrder, key)
}

func (bm *BufMgr) removeFromOrder(key frameKey) {
	for i, k := range bm.accessOrder {
		if k == key {
			bm.accessOrder = append(bm.accessOrder[:i], bm.accessOrder[i+1:]...)
			break
		}
	}
}

// Size returns the current number of buffered frames.
func (bm *BufMgr) Size() int {
	bm.mu.Lock()
	defer bm.mu.Unlock()
	return len(bm.frames)
}
