package blobfile

import (
	"fmt"
	"os"
	"sync"

	"IndexDB/types"
)

// BlobFile is a page-granular file: a flat sequence of fixed-size pages
// addressed by 1-based page number. Page N lives at byte offset
// (N-1)*PageSize. Both index files and heap files sit on top of it.
type BlobFile struct {
	file     *os.File
	path     string
	numPages uint32
	mu       sync.RWMutex
}

// Exists reports whether a blob file is present at path.
func Exists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

// Create creates a new empty blob file. It fails if the file already exists.
func Create(path string) (*BlobFile, error) {
	file, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_EXCL, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to create blob file %s: %w", path, err)
	}
	return &BlobFile{file: file, path: path}, nil
}

// Open opens an existing blob file and derives the page count from its size.
func Open(path string) (*BlobFile, error) {
	file, err := os.OpenFile(path, os.O_RDWR, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open blob file %s: %w", path, err)
	}

	stat, err := file.Stat()
	if err != nil {
		file.Close()
		return nil, fmt.Errorf("failed to stat blob file %s: %w", path, err)
	}

	return &BlobFile{
		file:     file,
		path:     path,
		numPages: uint32(stat.Size() / types.PageSize),
	}, nil
}

// ReadPage reads page pageNo into buf. buf must be exactly PageSize bytes.
func (f *BlobFile) ReadPage(pageNo types.PageID, buf []byte) error {
	f.mu.RLock()
	defer f.mu.RUnlock()

	if f.file == nil {
		return fmt.Errorf("blob file %s is closed", f.path)
	}
	if len(buf) != types.PageSize {
		return fmt.Errorf("buffer size %d does not match page size %d", len(buf), types.PageSize)
	}
	if pageNo == types.InvalidPageID || uint32(pageNo) > f.numPages {
		return fmt.Errorf("page %d out of range in %s (have %d pages)", pageNo, f.path, f.numPages)
	}

	offset := int64(pageNo-1) * types.PageSize
	if _, err := f.file.ReadAt(buf, offset); err != nil {
		return fmt.Errorf("failed to read page %d from %s: %w", pageNo, f.path, err)
	}
	return nil
}

// WritePage writes buf to page pageNo. buf must be exactly PageSize bytes.
func (f *BlobFile) WritePage(pageNo types.PageID, buf []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.file == nil {
		return fmt.Errorf("blob file %s is closed", f.path)
	}
	if len(buf) != types.PageSize {
		return fmt.Errorf("buffer size %d does not match page size %d", len(buf), types.PageSize)
	}
	if pageNo == types.InvalidPageID || uint32(pageNo) > f.numPages {
		return fmt.Errorf("page %d out of range in %s (have %d pages)", pageNo, f.path, f.numPages)
	}

	offset := int64(pageNo-1) * types.PageSize
	if _, err := f.file.WriteAt(buf, offset); err != nil {
		return fmt.Errorf("failed to write page %d to %s: %w", pageNo, f.path, err)
	}
	return nil
}

// AllocatePage appends a zeroed page to the file and returns its page number.
func (f *BlobFile) AllocatePage() (types.PageID, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.file == nil {
		return types.InvalidPageID, fmt.Errorf("blob file %s is closed", f.path)
	}

	pageNo := types.PageID(f.numPages + 1)
	empty := make([]byte, types.PageSize)
	offset := int64(pageNo-1) * types.PageSize
	if _, err := f.file.WriteAt(empty, offset); err != nil {
		return types.InvalidPageID, fmt.Errorf("failed to allocate page %d in %s: %w", pageNo, f.path, err)
	}
	f.numPages++
	return pageNo, nil
}

// NumPages returns the number of pages ever allocated in this file.
func (f *BlobFile) NumPages() uint32 {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.numPages
}

// Path returns the file path. Used as the cache key prefix by the buffer pool.
func (f *BlobFile) Path() string {
	return f.path
}

// Sync flushes pending writes to disk.
func (f *BlobFile) Sync() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.file == nil {
		return fmt.Errorf("blob file %s is closed", f.path)
	}
	return f.file.Sync()
}

// Close syncs and closes the underlying file.
func (f *BlobFile) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.file == nil {
		return nil // already closed
	}

	if err := f.file.Sync(); err != nil {
		f.file.Close()
		f.file = nil
		return fmt.Errorf("failed to sync %s before close: %w", f.path, err)
	}
	err := f.file.Close()
	f.file = nil
	return err
}
