package btree

import (
	"encoding/binary"
	"fmt"

	"github.com/juju/errors"

	"IndexDB/blobfile"
	"IndexDB/bufferpool"
	"IndexDB/heapfile"
	"IndexDB/logger"
	"IndexDB/types"
)

// NewBTreeIndex opens the index file for (relationName, attrByteOffset) or
// creates it. On creation the base relation, if present on disk, is scanned
// and one entry per record is inserted. The derived index file name is
// returned alongside the handle.
//
// Reopening verifies the stored relation name, attribute offset and
// attribute type against the request and fails with ErrBadIndexInfo on any
// mismatch, leaving no open state behind.
func NewBTreeIndex(relationName string, bufMgr *bufferpool.BufMgr, attrByteOffset int, attrType types.Datatype) (*BTreeIndex, string, error) {
	indexName := fmt.Sprintf("%s.%d", relationName, attrByteOffset)

	if attrType != types.IntegerType {
		return nil, indexName, errors.Errorf("unsupported attribute type %d: only integer keys are indexable", attrType)
	}
	if attrByteOffset < 0 {
		return nil, indexName, errors.Errorf("negative attribute offset %d", attrByteOffset)
	}

	bt := &BTreeIndex{
		bufMgr:         bufMgr,
		indexName:      indexName,
		attrByteOffset: attrByteOffset,
		attrType:       attrType,
	}

	if blobfile.Exists(indexName) {
		if err := bt.openExisting(relationName); err != nil {
			return nil, indexName, err
		}
		return bt, indexName, nil
	}

	if err := bt.createNew(relationName); err != nil {
		return nil, indexName, err
	}
	return bt, indexName, nil
}

// openExisting reads the meta page and validates it against the request.
func (bt *BTreeIndex) openExisting(relationName string) error {
	file, err := blobfile.Open(bt.indexName)
	if err != nil {
		return errors.Trace(err)
	}

	metaPage, err := bt.bufMgr.ReadPage(file, HeaderPageNum)
	if err != nil {
		file.Close()
		return errors.Trace(err)
	}
	meta := decodeMeta(metaPage.Data())
	if err := bt.bufMgr.UnpinPage(file, HeaderPageNum, false); err != nil {
		file.Close()
		return errors.Trace(err)
	}

	wantName := relationNameBytes(relationName)
	if meta.RelationName != wantName ||
		meta.AttrByteOffset != int32(bt.attrByteOffset) ||
		meta.AttrType != bt.attrType {
		file.Close()
		return errors.Annotatef(ErrBadIndexInfo,
			"index %s was built over %q offset %d type %d",
			bt.indexName, trimNul(meta.RelationName), meta.AttrByteOffset, meta.AttrType)
	}

	bt.file = file
	bt.rootPageNum = meta.RootPage
	bt.numPages = int(meta.NumPages)
	logger.Infof("btree: opened %s (root=%d pages=%d)", bt.indexName, bt.rootPageNum, bt.numPages)
	return nil
}

// createNew allocates the meta page and the initial empty root, then bulk
// loads from the base relation.
func (bt *BTreeIndex) createNew(relationName string) error {
	file, err := blobfile.Create(bt.indexName)
	if err != nil {
		return errors.Trace(err)
	}
	bt.file = file

	metaID, metaPage, err := bt.bufMgr.AllocPage(file)
	if err != nil {
		file.Close()
		return errors.Trace(err)
	}
	rootID, rootPage, err := bt.bufMgr.AllocPage(file)
	if err != nil {
		file.Close()
		return errors.Trace(err)
	}

	encodeInternal(rootPage.Data(), newInternalNode(1))
	if err := bt.bufMgr.UnpinPage(file, rootID, true); err != nil {
		file.Close()
		return errors.Trace(err)
	}

	encodeMeta(metaPage.Data(), &IndexMeta{
		RelationName:   relationNameBytes(relationName),
		AttrByteOffset: int32(bt.attrByteOffset),
		AttrType:       bt.attrType,
		RootPage:       rootID,
		NumPages:       2,
	})
	if err := bt.bufMgr.UnpinPage(file, metaID, true); err != nil {
		file.Close()
		return errors.Trace(err)
	}

	bt.rootPageNum = rootID
	bt.numPages = 2
	logger.Infof("btree: created %s (meta=%d root=%d)", bt.indexName, metaID, rootID)

	return bt.bulkLoad(relationName)
}

// bulkLoad funnels every record of the base relation into the index. A
// missing relation file leaves the index empty.
func (bt *BTreeIndex) bulkLoad(relationName string) error {
	if !heapfile.Exists(relationName) {
		logger.Infof("btree: relation %s not found, leaving %s empty", relationName, bt.indexName)
		return nil
	}

	rel, err := heapfile.Open(relationName)
	if err != nil {
		return errors.Trace(err)
	}
	defer rel.Close()

	scan := heapfile.NewFileScan(rel)
	count := 0
	for {
		rid, err := scan.Next()
		if errors.Is(err, heapfile.ErrEndOfFile) {
			break
		}
		if err != nil {
			return errors.Trace(err)
		}
		rec := scan.Bytes()
		if bt.attrByteOffset+4 > len(rec) {
			return errors.Errorf("record %v too short for attribute at offset %d", rid, bt.attrByteOffset)
		}
		key := int32(binary.LittleEndian.Uint32(rec[bt.attrByteOffset:]))
		if err := bt.InsertEntry(key, rid); err != nil {
			return errors.Annotatef(err, "bulk load of %s", bt.indexName)
		}
		count++
	}
	logger.Infof("btree: bulk loaded %d entries into %s", count, bt.indexName)
	return nil
}

// updateMeta rewrites the meta page from the in-memory root and page count.
func (bt *BTreeIndex) updateMeta() error {
	metaPage, err := bt.bufMgr.ReadPage(bt.file, HeaderPageNum)
	if err != nil {
		return errors.Trace(err)
	}
	meta := decodeMeta(metaPage.Data())
	meta.RootPage = bt.rootPageNum
	meta.NumPages = int32(bt.numPages)
	encodeMeta(metaPage.Data(), meta)
	return errors.Trace(bt.bufMgr.UnpinPage(bt.file, HeaderPageNum, true))
}

// bumpPageCount records one page allocation in memory and on the meta page.
func (bt *BTreeIndex) bumpPageCount() error {
	bt.numPages++
	return bt.updateMeta()
}

// IndexName returns the derived name of the index file.
func (bt *BTreeIndex) IndexName() string {
	return bt.indexName
}

// Close ends any active scan, flushes the index file and releases it.
// Failures are logged, never propagated.
func (bt *BTreeIndex) Close() {
	if bt.file == nil {
		return
	}
	if bt.scanExecuting {
		if err := bt.EndScan(); err != nil {
			logger.Warnf("btree: end scan on close: %v", err)
		}
	}
	if err := bt.bufMgr.FlushFile(bt.file); err != nil {
		logger.Warnf("btree: flush %s: %v", bt.indexName, err)
	}
	if err := bt.file.Close(); err != nil {
		logger.Warnf("btree: close %s: %v", bt.indexName, err)
	}
	bt.file = nil
}

func trimNul(name [20]byte) string {
	end := 0
	for end < len(name) && name[end] != 0 {
		end++
	}
	return string(name[:end])
}
