package btree

import (
	"math"

	"github.com/juju/errors"

	"IndexDB/types"
)

// StartScan begins a range scan over [low, high] under the given bound
// operators. The low operator must be GT or GTE, the high operator LT or
// LTE. An already-active scan is ended first. On success the leaf holding
// the first matching entry stays pinned until the scan moves past it.
func (bt *BTreeIndex) StartScan(low int32, lowOp types.Operator, high int32, highOp types.Operator) error {
	if (lowOp != types.GT && lowOp != types.GTE) || (highOp != types.LT && highOp != types.LTE) {
		return errors.Annotatef(ErrBadOpcodes, "low %s high %s", lowOp, highOp)
	}
	if low > high {
		return errors.Annotatef(ErrBadScanRange, "low %d > high %d", low, high)
	}

	if bt.scanExecuting {
		if err := bt.EndScan(); err != nil {
			return errors.Trace(err)
		}
	}

	// A leaf split among duplicates can leave keys equal to the separator
	// at the tail of the left leaf, so a GTE scan descends on low-1 to land
	// at or before the first entry equal to low.
	probe := low
	if lowOp == types.GTE && low > math.MinInt32 {
		probe = low - 1
	}
	leafID, err := bt.locateLeaf(probe)
	if err != nil {
		return errors.Trace(err)
	}
	if leafID == types.InvalidPageID {
		return errors.Annotatef(ErrNoSuchKeyFound, "index %s is empty", bt.indexName)
	}

	// Position on the first entry past the low bound. With a GT bound the
	// first qualifying entry can sit one leaf to the right of where the
	// descent lands, so the sibling chain is followed before giving up.
	for {
		page, err := bt.bufMgr.ReadPage(bt.file, leafID)
		if err != nil {
			return errors.Trace(err)
		}
		leaf, err := decodeLeaf(page.Data())
		if err != nil {
			bt.bufMgr.UnpinPage(bt.file, leafID, false)
			return errors.Trace(err)
		}

		occ := leaf.occupancy()
		for i := 0; i < occ; i++ {
			if !satisfiesLow(leaf.Keys[i], low, lowOp) {
				continue
			}
			if !satisfiesHigh(leaf.Keys[i], high, highOp) {
				// Keys ascend, so nothing further can satisfy both bounds.
				bt.bufMgr.UnpinPage(bt.file, leafID, false)
				return errors.Annotatef(ErrNoSuchKeyFound, "range (%d %s, %d %s)", low, lowOp, high, highOp)
			}
			bt.scanExecuting = true
			bt.currentPageNum = leafID
			bt.currentPage = page
			bt.currentLeaf = leaf
			bt.nextEntry = i
			bt.lowVal, bt.lowOp = low, lowOp
			bt.highVal, bt.highOp = high, highOp
			return nil
		}

		sib := leaf.RightSib
		if err := bt.bufMgr.UnpinPage(bt.file, leafID, false); err != nil {
			return errors.Trace(err)
		}
		if sib == types.InvalidPageID {
			return errors.Annotatef(ErrNoSuchKeyFound, "range (%d %s, %d %s)", low, lowOp, high, highOp)
		}
		leafID = sib
	}
}

// ScanNext returns the record id of the next entry matching the scan. It
// fails with ErrIndexScanCompleted once the high bound or the last leaf is
// passed; the scan state is preserved so the caller can EndScan.
func (bt *BTreeIndex) ScanNext() (types.RecordID, error) {
	if !bt.scanExecuting {
		return types.RecordID{}, errors.Trace(ErrScanNotInitialized)
	}

	for {
		if bt.nextEntry >= LeafCapacity ||
			bt.currentLeaf.Keys[bt.nextEntry] == KeySentinel ||
			!bt.currentLeaf.Rids[bt.nextEntry].Valid() {
			if err := bt.advanceLeaf(); err != nil {
				return types.RecordID{}, errors.Trace(err)
			}
			continue
		}

		key := bt.currentLeaf.Keys[bt.nextEntry]
		if !satisfiesHigh(key, bt.highVal, bt.highOp) {
			return types.RecordID{}, errors.Trace(ErrIndexScanCompleted)
		}

		rid := bt.currentLeaf.Rids[bt.nextEntry]
		bt.nextEntry++
		return rid, nil
	}
}

// advanceLeaf moves the cursor to the right sibling of the current leaf.
func (bt *BTreeIndex) advanceLeaf() error {
	sib := bt.currentLeaf.RightSib
	if sib == types.InvalidPageID {
		return errors.Trace(ErrIndexScanCompleted)
	}

	if err := bt.bufMgr.UnpinPage(bt.file, bt.currentPageNum, false); err != nil {
		return errors.Trace(err)
	}
	page, err := bt.bufMgr.ReadPage(bt.file, sib)
	if err != nil {
		return errors.Trace(err)
	}
	leaf, err := decodeLeaf(page.Data())
	if err != nil {
		bt.bufMgr.UnpinPage(bt.file, sib, false)
		return errors.Trace(err)
	}

	bt.currentPageNum = sib
	bt.currentPage = page
	bt.currentLeaf = leaf
	bt.nextEntry = 0
	return nil
}

// EndScan terminates the active scan, unpinning the current leaf and
// clearing the cursor.
func (bt *BTreeIndex) EndScan() error {
	if !bt.scanExecuting {
		return errors.Trace(ErrScanNotInitialized)
	}

	if bt.currentPage != nil {
		if err := bt.bufMgr.UnpinPage(bt.file, bt.currentPageNum, false); err != nil {
			return errors.Trace(err)
		}
	}
	bt.scanExecuting = false
	bt.currentPageNum = types.InvalidPageID
	bt.currentPage = nil
	bt.currentLeaf = nil
	bt.nextEntry = 0
	return nil
}

func satisfiesLow(key, low int32, op types.Operator) bool {
	if op == types.GT {
		return key > low
	}
	return key >= low
}

func satisfiesHigh(key, high int32, op types.Operator) bool {
	if op == types.LT {
		return key < high
	}
	return key <= high
}
