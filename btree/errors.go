package btree

import (
	"github.com/juju/errors"
)

// Error kinds surfaced by the index. Callers test with errors.Is.
const (
	// ErrBadIndexInfo: reopening an index file whose stored relation name,
	// attribute offset or attribute type does not match the request.
	ErrBadIndexInfo = errors.ConstError("bad index meta info")

	// ErrBadOpcodes: StartScan with a low operator outside {GT, GTE} or a
	// high operator outside {LT, LTE}.
	ErrBadOpcodes = errors.ConstError("bad scan opcodes")

	// ErrBadScanRange: StartScan with low > high.
	ErrBadScanRange = errors.ConstError("bad scan range")

	// ErrNoSuchKeyFound: StartScan found no entry satisfying the predicate.
	ErrNoSuchKeyFound = errors.ConstError("no such key found")

	// ErrScanNotInitialized: ScanNext or EndScan without an active scan.
	ErrScanNotInitialized = errors.ConstError("scan not initialized")

	// ErrIndexScanCompleted: ScanNext past the high bound or the last leaf.
	// Scan state is preserved; the caller should EndScan.
	ErrIndexScanCompleted = errors.ConstError("index scan completed")

	// ErrNonLeafSplitUnsupported guards a split propagating past the
	// recorded descent path. Root growth makes it unreachable through
	// normal inserts.
	ErrNonLeafSplitUnsupported = errors.ConstError("non-leaf split beyond descent path")
)
