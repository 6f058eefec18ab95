// Build (or reopen) the B+Tree index over the seeded relation, then run a
// range scan.
// Usage: go run ./cmd/buildidx [low high]
package main

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"

	"github.com/juju/errors"

	"IndexDB/btree"
	"IndexDB/bufferpool"
	"IndexDB/config"
	"IndexDB/logger"
	"IndexDB/types"
)

const keyOffset = 4 // must match cmd/seed

func main() {
	cfg, err := config.Load("indexdb.ini")
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	logger.SetLevel(cfg.LogLevel)

	low, high := int32(100), int32(120)
	if len(os.Args) == 3 {
		lo, err1 := strconv.Atoi(os.Args[1])
		hi, err2 := strconv.Atoi(os.Args[2])
		if err1 != nil || err2 != nil {
			log.Fatalf("bad scan bounds %q %q", os.Args[1], os.Args[2])
		}
		low, high = int32(lo), int32(hi)
	}

	bufMgr, err := bufferpool.NewBufMgr(cfg.BufferPoolPages)
	if err != nil {
		log.Fatalf("buffer pool: %v", err)
	}
	defer bufMgr.Close()

	relPath := filepath.Join(cfg.DataDir, "relation")
	index, indexName, err := btree.NewBTreeIndex(relPath, bufMgr, keyOffset, types.IntegerType)
	if err != nil {
		log.Fatalf("open index: %v", err)
	}
	defer index.Close()

	fmt.Printf("index file: %s\n", indexName)
	fmt.Printf("scanning [%d, %d]\n", low, high)

	if err := index.StartScan(low, types.GTE, high, types.LTE); err != nil {
		if errors.Is(err, btree.ErrNoSuchKeyFound) {
			fmt.Println("no matching entries")
			return
		}
		log.Fatalf("start scan: %v", err)
	}

	matches := 0
	for {
		rid, err := index.ScanNext()
		if errors.Is(err, btree.ErrIndexScanCompleted) {
			break
		}
		if err != nil {
			log.Fatalf("scan next: %v", err)
		}
		fmt.Printf("  rid (page %d, slot %d)\n", rid.PageNo, rid.SlotNo)
		matches++
	}
	if err := index.EndScan(); err != nil {
		log.Fatalf("end scan: %v", err)
	}
	fmt.Printf("%d matching entries\n", matches)
}
