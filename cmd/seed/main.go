// Seed program: creates a sample relation heap file with integer-keyed records.
// Run: go run ./cmd/seed [count]
// Then build an index over it: go run ./cmd/buildidx
package main

import (
	"encoding/binary"
	"log"
	"math/rand"
	"os"
	"path/filepath"
	"strconv"

	"IndexDB/config"
	"IndexDB/heapfile"
	"IndexDB/logger"
)

// Records carry the indexed i32 at byte offset 4, after a 4-byte tag.
const (
	recordSize = 24
	keyOffset  = 4
)

func main() {
	cfg, err := config.Load("indexdb.ini")
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	logger.SetLevel(cfg.LogLevel)

	count := 5000
	if len(os.Args) > 1 {
		count, err = strconv.Atoi(os.Args[1])
		if err != nil || count <= 0 {
			log.Fatalf("bad record count %q", os.Args[1])
		}
	}

	if err := os.MkdirAll(cfg.DataDir, 0755); err != nil {
		log.Fatalf("mkdir %s: %v", cfg.DataDir, err)
	}
	relPath := filepath.Join(cfg.DataDir, "relation")
	if heapfile.Exists(relPath) {
		log.Fatalf("relation %s already exists", relPath)
	}

	rel, err := heapfile.Create(relPath)
	if err != nil {
		log.Fatalf("create relation: %v", err)
	}
	defer rel.Close()

	// Insert keys 0..count-1 in shuffled order so the index has to work
	// for it.
	rng := rand.New(rand.NewSource(42))
	keys := rng.Perm(count)

	rec := make([]byte, recordSize)
	for i, key := range keys {
		binary.LittleEndian.PutUint32(rec[0:4], uint32(i))
		binary.LittleEndian.PutUint32(rec[keyOffset:], uint32(int32(key)))
		if _, err := rel.InsertRecord(rec); err != nil {
			log.Fatalf("insert record %d: %v", i, err)
		}
	}

	logger.Infof("seeded %s with %d records (%d heap pages)", relPath, count, rel.NumPages())
}
