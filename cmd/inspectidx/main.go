// Inspect a B+Tree index file.
// Usage: go run ./cmd/inspectidx <path-to-index>
// Example: go run ./cmd/inspectidx data/relation.4
package main

import (
	"fmt"
	"os"

	"github.com/dustin/go-humanize"

	"IndexDB/btree"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintf(os.Stderr, "Usage: %s <index file>\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Example: %s data/relation.4\n", os.Args[0])
		os.Exit(1)
	}
	path := os.Args[1]

	if info, err := os.Stat(path); err == nil {
		fmt.Printf("file size: %s\n", humanize.IBytes(uint64(info.Size())))
	}

	if err := btree.InspectIndexFile(path); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
