// Package btree: index file inspection for debugging.
// Use InspectIndexFile(path) to print a human-readable dump of an index file.

package btree

import (
	"fmt"
	"io"
	"os"

	"IndexDB/blobfile"
	"IndexDB/types"
)

// InspectIndexFile opens an index file and prints its structure to stdout.
func InspectIndexFile(indexPath string) error {
	return InspectIndexFileTo(os.Stdout, indexPath)
}

// InspectIndexFileTo writes a human-readable dump of the index file to w:
// the meta page, then each node level by level. Leaves are listed with
// their right sibling; the chain is not printed as a separate section.
func InspectIndexFileTo(w io.Writer, indexPath string) error {
	file, err := blobfile.Open(indexPath)
	if err != nil {
		return err
	}
	defer file.Close()

	p := func(format string, args ...interface{}) { fmt.Fprintf(w, format, args...) }

	buf := make([]byte, types.PageSize)
	if err := file.ReadPage(HeaderPageNum, buf); err != nil {
		return fmt.Errorf("read meta page: %w", err)
	}
	meta := decodeMeta(buf)

	p("Index file: %s\n", indexPath)
	p("  Page 1 (meta): relation=%q attrOffset=%d attrType=%d root=%d numPages=%d\n",
		trimNul(meta.RelationName), meta.AttrByteOffset, meta.AttrType, meta.RootPage, meta.NumPages)

	if meta.RootPage == types.InvalidPageID {
		p("  (no root)\n")
		return nil
	}

	p("\n  Nodes (BFS):\n  ---\n")
	queue := []types.PageID{meta.RootPage}
	level := 0
	for len(queue) > 0 {
		size := len(queue)
		p("  Level %d:\n", level)
		for i := 0; i < size; i++ {
			pageNo := queue[i]
			if err := file.ReadPage(pageNo, buf); err != nil {
				p("    [page %d] read error: %v\n", pageNo, err)
				continue
			}
			if IsLeafPage(buf) {
				leaf, err := decodeLeaf(buf)
				if err != nil {
					p("    [page %d] decode error: %v\n", pageNo, err)
					continue
				}
				occ := leaf.occupancy()
				p("    [leaf %d] %d entries, rightSib=%d\n", pageNo, occ, leaf.RightSib)
				for j := 0; j < occ; j++ {
					p("      %d -> (page %d, slot %d)\n", leaf.Keys[j], leaf.Rids[j].PageNo, leaf.Rids[j].SlotNo)
				}
				continue
			}
			node, err := decodeInternal(buf)
			if err != nil {
				p("    [page %d] decode error: %v\n", pageNo, err)
				continue
			}
			occ := node.occupancy()
			p("    [internal %d] level=%d %d separators\n", pageNo, node.Level, occ)
			for j := 0; j <= occ; j++ {
				if node.Children[j] == types.InvalidPageID {
					continue
				}
				if j < occ {
					p("      child %d | sep %d\n", node.Children[j], node.Keys[j])
				} else {
					p("      child %d\n", node.Children[j])
				}
				queue = append(queue, node.Children[j])
			}
		}
		queue = queue[size:]
		level++
	}
	return nil
}
