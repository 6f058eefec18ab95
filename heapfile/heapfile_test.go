package heapfile

import (
	"bytes"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"IndexDB/blobfile"
	"IndexDB/types"
)

func TestInsertAndGetRecord(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rel")
	hf, err := Create(path)
	require.NoError(t, err)
	defer hf.Close()

	rid1, err := hf.InsertRecord([]byte("first record"))
	require.NoError(t, err)
	rid2, err := hf.InsertRecord([]byte("second record"))
	require.NoError(t, err)

	require.Equal(t, types.PageID(1), rid1.PageNo)
	require.Equal(t, uint16(0), rid1.SlotNo)
	require.Equal(t, uint16(1), rid2.SlotNo)

	rec, err := hf.Record(rid1)
	require.NoError(t, err)
	require.Equal(t, []byte("first record"), rec)

	rec, err = hf.Record(rid2)
	require.NoError(t, err)
	require.Equal(t, []byte("second record"), rec)

	_, err = hf.Record(types.RecordID{PageNo: 1, SlotNo: 99})
	require.Error(t, err)
	_, err = hf.Record(types.RecordID{})
	require.Error(t, err)
}

func TestInsertSpillsToNewPages(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rel")
	hf, err := Create(path)
	require.NoError(t, err)
	defer hf.Close()

	// Big records so a page overflows quickly.
	rec := bytes.Repeat([]byte{0xCD}, 2000)
	var rids []types.RecordID
	for i := 0; i < 20; i++ {
		rid, err := hf.InsertRecord(rec)
		require.NoError(t, err)
		rids = append(rids, rid)
	}
	require.Greater(t, hf.NumPages(), uint32(1), "inserts must spill onto fresh pages")

	for _, rid := range rids {
		got, err := hf.Record(rid)
		require.NoError(t, err)
		require.Equal(t, rec, got)
	}
}

func TestFileScanVisitsEveryRecord(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rel")
	hf, err := Create(path)
	require.NoError(t, err)

	want := make(map[types.RecordID]string)
	for i := 0; i < 500; i++ {
		payload := fmt.Sprintf("record-%04d-%s", i, bytes.Repeat([]byte{'x'}, 50))
		rid, err := hf.InsertRecord([]byte(payload))
		require.NoError(t, err)
		want[rid] = payload
	}
	require.NoError(t, hf.Close())

	hf, err = Open(path)
	require.NoError(t, err)
	defer hf.Close()

	scan := NewFileScan(hf)
	seen := 0
	for {
		rid, err := scan.Next()
		if err != nil {
			require.ErrorIs(t, err, ErrEndOfFile)
			break
		}
		require.Equal(t, want[rid], string(scan.Bytes()))
		seen++
	}
	require.Equal(t, len(want), seen)

	// Drained scans stay drained.
	_, err = scan.Next()
	require.ErrorIs(t, err, ErrEndOfFile)
	require.Nil(t, scan.Bytes())
}

func TestChecksumDetectsCorruption(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rel")
	hf, err := Create(path)
	require.NoError(t, err)
	rid, err := hf.InsertRecord([]byte("important"))
	require.NoError(t, err)
	require.NoError(t, hf.Close())

	// Flip a payload byte behind the heap file's back.
	bf, err := blobfile.Open(path)
	require.NoError(t, err)
	page := make([]byte, types.PageSize)
	require.NoError(t, bf.ReadPage(1, page))
	page[PageHeaderSize] ^= 0xFF
	require.NoError(t, bf.WritePage(1, page))
	require.NoError(t, bf.Close())

	hf, err = Open(path)
	require.NoError(t, err)
	defer hf.Close()
	_, err = hf.Record(rid)
	require.ErrorContains(t, err, "checksum")
}
