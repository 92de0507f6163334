package freezer

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/golang/snappy"
)

// fixture plays the external writer: it builds a real on-disk freezer table
// and can keep appending to it after a Table was opened, the way a live node
// grows its archive under a reader.
type fixture struct {
	t           *testing.T
	dir         string
	name        string
	compressed  bool
	maxFileSize uint32

	entries []indexEntry
	items   [][]byte // decoded payloads, for reference checks
}

func newFixture(t *testing.T, dir, name string, compressed bool, maxFileSize uint32) *fixture {
	t.Helper()
	f := &fixture{
		t:           t,
		dir:         dir,
		name:        name,
		compressed:  compressed,
		maxFileSize: maxFileSize,
		entries:     []indexEntry{{}},
	}
	f.writeIndex(f.entries)
	return f
}

func (f *fixture) indexPath() string {
	suffix := ".ridx"
	if f.compressed {
		suffix = ".cidx"
	}
	return filepath.Join(f.dir, f.name+suffix)
}

func (f *fixture) blobPath(num uint16) string {
	suffix := "rdat"
	if f.compressed {
		suffix = "cdat"
	}
	return filepath.Join(f.dir, fmt.Sprintf("%s.%04d.%s", f.name, num, suffix))
}

func (f *fixture) writeIndex(entries []indexEntry) {
	f.t.Helper()
	var buf []byte
	for _, e := range entries {
		buf = e.marshalBinary(buf)
	}
	if err := os.WriteFile(f.indexPath(), buf, 0644); err != nil {
		f.t.Fatal(err)
	}
}

// append adds items to the table, rolling over to a fresh blob file whenever
// the current one is full, and extends the index file in place.
func (f *fixture) append(items ...[]byte) {
	f.t.Helper()
	head := f.entries[len(f.entries)-1]
	var added []indexEntry
	for _, item := range items {
		blob := item
		if f.compressed {
			blob = snappy.Encode(nil, item)
		}
		if head.offset > 0 && head.offset+uint32(len(blob)) > f.maxFileSize {
			head = indexEntry{filenum: head.filenum + 1}
		}
		fh, err := os.OpenFile(f.blobPath(head.filenum), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			f.t.Fatal(err)
		}
		if _, err := fh.Write(blob); err != nil {
			f.t.Fatal(err)
		}
		if err := fh.Close(); err != nil {
			f.t.Fatal(err)
		}
		head.offset += uint32(len(blob))
		added = append(added, head)
		f.items = append(f.items, item)
	}
	var buf []byte
	for _, e := range added {
		buf = e.marshalBinary(buf)
	}
	idx, err := os.OpenFile(f.indexPath(), os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		f.t.Fatal(err)
	}
	if _, err := idx.Write(buf); err != nil {
		f.t.Fatal(err)
	}
	if err := idx.Close(); err != nil {
		f.t.Fatal(err)
	}
	f.entries = append(f.entries, added...)
}

// payload builds a deterministic, mildly compressible test payload.
func payload(n, size int) []byte {
	out := make([]byte, size)
	for i := range out {
		out[i] = byte(n + i/4)
	}
	return out
}
