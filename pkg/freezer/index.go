package freezer

import (
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// indexEntrySize is the on-disk size of one index entry: a 2-byte big-endian
// blob file number followed by a 4-byte big-endian offset into that file.
const indexEntrySize = 6

// indexEntry marks one item boundary inside a table's blob file sequence.
// Entry i holds the end boundary of item i-1 and the start boundary of item
// i, so a table with N items carries N+1 entries.
type indexEntry struct {
	filenum uint16
	offset  uint32
}

func (e *indexEntry) unmarshalBinary(b []byte) {
	e.filenum = binary.BigEndian.Uint16(b[:2])
	e.offset = binary.BigEndian.Uint32(b[2:6])
}

// marshalBinary appends the 6-byte encoding of the entry to b.
func (e indexEntry) marshalBinary(b []byte) []byte {
	b = binary.BigEndian.AppendUint16(b, e.filenum)
	b = binary.BigEndian.AppendUint32(b, e.offset)
	return b
}

// IndexPath locates the index file for a table under dir, probing the
// compressed and uncompressed suffix in turn. The boolean reports whether
// the table's blobs are snappy-compressed.
func IndexPath(dir, name string) (string, bool, error) {
	cidx := filepath.Join(dir, name+".cidx")
	if _, err := os.Stat(cidx); err == nil {
		return cidx, true, nil
	}
	ridx := filepath.Join(dir, name+".ridx")
	if _, err := os.Stat(ridx); err == nil {
		return ridx, false, nil
	}
	return "", false, fmt.Errorf("no index file for table %s in %s", name, dir)
}

// readIndex loads the complete entry sequence of an index file into memory.
//
// The file may be appended to by an external writer while we read it. The
// length is validated first and exactly the validated range is read, so a
// concurrent append past that boundary can neither block nor fail the load;
// the new entries are simply picked up by the next read.
func readIndex(path string) ([]indexEntry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	stat, err := f.Stat()
	if err != nil {
		return nil, err
	}
	size := stat.Size()
	if size < indexEntrySize {
		return nil, fmt.Errorf("%w: index file %d bytes, need at least %d", ErrCorruptIndex, size, indexEntrySize)
	}
	if overflow := size % indexEntrySize; overflow != 0 {
		return nil, fmt.Errorf("%w: index file %d bytes, not a multiple of %d", ErrCorruptIndex, size, indexEntrySize)
	}
	buf := make([]byte, size)
	if _, err := io.ReadFull(f, buf); err != nil {
		return nil, err
	}
	entries := make([]indexEntry, size/indexEntrySize)
	for i := range entries {
		entries[i].unmarshalBinary(buf[i*indexEntrySize:])
	}
	if err := checkIndexOrder(entries); err != nil {
		return nil, err
	}
	return entries, nil
}

// checkIndexOrder verifies that file numbers never decrease and that offsets
// never decrease within the same file. Offsets legitimately reset to a lower
// value when the writer rolls over to a fresh blob file.
func checkIndexOrder(entries []indexEntry) error {
	for i := 1; i < len(entries); i++ {
		prev, cur := entries[i-1], entries[i]
		if cur.filenum < prev.filenum {
			return fmt.Errorf("%w: entry %d file number %d after %d", ErrCorruptIndex, i, cur.filenum, prev.filenum)
		}
		if cur.filenum == prev.filenum && cur.offset < prev.offset {
			return fmt.Errorf("%w: entry %d offset %d after %d in file %d", ErrCorruptIndex, i, cur.offset, prev.offset, cur.filenum)
		}
	}
	return nil
}

// DumpIndex writes up to max decoded index entries to w, one line per entry.
// It reads the index file directly and needs no open table.
func DumpIndex(path string, w io.Writer, max int) error {
	entries, err := readIndex(path)
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "| entry  | fileno | offset     |\n")
	fmt.Fprintf(w, "|--------+--------+------------|\n")
	for i, e := range entries {
		if max > 0 && i >= max {
			fmt.Fprintf(w, "| ... %d more entries\n", len(entries)-i)
			break
		}
		fmt.Fprintf(w, "| %6d | %6d | %10d |\n", i, e.filenum, e.offset)
	}
	return nil
}
