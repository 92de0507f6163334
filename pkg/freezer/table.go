package freezer

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"sync"

	"github.com/luxfi/log"
	"github.com/prometheus/client_golang/prometheus"
)

type tableState int

const (
	tableUnopened tableState = iota
	tableOpen
	tableClosed
)

// Table provides read access to one freezer table: an index file of 6-byte
// boundary entries plus a numbered sequence of blob files. All blob files
// are immutable except the head file, which an external writer process may
// still be appending to.
//
// A Table snapshots the index into memory when opened. External appends are
// only observed through an explicit Refresh; staleness in between is
// expected. The table never writes to any file.
type Table struct {
	name      string
	dir       string
	indexPath string
	codec     blobCodec

	// lock guards the in-memory entry sequence, the file handle cache and
	// the state transitions. Retrievals hold it shared; Refresh, Close and
	// first-time blob opens hold it exclusive.
	lock    sync.RWMutex
	state   tableState
	entries []indexEntry
	files   *fileCache

	logger    log.Logger
	readItems prometheus.Counter
	readBytes prometheus.Counter
}

// NewTable opens a freezer table for reading. The compressed flag selects
// both the file suffix convention (.cidx/.cdat vs .ridx/.rdat) and the blob
// codec.
func NewTable(dir, name string, compressed bool, cfg *Config) (*Table, error) {
	cfg = cfg.withDefaults()

	suffix := ".ridx"
	if compressed {
		suffix = ".cidx"
	}
	indexPath := filepath.Join(dir, name+suffix)

	entries, err := readIndex(indexPath)
	if err != nil {
		return nil, fmt.Errorf("table %s: %w", name, err)
	}
	files, err := newFileCache(dir, name, compressed, cfg.MaxOpenFiles)
	if err != nil {
		return nil, fmt.Errorf("table %s: %w", name, err)
	}
	files.setHead(entries[len(entries)-1].filenum)

	t := &Table{
		name:      name,
		dir:       dir,
		indexPath: indexPath,
		codec:     newBlobCodec(compressed),
		state:     tableOpen,
		entries:   entries,
		files:     files,
		logger:    cfg.Logger,
	}
	if cfg.Registerer != nil {
		t.readItems = prometheus.NewCounter(prometheus.CounterOpts{
			Name:        "glacier_freezer_read_items_total",
			Help:        "Items retrieved from the freezer table.",
			ConstLabels: prometheus.Labels{"table": name},
		})
		t.readBytes = prometheus.NewCounter(prometheus.CounterOpts{
			Name:        "glacier_freezer_read_bytes_total",
			Help:        "Decoded bytes retrieved from the freezer table.",
			ConstLabels: prometheus.Labels{"table": name},
		})
		cfg.Registerer.MustRegister(t.readItems, t.readBytes)
	}
	t.logger.Debug("Freezer table opened", "table", name, "items", t.Items(), "headfile", files.headNum)
	return t, nil
}

// Name returns the table name.
func (t *Table) Name() string {
	return t.name
}

// Items returns the number of items last observed in the table.
func (t *Table) Items() uint64 {
	t.lock.RLock()
	defer t.lock.RUnlock()
	if t.state != tableOpen {
		return 0
	}
	return uint64(len(t.entries) - 1)
}

// Has reports whether the item number was covered by the last index read.
func (t *Table) Has(item uint64) bool {
	return item < t.Items()
}

// Retrieve looks up the byte range of the given item, reads it out of the
// backing blob file and decodes it. Errors carry the table name and item
// number.
func (t *Table) Retrieve(item uint64) ([]byte, error) {
	blob, err := t.retrieveRaw(item)
	if err == nil {
		var out []byte
		if out, err = t.codec.decode(blob); err == nil {
			if t.readItems != nil {
				t.readItems.Inc()
				t.readBytes.Add(float64(len(out)))
			}
			return out, nil
		}
	}
	return nil, fmt.Errorf("table %s item %d: %w", t.name, item, err)
}

// retrieveRaw reads the undecoded blob, retrying once on a short read at the
// head file. A short read there is not corruption: the index can name a byte
// range the external writer has indexed but not yet flushed, so the range is
// re-resolved against a fresh index read before the retry.
func (t *Table) retrieveRaw(item uint64) ([]byte, error) {
	blob, filenum, err := t.readBlob(item)
	if !shortRead(err) || filenum != t.headFile() {
		return blob, err
	}
	if rerr := t.Refresh(); rerr != nil {
		return nil, err
	}
	blob, _, err = t.readBlob(item)
	return blob, err
}

func shortRead(err error) bool {
	return errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF)
}

// readBlob resolves the item's byte range under the shared lock and reads it
// from the blob file. Opening a not-yet-cached blob file needs the exclusive
// lock, so the resolution is restarted after the open.
func (t *Table) readBlob(item uint64) ([]byte, uint16, error) {
	for {
		t.lock.RLock()
		if t.state != tableOpen {
			t.lock.RUnlock()
			return nil, 0, ErrClosed
		}
		if item >= uint64(len(t.entries)-1) {
			t.lock.RUnlock()
			return nil, 0, ErrNotFound
		}
		filenum, start, end := t.bounds(item)
		if start == end {
			// zero-length item, valid by definition
			t.lock.RUnlock()
			return []byte{}, filenum, nil
		}
		f, ok := t.files.get(filenum)
		if !ok {
			t.lock.RUnlock()
			if err := t.openBlob(filenum); err != nil {
				return nil, filenum, err
			}
			continue
		}
		blob := make([]byte, end-start)
		_, err := f.ReadAt(blob, int64(start))
		t.lock.RUnlock()
		if err != nil {
			return nil, filenum, err
		}
		return blob, filenum, nil
	}
}

// bounds maps an item number to (file number, start offset, end offset).
// Pure index arithmetic, called with the lock held.
//
// Entry 0 carries the tail file metadata rather than a data offset, so item
// 0 always starts at the beginning of the end entry's file. When start and
// end entries disagree on the file number the writer rolled over between the
// two boundaries, which only ever happens at an item boundary: the item then
// starts at offset 0 of the later file.
func (t *Table) bounds(item uint64) (uint16, uint32, uint32) {
	end := t.entries[item+1]
	if item == 0 {
		return end.filenum, 0, end.offset
	}
	start := t.entries[item]
	if start.filenum != end.filenum {
		return end.filenum, 0, end.offset
	}
	return end.filenum, start.offset, end.offset
}

// headFile returns the blob file number the index currently ends in.
func (t *Table) headFile() uint16 {
	t.lock.RLock()
	defer t.lock.RUnlock()
	if len(t.entries) == 0 {
		return 0
	}
	return t.entries[len(t.entries)-1].filenum
}

// openBlob opens and caches a blob file handle. Concurrent callers racing
// for the same file resolve to a single shared handle.
func (t *Table) openBlob(num uint16) error {
	t.lock.Lock()
	defer t.lock.Unlock()
	if t.state != tableOpen {
		return ErrClosed
	}
	_, err := t.files.open(num)
	return err
}

// Refresh re-reads the index file to pick up items appended by the external
// writer since the table was opened. The entry sequence only ever grows; a
// shrink means the index was truncated behind our back and is reported as
// corruption. On failure the previous snapshot stays intact.
func (t *Table) Refresh() error {
	entries, err := readIndex(t.indexPath)
	if err != nil {
		return fmt.Errorf("table %s: %w", t.name, err)
	}
	t.lock.Lock()
	defer t.lock.Unlock()
	if t.state != tableOpen {
		return fmt.Errorf("table %s: %w", t.name, ErrClosed)
	}
	if len(entries) < len(t.entries) {
		return fmt.Errorf("table %s: %w: index shrank from %d to %d entries",
			t.name, ErrCorruptIndex, len(t.entries), len(entries))
	}
	grown := len(entries) - len(t.entries)
	t.entries = entries
	t.files.setHead(entries[len(entries)-1].filenum)
	if grown > 0 {
		t.logger.Debug("Freezer index refreshed", "table", t.name, "items", len(entries)-1, "appended", grown)
	}
	return nil
}

// Close releases all blob file handles and rejects further retrievals.
func (t *Table) Close() error {
	t.lock.Lock()
	defer t.lock.Unlock()
	if t.state == tableClosed {
		return nil
	}
	t.state = tableClosed
	t.entries = nil
	return t.files.close()
}
