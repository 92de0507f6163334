package freezer

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/luxfi/log"
	"github.com/prometheus/client_golang/prometheus"
)

// Chain freezer table names, shared block numbering: item n in every table
// belongs to block n.
const (
	HashTable       = "hashes"
	HeaderTable     = "headers"
	BodyTable       = "bodies"
	ReceiptTable    = "receipts"
	DifficultyTable = "diffs"
)

// chainTableSchema maps each chain table to whether its blobs are
// snappy-compressed on disk. Hashes and difficulties are too small to be
// worth compressing, so geth writes those raw.
var chainTableSchema = map[string]bool{
	HashTable:       false,
	HeaderTable:     true,
	BodyTable:       true,
	ReceiptTable:    true,
	DifficultyTable: false,
}

// Config carries the optional knobs for opening tables and archives.
type Config struct {
	Logger       log.Logger
	Registerer   prometheus.Registerer // nil disables read metrics
	MaxOpenFiles int                   // per-table sealed handle cap, 0 for default
}

func (c *Config) withDefaults() *Config {
	out := Config{}
	if c != nil {
		out = *c
	}
	if out.Logger == nil {
		out.Logger = log.NewLogger("freezer")
	}
	return &out
}

// Freezer aggregates the chain freezer tables rooted at one directory and
// exposes typed read access to them. Item numbering is shared across the
// tables, so the archive's block count is meaningful only while the tables
// agree on it; that consistency is checked when the archive is opened and
// after every refresh.
type Freezer struct {
	dir    string
	tables map[string]*Table
	logger log.Logger
}

// Open opens all chain tables under dir and verifies that their item counts
// line up.
func Open(dir string, cfg *Config) (*Freezer, error) {
	cfg = cfg.withDefaults()

	f := &Freezer{
		dir:    dir,
		tables: make(map[string]*Table, len(chainTableSchema)),
		logger: cfg.Logger,
	}
	for name, compressed := range chainTableSchema {
		table, err := NewTable(dir, name, compressed, cfg)
		if err != nil {
			f.Close()
			return nil, err
		}
		f.tables[name] = table
	}
	if err := f.checkConsistency(); err != nil {
		f.Close()
		return nil, err
	}
	f.logger.Info("Freezer archive opened", "dir", dir, "blocks", f.Ancients())
	return f, nil
}

// checkConsistency fails when the tables disagree on the item count, naming
// every table and its count so the offender is obvious.
func (f *Freezer) checkConsistency() error {
	var (
		first  uint64
		agreed = true
		counts = make([]string, 0, len(f.tables))
		names  = make([]string, 0, len(f.tables))
	)
	for name := range f.tables {
		names = append(names, name)
	}
	sort.Strings(names)
	for i, name := range names {
		items := f.tables[name].Items()
		if i == 0 {
			first = items
		} else if items != first {
			agreed = false
		}
		counts = append(counts, fmt.Sprintf("%s=%d", name, items))
	}
	if !agreed {
		return fmt.Errorf("%w: tables disagree on item count: %s",
			ErrCorruptIndex, strings.Join(counts, " "))
	}
	return nil
}

// Ancients returns the number of blocks covered by the archive. After a
// refresh observed the writer mid-append the tables can briefly disagree,
// so the minimum across tables is what the archive claims to fully hold.
func (f *Freezer) Ancients() uint64 {
	var min uint64
	for i, table := range f.tablesOrdered() {
		items := table.Items()
		if i == 0 || items < min {
			min = items
		}
	}
	return min
}

func (f *Freezer) tablesOrdered() []*Table {
	names := make([]string, 0, len(f.tables))
	for name := range f.tables {
		names = append(names, name)
	}
	sort.Strings(names)
	out := make([]*Table, 0, len(names))
	for _, name := range names {
		out = append(out, f.tables[name])
	}
	return out
}

// HasAncient reports whether the archive holds the given item of a table.
func (f *Freezer) HasAncient(kind string, number uint64) (bool, error) {
	table, ok := f.tables[kind]
	if !ok {
		return false, fmt.Errorf("%w: %s", ErrUnknownTable, kind)
	}
	return table.Has(number), nil
}

// Ancient retrieves the raw payload of one item from the named table.
func (f *Freezer) Ancient(kind string, number uint64) ([]byte, error) {
	table, ok := f.tables[kind]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownTable, kind)
	}
	return table.Retrieve(number)
}

// Table exposes one of the archive's tables by name.
func (f *Freezer) Table(kind string) (*Table, error) {
	table, ok := f.tables[kind]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownTable, kind)
	}
	return table, nil
}

// Refresh re-reads every table's index to pick up externally appended
// blocks. Individual tables keep their grow-only guarantee; the archive
// level tolerates a transient count skew from a mid-append observation.
func (f *Freezer) Refresh() error {
	for _, table := range f.tablesOrdered() {
		if err := table.Refresh(); err != nil {
			return err
		}
	}
	return nil
}

// Close releases all tables. Safe to call more than once.
func (f *Freezer) Close() error {
	var errs []error
	for _, table := range f.tables {
		if err := table.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
