package freezer

import (
	"fmt"
	"os"
	"path/filepath"

	lru "github.com/hashicorp/golang-lru"
)

// defaultMaxOpenFiles bounds the read handles kept per table for sealed blob
// files. The rotation policy keeps blob files around 2GB each, so even large
// archives stay well under this; the cap only matters as a safety valve.
const defaultMaxOpenFiles = 128

// fileCache holds the lazily-opened read handles of one table's blob files.
//
// The head file is the one an external writer may still be appending to. It
// is re-acquired on almost every retrieval, so it is pinned outside the LRU
// and can never be evicted. Sealed files live in a bounded LRU that closes
// their handle on eviction.
//
// The cache itself carries no lock: opens and head moves happen under the
// owning table's exclusive lock, lookups under its shared lock. The LRU is
// internally synchronized, which keeps the recency bookkeeping done by get
// safe under the shared lock.
type fileCache struct {
	dir    string
	name   string
	suffix string // blob file suffix, "rdat" or "cdat"

	headNum uint16
	head    *os.File
	sealed  *lru.Cache
}

func newFileCache(dir, name string, compressed bool, maxOpen int) (*fileCache, error) {
	suffix := "rdat"
	if compressed {
		suffix = "cdat"
	}
	if maxOpen <= 0 {
		maxOpen = defaultMaxOpenFiles
	}
	sealed, err := lru.NewWithEvict(maxOpen, func(_, value interface{}) {
		value.(*os.File).Close()
	})
	if err != nil {
		return nil, err
	}
	return &fileCache{
		dir:    dir,
		name:   name,
		suffix: suffix,
		sealed: sealed,
	}, nil
}

// blobPath builds the on-disk name of one blob file, e.g. "bodies.0042.cdat".
func (c *fileCache) blobPath(num uint16) string {
	return filepath.Join(c.dir, fmt.Sprintf("%s.%04d.%s", c.name, num, c.suffix))
}

// get returns the cached handle for a blob file, if any.
func (c *fileCache) get(num uint16) (*os.File, bool) {
	if num == c.headNum && c.head != nil {
		return c.head, true
	}
	if f, ok := c.sealed.Get(num); ok {
		return f.(*os.File), true
	}
	return nil, false
}

// open opens a blob file read-only and caches the handle. It is idempotent:
// concurrent callers racing to open the same file resolve to the one handle
// cached first. Must be called under the table's exclusive lock.
func (c *fileCache) open(num uint16) (*os.File, error) {
	if f, ok := c.get(num); ok {
		return f, nil
	}
	f, err := os.Open(c.blobPath(num))
	if err != nil {
		return nil, err
	}
	if num == c.headNum {
		c.head = f
	} else {
		c.sealed.Add(num, f)
	}
	return f, nil
}

// setHead records the current head file number. If the head moved, the old
// head handle is demoted into the sealed LRU since that file is now
// immutable. Must be called under the table's exclusive lock.
func (c *fileCache) setHead(num uint16) {
	if num == c.headNum {
		return
	}
	if c.head != nil {
		c.sealed.Add(c.headNum, c.head)
		c.head = nil
	}
	c.headNum = num
}

// close releases every cached handle. Must be called under the table's
// exclusive lock.
func (c *fileCache) close() error {
	var err error
	if c.head != nil {
		err = c.head.Close()
		c.head = nil
	}
	c.sealed.Purge() // evict callback closes the sealed handles
	return err
}
