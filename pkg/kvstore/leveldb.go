package kvstore

import (
	"errors"
	"fmt"

	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/opt"
	"github.com/syndtr/goleveldb/leveldb/util"
)

// levelStore reads a goleveldb database, geth's default backend.
type levelStore struct {
	db *leveldb.DB
}

func openLevelDB(path string) (Store, error) {
	db, err := leveldb.OpenFile(path, &opt.Options{
		ReadOnly:       true,
		ErrorIfMissing: true,
	})
	if err != nil {
		return nil, fmt.Errorf("open leveldb at %s: %w", path, err)
	}
	return &levelStore{db: db}, nil
}

func (s *levelStore) Get(key []byte) ([]byte, error) {
	val, err := s.db.Get(key, nil)
	if errors.Is(err, leveldb.ErrNotFound) {
		return nil, ErrNotFound
	}
	return val, err
}

func (s *levelStore) Has(key []byte) (bool, error) {
	return s.db.Has(key, nil)
}

func (s *levelStore) Scan(prefix []byte, limit int, fn func(key, value []byte) error) error {
	var slice *util.Range
	if len(prefix) > 0 {
		slice = util.BytesPrefix(prefix)
	}
	iter := s.db.NewIterator(slice, nil)
	defer iter.Release()

	seen := 0
	for iter.Next() {
		if err := fn(iter.Key(), iter.Value()); err != nil {
			return err
		}
		if seen++; limit > 0 && seen >= limit {
			break
		}
	}
	return iter.Error()
}

func (s *levelStore) Close() error {
	return s.db.Close()
}
