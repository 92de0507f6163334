package kvstore

import (
	"errors"
	"fmt"

	badger "github.com/dgraph-io/badger/v4"
)

// badgerStore reads a badger database, used by avalanche-flavored nodes that
// wrap geth-style chain data in badger.
type badgerStore struct {
	db *badger.DB
}

func openBadger(path string) (Store, error) {
	opts := badger.DefaultOptions(path).
		WithReadOnly(true).
		WithLogger(nil)
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger at %s: %w", path, err)
	}
	return &badgerStore{db: db}, nil
}

func (s *badgerStore) Get(key []byte) ([]byte, error) {
	var val []byte
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(key)
		if err != nil {
			return err
		}
		val, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, ErrNotFound
	}
	return val, err
}

func (s *badgerStore) Has(key []byte) (bool, error) {
	_, err := s.Get(key)
	if errors.Is(err, ErrNotFound) {
		return false, nil
	}
	return err == nil, err
}

func (s *badgerStore) Scan(prefix []byte, limit int, fn func(key, value []byte) error) error {
	return s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix
		it := txn.NewIterator(opts)
		defer it.Close()

		seen := 0
		for it.Rewind(); it.Valid(); it.Next() {
			item := it.Item()
			val, err := item.ValueCopy(nil)
			if err != nil {
				return err
			}
			if err := fn(item.Key(), val); err != nil {
				return err
			}
			if seen++; limit > 0 && seen >= limit {
				break
			}
		}
		return nil
	})
}

func (s *badgerStore) Close() error {
	return s.db.Close()
}
