// Package chaindb bundles the freezer archive and the key-value store into
// one reader for a node's chain data. Historical blocks come from the
// archive, recent ones from the store; the split point is whatever the
// archive claims to hold.
package chaindb

import (
	"errors"
	"fmt"
	"math/big"
	"path/filepath"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/rlp"
	"github.com/holiman/uint256"
	"github.com/luxfi/log"

	"github.com/glacierdb/glacier/pkg/freezer"
	"github.com/glacierdb/glacier/pkg/kvstore"
)

// ErrNotFound is returned when neither backing store holds the requested
// block.
var ErrNotFound = errors.New("chaindb: block not found")

// Config carries the optional knobs for opening a chain database.
type Config struct {
	Backend string          // force a kvstore backend, empty auto-detects
	Freezer *freezer.Config // archive options, nil for defaults
	Logger  log.Logger
}

func (c *Config) withDefaults() *Config {
	out := Config{}
	if c != nil {
		out = *c
	}
	if out.Logger == nil {
		out.Logger = log.NewLogger("chaindb")
	}
	if out.Freezer == nil {
		out.Freezer = &freezer.Config{}
	}
	if out.Freezer.Logger == nil {
		out.Freezer.Logger = out.Logger
	}
	return &out
}

// DB reads a node's chain data directly from disk, bypassing the node.
// Either backend may be absent: an archive-only DB serves nothing past the
// frozen range, a store-only DB serves nothing from it.
type DB struct {
	frozen *freezer.Freezer
	store  kvstore.Store
	logger log.Logger
}

// Open opens the key-value store at chaindata and the freezer archive at
// ancient. An empty ancient path uses the node convention
// <chaindata>/ancient.
func Open(chaindata, ancient string, cfg *Config) (*DB, error) {
	cfg = cfg.withDefaults()
	if ancient == "" {
		ancient = filepath.Join(chaindata, "ancient")
	}
	store, err := kvstore.Open(chaindata, cfg.Backend)
	if err != nil {
		return nil, err
	}
	frozen, err := freezer.Open(ancient, cfg.Freezer)
	if err != nil {
		store.Close()
		return nil, err
	}
	return &DB{frozen: frozen, store: store, logger: cfg.Logger}, nil
}

// OpenArchive opens only the freezer archive at ancient.
func OpenArchive(ancient string, cfg *Config) (*DB, error) {
	cfg = cfg.withDefaults()
	frozen, err := freezer.Open(ancient, cfg.Freezer)
	if err != nil {
		return nil, err
	}
	return &DB{frozen: frozen, logger: cfg.Logger}, nil
}

// OpenStore opens only the key-value store at chaindata. Blocks that were
// moved into an archive are not reachable through such a DB and report
// ErrNotFound rather than being silently misrouted.
func OpenStore(chaindata string, cfg *Config) (*DB, error) {
	cfg = cfg.withDefaults()
	store, err := kvstore.Open(chaindata, cfg.Backend)
	if err != nil {
		return nil, err
	}
	return &DB{store: store, logger: cfg.Logger}, nil
}

// Ancients returns the number of blocks held by the archive, zero when no
// archive is configured.
func (db *DB) Ancients() uint64 {
	if db.frozen == nil {
		return 0
	}
	return db.frozen.Ancients()
}

// useArchive decides the routing for one block number. The archive wins for
// any number it claims to hold, even if the store happens to retain it too.
func (db *DB) useArchive(number uint64) bool {
	return db.frozen != nil && number < db.frozen.Ancients()
}

// remap annotates backend lookup misses as ErrNotFound with the block
// number; other errors pass through untouched.
func remap(number uint64, err error) error {
	if errors.Is(err, freezer.ErrNotFound) || errors.Is(err, kvstore.ErrNotFound) {
		return fmt.Errorf("block %d: %w", number, ErrNotFound)
	}
	return err
}

// HeaderHash returns the canonical header hash of a block number.
func (db *DB) HeaderHash(number uint64) (common.Hash, error) {
	if db.useArchive(number) {
		blob, err := db.frozen.Ancient(freezer.HashTable, number)
		if err != nil {
			return common.Hash{}, remap(number, err)
		}
		return common.BytesToHash(blob), nil
	}
	if db.store == nil {
		return common.Hash{}, fmt.Errorf("block %d: %w", number, ErrNotFound)
	}
	blob, err := db.store.Get(kvstore.HeaderHashKey(number))
	if err != nil {
		return common.Hash{}, remap(number, err)
	}
	return common.BytesToHash(blob), nil
}

// HeaderBytes returns the RLP header payload of a block number.
func (db *DB) HeaderBytes(number uint64) ([]byte, error) {
	if db.useArchive(number) {
		blob, err := db.frozen.Ancient(freezer.HeaderTable, number)
		return blob, remapNil(number, err)
	}
	return db.storeGet(number, kvstore.HeaderKey)
}

// BodyBytes returns the RLP block body payload of a block number.
func (db *DB) BodyBytes(number uint64) ([]byte, error) {
	if db.useArchive(number) {
		blob, err := db.frozen.Ancient(freezer.BodyTable, number)
		return blob, remapNil(number, err)
	}
	return db.storeGet(number, kvstore.BlockBodyKey)
}

// ReceiptsBytes returns the RLP receipts payload of a block number.
func (db *DB) ReceiptsBytes(number uint64) ([]byte, error) {
	if db.useArchive(number) {
		blob, err := db.frozen.Ancient(freezer.ReceiptTable, number)
		return blob, remapNil(number, err)
	}
	return db.storeGet(number, kvstore.BlockReceiptsKey)
}

// TdBytes returns the RLP total difficulty payload of a block number.
func (db *DB) TdBytes(number uint64) ([]byte, error) {
	if db.useArchive(number) {
		blob, err := db.frozen.Ancient(freezer.DifficultyTable, number)
		return blob, remapNil(number, err)
	}
	return db.storeGet(number, kvstore.HeaderTDKey)
}

// storeGet resolves the canonical hash for the number and fetches the value
// under key(number, hash) from the key-value store.
func (db *DB) storeGet(number uint64, key func(uint64, []byte) []byte) ([]byte, error) {
	if db.store == nil {
		return nil, fmt.Errorf("block %d: %w", number, ErrNotFound)
	}
	hash, err := db.HeaderHash(number)
	if err != nil {
		return nil, err
	}
	blob, err := db.store.Get(key(number, hash.Bytes()))
	if err != nil {
		return nil, remap(number, err)
	}
	return blob, nil
}

func remapNil(number uint64, err error) error {
	if err != nil {
		return remap(number, err)
	}
	return nil
}

// Header returns the decoded header of a block number.
func (db *DB) Header(number uint64) (*types.Header, error) {
	blob, err := db.HeaderBytes(number)
	if err != nil {
		return nil, err
	}
	header := new(types.Header)
	if err := rlp.DecodeBytes(blob, header); err != nil {
		return nil, fmt.Errorf("block %d: decode header: %w", number, err)
	}
	return header, nil
}

// Td returns the decoded total difficulty of a block number.
func (db *DB) Td(number uint64) (*uint256.Int, error) {
	blob, err := db.TdBytes(number)
	if err != nil {
		return nil, err
	}
	td := new(big.Int)
	if err := rlp.DecodeBytes(blob, td); err != nil {
		return nil, fmt.Errorf("block %d: decode td: %w", number, err)
	}
	out, overflow := uint256.FromBig(td)
	if overflow {
		return nil, fmt.Errorf("block %d: td overflows 256 bits", number)
	}
	return out, nil
}

// Refresh re-reads the archive indexes to pick up blocks frozen since the
// DB was opened. A no-op without an archive.
func (db *DB) Refresh() error {
	if db.frozen == nil {
		return nil
	}
	return db.frozen.Refresh()
}

// Close releases both backends.
func (db *DB) Close() error {
	var errs []error
	if db.frozen != nil {
		errs = append(errs, db.frozen.Close())
	}
	if db.store != nil {
		errs = append(errs, db.store.Close())
	}
	return errors.Join(errs...)
}
