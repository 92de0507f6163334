package chaindb

import (
	"encoding/binary"
	"fmt"
	"math/big"
	"os"
	"path/filepath"
	"testing"

	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/rlp"
	"github.com/golang/snappy"
	. "github.com/onsi/gomega"
	"github.com/syndtr/goleveldb/leveldb"

	"github.com/glacierdb/glacier/pkg/freezer"
	"github.com/glacierdb/glacier/pkg/kvstore"
)

type testBlock struct {
	number   uint64
	hash     []byte
	header   []byte // RLP
	body     []byte
	receipts []byte
	td       []byte // RLP
}

func makeBlock(t *testing.T, number uint64) testBlock {
	t.Helper()
	header := &types.Header{
		ParentHash: crypto.Keccak256Hash([]byte(fmt.Sprintf("parent-%d", number))),
		Number:     new(big.Int).SetUint64(number),
		Difficulty: big.NewInt(int64(number)*1000 + 1),
		GasLimit:   8_000_000,
		Time:       1_600_000_000 + number*13,
		Extra:      []byte("glacier-test"),
	}
	enc, err := rlp.EncodeToBytes(header)
	if err != nil {
		t.Fatal(err)
	}
	td, err := rlp.EncodeToBytes(new(big.Int).SetUint64((number + 1) * 1000))
	if err != nil {
		t.Fatal(err)
	}
	return testBlock{
		number:   number,
		hash:     crypto.Keccak256(enc),
		header:   enc,
		body:     []byte(fmt.Sprintf("body-%d", number)),
		receipts: []byte(fmt.Sprintf("receipts-%d", number)),
		td:       td,
	}
}

// testArchive writes freezer tables the way the node's freezer lays them
// out: one blob file per table plus the pointer index.
type testArchive struct {
	t       *testing.T
	dir     string
	offsets map[string]uint32
}

var archiveTables = map[string]bool{
	freezer.HashTable:       false,
	freezer.HeaderTable:     true,
	freezer.BodyTable:       true,
	freezer.ReceiptTable:    true,
	freezer.DifficultyTable: false,
}

func newTestArchive(t *testing.T, dir string) *testArchive {
	t.Helper()
	if err := os.MkdirAll(dir, 0755); err != nil {
		t.Fatal(err)
	}
	a := &testArchive{t: t, dir: dir, offsets: make(map[string]uint32)}
	for name, compressed := range archiveTables {
		suffix := ".ridx"
		if compressed {
			suffix = ".cidx"
		}
		if err := os.WriteFile(filepath.Join(dir, name+suffix), make([]byte, 6), 0644); err != nil {
			t.Fatal(err)
		}
	}
	return a
}

func (a *testArchive) appendOne(name string, compressed bool, payload []byte) {
	a.t.Helper()
	blob := payload
	idxSuffix, datSuffix := ".ridx", "rdat"
	if compressed {
		blob = snappy.Encode(nil, payload)
		idxSuffix, datSuffix = ".cidx", "cdat"
	}
	dat := filepath.Join(a.dir, fmt.Sprintf("%s.%04d.%s", name, 0, datSuffix))
	fh, err := os.OpenFile(dat, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		a.t.Fatal(err)
	}
	if _, err := fh.Write(blob); err != nil {
		a.t.Fatal(err)
	}
	if err := fh.Close(); err != nil {
		a.t.Fatal(err)
	}

	a.offsets[name] += uint32(len(blob))
	entry := make([]byte, 6)
	binary.BigEndian.PutUint32(entry[2:], a.offsets[name])
	idx, err := os.OpenFile(filepath.Join(a.dir, name+idxSuffix), os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		a.t.Fatal(err)
	}
	if _, err := idx.Write(entry); err != nil {
		a.t.Fatal(err)
	}
	if err := idx.Close(); err != nil {
		a.t.Fatal(err)
	}
}

func (a *testArchive) append(blk testBlock) {
	a.appendOne(freezer.HashTable, false, blk.hash)
	a.appendOne(freezer.HeaderTable, true, blk.header)
	a.appendOne(freezer.BodyTable, true, blk.body)
	a.appendOne(freezer.ReceiptTable, true, blk.receipts)
	a.appendOne(freezer.DifficultyTable, false, blk.td)
}

// seedStore writes a block into a leveldb chaindata directory under the
// recent-block key schema.
func seedStore(t *testing.T, db *leveldb.DB, blk testBlock) {
	t.Helper()
	puts := map[string][]byte{
		string(kvstore.HeaderHashKey(blk.number)):              blk.hash,
		string(kvstore.HeaderKey(blk.number, blk.hash)):        blk.header,
		string(kvstore.HeaderTDKey(blk.number, blk.hash)):      blk.td,
		string(kvstore.BlockBodyKey(blk.number, blk.hash)):     blk.body,
		string(kvstore.BlockReceiptsKey(blk.number, blk.hash)): blk.receipts,
	}
	for k, v := range puts {
		if err := db.Put([]byte(k), v, nil); err != nil {
			t.Fatal(err)
		}
	}
}

// setupChain builds a chaindata directory with blocks [0, frozen) in the
// archive and [frozen, total) in the key-value store.
func setupChain(t *testing.T, frozen, total uint64) (chaindata string, blocks []testBlock) {
	t.Helper()
	chaindata = t.TempDir()
	archive := newTestArchive(t, filepath.Join(chaindata, "ancient"))

	db, err := leveldb.OpenFile(chaindata, nil)
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()

	for n := uint64(0); n < total; n++ {
		blk := makeBlock(t, n)
		blocks = append(blocks, blk)
		if n < frozen {
			archive.append(blk)
		} else {
			seedStore(t, db, blk)
		}
	}
	return chaindata, blocks
}

func TestOpenRoutesAcrossTheSplit(t *testing.T) {
	g := NewWithT(t)
	chaindata, blocks := setupChain(t, 5, 8)

	db, err := Open(chaindata, "", &Config{Backend: kvstore.BackendLevelDB})
	g.Expect(err).NotTo(HaveOccurred())
	defer db.Close()

	g.Expect(db.Ancients()).To(Equal(uint64(5)))
	for _, blk := range blocks {
		hash, err := db.HeaderHash(blk.number)
		g.Expect(err).NotTo(HaveOccurred(), "block %d", blk.number)
		g.Expect(hash.Bytes()).To(Equal(blk.hash))

		header, err := db.HeaderBytes(blk.number)
		g.Expect(err).NotTo(HaveOccurred())
		g.Expect(header).To(Equal(blk.header))

		body, err := db.BodyBytes(blk.number)
		g.Expect(err).NotTo(HaveOccurred())
		g.Expect(body).To(Equal(blk.body))

		receipts, err := db.ReceiptsBytes(blk.number)
		g.Expect(err).NotTo(HaveOccurred())
		g.Expect(receipts).To(Equal(blk.receipts))
	}

	_, err = db.HeaderBytes(8)
	g.Expect(err).To(MatchError(ErrNotFound))
	g.Expect(err.Error()).To(ContainSubstring("block 8"))
}

func TestArchiveWinsOverStore(t *testing.T) {
	g := NewWithT(t)
	chaindata, blocks := setupChain(t, 5, 8)

	// plant a conflicting copy of a frozen block in the store; routing must
	// never consult the store for numbers the archive covers
	ldb, err := leveldb.OpenFile(chaindata, nil)
	g.Expect(err).NotTo(HaveOccurred())
	impostor := blocks[4]
	impostor.header = []byte("impostor header")
	seedStore(t, ldb, impostor)
	g.Expect(ldb.Close()).To(Succeed())

	db, err := Open(chaindata, "", &Config{Backend: kvstore.BackendLevelDB})
	g.Expect(err).NotTo(HaveOccurred())
	defer db.Close()

	header, err := db.HeaderBytes(4)
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(header).To(Equal(blocks[4].header))
}

func TestDecodedAccessors(t *testing.T) {
	g := NewWithT(t)
	chaindata, blocks := setupChain(t, 5, 8)

	db, err := Open(chaindata, "", &Config{Backend: kvstore.BackendLevelDB})
	g.Expect(err).NotTo(HaveOccurred())
	defer db.Close()

	for _, n := range []uint64{0, 4, 7} {
		header, err := db.Header(n)
		g.Expect(err).NotTo(HaveOccurred(), "block %d", n)
		g.Expect(header.Number.Uint64()).To(Equal(n))
		g.Expect(header.Hash().Bytes()).To(Equal(blocks[n].hash))

		td, err := db.Td(n)
		g.Expect(err).NotTo(HaveOccurred())
		g.Expect(td.Uint64()).To(Equal((n + 1) * 1000))
	}
}

func TestStoreOnly(t *testing.T) {
	g := NewWithT(t)
	chaindata, _ := setupChain(t, 5, 8)

	db, err := OpenStore(chaindata, &Config{Backend: kvstore.BackendLevelDB})
	g.Expect(err).NotTo(HaveOccurred())
	defer db.Close()

	g.Expect(db.Ancients()).To(BeZero())

	// frozen blocks are out of reach without the archive
	_, err = db.HeaderBytes(2)
	g.Expect(err).To(MatchError(ErrNotFound))

	header, err := db.HeaderBytes(6)
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(header).NotTo(BeEmpty())
}

func TestArchiveOnly(t *testing.T) {
	g := NewWithT(t)
	chaindata, blocks := setupChain(t, 5, 8)

	db, err := OpenArchive(filepath.Join(chaindata, "ancient"), nil)
	g.Expect(err).NotTo(HaveOccurred())
	defer db.Close()

	header, err := db.HeaderBytes(3)
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(header).To(Equal(blocks[3].header))

	_, err = db.HeaderBytes(6)
	g.Expect(err).To(MatchError(ErrNotFound))
}

func TestRefreshPicksUpNewlyFrozenBlocks(t *testing.T) {
	g := NewWithT(t)
	chaindata := t.TempDir()
	archive := newTestArchive(t, filepath.Join(chaindata, "ancient"))
	for n := uint64(0); n < 3; n++ {
		archive.append(makeBlock(t, n))
	}

	db, err := OpenArchive(archive.dir, nil)
	g.Expect(err).NotTo(HaveOccurred())
	defer db.Close()
	g.Expect(db.Ancients()).To(Equal(uint64(3)))

	blk := makeBlock(t, 3)
	archive.append(blk)

	g.Expect(db.Refresh()).To(Succeed())
	g.Expect(db.Ancients()).To(Equal(uint64(4)))

	header, err := db.HeaderBytes(3)
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(header).To(Equal(blk.header))
}
