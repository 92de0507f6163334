package chaindb

import (
	"bytes"
	"fmt"

	"github.com/ethereum/go-ethereum/crypto"

	"github.com/glacierdb/glacier/pkg/freezer"
)

// maxVerifyFailures aborts a verification sweep that keeps failing; past
// this point the archive is wrong wholesale, not at isolated blocks.
const maxVerifyFailures = 100

// VerifyHeaderHashes sweeps the archive and checks that the keccak hash of
// every stored header matches the hash table entry for the same block. It
// walks every frozen block, so expect it to take a while on a full archive;
// progress, when non-nil, is called every 10000 blocks.
//
// It returns the number of blocks checked and the number of mismatches.
func (db *DB) VerifyHeaderHashes(progress func(done uint64)) (verified, failed uint64, err error) {
	if db.frozen == nil {
		return 0, 0, fmt.Errorf("no archive configured")
	}
	count := db.frozen.Ancients()
	for number := uint64(0); number < count; number++ {
		if progress != nil && number%10000 == 0 {
			progress(number)
		}
		hash, err := db.frozen.Ancient(freezer.HashTable, number)
		if err != nil {
			return verified, failed, err
		}
		header, err := db.frozen.Ancient(freezer.HeaderTable, number)
		if err != nil {
			return verified, failed, err
		}
		verified++
		if !bytes.Equal(crypto.Keccak256(header), hash) {
			failed++
			db.logger.Warn("Header hash mismatch", "block", number)
			if failed > maxVerifyFailures {
				return verified, failed, fmt.Errorf("aborting after %d hash mismatches", failed)
			}
		}
	}
	return verified, failed, nil
}
