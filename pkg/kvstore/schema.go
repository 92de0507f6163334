package kvstore

import "encoding/binary"

// Key layout of geth's chain data, recent-block side. Block numbers are
// always 8-byte big-endian.
var (
	headerPrefix        = []byte("h") // headerPrefix + num + hash -> header RLP
	headerHashSuffix    = []byte("n") // headerPrefix + num + headerHashSuffix -> hash
	headerTDSuffix      = []byte("t") // headerPrefix + num + hash + headerTDSuffix -> td RLP
	headerNumberPrefix  = []byte("H") // headerNumberPrefix + hash -> num
	blockBodyPrefix     = []byte("b") // blockBodyPrefix + num + hash -> body RLP
	blockReceiptsPrefix = []byte("r") // blockReceiptsPrefix + num + hash -> receipts RLP
)

// EncodeBlockNumber encodes a block number as the 8-byte big-endian value
// used in every chain-data key.
func EncodeBlockNumber(number uint64) []byte {
	enc := make([]byte, 8)
	binary.BigEndian.PutUint64(enc, number)
	return enc
}

// HeaderHashKey returns the key holding the canonical header hash of a block
// number: 'h' ++ num ++ 'n'.
func HeaderHashKey(number uint64) []byte {
	return append(append(headerPrefix, EncodeBlockNumber(number)...), headerHashSuffix...)
}

// HeaderKey returns the key holding the RLP header of a block:
// 'h' ++ num ++ hash.
func HeaderKey(number uint64, hash []byte) []byte {
	return append(append(headerPrefix, EncodeBlockNumber(number)...), hash...)
}

// HeaderTDKey returns the key holding the RLP total difficulty of a block:
// 'h' ++ num ++ hash ++ 't'.
func HeaderTDKey(number uint64, hash []byte) []byte {
	return append(HeaderKey(number, hash), headerTDSuffix...)
}

// HeaderNumberKey returns the reverse-mapping key from a header hash to its
// block number: 'H' ++ hash.
func HeaderNumberKey(hash []byte) []byte {
	return append(headerNumberPrefix, hash...)
}

// BlockBodyKey returns the key holding the RLP block body:
// 'b' ++ num ++ hash.
func BlockBodyKey(number uint64, hash []byte) []byte {
	return append(append(blockBodyPrefix, EncodeBlockNumber(number)...), hash...)
}

// BlockReceiptsKey returns the key holding the RLP block receipts:
// 'r' ++ num ++ hash.
func BlockReceiptsKey(number uint64, hash []byte) []byte {
	return append(append(blockReceiptsPrefix, EncodeBlockNumber(number)...), hash...)
}

// KeyTypeName names the chain-data key family of a prefix byte, for the
// inspection commands.
func KeyTypeName(prefix byte) string {
	switch prefix {
	case 'h':
		return "header"
	case 'H':
		return "hash->number"
	case 'b':
		return "body"
	case 'r':
		return "receipts"
	case 'n':
		return "number"
	case 't':
		return "transaction lookup"
	case 'l':
		return "log index"
	default:
		return "unknown"
	}
}
