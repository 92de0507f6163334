package freezer

import "errors"

var (
	// ErrClosed is returned if an operation attempts to read from the
	// freezer table after it has already been closed.
	ErrClosed = errors.New("freezer table closed")

	// ErrNotFound is returned if the item requested is not contained
	// within the freezer table.
	ErrNotFound = errors.New("freezer item not found")

	// ErrCorruptIndex is returned when the index file length, entry
	// ordering or growth direction violates the table format.
	ErrCorruptIndex = errors.New("corrupt freezer index")

	// ErrDecompress is returned when a compressed blob cannot be
	// snappy-decoded.
	ErrDecompress = errors.New("malformed compressed blob")

	// ErrUnknownTable is returned when an archive accessor names a table
	// the freezer does not carry.
	ErrUnknownTable = errors.New("unknown freezer table")
)
