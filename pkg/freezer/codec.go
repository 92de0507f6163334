package freezer

import (
	"fmt"

	"github.com/golang/snappy"
)

// blobCodec turns the raw byte range cut out of a blob file into the final
// item payload. Compression is a whole-table property encoded in the file
// suffixes, so the codec is chosen once at table-open time and never
// re-inspected per item.
type blobCodec interface {
	decode(blob []byte) ([]byte, error)
}

// rawCodec passes blobs through untouched (.ridx / .rdat tables).
type rawCodec struct{}

func (rawCodec) decode(blob []byte) ([]byte, error) {
	return blob, nil
}

// snappyCodec snappy-decompresses blobs (.cidx / .cdat tables).
type snappyCodec struct{}

func (snappyCodec) decode(blob []byte) ([]byte, error) {
	out, err := snappy.Decode(nil, blob)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecompress, err)
	}
	return out, nil
}

func newBlobCodec(compressed bool) blobCodec {
	if compressed {
		return snappyCodec{}
	}
	return rawCodec{}
}
