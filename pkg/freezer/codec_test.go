package freezer

import (
	"math/rand"
	"testing"

	"github.com/golang/snappy"
	. "github.com/onsi/gomega"
)

func TestSnappyCodecRoundTrip(t *testing.T) {
	g := NewWithT(t)
	codec := snappyCodec{}

	rng := rand.New(rand.NewSource(42))
	for _, size := range []int{1, 33, 4096, 1 << 17} {
		plain := make([]byte, size)
		rng.Read(plain)

		out, err := codec.decode(snappy.Encode(nil, plain))
		g.Expect(err).NotTo(HaveOccurred())
		g.Expect(out).To(Equal(plain))
	}

	// empty payloads still carry a snappy frame
	out, err := codec.decode(snappy.Encode(nil, nil))
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(out).To(HaveLen(0))
}

func TestSnappyCodecMalformed(t *testing.T) {
	g := NewWithT(t)

	_, err := snappyCodec{}.decode([]byte{0xff, 0xfe, 0xfd, 0xfc})
	g.Expect(err).To(MatchError(ErrDecompress))
}

func TestRawCodecPassthrough(t *testing.T) {
	g := NewWithT(t)

	blob := []byte{1, 2, 3}
	out, err := rawCodec{}.decode(blob)
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(out).To(Equal(blob))
}

func TestCodecSelection(t *testing.T) {
	g := NewWithT(t)

	g.Expect(newBlobCodec(true)).To(Equal(snappyCodec{}))
	g.Expect(newBlobCodec(false)).To(Equal(rawCodec{}))
}
