package chaindb

import (
	"os"
	"path/filepath"
	"testing"

	. "github.com/onsi/gomega"
)

func TestVerifyHeaderHashesClean(t *testing.T) {
	g := NewWithT(t)
	chaindata, _ := setupChain(t, 5, 5)

	db, err := OpenArchive(filepath.Join(chaindata, "ancient"), nil)
	g.Expect(err).NotTo(HaveOccurred())
	defer db.Close()

	var calls int
	verified, failed, err := db.VerifyHeaderHashes(func(done uint64) { calls++ })
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(verified).To(Equal(uint64(5)))
	g.Expect(failed).To(BeZero())
	g.Expect(calls).To(Equal(1)) // once, at block 0
}

func TestVerifyHeaderHashesDetectsTampering(t *testing.T) {
	g := NewWithT(t)
	chaindata, _ := setupChain(t, 5, 5)
	ancient := filepath.Join(chaindata, "ancient")

	// flip the stored hash of block 2; hashes are raw 32-byte records
	fh, err := os.OpenFile(filepath.Join(ancient, "hashes.0000.rdat"), os.O_WRONLY, 0644)
	g.Expect(err).NotTo(HaveOccurred())
	_, err = fh.WriteAt(make([]byte, 32), 2*32)
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(fh.Close()).To(Succeed())

	db, err := OpenArchive(ancient, nil)
	g.Expect(err).NotTo(HaveOccurred())
	defer db.Close()

	verified, failed, err := db.VerifyHeaderHashes(nil)
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(verified).To(Equal(uint64(5)))
	g.Expect(failed).To(Equal(uint64(1)))
}

func TestVerifyHeaderHashesNeedsArchive(t *testing.T) {
	g := NewWithT(t)
	chaindata, _ := setupChain(t, 0, 3)

	db, err := OpenStore(chaindata, nil)
	g.Expect(err).NotTo(HaveOccurred())
	defer db.Close()

	_, _, err = db.VerifyHeaderHashes(nil)
	g.Expect(err).To(HaveOccurred())
}
