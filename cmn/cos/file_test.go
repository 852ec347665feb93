package cos_test

import (
	"os"
	"path/filepath"

	"github.com/hawkingrei/greenhouse/cmn/cos"
	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"
)

var _ = Describe("WriteFileAtomic", func() {
	var dir string

	BeforeEach(func() {
		var err error
		dir, err = os.MkdirTemp("", "cos-file-")
		Expect(err).NotTo(HaveOccurred())
	})

	AfterEach(func() {
		os.RemoveAll(dir)
	})

	It("creates nested parent directories", func() {
		p := filepath.Join(dir, "a", "b", "c", "blob")
		Expect(cos.WriteFileAtomic(p, []byte("hello"), 0o644)).To(Succeed())
		data, err := os.ReadFile(p)
		Expect(err).NotTo(HaveOccurred())
		Expect(data).To(Equal([]byte("hello")))
	})

	It("atomically replaces an existing file, leaving no temp file behind", func() {
		p := filepath.Join(dir, "blob")
		Expect(cos.WriteFileAtomic(p, []byte("v1"), 0o644)).To(Succeed())
		Expect(cos.WriteFileAtomic(p, []byte("v2-longer"), 0o644)).To(Succeed())

		data, err := os.ReadFile(p)
		Expect(err).NotTo(HaveOccurred())
		Expect(data).To(Equal([]byte("v2-longer")))

		entries, err := os.ReadDir(dir)
		Expect(err).NotTo(HaveOccurred())
		Expect(entries).To(HaveLen(1))
	})
})

var _ = Describe("Stat/RemoveFile", func() {
	It("maps a missing file to ErrNotFound", func() {
		_, err := cos.Stat("/no/such/path/surely")
		Expect(cos.IsErrNotFound(err)).To(BeTrue())
	})

	It("treats removing a missing file as a no-op", func() {
		Expect(cos.RemoveFile("/no/such/path/surely")).To(Succeed())
	})
})
