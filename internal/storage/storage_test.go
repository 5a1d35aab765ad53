package storage

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"fintrack/pkg/config"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/zap"
)

func TestStorage(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Storage Suite")
}

var _ = Describe("LocalStorage", func() {
	var (
		basePath string
		store    *LocalStorage
		err      error
	)

	BeforeEach(func() {
		basePath = filepath.Join(GinkgoT().TempDir(), "objects")
		store, err = NewLocalStorage(basePath)
		Expect(err).NotTo(HaveOccurred())
	})

	It("should create the base directory", func() {
		info, statErr := os.Stat(basePath)
		Expect(statErr).NotTo(HaveOccurred())
		Expect(info.IsDir()).To(BeTrue())
	})

	When("saving and reading an object", func() {
		BeforeEach(func() {
			err = store.Save(context.Background(), "receipts/abc.pdf", []byte("pdf bytes"))
			Expect(err).NotTo(HaveOccurred())
		})

		It("should round-trip the data", func() {
			data, getErr := store.Get(context.Background(), "receipts/abc.pdf")
			Expect(getErr).NotTo(HaveOccurred())
			Expect(data).To(Equal([]byte("pdf bytes")))
		})

		It("should create intermediate directories for the key", func() {
			_, statErr := os.Stat(filepath.Join(basePath, "receipts", "abc.pdf"))
			Expect(statErr).NotTo(HaveOccurred())
		})

		It("should delete the object", func() {
			Expect(store.Delete(context.Background(), "receipts/abc.pdf")).To(Succeed())

			_, getErr := store.Get(context.Background(), "receipts/abc.pdf")
			Expect(getErr).To(MatchError(ErrStorageFailure))
		})
	})

	When("deleting a missing object", func() {
		It("should not return an error", func() {
			Expect(store.Delete(context.Background(), "receipts/nope.jpg")).To(Succeed())
		})

		It("should stay idempotent across repeated deletes", func() {
			Expect(store.Save(context.Background(), "r.jpg", []byte("x"))).To(Succeed())
			Expect(store.Delete(context.Background(), "r.jpg")).To(Succeed())
			Expect(store.Delete(context.Background(), "r.jpg")).To(Succeed())
		})
	})

	When("reading a missing object", func() {
		It("should return ErrStorageFailure", func() {
			_, getErr := store.Get(context.Background(), "missing.jpg")
			Expect(getErr).To(MatchError(ErrStorageFailure))
		})
	})
})

var _ = Describe("New", func() {
	It("should default to the local driver", func() {
		store, err := New(&config.StorageConfig{
			Driver:    "",
			LocalPath: filepath.Join(GinkgoT().TempDir(), "s"),
		}, zap.NewNop())
		Expect(err).NotTo(HaveOccurred())
		Expect(store).To(BeAssignableToTypeOf(&LocalStorage{}))
	})

	It("should reject an unknown driver", func() {
		_, err := New(&config.StorageConfig{Driver: "ftp"}, zap.NewNop())
		Expect(err).To(HaveOccurred())
	})
})
