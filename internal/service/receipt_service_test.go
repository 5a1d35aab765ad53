package service

import (
	"context"
	"errors"
	"os"
	"strings"
	"sync"
	"testing"

	"fintrack/internal/currency"
	"fintrack/internal/document"
	"fintrack/internal/vision"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

func TestService(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Service Suite")
}

type fakeRasterizer struct {
	capability document.Capability
	succeed    bool
	called     bool
}

func (f *fakeRasterizer) Probe() document.Capability { return f.capability }

func (f *fakeRasterizer) ToImage(ctx context.Context, pdfPath, outPath string) bool {
	f.called = true
	if !f.succeed {
		return false
	}
	if err := os.WriteFile(outPath, []byte("rendered image"), 0o644); err != nil {
		return false
	}
	return true
}

type fakeCompressor struct {
	err    error
	called bool
}

func (f *fakeCompressor) Compress(ctx context.Context, sourcePath, destinationPath string) error {
	f.called = true
	if f.err != nil {
		return f.err
	}
	data, err := os.ReadFile(sourcePath)
	if err != nil {
		return err
	}
	return os.WriteFile(destinationPath, append([]byte("compressed:"), data...), 0o644)
}

type fakeExtractor struct {
	result   *vision.ExtractionResult
	err      error
	gotPath  string
	gotBytes []byte
}

func (f *fakeExtractor) Extract(ctx context.Context, imagePath string) (*vision.ExtractionResult, error) {
	f.gotPath = imagePath
	f.gotBytes, _ = os.ReadFile(imagePath)
	if f.err != nil {
		return nil, f.err
	}
	return f.result, nil
}

type fakeConverter struct {
	err error
}

func (f *fakeConverter) Convert(ctx context.Context, amount decimal.Decimal, fromCurrency string) (*currency.ConversionResult, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &currency.ConversionResult{
		AmountBase:       amount.Mul(decimal.NewFromFloat(0.85)).Round(2),
		OriginalAmount:   amount,
		OriginalCurrency: fromCurrency,
		ExchangeRate:     decimal.NewFromFloat(0.85),
	}, nil
}

type memoryStorage struct {
	mu      sync.Mutex
	objects map[string][]byte
	deleted []string
	saveErr error
}

func newMemoryStorage() *memoryStorage {
	return &memoryStorage{objects: make(map[string][]byte)}
}

func (m *memoryStorage) Save(ctx context.Context, key string, data []byte) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[key] = append([]byte(nil), data...)
	return nil
}

func (m *memoryStorage) Get(ctx context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.objects[key]
	if !ok {
		return nil, errors.New("not found")
	}
	return data, nil
}

func (m *memoryStorage) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deleted = append(m.deleted, key)
	delete(m.objects, key)
	return nil
}

func (m *memoryStorage) keys() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	keys := make([]string, 0, len(m.objects))
	for k := range m.objects {
		keys = append(keys, k)
	}
	return keys
}

var _ = Describe("ReceiptService", func() {
	var (
		rasterizer *fakeRasterizer
		compressor *fakeCompressor
		extractor  *fakeExtractor
		converter  *fakeConverter
		store      *memoryStorage
		scratchDir string
		svc        *ReceiptService

		result *ReceiptResult
		err    error
	)

	BeforeEach(func() {
		rasterizer = &fakeRasterizer{
			capability: document.NewCapability(true, ""),
			succeed:    true,
		}
		compressor = &fakeCompressor{}
		extractor = &fakeExtractor{
			result: &vision.ExtractionResult{
				Amount:      decimal.NewFromFloat(12.99),
				Currency:    "GBP",
				Description: "Groceries",
				Category:    "Food",
			},
		}
		converter = &fakeConverter{}
		store = newMemoryStorage()
		scratchDir = GinkgoT().TempDir()

		svc = NewReceiptService(rasterizer, compressor, extractor, converter, store, scratchDir, zap.NewNop())
	})

	imageUpload := func() Upload {
		return Upload{Data: []byte("jpeg bytes"), MimeType: "image/jpeg", Filename: "receipt.jpg"}
	}
	pdfUpload := func() Upload {
		return Upload{Data: []byte("%PDF-1.4 bytes"), MimeType: "application/pdf", Filename: "receipt.pdf"}
	}

	expectScratchEmpty := func() {
		entries, readErr := os.ReadDir(scratchDir)
		Expect(readErr).NotTo(HaveOccurred())
		Expect(entries).To(BeEmpty())
	}

	When("analyzing an image receipt", func() {
		JustBeforeEach(func() {
			result, err = svc.Process(context.Background(), imageUpload(), ModeAnalyze)
		})

		It("should not return an error", func() {
			Expect(err).NotTo(HaveOccurred())
		})

		It("should pass the compressed image to the extractor", func() {
			Expect(string(extractor.gotBytes)).To(Equal("compressed:jpeg bytes"))
		})

		It("should normalize the extracted amount", func() {
			Expect(result.Conversion.AmountBase.String()).To(Equal("11.04"))
			Expect(result.Conversion.OriginalCurrency).To(Equal("GBP"))
		})

		It("should not touch durable storage", func() {
			Expect(result.StoragePath).To(BeNil())
			Expect(store.keys()).To(BeEmpty())
		})

		It("should not invoke the rasterizer", func() {
			Expect(rasterizer.called).To(BeFalse())
		})

		It("should remove its scratch files", func() {
			expectScratchEmpty()
		})
	})

	When("persisting an image receipt", func() {
		JustBeforeEach(func() {
			result, err = svc.Process(context.Background(), imageUpload(), ModePersist)
		})

		It("should store the compressed image", func() {
			Expect(err).NotTo(HaveOccurred())
			Expect(result.StoragePath).NotTo(BeNil())

			data, getErr := store.Get(context.Background(), *result.StoragePath)
			Expect(getErr).NotTo(HaveOccurred())
			Expect(string(data)).To(Equal("compressed:jpeg bytes"))
		})

		It("should key the object under receipts with the right extension", func() {
			Expect(*result.StoragePath).To(HavePrefix("receipts/"))
			Expect(*result.StoragePath).To(HaveSuffix(".jpg"))
		})

		It("should remove its scratch files", func() {
			expectScratchEmpty()
		})
	})

	When("persisting a PDF receipt", func() {
		JustBeforeEach(func() {
			result, err = svc.Process(context.Background(), pdfUpload(), ModePersist)
		})

		It("should rasterize before extraction", func() {
			Expect(err).NotTo(HaveOccurred())
			Expect(rasterizer.called).To(BeTrue())
			Expect(string(extractor.gotBytes)).To(Equal("compressed:rendered image"))
		})

		It("should store the original PDF bytes, not the rendering", func() {
			data, getErr := store.Get(context.Background(), *result.StoragePath)
			Expect(getErr).NotTo(HaveOccurred())
			Expect(string(data)).To(Equal("%PDF-1.4 bytes"))
			Expect(*result.StoragePath).To(HaveSuffix(".pdf"))
		})

		It("should remove its scratch files", func() {
			expectScratchEmpty()
		})
	})

	When("PDF rendering is not available", func() {
		BeforeEach(func() {
			rasterizer.capability = document.NewCapability(false, "mupdf missing")
		})

		JustBeforeEach(func() {
			result, err = svc.Process(context.Background(), pdfUpload(), ModeAnalyze)
		})

		It("should return ErrConversionUnavailable", func() {
			Expect(err).To(MatchError(ErrConversionUnavailable))
		})

		It("should not create any scratch files", func() {
			expectScratchEmpty()
		})

		It("should not try to render", func() {
			Expect(rasterizer.called).To(BeFalse())
		})
	})

	When("rendering a PDF fails", func() {
		BeforeEach(func() {
			rasterizer.succeed = false
		})

		JustBeforeEach(func() {
			result, err = svc.Process(context.Background(), pdfUpload(), ModeAnalyze)
		})

		It("should fail at the rasterize stage", func() {
			var stageErr *StageError
			Expect(errors.As(err, &stageErr)).To(BeTrue())
			Expect(stageErr.Stage).To(Equal(StageRasterized))
			Expect(errors.Is(err, document.ErrRenderFailed)).To(BeTrue())
		})

		It("should remove its scratch files", func() {
			expectScratchEmpty()
		})
	})

	When("compression fails", func() {
		BeforeEach(func() {
			compressor.err = errors.New("quota exhausted")
		})

		JustBeforeEach(func() {
			result, err = svc.Process(context.Background(), imageUpload(), ModePersist)
		})

		It("should fail at the compress stage", func() {
			var stageErr *StageError
			Expect(errors.As(err, &stageErr)).To(BeTrue())
			Expect(stageErr.Stage).To(Equal(StageCompressed))
			Expect(errors.Is(err, compressor.err)).To(BeTrue())
		})

		It("should not call the extractor", func() {
			Expect(extractor.gotPath).To(BeEmpty())
		})

		It("should leave storage untouched", func() {
			Expect(store.keys()).To(BeEmpty())
		})

		It("should remove its scratch files", func() {
			expectScratchEmpty()
		})
	})

	When("extraction fails", func() {
		BeforeEach(func() {
			extractor.err = vision.ErrExtractionFailed
		})

		JustBeforeEach(func() {
			result, err = svc.Process(context.Background(), imageUpload(), ModePersist)
		})

		It("should fail at the extract stage", func() {
			var stageErr *StageError
			Expect(errors.As(err, &stageErr)).To(BeTrue())
			Expect(stageErr.Stage).To(Equal(StageExtracted))
		})

		It("should leave storage untouched", func() {
			Expect(store.keys()).To(BeEmpty())
		})

		It("should remove its scratch files", func() {
			expectScratchEmpty()
		})
	})

	When("currency normalization fails", func() {
		BeforeEach(func() {
			converter.err = currency.ErrRateUnavailable
		})

		JustBeforeEach(func() {
			result, err = svc.Process(context.Background(), imageUpload(), ModePersist)
		})

		It("should fail at the normalize stage", func() {
			var stageErr *StageError
			Expect(errors.As(err, &stageErr)).To(BeTrue())
			Expect(stageErr.Stage).To(Equal(StageNormalized))
			Expect(errors.Is(err, currency.ErrRateUnavailable)).To(BeTrue())
		})

		It("should leave storage untouched", func() {
			Expect(store.keys()).To(BeEmpty())
		})
	})

	When("durable storage rejects the write", func() {
		BeforeEach(func() {
			store.saveErr = errors.New("disk full")
		})

		JustBeforeEach(func() {
			result, err = svc.Process(context.Background(), imageUpload(), ModePersist)
		})

		It("should fail at the persist stage", func() {
			var stageErr *StageError
			Expect(errors.As(err, &stageErr)).To(BeTrue())
			Expect(stageErr.Stage).To(Equal(StagePersisted))
		})

		It("should remove its scratch files", func() {
			expectScratchEmpty()
		})
	})

	Describe("Store", func() {
		It("should compress and store images without analysis", func() {
			key, storeErr := svc.Store(context.Background(), imageUpload())
			Expect(storeErr).NotTo(HaveOccurred())

			data, getErr := store.Get(context.Background(), key)
			Expect(getErr).NotTo(HaveOccurred())
			Expect(string(data)).To(Equal("compressed:jpeg bytes"))
			Expect(extractor.gotPath).To(BeEmpty())
		})

		It("should store PDFs as uploaded", func() {
			key, storeErr := svc.Store(context.Background(), pdfUpload())
			Expect(storeErr).NotTo(HaveOccurred())

			data, getErr := store.Get(context.Background(), key)
			Expect(getErr).NotTo(HaveOccurred())
			Expect(string(data)).To(Equal("%PDF-1.4 bytes"))
			Expect(compressor.called).To(BeFalse())
		})

		It("should store the original when compression fails", func() {
			compressor.err = errors.New("service down")

			key, storeErr := svc.Store(context.Background(), imageUpload())
			Expect(storeErr).NotTo(HaveOccurred())

			data, getErr := store.Get(context.Background(), key)
			Expect(getErr).NotTo(HaveOccurred())
			Expect(string(data)).To(Equal("jpeg bytes"))
		})

		It("should remove its scratch files", func() {
			_, storeErr := svc.Store(context.Background(), imageUpload())
			Expect(storeErr).NotTo(HaveOccurred())
			expectScratchEmpty()
		})
	})

	Describe("scratch directory", func() {
		It("should tolerate repeated cleanup", func() {
			scratch, newErr := newScratchDir(scratchDir)
			Expect(newErr).NotTo(HaveOccurred())
			Expect(os.WriteFile(scratch.Join("f.txt"), []byte("x"), 0o644)).To(Succeed())

			logger := zap.NewNop()
			scratch.Cleanup(logger)
			scratch.Cleanup(logger)
			expectScratchEmpty()
		})

		It("should isolate uploads from one another", func() {
			a, errA := newScratchDir(scratchDir)
			Expect(errA).NotTo(HaveOccurred())
			b, errB := newScratchDir(scratchDir)
			Expect(errB).NotTo(HaveOccurred())
			Expect(a.Join("x")).NotTo(Equal(b.Join("x")))
			Expect(strings.HasPrefix(a.Join("x"), scratchDir)).To(BeTrue())
		})
	})
})
