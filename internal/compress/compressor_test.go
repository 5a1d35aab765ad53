package compress

import (
	"context"
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"testing"
	"time"

	"fintrack/pkg/config"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/onsi/gomega/ghttp"
	"go.uber.org/zap"
)

func TestCompress(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Compress Suite")
}

var _ = Describe("Compressor", func() {
	var (
		server     *ghttp.Server
		tempDir    string
		sourcePath string
		destPath   string
		err        error
	)

	BeforeEach(func() {
		server = ghttp.NewServer()
		tempDir = GinkgoT().TempDir()
		sourcePath = filepath.Join(tempDir, "source.jpg")
		destPath = filepath.Join(tempDir, "dest.jpg")
		Expect(os.WriteFile(sourcePath, []byte("original image bytes"), 0o644)).To(Succeed())
	})

	AfterEach(func() {
		server.Close()
	})

	newCompressor := func(apiKey string) *Compressor {
		return NewCompressor(&config.TinyPNGConfig{
			APIKey:   apiKey,
			Endpoint: server.URL(),
			Timeout:  5 * time.Second,
		}, zap.NewNop())
	}

	When("no API key is configured", func() {
		JustBeforeEach(func() {
			err = newCompressor("").Compress(context.Background(), sourcePath, destPath)
		})

		It("should not return an error", func() {
			Expect(err).NotTo(HaveOccurred())
		})

		It("should copy the file unchanged", func() {
			data, readErr := os.ReadFile(destPath)
			Expect(readErr).NotTo(HaveOccurred())
			Expect(data).To(Equal([]byte("original image bytes")))
		})

		It("should not call the service", func() {
			Expect(server.ReceivedRequests()).To(BeEmpty())
		})
	})

	When("the service compresses successfully", func() {
		BeforeEach(func() {
			server.AppendHandlers(
				ghttp.CombineHandlers(
					ghttp.VerifyRequest("POST", "/shrink"),
					ghttp.VerifyBasicAuth("api", "test-key"),
					ghttp.RespondWithJSONEncoded(http.StatusCreated, map[string]any{
						"output": map[string]any{"url": server.URL() + "/output/abc"},
					}),
				),
				ghttp.CombineHandlers(
					ghttp.VerifyRequest("GET", "/output/abc"),
					ghttp.RespondWith(http.StatusOK, "tiny"),
				),
			)
		})

		JustBeforeEach(func() {
			err = newCompressor("test-key").Compress(context.Background(), sourcePath, destPath)
		})

		It("should not return an error", func() {
			Expect(err).NotTo(HaveOccurred())
		})

		It("should write the compressed bytes", func() {
			data, readErr := os.ReadFile(destPath)
			Expect(readErr).NotTo(HaveOccurred())
			Expect(data).To(Equal([]byte("tiny")))
		})
	})

	DescribeTable("failure classification",
		func(status int, kind FailureKind) {
			server.AppendHandlers(ghttp.RespondWith(status, ""))

			err = newCompressor("test-key").Compress(context.Background(), sourcePath, destPath)

			var compressErr *Error
			Expect(errors.As(err, &compressErr)).To(BeTrue())
			Expect(compressErr.Kind).To(Equal(kind))
		},
		Entry("unauthorized maps to account", http.StatusUnauthorized, FailureAccount),
		Entry("rate limited maps to account", http.StatusTooManyRequests, FailureAccount),
		Entry("bad request maps to client", http.StatusBadRequest, FailureClient),
		Entry("unsupported media maps to client", http.StatusUnsupportedMediaType, FailureClient),
		Entry("server error maps to server", http.StatusInternalServerError, FailureServer),
		Entry("bad gateway maps to server", http.StatusBadGateway, FailureServer),
	)

	When("the service is unreachable", func() {
		JustBeforeEach(func() {
			compressor := newCompressor("test-key")
			server.Close()
			err = compressor.Compress(context.Background(), sourcePath, destPath)
		})

		It("should classify the failure as a connection error", func() {
			var compressErr *Error
			Expect(errors.As(err, &compressErr)).To(BeTrue())
			Expect(compressErr.Kind).To(Equal(FailureConnection))
		})
	})

	When("the shrink response has no output url", func() {
		BeforeEach(func() {
			server.AppendHandlers(ghttp.RespondWithJSONEncoded(http.StatusCreated, map[string]any{}))
		})

		JustBeforeEach(func() {
			err = newCompressor("test-key").Compress(context.Background(), sourcePath, destPath)
		})

		It("should classify the failure as a server error", func() {
			var compressErr *Error
			Expect(errors.As(err, &compressErr)).To(BeTrue())
			Expect(compressErr.Kind).To(Equal(FailureServer))
		})
	})

	When("the source file does not exist", func() {
		JustBeforeEach(func() {
			err = newCompressor("test-key").Compress(context.Background(), filepath.Join(tempDir, "missing.jpg"), destPath)
		})

		It("should return a read error", func() {
			Expect(err).To(HaveOccurred())
			var compressErr *Error
			Expect(errors.As(err, &compressErr)).To(BeFalse())
		})
	})
})
