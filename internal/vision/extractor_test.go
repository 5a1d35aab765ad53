package vision

import (
	"context"
	"errors"
	"image"
	"image/jpeg"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"fintrack/internal/document"
	"fintrack/pkg/config"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/onsi/gomega/ghttp"
	"go.uber.org/zap"
)

var _ = Describe("Extractor", func() {
	var (
		server  *ghttp.Server
		tempDir string
	)

	BeforeEach(func() {
		server = ghttp.NewServer()
		tempDir = GinkgoT().TempDir()
	})

	AfterEach(func() {
		server.Close()
	})

	newExtractor := func() *Extractor {
		return NewExtractor(&config.GroqConfig{
			APIKey:  "test-key",
			Model:   "test-model",
			BaseURL: server.URL() + "/v1",
			Timeout: 5 * time.Second,
		}, zap.NewNop())
	}

	writeJPEG := func(name string, width, height int) string {
		path := filepath.Join(tempDir, name)
		f, err := os.Create(path)
		Expect(err).NotTo(HaveOccurred())
		defer f.Close()
		Expect(jpeg.Encode(f, image.NewGray(image.Rect(0, 0, width, height)), &jpeg.Options{Quality: 40})).To(Succeed())
		return path
	}

	When("the image resolution exceeds the ceiling", func() {
		It("should fail even though the file is small in bytes", func() {
			// A uniform image of 35 megapixels compresses far below the
			// byte ceiling, so only the resolution check can catch it.
			path := writeJPEG("huge.jpg", 7000, 5000)

			info, statErr := os.Stat(path)
			Expect(statErr).NotTo(HaveOccurred())
			Expect(info.Size()).To(BeNumerically("<", int64(document.MaxImageBytes)))

			_, err := newExtractor().Extract(context.Background(), path)

			var tooLarge *document.ImageTooLargeError
			Expect(errors.As(err, &tooLarge)).To(BeTrue())
			Expect(tooLarge.Megapixels).To(BeNumerically("~", 35.0, 0.1))
		})

		It("should not contact the vision endpoint", func() {
			path := writeJPEG("huge.jpg", 7000, 5000)

			_, err := newExtractor().Extract(context.Background(), path)

			Expect(err).To(HaveOccurred())
			Expect(server.ReceivedRequests()).To(BeEmpty())
		})
	})

	When("the image is within both ceilings", func() {
		It("should send it and return the parsed extraction", func() {
			server.AppendHandlers(ghttp.CombineHandlers(
				ghttp.VerifyRequest(http.MethodPost, "/v1/chat/completions"),
				ghttp.RespondWithJSONEncoded(http.StatusOK, map[string]any{
					"choices": []map[string]any{
						{
							"message": map[string]any{
								"content": `{"amount": 12.99, "currency": "GBP", "description": "Tesco groceries", "category": "Food"}`,
							},
						},
					},
				}),
			))

			path := writeJPEG("receipt.jpg", 640, 480)

			result, err := newExtractor().Extract(context.Background(), path)
			Expect(err).NotTo(HaveOccurred())
			Expect(result.Amount.String()).To(Equal("12.99"))
			Expect(result.Currency).To(Equal("GBP"))
			Expect(server.ReceivedRequests()).To(HaveLen(1))
		})
	})
})
