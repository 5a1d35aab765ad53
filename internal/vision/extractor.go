package vision

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"fintrack/internal/document"
	"fintrack/pkg/config"

	openai "github.com/sashabaranov/go-openai"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// ErrExtractionFailed means the model output could not be turned into a
// usable result. The underlying cause is logged; callers get one error.
var ErrExtractionFailed = errors.New("failed to analyze receipt")

// ExtractionResult is the structured output of receipt analysis. It is never
// persisted directly; amounts always pass through currency normalization
// first.
type ExtractionResult struct {
	Amount      decimal.Decimal
	Currency    string
	Description string
	Category    string
}

const extractionPrompt = `Analyze this receipt image and extract the following information in JSON format: ` +
	`total amount (as a number), currency (the 3-letter code printed on the receipt, one of: GBP, EUR, CZK, USD), ` +
	`description (what was purchased - be brief, max 100 characters), and ` +
	`category (choose one from: Food, Transportation, Shopping, Utilities, Entertainment, Healthcare, Other). ` +
	`Return ONLY valid JSON with keys: amount, currency, description, category. ` +
	`Do not include any markdown formatting or code blocks.`

// Extractor sends prepared receipt images to a multimodal completion
// endpoint and parses the structured result out of the model output.
type Extractor struct {
	client *openai.Client
	model  string
	logger *zap.Logger
}

func NewExtractor(cfg *config.GroqConfig, logger *zap.Logger) *Extractor {
	clientConfig := openai.DefaultConfig(cfg.APIKey)
	clientConfig.BaseURL = cfg.BaseURL
	clientConfig.HTTPClient = &http.Client{Timeout: cfg.Timeout}

	return &Extractor{
		client: openai.NewClientWithConfig(clientConfig),
		model:  cfg.Model,
		logger: logger,
	}
}

// Extract analyzes the receipt image at imagePath.
func (e *Extractor) Extract(ctx context.Context, imagePath string) (*ExtractionResult, error) {
	data, err := os.ReadFile(imagePath)
	if err != nil {
		e.logger.Error("Receipt image not readable", zap.String("file", imagePath), zap.Error(err))
		return nil, fmt.Errorf("%w: image file not found", ErrExtractionFailed)
	}

	// Native images skip the rasterizer, so the byte and megapixel
	// ceilings are enforced again here before anything leaves the host.
	if err := document.CheckImageLimits(imagePath); err != nil {
		e.logger.Error("Receipt image exceeds limits", zap.String("file", imagePath), zap.Error(err))
		return nil, err
	}

	mimeType, err := sniffImageType(data, imagePath)
	if err != nil {
		return nil, err
	}

	dataURL := fmt.Sprintf("data:%s;base64,%s", mimeType, base64.StdEncoding.EncodeToString(data))

	resp, err := e.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: e.model,
		Messages: []openai.ChatCompletionMessage{
			{
				Role: openai.ChatMessageRoleUser,
				MultiContent: []openai.ChatMessagePart{
					{
						Type: openai.ChatMessagePartTypeText,
						Text: extractionPrompt,
					},
					{
						Type: openai.ChatMessagePartTypeImageURL,
						ImageURL: &openai.ChatMessageImageURL{
							URL: dataURL,
						},
					},
				},
			},
		},
		Temperature: 0.2,
		MaxTokens:   300,
	})
	if err != nil {
		e.logger.Error("Vision completion request failed", zap.Error(err))
		return nil, fmt.Errorf("%w: %v", ErrExtractionFailed, err)
	}

	if len(resp.Choices) == 0 {
		e.logger.Error("Vision completion returned no choices")
		return nil, fmt.Errorf("%w: empty model response", ErrExtractionFailed)
	}

	result, err := parseExtraction(resp.Choices[0].Message.Content)
	if err != nil {
		e.logger.Error("Failed to parse model output",
			zap.String("content", resp.Choices[0].Message.Content),
			zap.Error(err),
		)
		return nil, err
	}

	return result, nil
}

// sniffImageType detects the raster format by content, falling back to the
// file extension when detection is inconclusive.
func sniffImageType(data []byte, path string) (string, error) {
	sniffed := http.DetectContentType(data)
	switch sniffed {
	case "image/jpeg", "image/png", "image/webp":
		return sniffed, nil
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".jpg", ".jpeg":
		return "image/jpeg", nil
	case ".png":
		return "image/png", nil
	case ".webp":
		return "image/webp", nil
	}

	return "", fmt.Errorf("%w: unsupported image format %s", ErrExtractionFailed, sniffed)
}
