package compress

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"

	"fintrack/pkg/config"

	"go.uber.org/zap"
)

// FailureKind classifies compression failures so callers can show a
// differentiated message. All kinds are fatal to the current invocation.
type FailureKind string

const (
	FailureAccount    FailureKind = "account"    // bad credential or quota exhausted
	FailureClient     FailureKind = "client"     // malformed request
	FailureServer     FailureKind = "server"     // remote-service failure
	FailureConnection FailureKind = "connection" // network/connectivity failure
)

type Error struct {
	Kind FailureKind
	Err  error
}

func (e *Error) Error() string {
	switch e.Kind {
	case FailureAccount:
		return "image compression failed: invalid API key or monthly limit reached"
	case FailureClient:
		return "image compression failed: invalid request"
	case FailureServer:
		return "image compression failed: compression server error"
	case FailureConnection:
		return "image compression failed: network connection error"
	}
	return fmt.Sprintf("image compression failed: %v", e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Compressor shrinks raster images through a TinyPNG-style shrink service.
// Without a configured API key it degrades to a byte-for-byte copy.
type Compressor struct {
	apiKey   string
	endpoint string
	client   *http.Client
	logger   *zap.Logger
}

func NewCompressor(cfg *config.TinyPNGConfig, logger *zap.Logger) *Compressor {
	return &Compressor{
		apiKey:   cfg.APIKey,
		endpoint: strings.TrimRight(cfg.Endpoint, "/"),
		client:   &http.Client{Timeout: cfg.Timeout},
		logger:   logger,
	}
}

// Compress writes a compressed copy of sourcePath to destinationPath.
func (c *Compressor) Compress(ctx context.Context, sourcePath, destinationPath string) error {
	data, err := os.ReadFile(sourcePath)
	if err != nil {
		return fmt.Errorf("reading source image: %w", err)
	}

	if c.apiKey == "" {
		c.logger.Warn("Compression API key not configured, copying file uncompressed",
			zap.String("source", sourcePath),
		)
		return os.WriteFile(destinationPath, data, 0o644)
	}

	outputURL, err := c.shrink(ctx, data)
	if err != nil {
		return err
	}

	compressed, err := c.download(ctx, outputURL)
	if err != nil {
		return err
	}

	if err := os.WriteFile(destinationPath, compressed, 0o644); err != nil {
		return fmt.Errorf("writing compressed image: %w", err)
	}

	c.logger.Info("Image compressed",
		zap.String("source", sourcePath),
		zap.String("destination", destinationPath),
		zap.Int("original_bytes", len(data)),
		zap.Int("compressed_bytes", len(compressed)),
	)
	return nil
}

func (c *Compressor) shrink(ctx context.Context, data []byte) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint+"/shrink", bytes.NewReader(data))
	if err != nil {
		return "", &Error{Kind: FailureClient, Err: err}
	}
	req.SetBasicAuth("api", c.apiKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return "", &Error{Kind: FailureConnection, Err: err}
	}
	defer resp.Body.Close()

	if err := classifyStatus(resp.StatusCode); err != nil {
		io.Copy(io.Discard, resp.Body)
		return "", err
	}

	var body struct {
		Output struct {
			URL string `json:"url"`
		} `json:"output"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", &Error{Kind: FailureServer, Err: err}
	}
	if body.Output.URL == "" {
		return "", &Error{Kind: FailureServer, Err: fmt.Errorf("shrink response missing output url")}
	}

	return body.Output.URL, nil
}

func (c *Compressor) download(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, &Error{Kind: FailureClient, Err: err}
	}
	req.SetBasicAuth("api", c.apiKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, &Error{Kind: FailureConnection, Err: err}
	}
	defer resp.Body.Close()

	if err := classifyStatus(resp.StatusCode); err != nil {
		io.Copy(io.Discard, resp.Body)
		return nil, err
	}

	return io.ReadAll(resp.Body)
}

func classifyStatus(status int) error {
	switch {
	case status == http.StatusUnauthorized || status == http.StatusTooManyRequests:
		return &Error{Kind: FailureAccount, Err: fmt.Errorf("status %d", status)}
	case status >= 400 && status < 500:
		return &Error{Kind: FailureClient, Err: fmt.Errorf("status %d", status)}
	case status >= 500:
		return &Error{Kind: FailureServer, Err: fmt.Errorf("status %d", status)}
	}
	return nil
}
