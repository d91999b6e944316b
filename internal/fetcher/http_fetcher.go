package fetcher

import (
	"context"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strings"

	"github.com/genricoloni/walltz/internal/domain"
	"go.uber.org/zap"
)

const userAgent = "walltz/1.0"

// DefaultMaxSize is the body limit used when the configured one is not positive
const DefaultMaxSize = 64 * 1024 * 1024

// HTTPFetcher handles downloading data from HTTP/HTTPS URLs
type HTTPFetcher struct {
	logger  *zap.Logger
	client  *http.Client
	maxSize int64
}

// NewHTTPFetcher creates a new HTTP-based fetcher instance. A zero HTTPTimeout leaves
// requests unbounded.
func NewHTTPFetcher(logger *zap.Logger, cfg domain.Config) *HTTPFetcher {
	maxSize := cfg.MaxImageSize()
	if maxSize <= 0 {
		maxSize = DefaultMaxSize
	}
	return &HTTPFetcher{
		logger:  logger,
		client:  &http.Client{Timeout: cfg.HTTPTimeout()},
		maxSize: maxSize,
	}
}

// Fetch downloads the response body of a GET request to url
func (f *HTTPFetcher) Fetch(ctx context.Context, url string) ([]byte, error) {
	resp, err := f.get(ctx, url)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	return f.readBody(resp, url)
}

// FetchImage downloads image data from url, rejecting non-image content types.
// Servers that send no content type or application/octet-stream are trusted.
func (f *HTTPFetcher) FetchImage(ctx context.Context, url string) ([]byte, error) {
	resp, err := f.get(ctx, url)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	contentType := resp.Header.Get("Content-Type")
	if contentType != "" {
		mediaType, _, _ := mime.ParseMediaType(contentType)
		if !strings.HasPrefix(mediaType, "image/") && mediaType != "application/octet-stream" {
			return nil, domain.E(domain.KindFormat, "fetcher.fetch_image", fmt.Errorf("url is not an image: %s", contentType))
		}
	}

	return f.readBody(resp, url)
}

func (f *HTTPFetcher) get(ctx context.Context, url string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, domain.E(domain.KindNetwork, "fetcher.request", fmt.Errorf("failed to create request: %w", err))
	}

	req.Header.Set("User-Agent", userAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, domain.E(domain.KindNetwork, "fetcher.request", fmt.Errorf("network error: %w", err))
	}

	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, domain.E(domain.KindNetwork, "fetcher.request", fmt.Errorf("unexpected status code: %d", resp.StatusCode))
	}
	return resp, nil
}

func (f *HTTPFetcher) readBody(resp *http.Response, url string) ([]byte, error) {
	// one extra byte distinguishes "exactly at the limit" from "over it"
	limitReader := io.LimitReader(resp.Body, f.maxSize+1)

	data, err := io.ReadAll(limitReader)
	if err != nil {
		return nil, domain.E(domain.KindNetwork, "fetcher.read", fmt.Errorf("failed to read body: %w", err))
	}
	if int64(len(data)) > f.maxSize {
		return nil, domain.E(domain.KindNetwork, "fetcher.read", fmt.Errorf("response exceeds %d bytes", f.maxSize))
	}

	f.logger.Debug("Fetched successfully", zap.Int("bytes", len(data)), zap.String("url", url))
	return data, nil
}
