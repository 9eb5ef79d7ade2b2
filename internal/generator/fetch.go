package generator

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/avast/retry-go/v4"
)

// MaxImageBytes caps how much image data a single fetch may return.
const MaxImageBytes = 10 << 20

// ImageFetcher downloads slide images over HTTP with bounded retries.
type ImageFetcher struct {
	client   *http.Client
	attempts uint
	logger   *slog.Logger
}

// NewImageFetcher creates a fetcher with a 10s per-request timeout.
func NewImageFetcher(logger *slog.Logger) *ImageFetcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &ImageFetcher{
		client:   &http.Client{Timeout: 10 * time.Second},
		attempts: 3,
		logger:   logger,
	}
}

// Fetch validates the URL, downloads the image, and returns its bytes and
// content type. Only http and https URLs are accepted.
func (f *ImageFetcher) Fetch(ctx context.Context, rawURL string) ([]byte, string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, "", fmt.Errorf("invalid image URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, "", fmt.Errorf("invalid image URL scheme: %q", u.Scheme)
	}

	var (
		body        []byte
		contentType string
	)
	err = retry.Do(
		func() error {
			req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
			if err != nil {
				return retry.Unrecoverable(err)
			}
			resp, err := f.client.Do(req)
			if err != nil {
				return err
			}
			defer resp.Body.Close()

			if resp.StatusCode != http.StatusOK {
				err := fmt.Errorf("image fetch returned status %d", resp.StatusCode)
				if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
					return err
				}
				return retry.Unrecoverable(err)
			}

			data, err := io.ReadAll(io.LimitReader(resp.Body, MaxImageBytes+1))
			if err != nil {
				return err
			}
			if len(data) > MaxImageBytes {
				return retry.Unrecoverable(fmt.Errorf("image exceeds %d bytes", MaxImageBytes))
			}

			body = data
			contentType = resp.Header.Get("Content-Type")
			return nil
		},
		retry.Context(ctx),
		retry.Attempts(f.attempts),
		retry.Delay(500*time.Millisecond),
		retry.MaxDelay(5*time.Second),
		retry.LastErrorOnly(true),
		retry.OnRetry(func(n uint, err error) {
			f.logger.Debug("retrying image fetch", "url", rawURL, "attempt", n+1, "error", err)
		}),
	)
	if err != nil {
		return nil, "", err
	}
	return body, contentType, nil
}

// imageExt maps a Content-Type header to a file extension for stored assets.
func imageExt(contentType string) string {
	switch contentType {
	case "image/png":
		return ".png"
	case "image/jpeg", "image/jpg":
		return ".jpg"
	case "image/gif":
		return ".gif"
	case "image/webp":
		return ".webp"
	case "image/svg+xml":
		return ".svg"
	default:
		return ".img"
	}
}
