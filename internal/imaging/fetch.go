package imaging

import (
	"context"
	"fmt"
	"io"
	"net/http"
)

// maxDownloadBytes caps a single remote image download.
const maxDownloadBytes = 20 << 20

// Fetcher downloads remote images into memory. A failed download is reported
// to the caller as an error and never retried; batch operations drop the item
// and continue with whatever subset succeeds.
type Fetcher struct {
	client *http.Client
}

// NewFetcher constructs a Fetcher. A nil client falls back to http.DefaultClient.
func NewFetcher(client *http.Client) *Fetcher {
	if client == nil {
		client = http.DefaultClient
	}
	return &Fetcher{client: client}
}

// Fetch downloads the image at url. Any non-2xx status is a failure.
func (f *Fetcher) Fetch(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("fetch %s: status %d", url, resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxDownloadBytes))
	if err != nil {
		return nil, fmt.Errorf("read body of %s: %w", url, err)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("fetch %s: empty body", url)
	}
	return data, nil
}
