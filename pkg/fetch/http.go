package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// HTTP fetches documents relative to a base URL.
type HTTP struct {
	base   string
	client *http.Client
}

// NewHTTP creates an HTTP fetcher rooted at base.
func NewHTTP(base string) *HTTP {
	return &HTTP{
		base: strings.TrimRight(base, "/"),
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// Fetch retrieves base/location. A 404 maps to ErrNotFound so the
// loader can probe filename conventions; other failures surface as-is.
func (h *HTTP) Fetch(ctx context.Context, location string) ([]byte, error) {
	url := h.base + "/" + strings.TrimLeft(location, "/")
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request for %s: %w", url, err)
	}

	resp, err := h.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, fmt.Errorf("%s: %w", url, ErrNotFound)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d fetching %s", resp.StatusCode, url)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read body of %s: %w", url, err)
	}
	return body, nil
}
