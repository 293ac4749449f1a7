// Package client is the itemdeck SDK: a thin HTTP client over the
// daemon's card API.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"
)

// Client is the itemdeck SDK client.
type Client struct {
	endpoint string
	http     *http.Client
}

// NewClient creates a new itemdeck client.
// endpoint defaults to "http://127.0.0.1:8091" if empty.
func NewClient(endpoint string) *Client {
	if endpoint == "" {
		endpoint = "http://127.0.0.1:8091"
	}
	return &Client{
		endpoint: endpoint,
		http: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// Ping checks the health of the daemon.
func (c *Client) Ping(ctx context.Context) (Status, error) {
	var status Status
	if err := c.getJSON(ctx, "/health", &status); err != nil {
		return Status{}, err
	}
	return status, nil
}

// GetCollection fetches the loaded collection's summary.
func (c *Client) GetCollection(ctx context.Context) (CollectionSummary, error) {
	var summary CollectionSummary
	if err := c.getJSON(ctx, "/v1/collection", &summary); err != nil {
		return CollectionSummary{}, err
	}
	return summary, nil
}

// GetCards fetches the card listing, optionally filtered.
func (c *Client) GetCards(ctx context.Context, opts CardsOptions) ([]Card, error) {
	path := "/v1/cards"
	query := url.Values{}
	if opts.Group != "" {
		query.Set("group", opts.Group)
	}
	if opts.Limit > 0 {
		query.Set("limit", fmt.Sprintf("%d", opts.Limit))
	}
	if len(query) > 0 {
		path += "?" + query.Encode()
	}

	var cards []Card
	if err := c.getJSON(ctx, path, &cards); err != nil {
		return nil, err
	}
	return cards, nil
}

// GetCard fetches one card's full detail.
func (c *Client) GetCard(ctx context.Context, id string) (CardDetail, error) {
	var detail CardDetail
	if err := c.getJSON(ctx, "/v1/cards/"+url.PathEscape(id), &detail); err != nil {
		return CardDetail{}, err
	}
	return detail, nil
}

// ResolveField evaluates a field-path expression against one card.
func (c *Client) ResolveField(ctx context.Context, id, path string) (FieldResult, error) {
	var result FieldResult
	endpoint := fmt.Sprintf("/v1/cards/%s/field?path=%s", url.PathEscape(id), url.QueryEscape(path))
	if err := c.getJSON(ctx, endpoint, &result); err != nil {
		return FieldResult{}, err
	}
	return result, nil
}

// SelectImage evaluates an image-selector expression against one card.
// An empty slice means "no image", which is a valid outcome.
func (c *Client) SelectImage(ctx context.Context, id, selector string) ([]Image, error) {
	var images []Image
	endpoint := fmt.Sprintf("/v1/cards/%s/image?selector=%s", url.PathEscape(id), url.QueryEscape(selector))
	if err := c.getJSON(ctx, endpoint, &images); err != nil {
		return nil, err
	}
	return images, nil
}

// Reload asks the daemon to switch to another collection base.
func (c *Client) Reload(ctx context.Context, base string) error {
	body, err := json.Marshal(map[string]string{"base": base})
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, "POST", c.endpoint+"/v1/reload", bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusAccepted {
		return fmt.Errorf("unexpected status: %d", resp.StatusCode)
	}
	return nil
}

func (c *Client) getJSON(ctx context.Context, path string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, "GET", c.endpoint+path, nil)
	if err != nil {
		return err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status: %d", resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return err
	}
	return nil
}
