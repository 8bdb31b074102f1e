// Package quote fetches the quote of the day shown on the dashboard.
package quote

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"
)

// DefaultURL is the public zenquotes endpoint.
const DefaultURL = "https://zenquotes.io/api/random"

// Quote is one quote and its author.
type Quote struct {
	Q string `json:"q"`
	A string `json:"a"`
}

// Fallback is returned whenever the upstream cannot be reached or parsed.
var Fallback = Quote{Q: "Uspeh je v podrobnostih.", A: "DDTips"}

// Client fetches quotes from a zenquotes-compatible endpoint.
type Client struct {
	url        string
	httpClient *http.Client
}

// NewClient creates a client for url, or DefaultURL when url is empty.
func NewClient(url string) *Client {
	if url == "" {
		url = DefaultURL
	}
	return &Client{
		url:        url,
		httpClient: &http.Client{Timeout: 5 * time.Second},
	}
}

// Random returns a random quote, or Fallback on any failure.
func (c *Client) Random(ctx context.Context) Quote {
	q, err := c.fetch(ctx)
	if err != nil {
		slog.Warn("quote fetch failed, using fallback", "error", err)
		return Fallback
	}
	return q
}

func (c *Client) fetch(ctx context.Context) (Quote, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return Quote{}, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Quote{}, fmt.Errorf("failed to fetch quote: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Quote{}, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	var quotes []Quote
	if err := json.NewDecoder(resp.Body).Decode(&quotes); err != nil {
		return Quote{}, fmt.Errorf("failed to decode quote: %w", err)
	}
	if len(quotes) == 0 || quotes[0].Q == "" {
		return Quote{}, fmt.Errorf("empty quote response")
	}
	return quotes[0], nil
}
