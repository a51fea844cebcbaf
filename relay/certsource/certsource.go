// Package certsource fetches the signing-key certificate document from
// the key provider's HTTPS endpoint.
//
// The document is a JSON object mapping key IDs to PEM certificates,
// the format served by Google's federated-signon endpoints. The raw
// document bytes are returned alongside the parsed map because the
// oracle stores and compares the document verbatim.
package certsource

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

// Client fetches certificate snapshots from a fixed URL.
type Client struct {
	certsURL string
	client   *http.Client
}

// New creates a Client for the given certificate document URL, e.g.
// "https://www.googleapis.com/oauth2/v1/certs".
func New(certsURL string) *Client {
	return &Client{
		certsURL: certsURL,
		client:   http.DefaultClient,
	}
}

// GetSnapshot retrieves the current certificate document and returns
// its raw bytes plus the key-ID-to-PEM map parsed from it.
func (c *Client) GetSnapshot(ctx context.Context) ([]byte, map[string]string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.certsURL, http.NoBody)
	if err != nil {
		return nil, nil, fmt.Errorf("creating request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, nil, fmt.Errorf("sending request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, nil, fmt.Errorf("request failed with status %s", resp.Status)
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, nil, fmt.Errorf("reading response: %w", err)
	}

	var keys map[string]string
	if err := json.Unmarshal(raw, &keys); err != nil {
		return nil, nil, fmt.Errorf("unmarshaling certificate document: %w", err)
	}
	if len(keys) == 0 {
		return nil, nil, fmt.Errorf("certificate document at %s contains no keys", c.certsURL)
	}

	return raw, keys, nil
}
