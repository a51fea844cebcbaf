/*
Package guardian retrieves signed VAAs from a Wormhole guardian or
wormholescan-compatible REST API.

A VAA for a given (chain, emitter, sequence) triple only becomes
available once enough guardians have observed and signed the message, so
a not-found response is the expected transient state shortly after
emission. Callers distinguish it via ErrNotFound and retry later.
*/
package guardian

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path"
	"strconv"

	"github.com/hashicorp/go-retryablehttp"
)

// signedVAAPath is the API path prefix for signed VAA retrieval,
// shared by the public guardian REST API and wormholescan.
const signedVAAPath = "v1/signed_vaa"

// ErrNotFound is returned when the API has no signed VAA for the
// requested sequence yet. Retryable: the attestation is usually still
// being collected by the guardian network.
var ErrNotFound = errors.New("signed VAA not found")

type guardianAPI interface {
	getSignedVAA(ctx context.Context, chain uint16, emitter string, sequence uint64) ([]byte, error)
}

// Client fetches signed VAAs from a guardian API endpoint.
type Client struct {
	api guardianAPI
}

// New creates a Client for the given API base URL, e.g.
// "https://api.wormholescan.io". Transient HTTP failures (429, 5xx) are
// retried with backoff before an error is surfaced.
func New(baseURL string) (*Client, error) {
	base, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parsing guardian API URL: %w", err)
	}

	retryClient := retryablehttp.NewClient()
	retryClient.Logger = nil

	return &Client{
		api: &apiClient{
			baseURL: base,
			client:  retryClient.StandardClient(),
		},
	}, nil
}

// GetSignedVAA retrieves the raw VAA bytes for one emitted message. The
// emitter must be the normalized 64-character hex form.
func (c *Client) GetSignedVAA(ctx context.Context, chain uint16, emitter string, sequence uint64) ([]byte, error) {
	body, err := c.api.getSignedVAA(ctx, chain, emitter, sequence)
	if err != nil {
		return nil, err
	}

	var response struct {
		VAABytes string `json:"vaaBytes"`
	}
	if err := json.Unmarshal(body, &response); err != nil {
		return nil, fmt.Errorf("unmarshaling signed VAA response: %w", err)
	}

	raw, err := base64.StdEncoding.DecodeString(response.VAABytes)
	if err != nil {
		return nil, fmt.Errorf("decoding signed VAA from base64: %w", err)
	}
	if len(raw) == 0 {
		return nil, errors.New("signed VAA response contains no bytes")
	}
	return raw, nil
}

type apiClient struct {
	baseURL *url.URL
	client  *http.Client
}

func (a *apiClient) getSignedVAA(ctx context.Context, chain uint16, emitter string, sequence uint64) ([]byte, error) {
	uri := *a.baseURL
	uri.Path = path.Join(uri.Path, signedVAAPath,
		strconv.FormatUint(uint64(chain), 10),
		emitter,
		strconv.FormatUint(sequence, 10),
	)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, uri.String(), http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	resp, err := a.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("sending request: %w", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		// continue
	case http.StatusNotFound:
		return nil, fmt.Errorf("%w: chain %d, emitter %s, sequence %d", ErrNotFound, chain, emitter, sequence)
	default:
		return nil, fmt.Errorf("request failed with status %s", resp.Status)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}
	return body, nil
}
