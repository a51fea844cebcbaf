/*
Package ledger reads the state of the certificate oracle contract on the
target ledger and submits attested messages to it.

View calls go directly against a NEAR-style JSON-RPC node: the contract
exposes get_snapshot, get_snapshot_count, and get_trusted_emitter as
free view functions. Submission requires a signed transaction, which is
delegated to a transaction gateway service; this package only posts the
raw VAA there and never touches signing keys.
*/
package ledger

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

// Client talks to the oracle contract.
type Client struct {
	rpcURL     string
	gatewayURL string
	contractID string
	client     *http.Client
}

// New creates a Client for the oracle contract account on the given
// JSON-RPC node. gatewayURL is the transaction gateway used for
// submissions; it may be empty for read-only use.
func New(rpcURL, gatewayURL, contractID string) *Client {
	return &Client{
		rpcURL:     rpcURL,
		gatewayURL: gatewayURL,
		contractID: contractID,
		client:     http.DefaultClient,
	}
}

// GetSnapshot returns the certificate document currently stored by the
// oracle contract (a JSON string, possibly "{}" before the first
// submission).
func (c *Client) GetSnapshot(ctx context.Context) (string, error) {
	var snapshot string
	if err := c.viewFunction(ctx, "get_snapshot", &snapshot); err != nil {
		return "", err
	}
	return snapshot, nil
}

// GetSnapshotCount returns how many snapshots the contract has accepted.
func (c *Client) GetSnapshotCount(ctx context.Context) (uint64, error) {
	var count uint64
	if err := c.viewFunction(ctx, "get_snapshot_count", &count); err != nil {
		return 0, err
	}
	return count, nil
}

// GetTrustedEmitter returns the emitter address the contract accepts
// VAAs from, in normalized 64-character hex form.
func (c *Client) GetTrustedEmitter(ctx context.Context) (string, error) {
	var emitter string
	if err := c.viewFunction(ctx, "get_trusted_emitter", &emitter); err != nil {
		return "", err
	}
	return emitter, nil
}

// SubmitVAA hands the raw VAA to the transaction gateway, which wraps
// it in a submit_vaa contract call. The contract itself re-parses the
// message and has it verified by the Wormhole core contract before
// accepting the payload.
func (c *Client) SubmitVAA(ctx context.Context, rawVAA []byte) error {
	if c.gatewayURL == "" {
		return fmt.Errorf("no transaction gateway configured for contract %s", c.contractID)
	}

	body, err := json.Marshal(map[string]string{
		"contract": c.contractID,
		"method":   "submit_vaa",
		"vaa":      hex.EncodeToString(rawVAA),
	})
	if err != nil {
		return fmt.Errorf("marshaling submission: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.gatewayURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("sending request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusAccepted {
		return fmt.Errorf("submission failed with status %s", resp.Status)
	}
	return nil
}

// viewFunction performs a no-argument call_function query against the
// contract and unmarshals the JSON-encoded return value into result.
func (c *Client) viewFunction(ctx context.Context, method string, result any) error {
	request := map[string]any{
		"jsonrpc": "2.0",
		"id":      "keybridge",
		"method":  "query",
		"params": map[string]any{
			"request_type": "call_function",
			"finality":     "final",
			"account_id":   c.contractID,
			"method_name":  method,
			"args_base64":  base64.StdEncoding.EncodeToString([]byte("{}")),
		},
	}
	body, err := json.Marshal(request)
	if err != nil {
		return fmt.Errorf("marshaling query: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.rpcURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("sending request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("query failed with status %s", resp.Status)
	}

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading response: %w", err)
	}

	// The RPC node returns the view function's value as an array of
	// byte values holding the JSON-serialized result.
	var rpcResponse struct {
		Result struct {
			Result []int    `json:"result"`
			Error  string   `json:"error"`
			Logs   []string `json:"logs"`
		} `json:"result"`
		Error *struct {
			Message string `json:"message"`
			Data    any    `json:"data"`
		} `json:"error"`
	}
	if err := json.Unmarshal(respBody, &rpcResponse); err != nil {
		return fmt.Errorf("unmarshaling query response: %w", err)
	}
	if rpcResponse.Error != nil {
		return fmt.Errorf("query %s on %s: %s", method, c.contractID, rpcResponse.Error.Message)
	}
	if rpcResponse.Result.Error != "" {
		return fmt.Errorf("view function %s on %s: %s", method, c.contractID, rpcResponse.Result.Error)
	}

	raw := make([]byte, len(rpcResponse.Result.Result))
	for i, b := range rpcResponse.Result.Result {
		if b < 0 || b > 0xff {
			return fmt.Errorf("view function %s returned an invalid byte value %d", method, b)
		}
		raw[i] = byte(b)
	}
	if err := json.Unmarshal(raw, result); err != nil {
		return fmt.Errorf("unmarshaling %s result: %w", method, err)
	}
	return nil
}
