package blockchain

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// SolanaClient speaks the Solana JSON-RPC protocol directly over net/http.
// The module carries no Solana SDK dependency, so transaction construction
// and serialization (see solana_tx.go) are done by hand rather than through
// a client library.
type SolanaClient struct {
	httpClient *http.Client
	rpcURL     string
}

// NewSolanaClient creates a SolanaClient against rpcURL.
func NewSolanaClient(rpcURL string) *SolanaClient {
	return &SolanaClient{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		rpcURL:     rpcURL,
	}
}

type rpcRequest struct {
	JSONRPC string        `json:"jsonrpc"`
	ID      int           `json:"id"`
	Method  string        `json:"method"`
	Params  []interface{} `json:"params,omitempty"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

type rpcResponse struct {
	Result json.RawMessage `json:"result"`
	Error  *rpcError       `json:"error"`
}

func (c *SolanaClient) call(ctx context.Context, method string, params []interface{}, out interface{}) error {
	body, err := json.Marshal(rpcRequest{JSONRPC: "2.0", ID: 1, Method: method, Params: params})
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.rpcURL, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	var rpcResp rpcResponse
	if err := json.NewDecoder(resp.Body).Decode(&rpcResp); err != nil {
		return err
	}
	if rpcResp.Error != nil {
		return fmt.Errorf("solana rpc: %s", rpcResp.Error.Message)
	}
	if out == nil {
		return nil
	}
	return json.Unmarshal(rpcResp.Result, out)
}

// GetBalance returns address's lamport balance.
func (c *SolanaClient) GetBalance(ctx context.Context, address string) (uint64, error) {
	var result struct {
		Value uint64 `json:"value"`
	}
	if err := c.call(ctx, "getBalance", []interface{}{address}, &result); err != nil {
		return 0, err
	}
	return result.Value, nil
}

// GetLatestBlockhash returns the current blockhash used to date-stamp a
// transaction message against replay past its validity window.
func (c *SolanaClient) GetLatestBlockhash(ctx context.Context) (string, error) {
	var result struct {
		Value struct {
			Blockhash string `json:"blockhash"`
		} `json:"value"`
	}
	params := []interface{}{map[string]string{"commitment": "finalized"}}
	if err := c.call(ctx, "getLatestBlockhash", params, &result); err != nil {
		return "", err
	}
	return result.Value.Blockhash, nil
}

// SendTransaction submits a base64-encoded, already-signed wire transaction
// and returns its signature.
func (c *SolanaClient) SendTransaction(ctx context.Context, base64Tx string) (string, error) {
	var signature string
	params := []interface{}{base64Tx, map[string]interface{}{"encoding": "base64", "skipPreflight": false}}
	if err := c.call(ctx, "sendTransaction", params, &signature); err != nil {
		return "", err
	}
	return signature, nil
}

// SignatureStatus is the confirmation state of one submitted signature.
type SignatureStatus struct {
	Confirmed bool
	Failed    bool
	ErrText   string
}

// GetSignatureStatus reports the current confirmation state of signature,
// or Confirmed=false, Failed=false if the node has not seen it yet.
func (c *SolanaClient) GetSignatureStatus(ctx context.Context, signature string) (SignatureStatus, error) {
	var result struct {
		Value []*struct {
			ConfirmationStatus string          `json:"confirmationStatus"`
			Err                json.RawMessage `json:"err"`
		} `json:"value"`
	}
	params := []interface{}{[]string{signature}}
	if err := c.call(ctx, "getSignatureStatuses", params, &result); err != nil {
		return SignatureStatus{}, err
	}
	if len(result.Value) == 0 || result.Value[0] == nil {
		return SignatureStatus{}, nil
	}
	status := result.Value[0]
	if len(status.Err) > 0 && string(status.Err) != "null" {
		return SignatureStatus{Failed: true, ErrText: string(status.Err)}, nil
	}
	switch status.ConfirmationStatus {
	case "confirmed", "finalized":
		return SignatureStatus{Confirmed: true}, nil
	default:
		return SignatureStatus{}, nil
	}
}
