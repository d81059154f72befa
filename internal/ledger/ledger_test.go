package ledger

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/veilstream/veilstream/core"
)

// rpcHandler answers JSON-RPC calls with canned results per method.
func rpcHandler(t *testing.T, results map[string]any) http.HandlerFunc {
	t.Helper()
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			JSONRPC string         `json:"jsonrpc"`
			ID      int64          `json:"id"`
			Method  string         `json:"method"`
			Params  map[string]any `json:"params"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "2.0", req.JSONRPC)

		result, ok := results[req.Method]
		if !ok {
			//nolint:errcheck // test server
			json.NewEncoder(w).Encode(map[string]any{
				"jsonrpc": "2.0", "id": req.ID,
				"error": map[string]any{"code": -32601, "message": "method not found"},
			})
			return
		}
		//nolint:errcheck // test server
		json.NewEncoder(w).Encode(map[string]any{
			"jsonrpc": "2.0", "id": req.ID, "result": result,
		})
	}
}

func TestResolveAuthToken(t *testing.T) {
	t.Parallel()

	objects := []map[string]any{
		{
			"objectId": "0xcred-other",
			"type":     "access_policy::Subscription",
			"fields":   map[string]any{"namespaceId": "0xother"},
		},
		{
			"objectId": "0xcred-match",
			"type":     "access_policy::Subscription",
			"fields":   map[string]any{"namespaceId": "0xns"},
		},
	}
	srv := httptest.NewServer(rpcHandler(t, map[string]any{
		"readapi_getOwnedObjects": objects,
	}))
	defer srv.Close()

	c := New(srv.URL)

	token, err := c.ResolveAuthToken(context.Background(), "0xowner", "0xns", core.AuthSubscription)
	require.NoError(t, err)
	assert.Equal(t, "0xcred-match", token.CredentialID)
	assert.Equal(t, core.AuthSubscription, token.Kind)
}

func TestResolveAuthTokenNotFound(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(rpcHandler(t, map[string]any{
		"readapi_getOwnedObjects": []map[string]any{},
	}))
	defer srv.Close()

	c := New(srv.URL)

	_, err := c.ResolveAuthToken(context.Background(), "0xowner", "0xns", core.AuthOwnership)
	assert.ErrorIs(t, err, core.ErrAuthTokenNotFound)
}

func TestResolveAuthTokenRPCError(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(rpcHandler(t, nil))
	defer srv.Close()

	c := New(srv.URL)

	_, err := c.ResolveAuthToken(context.Background(), "0xowner", "0xns", core.AuthOwnership)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "method not found")
}

func TestWatchNamespace(t *testing.T) {
	t.Parallel()

	events := []map[string]any{
		{
			"namespaceId": "0xns",
			"blobId":      "blob-1",
			"resourceId":  "0a1b",
			"contentType": "text/markdown",
			"timestampMs": 1700000000000,
			"cursor":      "c1",
		},
	}
	srv := httptest.NewServer(rpcHandler(t, map[string]any{
		"readapi_queryContentEvents": events,
	}))
	defer srv.Close()

	c := New(srv.URL, WithPollInterval(10*time.Millisecond))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ch := c.WatchNamespace(ctx, "0xns")

	select {
	case ev := <-ch:
		assert.Equal(t, "blob-1", ev.BlobID)
		assert.Equal(t, "0xns", ev.NamespaceID)
		assert.Equal(t, time.UnixMilli(1700000000000).UTC(), ev.CreatedAt)
	case <-time.After(time.Second):
		t.Fatal("no event delivered")
	}

	// Cancellation closes the channel.
	cancel()
	for {
		select {
		case _, ok := <-ch:
			if !ok {
				return
			}
		case <-time.After(time.Second):
			t.Fatal("channel not closed after cancel")
		}
	}
}
