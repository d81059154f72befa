// Package ledger implements the read-only chain interface the pipeline
// consumes: credential resolution by owner and type, and discovery of newly
// published content through namespace-scoped creation events. No write
// capability is required; proof transactions are dry-run evaluated by key
// servers, never submitted here.
package ledger

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/veilstream/veilstream/core"
)

// Credential object types registered by the namespace contract.
const (
	ownershipType    = "access_policy::OwnerCap"
	subscriptionType = "access_policy::Subscription"
)

// DefaultPollInterval paces namespace event polling.
const DefaultPollInterval = 5 * time.Second

// Option configures a Client.
type Option func(*Client)

// Client reads credential objects and content events from a full-node RPC
// endpoint.
type Client struct {
	endpoint     string
	httpClient   *http.Client
	logger       *slog.Logger
	pollInterval time.Duration
	reqID        atomic.Int64
}

// WithHTTPClient sets the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithLogger sets a logger. By default, logging is disabled.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) { c.logger = logger }
}

// WithPollInterval sets the event polling cadence.
func WithPollInterval(d time.Duration) Option {
	return func(c *Client) { c.pollInterval = d }
}

// New creates a ledger read client.
func New(endpoint string, opts ...Option) *Client {
	c := &Client{
		endpoint:     endpoint,
		httpClient:   &http.Client{Timeout: 30 * time.Second},
		logger:       slog.New(slog.DiscardHandler),
		pollInterval: DefaultPollInterval,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ownedObject is the RPC shape of a credential object.
type ownedObject struct {
	ObjectID string `json:"objectId"`
	Type     string `json:"type"`
	Fields   struct {
		NamespaceID string `json:"namespaceId"`
	} `json:"fields"`
}

// ResolveAuthToken finds the caller's credential of the given kind scoped to
// the namespace. At most one token is authoritative per (owner, namespace,
// kind); when the node returns several, the first match wins.
func (c *Client) ResolveAuthToken(ctx context.Context, owner, namespaceID string, kind core.AuthTokenKind) (core.AuthToken, error) {
	objType := ownershipType
	if kind == core.AuthSubscription {
		objType = subscriptionType
	}

	var objects []ownedObject
	params := map[string]any{"owner": owner, "type": objType}
	if err := c.call(ctx, "readapi_getOwnedObjects", params, &objects); err != nil {
		return core.AuthToken{}, fmt.Errorf("querying owned objects: %w", err)
	}

	for _, obj := range objects {
		if obj.Fields.NamespaceID == namespaceID {
			c.logger.Debug("auth token resolved",
				"kind", kind, "owner", owner, "credentialId", obj.ObjectID)
			return core.AuthToken{Kind: kind, CredentialID: obj.ObjectID}, nil
		}
	}
	return core.AuthToken{}, fmt.Errorf("%w: no %s credential for %s in namespace %s",
		core.ErrAuthTokenNotFound, kind, owner, namespaceID)
}

// contentEvent is the RPC shape of a content creation event.
type contentEvent struct {
	NamespaceID string `json:"namespaceId"`
	BlobID      string `json:"blobId"`
	ResourceID  string `json:"resourceId"`
	ContentType string `json:"contentType"`
	TimestampMS int64  `json:"timestampMs"`
	Cursor      string `json:"cursor"`
}

// WatchNamespace polls for content creation events in the namespace and
// delivers them until ctx is canceled. The returned channel is closed on
// cancellation.
func (c *Client) WatchNamespace(ctx context.Context, namespaceID string) <-chan core.ContentEvent {
	out := make(chan core.ContentEvent)
	go func() {
		defer close(out)
		ticker := time.NewTicker(c.pollInterval)
		defer ticker.Stop()

		var cursor string
		for {
			events, next, err := c.queryEvents(ctx, namespaceID, cursor)
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				c.logger.Debug("event poll failed", "namespace", namespaceID, "error", err)
			} else {
				cursor = next
				for _, ev := range events {
					select {
					case out <- ev:
					case <-ctx.Done():
						return
					}
				}
			}

			select {
			case <-ticker.C:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out
}

// queryEvents fetches one page of namespace events after the cursor.
func (c *Client) queryEvents(ctx context.Context, namespaceID, cursor string) ([]core.ContentEvent, string, error) {
	var raw []contentEvent
	params := map[string]any{"namespaceId": namespaceID, "cursor": cursor}
	if err := c.call(ctx, "readapi_queryContentEvents", params, &raw); err != nil {
		return nil, cursor, err
	}

	events := make([]core.ContentEvent, 0, len(raw))
	next := cursor
	for _, ev := range raw {
		events = append(events, core.ContentEvent{
			NamespaceID: ev.NamespaceID,
			BlobID:      ev.BlobID,
			ResourceID:  ev.ResourceID,
			ContentType: ev.ContentType,
			CreatedAt:   time.UnixMilli(ev.TimestampMS).UTC(),
		})
		if ev.Cursor != "" {
			next = ev.Cursor
		}
	}
	return events, next, nil
}

// call performs one JSON-RPC 2.0 request.
func (c *Client) call(ctx context.Context, method string, params, result any) error {
	req := struct {
		JSONRPC string `json:"jsonrpc"`
		ID      int64  `json:"id"`
		Method  string `json:"method"`
		Params  any    `json:"params"`
	}{"2.0", c.reqID.Add(1), method, params}

	body, err := json.Marshal(req)
	if err != nil {
		return err
	}

	hreq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return err
	}
	hreq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(hreq)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("node returned %d: %s", resp.StatusCode, msg)
	}

	var rpcResp struct {
		Result json.RawMessage `json:"result"`
		Error  *struct {
			Code    int    `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&rpcResp); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	if rpcResp.Error != nil {
		return fmt.Errorf("rpc error %d: %s", rpcResp.Error.Code, rpcResp.Error.Message)
	}
	if result != nil {
		if err := json.Unmarshal(rpcResp.Result, result); err != nil {
			return fmt.Errorf("decoding result: %w", err)
		}
	}
	return nil
}
