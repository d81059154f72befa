// Package storage implements blob I/O against the content-addressed storage
// network. Writes rotate across a set of interchangeable publisher endpoints;
// reads go to a single aggregator.
package storage

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

	"github.com/opencontainers/go-digest"

	"github.com/veilstream/veilstream/core"
)

// DefaultEpochs is the storage duration used when the caller does not
// specify one.
const DefaultEpochs = 1

// maxBlobResponse bounds aggregator reads to keep a misbehaving endpoint
// from exhausting memory.
const maxBlobResponse = 1 << 30

// Option configures a Client.
type Option func(*Client)

// Client performs uploads and downloads against the blob network.
//
// The round-robin cursor is owned by the Client instance and shared across
// concurrent uploads; construct one Client per process and reuse it so load
// spreads over time, not just within one call's failover loop.
type Client struct {
	publishers []string
	aggregator string
	httpClient *http.Client
	logger     *slog.Logger

	// cursor indexes the next publisher to try. Atomic increment modulo
	// len(publishers); exact fairness is not required, only eventual
	// coverage of all endpoints.
	cursor atomic.Uint64
}

// New creates a storage client for the given publisher and aggregator
// endpoints. URLs are base addresses without the /v1 path.
func New(publishers []string, aggregator string, opts ...Option) (*Client, error) {
	if len(publishers) == 0 {
		return nil, fmt.Errorf("no publishers configured")
	}
	c := &Client{
		publishers: publishers,
		aggregator: aggregator,
		httpClient: &http.Client{Timeout: 2 * time.Minute},
		logger:     slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// WithHTTPClient sets the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithLogger sets a logger. By default, logging is disabled.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) { c.logger = logger }
}

// Upload stores data for the given number of epochs and returns its blob
// reference.
//
// The next publisher in rotation is tried first; on a retryable failure
// (429, 413, 5xx, or a connection error) the next endpoint in sequence is
// tried, up to one attempt per publisher. Once every endpoint has been tried
// the upload fails with core.ErrPublishersExhausted. Any other 4xx is a
// terminal core.ErrUploadRejected and is not retried.
func (c *Client) Upload(ctx context.Context, data []byte, epochs int) (core.BlobRef, error) {
	if epochs <= 0 {
		epochs = DefaultEpochs
	}

	start := c.cursor.Add(1) - 1
	var lastErr error
	for attempt := 0; attempt < len(c.publishers); attempt++ {
		endpoint := c.publishers[(start+uint64(attempt))%uint64(len(c.publishers))]

		ref, err := c.putBlob(ctx, endpoint, data, epochs)
		if err == nil {
			ref.Digest = digest.FromBytes(data)
			ref.Size = int64(len(data))
			return ref, nil
		}
		if !retryable(err) {
			return core.BlobRef{}, err
		}
		c.logger.Debug("publisher failed, rotating",
			"publisher", endpoint, "attempt", attempt+1, "error", err)
		lastErr = err
	}
	return core.BlobRef{}, fmt.Errorf("%w: %d publishers tried: %v",
		core.ErrPublishersExhausted, len(c.publishers), lastErr)
}

// putBlob performs a single PUT against one publisher.
func (c *Client) putBlob(ctx context.Context, endpoint string, data []byte, epochs int) (core.BlobRef, error) {
	u := fmt.Sprintf("%s/v1/blobs?epochs=%d", endpoint, epochs)
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, u, bytes.NewReader(data))
	if err != nil {
		return core.BlobRef{}, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/octet-stream")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return core.BlobRef{}, &transportError{endpoint: endpoint, err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return core.BlobRef{}, statusError(endpoint, resp.StatusCode, string(body))
	}

	var sr storeResponse
	if err := json.NewDecoder(resp.Body).Decode(&sr); err != nil {
		return core.BlobRef{}, fmt.Errorf("%w: decoding publisher response: %v", core.ErrUploadRejected, err)
	}
	return sr.blobRef(epochs)
}

// Download fetches a blob's raw bytes from the aggregator. Reads do not fail
// over; any failure is a terminal core.ErrDownloadFailure.
func (c *Client) Download(ctx context.Context, blobID string) ([]byte, error) {
	u := fmt.Sprintf("%s/v1/blobs/%s", c.aggregator, blobID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", core.ErrDownloadFailure, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: aggregator returned %d for blob %s",
			core.ErrDownloadFailure, resp.StatusCode, blobID)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBlobResponse))
	if err != nil {
		return nil, fmt.Errorf("%w: reading body: %v", core.ErrDownloadFailure, err)
	}
	c.logger.Debug("downloaded blob", "blobId", blobID, "size", len(data))
	return data, nil
}

// DownloadVerified fetches a blob and verifies it against the reference
// digest when one is recorded.
func (c *Client) DownloadVerified(ctx context.Context, ref core.BlobRef) ([]byte, error) {
	data, err := c.Download(ctx, ref.BlobID)
	if err != nil {
		return nil, err
	}
	if ref.Digest != "" && digest.FromBytes(data) != ref.Digest {
		return nil, fmt.Errorf("%w: blob %s", core.ErrDigestMismatch, ref.BlobID)
	}
	return data, nil
}

// storeResponse is the publisher's JSON body: either a newly created blob
// object or a reference to an already certified blob.
type storeResponse struct {
	NewlyCreated *struct {
		BlobObject struct {
			ID     string `json:"id"`
			BlobID string `json:"blobId"`
			Size   int64  `json:"size"`
		} `json:"blobObject"`
	} `json:"newlyCreated,omitempty"`
	AlreadyCertified *struct {
		BlobID   string `json:"blobId"`
		EndEpoch int    `json:"endEpoch"`
	} `json:"alreadyCertified,omitempty"`
}

func (sr *storeResponse) blobRef(epochs int) (core.BlobRef, error) {
	switch {
	case sr.NewlyCreated != nil:
		return core.BlobRef{
			BlobID:        sr.NewlyCreated.BlobObject.BlobID,
			ObjectID:      sr.NewlyCreated.BlobObject.ID,
			StorageEpochs: epochs,
		}, nil
	case sr.AlreadyCertified != nil:
		return core.BlobRef{
			BlobID:        sr.AlreadyCertified.BlobID,
			StorageEpochs: sr.AlreadyCertified.EndEpoch,
		}, nil
	default:
		return core.BlobRef{}, fmt.Errorf("%w: publisher response has neither newlyCreated nor alreadyCertified", core.ErrUploadRejected)
	}
}
