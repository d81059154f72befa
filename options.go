package veilstream

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/veilstream/veilstream/core"
)

// ClientOption configures a Client.
type ClientOption func(*Client) error

// UploadOption configures an UploadContent operation.
type UploadOption func(*uploadConfig)

// uploadConfig holds configuration for upload operations.
type uploadConfig struct {
	encrypt  bool
	compress bool
	epochs   int
	progress ProgressCallback
}

// WithPublishers sets the ordered write endpoints uploads rotate across.
func WithPublishers(urls []string) ClientOption {
	return func(c *Client) error {
		c.publishers = urls
		return nil
	}
}

// WithAggregator sets the read endpoint downloads target.
func WithAggregator(url string) ClientOption {
	return func(c *Client) error {
		c.aggregator = url
		return nil
	}
}

// WithKeyServers configures the threshold key-server set and the combined
// verification weight a decrypt must reach.
func WithKeyServers(servers []core.KeyServerConfig, threshold int) ClientOption {
	return func(c *Client) error {
		c.keyServers = servers
		c.decryptThreshold = threshold
		return nil
	}
}

// WithVerifyOnInit probes each key server's identity endpoint before first
// use.
func WithVerifyOnInit(verify bool) ClientOption {
	return func(c *Client) error {
		c.verifyServers = verify
		return nil
	}
}

// WithDecryptTimeout bounds each whole decrypt attempt. Default 30s.
func WithDecryptTimeout(d time.Duration) ClientOption {
	return func(c *Client) error {
		c.decryptTimeout = d
		return nil
	}
}

// WithSigner sets the wallet signing capability for gated content.
func WithSigner(s Signer) ClientOption {
	return func(c *Client) error {
		c.signer = s
		return nil
	}
}

// WithSessionTTL sets how long a session key authorizes decrypts before a
// new wallet prompt is needed. Default 10 minutes.
func WithSessionTTL(ttl time.Duration) ClientOption {
	return func(c *Client) error {
		c.sessionTTL = ttl
		return nil
	}
}

// WithLedgerRPC sets the full-node endpoint for credential resolution and
// content discovery.
func WithLedgerRPC(endpoint string) ClientOption {
	return func(c *Client) error {
		c.rpcEndpoint = endpoint
		return nil
	}
}

// WithPolicyPackage sets the on-chain package id entitlement proofs call
// into.
func WithPolicyPackage(packageID string) ClientOption {
	return func(c *Client) error {
		c.packageID = packageID
		return nil
	}
}

// WithLogger sets a logger for the client. By default, logging is disabled.
func WithLogger(logger *slog.Logger) ClientOption {
	return func(c *Client) error {
		c.logger = logger
		return nil
	}
}

// WithHTTPClient sets the HTTP client used for storage, key-server, and
// ledger traffic.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) error {
		c.httpClient = hc
		return nil
	}
}

// WithPlaintextFallback permits uploads that requested encryption to store
// plaintext when no threshold client is available. Off by default: silently
// storing plaintext is a confidentiality hazard, so degraded mode must be
// an explicit product decision and receipts label the content unencrypted.
func WithPlaintextFallback(allow bool) ClientOption {
	return func(c *Client) error {
		c.plaintextFallback = allow
		return nil
	}
}

// WithEncryption requires the uploaded content to be encrypted to the
// namespace before storage.
func WithEncryption(encrypt bool) UploadOption {
	return func(cfg *uploadConfig) {
		cfg.encrypt = encrypt
	}
}

// WithUploadCompression compresses plaintext with zstd before encryption
// and storage.
func WithUploadCompression(compress bool) UploadOption {
	return func(cfg *uploadConfig) {
		cfg.compress = compress
	}
}

// WithStorageEpochs sets how many epochs the blob is stored for.
func WithStorageEpochs(epochs int) UploadOption {
	return func(cfg *uploadConfig) {
		cfg.epochs = epochs
	}
}

// WithUploadProgress reports upload progress. Implementations should be
// efficient as the callback may fire frequently.
func WithUploadProgress(cb ProgressCallback) UploadOption {
	return func(cfg *uploadConfig) {
		cfg.progress = cb
	}
}
