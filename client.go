package veilstream

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/veilstream/veilstream/core"
	"github.com/veilstream/veilstream/internal/contentcache"
	"github.com/veilstream/veilstream/internal/entitlement"
	"github.com/veilstream/veilstream/internal/ledger"
	"github.com/veilstream/veilstream/internal/session"
	"github.com/veilstream/veilstream/internal/storage"
	"github.com/veilstream/veilstream/internal/threshold"
)

// Client coordinates the content distribution pipeline: storage I/O,
// session keys, entitlement proofs, and threshold encryption.
//
// Construct one Client per process and reuse it: the storage round-robin
// cursor, session key reuse, and decoded-content memoization all live on
// the instance.
type Client struct {
	store    blobStore
	crypt    encrypter
	proofs   proofBuilder
	sessions sessionManager
	ledger   authResolver
	loads    *contentcache.Store
	logger   *slog.Logger

	// configuration captured by options
	signer            Signer
	publishers        []string
	aggregator        string
	rpcEndpoint       string
	packageID         string
	keyServers        []core.KeyServerConfig
	decryptThreshold  int
	decryptTimeout    time.Duration
	verifyServers     bool
	sessionTTL        time.Duration
	plaintextFallback bool
	httpClient        *http.Client

	// verify-on-init probe runs once, lazily, before first crypto use
	initOnce sync.Once
	initErr  error

	// session keys reused per (address, namespace) within TTL
	sessionMu   sync.Mutex
	sessionKeys map[string]*core.SessionKey
}

// NewClient creates a veilstream client.
//
// WithPublishers and WithAggregator are required. Key servers are optional:
// a client without them can load and upload public content but fails closed
// on anything requiring encryption.
func NewClient(opts ...ClientOption) (*Client, error) {
	c := &Client{
		logger:         slog.New(slog.DiscardHandler),
		decryptTimeout: threshold.DefaultTimeout,
		sessionTTL:     session.DefaultTTL,
		sessionKeys:    make(map[string]*core.SessionKey),
		loads:          contentcache.New(),
	}
	for _, opt := range opts {
		if err := opt(c); err != nil {
			return nil, err
		}
	}

	if len(c.publishers) == 0 {
		return nil, errors.New("no publishers configured (use WithPublishers)")
	}
	if c.aggregator == "" {
		return nil, errors.New("no aggregator configured (use WithAggregator)")
	}

	// Wire up default implementations
	storeOpts := []storage.Option{storage.WithLogger(c.logger)}
	if c.httpClient != nil {
		storeOpts = append(storeOpts, storage.WithHTTPClient(c.httpClient))
	}
	store, err := storage.New(c.publishers, c.aggregator, storeOpts...)
	if err != nil {
		return nil, fmt.Errorf("create storage client: %w", err)
	}
	c.store = store

	if len(c.keyServers) > 0 {
		thOpts := []threshold.Option{
			threshold.WithTimeout(c.decryptTimeout),
			threshold.WithVerifyOnInit(c.verifyServers),
			threshold.WithLogger(c.logger),
		}
		if c.httpClient != nil {
			thOpts = append(thOpts, threshold.WithHTTPClient(c.httpClient))
		}
		crypt, err := threshold.New(c.keyServers, c.decryptThreshold, thOpts...)
		if err != nil {
			return nil, fmt.Errorf("create threshold client: %w", err)
		}
		c.crypt = crypt
	}

	c.sessions = session.New(c.signer, session.WithLogger(c.logger))
	c.proofs = entitlement.New(c.packageID)

	if c.rpcEndpoint != "" {
		ledgerOpts := []ledger.Option{ledger.WithLogger(c.logger)}
		if c.httpClient != nil {
			ledgerOpts = append(ledgerOpts, ledger.WithHTTPClient(c.httpClient))
		}
		c.ledger = ledger.New(c.rpcEndpoint, ledgerOpts...)
	}

	return c, nil
}

// ensureInit runs the verify-on-init key-server probe once before the first
// encrypt or decrypt.
func (c *Client) ensureInit(ctx context.Context) error {
	if c.crypt == nil {
		return core.ErrEncryptionUnavailable
	}
	c.initOnce.Do(func() {
		c.initErr = c.crypt.Init(ctx)
	})
	return c.initErr
}

// sessionKey returns a valid session key for the namespace, reusing an
// unexpired one when possible. One wallet prompt per created key.
func (c *Client) sessionKey(ctx context.Context, namespaceID string) (*core.SessionKey, error) {
	if c.signer == nil {
		return nil, core.ErrWalletRequired
	}

	id := c.signer.Address() + "|" + namespaceID
	c.sessionMu.Lock()
	defer c.sessionMu.Unlock()

	if key, ok := c.sessionKeys[id]; ok {
		if err := c.sessions.Validate(key, namespaceID); err == nil {
			return key, nil
		}
		delete(c.sessionKeys, id)
	}

	key, err := c.sessions.Create(ctx, namespaceID, c.sessionTTL)
	if err != nil {
		return nil, err
	}
	c.sessionKeys[id] = key
	return key, nil
}

// ResolveAuthToken queries the ledger for the caller's credential of the
// given kind scoped to the namespace. Requires WithLedgerRPC.
func (c *Client) ResolveAuthToken(ctx context.Context, namespaceID string, kind AuthTokenKind) (AuthToken, error) {
	if c.ledger == nil {
		return AuthToken{}, errors.New("no ledger endpoint configured (use WithLedgerRPC)")
	}
	if c.signer == nil {
		return AuthToken{}, core.ErrWalletRequired
	}
	return c.ledger.ResolveAuthToken(ctx, c.signer.Address(), namespaceID, kind)
}

// WatchNamespace delivers content creation events for the namespace until
// ctx is canceled. Requires WithLedgerRPC.
func (c *Client) WatchNamespace(ctx context.Context, namespaceID string) (<-chan ContentEvent, error) {
	if c.ledger == nil {
		return nil, errors.New("no ledger endpoint configured (use WithLedgerRPC)")
	}
	return c.ledger.WatchNamespace(ctx, namespaceID), nil
}
