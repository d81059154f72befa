// Package threshold implements the identity-based threshold encryption
// client.
//
// Encryption needs no decrypting party's long-term key: plaintext is sealed
// "to the namespace" under a fresh data-encapsulation key, and the DEK is
// split into weighted Shamir shares wrapped to each configured key server.
// Decryption contacts the envelope's server set in parallel; each server
// independently evaluates the caller's entitlement proof against on-chain
// state and, if satisfied, returns its shares. Plaintext is recoverable once
// the combined weight of verified responses reaches the threshold.
//
// Authorization (on-chain, auditable, revocable by burning the credential)
// is thereby separated from key custody (distributed across independent
// servers): no single operator can unilaterally decrypt or censor.
package threshold

import (
	"bytes"
	"context"
	"crypto/rand"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/veilstream/veilstream/core"
)

// DefaultTimeout bounds one whole decrypt attempt. A timed-out attempt is
// not retried internally; the caller decides whether to retry with a fresh
// proof.
const DefaultTimeout = 30 * time.Second

// Option configures a Client.
type Option func(*Client)

// Client encrypts and decrypts envelopes against a key-server set.
type Client struct {
	servers      []core.KeyServerConfig
	threshold    int
	timeout      time.Duration
	verifyOnInit bool
	httpClient   *http.Client
	logger       *slog.Logger
}

// WithTimeout sets the per-decrypt deadline.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.timeout = d }
}

// WithVerifyOnInit probes each server's identity endpoint during Init,
// confirming liveness and populating missing public keys.
func WithVerifyOnInit(v bool) Option {
	return func(c *Client) { c.verifyOnInit = v }
}

// WithHTTPClient sets the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithLogger sets a logger. By default, logging is disabled.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) { c.logger = logger }
}

// New creates a threshold client. The summed weight of all servers must
// reach the threshold, otherwise no plaintext would ever be recoverable.
func New(servers []core.KeyServerConfig, thresh int, opts ...Option) (*Client, error) {
	if len(servers) == 0 {
		return nil, fmt.Errorf("no key servers configured")
	}
	if thresh < 1 {
		return nil, fmt.Errorf("threshold must be positive, got %d", thresh)
	}
	var total int
	for _, s := range servers {
		if s.Weight < 1 {
			return nil, fmt.Errorf("server %s has non-positive weight %d", s.ServerID, s.Weight)
		}
		total += s.Weight
	}
	if total < thresh {
		return nil, fmt.Errorf("summed server weight %d below threshold %d", total, thresh)
	}

	c := &Client{
		servers:    servers,
		threshold:  thresh,
		timeout:    DefaultTimeout,
		httpClient: &http.Client{},
		logger:     slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Init performs the verify-on-init probe when enabled. Must be called before
// Encrypt if any server config lacks a public key.
func (c *Client) Init(ctx context.Context) error {
	if !c.verifyOnInit {
		return nil
	}
	for i := range c.servers {
		if err := c.probe(ctx, &c.servers[i]); err != nil {
			return fmt.Errorf("verifying key server %s: %w", c.servers[i].ServerID, err)
		}
	}
	return nil
}

// probe hits the server's identity endpoint, checks that it reports the
// configured identity, and fills in the public key if absent.
func (c *Client) probe(ctx context.Context, cfg *core.KeyServerConfig) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, cfg.URL+"/v1/service", nil)
	if err != nil {
		return err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("identity endpoint returned %d", resp.StatusCode)
	}

	var svc struct {
		ServerID  string `json:"serverId"`
		PublicKey []byte `json:"publicKey"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&svc); err != nil {
		return fmt.Errorf("decoding identity response: %w", err)
	}
	if svc.ServerID != cfg.ServerID {
		return fmt.Errorf("server identifies as %s, expected %s", svc.ServerID, cfg.ServerID)
	}
	if len(cfg.PublicKey) == 0 {
		cfg.PublicKey = svc.PublicKey
	} else if !bytes.Equal(cfg.PublicKey, svc.PublicKey) {
		return fmt.Errorf("server public key does not match configuration")
	}
	c.logger.Debug("key server verified", "serverId", cfg.ServerID, "url", cfg.URL)
	return nil
}

// shareBundle is the per-server wrapped payload.
type shareBundle struct {
	Shares []Share `json:"shares"`
}

// Encrypt seals plaintext into an envelope recoverable by any future holder
// of a valid entitlement for the namespace.
func (c *Client) Encrypt(namespaceID, resourceID string, plaintext, aad []byte) (*core.EncryptedEnvelope, error) {
	if err := core.ValidateResourceID(resourceID); err != nil {
		return nil, err
	}

	dek := make([]byte, dekLen)
	if _, err := rand.Read(dek); err != nil {
		return nil, fmt.Errorf("generating dek: %w", err)
	}
	demKey, err := deriveDEMKey(dek, namespaceID, resourceID)
	if err != nil {
		return nil, err
	}
	nonce, ciphertext, err := sealPlaintext(demKey, plaintext, aad)
	if err != nil {
		return nil, err
	}

	// One Shamir share per unit of weight; a server holding weight w gets w
	// shares, so cumulative weight of responders equals shares collected.
	var total int
	for _, s := range c.servers {
		total += s.Weight
	}
	shares, err := splitSecret(dek, total, c.threshold)
	if err != nil {
		return nil, fmt.Errorf("splitting dek: %w", err)
	}

	wrapped := make([]core.WrappedShare, 0, len(c.servers))
	next := 0
	for _, srv := range c.servers {
		bundle := shareBundle{Shares: shares[next : next+srv.Weight]}
		next += srv.Weight

		raw, err := json.Marshal(bundle)
		if err != nil {
			return nil, fmt.Errorf("encoding share bundle: %w", err)
		}
		payload, err := WrapToServer(srv.PublicKey, srv.ServerID, namespaceID, resourceID, raw)
		if err != nil {
			return nil, fmt.Errorf("wrapping shares for %s: %w", srv.ServerID, err)
		}
		wrapped = append(wrapped, core.WrappedShare{
			ServerID: srv.ServerID,
			Index:    bundle.Shares[0].X,
			Payload:  payload,
		})
	}

	return &core.EncryptedEnvelope{
		Version:        1,
		DEMAlgorithm:   DEMAlgorithm,
		NamespaceID:    namespaceID,
		ResourceID:     resourceID,
		Nonce:          nonce,
		Ciphertext:     ciphertext,
		AssociatedData: aad,
		Threshold:      c.threshold,
		Servers:        c.servers,
		Shares:         wrapped,
	}, nil
}

// decryptRequest is the per-server share recovery request.
type decryptRequest struct {
	ResourceID  string `json:"resourceId"`
	NamespaceID string `json:"namespaceId"`
	Proof       struct {
		Kind    string `json:"kind"`
		TxBytes []byte `json:"txBytes"`
	} `json:"proof"`
	SessionKey struct {
		Address   string `json:"address"`
		IssuedAt  int64  `json:"issuedAt"`
		TTLMin    int    `json:"ttlMinutes"`
		Challenge []byte `json:"challenge"`
		Signature []byte `json:"signature"`
	} `json:"sessionKey"`
	Share struct {
		ServerID string `json:"serverId"`
		Payload  []byte `json:"payload"`
	} `json:"share"`
}

type decryptResponse struct {
	Shares []Share `json:"shares"`
}

// serverResult carries one server's outcome through the fan-in channel.
type serverResult struct {
	serverID string
	weight   int
	shares   []Share
	rejected bool
	err      error
}

// Decrypt recovers plaintext from an envelope.
//
// The envelope's server set is contacted in parallel. Shares accumulate
// until their combined weight reaches the envelope threshold; remaining
// requests are then abandoned. If responding servers reject the proof, the
// attempt fails with core.ErrEntitlementRejected and must not be retried
// without a credential change. If too few servers respond before the
// timeout, it fails with core.ErrThresholdNotReached; retrying the whole
// decrypt with a fresh proof is the caller's decision.
func (c *Client) Decrypt(ctx context.Context, env *core.EncryptedEnvelope, proof core.Proof, key *core.SessionKey) ([]byte, error) {
	if key == nil || !key.Signed() {
		return nil, core.ErrUnauthorizedSessionKey
	}
	if key.Expired(time.Now()) {
		return nil, core.ErrSessionExpired
	}
	if len(proof.TxBytes) == 0 {
		// Every server would reject an empty proof; fail without burning a
		// round of requests.
		return nil, fmt.Errorf("%w: empty proof", core.ErrEntitlementRejected)
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	results := make(chan serverResult, len(env.Servers))
	for _, srv := range env.Servers {
		go func(srv core.KeyServerConfig) {
			results <- c.fetchShares(ctx, srv, env, proof, key)
		}(srv)
	}

	var (
		collected []Share
		weight    int
		rejected  int
		failed    int
	)
	for range env.Servers {
		var res serverResult
		select {
		case res = <-results:
		case <-ctx.Done():
			return nil, fmt.Errorf("%w: %d/%d weight after timeout",
				core.ErrThresholdNotReached, weight, env.Threshold)
		}

		switch {
		case res.rejected:
			rejected++
			c.logger.Debug("key server rejected proof", "serverId", res.serverID)
		case res.err != nil:
			failed++
			c.logger.Debug("key server unavailable", "serverId", res.serverID, "error", res.err)
		default:
			collected = append(collected, res.shares...)
			weight += res.weight
		}

		if weight >= env.Threshold {
			return c.combine(env, collected)
		}
	}

	if rejected > 0 {
		return nil, fmt.Errorf("%w: %d of %d servers refused share release",
			core.ErrEntitlementRejected, rejected, len(env.Servers))
	}
	return nil, fmt.Errorf("%w: reached weight %d of required %d",
		core.ErrThresholdNotReached, weight, env.Threshold)
}

// fetchShares asks one server to verify the proof and release its shares.
func (c *Client) fetchShares(ctx context.Context, srv core.KeyServerConfig, env *core.EncryptedEnvelope, proof core.Proof, key *core.SessionKey) serverResult {
	res := serverResult{serverID: srv.ServerID, weight: srv.Weight}

	wrapped, ok := envelopeShare(env, srv.ServerID)
	if !ok {
		res.err = fmt.Errorf("envelope has no share for server %s", srv.ServerID)
		return res
	}

	var dr decryptRequest
	dr.ResourceID = env.ResourceID
	dr.NamespaceID = env.NamespaceID
	dr.Proof.Kind = proof.Kind.String()
	dr.Proof.TxBytes = proof.TxBytes
	dr.SessionKey.Address = key.Address
	dr.SessionKey.IssuedAt = key.IssuedAt.Unix()
	dr.SessionKey.TTLMin = int(key.TTL.Minutes())
	dr.SessionKey.Challenge = key.Challenge
	dr.SessionKey.Signature = key.Signature
	dr.Share.ServerID = srv.ServerID
	dr.Share.Payload = wrapped.Payload

	body, err := json.Marshal(dr)
	if err != nil {
		res.err = err
		return res
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, srv.URL+"/v1/decrypt", bytes.NewReader(body))
	if err != nil {
		res.err = err
		return res
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		res.err = err
		return res
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusForbidden, http.StatusUnauthorized:
		res.rejected = true
		return res
	default:
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		res.err = fmt.Errorf("server returned %d: %s", resp.StatusCode, msg)
		return res
	}

	var out decryptResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		res.err = fmt.Errorf("decoding share response: %w", err)
		return res
	}
	res.shares = out.Shares
	return res
}

// combine reconstructs the DEK from collected shares and opens the
// ciphertext.
func (c *Client) combine(env *core.EncryptedEnvelope, shares []Share) ([]byte, error) {
	if len(shares) > env.Threshold {
		shares = shares[:env.Threshold]
	}
	dek, err := combineShares(shares)
	if err != nil {
		return nil, fmt.Errorf("combining shares: %w", err)
	}
	demKey, err := deriveDEMKey(dek, env.NamespaceID, env.ResourceID)
	if err != nil {
		return nil, err
	}
	return openCiphertext(demKey, env.Nonce, env.Ciphertext, env.AssociatedData)
}

// envelopeShare finds the wrapped share addressed to a server.
func envelopeShare(env *core.EncryptedEnvelope, serverID string) (core.WrappedShare, bool) {
	for _, ws := range env.Shares {
		if ws.ServerID == serverID {
			return ws, true
		}
	}
	return core.WrappedShare{}, false
}
