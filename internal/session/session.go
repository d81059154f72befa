// Package session manages short-lived, signature-authenticated session keys.
//
// A session key binds one wallet address to one content namespace and
// carries the user's signature over a generated challenge. Creating and
// signing a key costs exactly one wallet prompt; the key then authorizes
// every decrypt for that (address, namespace) pair until its TTL elapses.
package session

import (
	"context"
	"crypto/rand"
	"fmt"
	"log/slog"
	"time"

	"github.com/veilstream/veilstream/core"
)

// DefaultTTL is used when the caller passes a non-positive TTL.
const DefaultTTL = 10 * time.Minute

// challengeDomain separates session-key challenges from any other personal
// message the wallet might sign.
const challengeDomain = "veilstream:session:v1"

// Signer is the wallet signing capability the manager consumes. It is called
// exactly once per created key.
type Signer interface {
	// Address returns the wallet address signatures are bound to.
	Address() string
	// SignPersonalMessage signs the raw challenge bytes.
	SignPersonalMessage(ctx context.Context, msg []byte) ([]byte, error)
}

// Manager creates and validates session keys.
type Manager struct {
	signer Signer
	logger *slog.Logger
	now    func() time.Time
}

// Option configures a Manager.
type Option func(*Manager)

// WithLogger sets a logger. By default, logging is disabled.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) { m.logger = logger }
}

// WithClock overrides the time source, for tests.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) { m.now = now }
}

// New creates a Manager. The signer may be nil, in which case Create fails
// with core.ErrWalletUnavailable.
func New(signer Signer, opts ...Option) *Manager {
	m := &Manager{
		signer: signer,
		logger: slog.New(slog.DiscardHandler),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Create builds a session key for the namespace and prompts the wallet once
// to sign its challenge. The returned key is immediately usable.
func (m *Manager) Create(ctx context.Context, namespaceID string, ttl time.Duration) (*core.SessionKey, error) {
	if m.signer == nil {
		return nil, core.ErrWalletUnavailable
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}

	key, err := m.newUnsigned(m.signer.Address(), namespaceID, ttl)
	if err != nil {
		return nil, err
	}

	sig, err := m.signer.SignPersonalMessage(ctx, key.Challenge)
	if err != nil {
		return nil, fmt.Errorf("signing session challenge: %w", err)
	}
	if err := AttachSignature(key, sig); err != nil {
		return nil, err
	}
	m.logger.Debug("session key created",
		"address", key.Address, "namespace", namespaceID, "ttl", ttl)
	return key, nil
}

// newUnsigned builds the key and its challenge without contacting the wallet.
func (m *Manager) newUnsigned(address, namespaceID string, ttl time.Duration) (*core.SessionKey, error) {
	issued := m.now().UTC().Truncate(time.Second)

	nonce := make([]byte, 16)
	if _, err := rand.Read(nonce); err != nil {
		return nil, fmt.Errorf("generating challenge nonce: %w", err)
	}

	challenge := fmt.Appendf(nil, "%s\naddress=%s\nnamespace=%s\nissued=%d\nttl=%d\nnonce=%x",
		challengeDomain, address, namespaceID, issued.Unix(), int(ttl.Minutes()), nonce)

	return &core.SessionKey{
		Address:     address,
		NamespaceID: namespaceID,
		IssuedAt:    issued,
		TTL:         ttl,
		Challenge:   challenge,
	}, nil
}

// AttachSignature makes an unsigned key usable. The signature must cover the
// exact challenge bytes the manager generated.
func AttachSignature(key *core.SessionKey, sig []byte) error {
	if len(sig) == 0 {
		return fmt.Errorf("%w: empty signature", core.ErrUnauthorizedSessionKey)
	}
	key.Signature = sig
	return nil
}

// Validate checks a key before every use. Expired keys must be recreated;
// there is no silent renewal.
func (m *Manager) Validate(key *core.SessionKey, namespaceID string) error {
	if key == nil || !key.Signed() {
		return core.ErrUnauthorizedSessionKey
	}
	if key.NamespaceID != namespaceID {
		return fmt.Errorf("%w: key bound to namespace %s, not %s",
			core.ErrUnauthorizedSessionKey, key.NamespaceID, namespaceID)
	}
	if key.Expired(m.now()) {
		return fmt.Errorf("%w: expired at %s", core.ErrSessionExpired, key.ExpiresAt().Format(time.RFC3339))
	}
	return nil
}
