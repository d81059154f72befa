// Package core provides the shared types and sentinel errors for veilstream.
//
// This package exists to break import cycles between the root veilstream
// package and internal implementation packages. The veilstream package
// re-exports all public types from this package, so external users should
// import veilstream directly, not veilstream/core.
package core

import (
	"time"

	"github.com/opencontainers/go-digest"
)

// AccessRole identifies which entitlement path a caller exercises.
type AccessRole int

const (
	// RoleCreator decrypts via an ownership credential. Owner proofs bypass
	// the payment and expiry checks a subscriber proof must satisfy.
	RoleCreator AccessRole = iota

	// RoleSubscriber decrypts via an active subscription credential.
	RoleSubscriber
)

// String returns the role name for logging.
func (r AccessRole) String() string {
	if r == RoleCreator {
		return "creator"
	}
	return "subscriber"
}

// AuthTokenKind tags the credential variant backing an entitlement.
type AuthTokenKind int

const (
	// AuthOwnership is the credential minted to the space creator.
	AuthOwnership AuthTokenKind = iota

	// AuthSubscription is the credential minted to a paying subscriber.
	AuthSubscription
)

// String returns the kind name for logging.
func (k AuthTokenKind) String() string {
	if k == AuthOwnership {
		return "ownership"
	}
	return "subscription"
}

// AuthToken is an on-chain credential reference resolved from the ledger.
// Lifecycle is entirely external: the contract layer mints and burns it,
// the pipeline only reads it.
type AuthToken struct {
	Kind         AuthTokenKind
	CredentialID string
}

// Proof is a locally built, unsigned transaction used for key-server-side
// policy evaluation. It is never broadcast to the ledger. Ephemeral: built
// fresh per decrypt attempt and discarded after use.
type Proof struct {
	Kind    AuthTokenKind
	TxBytes []byte
}

// KeyServerConfig maps a key-server identity to its verification weight and
// network address. A decrypt succeeds once the summed weight of responding,
// verified servers reaches the configured threshold.
type KeyServerConfig struct {
	ServerID string `json:"serverId"`
	Weight   int    `json:"weight"`
	URL      string `json:"url"`
	// PublicKey is the server's X25519 wrapping key. Populated from
	// configuration or by the verify-on-init probe.
	PublicKey []byte `json:"publicKey,omitempty"`
}

// SessionKey is a short-lived, address-bound credential authorizing decrypt
// requests without repeated wallet prompts. It is unusable until a signature
// over Challenge is attached, and expires at IssuedAt+TTL.
//
// A SessionKey may be reused across decrypts for the same (address,
// namespace) pair within its TTL. It must never be cached beyond the TTL or
// reused across namespaces.
type SessionKey struct {
	Address     string
	NamespaceID string
	IssuedAt    time.Time
	TTL         time.Duration
	Challenge   []byte
	Signature   []byte
}

// Signed reports whether a signature has been attached.
func (k *SessionKey) Signed() bool { return len(k.Signature) > 0 }

// ExpiresAt returns the instant the key stops being usable.
func (k *SessionKey) ExpiresAt() time.Time { return k.IssuedAt.Add(k.TTL) }

// Expired reports whether the key is past its TTL at the given instant.
func (k *SessionKey) Expired(now time.Time) bool { return !now.Before(k.ExpiresAt()) }

// WrappedShare is one key server's portion of the data-encapsulation key,
// wrapped to that server's namespace identity.
type WrappedShare struct {
	ServerID string `json:"serverId"`
	Index    byte   `json:"index"`
	Payload  []byte `json:"payload"`
}

// EncryptedEnvelope is the stored representation of encrypted content. It
// carries enough metadata (server set, weights, threshold) for any future
// holder of a valid entitlement to request key-share recovery.
type EncryptedEnvelope struct {
	Version        int               `json:"v"`
	DEMAlgorithm   string            `json:"dem"`
	NamespaceID    string            `json:"namespaceId"`
	ResourceID     string            `json:"resourceId"`
	Nonce          []byte            `json:"nonce"`
	Ciphertext     []byte            `json:"ciphertext"`
	AssociatedData []byte            `json:"aad,omitempty"`
	Threshold      int               `json:"threshold"`
	Servers        []KeyServerConfig `json:"servers"`
	Shares         []WrappedShare    `json:"shares"`
}

// BlobRef identifies a stored blob. BlobID is the only field required for
// later retrieval; Digest, when present, lets downloads verify integrity.
type BlobRef struct {
	BlobID        string
	ObjectID      string
	StorageEpochs int
	Size          int64
	Digest        digest.Digest
}

// ContentStatus is the orchestrator's per-item load state.
type ContentStatus int

const (
	// StatusIdle means no load has been attempted.
	StatusIdle ContentStatus = iota

	// StatusLoading means a load is in flight.
	StatusLoading

	// StatusDecoded means content is available.
	StatusDecoded

	// StatusFailed means the load failed with a specific error kind.
	StatusFailed
)

// String returns the status name for logging.
func (s ContentStatus) String() string {
	switch s {
	case StatusIdle:
		return "idle"
	case StatusLoading:
		return "loading"
	case StatusDecoded:
		return "decoded"
	default:
		return "failed"
	}
}

// ContentRequest describes one content item to load.
type ContentRequest struct {
	// BlobID addresses the stored bytes.
	BlobID string
	// ResourceID is the namespace-derived identifier entitlement checks are
	// scoped to. Required when Locked.
	ResourceID string
	// NamespaceID is the space identifier the content belongs to.
	NamespaceID string
	// ContentType is the declared MIME type.
	ContentType string
	// Locked marks the content access-gated.
	Locked bool
	// Role selects the entitlement path for gated content.
	Role AccessRole
	// AuthID is the credential object id backing the role.
	AuthID string
}

// ContentResult is the consumable representation of loaded content.
type ContentResult struct {
	Status      ContentStatus
	ContentType string
	// Text holds decoded textual content.
	Text string
	// Data holds binary content.
	Data []byte
	// Encrypted reports whether the stored bytes were an encrypted envelope.
	Encrypted bool
}

// IsTextual reports whether a MIME type should be decoded as text.
func IsTextual(contentType string) bool {
	switch {
	case len(contentType) >= 5 && contentType[:5] == "text/":
		return true
	case contentType == "application/json":
		return true
	case contentType == "application/xml":
		return true
	default:
		return false
	}
}

// UploadReceipt is returned by content uploads.
type UploadReceipt struct {
	Blob BlobRef
	// ResourceID is set when the content was encrypted.
	ResourceID string
	// Encrypted reports whether stored bytes are an envelope rather than
	// plaintext.
	Encrypted bool
	// Compressed reports whether plaintext was compressed before storage.
	Compressed bool
}

// ContentEvent announces newly published content in a namespace.
type ContentEvent struct {
	NamespaceID string
	BlobID      string
	ResourceID  string
	ContentType string
	CreatedAt   time.Time
}
