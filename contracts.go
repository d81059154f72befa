package veilstream

import (
	"context"
	"time"

	"github.com/veilstream/veilstream/core"
)

// Consumer-side views of the internal pipeline components. NewClient wires
// the default implementations; the narrow interfaces keep the orchestrator
// testable without network access.

type blobStore interface {
	Upload(ctx context.Context, data []byte, epochs int) (core.BlobRef, error)
	Download(ctx context.Context, blobID string) ([]byte, error)
	DownloadVerified(ctx context.Context, ref core.BlobRef) ([]byte, error)
}

type encrypter interface {
	Init(ctx context.Context) error
	Encrypt(namespaceID, resourceID string, plaintext, aad []byte) (*core.EncryptedEnvelope, error)
	Decrypt(ctx context.Context, env *core.EncryptedEnvelope, proof core.Proof, key *core.SessionKey) ([]byte, error)
}

type proofBuilder interface {
	BuildOwnershipProof(resourceID, namespaceID, credentialID string) (core.Proof, error)
	BuildSubscriptionProof(resourceID, namespaceID, credentialID string) (core.Proof, error)
}

type sessionManager interface {
	Create(ctx context.Context, namespaceID string, ttl time.Duration) (*core.SessionKey, error)
	Validate(key *core.SessionKey, namespaceID string) error
}

type authResolver interface {
	ResolveAuthToken(ctx context.Context, owner, namespaceID string, kind core.AuthTokenKind) (core.AuthToken, error)
	WatchNamespace(ctx context.Context, namespaceID string) <-chan core.ContentEvent
}
