package veilstream

import "github.com/veilstream/veilstream/core"

// Public types re-exported from core so consumers import veilstream alone.
type (
	// AccessRole identifies which entitlement path a caller exercises.
	AccessRole = core.AccessRole

	// AuthToken is an on-chain credential reference.
	AuthToken = core.AuthToken

	// AuthTokenKind tags the credential variant.
	AuthTokenKind = core.AuthTokenKind

	// BlobRef identifies a stored blob.
	BlobRef = core.BlobRef

	// ContentEvent announces newly published content in a namespace.
	ContentEvent = core.ContentEvent

	// ContentRequest describes one content item to load.
	ContentRequest = core.ContentRequest

	// ContentResult is the consumable representation of loaded content.
	ContentResult = core.ContentResult

	// ContentStatus is the orchestrator's per-item load state.
	ContentStatus = core.ContentStatus

	// EncryptedEnvelope is the stored representation of encrypted content.
	EncryptedEnvelope = core.EncryptedEnvelope

	// KeyServerConfig maps a key server to its weight and address.
	KeyServerConfig = core.KeyServerConfig

	// Proof is a locally built, unsigned entitlement transaction.
	Proof = core.Proof

	// SessionKey is a short-lived signature-authenticated credential.
	SessionKey = core.SessionKey

	// UploadReceipt is returned by content uploads.
	UploadReceipt = core.UploadReceipt
)

// Role constants.
const (
	RoleCreator    = core.RoleCreator
	RoleSubscriber = core.RoleSubscriber
)

// Credential kinds.
const (
	AuthOwnership    = core.AuthOwnership
	AuthSubscription = core.AuthSubscription
)

// Content load states.
const (
	StatusIdle    = core.StatusIdle
	StatusLoading = core.StatusLoading
	StatusDecoded = core.StatusDecoded
	StatusFailed  = core.StatusFailed
)
