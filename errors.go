package veilstream

import "github.com/veilstream/veilstream/core"

// Sentinel errors for pipeline failure conditions.
// Re-exported from core package.
var (
	// ErrWalletRequired indicates gated content was requested without a
	// connected wallet.
	ErrWalletRequired = core.ErrWalletRequired

	// ErrWalletUnavailable indicates no signing capability is present.
	ErrWalletUnavailable = core.ErrWalletUnavailable

	// ErrInvalidResourceID indicates a malformed or placeholder resource id.
	ErrInvalidResourceID = core.ErrInvalidResourceID

	// ErrOwnershipProofMissing indicates a creator request lacks an
	// ownership credential.
	ErrOwnershipProofMissing = core.ErrOwnershipProofMissing

	// ErrSubscriptionProofMissing indicates a subscriber request lacks a
	// subscription credential.
	ErrSubscriptionProofMissing = core.ErrSubscriptionProofMissing

	// ErrProofBuildFailure indicates the entitlement proof could not be
	// constructed.
	ErrProofBuildFailure = core.ErrProofBuildFailure

	// ErrThresholdNotReached indicates too few key servers responded before
	// the decrypt timeout.
	ErrThresholdNotReached = core.ErrThresholdNotReached

	// ErrEntitlementRejected indicates key servers refused share release.
	ErrEntitlementRejected = core.ErrEntitlementRejected

	// ErrPublishersExhausted indicates every publisher failed an upload.
	ErrPublishersExhausted = core.ErrPublishersExhausted

	// ErrUploadRejected indicates a publisher rejected the upload terminally.
	ErrUploadRejected = core.ErrUploadRejected

	// ErrDownloadFailure indicates the aggregator read failed.
	ErrDownloadFailure = core.ErrDownloadFailure

	// ErrSessionExpired indicates the session key's TTL has elapsed.
	ErrSessionExpired = core.ErrSessionExpired

	// ErrUnauthorizedSessionKey indicates the session key is unsigned.
	ErrUnauthorizedSessionKey = core.ErrUnauthorizedSessionKey

	// ErrEncryptionUnavailable indicates encryption was required but not
	// possible; uploads fail closed.
	ErrEncryptionUnavailable = core.ErrEncryptionUnavailable

	// ErrDigestMismatch indicates downloaded bytes failed integrity
	// verification.
	ErrDigestMismatch = core.ErrDigestMismatch

	// ErrAuthTokenNotFound indicates no matching credential exists on the
	// ledger.
	ErrAuthTokenNotFound = core.ErrAuthTokenNotFound

	// ErrInvalidEnvelope indicates the blob is not a valid encrypted
	// envelope.
	ErrInvalidEnvelope = core.ErrInvalidEnvelope
)
