package core

import "errors"

// Sentinel errors for pipeline failure conditions. Every failure surfaced by
// the orchestrator wraps exactly one of these, so consumers can branch on
// errors.Is without parsing messages.
var (
	// ErrWalletRequired indicates gated content was requested without a
	// connected wallet address.
	ErrWalletRequired = errors.New("veilstream: wallet required")

	// ErrWalletUnavailable indicates no signing capability is present.
	ErrWalletUnavailable = errors.New("veilstream: wallet unavailable")

	// ErrInvalidResourceID indicates the resource identifier is empty,
	// a placeholder, or not derived from a valid namespace.
	ErrInvalidResourceID = errors.New("veilstream: invalid resource id")

	// ErrOwnershipProofMissing indicates a creator-role request lacks an
	// ownership credential.
	ErrOwnershipProofMissing = errors.New("veilstream: ownership proof missing")

	// ErrSubscriptionProofMissing indicates a subscriber-role request lacks a
	// subscription credential.
	ErrSubscriptionProofMissing = errors.New("veilstream: subscription proof missing")

	// ErrProofBuildFailure indicates the entitlement proof transaction could
	// not be constructed.
	ErrProofBuildFailure = errors.New("veilstream: proof build failure")

	// ErrThresholdNotReached indicates too few key servers responded and
	// verified before the decrypt timeout.
	ErrThresholdNotReached = errors.New("veilstream: threshold not reached")

	// ErrEntitlementRejected indicates a key server evaluated the proof and
	// refused to release its share. The caller holds no valid credential;
	// retrying without a credential change cannot succeed.
	ErrEntitlementRejected = errors.New("veilstream: entitlement rejected")

	// ErrPublishersExhausted indicates every configured publisher was tried
	// once and all failed.
	ErrPublishersExhausted = errors.New("veilstream: publishers exhausted")

	// ErrUploadRejected indicates a publisher rejected the upload terminally
	// (malformed request, not a transient fault).
	ErrUploadRejected = errors.New("veilstream: upload rejected")

	// ErrDownloadFailure indicates the aggregator read failed.
	ErrDownloadFailure = errors.New("veilstream: download failure")

	// ErrSessionExpired indicates the session key's TTL has elapsed.
	ErrSessionExpired = errors.New("veilstream: session key expired")

	// ErrUnauthorizedSessionKey indicates the session key has no attached
	// signature.
	ErrUnauthorizedSessionKey = errors.New("veilstream: unauthorized session key")

	// ErrEncryptionUnavailable indicates encryption was required but the
	// threshold client is not configured or failed. Uploads fail closed
	// rather than storing plaintext.
	ErrEncryptionUnavailable = errors.New("veilstream: encryption unavailable")

	// ErrDigestMismatch indicates downloaded bytes did not match the
	// recorded blob digest.
	ErrDigestMismatch = errors.New("veilstream: blob digest mismatch")

	// ErrAuthTokenNotFound indicates the ledger holds no credential of the
	// requested kind for the caller and namespace.
	ErrAuthTokenNotFound = errors.New("veilstream: auth token not found")

	// ErrInvalidEnvelope indicates the blob is not a valid encrypted
	// envelope.
	ErrInvalidEnvelope = errors.New("veilstream: invalid envelope")
)
