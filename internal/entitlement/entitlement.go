// Package entitlement builds the unsigned transactions key servers evaluate
// to decide whether a caller may recover key shares.
//
// A proof is a dry-run call into the namespace contract's seal-approve entry
// point. It is serialized locally, never signed for broadcast, and never
// submitted to the ledger; the key-server network evaluates it against
// current on-chain state. Proofs are ephemeral: build one per decrypt
// attempt and discard it.
package entitlement

import (
	"bytes"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/veilstream/veilstream/core"
)

// Entry points of the namespace policy contract. The ownership variant
// bypasses the payment and expiry checks the subscription variant enforces.
const (
	approveModule       = "access_policy"
	approveOwnership    = "seal_approve_owner"
	approveSubscription = "seal_approve_subscription"
)

// txVersion tags the proof wire format.
const txVersion = byte(1)

// Builder constructs entitlement proofs for one policy package.
type Builder struct {
	packageID string
}

// New creates a Builder targeting the given on-chain policy package.
func New(packageID string) *Builder {
	return &Builder{packageID: packageID}
}

// BuildOwnershipProof constructs the proof a space creator presents.
// credentialID is the ownership credential object held by the caller.
func (b *Builder) BuildOwnershipProof(resourceID, namespaceID, credentialID string) (core.Proof, error) {
	tx, err := b.buildTx(approveOwnership, resourceID, namespaceID, credentialID)
	if err != nil {
		return core.Proof{}, err
	}
	return core.Proof{Kind: core.AuthOwnership, TxBytes: tx}, nil
}

// BuildSubscriptionProof constructs the proof a subscriber presents.
// credentialID is the subscription credential object held by the caller.
func (b *Builder) BuildSubscriptionProof(resourceID, namespaceID, credentialID string) (core.Proof, error) {
	tx, err := b.buildTx(approveSubscription, resourceID, namespaceID, credentialID)
	if err != nil {
		return core.Proof{}, err
	}
	return core.Proof{Kind: core.AuthSubscription, TxBytes: tx}, nil
}

// buildTx serializes the dry-run call deterministically: identical inputs
// always produce identical bytes, so key servers can cache verdicts on the
// proof digest.
func (b *Builder) buildTx(function, resourceID, namespaceID, credentialID string) ([]byte, error) {
	if err := core.ValidateResourceID(resourceID); err != nil {
		return nil, fmt.Errorf("%w: %v", core.ErrProofBuildFailure, err)
	}
	resource, err := hex.DecodeString(resourceID)
	if err != nil {
		return nil, fmt.Errorf("%w: resource id not hex: %v", core.ErrProofBuildFailure, err)
	}
	if credentialID == "" {
		return nil, fmt.Errorf("%w: empty credential id", core.ErrProofBuildFailure)
	}

	var buf bytes.Buffer
	buf.WriteByte(txVersion)
	writeString(&buf, b.packageID)
	writeString(&buf, approveModule)
	writeString(&buf, function)
	writeBytes(&buf, resource)
	writeString(&buf, normalizeObjectID(namespaceID))
	writeString(&buf, normalizeObjectID(credentialID))
	return buf.Bytes(), nil
}

func writeString(buf *bytes.Buffer, s string) {
	writeBytes(buf, []byte(s))
}

func writeBytes(buf *bytes.Buffer, b []byte) {
	var length [4]byte
	binary.BigEndian.PutUint32(length[:], uint32(len(b)))
	buf.Write(length[:])
	buf.Write(b)
}

// normalizeObjectID lowercases object ids so equal ids serialize equally
// regardless of caller formatting.
func normalizeObjectID(id string) string {
	return strings.ToLower(id)
}
