// Package veilstream wallet signing surface.
package veilstream

import "context"

// Signer is the wallet signing capability the pipeline consumes. The
// pipeline calls SignPersonalMessage exactly once per created session key;
// no other signing is required (entitlement proofs are dry-run evaluated,
// never signed for broadcast).
type Signer interface {
	// Address returns the wallet address signatures are bound to.
	Address() string

	// SignPersonalMessage signs raw challenge bytes as a personal message.
	SignPersonalMessage(ctx context.Context, msg []byte) ([]byte, error)
}
