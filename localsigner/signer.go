// Package localsigner implements the veilstream wallet Signer interface
// with a locally held ed25519 key.
//
// It exists for CLI use and tests; production consumers typically adapt a
// wallet extension's signing callback instead. Personal messages are framed
// with a domain prefix before signing so a session challenge can never be
// confused with a transaction.
package localsigner

import (
	"context"
	"crypto/ed25519"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
)

// personalMessagePrefix frames every signed message.
const personalMessagePrefix = "\x19Veilstream Signed Message:\n"

// Signer signs personal messages with an ed25519 private key.
type Signer struct {
	priv    ed25519.PrivateKey
	address string
}

// NewEphemeral generates a throwaway keypair.
func NewEphemeral() (*Signer, error) {
	_, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return nil, fmt.Errorf("generate key: %w", err)
	}
	return fromKey(priv)
}

// FromKey wraps an existing ed25519 private key.
func FromKey(priv ed25519.PrivateKey) (*Signer, error) {
	if len(priv) != ed25519.PrivateKeySize {
		return nil, errors.New("localsigner: bad private key length")
	}
	return fromKey(priv)
}

func fromKey(priv ed25519.PrivateKey) (*Signer, error) {
	pub, ok := priv.Public().(ed25519.PublicKey)
	if !ok {
		return nil, errors.New("localsigner: unexpected public key type")
	}
	sum := sha256.Sum256(pub)
	return &Signer{
		priv:    priv,
		address: "0x" + hex.EncodeToString(sum[:]),
	}, nil
}

// Address returns the wallet address derived from the public key.
func (s *Signer) Address() string { return s.address }

// PublicKey returns the verifying key.
func (s *Signer) PublicKey() ed25519.PublicKey {
	return s.priv.Public().(ed25519.PublicKey)
}

// SignPersonalMessage signs msg with the personal-message framing.
func (s *Signer) SignPersonalMessage(_ context.Context, msg []byte) ([]byte, error) {
	framed := fmt.Appendf(nil, "%s%d\n", personalMessagePrefix, len(msg))
	framed = append(framed, msg...)
	return ed25519.Sign(s.priv, framed), nil
}

// Verify checks a personal-message signature against a public key.
func Verify(pub ed25519.PublicKey, msg, sig []byte) bool {
	framed := fmt.Appendf(nil, "%s%d\n", personalMessagePrefix, len(msg))
	framed = append(framed, msg...)
	return ed25519.Verify(pub, framed, sig)
}
