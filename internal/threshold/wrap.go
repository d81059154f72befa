package threshold

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/ecdh"
	"crypto/rand"
	"crypto/sha256"
	"fmt"
	"io"

	"golang.org/x/crypto/hkdf"

	"github.com/veilstream/veilstream/core"
)

// Share wrapping. Each server's portion of the split DEK is sealed to that
// server's X25519 key with an ephemeral ECDH exchange, so the encrypting
// party needs only the server set's public identities. The wrap key is bound
// to (server, namespace, resource): a payload lifted from one envelope
// cannot be presented to a different server or resource.

const wrapInfo = "veilstream:wrap:v1"

// WrapToServer seals data to the server's X25519 public key.
// Layout: ephemeral public key (32 bytes) || GCM nonce || ciphertext.
func WrapToServer(serverPub []byte, serverID, namespaceID, resourceID string, data []byte) ([]byte, error) {
	pub, err := ecdh.X25519().NewPublicKey(serverPub)
	if err != nil {
		return nil, fmt.Errorf("server public key: %w", err)
	}
	eph, err := ecdh.X25519().GenerateKey(rand.Reader)
	if err != nil {
		return nil, fmt.Errorf("generating ephemeral key: %w", err)
	}
	secret, err := eph.ECDH(pub)
	if err != nil {
		return nil, fmt.Errorf("ecdh: %w", err)
	}

	aead, err := wrapAEAD(secret, serverID, namespaceID, resourceID)
	if err != nil {
		return nil, err
	}
	nonce := make([]byte, gcmNonceLen)
	if _, err := rand.Read(nonce); err != nil {
		return nil, fmt.Errorf("generating nonce: %w", err)
	}

	out := make([]byte, 0, 32+gcmNonceLen+len(data)+16)
	out = append(out, eph.PublicKey().Bytes()...)
	out = append(out, nonce...)
	return aead.Seal(out, nonce, data, nil), nil
}

// UnwrapFromServer recovers data wrapped with WrapToServer. This is the
// server-side half of the exchange; the client never holds server private
// keys outside of tests.
func UnwrapFromServer(priv *ecdh.PrivateKey, serverID, namespaceID, resourceID string, payload []byte) ([]byte, error) {
	if len(payload) < 32+gcmNonceLen {
		return nil, fmt.Errorf("%w: short wrap payload", core.ErrInvalidEnvelope)
	}
	ephPub, err := ecdh.X25519().NewPublicKey(payload[:32])
	if err != nil {
		return nil, fmt.Errorf("ephemeral public key: %w", err)
	}
	secret, err := priv.ECDH(ephPub)
	if err != nil {
		return nil, fmt.Errorf("ecdh: %w", err)
	}

	aead, err := wrapAEAD(secret, serverID, namespaceID, resourceID)
	if err != nil {
		return nil, err
	}
	nonce := payload[32 : 32+gcmNonceLen]
	data, err := aead.Open(nil, nonce, payload[32+gcmNonceLen:], nil)
	if err != nil {
		return nil, fmt.Errorf("%w: unwrap failed: %v", core.ErrInvalidEnvelope, err)
	}
	return data, nil
}

func wrapAEAD(secret []byte, serverID, namespaceID, resourceID string) (cipher.AEAD, error) {
	info := fmt.Sprintf("%s|%s|%s|%s", wrapInfo, serverID, namespaceID, resourceID)
	key := make([]byte, demKeyLen)
	if _, err := io.ReadFull(hkdf.New(sha256.New, secret, nil, []byte(info)), key); err != nil {
		return nil, fmt.Errorf("deriving wrap key: %w", err)
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("creating cipher: %w", err)
	}
	return cipher.NewGCM(block)
}
