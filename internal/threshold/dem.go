package threshold

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"fmt"
	"io"

	"golang.org/x/crypto/hkdf"

	"github.com/veilstream/veilstream/core"
)

// Data-encapsulation parameters. The DEM key is never the raw
// data-encapsulation key: it is derived per (namespace, resource) so a
// recovered DEK from one resource cannot open another's ciphertext.
const (
	// DEMAlgorithm identifies the bulk cipher recorded in envelopes.
	DEMAlgorithm = "aes-256-gcm"

	dekLen      = 32
	demKeyLen   = 32
	gcmNonceLen = 12

	demInfo = "veilstream:dem:v1"
)

// deriveDEMKey derives the AEAD key from the data-encapsulation key.
func deriveDEMKey(dek []byte, namespaceID, resourceID string) ([]byte, error) {
	info := fmt.Sprintf("%s|%s|%s", demInfo, namespaceID, resourceID)
	key := make([]byte, demKeyLen)
	if _, err := io.ReadFull(hkdf.New(sha256.New, dek, nil, []byte(info)), key); err != nil {
		return nil, fmt.Errorf("deriving dem key: %w", err)
	}
	return key, nil
}

// sealPlaintext encrypts plaintext under the derived key with a fresh nonce.
func sealPlaintext(demKey, plaintext, aad []byte) (nonce, ciphertext []byte, err error) {
	aead, err := newGCM(demKey)
	if err != nil {
		return nil, nil, err
	}
	nonce = make([]byte, gcmNonceLen)
	if _, err := rand.Read(nonce); err != nil {
		return nil, nil, fmt.Errorf("generating nonce: %w", err)
	}
	return nonce, aead.Seal(nil, nonce, plaintext, aad), nil
}

// openCiphertext decrypts and authenticates envelope contents.
func openCiphertext(demKey, nonce, ciphertext, aad []byte) ([]byte, error) {
	aead, err := newGCM(demKey)
	if err != nil {
		return nil, err
	}
	if len(nonce) != gcmNonceLen {
		return nil, fmt.Errorf("%w: bad nonce length %d", core.ErrInvalidEnvelope, len(nonce))
	}
	plaintext, err := aead.Open(nil, nonce, ciphertext, aad)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", core.ErrInvalidEnvelope, err)
	}
	return plaintext, nil
}

func newGCM(key []byte) (cipher.AEAD, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("creating cipher: %w", err)
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("creating gcm: %w", err)
	}
	return aead, nil
}
