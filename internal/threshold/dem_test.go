package threshold

import (
	"crypto/ecdh"
	"crypto/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSealOpenRoundTrip(t *testing.T) {
	t.Parallel()

	dek := make([]byte, dekLen)
	_, err := rand.Read(dek)
	require.NoError(t, err)

	key, err := deriveDEMKey(dek, "0xns", "0a1b2c")
	require.NoError(t, err)

	plaintext := []byte("the quick brown fox")
	aad := []byte("context")

	nonce, ct, err := sealPlaintext(key, plaintext, aad)
	require.NoError(t, err)
	require.Len(t, nonce, gcmNonceLen)
	assert.NotEqual(t, plaintext, ct)

	got, err := openCiphertext(key, nonce, ct, aad)
	require.NoError(t, err)
	assert.Equal(t, plaintext, got)
}

func TestOpenRejectsTampering(t *testing.T) {
	t.Parallel()

	dek := make([]byte, dekLen)
	_, err := rand.Read(dek)
	require.NoError(t, err)

	key, err := deriveDEMKey(dek, "0xns", "0a1b2c")
	require.NoError(t, err)

	nonce, ct, err := sealPlaintext(key, []byte("payload"), []byte("aad"))
	require.NoError(t, err)

	flipped := append([]byte(nil), ct...)
	flipped[0] ^= 0x01
	_, err = openCiphertext(key, nonce, flipped, []byte("aad"))
	assert.Error(t, err)

	_, err = openCiphertext(key, nonce, ct, []byte("other aad"))
	assert.Error(t, err)
}

func TestDeriveDEMKeyDomainSeparation(t *testing.T) {
	t.Parallel()

	dek := make([]byte, dekLen)
	_, err := rand.Read(dek)
	require.NoError(t, err)

	a, err := deriveDEMKey(dek, "0xns", "0a1b2c")
	require.NoError(t, err)
	b, err := deriveDEMKey(dek, "0xns", "ff00ff")
	require.NoError(t, err)
	c, err := deriveDEMKey(dek, "0xother", "0a1b2c")
	require.NoError(t, err)

	assert.NotEqual(t, a, b)
	assert.NotEqual(t, a, c)
}

func TestWrapUnwrapRoundTrip(t *testing.T) {
	t.Parallel()

	priv, err := ecdh.X25519().GenerateKey(rand.Reader)
	require.NoError(t, err)

	data := []byte(`{"shares":[{"x":1,"y":"AQID"}]}`)
	payload, err := WrapToServer(priv.PublicKey().Bytes(), "srv-1", "0xns", "0a1b2c", data)
	require.NoError(t, err)

	got, err := UnwrapFromServer(priv, "srv-1", "0xns", "0a1b2c", payload)
	require.NoError(t, err)
	assert.Equal(t, data, got)

	// Binding: a different server identity fails to unwrap.
	_, err = UnwrapFromServer(priv, "srv-2", "0xns", "0a1b2c", payload)
	assert.Error(t, err)

	// Binding: a different resource fails to unwrap.
	_, err = UnwrapFromServer(priv, "srv-1", "0xns", "deadbeef", payload)
	assert.Error(t, err)

	// The wrong private key fails to unwrap.
	other, err := ecdh.X25519().GenerateKey(rand.Reader)
	require.NoError(t, err)
	_, err = UnwrapFromServer(other, "srv-1", "0xns", "0a1b2c", payload)
	assert.Error(t, err)
}

func TestWrapToServerBadKey(t *testing.T) {
	t.Parallel()

	_, err := WrapToServer([]byte("short"), "srv-1", "0xns", "0a1b2c", []byte("data"))
	assert.Error(t, err)
}
