package localsigner

import (
	"context"
	"crypto/ed25519"
	"crypto/rand"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSignVerify(t *testing.T) {
	t.Parallel()

	s, err := NewEphemeral()
	require.NoError(t, err)

	msg := []byte("veilstream:session:v1\naddress=0xabc")
	sig, err := s.SignPersonalMessage(context.Background(), msg)
	require.NoError(t, err)

	assert.True(t, Verify(s.PublicKey(), msg, sig))
	assert.False(t, Verify(s.PublicKey(), []byte("other message"), sig))

	// Framing: a raw ed25519 signature over the bare message does not verify.
	_, priv, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)
	other, err := FromKey(priv)
	require.NoError(t, err)
	raw := ed25519.Sign(priv, msg)
	assert.False(t, Verify(other.PublicKey(), msg, raw))
}

func TestAddressDeterministic(t *testing.T) {
	t.Parallel()

	_, priv, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)

	a, err := FromKey(priv)
	require.NoError(t, err)
	b, err := FromKey(priv)
	require.NoError(t, err)

	assert.Equal(t, a.Address(), b.Address())
	assert.True(t, strings.HasPrefix(a.Address(), "0x"))
	assert.Len(t, a.Address(), 2+64)
}

func TestFromKeyBadLength(t *testing.T) {
	t.Parallel()

	_, err := FromKey(make([]byte, 7))
	assert.Error(t, err)
}

func TestKeyFileRoundTrip(t *testing.T) {
	t.Parallel()

	s, err := NewEphemeral()
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "wallet.json")
	require.NoError(t, s.Save(path, ""))

	loaded, err := Load(path, "")
	require.NoError(t, err)
	assert.Equal(t, s.Address(), loaded.Address())
}

func TestKeyFilePassphrase(t *testing.T) {
	t.Parallel()

	s, err := NewEphemeral()
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "wallet.json")
	require.NoError(t, s.Save(path, "hunter2"))

	loaded, err := Load(path, "hunter2")
	require.NoError(t, err)
	assert.Equal(t, s.Address(), loaded.Address())

	_, err = Load(path, "wrong")
	assert.ErrorIs(t, err, errBadPassphrase)

	_, err = Load(path, "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "passphrase protected")
}

func TestLoadMissingFile(t *testing.T) {
	t.Parallel()

	_, err := Load(filepath.Join(t.TempDir(), "absent.json"), "")
	assert.Error(t, err)
}
