package session

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/veilstream/veilstream/core"
)

// countingSigner records how many times the wallet is prompted.
type countingSigner struct {
	address string
	calls   atomic.Int64
	err     error
}

func (s *countingSigner) Address() string { return s.address }

func (s *countingSigner) SignPersonalMessage(_ context.Context, msg []byte) ([]byte, error) {
	s.calls.Add(1)
	if s.err != nil {
		return nil, s.err
	}
	sig := append([]byte("sig:"), msg[:min(8, len(msg))]...)
	return sig, nil
}

func TestCreate(t *testing.T) {
	t.Parallel()

	signer := &countingSigner{address: "0xabc"}
	m := New(signer)

	key, err := m.Create(context.Background(), "0xns", 0)
	require.NoError(t, err)
	assert.Equal(t, "0xabc", key.Address)
	assert.Equal(t, "0xns", key.NamespaceID)
	assert.Equal(t, DefaultTTL, key.TTL)
	assert.True(t, key.Signed())

	// Exactly one wallet prompt per key.
	assert.Equal(t, int64(1), signer.calls.Load())
}

func TestCreateNoSigner(t *testing.T) {
	t.Parallel()

	m := New(nil)
	_, err := m.Create(context.Background(), "0xns", time.Minute)
	assert.ErrorIs(t, err, core.ErrWalletUnavailable)
}

func TestCreateSignerFailure(t *testing.T) {
	t.Parallel()

	signer := &countingSigner{address: "0xabc", err: errors.New("user declined")}
	m := New(signer)

	_, err := m.Create(context.Background(), "0xns", time.Minute)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "user declined")
}

func TestValidate(t *testing.T) {
	t.Parallel()

	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	newKey := func(t *testing.T, m *Manager, namespace string) *core.SessionKey {
		t.Helper()
		key, err := m.Create(context.Background(), namespace, 10*time.Minute)
		require.NoError(t, err)
		return key
	}

	tests := []struct {
		name     string
		mutate   func(*core.SessionKey)
		validate string
		elapsed  time.Duration
		wantErr  error
	}{
		{
			name:     "fresh key is valid",
			validate: "0xns",
		},
		{
			name:     "valid until the last second",
			validate: "0xns",
			elapsed:  10*time.Minute - time.Second,
		},
		{
			name:     "expired after ttl",
			validate: "0xns",
			elapsed:  10*time.Minute + time.Second,
			wantErr:  core.ErrSessionExpired,
		},
		{
			name:     "wrong namespace",
			validate: "0xother",
			wantErr:  core.ErrUnauthorizedSessionKey,
		},
		{
			name:     "unsigned key",
			mutate:   func(k *core.SessionKey) { k.Signature = nil },
			validate: "0xns",
			wantErr:  core.ErrUnauthorizedSessionKey,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			now := base
			m := New(&countingSigner{address: "0xabc"}, WithClock(func() time.Time { return now }))
			key := newKey(t, m, "0xns")
			if tt.mutate != nil {
				tt.mutate(key)
			}
			now = base.Add(tt.elapsed)

			err := m.Validate(key, tt.validate)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidateNilKey(t *testing.T) {
	t.Parallel()

	m := New(nil)
	assert.ErrorIs(t, m.Validate(nil, "0xns"), core.ErrUnauthorizedSessionKey)
}

func TestChallengeBindsAddressAndNamespace(t *testing.T) {
	t.Parallel()

	m := New(&countingSigner{address: "0xabc"})
	key, err := m.Create(context.Background(), "0xns", time.Minute)
	require.NoError(t, err)

	assert.Contains(t, string(key.Challenge), "address=0xabc")
	assert.Contains(t, string(key.Challenge), "namespace=0xns")

	// Two keys for the same pair still differ by nonce.
	other, err := m.Create(context.Background(), "0xns", time.Minute)
	require.NoError(t, err)
	assert.NotEqual(t, key.Challenge, other.Challenge)
}

func TestAttachSignatureEmpty(t *testing.T) {
	t.Parallel()

	key := &core.SessionKey{}
	assert.ErrorIs(t, AttachSignature(key, nil), core.ErrUnauthorizedSessionKey)
	assert.False(t, key.Signed())
}
