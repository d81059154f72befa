package threshold_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/veilstream/veilstream/core"
	"github.com/veilstream/veilstream/internal/testutil/keyserver"
	"github.com/veilstream/veilstream/internal/threshold"
)

const (
	testNamespace = "0xnamespace"
	testResource  = "0a1b2c3d4e5f"
)

func testSessionKey() *core.SessionKey {
	return &core.SessionKey{
		Address:     "0xabc",
		NamespaceID: testNamespace,
		IssuedAt:    time.Now().UTC(),
		TTL:         10 * time.Minute,
		Challenge:   []byte("challenge"),
		Signature:   []byte("signature"),
	}
}

func testProof() core.Proof {
	return core.Proof{Kind: core.AuthSubscription, TxBytes: []byte("serialized dry-run call")}
}

// startServers spins up n fake key servers with the given weights and returns
// them with their configs.
func startServers(t *testing.T, weights ...int) ([]*keyserver.Server, []core.KeyServerConfig) {
	t.Helper()
	servers := make([]*keyserver.Server, len(weights))
	configs := make([]core.KeyServerConfig, len(weights))
	for i, w := range weights {
		srv, err := keyserver.New(string(rune('a'+i))+"-server", w, keyserver.AllowAll)
		require.NoError(t, err)
		t.Cleanup(srv.Close)
		servers[i] = srv
		configs[i] = srv.Config()
	}
	return servers, configs
}

func TestEncryptDecryptRoundTrip(t *testing.T) {
	t.Parallel()

	_, configs := startServers(t, 1, 1, 1)

	client, err := threshold.New(configs, 2)
	require.NoError(t, err)

	plaintext := []byte("gated article body")
	env, err := client.Encrypt(testNamespace, testResource, plaintext, []byte("aad"))
	require.NoError(t, err)
	assert.Equal(t, 2, env.Threshold)
	assert.Len(t, env.Shares, 3)
	assert.NotContains(t, string(env.Ciphertext), "gated article")

	got, err := client.Decrypt(context.Background(), env, testProof(), testSessionKey())
	require.NoError(t, err)
	assert.Equal(t, plaintext, got)
}

func TestDecryptWeightedServers(t *testing.T) {
	t.Parallel()

	// One weight-2 server alone satisfies a threshold of 2.
	servers, configs := startServers(t, 2, 1)
	servers[1].Unavailable.Store(true)

	client, err := threshold.New(configs, 2)
	require.NoError(t, err)

	env, err := client.Encrypt(testNamespace, testResource, []byte("payload"), nil)
	require.NoError(t, err)

	got, err := client.Decrypt(context.Background(), env, testProof(), testSessionKey())
	require.NoError(t, err)
	assert.Equal(t, []byte("payload"), got)
}

func TestDecryptRejected(t *testing.T) {
	t.Parallel()

	servers, configs := startServers(t, 1, 1, 1)
	for _, s := range servers {
		s.SetPolicy(keyserver.DenyAll)
	}

	client, err := threshold.New(configs, 2)
	require.NoError(t, err)

	env, err := client.Encrypt(testNamespace, testResource, []byte("payload"), nil)
	require.NoError(t, err)

	_, err = client.Decrypt(context.Background(), env, testProof(), testSessionKey())
	assert.ErrorIs(t, err, core.ErrEntitlementRejected)
}

func TestDecryptPartialAvailability(t *testing.T) {
	t.Parallel()

	// Threshold 2 of 3 equal-weight servers: one down is tolerated.
	servers, configs := startServers(t, 1, 1, 1)
	servers[0].Unavailable.Store(true)

	client, err := threshold.New(configs, 2)
	require.NoError(t, err)

	env, err := client.Encrypt(testNamespace, testResource, []byte("payload"), nil)
	require.NoError(t, err)

	got, err := client.Decrypt(context.Background(), env, testProof(), testSessionKey())
	require.NoError(t, err)
	assert.Equal(t, []byte("payload"), got)
}

func TestDecryptThresholdNotReached(t *testing.T) {
	t.Parallel()

	servers, configs := startServers(t, 1, 1, 1)
	servers[0].Unavailable.Store(true)
	servers[1].Unavailable.Store(true)

	client, err := threshold.New(configs, 2)
	require.NoError(t, err)

	env, err := client.Encrypt(testNamespace, testResource, []byte("payload"), nil)
	require.NoError(t, err)

	_, err = client.Decrypt(context.Background(), env, testProof(), testSessionKey())
	assert.ErrorIs(t, err, core.ErrThresholdNotReached)
}

func TestDecryptSessionKeyGate(t *testing.T) {
	t.Parallel()

	servers, configs := startServers(t, 1)
	client, err := threshold.New(configs, 1)
	require.NoError(t, err)

	env, err := client.Encrypt(testNamespace, testResource, []byte("payload"), nil)
	require.NoError(t, err)

	// Nil and unsigned keys never reach the network.
	_, err = client.Decrypt(context.Background(), env, testProof(), nil)
	assert.ErrorIs(t, err, core.ErrUnauthorizedSessionKey)

	unsigned := testSessionKey()
	unsigned.Signature = nil
	_, err = client.Decrypt(context.Background(), env, testProof(), unsigned)
	assert.ErrorIs(t, err, core.ErrUnauthorizedSessionKey)

	expired := testSessionKey()
	expired.IssuedAt = time.Now().Add(-time.Hour)
	_, err = client.Decrypt(context.Background(), env, testProof(), expired)
	assert.ErrorIs(t, err, core.ErrSessionExpired)

	assert.Equal(t, int64(0), servers[0].DecryptCalls.Load())
}

func TestDecryptEmptyProof(t *testing.T) {
	t.Parallel()

	servers, configs := startServers(t, 1)
	client, err := threshold.New(configs, 1)
	require.NoError(t, err)

	env, err := client.Encrypt(testNamespace, testResource, []byte("payload"), nil)
	require.NoError(t, err)

	_, err = client.Decrypt(context.Background(), env, core.Proof{}, testSessionKey())
	assert.ErrorIs(t, err, core.ErrEntitlementRejected)
	assert.Equal(t, int64(0), servers[0].DecryptCalls.Load())
}

func TestInitVerify(t *testing.T) {
	t.Parallel()

	_, configs := startServers(t, 1, 1)

	// Strip public keys; the probe must recover them before Encrypt works.
	for i := range configs {
		configs[i].PublicKey = nil
	}

	client, err := threshold.New(configs, 2, threshold.WithVerifyOnInit(true))
	require.NoError(t, err)
	require.NoError(t, client.Init(context.Background()))

	env, err := client.Encrypt(testNamespace, testResource, []byte("payload"), nil)
	require.NoError(t, err)

	got, err := client.Decrypt(context.Background(), env, testProof(), testSessionKey())
	require.NoError(t, err)
	assert.Equal(t, []byte("payload"), got)
}

func TestInitIdentityMismatch(t *testing.T) {
	t.Parallel()

	_, configs := startServers(t, 1)
	configs[0].ServerID = "imposter"

	client, err := threshold.New(configs, 1, threshold.WithVerifyOnInit(true))
	require.NoError(t, err)
	assert.Error(t, client.Init(context.Background()))
}

func TestNewValidation(t *testing.T) {
	t.Parallel()

	_, configs := startServers(t, 1, 1)

	_, err := threshold.New(nil, 1)
	assert.Error(t, err)

	_, err = threshold.New(configs, 0)
	assert.Error(t, err)

	// Summed weight below the threshold can never decrypt.
	_, err = threshold.New(configs, 3)
	assert.Error(t, err)

	bad := append([]core.KeyServerConfig(nil), configs...)
	bad[0].Weight = 0
	_, err = threshold.New(bad, 1)
	assert.Error(t, err)
}

func TestEncryptValidatesResource(t *testing.T) {
	t.Parallel()

	_, configs := startServers(t, 1)
	client, err := threshold.New(configs, 1)
	require.NoError(t, err)

	_, err = client.Encrypt(testNamespace, "not-hex!", []byte("payload"), nil)
	assert.ErrorIs(t, err, core.ErrInvalidResourceID)
}
