package cli

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/veilstream/veilstream"
)

func TestFormatError(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		want string
	}{
		{
			name: "nil",
			err:  nil,
			want: "",
		},
		{
			name: "wallet required",
			err:  veilstream.ErrWalletRequired,
			want: "Error: no wallet available (connect a wallet or run 'veilstream keygen')",
		},
		{
			name: "wrapped wallet unavailable",
			err:  fmt.Errorf("loading content: %w", veilstream.ErrWalletUnavailable),
			want: "Error: no wallet available (connect a wallet or run 'veilstream keygen')",
		},
		{
			name: "subscription missing",
			err:  veilstream.ErrSubscriptionProofMissing,
			want: "Error: no active subscription for this space (subscribe to unlock)",
		},
		{
			name: "ownership missing",
			err:  veilstream.ErrOwnershipProofMissing,
			want: "Error: you do not own this space",
		},
		{
			name: "entitlement rejected",
			err:  fmt.Errorf("decrypt: %w", veilstream.ErrEntitlementRejected),
			want: "Error: entitlement rejected by key servers (credential revoked or expired)",
		},
		{
			name: "threshold not reached",
			err:  veilstream.ErrThresholdNotReached,
			want: "Error: not enough key servers responded (network issue, try again)",
		},
		{
			name: "session expired",
			err:  veilstream.ErrSessionExpired,
			want: "Error: session expired (retry to sign a fresh session key)",
		},
		{
			name: "publishers exhausted",
			err:  veilstream.ErrPublishersExhausted,
			want: "Error: all publishers failed (network issue, try again)",
		},
		{
			name: "encryption unavailable",
			err:  veilstream.ErrEncryptionUnavailable,
			want: "Error: encryption unavailable; refusing to store plaintext (configure key servers)",
		},
		{
			name: "canceled",
			err:  context.Canceled,
			want: "Error: operation canceled",
		},
		{
			name: "unknown error passes through",
			err:  errors.New("disk full"),
			want: "Error: disk full",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, formatError(tt.err))
		})
	}
}
