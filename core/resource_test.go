package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResourceIDFromNamespace(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		namespace string
		want      string
		wantErr   bool
	}{
		{
			name:      "valid namespace",
			namespace: "0x4F2Aab11",
			want:      "4f2aab11",
		},
		{
			name:      "lowercase preserved",
			namespace: "0xdeadbeef",
			want:      "deadbeef",
		},
		{
			name:      "missing prefix",
			namespace: "4f2aab11",
			wantErr:   true,
		},
		{
			name:      "empty",
			namespace: "",
			wantErr:   true,
		},
		{
			name:      "prefix only",
			namespace: "0x",
			wantErr:   true,
		},
		{
			name:      "not hex",
			namespace: "0xzzzz",
			wantErr:   true,
		},
		{
			name:      "all zero placeholder",
			namespace: "0x0000",
			wantErr:   true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := ResourceIDFromNamespace(tt.namespace)
			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, ErrInvalidResourceID)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestValidateResourceID(t *testing.T) {
	t.Parallel()

	assert.NoError(t, ValidateResourceID("4f2aab11"))
	assert.ErrorIs(t, ValidateResourceID(""), ErrInvalidResourceID)
	assert.ErrorIs(t, ValidateResourceID("00000000"), ErrInvalidResourceID)
	assert.ErrorIs(t, ValidateResourceID("nothex"), ErrInvalidResourceID)
}

func TestIsTextual(t *testing.T) {
	t.Parallel()

	tests := []struct {
		contentType string
		want        bool
	}{
		{"text/plain", true},
		{"text/markdown", true},
		{"application/json", true},
		{"application/xml", true},
		{"video/mp4", false},
		{"image/png", false},
		{"application/octet-stream", false},
		{"", false},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, IsTextual(tt.contentType), tt.contentType)
	}
}

func TestSessionKeyLifecycle(t *testing.T) {
	t.Parallel()

	key := &SessionKey{}
	assert.False(t, key.Signed())

	key.Signature = []byte("sig")
	assert.True(t, key.Signed())
}
