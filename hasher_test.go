package accounts_test

import (
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/panyam/accounts"
)

// testHasher keeps iterations low so the suite stays fast; production
// parameters only change the cost, not the behavior under test.
func testHasher() *accounts.Hasher {
	return &accounts.Hasher{Iterations: 1000, KeyLength: 64, SaltLength: 32}
}

func TestGenerateSalt(t *testing.T) {
	h := testHasher()

	salt, err := h.GenerateSalt()
	require.NoError(t, err)

	raw, err := hex.DecodeString(salt)
	require.NoError(t, err, "salt must be hex encoded")
	assert.Len(t, raw, 32)

	other, err := h.GenerateSalt()
	require.NoError(t, err)
	assert.NotEqual(t, salt, other, "salts must not repeat")
}

func TestHashDeterministic(t *testing.T) {
	h := testHasher()
	salt, err := h.GenerateSalt()
	require.NoError(t, err)

	first, err := h.Hash("hunter22", salt)
	require.NoError(t, err)
	second, err := h.Hash("hunter22", salt)
	require.NoError(t, err)
	assert.Equal(t, first, second, "same password and salt must produce the same digest")

	raw, err := hex.DecodeString(first)
	require.NoError(t, err)
	assert.Len(t, raw, 64)

	otherSalt, err := h.GenerateSalt()
	require.NoError(t, err)
	third, err := h.Hash("hunter22", otherSalt)
	require.NoError(t, err)
	assert.NotEqual(t, first, third, "different salt must change the digest")
}

func TestVerify(t *testing.T) {
	h := testHasher()
	salt, err := h.GenerateSalt()
	require.NoError(t, err)
	digest, err := h.Hash("correct horse", salt)
	require.NoError(t, err)

	tests := []struct {
		name     string
		password string
		salt     string
		digest   string
		want     bool
		wantErr  bool
	}{
		{name: "matching password", password: "correct horse", salt: salt, digest: digest, want: true},
		{name: "wrong password", password: "battery staple", salt: salt, digest: digest, want: false},
		{name: "empty password", password: "", salt: salt, digest: digest, want: false},
		{name: "corrupt digest", password: "correct horse", salt: salt, digest: "zz-not-hex", wantErr: true},
		{name: "corrupt salt", password: "correct horse", salt: "zz-not-hex", digest: digest, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ok, err := h.Verify(tt.password, tt.salt, tt.digest)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, ok)
		})
	}
}
