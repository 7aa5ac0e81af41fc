package auth

import (
	"encoding/hex"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testKey(t *testing.T) []byte {
	t.Helper()
	key, err := DecodeKey(strings.Repeat("ab", 32))
	require.NoError(t, err)
	return key
}

func TestLoadOrGenerateKey(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "data")

	key, err := LoadOrGenerateKey(dir)
	require.NoError(t, err)
	assert.Len(t, key, keyLength)

	info, err := os.Stat(filepath.Join(dir, keyFileName))
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	again, err := LoadOrGenerateKey(dir)
	require.NoError(t, err)
	assert.Equal(t, key, again)
}

func TestLoadOrGenerateKey_RejectsCorruptFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, keyFileName), []byte("short"), 0o600))

	_, err := LoadOrGenerateKey(dir)
	assert.ErrorContains(t, err, "invalid cookie key length")
}

func TestDecodeKey(t *testing.T) {
	_, err := DecodeKey(strings.Repeat("zz", 32))
	assert.ErrorContains(t, err, "not valid hex")

	key, err := DecodeKey(hex.EncodeToString(make([]byte, 32)))
	require.NoError(t, err)
	assert.Len(t, key, 32)
}

func TestCookieCodec_RoundTrip(t *testing.T) {
	codec, err := NewCookieCodec(testKey(t), time.Hour)
	require.NoError(t, err)

	value, err := codec.Encode("ses-abc")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(value, "v4.local."))
	assert.NotContains(t, value, "ses-abc")

	claims, err := codec.Decode(value)
	require.NoError(t, err)
	assert.Equal(t, "ses-abc", claims.SessionID())
	assert.Equal(t, cookieIssuer, claims.Issuer)
	assert.True(t, strings.HasPrefix(claims.TokenID, "ck-"))
}

func TestCookieCodec_Rejects(t *testing.T) {
	codec, err := NewCookieCodec(testKey(t), time.Hour)
	require.NoError(t, err)

	t.Run("garbage", func(t *testing.T) {
		_, err := codec.Decode("not-a-token")
		assert.Error(t, err)
	})

	t.Run("other key", func(t *testing.T) {
		other, err := NewCookieCodec(make([]byte, 32), time.Hour)
		require.NoError(t, err)
		value, err := other.Encode("ses-abc")
		require.NoError(t, err)

		_, err = codec.Decode(value)
		assert.Error(t, err)
	})

	t.Run("expired", func(t *testing.T) {
		codec.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
		value, err := codec.Encode("ses-abc")
		require.NoError(t, err)
		codec.now = time.Now

		_, err = codec.Decode(value)
		assert.Error(t, err)
	})
}

func TestNewCookieCodec_BadKey(t *testing.T) {
	_, err := NewCookieCodec([]byte("short"), time.Hour)
	assert.Error(t, err)
}

func TestCSRF(t *testing.T) {
	csrf, err := NewCSRF(testKey(t))
	require.NoError(t, err)

	token := csrf.Token("ses-1")
	assert.True(t, csrf.Verify("ses-1", token))
	assert.False(t, csrf.Verify("ses-2", token))
	assert.False(t, csrf.Verify("ses-1", ""))
	assert.False(t, csrf.Verify("", token))
	assert.False(t, csrf.Verify("ses-1", "!!!"))
	assert.Equal(t, token, csrf.Token("ses-1"))

	other, err := NewCSRF(make([]byte, 32))
	require.NoError(t, err)
	assert.False(t, other.Verify("ses-1", token))
}
