package id

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerate_Uniqueness(t *testing.T) {
	ids := make(map[string]bool)
	count := 1000

	for range count {
		id, err := Generate(PrefixClient)
		require.NoError(t, err)
		assert.False(t, ids[id], "ID should be unique: %s", id)
		ids[id] = true
	}

	assert.Len(t, ids, count)
}

func TestGenerate_Format(t *testing.T) {
	id, err := Generate("sse")
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(id, "sse-"))
	assert.Len(t, id, len("sse-")+21)
}

func TestNewSessionID(t *testing.T) {
	id, err := NewSessionID()
	require.NoError(t, err)

	assert.True(t, HasPrefix(id, PrefixSession))
	assert.Len(t, id, len("ses-")+32)
}

func TestHasPrefix(t *testing.T) {
	assert.True(t, HasPrefix("ses-abc", "ses"))
	assert.False(t, HasPrefix("ses-", "ses"))
	assert.False(t, HasPrefix("sse-abc", "ses"))
	assert.False(t, HasPrefix("sesabc", "ses"))
}

func TestMustGenerate(t *testing.T) {
	assert.NotPanics(t, func() {
		assert.True(t, strings.HasPrefix(MustGenerate("x"), "x-"))
	})
}
