package secure_test

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/systmms/credstore/internal/secure"
)

func TestKeyBufferHalves(t *testing.T) {
	raw := make([]byte, secure.DataKeyBytes)
	for i := range raw {
		raw[i] = byte(i)
	}
	// NewKeyBuffer wipes its input; keep a copy for comparison.
	expected := bytes.Clone(raw)

	kb, err := secure.NewKeyBuffer(raw)
	require.NoError(t, err)
	defer kb.Destroy()

	assert.Equal(t, expected[:32], kb.EncryptionKey())
	assert.Equal(t, expected[32:], kb.MACKey())
}

func TestKeyBufferWipesSource(t *testing.T) {
	raw := bytes.Repeat([]byte{0xAB}, secure.DataKeyBytes)

	kb, err := secure.NewKeyBuffer(raw)
	require.NoError(t, err)
	defer kb.Destroy()

	assert.Equal(t, make([]byte, secure.DataKeyBytes), raw)
}

func TestKeyBufferRejectsWrongLength(t *testing.T) {
	_, err := secure.NewKeyBuffer(make([]byte, 32))
	require.Error(t, err)
}

func TestKeyBufferDestroyIdempotent(t *testing.T) {
	kb, err := secure.NewKeyBuffer(make([]byte, secure.DataKeyBytes))
	require.NoError(t, err)

	kb.Destroy()
	kb.Destroy()
}
