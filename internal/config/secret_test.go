package config

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSecretBox_RoundTrip(t *testing.T) {
	box, err := NewSecretBox(testKey)
	require.NoError(t, err)

	tests := []struct {
		name      string
		plaintext string
	}{
		{"short secret", "pw"},
		{"long secret", strings.Repeat("x", 200)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sealed, err := box.Seal(tt.plaintext)
			require.NoError(t, err)
			assert.True(t, IsSealed(sealed))

			opened, err := box.Open(sealed)
			require.NoError(t, err)
			assert.Equal(t, tt.plaintext, opened)
		})
	}
}

func TestSecretBox_Empty(t *testing.T) {
	box, err := NewSecretBox(testKey)
	require.NoError(t, err)
	sealed, err := box.Seal("")
	require.NoError(t, err)
	assert.Empty(t, sealed)
}

func TestSecretBox_DifferentCiphertexts(t *testing.T) {
	box, err := NewSecretBox(testKey)
	require.NoError(t, err)
	a, err := box.Seal("same")
	require.NoError(t, err)
	b, err := box.Seal("same")
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}

func TestSecretBox_OpenErrors(t *testing.T) {
	box, err := NewSecretBox(testKey)
	require.NoError(t, err)
	other, err := NewSecretBox(insecureKey)
	require.NoError(t, err)

	sealed, err := other.Seal("pw")
	require.NoError(t, err)
	_, err = box.Open(sealed)
	require.Error(t, err, "wrong key")

	_, err = box.Open("enc:zz")
	require.Error(t, err)
	_, err = box.Open("enc:00")
	require.Error(t, err)
}

func TestNewSecretBox_InvalidKey(t *testing.T) {
	_, err := NewSecretBox("tooshort")
	require.Error(t, err)
	_, err = NewSecretBox("zzzz")
	require.Error(t, err)
}
