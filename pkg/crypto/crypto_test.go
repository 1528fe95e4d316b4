package crypto

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncryptDecrypt_RoundTrip(t *testing.T) {
	sealed, err := Encrypt("app-password", "server-secret")
	require.NoError(t, err)
	assert.NotEqual(t, "app-password", sealed)

	plain, err := Decrypt(sealed, "server-secret")
	require.NoError(t, err)
	assert.Equal(t, "app-password", plain)
}

func TestEncrypt_NonceVaries(t *testing.T) {
	a, err := Encrypt("same", "k")
	require.NoError(t, err)
	b, err := Encrypt("same", "k")
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}

func TestDecrypt_WrongKey(t *testing.T) {
	sealed, err := Encrypt("app-password", "right")
	require.NoError(t, err)

	_, err = Decrypt(sealed, "wrong")
	assert.ErrorIs(t, err, ErrDecrypt)
}

func TestDecrypt_Garbage(t *testing.T) {
	_, err := Decrypt("not base64!!", "k")
	assert.ErrorIs(t, err, ErrDecrypt)

	_, err = Decrypt("c2hvcnQ=", "k")
	assert.ErrorIs(t, err, ErrDecrypt)
}

func TestEmptyValues(t *testing.T) {
	out, err := Encrypt("", "k")
	require.NoError(t, err)
	assert.Empty(t, out)

	_, err = Encrypt("x", "")
	assert.Error(t, err)
}
