package auth

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testKeys(t *testing.T) *Keys {
	t.Helper()

	privateKey, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	privatePEM := pem.EncodeToMemory(&pem.Block{
		Type:  "RSA PRIVATE KEY",
		Bytes: x509.MarshalPKCS1PrivateKey(privateKey),
	})
	publicDER, err := x509.MarshalPKIXPublicKey(&privateKey.PublicKey)
	require.NoError(t, err)
	publicPEM := pem.EncodeToMemory(&pem.Block{
		Type:  "PUBLIC KEY",
		Bytes: publicDER,
	})

	keys, err := NewKeys(privatePEM, publicPEM)
	require.NoError(t, err)
	return keys
}

func TestTokenRoundTrip(t *testing.T) {
	keys := testKeys(t)

	token, err := keys.GenerateToken("user-1", RoleAdmin)
	require.NoError(t, err)

	claims, err := keys.ValidateToken(token)
	require.NoError(t, err)

	assert.Equal(t, "user-1", claims.Subject)
	assert.Equal(t, RoleAdmin, claims.Roles)
}

func TestValidateToken_Garbage(t *testing.T) {
	keys := testKeys(t)

	_, err := keys.ValidateToken("not-a-token")
	assert.Error(t, err)
}

func TestValidateToken_WrongKey(t *testing.T) {
	signer := testKeys(t)
	verifier := testKeys(t)

	token, err := signer.GenerateToken("user-1", RoleUser)
	require.NoError(t, err)

	_, err = verifier.ValidateToken(token)
	assert.Error(t, err)
}
