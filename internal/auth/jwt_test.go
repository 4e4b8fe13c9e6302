package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testTokenService() TokenService {
	return TokenService{
		Secret:   []byte("test-secret"),
		Issuer:   "watchvault-test",
		Duration: time.Hour,
	}
}

func TestTokenRoundTrip(t *testing.T) {
	ts := testTokenService()
	admin := &AdminUser{ID: "admin-1", Email: "owner@example.com"}

	token, exp, err := ts.Sign(admin)
	require.NoError(t, err)
	assert.True(t, exp.After(time.Now()))

	claims, err := ts.Parse(token)
	require.NoError(t, err)
	assert.Equal(t, "admin-1", claims.AdminID)
	assert.Equal(t, "owner@example.com", claims.Email)
	assert.Equal(t, "watchvault-test", claims.Issuer)
}

func TestParseRejectsWrongSecret(t *testing.T) {
	ts := testTokenService()
	token, _, err := ts.Sign(&AdminUser{ID: "admin-1", Email: "owner@example.com"})
	require.NoError(t, err)

	other := testTokenService()
	other.Secret = []byte("different-secret")
	_, err = other.Parse(token)
	require.Error(t, err)
}

func TestParseRejectsWrongAlgorithm(t *testing.T) {
	ts := testTokenService()

	// alg=none token with otherwise valid claims
	tok := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{
		AdminID: "admin-1",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	})
	raw, err := tok.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = ts.Parse(raw)
	require.Error(t, err)
}

func TestParseRejectsExpired(t *testing.T) {
	ts := testTokenService()
	ts.Duration = -time.Minute

	token, _, err := ts.Sign(&AdminUser{ID: "admin-1"})
	require.NoError(t, err)

	_, err = ts.Parse(token)
	require.Error(t, err)
}
