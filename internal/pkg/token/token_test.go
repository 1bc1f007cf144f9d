package token

import (
	"testing"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"

	appErr "github.com/zornyy/photoCloud/internal/pkg/errors"
)

var testSecret = []byte("test-secret")

func TestGenerateParse(t *testing.T) {
	tok, err := Generate("user-1", "alice", testSecret, time.Hour)
	require.NoError(t, err)

	claims, err := Parse(tok, testSecret)
	require.NoError(t, err)
	require.Equal(t, "user-1", claims.UserID)
	require.Equal(t, "alice", claims.Subject)
}

func TestParseExpired(t *testing.T) {
	tok, err := Generate("user-1", "alice", testSecret, -time.Minute)
	require.NoError(t, err)

	_, err = Parse(tok, testSecret)
	require.ErrorIs(t, err, appErr.ErrTokenExpired)
}

func TestParseExpiryBoundary(t *testing.T) {
	// A token whose expiry is exactly now must already be rejected.
	tok, err := Generate("user-1", "alice", testSecret, 0)
	require.NoError(t, err)

	_, err = Parse(tok, testSecret)
	require.ErrorIs(t, err, appErr.ErrTokenExpired)
}

func TestParseWrongSecret(t *testing.T) {
	tok, err := Generate("user-1", "alice", testSecret, time.Hour)
	require.NoError(t, err)

	_, err = Parse(tok, []byte("other-secret"))
	require.ErrorIs(t, err, appErr.ErrTokenInvalid)
}

func TestParseWrongAlgorithm(t *testing.T) {
	claims := Claims{
		UserID: "user-1",
		RegisteredClaims: jwtlib.RegisteredClaims{
			Subject:   "alice",
			ExpiresAt: jwtlib.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	tok, err := jwtlib.NewWithClaims(jwtlib.SigningMethodHS512, claims).SignedString(testSecret)
	require.NoError(t, err)

	_, err = Parse(tok, testSecret)
	require.ErrorIs(t, err, appErr.ErrTokenInvalid)
}

func TestParseMissingClaims(t *testing.T) {
	expires := jwtlib.NewNumericDate(time.Now().Add(time.Hour))

	noSubject := Claims{UserID: "user-1", RegisteredClaims: jwtlib.RegisteredClaims{ExpiresAt: expires}}
	tok, err := jwtlib.NewWithClaims(jwtlib.SigningMethodHS256, noSubject).SignedString(testSecret)
	require.NoError(t, err)
	_, err = Parse(tok, testSecret)
	require.ErrorIs(t, err, appErr.ErrTokenMalformed)

	noUserID := Claims{RegisteredClaims: jwtlib.RegisteredClaims{Subject: "alice", ExpiresAt: expires}}
	tok, err = jwtlib.NewWithClaims(jwtlib.SigningMethodHS256, noUserID).SignedString(testSecret)
	require.NoError(t, err)
	_, err = Parse(tok, testSecret)
	require.ErrorIs(t, err, appErr.ErrTokenMalformed)
}

func TestParseGarbage(t *testing.T) {
	_, err := Parse("not-a-token", testSecret)
	require.ErrorIs(t, err, appErr.ErrTokenMalformed)
}
