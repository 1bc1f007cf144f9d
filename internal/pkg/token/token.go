package token

import (
	"errors"
	"fmt"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"

	appErr "github.com/zornyy/photoCloud/internal/pkg/errors"
)

// Claims carries the session identity: sub holds the username, UserID the
// account id. Tokens are stateless; there is no server-side revocation.
type Claims struct {
	UserID string `json:"user_id"`
	jwtlib.RegisteredClaims
}

func Generate(userID, username string, secret []byte, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		UserID: userID,
		RegisteredClaims: jwtlib.RegisteredClaims{
			Subject:   username,
			ExpiresAt: jwtlib.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwtlib.NewNumericDate(now),
		},
	}
	token := jwtlib.NewWithClaims(jwtlib.SigningMethodHS256, claims)
	return token.SignedString(secret)
}

func Parse(tokenString string, secret []byte) (*Claims, error) {
	token, err := jwtlib.ParseWithClaims(tokenString, &Claims{}, func(token *jwtlib.Token) (interface{}, error) {
		if token.Method.Alg() != jwtlib.SigningMethodHS256.Alg() {
			return nil, fmt.Errorf("unexpected signing method: %s", token.Method.Alg())
		}
		return secret, nil
	})
	if err != nil {
		switch {
		case errors.Is(err, jwtlib.ErrTokenExpired):
			return nil, appErr.ErrTokenExpired
		case errors.Is(err, jwtlib.ErrTokenMalformed):
			return nil, appErr.ErrTokenMalformed
		default:
			return nil, appErr.ErrTokenInvalid
		}
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, appErr.ErrTokenInvalid
	}
	if claims.Subject == "" || claims.UserID == "" {
		return nil, appErr.ErrTokenMalformed
	}
	return claims, nil
}
