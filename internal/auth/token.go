package auth

import (
	"errors"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrInvalidToken is returned when a session cookie fails verification.
var ErrInvalidToken = errors.New("invalid session token")

// SessionClaims is the payload of a signed session cookie.
type SessionClaims struct {
	jwt.RegisteredClaims
	SessionToken string `json:"sid"`
	UserID       int64  `json:"uid"`
}

// SignSession produces the cookie value binding a server-side session token
// to a user id.
func SignSession(secret []byte, token string, userID int64, expiresAt time.Time) (string, error) {
	claims := SessionClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(userID, 10),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
		SessionToken: token,
		UserID:       userID,
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
}

// ParseSession verifies the signature and expiry of a cookie value.
func ParseSession(secret []byte, value string) (*SessionClaims, error) {
	claims := &SessionClaims{}
	token, err := jwt.ParseWithClaims(value, claims, func(*jwt.Token) (any, error) {
		return secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, errors.Join(ErrInvalidToken, err)
	}
	if !token.Valid || claims.SessionToken == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
