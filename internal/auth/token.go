package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Token verification failures, ordered by check: structure, then signature,
// then expiry. Handlers surface all three to clients as a single 401; the
// distinction exists for logs only.
var (
	ErrTokenMalformed = errors.New("token malformed")
	ErrTokenSignature = errors.New("token signature invalid")
	ErrTokenExpired   = errors.New("token expired")
)

// ==========================
// TokenService
// ==========================
// TokenService issues and verifies HMAC-signed bearer tokens. Tokens are
// self-contained (sub, iat, exp); nothing is stored server-side, so issued
// tokens cannot be revoked before expiry.
type TokenService struct {
	secret []byte
	method jwt.SigningMethod
}

// NewTokenService creates a token service for the given HMAC algorithm
// ("HS256", "HS384" or "HS512") and secret key.
func NewTokenService(algorithm string, secret []byte) *TokenService {
	return &TokenService{
		secret: secret,
		method: jwt.GetSigningMethod(algorithm),
	}
}

// Issue signs a token asserting subject, valid for ttl from now.
func (s *TokenService) Issue(subject string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   subject,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}
	return jwt.NewWithClaims(s.method, claims).SignedString(s.secret)
}

// Verify checks structure, signature and expiry, in that order, and returns
// the subject. It touches no external state, so it is safe to run inline on
// every request.
func (s *TokenService) Verify(tokenStr string) (string, error) {
	claims := &jwt.RegisteredClaims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims,
		func(t *jwt.Token) (interface{}, error) { return s.secret, nil },
		jwt.WithValidMethods([]string{s.method.Alg()}),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenMalformed):
			return "", ErrTokenMalformed
		case errors.Is(err, jwt.ErrTokenExpired):
			return "", ErrTokenExpired
		default:
			// Includes wrong-key signatures and disallowed signing methods.
			return "", ErrTokenSignature
		}
	}
	if !token.Valid || claims.Subject == "" {
		return "", ErrTokenMalformed
	}
	return claims.Subject, nil
}
