package auth

import (
	"context"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"fintrack/internal/core"
)

// Verifier checks a bearer token and returns the user it belongs to.
type Verifier interface {
	VerifyToken(ctx context.Context, token string) (string, error)
}

// JWTVerifier validates HS256-signed JWTs and reads the user id from
// the standard "sub" claim.
type JWTVerifier struct {
	secret []byte
}

func NewJWTVerifier(secret string) *JWTVerifier {
	return &JWTVerifier{secret: []byte(secret)}
}

func (v *JWTVerifier) VerifyToken(_ context.Context, token string) (string, error) {
	parsed, err := jwt.Parse(token, func(t *jwt.Token) (any, error) {
		return v.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return "", core.NewPermission("invalid or expired token")
	}

	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return "", core.NewPermission("invalid token claims")
	}

	sub, err := claims.GetSubject()
	if err != nil || sub == "" {
		return "", core.NewPermission("token has no subject")
	}

	return sub, nil
}

// IssueToken signs a token for the given user. Used by tooling and tests;
// production tokens come from the identity provider.
func IssueToken(secret, userID string, ttl time.Duration) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": userID,
		"iat": now.Unix(),
		"exp": now.Add(ttl).Unix(),
	})
	return token.SignedString([]byte(secret))
}
