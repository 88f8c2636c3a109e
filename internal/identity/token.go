package identity

import (
	"errors"
	"fmt"
	"time"

	"github.com/gofrs/uuid"
	"github.com/golang-jwt/jwt/v5"
)

const anonymousRole = "anonymous"

type anonymousClaims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// AnonymousTokens signs the anonymous id kept in the client cookie so a browser
// cannot pick another visitor's id.
type AnonymousTokens struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewAnonymousTokens(secret string, ttl time.Duration) *AnonymousTokens {
	return &AnonymousTokens{secret: []byte(secret), ttl: ttl, now: time.Now}
}

func (t *AnonymousTokens) Issue(id uuid.UUID) (string, error) {
	now := t.now()
	claims := anonymousClaims{
		Role: anonymousRole,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   id.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(t.ttl)),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.secret)
	if err != nil {
		return "", fmt.Errorf("token: failed to sign anonymous token: %w", err)
	}
	return signed, nil
}

func (t *AnonymousTokens) Parse(raw string) (uuid.UUID, error) {
	var claims anonymousClaims
	_, err := jwt.ParseWithClaims(raw, &claims, func(token *jwt.Token) (any, error) {
		return t.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(t.now),
	)
	if err != nil {
		return uuid.Nil, errors.Join(ErrInvalidToken, err)
	}

	if claims.Role != anonymousRole {
		return uuid.Nil, ErrInvalidToken
	}

	id, err := uuid.FromString(claims.Subject)
	if err != nil || id == uuid.Nil {
		return uuid.Nil, ErrInvalidToken
	}

	return id, nil
}
