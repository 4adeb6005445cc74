package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/vantrell/userhub/internal/account/entity"
)

// ErrInvalidToken covers every decode failure: bad signature, malformed
// token, wrong signing method, missing claims, or expiry.
var ErrInvalidToken = errors.New("invalid token")

// Claims is the decoded view of an access token.
type Claims struct {
	Subject uuid.UUID
	Role    entity.Role
}

// TokenService issues and verifies HS256 bearer tokens. The secret is set
// once at startup and only read afterwards, so tokens verify statelessly in
// any process holding the same secret.
type TokenService struct {
	secret []byte
	ttl    time.Duration
}

func NewTokenService(secret string, ttl time.Duration) *TokenService {
	return &TokenService{secret: []byte(secret), ttl: ttl}
}

// TTL returns the configured token lifetime.
func (s *TokenService) TTL() time.Duration { return s.ttl }

// Issue produces a signed token carrying the subject id and role claims.
func (s *TokenService) Issue(subject uuid.UUID, role entity.Role) (string, error) {
	return s.IssueWithTTL(subject, role, s.ttl)
}

// IssueWithTTL is Issue with an explicit lifetime.
func (s *TokenService) IssueWithTTL(subject uuid.UUID, role entity.Role, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"sub":  subject.String(),
		"role": role.String(),
		"iat":  now.Unix(),
		"exp":  now.Add(ttl).Unix(),
	}
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := tok.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// Decode verifies signature and expiry and extracts the two claims.
func (s *TokenService) Decode(token string) (Claims, error) {
	claims := jwt.MapClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil || !parsed.Valid {
		return Claims{}, ErrInvalidToken
	}
	sub, ok := claims["sub"].(string)
	if !ok {
		return Claims{}, ErrInvalidToken
	}
	id, err := uuid.Parse(sub)
	if err != nil {
		return Claims{}, ErrInvalidToken
	}
	roleName, ok := claims["role"].(string)
	if !ok {
		return Claims{}, ErrInvalidToken
	}
	role, err := entity.ParseRole(roleName)
	if err != nil {
		return Claims{}, ErrInvalidToken
	}
	return Claims{Subject: id, Role: role}, nil
}
