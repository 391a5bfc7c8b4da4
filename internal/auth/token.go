// Package auth issues and verifies the bearer tokens that carry a caller's
// principal. The identity provider is external; a token only asserts who the
// caller is, never what role it holds.
package auth

import (
	"errors"
	"strings"
	"testlab/config"
	"testlab/internal/apperr"
	"testlab/internal/logger"
	. "testlab/internal/models"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
)

type Claims struct {
	jwt.RegisteredClaims
}

type TokenService struct {
	secret []byte
	issuer string
	ttl    time.Duration
	now    func() time.Time
	log    logger.Logger
}

func NewTokenService(config config.Config) *TokenService {
	return &TokenService{
		secret: []byte(config.SecurityJwtSecret),
		issuer: config.SecurityJwtIssuer,
		ttl:    config.SecurityTokenTTL,
		now:    time.Now,
		log:    logger.New("auth"),
	}
}

func (s *TokenService) Issue(principal string) (string, error) {
	log := s.log.Function("Issue")

	principal = strings.TrimSpace(principal)
	if principal == "" || principal == AnonymousPrincipal {
		return "", apperr.ValidationField("principal", "principal is required")
	}

	now := s.now()
	claims := Claims{RegisteredClaims: jwt.RegisteredClaims{
		Subject:   principal,
		Issuer:    s.issuer,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
	}}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", log.Err("failed to sign token", err, "principal", principal)
	}
	return signed, nil
}

// Parse verifies signature, issuer and expiry and returns the caller the
// token was issued to.
func (s *TokenService) Parse(token string) (Caller, error) {
	parsed, err := jwt.ParseWithClaims(
		strings.TrimSpace(token),
		&Claims{},
		func(t *jwt.Token) (any, error) { return s.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(s.issuer),
		jwt.WithTimeFunc(s.now),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return Caller{}, apperr.Unauthenticated("token expired")
		}
		return Caller{}, apperr.Unauthenticated("invalid token")
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid || strings.TrimSpace(claims.Subject) == "" {
		return Caller{}, apperr.Unauthenticated("invalid token")
	}
	return NewCaller(claims.Subject), nil
}
