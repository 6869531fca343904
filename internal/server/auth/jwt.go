// Package auth implements bearer-token authentication for the board API:
// issuing and verifying signed JWTs, and resolving the caller's identity
// once per HTTP request.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/oakboard/internal/common"
	"github.com/golang-jwt/jwt/v5"
)

// DefaultTokenValidity is the lifetime of an issued token.
const DefaultTokenValidity = time.Hour

// MinSecretLength is the smallest HS256 key accepted, in bytes.
const MinSecretLength = 32

// Option customises a TokenIssuer.
type Option func(*TokenIssuer)

// WithClock replaces time.Now for both issuance and verification.
func WithClock(now func() time.Time) Option {
	return func(i *TokenIssuer) {
		i.now = now
	}
}

// TokenIssuer signs and verifies HS256 tokens carrying a username as the
// subject claim. It holds no mutable state and is safe for concurrent use.
type TokenIssuer struct {
	secret   []byte
	validity time.Duration
	now      func() time.Time
	parser   *jwt.Parser
}

// NewTokenIssuer returns an issuer bound to secret. A non-positive validity
// selects DefaultTokenValidity.
func NewTokenIssuer(secret []byte, validity time.Duration, opts ...Option) (*TokenIssuer, error) {
	if len(secret) < MinSecretLength {
		return nil, fmt.Errorf("%w: need at least %d bytes, got %d", common.ErrWeakSecret, MinSecretLength, len(secret))
	}
	if validity <= 0 {
		validity = DefaultTokenValidity
	}

	i := &TokenIssuer{
		secret:   append([]byte(nil), secret...),
		validity: validity,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(i)
	}

	i.parser = jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithStrictDecoding(),
		jwt.WithTimeFunc(i.now),
	)

	return i, nil
}

// Validity returns the configured token lifetime.
func (i *TokenIssuer) Validity() time.Duration {
	return i.validity
}

// Issue builds a token with sub=username, iat=now and exp=now+validity.
func (i *TokenIssuer) Issue(username string) (string, error) {
	if username == "" {
		return "", fmt.Errorf("%w: empty subject", common.ErrorValidation)
	}

	now := i.now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   username,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(i.validity)),
	})

	signed, err := token.SignedString(i.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}

	return signed, nil
}

// Parse verifies signature and expiry and returns the subject. Expired
// tokens yield common.ErrTokenExpired, everything else
// common.ErrInvalidToken.
func (i *TokenIssuer) Parse(tokenString string) (string, error) {
	claims := &jwt.RegisteredClaims{}

	token, err := i.parser.ParseWithClaims(tokenString, claims, func(*jwt.Token) (any, error) {
		return i.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", common.ErrTokenExpired
		}
		return "", fmt.Errorf("%w: %v", common.ErrInvalidToken, err)
	}

	if !token.Valid || claims.Subject == "" {
		return "", common.ErrInvalidToken
	}

	return claims.Subject, nil
}

// Verify reports whether tokenString is correctly signed and not expired.
// Invalid input is an expected condition and never produces an error.
func (i *TokenIssuer) Verify(tokenString string) bool {
	_, err := i.Parse(tokenString)
	return err == nil
}

// Subject returns the username carried by a token. Only call it after
// Verify returned true; for invalid tokens the result is empty.
func (i *TokenIssuer) Subject(tokenString string) string {
	sub, _ := i.Parse(tokenString)
	return sub
}
