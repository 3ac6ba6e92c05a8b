package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/sheikh-saqib/org-finance-ledger/internal/models"
)

// Issuer is stamped on every token and required when verifying.
const Issuer = "org-finance-ledger"

const minSecretLen = 32

var (
	ErrWeakSecret   = fmt.Errorf("auth: signing secret must be at least %d bytes", minSecretLen)
	ErrMissingToken = errors.New("auth: missing bearer token")
	ErrInvalidToken = errors.New("auth: invalid or expired token")
)

// Authority issues and verifies HS256 tokens whose subject is the caller address.
// Whoever holds the secret can act as any address, so it belongs to the operator.
type Authority struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func New(secret []byte, ttl time.Duration) (*Authority, error) {
	if len(secret) < minSecretLen {
		return nil, ErrWeakSecret
	}
	if ttl <= 0 {
		return nil, fmt.Errorf("auth: token ttl must be positive, got %s", ttl)
	}
	return &Authority{secret: secret, ttl: ttl, now: time.Now}, nil
}

// Issue signs a token for addr and returns it with its expiry.
func (a *Authority) Issue(addr models.Address) (string, time.Time, error) {
	if !addr.Valid() || addr.IsZero() {
		return "", time.Time{}, fmt.Errorf("auth: cannot issue a token for %q", addr)
	}

	now := a.now()
	expires := now.Add(a.ttl)
	claims := jwt.RegisteredClaims{
		Subject:   addr.String(),
		Issuer:    Issuer,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(expires),
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(a.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("auth: sign token: %w", err)
	}
	return token, expires, nil
}

// Caller verifies token and returns the address it was issued to.
func (a *Authority) Caller(token string) (models.Address, error) {
	claims := &jwt.RegisteredClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (interface{}, error) {
		return a.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(Issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(a.now),
	)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}
	if !parsed.Valid {
		return "", ErrInvalidToken
	}

	addr, err := models.ParseAddress(claims.Subject)
	if err != nil || addr.IsZero() {
		return "", fmt.Errorf("%w: subject %q is not a caller address", ErrInvalidToken, claims.Subject)
	}
	return addr, nil
}

// BearerToken pulls the token out of an Authorization header value.
func BearerToken(header string) (string, error) {
	const prefix = "Bearer "
	if len(header) <= len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return "", ErrMissingToken
	}
	token := strings.TrimSpace(header[len(prefix):])
	if token == "" {
		return "", ErrMissingToken
	}
	return token, nil
}
