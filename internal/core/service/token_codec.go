package service

import (
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/twinmarket/twin-api/internal/core/domain"
)

// sessionClaims is the JWT payload of the auth_token cookie.
type sessionClaims struct {
	FID           *int64 `json:"fid"`
	WalletAddress string `json:"walletAddress,omitempty"`
	jwt.RegisteredClaims
}

// TokenCodec signs and verifies session credentials with HS256.
type TokenCodec struct {
	secret []byte
	now    func() time.Time
}

func NewTokenCodec(secret string) *TokenCodec {
	return &TokenCodec{secret: []byte(secret), now: time.Now}
}

// Issue signs claims valid for ttl from now. IssuedAt and ExpiresAt on the
// input are ignored.
func (c *TokenCodec) Issue(claims domain.SessionClaims, ttl time.Duration) (string, error) {
	now := c.now()
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, sessionClaims{
		FID:           claims.FID,
		WalletAddress: claims.WalletAddress,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	})
	return t.SignedString(c.secret)
}

// Verify returns the claims of a valid, unexpired token. Every failure is
// reported as domain.ErrInvalidToken.
func (c *TokenCodec) Verify(token string) (*domain.SessionClaims, error) {
	var claims sessionClaims
	parsed, err := jwt.ParseWithClaims(token, &claims, func(*jwt.Token) (any, error) {
		return c.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(c.now),
	)
	if err != nil || !parsed.Valid {
		return nil, domain.ErrInvalidToken
	}

	out := &domain.SessionClaims{
		FID:           claims.FID,
		WalletAddress: claims.WalletAddress,
		ExpiresAt:     claims.ExpiresAt.Time,
	}
	if claims.IssuedAt != nil {
		out.IssuedAt = claims.IssuedAt.Time
	}
	return out, nil
}
