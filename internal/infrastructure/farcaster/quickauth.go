package farcaster

import (
	"context"
	"crypto/ed25519"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/patrickmn/go-cache"
	"golang.org/x/sync/singleflight"

	"github.com/twinmarket/twin-api/internal/core/domain"
	"github.com/twinmarket/twin-api/internal/core/ports"
)

const (
	jwksPath     = "/.well-known/jwks.json"
	jwksCacheKey = "jwks"
	jwksTTL      = time.Hour

	// Unknown key ids do not trigger another fetch within this window.
	jwksRefetchKey      = "jwks:refetched"
	jwksRefetchCooldown = time.Minute
)

var errKeyFetch = errors.New("quick auth key fetch failed")

type quickAuthClaims struct {
	jwt.RegisteredClaims
	FID int64 `json:"sub"`
}

type jwk struct {
	Kty string `json:"kty"`
	Crv string `json:"crv"`
	Kid string `json:"kid"`
	X   string `json:"x"`
}

type jwkSet struct {
	Keys []jwk `json:"keys"`
}

// QuickAuthClient verifies Farcaster Quick Auth JWTs locally against the
// issuer's published Ed25519 keys.
type QuickAuthClient struct {
	issuer   string
	audience string
	http     *http.Client
	keys     *cache.Cache
	group    singleflight.Group
	now      func() time.Time
}

// NewQuickAuthClient builds a client for tokens minted by issuer for the
// app served at audience (the app's domain).
func NewQuickAuthClient(issuer, audience string, client *http.Client) *QuickAuthClient {
	if client == nil {
		client = NewHTTPClient()
	}
	return &QuickAuthClient{
		issuer:   strings.TrimRight(issuer, "/"),
		audience: audience,
		http:     client,
		keys:     cache.New(jwksTTL, 2*jwksTTL),
		now:      time.Now,
	}
}

var _ ports.QuickAuthClient = (*QuickAuthClient)(nil)

// VerifyToken returns domain.ErrInvalidToken for any token defect. Failures
// to reach the key endpoint are returned as ordinary errors.
func (c *QuickAuthClient) VerifyToken(ctx context.Context, token string) (*ports.QuickAuthToken, error) {
	claims := &quickAuthClaims{}
	_, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		kid, _ := t.Header["kid"].(string)
		return c.key(ctx, kid)
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodEdDSA.Alg()}),
		jwt.WithIssuer(c.issuer),
		jwt.WithAudience(c.audience),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(c.now),
	)
	if err != nil {
		if errors.Is(err, errKeyFetch) {
			return nil, err
		}
		return nil, domain.ErrInvalidToken
	}
	if claims.FID <= 0 {
		return nil, domain.ErrInvalidToken
	}

	return &ports.QuickAuthToken{
		FID:       claims.FID,
		ExpiresAt: claims.ExpiresAt.Time,
	}, nil
}

// key returns the verification key for kid, refetching the key set when kid
// is unknown so issuer key rotation is picked up. Refetches are spaced at
// least jwksRefetchCooldown apart.
func (c *QuickAuthClient) key(ctx context.Context, kid string) (ed25519.PublicKey, error) {
	if keys, ok := c.keys.Get(jwksCacheKey); ok {
		if k, ok := pick(keys.(map[string]ed25519.PublicKey), kid); ok {
			return k, nil
		}
		if _, cooling := c.keys.Get(jwksRefetchKey); cooling {
			return nil, fmt.Errorf("unknown key id %q", kid)
		}
	}

	v, err, _ := c.group.Do(jwksCacheKey, func() (any, error) {
		keys, err := c.fetchKeys(ctx)
		if err != nil {
			return nil, err
		}
		c.keys.Set(jwksCacheKey, keys, cache.DefaultExpiration)
		c.keys.Set(jwksRefetchKey, struct{}{}, jwksRefetchCooldown)
		return keys, nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errKeyFetch, err)
	}

	k, ok := pick(v.(map[string]ed25519.PublicKey), kid)
	if !ok {
		return nil, fmt.Errorf("unknown key id %q", kid)
	}
	return k, nil
}

func (c *QuickAuthClient) fetchKeys(ctx context.Context) (map[string]ed25519.PublicKey, error) {
	var set jwkSet
	if err := getJSON(ctx, c.http, c.issuer+jwksPath, nil, &set); err != nil {
		return nil, err
	}

	keys := make(map[string]ed25519.PublicKey, len(set.Keys))
	for _, k := range set.Keys {
		if k.Kty != "OKP" || k.Crv != "Ed25519" {
			continue
		}
		raw, err := base64.RawURLEncoding.DecodeString(strings.TrimRight(k.X, "="))
		if err != nil || len(raw) != ed25519.PublicKeySize {
			continue
		}
		keys[k.Kid] = ed25519.PublicKey(raw)
	}
	if len(keys) == 0 {
		return nil, errors.New("jwks contains no Ed25519 keys")
	}
	return keys, nil
}

// pick selects kid, or the only key when the token names none.
func pick(keys map[string]ed25519.PublicKey, kid string) (ed25519.PublicKey, bool) {
	if kid != "" {
		k, ok := keys[kid]
		return k, ok
	}
	if len(keys) == 1 {
		for _, k := range keys {
			return k, true
		}
	}
	return nil, false
}
