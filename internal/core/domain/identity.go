package domain

import (
	"context"
	"time"
)

// Identity is what the request gate learned from a valid session cookie.
// At least one of FID and WalletAddress is set.
type Identity struct {
	FID           *int64
	WalletAddress string
}

// Empty reports whether the identity carries no anchor at all.
func (i Identity) Empty() bool {
	return i.FID == nil && i.WalletAddress == ""
}

// SessionClaims are the claims carried by the signed session credential.
type SessionClaims struct {
	FID           *int64
	WalletAddress string
	IssuedAt      time.Time
	ExpiresAt     time.Time
}

// Identity projects the claims onto the request identity.
func (c SessionClaims) Identity() Identity {
	return Identity{FID: c.FID, WalletAddress: c.WalletAddress}
}

// Session is a freshly minted credential ready to be placed in a cookie.
type Session struct {
	Token     string
	ExpiresAt time.Time
}

type identityKey struct{}

// WithIdentity returns a copy of ctx carrying id.
func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, identityKey{}, id)
}

// IdentityFromContext returns the identity injected by the gate, if any.
func IdentityFromContext(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(identityKey{}).(Identity)
	return id, ok
}
