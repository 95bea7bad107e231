package ports

import (
	"context"

	"github.com/twinmarket/twin-api/internal/core/domain"
)

// FarcasterSignIn is the body of a Farcaster sign-in request.
type FarcasterSignIn struct {
	Token       string
	FID         int64
	ReferrerFID *int64
}

// WalletSignIn is the body of a wallet sign-in request.
type WalletSignIn struct {
	Address   string
	Message   string
	Signature string
}

// SessionService issues sessions for verified credentials.
type SessionService interface {
	SignInFarcaster(ctx context.Context, in FarcasterSignIn) (*domain.User, *domain.Session, error)
	SignInWallet(ctx context.Context, in WalletSignIn) (*domain.User, *domain.Session, error)
}

// TokenCodec signs and verifies session credentials.
type TokenCodec interface {
	Verify(token string) (*domain.SessionClaims, error)
}

// Authenticator resolves the caller of a gated route to a user.
type Authenticator interface {
	Authenticate(ctx context.Context, id domain.Identity) (*domain.User, error)
}

// AccessPolicy decides whether an identity may use this deployment.
type AccessPolicy interface {
	Authorize(id domain.Identity) error
}
