package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/twinmarket/twin-api/internal/core/domain"
	"github.com/twinmarket/twin-api/internal/core/ports"
)

// Authenticator maps a gate-injected identity to a stored user. It never
// creates users.
type Authenticator struct {
	repo   ports.UserRepository
	policy ports.AccessPolicy
}

func NewAuthenticator(repo ports.UserRepository, policy ports.AccessPolicy) *Authenticator {
	return &Authenticator{repo: repo, policy: policy}
}

// Authenticate prefers the FID anchor over the wallet anchor.
//
//	no anchor / malformed anchor → domain.ErrUnauthorized
//	FID outside the allow-list  → domain.ErrForbidden
//	no matching user            → domain.ErrUserNotFound
func (a *Authenticator) Authenticate(ctx context.Context, id domain.Identity) (*domain.User, error) {
	if id.Empty() {
		return nil, domain.ErrUnauthorized
	}

	var (
		user *domain.User
		err  error
	)
	if id.FID != nil {
		if *id.FID <= 0 {
			return nil, domain.ErrUnauthorized
		}
		if err := a.policy.Authorize(id); err != nil {
			return nil, err
		}
		user, err = a.repo.FindByFarcasterFID(ctx, *id.FID)
	} else {
		address, nerr := domain.NormalizeAddress(id.WalletAddress)
		if nerr != nil {
			return nil, domain.ErrUnauthorized
		}
		user, err = a.repo.FindByWalletAddress(ctx, address)
	}

	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, domain.ErrUserNotFound
		}
		return nil, fmt.Errorf("authenticate: %w", err)
	}
	return user, nil
}
