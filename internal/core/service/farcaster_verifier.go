package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/twinmarket/twin-api/internal/core/domain"
	"github.com/twinmarket/twin-api/internal/core/ports"
)

// FarcasterVerifier validates Quick Auth tokens against the FID the client
// claims to be signed in as.
type FarcasterVerifier struct {
	client ports.QuickAuthClient
	policy ports.AccessPolicy
}

func NewFarcasterVerifier(client ports.QuickAuthClient, policy ports.AccessPolicy) *FarcasterVerifier {
	return &FarcasterVerifier{client: client, policy: policy}
}

// Verify returns the verified token when it is valid for this app, its
// subject equals claimedFID and the policy admits the FID.
func (v *FarcasterVerifier) Verify(ctx context.Context, token string, claimedFID int64) (*ports.QuickAuthToken, error) {
	if token == "" || claimedFID <= 0 {
		return nil, domain.ErrInvalidArgument
	}

	verified, err := v.client.VerifyToken(ctx, token)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidToken) {
			return nil, domain.ErrInvalidToken
		}
		return nil, fmt.Errorf("verify quick auth token: %w", err)
	}

	if verified.FID != claimedFID {
		return nil, domain.ErrInvalidToken
	}

	if err := v.policy.Authorize(domain.Identity{FID: &verified.FID}); err != nil {
		return nil, err
	}
	return verified, nil
}
