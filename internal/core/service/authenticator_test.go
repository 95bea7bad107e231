package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"github.com/twinmarket/twin-api/internal/core/domain"
)

func TestAuthenticator(t *testing.T) {
	repo := newStubUserRepo()
	resolver := NewPrincipalResolver(repo, profilesWith(&domain.FarcasterProfile{FID: 1, CustodyAddress: addrB}), nil, zerolog.Nop())
	walletUser, err := resolver.GetOrCreateFromWalletAddress(context.Background(), addrMixed, nil)
	if err != nil {
		t.Fatalf("seed wallet user: %v", err)
	}
	fidUser, err := resolver.GetOrCreateFromFarcasterID(context.Background(), 1, nil)
	if err != nil {
		t.Fatalf("seed fid user: %v", err)
	}

	tests := []struct {
		name    string
		env     string
		id      domain.Identity
		wantID  string
		wantErr error
	}{
		{"no identity", EnvProduction, domain.Identity{}, "", domain.ErrUnauthorized},
		{"fid found", EnvProduction, domain.Identity{FID: int64Ptr(1)}, fidUser.ID, nil},
		{"fid wins over wallet", EnvProduction, domain.Identity{FID: int64Ptr(1), WalletAddress: addrMixed}, fidUser.ID, nil},
		{"fid not found", EnvProduction, domain.Identity{FID: int64Ptr(42)}, "", domain.ErrUserNotFound},
		{"fid not positive", EnvProduction, domain.Identity{FID: int64Ptr(-1)}, "", domain.ErrUnauthorized},
		{"fid gated", "staging", domain.Identity{FID: int64Ptr(42)}, "", domain.ErrForbidden},
		{"wallet lowercase", EnvProduction, domain.Identity{WalletAddress: strings.ToLower(addrMixed)}, walletUser.ID, nil},
		{"wallet malformed", EnvProduction, domain.Identity{WalletAddress: "0xnope"}, "", domain.ErrUnauthorized},
		{"wallet not found", EnvProduction, domain.Identity{WalletAddress: addrA}, "", domain.ErrUserNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := NewAuthenticator(repo, NewAccessPolicy(tt.env, []int64{1}))
			user, err := a.Authenticate(context.Background(), tt.id)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("expected %v, got %v", tt.wantErr, err)
			}
			if tt.wantErr == nil && user.ID != tt.wantID {
				t.Fatalf("expected user %s, got %s", tt.wantID, user.ID)
			}
		})
	}
}

func TestAuthenticator_StoreFailure(t *testing.T) {
	repo := newStubUserRepo()
	repo.findErr = errors.New("connection reset")

	_, err := NewAuthenticator(repo, NewAccessPolicy(EnvProduction, nil)).Authenticate(context.Background(), domain.Identity{FID: int64Ptr(3)})
	if err == nil || errors.Is(err, domain.ErrUserNotFound) {
		t.Fatalf("expected wrapped store error, got %v", err)
	}
}
