package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/twinmarket/twin-api/internal/core/domain"
	"github.com/twinmarket/twin-api/internal/core/ports"
)

// PrincipalResolver finds or creates the user behind a verified credential.
type PrincipalResolver struct {
	repo     ports.UserRepository
	profiles ports.ProfileDirectory
	names    ports.NameQueue
	log      zerolog.Logger
	now      func() time.Time
}

func NewPrincipalResolver(repo ports.UserRepository, profiles ports.ProfileDirectory, names ports.NameQueue, log zerolog.Logger) *PrincipalResolver {
	return &PrincipalResolver{
		repo:     repo,
		profiles: profiles,
		names:    names,
		log:      log,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// GetOrCreateFromFarcasterID returns the user linked to fid, creating it from
// the directory profile on first sight. A failed profile fetch creates nothing.
func (r *PrincipalResolver) GetOrCreateFromFarcasterID(ctx context.Context, fid int64, referrerFID *int64) (*domain.User, error) {
	user, err := r.repo.FindByFarcasterFID(ctx, fid)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, domain.ErrUserNotFound) {
		return nil, fmt.Errorf("find user by fid: %w", err)
	}

	profile, err := r.profiles.FetchByFID(ctx, fid)
	if err != nil {
		return nil, fmt.Errorf("fetch farcaster profile %d: %w", fid, err)
	}
	if referrerFID != nil && *referrerFID != fid {
		profile.ReferrerFID = referrerFID
	}

	now := r.now()
	user = &domain.User{
		ID:           uuid.NewString(),
		DisplayName:  profile.DisplayName,
		AvatarURL:    profile.PfpURL,
		FarcasterFID: &fid,
		Farcaster:    profile,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	wallets, err := r.unclaimedWallets(ctx, user.ID, profileAddresses(profile), now)
	if err != nil {
		return nil, err
	}
	if len(wallets) == 0 {
		if custody, err := domain.NormalizeAddress(profile.CustodyAddress); err == nil {
			wallets, err = r.unclaimedWallets(ctx, user.ID, []string{custody}, now)
			if err != nil {
				return nil, err
			}
		}
	}
	if len(wallets) == 0 {
		if len(profile.VerifiedAddresses) == 0 && profile.PrimaryAddress == "" && profile.CustodyAddress == "" {
			return nil, fmt.Errorf("fid %d has no address: %w", fid, domain.ErrProfileNotFound)
		}
		return nil, fmt.Errorf("every address of fid %d is owned by another user: %w", fid, domain.ErrWalletExists)
	}
	user.Wallets = wallets

	created, err := r.repo.Create(ctx, user)
	if err != nil {
		return nil, fmt.Errorf("create user for fid %d: %w", fid, err)
	}

	r.log.Info().
		Str("user_id", created.ID).
		Int64("fid", fid).
		Int("wallets", len(created.Wallets)).
		Msg("user created from farcaster")
	return created, nil
}

// GetOrCreateFromWalletAddress returns the user owning address. On a miss the
// wallet is attached to the user of profile's FID when one exists, otherwise a
// new user is created. Users without a Farcaster profile get their names
// resolved in the background.
func (r *PrincipalResolver) GetOrCreateFromWalletAddress(ctx context.Context, address string, profile *domain.FarcasterProfile) (*domain.User, error) {
	address, err := domain.NormalizeAddress(address)
	if err != nil {
		return nil, err
	}

	user, err := r.repo.FindByWalletAddress(ctx, address)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, domain.ErrUserNotFound) {
		return nil, fmt.Errorf("find user by wallet: %w", err)
	}

	now := r.now()

	if profile != nil {
		owner, err := r.repo.FindByFarcasterFID(ctx, profile.FID)
		switch {
		case err == nil:
			wallet := &domain.Wallet{
				Address:   address,
				UserID:    owner.ID,
				IsPrimary: len(owner.Wallets) == 0,
				CreatedAt: now,
				UpdatedAt: now,
			}
			if err := r.repo.AddWallet(ctx, wallet); err != nil {
				return nil, fmt.Errorf("link wallet to user %s: %w", owner.ID, err)
			}
			owner.Wallets = append(owner.Wallets, *wallet)
			r.log.Info().Str("user_id", owner.ID).Str("address", address).Msg("wallet linked to farcaster user")
			return owner, nil
		case !errors.Is(err, domain.ErrUserNotFound):
			return nil, fmt.Errorf("find user by fid: %w", err)
		}
	}

	user = &domain.User{
		ID:        uuid.NewString(),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if profile != nil {
		fid := profile.FID
		user.FarcasterFID = &fid
		user.Farcaster = profile
		user.DisplayName = profile.DisplayName
		user.AvatarURL = profile.PfpURL
	}
	user.Wallets = []domain.Wallet{{
		Address:   address,
		UserID:    user.ID,
		IsPrimary: true,
		CreatedAt: now,
		UpdatedAt: now,
	}}

	created, err := r.repo.Create(ctx, user)
	if err != nil {
		return nil, fmt.Errorf("create user for wallet %s: %w", address, err)
	}

	if created.Farcaster == nil && r.names != nil {
		r.names.Enqueue(ports.NameResolutionJob{UserID: created.ID, Address: address})
	}

	r.log.Info().Str("user_id", created.ID).Str("address", address).Msg("user created from wallet")
	return created, nil
}

// unclaimedWallets builds wallet rows for addresses no other user owns yet.
// The first unclaimed address becomes the primary wallet.
func (r *PrincipalResolver) unclaimedWallets(ctx context.Context, userID string, addresses []string, now time.Time) ([]domain.Wallet, error) {
	wallets := make([]domain.Wallet, 0, len(addresses))
	for _, addr := range addresses {
		_, err := r.repo.FindByWalletAddress(ctx, addr)
		if err == nil {
			r.log.Warn().Str("address", addr).Msg("verified address already owned by another user, skipping")
			continue
		}
		if !errors.Is(err, domain.ErrUserNotFound) {
			return nil, fmt.Errorf("check wallet %s: %w", addr, err)
		}
		wallets = append(wallets, domain.Wallet{
			Address:   addr,
			UserID:    userID,
			IsPrimary: len(wallets) == 0,
			CreatedAt: now,
			UpdatedAt: now,
		})
	}
	return wallets, nil
}

// profileAddresses lists the profile's verified addresses, normalized and
// deduplicated, primary first. The custody address is the caller's fallback
// when none of them can be claimed.
func profileAddresses(p *domain.FarcasterProfile) []string {
	candidates := make([]string, 0, len(p.VerifiedAddresses)+1)
	if p.PrimaryAddress != "" {
		candidates = append(candidates, p.PrimaryAddress)
	}
	candidates = append(candidates, p.VerifiedAddresses...)

	seen := make(map[string]struct{}, len(candidates))
	out := make([]string, 0, len(candidates))
	for _, c := range candidates {
		addr, err := domain.NormalizeAddress(c)
		if err != nil {
			continue
		}
		if _, dup := seen[addr]; dup {
			continue
		}
		seen[addr] = struct{}{}
		out = append(out, addr)
	}
	return out
}
