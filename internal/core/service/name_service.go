package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/twinmarket/twin-api/internal/core/domain"
	"github.com/twinmarket/twin-api/internal/core/ports"
)

// NameService resolves ENS and Basename names for new wallets and backfills
// the owner's display fields. ENS takes precedence over Basename.
type NameService struct {
	repo    ports.UserRepository
	ens     ports.NameRegistry
	base    ports.NameRegistry
	log     zerolog.Logger
	timeout time.Duration
}

// NameLookupTimeout bounds the registry lookups of a single job.
const NameLookupTimeout = 10 * time.Second

// NewNameService accepts nil registries; an unset registry is skipped.
func NewNameService(repo ports.UserRepository, ens, base ports.NameRegistry, log zerolog.Logger) *NameService {
	return &NameService{repo: repo, ens: ens, base: base, log: log, timeout: NameLookupTimeout}
}

// Resolve looks the address up on both registries independently; a failure in
// one does not prevent the other from being stored.
func (s *NameService) Resolve(ctx context.Context, job ports.NameResolutionJob) error {
	lookupCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	var (
		ensName, baseName *domain.ResolvedName
		ensErr, baseErr   error
		g                 errgroup.Group
	)
	g.Go(func() error {
		ensName, ensErr = lookupName(lookupCtx, s.ens, job.Address)
		return nil
	})
	g.Go(func() error {
		baseName, baseErr = lookupName(lookupCtx, s.base, job.Address)
		return nil
	})
	_ = g.Wait()

	if ensErr != nil {
		s.log.Warn().Err(ensErr).Str("address", job.Address).Msg("ens lookup failed")
	}
	if baseErr != nil {
		s.log.Warn().Err(baseErr).Str("address", job.Address).Msg("basename lookup failed")
	}

	if ensName == nil && baseName == nil {
		if ensErr != nil || baseErr != nil {
			return fmt.Errorf("resolve names for %s: %w", job.Address, errors.Join(ensErr, baseErr))
		}
		return nil
	}

	if err := s.repo.UpdateWalletNames(ctx, job.Address, ensName, baseName); err != nil {
		return fmt.Errorf("store wallet names: %w", err)
	}

	user, err := s.repo.FindByID(ctx, job.UserID)
	if err != nil {
		return fmt.Errorf("load user %s: %w", job.UserID, err)
	}
	if user.Farcaster != nil {
		return nil
	}

	displayName, avatar := user.DisplayName, user.AvatarURL
	if displayName == "" {
		displayName = firstNonEmpty(nameOf(ensName), nameOf(baseName))
	}
	if avatar == "" {
		avatar = firstNonEmpty(avatarOf(ensName), avatarOf(baseName))
	}
	if displayName == user.DisplayName && avatar == user.AvatarURL {
		return nil
	}

	if err := s.repo.UpdateProfile(ctx, user.ID, displayName, avatar); err != nil {
		return fmt.Errorf("backfill profile: %w", err)
	}
	s.log.Info().Str("user_id", user.ID).Str("display_name", displayName).Msg("profile backfilled from registry names")
	return nil
}

func lookupName(ctx context.Context, r ports.NameRegistry, address string) (*domain.ResolvedName, error) {
	if r == nil {
		return nil, nil
	}
	return r.Lookup(ctx, address)
}

func nameOf(n *domain.ResolvedName) string {
	if n == nil {
		return ""
	}
	return n.Name
}

func avatarOf(n *domain.ResolvedName) string {
	if n == nil {
		return ""
	}
	return n.Avatar
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
