package service

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/twinmarket/twin-api/internal/core/domain"
	"github.com/twinmarket/twin-api/internal/core/ports"
)

const (
	// FarcasterSessionGrace extends a Farcaster session past the expiry of the
	// Quick Auth token it was issued for.
	FarcasterSessionGrace = 30 * 24 * time.Hour
	// WalletSessionTTL is the fixed lifetime of a wallet session.
	WalletSessionTTL = 7 * 24 * time.Hour
)

var tracer = otel.Tracer("github.com/twinmarket/twin-api/internal/core/service")

// SessionService turns a verified credential into a user and a signed session.
type SessionService struct {
	farcaster *FarcasterVerifier
	wallet    *WalletVerifier
	resolver  *PrincipalResolver
	profiles  ports.ProfileDirectory
	codec     *TokenCodec
	log       zerolog.Logger
	now       func() time.Time
}

func NewSessionService(
	farcaster *FarcasterVerifier,
	wallet *WalletVerifier,
	resolver *PrincipalResolver,
	profiles ports.ProfileDirectory,
	codec *TokenCodec,
	log zerolog.Logger,
) *SessionService {
	return &SessionService{
		farcaster: farcaster,
		wallet:    wallet,
		resolver:  resolver,
		profiles:  profiles,
		codec:     codec,
		log:       log,
		now:       time.Now,
	}
}

// SignInFarcaster verifies a Quick Auth token and issues a session valid until
// the token's expiry plus FarcasterSessionGrace.
func (s *SessionService) SignInFarcaster(ctx context.Context, in ports.FarcasterSignIn) (*domain.User, *domain.Session, error) {
	ctx, span := tracer.Start(ctx, "SessionService.SignInFarcaster",
		trace.WithAttributes(attribute.Int64("fid", in.FID)))
	defer span.End()

	verified, err := s.farcaster.Verify(ctx, in.Token, in.FID)
	if err != nil {
		span.RecordError(err)
		return nil, nil, err
	}

	user, err := s.resolver.GetOrCreateFromFarcasterID(ctx, verified.FID, in.ReferrerFID)
	if err != nil {
		span.RecordError(err)
		return nil, nil, err
	}

	expiresAt := verified.ExpiresAt.Add(FarcasterSessionGrace)
	session, err := s.issue(user, expiresAt)
	if err != nil {
		span.RecordError(err)
		return nil, nil, err
	}

	s.log.Info().Str("user_id", user.ID).Int64("fid", verified.FID).Msg("farcaster session issued")
	return user, session, nil
}

// SignInWallet verifies a personal_sign signature and issues a session valid
// for WalletSessionTTL. A Farcaster profile verifying the address is linked
// when the directory knows one.
func (s *SessionService) SignInWallet(ctx context.Context, in ports.WalletSignIn) (*domain.User, *domain.Session, error) {
	ctx, span := tracer.Start(ctx, "SessionService.SignInWallet")
	defer span.End()

	address, err := s.wallet.Verify(in.Address, in.Message, in.Signature)
	if err != nil {
		span.RecordError(err)
		return nil, nil, err
	}
	span.SetAttributes(attribute.String("address", address))

	profile, err := s.profiles.FetchByAddress(ctx, address)
	if err != nil {
		s.log.Warn().Err(err).Str("address", address).Msg("farcaster lookup by address failed, continuing without profile")
		profile = nil
	}

	user, err := s.resolver.GetOrCreateFromWalletAddress(ctx, address, profile)
	if err != nil {
		span.RecordError(err)
		return nil, nil, err
	}

	session, err := s.issue(user, s.now().Add(WalletSessionTTL))
	if err != nil {
		span.RecordError(err)
		return nil, nil, err
	}

	s.log.Info().Str("user_id", user.ID).Str("address", address).Msg("wallet session issued")
	return user, session, nil
}

func (s *SessionService) issue(user *domain.User, expiresAt time.Time) (*domain.Session, error) {
	ttl := expiresAt.Sub(s.now())
	if ttl <= 0 {
		return nil, domain.ErrInvalidToken
	}

	token, err := s.codec.Issue(domain.SessionClaims{
		FID:           user.FarcasterFID,
		WalletAddress: user.SessionAddress(),
	}, ttl)
	if err != nil {
		return nil, fmt.Errorf("sign session: %w", err)
	}
	return &domain.Session{Token: token, ExpiresAt: expiresAt}, nil
}
