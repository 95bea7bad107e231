package handler

import (
	"context"

	"github.com/twinmarket/twin-api/internal/core/domain"
	"github.com/twinmarket/twin-api/internal/core/ports"
)

type stubSessionService struct {
	farcasterFn func(ctx context.Context, in ports.FarcasterSignIn) (*domain.User, *domain.Session, error)
	walletFn    func(ctx context.Context, in ports.WalletSignIn) (*domain.User, *domain.Session, error)
}

func (s *stubSessionService) SignInFarcaster(ctx context.Context, in ports.FarcasterSignIn) (*domain.User, *domain.Session, error) {
	return s.farcasterFn(ctx, in)
}

func (s *stubSessionService) SignInWallet(ctx context.Context, in ports.WalletSignIn) (*domain.User, *domain.Session, error) {
	return s.walletFn(ctx, in)
}

type stubAuthenticator struct {
	fn func(ctx context.Context, id domain.Identity) (*domain.User, error)
}

func (s *stubAuthenticator) Authenticate(ctx context.Context, id domain.Identity) (*domain.User, error) {
	return s.fn(ctx, id)
}

type stubVerifier struct {
	event *domain.WebhookEvent
	err   error
}

func (s *stubVerifier) Verify(context.Context, []byte) (*domain.WebhookEvent, error) {
	return s.event, s.err
}

type stubWebhookService struct {
	handled []*domain.WebhookEvent
	err     error
}

func (s *stubWebhookService) Handle(_ context.Context, event *domain.WebhookEvent) error {
	s.handled = append(s.handled, event)
	return s.err
}

type memDedup struct {
	seen map[string]bool
}

func (m *memDedup) IsDuplicate(_ context.Context, body []byte) (bool, error) {
	return m.seen[string(body)], nil
}

func (m *memDedup) Mark(_ context.Context, body []byte) error {
	if m.seen == nil {
		m.seen = map[string]bool{}
	}
	m.seen[string(body)] = true
	return nil
}

func int64Ptr(v int64) *int64 { return &v }
