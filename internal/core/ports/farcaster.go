package ports

import (
	"context"
	"time"

	"github.com/twinmarket/twin-api/internal/core/domain"
)

// QuickAuthToken is the verified content of a Farcaster Quick Auth token.
type QuickAuthToken struct {
	FID       int64
	ExpiresAt time.Time
}

// QuickAuthClient verifies Farcaster Quick Auth tokens issued for this app.
type QuickAuthClient interface {
	VerifyToken(ctx context.Context, token string) (*QuickAuthToken, error)
}

// ProfileDirectory looks up Farcaster profiles.
type ProfileDirectory interface {
	// FetchByFID returns domain.ErrProfileNotFound for unknown IDs.
	FetchByFID(ctx context.Context, fid int64) (*domain.FarcasterProfile, error)
	// FetchByAddress returns nil, nil when no profile verifies the address.
	FetchByAddress(ctx context.Context, address string) (*domain.FarcasterProfile, error)
}

// WebhookVerifier authenticates a raw webhook body and decodes its event.
type WebhookVerifier interface {
	Verify(ctx context.Context, body []byte) (*domain.WebhookEvent, error)
}

// Notifier delivers push notifications through the Farcaster client's endpoint.
type Notifier interface {
	Send(ctx context.Context, details domain.NotificationDetails, n domain.Notification) (domain.NotificationResult, error)
}
