package ports

import (
	"context"

	"github.com/twinmarket/twin-api/internal/core/domain"
)

// WebhookService applies verified webhook events.
type WebhookService interface {
	Handle(ctx context.Context, event *domain.WebhookEvent) error
}
