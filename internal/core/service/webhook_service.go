package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/twinmarket/twin-api/internal/core/domain"
	"github.com/twinmarket/twin-api/internal/core/ports"
)

// WebhookService applies mini app lifecycle events to users.
type WebhookService struct {
	resolver *PrincipalResolver
	repo     ports.UserRepository
	notifier ports.Notifier
	appURL   string
	log      zerolog.Logger
}

func NewWebhookService(resolver *PrincipalResolver, repo ports.UserRepository, notifier ports.Notifier, appURL string, log zerolog.Logger) *WebhookService {
	return &WebhookService{
		resolver: resolver,
		repo:     repo,
		notifier: notifier,
		appURL:   strings.TrimRight(appURL, "/"),
		log:      log,
	}
}

// Handle dispatches a verified event.
func (s *WebhookService) Handle(ctx context.Context, ev *domain.WebhookEvent) error {
	log := s.log.With().Int64("fid", ev.FID).Str("event", string(ev.Type)).Logger()

	switch ev.Type {
	case domain.EventAppAdded:
		if _, err := s.resolver.GetOrCreateFromFarcasterID(ctx, ev.FID, nil); err != nil {
			return fmt.Errorf("resolve user: %w", err)
		}
		if ev.Notification == nil {
			log.Info().Msg("mini app added without notifications")
			return nil
		}
		return s.register(ctx, ev.FID, *ev.Notification, domain.Notification{
			Title: "Welcome to your AI twin",
			Body:  "Your twin is ready. Tap to meet it.",
		})

	case domain.EventNotificationsEnabled:
		if ev.Notification == nil {
			return domain.ErrInvalidWebhook
		}
		if _, err := s.resolver.GetOrCreateFromFarcasterID(ctx, ev.FID, nil); err != nil {
			return fmt.Errorf("resolve user: %w", err)
		}
		return s.register(ctx, ev.FID, *ev.Notification, domain.Notification{
			Title: "Notifications enabled",
			Body:  "You will hear from your twin when it needs you.",
		})

	case domain.EventAppRemoved, domain.EventNotificationsDisabled:
		err := s.repo.SetNotificationDetails(ctx, ev.FID, nil)
		if errors.Is(err, domain.ErrUserNotFound) {
			log.Info().Msg("event for unknown user ignored")
			return nil
		}
		if err != nil {
			return fmt.Errorf("clear notification details: %w", err)
		}
		log.Info().Msg("notification details cleared")
		return nil
	}

	return domain.ErrInvalidWebhook
}

func (s *WebhookService) register(ctx context.Context, fid int64, details domain.NotificationDetails, n domain.Notification) error {
	if err := s.repo.SetNotificationDetails(ctx, fid, &details); err != nil {
		return fmt.Errorf("store notification details: %w", err)
	}

	n.ID = uuid.NewString()
	n.TargetURL = s.appURL
	result, err := s.notifier.Send(ctx, details, n)
	if err != nil {
		// The registration stands even when the courtesy push fails.
		s.log.Warn().Err(err).Int64("fid", fid).Msg("notification send failed")
		return nil
	}
	if result == domain.NotificationInvalidToken {
		if err := s.repo.SetNotificationDetails(ctx, fid, nil); err != nil {
			return fmt.Errorf("clear invalid notification token: %w", err)
		}
	}
	s.log.Info().Int64("fid", fid).Str("result", string(result)).Msg("notification sent")
	return nil
}
