package handler

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/twinmarket/twin-api/internal/api/metrics"
	"github.com/twinmarket/twin-api/internal/core/domain"
	"github.com/twinmarket/twin-api/internal/core/ports"
)

const maxWebhookBody = 64 << 10

// Deduplicator remembers webhook bodies that were already processed.
type Deduplicator interface {
	IsDuplicate(ctx context.Context, body []byte) (bool, error)
	Mark(ctx context.Context, body []byte) error
}

type WebhookHandler struct {
	verifier ports.WebhookVerifier
	service  ports.WebhookService
	dedup    Deduplicator
	log      zerolog.Logger
}

// NewWebhookHandler wires the receiver. dedup may be nil.
func NewWebhookHandler(verifier ports.WebhookVerifier, service ports.WebhookService, dedup Deduplicator, log zerolog.Logger) *WebhookHandler {
	return &WebhookHandler{verifier: verifier, service: service, dedup: dedup, log: log}
}

type webhookResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

// Farcaster receives signed mini app lifecycle events.
//
// @Summary      Farcaster mini app webhook
// @Tags         webhook
// @Accept       json
// @Produce      json
// @Success      200  {object}  webhookResponse
// @Failure      400  {object}  webhookResponse
// @Failure      401  {object}  webhookResponse
// @Failure      500  {object}  webhookResponse
// @Router       /api/webhook/farcaster [post]
func (h *WebhookHandler) Farcaster(c echo.Context) error {
	ctx := c.Request().Context()

	body, err := io.ReadAll(io.LimitReader(c.Request().Body, maxWebhookBody))
	if err != nil || len(body) == 0 {
		metrics.WebhookEventsTotal.WithLabelValues("unknown", "invalid").Inc()
		return c.JSON(http.StatusBadRequest, webhookResponse{Error: "invalid body"})
	}

	if h.dedup != nil {
		dup, err := h.dedup.IsDuplicate(ctx, body)
		if err != nil {
			h.log.Warn().Err(err).Msg("webhook dedup check failed, processing anyway")
		}
		if dup {
			metrics.WebhookEventsTotal.WithLabelValues("unknown", "duplicate").Inc()
			return c.JSON(http.StatusOK, webhookResponse{Success: true})
		}
	}

	event, err := h.verifier.Verify(ctx, body)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrInvalidWebhook):
			metrics.WebhookEventsTotal.WithLabelValues("unknown", "invalid").Inc()
			return c.JSON(http.StatusBadRequest, webhookResponse{Error: "invalid webhook event"})
		case errors.Is(err, domain.ErrInvalidSignature):
			metrics.WebhookEventsTotal.WithLabelValues("unknown", "unauthorized").Inc()
			return c.JSON(http.StatusUnauthorized, webhookResponse{Error: "invalid signature"})
		}
		h.log.Error().Err(err).Msg("webhook verification failed")
		metrics.WebhookEventsTotal.WithLabelValues("unknown", "error").Inc()
		return c.JSON(http.StatusInternalServerError, webhookResponse{Error: "internal server error"})
	}

	log := h.log.With().Int64("fid", event.FID).Str("event", string(event.Type)).Logger()
	if err := h.service.Handle(ctx, event); err != nil {
		if errors.Is(err, domain.ErrInvalidWebhook) {
			metrics.WebhookEventsTotal.WithLabelValues(string(event.Type), "invalid").Inc()
			return c.JSON(http.StatusBadRequest, webhookResponse{Error: "invalid webhook event"})
		}
		log.Error().Err(err).Msg("webhook processing failed")
		metrics.WebhookEventsTotal.WithLabelValues(string(event.Type), "error").Inc()
		return c.JSON(http.StatusInternalServerError, webhookResponse{Error: "internal server error"})
	}

	if h.dedup != nil {
		if err := h.dedup.Mark(ctx, body); err != nil {
			log.Warn().Err(err).Msg("webhook dedup mark failed")
		}
	}

	log.Info().Msg("webhook processed")
	metrics.WebhookEventsTotal.WithLabelValues(string(event.Type), "ok").Inc()
	return c.JSON(http.StatusOK, webhookResponse{Success: true})
}
