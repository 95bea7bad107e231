package farcaster

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"slices"

	"github.com/twinmarket/twin-api/internal/core/domain"
	"github.com/twinmarket/twin-api/internal/core/ports"
)

type sendRequest struct {
	NotificationID string   `json:"notificationId"`
	Title          string   `json:"title"`
	Body           string   `json:"body"`
	TargetURL      string   `json:"targetUrl"`
	Tokens         []string `json:"tokens"`
}

type sendResponse struct {
	Result struct {
		SuccessfulTokens  []string `json:"successfulTokens"`
		InvalidTokens     []string `json:"invalidTokens"`
		RateLimitedTokens []string `json:"rateLimitedTokens"`
	} `json:"result"`
}

// Notifier posts mini app notifications to the URL the client registered.
type Notifier struct {
	http *http.Client
}

func NewNotifier(client *http.Client) *Notifier {
	if client == nil {
		client = NewHTTPClient()
	}
	return &Notifier{http: client}
}

var _ ports.Notifier = (*Notifier)(nil)

func (n *Notifier) Send(ctx context.Context, details domain.NotificationDetails, msg domain.Notification) (domain.NotificationResult, error) {
	payload, err := json.Marshal(sendRequest{
		NotificationID: msg.ID,
		Title:          msg.Title,
		Body:           msg.Body,
		TargetURL:      msg.TargetURL,
		Tokens:         []string{details.Token},
	})
	if err != nil {
		return domain.NotificationFailed, fmt.Errorf("encode notification: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, details.URL, bytes.NewReader(payload))
	if err != nil {
		return domain.NotificationFailed, fmt.Errorf("build notification request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.http.Do(req)
	if err != nil {
		return domain.NotificationFailed, fmt.Errorf("send notification: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return domain.NotificationFailed, fmt.Errorf("send notification: status %d: %s", resp.StatusCode, body)
	}

	var out sendResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxResponseBytes)).Decode(&out); err != nil {
		return domain.NotificationFailed, fmt.Errorf("decode notification response: %w", err)
	}

	switch {
	case slices.Contains(out.Result.SuccessfulTokens, details.Token):
		return domain.NotificationSent, nil
	case slices.Contains(out.Result.InvalidTokens, details.Token):
		return domain.NotificationInvalidToken, nil
	case slices.Contains(out.Result.RateLimitedTokens, details.Token):
		return domain.NotificationRateLimited, nil
	}
	return domain.NotificationFailed, nil
}
