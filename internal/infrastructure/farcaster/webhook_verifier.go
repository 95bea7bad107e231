package farcaster

import (
	"context"
	"crypto/ed25519"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common/hexutil"

	"github.com/twinmarket/twin-api/internal/core/domain"
	"github.com/twinmarket/twin-api/internal/core/ports"
)

const appKeyType = "app_key"

// AppKeyChecker confirms that a key is an active app key of an FID.
type AppKeyChecker interface {
	IsActiveAppKey(ctx context.Context, fid int64, key string) (bool, error)
}

type signedEnvelope struct {
	Header    string `json:"header"`
	Payload   string `json:"payload"`
	Signature string `json:"signature"`
}

type envelopeHeader struct {
	FID  int64  `json:"fid"`
	Type string `json:"type"`
	Key  string `json:"key"`
}

type eventPayload struct {
	Event               string `json:"event"`
	NotificationDetails *struct {
		URL   string `json:"url"`
		Token string `json:"token"`
	} `json:"notificationDetails"`
}

// WebhookVerifier authenticates mini app webhook deliveries signed with a
// user's app key.
type WebhookVerifier struct {
	keys AppKeyChecker
}

func NewWebhookVerifier(keys AppKeyChecker) *WebhookVerifier {
	return &WebhookVerifier{keys: keys}
}

var _ ports.WebhookVerifier = (*WebhookVerifier)(nil)

// Verify returns domain.ErrInvalidWebhook for malformed bodies and
// domain.ErrInvalidSignature when the signature or app key does not check out.
func (v *WebhookVerifier) Verify(ctx context.Context, body []byte) (*domain.WebhookEvent, error) {
	var env signedEnvelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidWebhook, err)
	}

	var hdr envelopeHeader
	if err := decodeSegment(env.Header, &hdr); err != nil {
		return nil, fmt.Errorf("%w: header: %v", domain.ErrInvalidWebhook, err)
	}
	var payload eventPayload
	if err := decodeSegment(env.Payload, &payload); err != nil {
		return nil, fmt.Errorf("%w: payload: %v", domain.ErrInvalidWebhook, err)
	}
	if hdr.FID <= 0 || hdr.Type != appKeyType {
		return nil, fmt.Errorf("%w: unsupported header", domain.ErrInvalidWebhook)
	}

	eventType, ok := domain.ParseWebhookEventType(payload.Event)
	if !ok {
		return nil, fmt.Errorf("%w: unknown event %q", domain.ErrInvalidWebhook, payload.Event)
	}

	key, err := hexutil.Decode(hdr.Key)
	if err != nil || len(key) != ed25519.PublicKeySize {
		return nil, domain.ErrInvalidSignature
	}
	sig, err := base64.RawURLEncoding.DecodeString(strings.TrimRight(env.Signature, "="))
	if err != nil || len(sig) != ed25519.SignatureSize {
		return nil, domain.ErrInvalidSignature
	}
	if !ed25519.Verify(ed25519.PublicKey(key), []byte(env.Header+"."+env.Payload), sig) {
		return nil, domain.ErrInvalidSignature
	}

	active, err := v.keys.IsActiveAppKey(ctx, hdr.FID, hdr.Key)
	if err != nil {
		return nil, fmt.Errorf("check app key: %w", err)
	}
	if !active {
		return nil, domain.ErrInvalidSignature
	}

	event := &domain.WebhookEvent{
		FID:    hdr.FID,
		AppKey: strings.ToLower(hdr.Key),
		Type:   eventType,
	}
	if d := payload.NotificationDetails; d != nil && d.URL != "" && d.Token != "" {
		event.Notification = &domain.NotificationDetails{URL: d.URL, Token: d.Token}
	}
	return event, nil
}

func decodeSegment(seg string, out any) error {
	raw, err := base64.RawURLEncoding.DecodeString(strings.TrimRight(seg, "="))
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, out)
}
