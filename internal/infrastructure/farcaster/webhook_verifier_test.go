package farcaster

import (
	"context"
	"crypto/ed25519"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"errors"
	"testing"

	"github.com/ethereum/go-ethereum/common/hexutil"

	"github.com/twinmarket/twin-api/internal/core/domain"
)

type stubKeys struct {
	active bool
	err    error
}

func (s stubKeys) IsActiveAppKey(context.Context, int64, string) (bool, error) {
	return s.active, s.err
}

func encodeSegment(t *testing.T, v any) string {
	t.Helper()
	raw, err := json.Marshal(v)
	if err != nil {
		t.Fatal(err)
	}
	return base64.RawURLEncoding.EncodeToString(raw)
}

func signedBody(t *testing.T, priv ed25519.PrivateKey, header, payload any) []byte {
	t.Helper()
	h := encodeSegment(t, header)
	p := encodeSegment(t, payload)
	sig := ed25519.Sign(priv, []byte(h+"."+p))
	body, _ := json.Marshal(signedEnvelope{
		Header:    h,
		Payload:   p,
		Signature: base64.RawURLEncoding.EncodeToString(sig),
	})
	return body
}

func TestWebhookVerifier_Valid(t *testing.T) {
	pub, priv, _ := ed25519.GenerateKey(rand.Reader)
	key := hexutil.Encode(pub)
	body := signedBody(t, priv,
		envelopeHeader{FID: 12, Type: appKeyType, Key: key},
		map[string]any{
			"event":               "frame_added",
			"notificationDetails": map[string]string{"url": "https://push", "token": "tok"},
		})

	ev, err := NewWebhookVerifier(stubKeys{active: true}).Verify(context.Background(), body)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ev.FID != 12 || ev.Type != domain.EventAppAdded || ev.AppKey != key {
		t.Fatalf("event = %+v", ev)
	}
	if ev.Notification == nil || ev.Notification.Token != "tok" {
		t.Fatalf("notification details = %+v", ev.Notification)
	}
}

func TestWebhookVerifier_Rejects(t *testing.T) {
	pub, priv, _ := ed25519.GenerateKey(rand.Reader)
	_, otherPriv, _ := ed25519.GenerateKey(rand.Reader)
	hdr := envelopeHeader{FID: 12, Type: appKeyType, Key: hexutil.Encode(pub)}
	removed := map[string]any{"event": "miniapp_removed"}

	tests := []struct {
		name string
		body []byte
		keys stubKeys
		want error
	}{
		{"not json", []byte("nope"), stubKeys{active: true}, domain.ErrInvalidWebhook},
		{"custody header", signedBody(t, priv, envelopeHeader{FID: 12, Type: "custody", Key: hdr.Key}, removed), stubKeys{active: true}, domain.ErrInvalidWebhook},
		{"unknown event", signedBody(t, priv, hdr, map[string]any{"event": "exploded"}), stubKeys{active: true}, domain.ErrInvalidWebhook},
		{"wrong signer", signedBody(t, otherPriv, hdr, removed), stubKeys{active: true}, domain.ErrInvalidSignature},
		{"revoked app key", signedBody(t, priv, hdr, removed), stubKeys{active: false}, domain.ErrInvalidSignature},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewWebhookVerifier(tt.keys).Verify(context.Background(), tt.body)
			if !errors.Is(err, tt.want) {
				t.Fatalf("err = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestWebhookVerifier_HubFailure(t *testing.T) {
	pub, priv, _ := ed25519.GenerateKey(rand.Reader)
	body := signedBody(t, priv,
		envelopeHeader{FID: 12, Type: appKeyType, Key: hexutil.Encode(pub)},
		map[string]any{"event": "notifications_disabled"})

	_, err := NewWebhookVerifier(stubKeys{err: errors.New("hub down")}).Verify(context.Background(), body)
	if err == nil || errors.Is(err, domain.ErrInvalidSignature) || errors.Is(err, domain.ErrInvalidWebhook) {
		t.Fatalf("err = %v, want upstream failure", err)
	}
}
