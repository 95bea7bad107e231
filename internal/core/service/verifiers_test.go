package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"

	"github.com/twinmarket/twin-api/internal/core/domain"
	"github.com/twinmarket/twin-api/internal/core/ports"
)

// signPersonal produces a wallet-style (v = 27/28) personal_sign signature.
func signPersonal(t *testing.T, message string) (address, signature string) {
	t.Helper()
	key, err := crypto.GenerateKey()
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	sig, err := crypto.Sign(accounts.TextHash([]byte(message)), key)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	sig[crypto.RecoveryIDOffset] += 27
	return crypto.PubkeyToAddress(key.PublicKey).Hex(), hexutil.Encode(sig)
}

func TestWalletVerifier_Valid(t *testing.T) {
	msg := "Sign in to Twin\nTimestamp: 1760000000"
	address, sig := signPersonal(t, msg)

	got, err := NewWalletVerifier().Verify(strings.ToLower(address), msg, sig)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != address {
		t.Fatalf("expected checksum address %s, got %s", address, got)
	}
}

func TestWalletVerifier_Rejects(t *testing.T) {
	msg := "Sign in to Twin"
	address, sig := signPersonal(t, msg)
	other, _ := signPersonal(t, msg)

	tampered := []byte(sig)
	if tampered[10] == 'a' {
		tampered[10] = 'b'
	} else {
		tampered[10] = 'a'
	}

	tests := []struct {
		name      string
		address   string
		message   string
		signature string
		want      error
	}{
		{"tampered signature", address, msg, string(tampered), domain.ErrInvalidSignature},
		{"different message", address, msg + "!", sig, domain.ErrInvalidSignature},
		{"different signer", other, msg, sig, domain.ErrInvalidSignature},
		{"short signature", address, msg, "0xdeadbeef", domain.ErrInvalidSignature},
		{"not hex", address, msg, "zz", domain.ErrInvalidSignature},
		{"bad address", "0x123", msg, sig, domain.ErrInvalidArgument},
		{"empty message", address, "", sig, domain.ErrInvalidArgument},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewWalletVerifier().Verify(tt.address, tt.message, tt.signature); err != tt.want {
				t.Fatalf("expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestFarcasterVerifier(t *testing.T) {
	valid := &ports.QuickAuthToken{FID: 1, ExpiresAt: time.Now().Add(time.Hour)}

	tests := []struct {
		name    string
		env     string
		client  *stubQuickAuth
		token   string
		claimed int64
		want    error
	}{
		{"valid admin in staging", "staging", &stubQuickAuth{token: valid}, "tok", 1, nil},
		{"valid anyone in production", EnvProduction, &stubQuickAuth{token: &ports.QuickAuthToken{FID: 9}}, "tok", 9, nil},
		{"non-admin in staging", "staging", &stubQuickAuth{token: &ports.QuickAuthToken{FID: 9}}, "tok", 9, domain.ErrForbidden},
		{"spoofed fid", EnvProduction, &stubQuickAuth{token: valid}, "tok", 2, domain.ErrInvalidToken},
		{"invalid token", EnvProduction, &stubQuickAuth{err: domain.ErrInvalidToken}, "tok", 1, domain.ErrInvalidToken},
		{"missing token", EnvProduction, &stubQuickAuth{token: valid}, "", 1, domain.ErrInvalidArgument},
		{"missing fid", EnvProduction, &stubQuickAuth{token: valid}, "tok", 0, domain.ErrInvalidArgument},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := NewFarcasterVerifier(tt.client, NewAccessPolicy(tt.env, []int64{1}))
			_, err := v.Verify(context.Background(), tt.token, tt.claimed)
			if err != tt.want {
				t.Fatalf("expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestFarcasterVerifier_UpstreamFailureIsNotInvalidToken(t *testing.T) {
	v := NewFarcasterVerifier(&stubQuickAuth{err: errors.New("jwks unreachable")}, NewAccessPolicy(EnvProduction, nil))
	_, err := v.Verify(context.Background(), "tok", 1)
	if err == nil || errors.Is(err, domain.ErrInvalidToken) {
		t.Fatalf("expected internal error, got %v", err)
	}
}
