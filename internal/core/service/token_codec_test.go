package service

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/twinmarket/twin-api/internal/core/domain"
)

func int64Ptr(v int64) *int64 { return &v }

func TestTokenCodec_RoundTrip(t *testing.T) {
	codec := NewTokenCodec("secret")

	cases := []domain.SessionClaims{
		{FID: int64Ptr(999), WalletAddress: "0x00000000000000000000000000000000000000aA"},
		{WalletAddress: "0x00000000000000000000000000000000000000bB"},
		{FID: int64Ptr(1)},
	}
	for _, in := range cases {
		token, err := codec.Issue(in, time.Hour)
		if err != nil {
			t.Fatalf("issue: %v", err)
		}
		got, err := codec.Verify(token)
		if err != nil {
			t.Fatalf("verify: %v", err)
		}
		if (in.FID == nil) != (got.FID == nil) || (in.FID != nil && *in.FID != *got.FID) {
			t.Fatalf("fid mismatch: want %v got %v", in.FID, got.FID)
		}
		if got.WalletAddress != in.WalletAddress {
			t.Fatalf("wallet mismatch: want %q got %q", in.WalletAddress, got.WalletAddress)
		}
		if got.ExpiresAt.Sub(got.IssuedAt) != time.Hour {
			t.Fatalf("unexpected lifetime: %v", got.ExpiresAt.Sub(got.IssuedAt))
		}
	}
}

func TestTokenCodec_Expired(t *testing.T) {
	codec := NewTokenCodec("secret")
	issuedAt := time.Now().Add(-2 * time.Hour)
	codec.now = func() time.Time { return issuedAt }

	token, err := codec.Issue(domain.SessionClaims{FID: int64Ptr(7)}, time.Hour)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	codec.now = time.Now
	if _, err := codec.Verify(token); !errors.Is(err, domain.ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
}

func TestTokenCodec_Rejects(t *testing.T) {
	codec := NewTokenCodec("secret")

	foreign, _ := NewTokenCodec("other").Issue(domain.SessionClaims{FID: int64Ptr(7)}, time.Hour)
	noExp, _ := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"fid": 7}).SignedString([]byte("secret"))
	hs512, _ := jwt.NewWithClaims(jwt.SigningMethodHS512, jwt.MapClaims{
		"fid": 7,
		"exp": time.Now().Add(time.Hour).Unix(),
	}).SignedString([]byte("secret"))

	tests := map[string]string{
		"empty":          "",
		"garbage":        "not-a-token",
		"wrong secret":   foreign,
		"missing expiry": noExp,
		"other alg":      hs512,
	}
	for name, token := range tests {
		t.Run(name, func(t *testing.T) {
			if _, err := codec.Verify(token); err != domain.ErrInvalidToken {
				t.Fatalf("expected ErrInvalidToken, got %v", err)
			}
		})
	}
}
