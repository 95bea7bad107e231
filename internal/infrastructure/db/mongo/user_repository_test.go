package mongo

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/mongo/integration/mtest"

	"github.com/twinmarket/twin-api/internal/core/domain"
)

func newMockUser() *domain.User {
	fid := int64(77)
	now := time.Now().UTC()
	return &domain.User{
		ID:           "u-77",
		FarcasterFID: &fid,
		Farcaster:    &domain.FarcasterProfile{FID: fid, Username: "seventy"},
		CreatedAt:    now,
		UpdatedAt:    now,
		Wallets: []domain.Wallet{{
			Address:   "0x1111111111111111111111111111111111111111",
			IsPrimary: true,
			CreatedAt: now,
			UpdatedAt: now,
		}},
	}
}

func duplicateKey() mtest.WriteError {
	return mtest.WriteError{Index: 0, Code: 11000, Message: "E11000 duplicate key error"}
}

func commandNames(mt *mtest.T) []string {
	var names []string
	for _, ev := range mt.GetAllStartedEvents() {
		names = append(names, ev.CommandName)
	}
	return names
}

func TestUserRepository_Create(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("duplicate fid maps to ErrUserExists", func(mt *mtest.T) {
		repo := NewUserRepository(mt.DB)
		mt.AddMockResponses(mtest.CreateWriteErrorsResponse(duplicateKey()))

		_, err := repo.Create(context.Background(), newMockUser())
		if !errors.Is(err, domain.ErrUserExists) {
			mt.Fatalf("expected ErrUserExists, got %v", err)
		}
		if names := commandNames(mt); len(names) != 1 || names[0] != "insert" {
			mt.Fatalf("wallets must not be written after a user conflict, got %v", names)
		}
	})

	mt.Run("duplicate wallet maps to ErrWalletExists and removes the user", func(mt *mtest.T) {
		repo := NewUserRepository(mt.DB)
		mt.AddMockResponses(
			mtest.CreateSuccessResponse(),                   // insert user
			mtest.CreateWriteErrorsResponse(duplicateKey()), // insert wallets
			mtest.CreateSuccessResponse(),                   // delete wallets
			mtest.CreateSuccessResponse(),                   // delete user
		)

		_, err := repo.Create(context.Background(), newMockUser())
		if !errors.Is(err, domain.ErrWalletExists) {
			mt.Fatalf("expected ErrWalletExists, got %v", err)
		}

		events := mt.GetAllStartedEvents()
		want := []string{"insert", "insert", "delete", "delete"}
		if len(events) != len(want) {
			mt.Fatalf("commands = %v, want %v", commandNames(mt), want)
		}
		for i, ev := range events {
			if ev.CommandName != want[i] {
				mt.Fatalf("commands = %v, want %v", commandNames(mt), want)
			}
		}
		if coll := events[3].Command.Lookup("delete").StringValue(); coll != usersCollection {
			mt.Fatalf("last delete targets %q, want %q", coll, usersCollection)
		}
	})
}

func TestUserRepository_AddWalletDuplicate(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("owned address", func(mt *mtest.T) {
		repo := NewUserRepository(mt.DB)
		mt.AddMockResponses(mtest.CreateWriteErrorsResponse(duplicateKey()))

		err := repo.AddWallet(context.Background(), &domain.Wallet{Address: "0x2222222222222222222222222222222222222222", UserID: "u-1"})
		if !errors.Is(err, domain.ErrWalletExists) {
			mt.Fatalf("expected ErrWalletExists, got %v", err)
		}
	})
}

func TestUserRepository_FindByFarcasterFIDMissing(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("no document", func(mt *mtest.T) {
		repo := NewUserRepository(mt.DB)
		ns := mt.DB.Name() + "." + usersCollection
		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns, mtest.FirstBatch))

		_, err := repo.FindByFarcasterFID(context.Background(), 404)
		if !errors.Is(err, domain.ErrUserNotFound) {
			mt.Fatalf("expected ErrUserNotFound, got %v", err)
		}
	})
}
