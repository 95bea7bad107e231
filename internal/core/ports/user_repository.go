package ports

import (
	"context"

	"github.com/twinmarket/twin-api/internal/core/domain"
)

// UserRepository persists users and their wallets. Find methods return the
// user with Wallets populated. Addresses are always checksum-normalized by
// callers before reaching the repository.
type UserRepository interface {
	FindByID(ctx context.Context, id string) (*domain.User, error)
	FindByFarcasterFID(ctx context.Context, fid int64) (*domain.User, error)
	FindByWalletAddress(ctx context.Context, address string) (*domain.User, error)

	// Create inserts the user and its wallets. Returns domain.ErrUserExists when
	// the Farcaster ID is taken and domain.ErrWalletExists when an address is.
	Create(ctx context.Context, user *domain.User) (*domain.User, error)

	// AddWallet attaches a wallet to an existing user.
	AddWallet(ctx context.Context, wallet *domain.Wallet) error

	// UpdateProfile overwrites the user's display name and avatar.
	UpdateProfile(ctx context.Context, userID, displayName, avatarURL string) error

	// SetNotificationDetails stores (or, with nil, clears) the push registration
	// of the user linked to fid.
	SetNotificationDetails(ctx context.Context, fid int64, details *domain.NotificationDetails) error

	// UpdateWalletNames stores registry names. A nil name leaves those fields untouched.
	UpdateWalletNames(ctx context.Context, address string, ens, base *domain.ResolvedName) error
}
