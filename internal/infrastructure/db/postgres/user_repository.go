package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/twinmarket/twin-api/internal/core/domain"
)

// UserRepository implements ports.UserRepository on PostgreSQL. Unlike the
// MongoDB store, a user and its wallets are created in one transaction.
type UserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) FindByID(ctx context.Context, id string) (*domain.User, error) {
	return r.first(ctx, "id = ?", id)
}

func (r *UserRepository) FindByFarcasterFID(ctx context.Context, fid int64) (*domain.User, error) {
	return r.first(ctx, "farcaster_fid = ?", fid)
}

func (r *UserRepository) FindByWalletAddress(ctx context.Context, address string) (*domain.User, error) {
	var w Wallet
	err := r.db.WithContext(ctx).Where("address = ?", address).First(&w).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrUserNotFound
		}
		return nil, fmt.Errorf("find wallet: %w", err)
	}
	return r.first(ctx, "id = ?", w.UserID)
}

func (r *UserRepository) Create(ctx context.Context, user *domain.User) (*domain.User, error) {
	m := fromDomainUser(user)
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Wallets").Create(&m).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return domain.ErrUserExists
			}
			return fmt.Errorf("insert user: %w", err)
		}
		for _, w := range user.Wallets {
			w.UserID = user.ID
			wm := fromDomainWallet(&w)
			if err := tx.Create(&wm).Error; err != nil {
				if errors.Is(err, gorm.ErrDuplicatedKey) {
					return domain.ErrWalletExists
				}
				return fmt.Errorf("insert wallet: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return r.FindByID(ctx, user.ID)
}

func (r *UserRepository) AddWallet(ctx context.Context, wallet *domain.Wallet) error {
	m := fromDomainWallet(wallet)
	if err := r.db.WithContext(ctx).Create(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return domain.ErrWalletExists
		}
		if errors.Is(err, gorm.ErrForeignKeyViolated) {
			return domain.ErrUserNotFound
		}
		return fmt.Errorf("insert wallet: %w", err)
	}
	return nil
}

func (r *UserRepository) UpdateProfile(ctx context.Context, userID, displayName, avatarURL string) error {
	return r.update(ctx, &User{}, "id = ?", userID, map[string]any{
		"display_name": displayName,
		"avatar_url":   avatarURL,
	})
}

func (r *UserRepository) SetNotificationDetails(ctx context.Context, fid int64, details *domain.NotificationDetails) error {
	fields := map[string]any{"notification_url": "", "notification_token": ""}
	if details != nil {
		fields["notification_url"] = details.URL
		fields["notification_token"] = details.Token
	}
	return r.update(ctx, &User{}, "farcaster_fid = ?", fid, fields)
}

func (r *UserRepository) UpdateWalletNames(ctx context.Context, address string, ens, base *domain.ResolvedName) error {
	fields := map[string]any{}
	if ens != nil {
		fields["ens_name"] = ens.Name
		fields["ens_avatar"] = ens.Avatar
	}
	if base != nil {
		fields["base_name"] = base.Name
		fields["base_avatar"] = base.Avatar
	}
	return r.update(ctx, &Wallet{}, "address = ?", address, fields)
}

func (r *UserRepository) update(ctx context.Context, model any, query string, arg any, fields map[string]any) error {
	fields["updated_at"] = time.Now().UTC()
	res := r.db.WithContext(ctx).Model(model).Where(query, arg).Updates(fields)
	if res.Error != nil {
		return fmt.Errorf("update: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}

func (r *UserRepository) first(ctx context.Context, query string, arg any) (*domain.User, error) {
	var m User
	err := r.db.WithContext(ctx).
		Preload("Wallets", func(db *gorm.DB) *gorm.DB {
			return db.Order("is_primary DESC, created_at ASC")
		}).
		Where(query, arg).
		First(&m).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrUserNotFound
		}
		return nil, fmt.Errorf("find user: %w", err)
	}
	return toDomainUser(&m), nil
}
