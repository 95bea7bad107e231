package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/twinmarket/twin-api/internal/core/domain"
)

const (
	usersCollection   = "users"
	walletsCollection = "wallets"
)

// UserRepository implements ports.UserRepository on two collections: users
// (unique sparse farcaster_fid) and wallets (address as _id).
type UserRepository struct {
	users   *mongo.Collection
	wallets *mongo.Collection
}

func NewUserRepository(db *mongo.Database) *UserRepository {
	return &UserRepository{
		users:   db.Collection(usersCollection),
		wallets: db.Collection(walletsCollection),
	}
}

type notificationDoc struct {
	URL   string `bson:"url"`
	Token string `bson:"token"`
}

type farcasterDoc struct {
	FID               int64            `bson:"fid"`
	Username          string           `bson:"username,omitempty"`
	DisplayName       string           `bson:"display_name,omitempty"`
	PfpURL            string           `bson:"pfp_url,omitempty"`
	CustodyAddress    string           `bson:"custody_address,omitempty"`
	VerifiedAddresses []string         `bson:"verified_addresses,omitempty"`
	PrimaryAddress    string           `bson:"primary_address,omitempty"`
	ReferrerFID       *int64           `bson:"referrer_fid,omitempty"`
	Notification      *notificationDoc `bson:"notification,omitempty"`
}

type userDoc struct {
	ID           string        `bson:"_id"`
	DisplayName  string        `bson:"display_name,omitempty"`
	AvatarURL    string        `bson:"avatar_url,omitempty"`
	FarcasterFID *int64        `bson:"farcaster_fid,omitempty"`
	Farcaster    *farcasterDoc `bson:"farcaster,omitempty"`
	CreatedAt    time.Time     `bson:"created_at"`
	UpdatedAt    time.Time     `bson:"updated_at"`
}

type walletDoc struct {
	Address    string    `bson:"_id"`
	UserID     string    `bson:"user_id"`
	IsPrimary  bool      `bson:"is_primary"`
	ENSName    string    `bson:"ens_name,omitempty"`
	ENSAvatar  string    `bson:"ens_avatar,omitempty"`
	BaseName   string    `bson:"base_name,omitempty"`
	BaseAvatar string    `bson:"base_avatar,omitempty"`
	CreatedAt  time.Time `bson:"created_at"`
	UpdatedAt  time.Time `bson:"updated_at"`
}

// EnsureIndexes creates the uniqueness and lookup indexes.
func (r *UserRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	_, err := r.users.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "farcaster_fid", Value: 1}},
		Options: options.Index().
			SetUnique(true).
			SetPartialFilterExpression(bson.M{"farcaster_fid": bson.M{"$exists": true}}),
	})
	if err != nil {
		return fmt.Errorf("users indexes: %w", err)
	}

	_, err = r.wallets.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "user_id", Value: 1}},
	})
	if err != nil {
		return fmt.Errorf("wallets indexes: %w", err)
	}
	return nil
}

func (r *UserRepository) FindByID(ctx context.Context, id string) (*domain.User, error) {
	return r.findOne(ctx, bson.M{"_id": id})
}

func (r *UserRepository) FindByFarcasterFID(ctx context.Context, fid int64) (*domain.User, error) {
	return r.findOne(ctx, bson.M{"farcaster_fid": fid})
}

func (r *UserRepository) FindByWalletAddress(ctx context.Context, address string) (*domain.User, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var w walletDoc
	if err := r.wallets.FindOne(ctx, bson.M{"_id": address}).Decode(&w); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrUserNotFound
		}
		return nil, fmt.Errorf("find wallet: %w", err)
	}
	return r.findOne(ctx, bson.M{"_id": w.UserID})
}

// Create inserts the user, then its wallets. MongoDB gives no multi-document
// atomicity here, so a wallet conflict removes the just-inserted user.
func (r *UserRepository) Create(ctx context.Context, user *domain.User) (*domain.User, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	if _, err := r.users.InsertOne(ctx, toUserDoc(user)); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, domain.ErrUserExists
		}
		return nil, fmt.Errorf("insert user: %w", err)
	}

	if len(user.Wallets) > 0 {
		docs := make([]any, 0, len(user.Wallets))
		for _, w := range user.Wallets {
			w.UserID = user.ID
			docs = append(docs, toWalletDoc(&w))
		}
		if _, err := r.wallets.InsertMany(ctx, docs); err != nil {
			_, _ = r.wallets.DeleteMany(ctx, bson.M{"user_id": user.ID})
			_, _ = r.users.DeleteOne(ctx, bson.M{"_id": user.ID})
			if mongo.IsDuplicateKeyError(err) {
				return nil, domain.ErrWalletExists
			}
			return nil, fmt.Errorf("insert wallets: %w", err)
		}
	}

	return r.findOne(ctx, bson.M{"_id": user.ID})
}

func (r *UserRepository) AddWallet(ctx context.Context, wallet *domain.Wallet) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	if _, err := r.wallets.InsertOne(ctx, toWalletDoc(wallet)); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return domain.ErrWalletExists
		}
		return fmt.Errorf("insert wallet: %w", err)
	}
	return nil
}

func (r *UserRepository) UpdateProfile(ctx context.Context, userID, displayName, avatarURL string) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.users.UpdateOne(ctx, bson.M{"_id": userID}, bson.M{"$set": bson.M{
		"display_name": displayName,
		"avatar_url":   avatarURL,
		"updated_at":   time.Now().UTC(),
	}})
	if err != nil {
		return fmt.Errorf("update profile: %w", err)
	}
	if res.MatchedCount == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}

func (r *UserRepository) SetNotificationDetails(ctx context.Context, fid int64, details *domain.NotificationDetails) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	update := bson.M{
		"$set": bson.M{"farcaster.fid": fid, "updated_at": time.Now().UTC()},
	}
	if details != nil {
		update["$set"].(bson.M)["farcaster.notification"] = notificationDoc{URL: details.URL, Token: details.Token}
	} else {
		update["$unset"] = bson.M{"farcaster.notification": ""}
	}

	res, err := r.users.UpdateOne(ctx, bson.M{"farcaster_fid": fid}, update)
	if err != nil {
		return fmt.Errorf("set notification details: %w", err)
	}
	if res.MatchedCount == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}

func (r *UserRepository) UpdateWalletNames(ctx context.Context, address string, ens, base *domain.ResolvedName) error {
	set := bson.M{"updated_at": time.Now().UTC()}
	if ens != nil {
		set["ens_name"] = ens.Name
		set["ens_avatar"] = ens.Avatar
	}
	if base != nil {
		set["base_name"] = base.Name
		set["base_avatar"] = base.Avatar
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.wallets.UpdateOne(ctx, bson.M{"_id": address}, bson.M{"$set": set})
	if err != nil {
		return fmt.Errorf("update wallet names: %w", err)
	}
	if res.MatchedCount == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}

func (r *UserRepository) findOne(ctx context.Context, filter bson.M) (*domain.User, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var doc userDoc
	if err := r.users.FindOne(ctx, filter).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrUserNotFound
		}
		return nil, fmt.Errorf("find user: %w", err)
	}

	cur, err := r.wallets.Find(ctx, bson.M{"user_id": doc.ID},
		options.Find().SetSort(bson.D{{Key: "is_primary", Value: -1}, {Key: "created_at", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("find wallets: %w", err)
	}
	var wallets []walletDoc
	if err := cur.All(ctx, &wallets); err != nil {
		return nil, fmt.Errorf("decode wallets: %w", err)
	}

	return toDomainUser(doc, wallets), nil
}
