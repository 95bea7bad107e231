package postgres

import "time"

type User struct {
	ID          string `gorm:"type:text;primaryKey"`
	DisplayName string
	AvatarURL   string

	FarcasterFID         *int64 `gorm:"uniqueIndex"`
	FarcasterUsername    string
	FarcasterDisplayName string
	FarcasterPfpURL      string
	CustodyAddress       string
	VerifiedAddresses    []string `gorm:"serializer:json"`
	PrimaryAddress       string
	ReferrerFID          *int64
	NotificationURL      string
	NotificationToken    string

	Wallets []Wallet `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`

	CreatedAt time.Time
	UpdatedAt time.Time
}

type Wallet struct {
	Address    string `gorm:"type:text;primaryKey"`
	UserID     string `gorm:"type:text;index;not null"`
	IsPrimary  bool
	ENSName    string
	ENSAvatar  string
	BaseName   string
	BaseAvatar string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}
