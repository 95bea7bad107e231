package domain

import "time"

// User is the canonical principal. A Farcaster ID, when set, is unique across
// all users; wallets are owned exclusively by one user.
type User struct {
	ID           string            `json:"id"`
	DisplayName  string            `json:"displayName,omitempty"`
	AvatarURL    string            `json:"avatarUrl,omitempty"`
	FarcasterFID *int64            `json:"farcasterFid,omitempty"`
	Farcaster    *FarcasterProfile `json:"farcaster,omitempty"`
	Wallets      []Wallet          `json:"wallets,omitempty"`
	CreatedAt    time.Time         `json:"createdAt"`
	UpdatedAt    time.Time         `json:"updatedAt"`
}

// FarcasterProfile is the profile snapshot taken from the Farcaster directory
// when the user is first linked to a Farcaster ID.
type FarcasterProfile struct {
	FID               int64                `json:"fid"`
	Username          string               `json:"username,omitempty"`
	DisplayName       string               `json:"displayName,omitempty"`
	PfpURL            string               `json:"pfpUrl,omitempty"`
	CustodyAddress    string               `json:"custodyAddress,omitempty"`
	VerifiedAddresses []string             `json:"verifiedAddresses,omitempty"`
	PrimaryAddress    string               `json:"primaryAddress,omitempty"`
	ReferrerFID       *int64               `json:"referrerFid,omitempty"`
	Notification      *NotificationDetails `json:"-"`
}

// NotificationDetails is the push registration handed out by the Farcaster
// client when the user adds the mini app or enables notifications.
type NotificationDetails struct {
	URL   string `json:"url"`
	Token string `json:"token"`
}

// HasNotifications reports whether the user can currently receive pushes.
func (u *User) HasNotifications() bool {
	return u.Farcaster != nil && u.Farcaster.Notification != nil && u.Farcaster.Notification.Token != ""
}

// SessionAddress picks the wallet embedded in the session: the primary wallet,
// otherwise the first one. Empty when the user owns no wallet.
func (u *User) SessionAddress() string {
	for _, w := range u.Wallets {
		if w.IsPrimary {
			return w.Address
		}
	}
	if len(u.Wallets) > 0 {
		return u.Wallets[0].Address
	}
	return ""
}
