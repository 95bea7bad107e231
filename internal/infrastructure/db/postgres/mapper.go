package postgres

import "github.com/twinmarket/twin-api/internal/core/domain"

func fromDomainUser(u *domain.User) User {
	m := User{
		ID:           u.ID,
		DisplayName:  u.DisplayName,
		AvatarURL:    u.AvatarURL,
		FarcasterFID: u.FarcasterFID,
		CreatedAt:    u.CreatedAt,
		UpdatedAt:    u.UpdatedAt,
	}
	if p := u.Farcaster; p != nil {
		m.FarcasterUsername = p.Username
		m.FarcasterDisplayName = p.DisplayName
		m.FarcasterPfpURL = p.PfpURL
		m.CustodyAddress = p.CustodyAddress
		m.VerifiedAddresses = p.VerifiedAddresses
		m.PrimaryAddress = p.PrimaryAddress
		m.ReferrerFID = p.ReferrerFID
		if n := p.Notification; n != nil {
			m.NotificationURL = n.URL
			m.NotificationToken = n.Token
		}
	}
	return m
}

func fromDomainWallet(w *domain.Wallet) Wallet {
	return Wallet{
		Address:    w.Address,
		UserID:     w.UserID,
		IsPrimary:  w.IsPrimary,
		ENSName:    w.ENSName,
		ENSAvatar:  w.ENSAvatar,
		BaseName:   w.BaseName,
		BaseAvatar: w.BaseAvatar,
		CreatedAt:  w.CreatedAt,
		UpdatedAt:  w.UpdatedAt,
	}
}

func toDomainUser(m *User) *domain.User {
	u := &domain.User{
		ID:           m.ID,
		DisplayName:  m.DisplayName,
		AvatarURL:    m.AvatarURL,
		FarcasterFID: m.FarcasterFID,
		CreatedAt:    m.CreatedAt.UTC(),
		UpdatedAt:    m.UpdatedAt.UTC(),
	}
	if m.FarcasterFID != nil {
		u.Farcaster = &domain.FarcasterProfile{
			FID:               *m.FarcasterFID,
			Username:          m.FarcasterUsername,
			DisplayName:       m.FarcasterDisplayName,
			PfpURL:            m.FarcasterPfpURL,
			CustodyAddress:    m.CustodyAddress,
			VerifiedAddresses: m.VerifiedAddresses,
			PrimaryAddress:    m.PrimaryAddress,
			ReferrerFID:       m.ReferrerFID,
		}
		if m.NotificationToken != "" {
			u.Farcaster.Notification = &domain.NotificationDetails{
				URL:   m.NotificationURL,
				Token: m.NotificationToken,
			}
		}
	}
	for _, w := range m.Wallets {
		u.Wallets = append(u.Wallets, domain.Wallet{
			Address:    w.Address,
			UserID:     w.UserID,
			IsPrimary:  w.IsPrimary,
			ENSName:    w.ENSName,
			ENSAvatar:  w.ENSAvatar,
			BaseName:   w.BaseName,
			BaseAvatar: w.BaseAvatar,
			CreatedAt:  w.CreatedAt.UTC(),
			UpdatedAt:  w.UpdatedAt.UTC(),
		})
	}
	return u
}
