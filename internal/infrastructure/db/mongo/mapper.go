package mongo

import (
	"github.com/twinmarket/twin-api/internal/core/domain"
)

func toUserDoc(u *domain.User) userDoc {
	doc := userDoc{
		ID:           u.ID,
		DisplayName:  u.DisplayName,
		AvatarURL:    u.AvatarURL,
		FarcasterFID: u.FarcasterFID,
		CreatedAt:    u.CreatedAt,
		UpdatedAt:    u.UpdatedAt,
	}
	if p := u.Farcaster; p != nil {
		doc.Farcaster = &farcasterDoc{
			FID:               p.FID,
			Username:          p.Username,
			DisplayName:       p.DisplayName,
			PfpURL:            p.PfpURL,
			CustodyAddress:    p.CustodyAddress,
			VerifiedAddresses: p.VerifiedAddresses,
			PrimaryAddress:    p.PrimaryAddress,
			ReferrerFID:       p.ReferrerFID,
		}
		if n := p.Notification; n != nil {
			doc.Farcaster.Notification = &notificationDoc{URL: n.URL, Token: n.Token}
		}
	}
	return doc
}

func toWalletDoc(w *domain.Wallet) walletDoc {
	return walletDoc{
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

func toDomainUser(doc userDoc, wallets []walletDoc) *domain.User {
	u := &domain.User{
		ID:           doc.ID,
		DisplayName:  doc.DisplayName,
		AvatarURL:    doc.AvatarURL,
		FarcasterFID: doc.FarcasterFID,
		CreatedAt:    doc.CreatedAt.UTC(),
		UpdatedAt:    doc.UpdatedAt.UTC(),
	}
	if f := doc.Farcaster; f != nil {
		u.Farcaster = &domain.FarcasterProfile{
			FID:               f.FID,
			Username:          f.Username,
			DisplayName:       f.DisplayName,
			PfpURL:            f.PfpURL,
			CustodyAddress:    f.CustodyAddress,
			VerifiedAddresses: f.VerifiedAddresses,
			PrimaryAddress:    f.PrimaryAddress,
			ReferrerFID:       f.ReferrerFID,
		}
		if n := f.Notification; n != nil {
			u.Farcaster.Notification = &domain.NotificationDetails{URL: n.URL, Token: n.Token}
		}
	}
	for _, w := range wallets {
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
