package service

import (
	"github.com/twinmarket/twin-api/internal/core/domain"
)

// EnvProduction is the only environment open to every identity.
const EnvProduction = "production"

// AccessPolicy gates non-production deployments to an allow-list of admin
// Farcaster IDs. It is consulted at sign-in, by the request gate and by the
// API authenticator.
type AccessPolicy struct {
	env    string
	admins map[int64]struct{}
}

func NewAccessPolicy(env string, adminFIDs []int64) *AccessPolicy {
	admins := make(map[int64]struct{}, len(adminFIDs))
	for _, fid := range adminFIDs {
		admins[fid] = struct{}{}
	}
	return &AccessPolicy{env: env, admins: admins}
}

// IsAdmin reports whether fid is on the allow-list.
func (p *AccessPolicy) IsAdmin(fid int64) bool {
	_, ok := p.admins[fid]
	return ok
}

// Authorize returns domain.ErrForbidden when a Farcaster identity outside the
// allow-list calls a non-production deployment. Wallet-only identities are
// not gated.
func (p *AccessPolicy) Authorize(id domain.Identity) error {
	if p.env == EnvProduction || id.FID == nil {
		return nil
	}
	if !p.IsAdmin(*id.FID) {
		return domain.ErrForbidden
	}
	return nil
}
