package service

import (
	"context"
	"sync"
	"time"

	"github.com/twinmarket/twin-api/internal/core/domain"
	"github.com/twinmarket/twin-api/internal/core/ports"
)

// ---------------------------------------------------------------------------
// In-memory user repository enforcing the same uniqueness rules as the stores.
// ---------------------------------------------------------------------------

type stubUserRepo struct {
	mu      sync.Mutex
	users   map[string]*domain.User
	byFID   map[int64]string
	wallets map[string]*domain.Wallet
	findErr error
}

func newStubUserRepo() *stubUserRepo {
	return &stubUserRepo{
		users:   make(map[string]*domain.User),
		byFID:   make(map[int64]string),
		wallets: make(map[string]*domain.Wallet),
	}
}

func (r *stubUserRepo) snapshot(id string) *domain.User {
	u := *r.users[id]
	u.Wallets = nil
	for _, w := range r.wallets {
		if w.UserID == id {
			u.Wallets = append(u.Wallets, *w)
		}
	}
	return &u
}

func (r *stubUserRepo) FindByID(_ context.Context, id string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[id]; !ok {
		return nil, domain.ErrUserNotFound
	}
	return r.snapshot(id), nil
}

func (r *stubUserRepo) FindByFarcasterFID(_ context.Context, fid int64) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.findErr != nil {
		return nil, r.findErr
	}
	id, ok := r.byFID[fid]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	return r.snapshot(id), nil
}

func (r *stubUserRepo) FindByWalletAddress(_ context.Context, address string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.findErr != nil {
		return nil, r.findErr
	}
	w, ok := r.wallets[address]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	return r.snapshot(w.UserID), nil
}

func (r *stubUserRepo) Create(_ context.Context, user *domain.User) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if user.FarcasterFID != nil {
		if _, taken := r.byFID[*user.FarcasterFID]; taken {
			return nil, domain.ErrUserExists
		}
	}
	for _, w := range user.Wallets {
		if _, taken := r.wallets[w.Address]; taken {
			return nil, domain.ErrWalletExists
		}
	}
	stored := *user
	stored.Wallets = nil
	r.users[user.ID] = &stored
	if user.FarcasterFID != nil {
		r.byFID[*user.FarcasterFID] = user.ID
	}
	for _, w := range user.Wallets {
		w := w
		r.wallets[w.Address] = &w
	}
	return r.snapshot(user.ID), nil
}

func (r *stubUserRepo) AddWallet(_ context.Context, w *domain.Wallet) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, taken := r.wallets[w.Address]; taken {
		return domain.ErrWalletExists
	}
	cp := *w
	r.wallets[w.Address] = &cp
	return nil
}

func (r *stubUserRepo) UpdateProfile(_ context.Context, userID, displayName, avatarURL string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[userID]
	if !ok {
		return domain.ErrUserNotFound
	}
	u.DisplayName = displayName
	u.AvatarURL = avatarURL
	return nil
}

func (r *stubUserRepo) SetNotificationDetails(_ context.Context, fid int64, details *domain.NotificationDetails) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	id, ok := r.byFID[fid]
	if !ok {
		return domain.ErrUserNotFound
	}
	u := r.users[id]
	if u.Farcaster == nil {
		u.Farcaster = &domain.FarcasterProfile{FID: fid}
	}
	u.Farcaster.Notification = details
	return nil
}

func (r *stubUserRepo) UpdateWalletNames(_ context.Context, address string, ens, base *domain.ResolvedName) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	w, ok := r.wallets[address]
	if !ok {
		return domain.ErrUserNotFound
	}
	if ens != nil {
		w.ENSName, w.ENSAvatar = ens.Name, ens.Avatar
	}
	if base != nil {
		w.BaseName, w.BaseAvatar = base.Name, base.Avatar
	}
	return nil
}

func (r *stubUserRepo) countFID(fid int64) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, u := range r.users {
		if u.FarcasterFID != nil && *u.FarcasterFID == fid {
			n++
		}
	}
	return n
}

// ---------------------------------------------------------------------------
// Collaborator stubs
// ---------------------------------------------------------------------------

type stubProfiles struct {
	mu        sync.Mutex
	byFID     map[int64]*domain.FarcasterProfile
	byAddress map[string]*domain.FarcasterProfile
	fidErr    error
	addrErr   error
	delay     time.Duration
}

func (p *stubProfiles) FetchByFID(_ context.Context, fid int64) (*domain.FarcasterProfile, error) {
	if p.delay > 0 {
		time.Sleep(p.delay)
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.fidErr != nil {
		return nil, p.fidErr
	}
	prof, ok := p.byFID[fid]
	if !ok {
		return nil, domain.ErrProfileNotFound
	}
	cp := *prof
	return &cp, nil
}

func (p *stubProfiles) FetchByAddress(_ context.Context, address string) (*domain.FarcasterProfile, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.addrErr != nil {
		return nil, p.addrErr
	}
	prof, ok := p.byAddress[address]
	if !ok {
		return nil, nil
	}
	cp := *prof
	return &cp, nil
}

type stubNameQueue struct {
	mu   sync.Mutex
	jobs []ports.NameResolutionJob
}

func (q *stubNameQueue) Enqueue(job ports.NameResolutionJob) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.jobs = append(q.jobs, job)
}

type stubQuickAuth struct {
	token *ports.QuickAuthToken
	err   error
}

func (q *stubQuickAuth) VerifyToken(_ context.Context, _ string) (*ports.QuickAuthToken, error) {
	return q.token, q.err
}

type stubRegistry struct {
	name *domain.ResolvedName
	err  error
}

func (r *stubRegistry) Lookup(_ context.Context, _ string) (*domain.ResolvedName, error) {
	return r.name, r.err
}

// hangingRegistry blocks until the lookup context ends.
type hangingRegistry struct{}

func (hangingRegistry) Lookup(ctx context.Context, _ string) (*domain.ResolvedName, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

type stubNotifier struct {
	result domain.NotificationResult
	err    error
	sent   []domain.Notification
}

func (n *stubNotifier) Send(_ context.Context, _ domain.NotificationDetails, msg domain.Notification) (domain.NotificationResult, error) {
	n.sent = append(n.sent, msg)
	return n.result, n.err
}
