package farcaster

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/patrickmn/go-cache"

	"github.com/twinmarket/twin-api/internal/core/domain"
	"github.com/twinmarket/twin-api/internal/core/ports"
)

const profileTTL = 10 * time.Minute

type neynarUser struct {
	FID               int64  `json:"fid"`
	Username          string `json:"username"`
	DisplayName       string `json:"display_name"`
	PfpURL            string `json:"pfp_url"`
	CustodyAddress    string `json:"custody_address"`
	VerifiedAddresses struct {
		EthAddresses []string `json:"eth_addresses"`
		Primary      struct {
			EthAddress string `json:"eth_address"`
		} `json:"primary"`
	} `json:"verified_addresses"`
}

type bulkUsersResponse struct {
	Users []neynarUser `json:"users"`
}

// NeynarClient reads Farcaster profiles from the Neynar API. Profiles are
// cached by value; callers receive their own copy.
type NeynarClient struct {
	baseURL string
	apiKey  string
	http    *http.Client
	cache   *cache.Cache
}

func NewNeynarClient(baseURL, apiKey string, client *http.Client) *NeynarClient {
	if client == nil {
		client = NewHTTPClient()
	}
	return &NeynarClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		http:    client,
		cache:   cache.New(profileTTL, 15*time.Minute),
	}
}

var _ ports.ProfileDirectory = (*NeynarClient)(nil)

func (c *NeynarClient) FetchByFID(ctx context.Context, fid int64) (*domain.FarcasterProfile, error) {
	key := "fid:" + strconv.FormatInt(fid, 10)
	if p, ok := c.cache.Get(key); ok {
		cp := p.(domain.FarcasterProfile)
		return &cp, nil
	}

	var resp bulkUsersResponse
	q := url.Values{"fids": {strconv.FormatInt(fid, 10)}}
	err := getJSON(ctx, c.http, c.baseURL+"/v2/farcaster/user/bulk?"+q.Encode(), c.header(), &resp)
	if errors.Is(err, errNotFound) {
		return nil, domain.ErrProfileNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("neynar user %d: %w", fid, err)
	}
	if len(resp.Users) == 0 {
		return nil, domain.ErrProfileNotFound
	}

	p := toProfile(resp.Users[0])
	c.cache.Set(key, *p, cache.DefaultExpiration)
	return p, nil
}

// FetchByAddress returns the first profile that verifies address, or nil.
func (c *NeynarClient) FetchByAddress(ctx context.Context, address string) (*domain.FarcasterProfile, error) {
	addr := strings.ToLower(address)
	key := "addr:" + addr
	if p, ok := c.cache.Get(key); ok {
		cp := p.(domain.FarcasterProfile)
		return &cp, nil
	}

	// The response is keyed by the lower-cased address.
	var resp map[string][]neynarUser
	q := url.Values{"addresses": {addr}}
	err := getJSON(ctx, c.http, c.baseURL+"/v2/farcaster/user/bulk-by-address?"+q.Encode(), c.header(), &resp)
	if errors.Is(err, errNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("neynar address %s: %w", addr, err)
	}

	users := resp[addr]
	if len(users) == 0 {
		return nil, nil
	}

	p := toProfile(users[0])
	c.cache.Set(key, *p, cache.DefaultExpiration)
	return p, nil
}

func (c *NeynarClient) header() http.Header {
	h := http.Header{}
	h.Set("x-api-key", c.apiKey)
	return h
}

func toProfile(u neynarUser) *domain.FarcasterProfile {
	return &domain.FarcasterProfile{
		FID:               u.FID,
		Username:          u.Username,
		DisplayName:       u.DisplayName,
		PfpURL:            u.PfpURL,
		CustodyAddress:    u.CustodyAddress,
		VerifiedAddresses: u.VerifiedAddresses.EthAddresses,
		PrimaryAddress:    u.VerifiedAddresses.Primary.EthAddress,
	}
}
