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
)

const signerTTL = 5 * time.Minute

type onChainSignersResponse struct {
	Events []struct {
		SignerEventBody struct {
			Key string `json:"key"`
		} `json:"signerEventBody"`
	} `json:"events"`
}

// HubClient checks app keys against a Farcaster hub's on-chain signer events.
type HubClient struct {
	baseURL string
	apiKey  string
	http    *http.Client
	signers *cache.Cache
}

func NewHubClient(baseURL, apiKey string, client *http.Client) *HubClient {
	if client == nil {
		client = NewHTTPClient()
	}
	return &HubClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		http:    client,
		signers: cache.New(signerTTL, 10*time.Minute),
	}
}

// IsActiveAppKey reports whether key (0x-prefixed hex) is a registered signer
// of fid.
func (c *HubClient) IsActiveAppKey(ctx context.Context, fid int64, key string) (bool, error) {
	signers, err := c.signersOf(ctx, fid)
	if err != nil {
		return false, err
	}
	_, ok := signers[strings.ToLower(key)]
	return ok, nil
}

func (c *HubClient) signersOf(ctx context.Context, fid int64) (map[string]struct{}, error) {
	cacheKey := strconv.FormatInt(fid, 10)
	if s, ok := c.signers.Get(cacheKey); ok {
		return s.(map[string]struct{}), nil
	}

	h := http.Header{}
	if c.apiKey != "" {
		h.Set("x-api-key", c.apiKey)
	}
	var resp onChainSignersResponse
	q := url.Values{"fid": {cacheKey}}
	err := getJSON(ctx, c.http, c.baseURL+"/v1/onChainSignersByFid?"+q.Encode(), h, &resp)
	if errors.Is(err, errNotFound) {
		return map[string]struct{}{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("hub signers for %d: %w", fid, err)
	}

	signers := make(map[string]struct{}, len(resp.Events))
	for _, e := range resp.Events {
		signers[strings.ToLower(e.SignerEventBody.Key)] = struct{}{}
	}
	c.signers.Set(cacheKey, signers, cache.DefaultExpiration)
	return signers, nil
}
