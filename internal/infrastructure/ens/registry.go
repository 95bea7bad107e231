package ens

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/ethereum/go-ethereum/rpc"

	"github.com/twinmarket/twin-api/internal/core/domain"
	"github.com/twinmarket/twin-api/internal/core/ports"
)

var (
	// ENSRegistryAddress is the ENS registry on Ethereum mainnet.
	ENSRegistryAddress = common.HexToAddress("0x00000000000C2E074eC69A0dFb2997BA6C7d2e1e")
	// BaseL2ResolverAddress is the Basenames L2 resolver on Base mainnet.
	BaseL2ResolverAddress = common.HexToAddress("0xC6d566A56A1aFf6508b41f6c90ff131615583BCD")
)

const (
	ensReverseSuffix  = "addr.reverse"
	baseReverseSuffix = "80002105.reverse"
	avatarKey         = "avatar"
)

const resolverABIJSON = `[
	{"name":"resolver","type":"function","stateMutability":"view","inputs":[{"name":"node","type":"bytes32"}],"outputs":[{"name":"","type":"address"}]},
	{"name":"name","type":"function","stateMutability":"view","inputs":[{"name":"node","type":"bytes32"}],"outputs":[{"name":"","type":"string"}]},
	{"name":"addr","type":"function","stateMutability":"view","inputs":[{"name":"node","type":"bytes32"}],"outputs":[{"name":"","type":"address"}]},
	{"name":"text","type":"function","stateMutability":"view","inputs":[{"name":"node","type":"bytes32"},{"name":"key","type":"string"}],"outputs":[{"name":"","type":"string"}]}
]`

var resolverABI = mustParseABI(resolverABIJSON)

func mustParseABI(def string) abi.ABI {
	parsed, err := abi.JSON(strings.NewReader(def))
	if err != nil {
		panic(fmt.Sprintf("ens: parse abi: %v", err))
	}
	return parsed
}

// Registry reverse-resolves addresses to primary names. A name is only
// accepted when it forward-resolves back to the same address.
type Registry struct {
	caller ethereum.ContractCaller
	// registry is consulted for per-node resolvers; when nil every node is
	// served by fixedResolver.
	registry      *common.Address
	fixedResolver common.Address
	reverseSuffix string
}

var _ ports.NameRegistry = (*Registry)(nil)

// NewENS returns a mainnet ENS registry reader.
func NewENS(caller ethereum.ContractCaller) *Registry {
	reg := ENSRegistryAddress
	return &Registry{caller: caller, registry: &reg, reverseSuffix: ensReverseSuffix}
}

// NewBasename returns a Basenames reader for Base mainnet.
func NewBasename(caller ethereum.ContractCaller) *Registry {
	return &Registry{caller: caller, fixedResolver: BaseL2ResolverAddress, reverseSuffix: baseReverseSuffix}
}

// rpcTimeout caps a single JSON-RPC round trip.
const rpcTimeout = 10 * time.Second

// Dial connects to a JSON-RPC endpoint usable as a contract caller.
func Dial(ctx context.Context, rpcURL string) (*ethclient.Client, error) {
	client, err := rpc.DialOptions(ctx, rpcURL, rpc.WithHTTPClient(&http.Client{Timeout: rpcTimeout}))
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", rpcURL, err)
	}
	return ethclient.NewClient(client), nil
}

func (r *Registry) Lookup(ctx context.Context, address string) (*domain.ResolvedName, error) {
	if !common.IsHexAddress(address) {
		return nil, domain.ErrInvalidArgument
	}
	addr := common.HexToAddress(address)

	reverseNode := Namehash(strings.ToLower(addr.Hex()[2:]) + "." + r.reverseSuffix)
	resolver, err := r.resolverFor(ctx, reverseNode)
	if err != nil || resolver == (common.Address{}) {
		return nil, err
	}

	var name string
	if err := r.call(ctx, resolver, &name, "name", [32]byte(reverseNode)); err != nil {
		return nil, fmt.Errorf("reverse name: %w", err)
	}
	if name == "" {
		return nil, nil
	}

	node := Namehash(name)
	fwdResolver, err := r.resolverFor(ctx, node)
	if err != nil {
		return nil, err
	}
	if fwdResolver == (common.Address{}) {
		return nil, nil
	}
	var fwd common.Address
	if err := r.call(ctx, fwdResolver, &fwd, "addr", [32]byte(node)); err != nil {
		return nil, fmt.Errorf("forward address: %w", err)
	}
	if fwd != addr {
		return nil, nil
	}

	var avatar string
	if err := r.call(ctx, fwdResolver, &avatar, "text", [32]byte(node), avatarKey); err != nil {
		// Resolvers without text records revert; the name still stands.
		avatar = ""
	}
	return &domain.ResolvedName{Name: name, Avatar: avatar}, nil
}

func (r *Registry) resolverFor(ctx context.Context, node common.Hash) (common.Address, error) {
	if r.registry == nil {
		return r.fixedResolver, nil
	}
	var resolver common.Address
	if err := r.call(ctx, *r.registry, &resolver, "resolver", [32]byte(node)); err != nil {
		return common.Address{}, fmt.Errorf("resolver lookup: %w", err)
	}
	return resolver, nil
}

var errEmptyResult = errors.New("empty call result")

func (r *Registry) call(ctx context.Context, to common.Address, out any, method string, args ...any) error {
	data, err := resolverABI.Pack(method, args...)
	if err != nil {
		return fmt.Errorf("pack %s: %w", method, err)
	}
	res, err := r.caller.CallContract(ctx, ethereum.CallMsg{To: &to, Data: data}, nil)
	if err != nil {
		return fmt.Errorf("call %s: %w", method, err)
	}
	if len(res) == 0 {
		return fmt.Errorf("call %s: %w", method, errEmptyResult)
	}
	if err := resolverABI.UnpackIntoInterface(out, method, res); err != nil {
		return fmt.Errorf("unpack %s: %w", method, err)
	}
	return nil
}

// Namehash implements the ENS name hashing algorithm (EIP-137) over an
// already normalised name.
func Namehash(name string) common.Hash {
	var node common.Hash
	if name == "" {
		return node
	}
	labels := strings.Split(name, ".")
	for i := len(labels) - 1; i >= 0; i-- {
		label := crypto.Keccak256Hash([]byte(labels[i]))
		node = crypto.Keccak256Hash(node.Bytes(), label.Bytes())
	}
	return node
}
