package ens

import (
	"context"
	"errors"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
)

func TestNamehash(t *testing.T) {
	tests := []struct {
		name string
		want string
	}{
		{"", "0x0000000000000000000000000000000000000000000000000000000000000000"},
		{"eth", "0x93cdeb708b7545dc668eb9280176169d1c33cfd8ed6f04690a0bcc88a93fc4ae"},
		{"foo.eth", "0xde9b09fd7c5f901e23a3f19fecc54828e9c848539801e86591bd9801b019f84f"},
	}
	for _, tt := range tests {
		if got := Namehash(tt.name).Hex(); got != tt.want {
			t.Errorf("Namehash(%q) = %s, want %s", tt.name, got, tt.want)
		}
	}
}

// fakeChain answers resolver calls from in-memory records keyed by node.
type fakeChain struct {
	resolvers map[common.Hash]common.Address
	names     map[common.Hash]string
	addrs     map[common.Hash]common.Address
	texts     map[common.Hash]string
	err       error
}

func newFakeChain() *fakeChain {
	return &fakeChain{
		resolvers: map[common.Hash]common.Address{},
		names:     map[common.Hash]string{},
		addrs:     map[common.Hash]common.Address{},
		texts:     map[common.Hash]string{},
	}
}

func (f *fakeChain) CallContract(_ context.Context, call ethereum.CallMsg, _ *big.Int) ([]byte, error) {
	if f.err != nil {
		return nil, f.err
	}
	method, err := resolverABI.MethodById(call.Data[:4])
	if err != nil {
		return nil, err
	}
	args, err := method.Inputs.Unpack(call.Data[4:])
	if err != nil {
		return nil, err
	}
	node := common.Hash(args[0].([32]byte))

	switch method.Name {
	case "resolver":
		return method.Outputs.Pack(f.resolvers[node])
	case "name":
		return method.Outputs.Pack(f.names[node])
	case "addr":
		return method.Outputs.Pack(f.addrs[node])
	case "text":
		return method.Outputs.Pack(f.texts[node])
	}
	return nil, errors.New("unexpected method")
}

var (
	testAddr     = common.HexToAddress("0xd8dA6BF26964aF9D7eEd9e03E53415D37aA96045")
	testResolver = common.HexToAddress("0x231b0Ee14048e9dCcD1d247744d114a4EB5E8E63")
)

func reverseNodeOf(addr common.Address, suffix string) common.Hash {
	return Namehash(common.Bytes2Hex(addr.Bytes()) + "." + suffix)
}

func TestENS_Lookup(t *testing.T) {
	chain := newFakeChain()
	rev := reverseNodeOf(testAddr, ensReverseSuffix)
	fwd := Namehash("vitalik.eth")
	chain.resolvers[rev] = testResolver
	chain.resolvers[fwd] = testResolver
	chain.names[rev] = "vitalik.eth"
	chain.addrs[fwd] = testAddr
	chain.texts[fwd] = "https://avatar/v.png"

	got, err := NewENS(chain).Lookup(context.Background(), testAddr.Hex())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got == nil || got.Name != "vitalik.eth" || got.Avatar != "https://avatar/v.png" {
		t.Fatalf("got %+v", got)
	}
}

func TestENS_LookupRejectsUnverifiedName(t *testing.T) {
	chain := newFakeChain()
	rev := reverseNodeOf(testAddr, ensReverseSuffix)
	fwd := Namehash("impostor.eth")
	chain.resolvers[rev] = testResolver
	chain.resolvers[fwd] = testResolver
	chain.names[rev] = "impostor.eth"
	chain.addrs[fwd] = common.HexToAddress("0x0000000000000000000000000000000000000bad")

	got, err := NewENS(chain).Lookup(context.Background(), testAddr.Hex())
	if err != nil || got != nil {
		t.Fatalf("got %+v, %v; want nil, nil", got, err)
	}
}

func TestENS_LookupNoReverseRecord(t *testing.T) {
	got, err := NewENS(newFakeChain()).Lookup(context.Background(), testAddr.Hex())
	if err != nil || got != nil {
		t.Fatalf("got %+v, %v; want nil, nil", got, err)
	}
}

func TestBasename_Lookup(t *testing.T) {
	chain := newFakeChain()
	rev := reverseNodeOf(testAddr, baseReverseSuffix)
	fwd := Namehash("jesse.base.eth")
	chain.names[rev] = "jesse.base.eth"
	chain.addrs[fwd] = testAddr

	got, err := NewBasename(chain).Lookup(context.Background(), testAddr.Hex())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got == nil || got.Name != "jesse.base.eth" || got.Avatar != "" {
		t.Fatalf("got %+v", got)
	}
}

func TestLookup_RPCFailure(t *testing.T) {
	chain := newFakeChain()
	chain.err = errors.New("rpc unavailable")

	if _, err := NewENS(chain).Lookup(context.Background(), testAddr.Hex()); err == nil {
		t.Fatal("expected error")
	}
}
