package chainregistry

import (
	"testing"

	"github.com/synnergy-network/rpc-gateway/internal/caip2"
	"github.com/synnergy-network/rpc-gateway/internal/provider"
)

func TestLookupKnownChain(t *testing.T) {
	info, ok := Lookup(caip2.MustParse("eip155:1"))
	if !ok {
		t.Fatal("expected eip155:1 to be catalogued")
	}
	if info.DisplayName != "Ethereum Mainnet" {
		t.Fatalf("unexpected display name %q", info.DisplayName)
	}
	if len(info.ProviderIDs) == 0 {
		t.Fatal("expected at least one eligible provider")
	}
}

func TestLookupUnknownChain(t *testing.T) {
	if _, ok := Lookup(caip2.MustParse("eip155:999999")); ok {
		t.Fatal("expected eip155:999999 to be unrecognized")
	}
}

func TestAllIncludesRegistered(t *testing.T) {
	id := caip2.MustParse("eip155:0xdeadbeef")
	Register(id, ChainInfo{DisplayName: "Test Chain", ProviderIDs: []provider.Kind{provider.KindInfuraLike}})
	found := false
	for _, c := range All() {
		if c == id {
			found = true
		}
	}
	if !found {
		t.Fatal("expected registered chain to appear in All()")
	}
}
