// Package chainregistry holds the static catalogue of CAIP-2 chains the
// gateway recognizes. It is built at init and guarded by a read-write
// mutex, so Register can extend it while Lookup and All are in use.
package chainregistry

import (
	"sync"

	"github.com/synnergy-network/rpc-gateway/internal/caip2"
	"github.com/synnergy-network/rpc-gateway/internal/provider"
)

// ChainInfo describes a single catalogued chain.
type ChainInfo struct {
	DisplayName string
	ProviderIDs []provider.Kind
}

var (
	mu      sync.RWMutex
	catalog map[caip2.ID]ChainInfo
)

func init() {
	catalog = map[caip2.ID]ChainInfo{
		caip2.MustParse("eip155:1"): {
			DisplayName: "Ethereum Mainnet",
			ProviderIDs: []provider.Kind{provider.KindInfuraLike, provider.KindPokt},
		},
		caip2.MustParse("eip155:10"): {
			DisplayName: "Optimism Mainnet",
			ProviderIDs: []provider.Kind{provider.KindInfuraLike},
		},
		caip2.MustParse("eip155:137"): {
			DisplayName: "Polygon Mainnet",
			ProviderIDs: []provider.Kind{provider.KindInfuraLike, provider.KindPokt},
		},
		caip2.MustParse("eip155:324"): {
			DisplayName: "zkSync Era Mainnet",
			ProviderIDs: []provider.Kind{provider.KindZKSync},
		},
		caip2.MustParse("eip155:56"): {
			DisplayName: "BNB Smart Chain Mainnet",
			ProviderIDs: []provider.Kind{provider.KindBinance},
		},
		caip2.MustParse("solana:5eykt4UsFv8P8NJdTREpY1vzqKqZKvdp"): {
			DisplayName: "Solana Mainnet Beta",
			ProviderIDs: []provider.Kind{provider.KindSolana},
		},
		caip2.MustParse("tron:0x2b6653dc"): {
			DisplayName: "Tron Mainnet",
			ProviderIDs: []provider.Kind{provider.KindTronGrid},
		},
		caip2.MustParse("stacks:1"): {
			DisplayName: "Stacks Mainnet",
			ProviderIDs: []provider.Kind{provider.KindHiro},
		},
		caip2.MustParse("bip122:000000000019d6689c085ae165831e93"): {
			DisplayName: "Bitcoin Mainnet",
			ProviderIDs: []provider.Kind{provider.KindBitcoinRPC},
		},
		caip2.MustParse("ton:-239"): {
			DisplayName: "TON Mainnet",
			ProviderIDs: []provider.Kind{provider.KindTonCenter},
		},
		caip2.MustParse("sui:35834a8a"): {
			DisplayName: "Sui Mainnet",
			ProviderIDs: []provider.Kind{provider.KindSui},
		},
		caip2.MustParse("near:mainnet"): {
			DisplayName: "NEAR Mainnet",
			ProviderIDs: []provider.Kind{provider.KindNear},
		},
	}
}

// Lookup returns the catalogue entry for chain, if it is recognized.
func Lookup(chain caip2.ID) (ChainInfo, bool) {
	mu.RLock()
	defer mu.RUnlock()
	info, ok := catalog[chain]
	return info, ok
}

// All returns every recognized chain identifier.
func All() []caip2.ID {
	mu.RLock()
	defer mu.RUnlock()
	out := make([]caip2.ID, 0, len(catalog))
	for id := range catalog {
		out = append(out, id)
	}
	return out
}

// Register adds or replaces a catalogue entry. cmd/gateway calls it at
// bootstrap for any configured chain beyond the defaults above, and tests
// use it to extend the embedded table.
func Register(chain caip2.ID, info ChainInfo) {
	mu.Lock()
	defer mu.Unlock()
	catalog[chain] = info
}
