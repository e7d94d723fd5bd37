package adapters

import "github.com/synnergy-network/rpc-gateway/internal/provider"

// NewBitcoinAdapter builds the bip122 (Bitcoin) adapter. Bitcoin Core's
// RPC surface is JSON-RPC over a single HTTP endpoint authenticated with
// HTTP basic auth (rpcuser/rpcpassword), so it reuses httpJSONRPCAdapter
// rather than a bespoke client.
func NewBitcoinAdapter(endpoints []ChainEndpoint, secret string) provider.Adapter {
	return NewHTTPJSONRPCAdapter(provider.KindBitcoinRPC, endpoints, AuthBasicHeader, secret, nil)
}
