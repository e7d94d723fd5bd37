package adapters

import "github.com/synnergy-network/rpc-gateway/internal/provider"

// NewSolanaAdapter builds the Solana JSON-RPC adapter. Solana's public
// JSON-RPC surface is wire-compatible with the generic adapter (a single
// POST endpoint per cluster, bearer-or-embedded credential), so it reuses
// httpJSONRPCAdapter rather than duplicating the HTTP plumbing.
func NewSolanaAdapter(endpoints []ChainEndpoint, auth AuthStyle, secret string) provider.Adapter {
	return NewHTTPJSONRPCAdapter(provider.KindSolana, endpoints, auth, secret, nil)
}
