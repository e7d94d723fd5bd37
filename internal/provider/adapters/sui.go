package adapters

import "github.com/synnergy-network/rpc-gateway/internal/provider"

// NewSuiAdapter builds the Sui JSON-RPC adapter. Sui's public fullnode
// RPC is a single JSON-RPC-over-HTTPS endpoint per network, matching the
// generic adapter shape.
func NewSuiAdapter(endpoints []ChainEndpoint, auth AuthStyle, secret string) provider.Adapter {
	return NewHTTPJSONRPCAdapter(provider.KindSui, endpoints, auth, secret, nil)
}
