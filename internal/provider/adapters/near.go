package adapters

import "github.com/synnergy-network/rpc-gateway/internal/provider"

// NewNearAdapter builds the NEAR JSON-RPC adapter. NEAR's RPC nodes speak
// plain JSON-RPC 2.0 over a single POST endpoint per network, matching
// the generic adapter shape.
func NewNearAdapter(endpoints []ChainEndpoint, auth AuthStyle, secret string) provider.Adapter {
	return NewHTTPJSONRPCAdapter(provider.KindNear, endpoints, auth, secret, nil)
}
