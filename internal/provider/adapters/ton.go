package adapters

import "github.com/synnergy-network/rpc-gateway/internal/provider"

// defaultTonRoutes maps the handful of TON JSON-RPC-shaped method names
// wallet clients issue to TonCenter's REST paths, the same
// envelope-to-REST mapping spec §4.2 describes for Tron/Stacks.
var defaultTonRoutes = []RESTRoute{
	{Method: "ton_sendBoc", Verb: "POST", Path: "/sendBoc"},
	{Method: "ton_getAddressInformation", Verb: "POST", Path: "/getAddressInformation"},
	{Method: "ton_getTransactions", Verb: "POST", Path: "/getTransactions"},
	{Method: "ton_estimateFee", Verb: "POST", Path: "/estimateFee"},
}

// NewTonAdapter builds the TON adapter. TonCenter exposes a REST API
// (one path per operation, not a unified JSON-RPC endpoint), so it reuses
// the REST-bridge adapter with a TON-specific route table instead of the
// generic JSON-RPC shim.
func NewTonAdapter(endpoints []ChainEndpoint, apiKey string) provider.Adapter {
	return NewRESTBridgeAdapter(provider.KindTonCenter, endpoints, defaultTonRoutes, AuthBearerHeader, apiKey, "X-API-Key")
}
