package adapters

import "github.com/synnergy-network/rpc-gateway/internal/provider"

// defaultTronRoutes maps the JSON-RPC method names wallet clients issue
// against Tron to TronGrid's REST paths (spec §4.2's worked example).
var defaultTronRoutes = []RESTRoute{
	{Method: "tron_broadcastTransaction", Verb: "POST", Path: "/wallet/broadcasttransaction"},
	{Method: "tron_getAccount", Verb: "POST", Path: "/wallet/getaccount"},
	{Method: "tron_getNowBlock", Verb: "POST", Path: "/wallet/getnowblock"},
	{Method: "tron_getTransactionById", Verb: "POST", Path: "/wallet/gettransactionbyid"},
}

// NewTronAdapter builds the TronGrid adapter. TronGrid's API is REST, not
// JSON-RPC, so it goes through the REST-bridge with the "TRON-PRO-API-KEY"
// header TronGrid expects in place of "Authorization".
func NewTronAdapter(endpoints []ChainEndpoint, apiKey string) provider.Adapter {
	return NewRESTBridgeAdapter(provider.KindTronGrid, endpoints, defaultTronRoutes, AuthBearerHeader, apiKey, "TRON-PRO-API-KEY")
}
