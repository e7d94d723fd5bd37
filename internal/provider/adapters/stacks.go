package adapters

import "github.com/synnergy-network/rpc-gateway/internal/provider"

// defaultStacksRoutes maps the JSON-RPC method names wallet clients issue
// against Stacks to Hiro's REST paths.
var defaultStacksRoutes = []RESTRoute{
	{Method: "stacks_broadcastTransaction", Verb: "POST", Path: "/v2/transactions"},
	{Method: "stacks_getAccount", Verb: "GET", Path: "/v2/accounts"},
	{Method: "stacks_getInfo", Verb: "GET", Path: "/v2/info"},
}

// NewStacksAdapter builds the Hiro adapter. Hiro's Stacks API is REST,
// authenticated with a bearer API key, so it goes through the REST
// bridge rather than the generic JSON-RPC shim.
func NewStacksAdapter(endpoints []ChainEndpoint, apiKey string) provider.Adapter {
	return NewRESTBridgeAdapter(provider.KindHiro, endpoints, defaultStacksRoutes, AuthBearerHeader, apiKey, "")
}
