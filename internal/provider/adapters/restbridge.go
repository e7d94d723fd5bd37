package adapters

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/synnergy-network/rpc-gateway/internal/apperr"
	"github.com/synnergy-network/rpc-gateway/internal/caip2"
	"github.com/synnergy-network/rpc-gateway/internal/jsonrpc"
	"github.com/synnergy-network/rpc-gateway/internal/provider"
)

// RESTRoute maps one JSON-RPC method name to a REST verb and path on the
// upstream, per spec §4.2 ("Tron/Stacks-style adapters"):
// tron_broadcastTransaction -> POST /wallet/broadcasttransaction.
type RESTRoute struct {
	Method string
	Verb   string
	Path   string
}

// restBridgeAdapter accepts a JSON-RPC envelope, extracts method and
// positional params, maps them to a REST call against a non-JSON-RPC
// upstream (TronGrid, Hiro/Stacks), and wraps the REST response as
// {"result": ...} so the outer engine remains JSON-RPC-shaped.
type restBridgeAdapter struct {
	kind      provider.Kind
	endpoints map[caip2.ID]string
	routes    map[string]RESTRoute
	auth      AuthStyle
	secret    string
	headerKey string
	client    *http.Client
}

// NewRESTBridgeAdapter builds a REST-shaped adapter. headerKey, when
// auth is AuthBearerHeader, overrides the header name used to carry the
// credential (TronGrid uses "TRON-PRO-API-KEY" rather than
// "Authorization"); on the default "Authorization" header the credential
// is sent as "Bearer <secret>", on any other header it is sent bare.
// AuthBasicHeader always uses the standard Authorization header and
// ignores headerKey.
func NewRESTBridgeAdapter(kind provider.Kind, endpoints []ChainEndpoint, routes []RESTRoute, auth AuthStyle, secret, headerKey string) provider.Adapter {
	m := make(map[caip2.ID]string, len(endpoints))
	for _, e := range endpoints {
		m[e.Chain] = e.URL
	}
	rm := make(map[string]RESTRoute, len(routes))
	for _, r := range routes {
		rm[r.Method] = r
	}
	if headerKey == "" {
		headerKey = "Authorization"
	}
	return &restBridgeAdapter{
		kind: kind, endpoints: m, routes: rm, auth: auth, secret: secret,
		headerKey: headerKey, client: defaultHTTPClient(),
	}
}

func (a *restBridgeAdapter) Kind() provider.Kind { return a.kind }

func (a *restBridgeAdapter) SupportsChain(chain caip2.ID) bool {
	_, ok := a.endpoints[chain]
	return ok
}

func (a *restBridgeAdapter) SupportedChains() []caip2.ID {
	out := make([]caip2.ID, 0, len(a.endpoints))
	for c := range a.endpoints {
		out = append(out, c)
	}
	return out
}

// Proxy ignores the method/headers arguments from the engine (the REST
// verb comes from the route table, keyed by the JSON-RPC method inside
// body) and extracts method+params from the JSON-RPC envelope itself.
func (a *restBridgeAdapter) Proxy(ctx context.Context, chain caip2.ID, _ string, headers http.Header, body []byte) (*provider.Response, error) {
	base, ok := a.endpoints[chain]
	if !ok {
		return nil, apperr.New(apperr.ReasonUnsupportedChain, "chainId",
			fmt.Sprintf("adapter %s does not support %s", a.kind, chain))
	}
	req, ok := jsonrpc.ParseRequest(body)
	if !ok {
		return nil, apperr.New(apperr.ReasonInvalidInput, "body", "body is not a valid JSON-RPC request")
	}
	route, ok := a.routes[req.Method]
	if !ok {
		return nil, apperr.New(apperr.ReasonInvalidInput, "method",
			fmt.Sprintf("method %q has no REST mapping on %s", req.Method, a.kind))
	}

	var params []json.RawMessage
	if len(req.Params) > 0 {
		_ = json.Unmarshal(req.Params, &params)
	}

	url := strings.TrimRight(base, "/") + route.Path
	var payload io.Reader
	if route.Verb != http.MethodGet && len(params) > 0 {
		payload = bytes.NewReader(params[0])
	} else {
		payload = bytes.NewReader(nil)
	}

	httpReq, err := http.NewRequestWithContext(ctx, route.Verb, url, payload)
	if err != nil {
		return nil, apperr.Wrap(apperr.ReasonTransportError, "upstream", "failed to build upstream request", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	switch a.auth {
	case AuthBearerHeader:
		if a.headerKey == "Authorization" {
			httpReq.Header.Set(a.headerKey, "Bearer "+a.secret)
		} else {
			httpReq.Header.Set(a.headerKey, a.secret)
		}
	case AuthBasicHeader:
		httpReq.SetBasicAuth(string(a.kind), a.secret)
	}

	resp, err := a.client.Do(httpReq)
	if err != nil {
		return nil, apperr.Wrap(apperr.ReasonTransportError, "upstream", "upstream call failed", err)
	}
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, apperr.Wrap(apperr.ReasonTransportError, "upstream", "failed reading upstream response", err)
	}

	wrapped := jsonrpc.Wrap(raw)
	return &provider.Response{
		StatusCode: resp.StatusCode,
		Header:     http.Header{"Content-Type": []string{"application/json"}},
		Body:       wrapped,
	}, nil
}

func (a *restBridgeAdapter) IsRateLimited(resp *provider.Response) bool {
	if resp == nil {
		return false
	}
	return resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode == http.StatusServiceUnavailable
}
