// Package selftransport implements C7: a virtual JSON-RPC transport that
// lets higher-level handlers (identity resolution, wallet-service RPC,
// POS build/check) reach a chain through the proxy engine without opening
// a real loopback connection. It is the only permitted way for handlers
// to reach providers (spec §4.7).
package selftransport

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/synnergy-network/rpc-gateway/internal/jsonrpc"
	"github.com/synnergy-network/rpc-gateway/internal/proxy"
)

// CallContext is the synthetic chain/project/source context a handler
// supplies for a self-originated call (spec §4.7). It is a separate type
// from internal/proxy.RequestContext, not an alias, so internal/handlers
// can depend on this package alone and never on internal/proxy.
type CallContext struct {
	ProjectID string
	ChainID   string
	SourceTag string
	RequestID string
	Headers   http.Header
}

// Transport is the narrow surface internal/handlers is allowed to depend
// on; it never imports internal/proxy directly.
type Transport interface {
	Call(ctx context.Context, req jsonrpc.Request, cc CallContext) (jsonrpc.Response, error)
}

// selfTransport is the concrete Transport backed directly by an Engine's
// rpc_call (spec §4.7: "Directly invokes C6's rpc_call(...) in-process"),
// eliminating a loopback network hop while keeping one observability and
// failover layer in play for inbound and self-originated traffic alike.
type selfTransport struct {
	engine *proxy.Engine
}

// New builds a Transport backed by engine.
func New(engine *proxy.Engine) Transport {
	return &selfTransport{engine: engine}
}

// Call issues req as a synthetic JSON-RPC call through the proxy engine.
func (t *selfTransport) Call(ctx context.Context, req jsonrpc.Request, cc CallContext) (jsonrpc.Response, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return jsonrpc.Response{}, fmt.Errorf("selftransport: marshaling request: %w", err)
	}

	headers := cc.Headers
	if headers == nil {
		headers = http.Header{}
	}
	resp, err := t.engine.RPCCall(ctx, proxy.Request{
		Ctx: proxy.RequestContext{
			ProjectID: cc.ProjectID,
			ChainID:   cc.ChainID,
			SourceTag: cc.SourceTag,
			RequestID: cc.RequestID,
			Headers:   headers,
		},
		Headers:    headers,
		Body:       body,
		HTTPMethod: http.MethodPost,
	})
	if err != nil {
		return jsonrpc.Response{}, err
	}

	rpcResp, ok := jsonrpc.ParseResponse(resp.Body)
	if !ok {
		return jsonrpc.Response{}, fmt.Errorf("selftransport: upstream response did not parse as JSON-RPC")
	}
	return rpcResp, nil
}
