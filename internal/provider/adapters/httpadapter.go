// Package adapters contains one file per upstream provider family, each
// owning its URL template, credential, and HTTP client as specified in
// spec §4.2.
package adapters

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/synnergy-network/rpc-gateway/internal/apperr"
	"github.com/synnergy-network/rpc-gateway/internal/caip2"
	"github.com/synnergy-network/rpc-gateway/internal/provider"
)

// ChainEndpoint binds one CAIP-2 chain to the upstream URL that serves it.
type ChainEndpoint struct {
	Chain caip2.ID
	URL   string
}

// AuthStyle selects how an adapter attaches its credential.
type AuthStyle int

const (
	AuthNone AuthStyle = iota
	AuthBearerHeader
	AuthBasicHeader
	AuthEmbeddedInURL
)

// httpJSONRPCAdapter is a generic JSON-RPC-over-HTTPS adapter parametrized
// by a per-chain URL template and a single credential, covering the
// Infura/Pokt-shaped upstreams named in spec §1 (grounded on
// original_source/src/providers/infura.rs and pokt.rs).
type httpJSONRPCAdapter struct {
	kind      provider.Kind
	endpoints map[caip2.ID]string
	auth      AuthStyle
	secret    string
	client    *http.Client
}

// NewHTTPJSONRPCAdapter builds a generic JSON-RPC adapter. endpoints are
// fixed at construction, matching spec §4.2's "templates are fixed at
// construction"; client should be a shared, pooled *http.Client configured
// with a per-host connection limit (spec §5 "Shared-resource policy").
func NewHTTPJSONRPCAdapter(kind provider.Kind, endpoints []ChainEndpoint, auth AuthStyle, secret string, client *http.Client) provider.Adapter {
	m := make(map[caip2.ID]string, len(endpoints))
	for _, e := range endpoints {
		m[e.Chain] = e.URL
	}
	if client == nil {
		client = defaultHTTPClient()
	}
	return &httpJSONRPCAdapter{kind: kind, endpoints: m, auth: auth, secret: secret, client: client}
}

func defaultHTTPClient() *http.Client {
	return &http.Client{
		Timeout: 8 * time.Second,
		Transport: &http.Transport{
			MaxIdleConnsPerHost: 32,
			MaxConnsPerHost:     64,
			IdleConnTimeout:     90 * time.Second,
		},
	}
}

func (a *httpJSONRPCAdapter) Kind() provider.Kind { return a.kind }

func (a *httpJSONRPCAdapter) SupportsChain(chain caip2.ID) bool {
	_, ok := a.endpoints[chain]
	return ok
}

func (a *httpJSONRPCAdapter) SupportedChains() []caip2.ID {
	out := make([]caip2.ID, 0, len(a.endpoints))
	for c := range a.endpoints {
		out = append(out, c)
	}
	return out
}

func (a *httpJSONRPCAdapter) url(chain caip2.ID) (string, error) {
	url, ok := a.endpoints[chain]
	if !ok {
		return "", fmt.Errorf("adapter %s: chain %s not supported", a.kind, chain)
	}
	if a.auth == AuthEmbeddedInURL {
		url = strings.Replace(url, "{secret}", a.secret, 1)
	}
	return url, nil
}

func (a *httpJSONRPCAdapter) Proxy(ctx context.Context, chain caip2.ID, method string, headers http.Header, body []byte) (*provider.Response, error) {
	url, err := a.url(chain)
	if err != nil {
		return nil, apperr.New(apperr.ReasonUnsupportedChain, "chainId", err.Error())
	}
	if method == "" {
		method = http.MethodPost
	}
	req, err := http.NewRequestWithContext(ctx, method, url, bytes.NewReader(body))
	if err != nil {
		return nil, apperr.Wrap(apperr.ReasonTransportError, "upstream", "failed to build upstream request", err)
	}
	req.Header.Set("Content-Type", "application/json")
	switch a.auth {
	case AuthBearerHeader:
		req.Header.Set("Authorization", "Bearer "+a.secret)
	case AuthBasicHeader:
		req.SetBasicAuth(a.kindString(), a.secret)
	}

	resp, err := a.client.Do(req)
	if err != nil {
		return nil, apperr.Wrap(apperr.ReasonTransportError, "upstream", "upstream call failed", err)
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, apperr.Wrap(apperr.ReasonTransportError, "upstream", "failed reading upstream response", err)
	}
	out := &provider.Response{StatusCode: resp.StatusCode, Header: http.Header{"Content-Type": []string{"application/json"}}, Body: data}
	return out, nil
}

func (a *httpJSONRPCAdapter) kindString() string { return string(a.kind) }

// IsRateLimited inspects status and, for a 200 body, a best-effort
// JSON-RPC error-code probe: several upstreams signal throttling only via
// the JSON-RPC error code (e.g. -32068) rather than HTTP status (spec §9
// Open Questions). This never mutates resp.
func (a *httpJSONRPCAdapter) IsRateLimited(resp *provider.Response) bool {
	return IsRateLimitedGeneric(resp)
}

// IsRateLimitedGeneric implements the shared throttle-detection heuristic
// used by every JSON-RPC-shaped adapter in this package: an HTTP 429, or a
// 200 whose body carries one of the known rate-limit JSON-RPC error codes.
func IsRateLimitedGeneric(resp *provider.Response) bool {
	if resp == nil {
		return false
	}
	if resp.StatusCode == http.StatusTooManyRequests {
		return true
	}
	if resp.StatusCode != http.StatusOK {
		return false
	}
	rpcResp, ok := parseErrorCode(resp.Body)
	if !ok {
		return false
	}
	switch rpcResp {
	case -32068, -32005, -32029:
		return true
	default:
		return false
	}
}

