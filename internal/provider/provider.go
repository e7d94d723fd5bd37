// Package provider defines the uniform contract every upstream blockchain
// node family implements, and the small set of concrete types the proxy
// engine exchanges with adapters.
package provider

import (
	"context"
	"net/http"

	"github.com/synnergy-network/rpc-gateway/internal/caip2"
)

// Kind is the stable tag identifying an upstream adapter family. It is used
// as a metrics label and as the allow-list key for the provider-override
// testing path.
type Kind string

const (
	KindInfuraLike Kind = "infura"
	KindPokt       Kind = "pokt"
	KindSolana     Kind = "solana-rpc"
	KindTronGrid   Kind = "trongrid"
	KindHiro       Kind = "hiro"
	KindZKSync     Kind = "zksync"
	KindBinance    Kind = "binance"
	KindBitcoinRPC Kind = "bitcoin-rpc"
	KindTonCenter  Kind = "toncenter"
	KindSui        Kind = "sui-rpc"
	KindNear       Kind = "near-rpc"
)

// Response is the uniform shape an adapter returns to the proxy engine.
// Body is forwarded byte-for-byte; the engine never re-serializes it.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// Outcome classifies how a single proxy attempt resolved, for C3's weight
// bookkeeping.
type Outcome int

const (
	OutcomeSuccess Outcome = iota
	OutcomeRateLimited
	OutcomeTransportError
	OutcomeHTTPError
)

// Adapter is the uniform contract every upstream family implements. It is
// constructed once at bootstrap and shared by reference across requests;
// implementations must be safe for concurrent use.
type Adapter interface {
	// Kind returns this adapter's stable tag.
	Kind() Kind

	// SupportsChain reports whether chain is one of this adapter's
	// configured upstreams.
	SupportsChain(chain caip2.ID) bool

	// SupportedChains lists every chain this adapter can serve.
	SupportedChains() []caip2.ID

	// Proxy forwards body to the upstream URL for chain and returns
	// whatever the upstream returned. It never mutates body; the engine
	// rewrites the status of any response IsRateLimited flags to the
	// uniform 503 rate-limit signal.
	Proxy(ctx context.Context, chain caip2.ID, method string, headers http.Header, body []byte) (*Response, error)

	// IsRateLimited inspects resp for a throttling signal, including
	// upstream-specific JSON-RPC error codes some providers use instead
	// of an HTTP 429/503. It must not mutate resp.
	IsRateLimited(resp *Response) bool
}

// WSAdapter is implemented by adapters that also support WebSocket
// subscription passthrough.
type WSAdapter interface {
	Adapter

	// ProxyWS upgrades r and pipes frames bidirectionally to the
	// upstream until either side closes. It takes ownership of w/r.
	ProxyWS(ctx context.Context, chain caip2.ID, w http.ResponseWriter, r *http.Request) error
}
