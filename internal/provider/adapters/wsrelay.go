package adapters

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/synnergy-network/rpc-gateway/internal/apperr"
	"github.com/synnergy-network/rpc-gateway/internal/caip2"
	"github.com/synnergy-network/rpc-gateway/internal/provider"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	CheckOrigin:     func(*http.Request) bool { return true },
}

// wsCapableAdapter wraps an existing Adapter with WebSocket subscription
// passthrough for upstreams that support it (spec §4.2 "ws_proxy").
type wsCapableAdapter struct {
	provider.Adapter
	wsEndpoints map[caip2.ID]string
	dialer      *websocket.Dialer
}

// WithWebSocket augments base with a WebSocket frame pump for the given
// per-chain upstream endpoints.
func WithWebSocket(base provider.Adapter, wsEndpoints []ChainEndpoint) provider.WSAdapter {
	m := make(map[caip2.ID]string, len(wsEndpoints))
	for _, e := range wsEndpoints {
		m[e.Chain] = e.URL
	}
	return &wsCapableAdapter{Adapter: base, wsEndpoints: m, dialer: websocket.DefaultDialer}
}

// ProxyWS upgrades the client connection, opens a matching connection to
// the upstream, and pumps frames bidirectionally until either side closes
// (spec §4.6 "WebSocket path"). Each direction runs as an independent
// goroutine; an error in one closes both.
func (a *wsCapableAdapter) ProxyWS(ctx context.Context, chain caip2.ID, w http.ResponseWriter, r *http.Request) error {
	upstreamURL, ok := a.wsEndpoints[chain]
	if !ok {
		return apperr.New(apperr.ReasonUnsupportedChain, "chainId", "adapter has no websocket endpoint for this chain")
	}

	clientConn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return apperr.Wrap(apperr.ReasonTransportError, "upgrade", "failed to upgrade client connection", err)
	}
	defer clientConn.Close()

	upstreamConn, _, err := a.dialer.DialContext(ctx, upstreamURL, nil)
	if err != nil {
		closeWithCode(clientConn, websocket.CloseInternalServerErr, "upstream unreachable")
		return apperr.Wrap(apperr.ReasonTransportError, "upstream", "failed to dial upstream websocket", err)
	}
	defer upstreamConn.Close()

	var once sync.Once
	done := make(chan struct{})
	closeBoth := func() {
		once.Do(func() { close(done) })
	}

	go pump(upstreamConn, clientConn, closeBoth)
	pump(clientConn, upstreamConn, closeBoth)
	<-done
	return nil
}

// pump copies frames from src to dst until src closes or an error occurs,
// then signals done so the companion pump also unwinds.
func pump(src, dst *websocket.Conn, done func()) {
	defer done()
	for {
		mt, data, err := src.ReadMessage()
		if err != nil {
			code := websocket.CloseInternalServerErr
			if ce, ok := err.(*websocket.CloseError); ok {
				code = remapCloseCode(ce.Code)
			}
			closeWithCode(dst, code, "")
			return
		}
		if err := dst.WriteMessage(mt, data); err != nil {
			return
		}
	}
}

// remapCloseCode implements spec §9: normal closure (1000) and going-away
// (1001) pass through; any other abnormal close from the upstream maps to
// 1011 (internal error) toward the client.
func remapCloseCode(code int) int {
	switch code {
	case websocket.CloseNormalClosure, websocket.CloseGoingAway:
		return code
	default:
		return websocket.CloseInternalServerErr
	}
}

func closeWithCode(conn *websocket.Conn, code int, text string) {
	deadline := time.Now().Add(2 * time.Second)
	msg := websocket.FormatCloseMessage(code, text)
	_ = conn.WriteControl(websocket.CloseMessage, msg, deadline)
}
