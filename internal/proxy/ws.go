package proxy

import (
	"net/http"

	"github.com/synnergy-network/rpc-gateway/internal/apperr"
	"github.com/synnergy-network/rpc-gateway/internal/caip2"
	"github.com/synnergy-network/rpc-gateway/internal/provider"
)

// serveWebsocket implements spec §4.6's "WebSocket path": select the
// candidates (the provider-override path is honored the same way as the
// HTTP path), use the first one that can speak WebSocket, reject if none
// can, then hand the upgrade off to that adapter, which owns the frame
// pump end to end.
func (e *Engine) serveWebsocket(w http.ResponseWriter, r *http.Request, rc RequestContext) {
	chain, err := caip2.Parse(rc.ChainID)
	if err != nil {
		e.writeError(w, apperr.Wrap(apperr.ReasonInvalidInput, "chainId", "chainId is not a valid CAIP-2 identifier", err))
		return
	}

	candidates, err := e.selectCandidates(chain, rc)
	if err != nil {
		e.writeError(w, err)
		return
	}

	var wsAdapter provider.WSAdapter
	var kind provider.Kind
	for _, cand := range candidates {
		if a, ok := cand.Adapter.(provider.WSAdapter); ok {
			wsAdapter = a
			kind = cand.Kind
			break
		}
	}
	if wsAdapter == nil {
		e.writeError(w, apperr.New(apperr.ReasonUnsupportedChain, "chainId", "no websocket-capable provider for this chain"))
		return
	}

	e.Metrics.WebsocketConnections.WithLabelValues(rc.ChainID).Inc()
	if err := wsAdapter.ProxyWS(r.Context(), chain, w, r); err != nil {
		e.Providers.RecordOutcome(kind, chain, provider.OutcomeTransportError, 0)
		e.logger().WithError(err).WithField("provider", kind).Warn("websocket proxy session ended with an error")
		return
	}
	e.Providers.RecordOutcome(kind, chain, provider.OutcomeSuccess, http.StatusOK)
}
