// Package handlers holds the illustrative higher-level HTTP surface that
// rides on top of the proxy engine via the self-transport only; its one
// handler is the identity lookup below. It never imports
// internal/proxy directly — everything it needs from C6 comes through
// the selftransport.Transport interface (spec §4.7).
package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"github.com/synnergy-network/rpc-gateway/internal/jsonrpc"
	"github.com/synnergy-network/rpc-gateway/internal/metrics"
	"github.com/synnergy-network/rpc-gateway/internal/selftransport"
)

// IdentityHandler resolves a display name for an address by issuing a
// self-transport JSON-RPC call, grounded on
// original_source/src/handlers/identity.rs's pattern of calling back into
// the proxy stack rather than dialing a resolver directly.
type IdentityHandler struct {
	Transport selftransport.Transport
	ChainID   string // the chain ENS-style resolution runs against, e.g. "eip155:1"
	Metrics   *metrics.Collectors
	Log       *logrus.Logger
}

// RegisterRoutes adds this handler's route to r, satisfying
// httpapi.RouteRegistrar without httpapi having to know this package
// exists at compile time beyond the interface.
func (h *IdentityHandler) RegisterRoutes(r *mux.Router) {
	r.Handle("/v1/identity/{address}", h).Methods(http.MethodGet)
}

type identityResponse struct {
	Address string `json:"address"`
	Name    string `json:"name,omitempty"`
}

type identityErrorBody struct {
	Status  string              `json:"status"`
	Reasons []identityFieldReason `json:"reasons"`
}

type identityFieldReason struct {
	Field       string `json:"field"`
	Description string `json:"description"`
}

func (h *IdentityHandler) writeError(w http.ResponseWriter, status int, field, description string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(identityErrorBody{
		Status:  "FAILED",
		Reasons: []identityFieldReason{{Field: field, Description: description}},
	})
}

// ServeHTTP handles GET /v1/identity/{address}.
func (h *IdentityHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	address := mux.Vars(r)["address"]
	if address == "" {
		h.writeError(w, http.StatusBadRequest, "address", "address is required")
		return
	}

	params, err := json.Marshal([]string{address})
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "address", "address is required")
		return
	}
	req := jsonrpc.Request{
		JSONRPC: "2.0",
		Method:  "eth_getEnsName",
		Params:  params,
	}
	cc := selftransport.CallContext{
		ProjectID: r.URL.Query().Get("projectId"),
		ChainID:   h.ChainID,
		SourceTag: "identity",
		RequestID: r.Header.Get("X-Request-Id"),
		Headers:   r.Header,
	}

	if h.Metrics != nil {
		h.Metrics.IdentityLookups.Inc()
	}

	resp, err := h.Transport.Call(r.Context(), req, cc)
	if err != nil {
		h.logger().WithError(err).Warn("identity lookup failed")
		h.writeError(w, http.StatusBadGateway, "address", "lookup failed")
		return
	}
	if resp.Error != nil {
		h.writeError(w, http.StatusBadGateway, "address", resp.Error.Message)
		return
	}

	var name string
	_ = json.Unmarshal(resp.Result, &name)

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(identityResponse{Address: address, Name: name})
}

func (h *IdentityHandler) logger() *logrus.Logger {
	if h.Log != nil {
		return h.Log
	}
	return logrus.StandardLogger()
}
