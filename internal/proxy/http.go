package proxy

import (
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/synnergy-network/rpc-gateway/internal/apperr"
)

// maxBodyBytes bounds the request body the engine will read before giving
// up; opaque JSON-RPC payloads are small, and an unbounded read here would
// let one client exhaust memory.
const maxBodyBytes = 1 << 20

// errorBody is the uniform shape every non-2xx JSON response carries
// (spec §7 "User-visible behavior").
type errorBody struct {
	Status  string              `json:"status"`
	Reasons []apperr.FieldReason `json:"reasons"`
}

// ServeHTTP implements the public `/v1` surface: steps 1-3 of the pipeline
// (parse query, validate project, check rate limit), then either upgrades
// to WebSocket or delegates to RPCCall and writes the response bytes back
// unchanged.
func (e *Engine) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	rc, err := e.parseRequestContext(r)
	if err != nil {
		e.writeError(w, err)
		return
	}

	if _, err := e.Auth.Validate(r.Context(), rc.ProjectID); err != nil {
		e.writeError(w, err)
		return
	}

	rlStart := time.Now()
	rlErr := e.RateLimit.Check(r.Context(), "proxy", rc.ClientIP)
	e.Metrics.RateLimitCheckSeconds.Observe(time.Since(rlStart).Seconds())
	if rlErr != nil {
		e.Metrics.RateLimitedResponses.WithLabelValues("proxy").Inc()
		e.writeError(w, rlErr)
		return
	}

	if isWebsocketUpgrade(r) {
		e.serveWebsocket(w, r, rc)
		return
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes+1))
	if err != nil {
		e.writeError(w, apperr.Wrap(apperr.ReasonInvalidInput, "body", "failed to read request body", err))
		return
	}
	if len(body) == 0 {
		e.writeError(w, apperr.New(apperr.ReasonInvalidInput, "body", "request body must not be empty"))
		return
	}
	if len(body) > maxBodyBytes {
		e.writeError(w, apperr.New(apperr.ReasonInvalidInput, "body", "request body too large"))
		return
	}

	rpcReq := Request{Ctx: rc, Headers: r.Header, Body: body, HTTPMethod: r.Method}
	resp, err := e.RPCCall(r.Context(), rpcReq)
	e.Metrics.HandlerLatencySeconds.WithLabelValues("v1").Observe(time.Since(start).Seconds())
	if err != nil {
		e.writeError(w, err)
		return
	}

	for k, vals := range resp.Header {
		for _, v := range vals {
			w.Header().Add(k, v)
		}
	}
	w.WriteHeader(resp.StatusCode)
	_, _ = w.Write(resp.Body)
}

// parseRequestContext implements pipeline step 1: query parameters into
// the request context, rejecting malformed inputs with 400.
func (e *Engine) parseRequestContext(r *http.Request) (RequestContext, error) {
	q := r.URL.Query()
	projectID := q.Get("projectId")
	chainID := q.Get("chainId")
	if projectID == "" {
		return RequestContext{}, apperr.New(apperr.ReasonInvalidInput, "projectId", "projectId is required")
	}
	if chainID == "" {
		return RequestContext{}, apperr.New(apperr.ReasonInvalidInput, "chainId", "chainId is required")
	}

	reqID := r.Header.Get("X-Request-Id")
	if reqID == "" {
		reqID = uuid.NewString()
	}

	return RequestContext{
		ProjectID:        projectID,
		ChainID:          chainID,
		ProviderOverride: q.Get("providerId"),
		ClientIP:         clientIP(r),
		Origin:           r.Header.Get("Origin"),
		Headers:          r.Header,
		SourceTag:        q.Get("source"),
		SDKInfo:          r.Header.Get("X-Sdk-Version"),
		RequestID:        reqID,
	}, nil
}

func clientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		return fwd
	}
	return r.RemoteAddr
}

func isWebsocketUpgrade(r *http.Request) bool {
	return r.Header.Get("Upgrade") == "websocket"
}

func (e *Engine) writeError(w http.ResponseWriter, err error) {
	ae, ok := apperr.As(err)
	if !ok {
		ae = apperr.Wrap(apperr.ReasonInternal, "internal", "internal error", err)
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(ae.Status())
	_ = json.NewEncoder(w).Encode(errorBody{Status: "FAILED", Reasons: ae.Reasons})
}
