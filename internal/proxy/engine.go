// Package proxy implements C6, the request pipeline: authorization,
// rate-limiting, provider selection, the upstream call with retry and
// failover, rate-limit-signal normalization, and response pass-through,
// for both plain HTTP and WebSocket-upgraded requests.
package proxy

import (
	"context"
	"crypto/subtle"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/synnergy-network/rpc-gateway/internal/apperr"
	"github.com/synnergy-network/rpc-gateway/internal/caip2"
	"github.com/synnergy-network/rpc-gateway/internal/jsonrpc"
	"github.com/synnergy-network/rpc-gateway/internal/metrics"
	"github.com/synnergy-network/rpc-gateway/internal/projectauth"
	"github.com/synnergy-network/rpc-gateway/internal/provider"
	"github.com/synnergy-network/rpc-gateway/internal/providerregistry"
)

// RPCMaxRetries is the default number of distinct candidates the engine
// visits before giving up (spec §4.6, §9 "leave it configurable but
// default to 3").
const RPCMaxRetries = 3

// ProviderCandidate is an alias for C3's selection result, so this
// package never has to convert between equivalent struct types.
type ProviderCandidate = providerregistry.Candidate

// ProviderRegistry is the narrow view of C3 the engine depends on.
type ProviderRegistry interface {
	CandidatesFor(chain caip2.ID, max int) ([]ProviderCandidate, error)
	AdapterByID(kind provider.Kind) (ProviderCandidate, bool)
	RecordOutcome(kind provider.Kind, chain caip2.ID, outcome provider.Outcome, httpStatus int)
}

// Authorizer is the narrow view of C4 the engine depends on.
type Authorizer interface {
	Validate(ctx context.Context, projectID string) (projectauth.ProjectData, error)
}

// RateLimiter is the narrow view of C5 the engine depends on.
type RateLimiter interface {
	Check(ctx context.Context, route, clientIP string) error
}

// AnalyticsEmitter is the narrow view of C8's emitter the engine depends
// on.
type AnalyticsEmitter interface {
	Emit(ev metrics.Event)
}

// Engine is C6.
type Engine struct {
	Providers        ProviderRegistry
	Auth             Authorizer
	RateLimit        RateLimiter
	Metrics          *metrics.Collectors
	Analytics        AnalyticsEmitter
	TestingProjectID string // constant-time compared against the request's project id when a providerId override is present
	MaxRetries       int
	UpstreamTimeout  time.Duration
	Log              *logrus.Logger
}

// Request is the engine's input, already parsed from either an HTTP
// request (http.go) or constructed in-process by the self-transport
// (selftransport package).
type Request struct {
	Ctx             RequestContext
	Method          string
	Headers         http.Header
	Body            []byte
	HTTPMethod      string // the verb the client used on /v1, forwarded as a hint to REST-shaped adapters
}

func (e *Engine) maxRetries() int {
	if e.MaxRetries > 0 {
		return e.MaxRetries
	}
	return RPCMaxRetries
}

func (e *Engine) logger() *logrus.Logger {
	if e.Log != nil {
		return e.Log
	}
	return logrus.StandardLogger()
}

// RPCCall executes the pipeline against an already-authorized, already
// rate-limit-checked request: provider selection, the retry loop, outcome
// recording, and analytics emission. HTTP-facing callers and the
// self-transport both funnel through this one method, so every outbound
// interaction shares one routing/observability layer (spec §1, §9).
func (e *Engine) RPCCall(ctx context.Context, req Request) (*provider.Response, error) {
	chain, err := caip2.Parse(req.Ctx.ChainID)
	if err != nil {
		return nil, apperr.Wrap(apperr.ReasonInvalidInput, "chainId", "chainId is not a valid CAIP-2 identifier", err)
	}

	candidates, err := e.selectCandidates(chain, req.Ctx)
	if err != nil {
		return nil, err
	}

	log := e.logger().WithFields(logrus.Fields{
		"request_id": req.Ctx.RequestID,
		"project_id": req.Ctx.ProjectID,
		"chain_id":   req.Ctx.ChainID,
	})

	e.Metrics.RPCCallsTotal.WithLabelValues(req.Ctx.ChainID).Inc()

	var lastErr error
	for i, cand := range candidates {
		resp, callErr := e.callOne(ctx, chain, req, cand, log)
		if callErr != nil {
			e.Providers.RecordOutcome(cand.Kind, chain, provider.OutcomeTransportError, 0)
			e.Metrics.RPCFailures.WithLabelValues(req.Ctx.ChainID, "transport_error").Inc()
			lastErr = callErr
			// A hard transport error still counts as a retry step, but
			// only the provider-override path limits itself to one
			// attempt (spec §4.6 "single attempt, no retries").
			if req.Ctx.ProviderOverride != "" {
				return nil, callErr
			}
			continue
		}

		if cand.Adapter.IsRateLimited(resp) {
			resp.StatusCode = http.StatusServiceUnavailable
		}

		if resp.StatusCode == http.StatusServiceUnavailable {
			e.Providers.RecordOutcome(cand.Kind, chain, provider.OutcomeRateLimited, resp.StatusCode)
			e.Metrics.HTTPStatus.WithLabelValues(string(cand.Kind), "503").Inc()
			log.WithField("provider", cand.Kind).Debug("provider returned 503, trying next candidate")
			if req.Ctx.ProviderOverride != "" {
				return resp, nil
			}
			continue
		}

		outcome := provider.OutcomeSuccess
		if resp.StatusCode >= 400 {
			outcome = provider.OutcomeHTTPError
		}
		e.Providers.RecordOutcome(cand.Kind, chain, outcome, resp.StatusCode)
		e.Metrics.HTTPStatus.WithLabelValues(string(cand.Kind), statusLabel(resp.StatusCode)).Inc()
		e.Metrics.RPCRetries.WithLabelValues(req.Ctx.ChainID, retryLabel(i)).Inc()
		e.emitAnalytics(req, cand.Kind)
		return resp, nil
	}

	if lastErr != nil {
		return nil, lastErr
	}
	e.Metrics.RPCFailures.WithLabelValues(req.Ctx.ChainID, "chain_temporarily_unavailable").Inc()
	e.Metrics.RPCRetries.WithLabelValues(req.Ctx.ChainID, retryLabel(e.maxRetries())).Inc()
	return nil, apperr.New(apperr.ReasonChainTemporarilyUnavailable, "chainId", "all providers are temporarily unavailable")
}

// selectCandidates implements the provider-override testing path and the
// default weighted candidate loop of spec §4.6.
func (e *Engine) selectCandidates(chain caip2.ID, rc RequestContext) ([]ProviderCandidate, error) {
	if rc.ProviderOverride == "" {
		return e.Providers.CandidatesFor(chain, e.maxRetries())
	}

	if e.TestingProjectID == "" || subtle.ConstantTimeCompare([]byte(e.TestingProjectID), []byte(rc.ProjectID)) != 1 {
		return nil, apperr.New(apperr.ReasonInvalidInput, "providerId",
			"providerId may only be set by the configured testing project")
	}
	cand, ok := e.Providers.AdapterByID(provider.Kind(rc.ProviderOverride))
	if !ok {
		return nil, apperr.New(apperr.ReasonUnsupportedChain, "providerId", "unknown provider id")
	}
	if !cand.Adapter.SupportsChain(chain) {
		return nil, apperr.New(apperr.ReasonUnsupportedChain, "chainId", "provider does not support this chain")
	}
	return []ProviderCandidate{cand}, nil
}

func (e *Engine) callOne(ctx context.Context, chain caip2.ID, req Request, cand ProviderCandidate, log *logrus.Entry) (*provider.Response, error) {
	timeout := e.UpstreamTimeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	callCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	start := time.Now()
	resp, err := cand.Adapter.Proxy(callCtx, chain, req.HTTPMethod, forwardableHeaders(req.Ctx), req.Body)
	e.Metrics.UpstreamLatencySeconds.WithLabelValues(string(cand.Kind)).Observe(time.Since(start).Seconds())
	if err != nil {
		log.WithField("provider", cand.Kind).WithError(err).Warn("upstream call failed")
		return nil, err
	}
	return resp, nil
}

// forwardableHeaders implements spec §4.6 "Header hygiene": Authorization
// from the client is never forwarded; Content-Type is the adapter's to
// set; request-id/SDK/origin are for logging/analytics, not upstream.
func forwardableHeaders(rc RequestContext) http.Header {
	out := make(http.Header)
	for k, v := range rc.Headers {
		switch http.CanonicalHeaderKey(k) {
		case "Authorization", "Content-Type", "X-Request-Id", "X-Sdk-Version", "Origin":
			continue
		default:
			out[k] = v
		}
	}
	return out
}

func (e *Engine) emitAnalytics(req Request, kind provider.Kind) {
	if e.Analytics == nil {
		return
	}
	rpcReq, ok := jsonrpc.ParseRequest(req.Body)
	if !ok {
		return
	}
	e.Analytics.Emit(metrics.Event{
		ProjectID:    req.Ctx.ProjectID,
		ChainID:      req.Ctx.ChainID,
		Method:       rpcReq.Method,
		SourceTag:    req.Ctx.SourceTag,
		ProviderKind: string(kind),
		Origin:       req.Ctx.Origin,
		SDKInfo:      req.Ctx.SDKInfo,
		RequestID:    req.Ctx.RequestID,
	})
}

func statusLabel(code int) string {
	switch {
	case code >= 200 && code < 300:
		return "2xx"
	case code >= 400 && code < 500:
		return "4xx"
	case code >= 500:
		return "5xx"
	default:
		return "other"
	}
}

func retryLabel(n int) string {
	if n < 0 {
		n = 0
	}
	digits := []string{"0", "1", "2", "3", "4", "5", "6", "7", "8", "9"}
	if n < len(digits) {
		return digits[n]
	}
	return "many"
}
