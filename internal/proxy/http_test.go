package proxy

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/synnergy-network/rpc-gateway/internal/apperr"
	"github.com/synnergy-network/rpc-gateway/internal/metrics"
	"github.com/synnergy-network/rpc-gateway/internal/provider"
)

func TestServeHTTPMissingQueryParams(t *testing.T) {
	e, _ := newTestEngine(nil, nil)
	req := httptest.NewRequest(http.MethodPost, "/v1", strings.NewReader(`{}`))
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for missing projectId/chainId, got %d", rec.Code)
	}
}

func TestServeHTTPRejectsOnAuthFailure(t *testing.T) {
	e, _ := newTestEngine(nil, nil)
	e.Auth = &fakeAuth{err: apperr.New(apperr.ReasonUnauthorized, "authentication", "nope")}
	req := httptest.NewRequest(http.MethodPost, "/v1?projectId=p1&chainId=eip155:1", strings.NewReader(`{}`))
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
	var body errorBody
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("expected a JSON error body: %v", err)
	}
	if body.Status != "FAILED" {
		t.Fatalf("expected status=FAILED, got %+v", body)
	}
}

func TestServeHTTPRejectsOnRateLimit(t *testing.T) {
	e, _ := newTestEngine(nil, nil)
	e.RateLimit = &fakeRateLimit{err: apperr.New(apperr.ReasonRateLimited, "throttled", "slow down")}
	req := httptest.NewRequest(http.MethodPost, "/v1?projectId=p1&chainId=eip155:1", strings.NewReader(`{}`))
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", rec.Code)
	}
}

func TestServeHTTPEmptyBodyRejected(t *testing.T) {
	e, _ := newTestEngine(nil, nil)
	req := httptest.NewRequest(http.MethodPost, "/v1?projectId=p1&chainId=eip155:1", strings.NewReader(``))
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for empty body, got %d", rec.Code)
	}
}

func TestServeHTTPHappyPathPassesBodyThrough(t *testing.T) {
	a1 := &fakeAdapter{kind: "a1", resp: &provider.Response{StatusCode: 200, Body: []byte(`{"result":"0x1"}`)}}
	e, _ := newTestEngine([]ProviderCandidate{{Kind: "a1", Adapter: a1}}, nil)
	e.Metrics = metrics.New()

	req := httptest.NewRequest(http.MethodPost, "/v1?projectId=p1&chainId=eip155:1", strings.NewReader(`{"jsonrpc":"2.0","method":"eth_chainId","id":1}`))
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d body=%s", rec.Code, rec.Body.String())
	}
	if rec.Body.String() != `{"result":"0x1"}` {
		t.Fatalf("expected the adapter's exact bytes passed through, got %q", rec.Body.String())
	}
}
