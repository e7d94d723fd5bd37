package providerregistry

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/synnergy-network/rpc-gateway/internal/apperr"
	"github.com/synnergy-network/rpc-gateway/internal/caip2"
	"github.com/synnergy-network/rpc-gateway/internal/provider"
)

type fakeAdapter struct {
	kind   provider.Kind
	chains []caip2.ID
}

func (f *fakeAdapter) Kind() provider.Kind              { return f.kind }
func (f *fakeAdapter) SupportedChains() []caip2.ID      { return f.chains }
func (f *fakeAdapter) SupportsChain(c caip2.ID) bool {
	for _, want := range f.chains {
		if want == c {
			return true
		}
	}
	return false
}
func (f *fakeAdapter) Proxy(context.Context, caip2.ID, string, http.Header, []byte) (*provider.Response, error) {
	return &provider.Response{StatusCode: 200}, nil
}
func (f *fakeAdapter) IsRateLimited(*provider.Response) bool { return false }

var eth1 = caip2.MustParse("eip155:1")

func newTestRegistry() *Registry {
	a1 := &fakeAdapter{kind: "a1", chains: []caip2.ID{eth1}}
	a2 := &fakeAdapter{kind: "a2", chains: []caip2.ID{eth1}}
	return New([]provider.Adapter{a1, a2}, WithCooldown(time.Millisecond, time.Second))
}

func TestCandidatesForUnsupportedChain(t *testing.T) {
	r := newTestRegistry()
	_, err := r.CandidatesFor(caip2.MustParse("eip155:999999"), 3)
	ae, ok := apperr.As(err)
	if !ok || ae.Reason != apperr.ReasonUnsupportedChain {
		t.Fatalf("expected UnsupportedChain, got %v", err)
	}
}

func TestCandidatesForSkipsCoolingDown(t *testing.T) {
	r := newTestRegistry()
	r.RecordOutcome("a1", eth1, provider.OutcomeRateLimited, 0)
	// a1 is now cooling down; only a2 should be eligible immediately.
	cands, err := r.CandidatesFor(eth1, 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(cands) != 1 || cands[0].Kind != "a2" {
		t.Fatalf("expected only a2 eligible, got %+v", cands)
	}
}

func TestCandidatesForAllCooledDown(t *testing.T) {
	r := newTestRegistry()
	r.RecordOutcome("a1", eth1, provider.OutcomeTransportError, 0)
	r.RecordOutcome("a2", eth1, provider.OutcomeTransportError, 0)
	_, err := r.CandidatesFor(eth1, 3)
	ae, ok := apperr.As(err)
	if !ok || ae.Reason != apperr.ReasonChainTemporarilyUnavailable {
		t.Fatalf("expected ChainTemporarilyUnavailable, got %v", err)
	}
}

func TestRecordOutcomeSuccessClearsFailures(t *testing.T) {
	r := newTestRegistry()
	r.RecordOutcome("a1", eth1, provider.OutcomeRateLimited, 0)
	r.RecordOutcome("a1", eth1, provider.OutcomeSuccess, 200)
	time.Sleep(2 * time.Millisecond)
	cands, err := r.CandidatesFor(eth1, 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(cands) != 2 {
		t.Fatalf("expected both adapters eligible after success, got %+v", cands)
	}
}

func TestRecordOutcomeClientFaultNoChange(t *testing.T) {
	r := newTestRegistry()
	r.RecordOutcome("a1", eth1, provider.OutcomeHTTPError, 400)
	cands, err := r.CandidatesFor(eth1, 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(cands) != 2 {
		t.Fatalf("expected no weight change on 4xx, got %+v", cands)
	}
}

func TestAdapterByID(t *testing.T) {
	r := newTestRegistry()
	c, ok := r.AdapterByID("a2")
	if !ok || c.Kind != "a2" {
		t.Fatalf("expected to find a2, got %+v ok=%v", c, ok)
	}
	if _, ok := r.AdapterByID("missing"); ok {
		t.Fatal("expected missing kind to be absent")
	}
}
