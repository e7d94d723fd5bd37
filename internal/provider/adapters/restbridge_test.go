package adapters

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/synnergy-network/rpc-gateway/internal/caip2"
	"github.com/synnergy-network/rpc-gateway/internal/provider"
)

func TestRESTBridgeAdapterMapsMethodToPath(t *testing.T) {
	tron := caip2.MustParse("tron:0x2b6653dc")
	var gotPath, gotMethod string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotMethod = r.Method
		if got := r.Header.Get("TRON-PRO-API-KEY"); got != "apikey" {
			t.Errorf("expected api key header, got %q", got)
		}
		w.WriteHeader(200)
		w.Write([]byte(`{"txID":"abc"}`))
	}))
	defer srv.Close()

	a := NewRESTBridgeAdapter(
		provider.KindTronGrid,
		[]ChainEndpoint{{Chain: tron, URL: srv.URL}},
		[]RESTRoute{{Method: "tron_broadcastTransaction", Verb: http.MethodPost, Path: "/wallet/broadcasttransaction"}},
		AuthBearerHeader, "apikey", "TRON-PRO-API-KEY",
	)

	body := []byte(`{"jsonrpc":"2.0","id":1,"method":"tron_broadcastTransaction","params":[{"raw":"deadbeef"}]}`)
	resp, err := a.Proxy(context.Background(), tron, "", nil, body)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotPath != "/wallet/broadcasttransaction" || gotMethod != http.MethodPost {
		t.Fatalf("unexpected upstream call path=%q method=%q", gotPath, gotMethod)
	}
	if string(resp.Body) != `{"result":{"txID":"abc"}}` {
		t.Fatalf("unexpected wrapped body: %s", resp.Body)
	}
}

func TestRESTBridgeAdapterUnmappedMethod(t *testing.T) {
	tron := caip2.MustParse("tron:0x2b6653dc")
	a := NewRESTBridgeAdapter(provider.KindTronGrid, []ChainEndpoint{{Chain: tron, URL: "http://example.invalid"}}, nil, AuthNone, "", "")
	body := []byte(`{"jsonrpc":"2.0","id":1,"method":"tron_unknownMethod","params":[]}`)
	if _, err := a.Proxy(context.Background(), tron, "", nil, body); err == nil {
		t.Fatal("expected an error for an unmapped method")
	}
}
