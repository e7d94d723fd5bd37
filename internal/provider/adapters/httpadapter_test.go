package adapters

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/synnergy-network/rpc-gateway/internal/caip2"
	"github.com/synnergy-network/rpc-gateway/internal/provider"
)

var eth1 = caip2.MustParse("eip155:1")

func TestHTTPJSONRPCAdapterProxy(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if auth := r.Header.Get("Authorization"); auth != "Bearer secret" {
			t.Errorf("expected bearer auth, got %q", auth)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"jsonrpc":"2.0","id":1,"result":"0x1"}`))
	}))
	defer srv.Close()

	a := NewHTTPJSONRPCAdapter(provider.KindInfuraLike, []ChainEndpoint{{Chain: eth1, URL: srv.URL}}, AuthBearerHeader, "secret", nil)
	if !a.SupportsChain(eth1) {
		t.Fatal("expected chain to be supported")
	}
	resp, err := a.Proxy(context.Background(), eth1, http.MethodPost, nil, []byte(`{"jsonrpc":"2.0","id":1,"method":"eth_chainId","params":[]}`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.StatusCode != 200 {
		t.Fatalf("unexpected status %d", resp.StatusCode)
	}
	if string(resp.Body) != `{"jsonrpc":"2.0","id":1,"result":"0x1"}` {
		t.Fatalf("unexpected body %s", resp.Body)
	}
}

func TestHTTPJSONRPCAdapterUnsupportedChain(t *testing.T) {
	a := NewHTTPJSONRPCAdapter(provider.KindInfuraLike, nil, AuthNone, "", nil)
	_, err := a.Proxy(context.Background(), eth1, http.MethodPost, nil, nil)
	if err == nil {
		t.Fatal("expected an error for an unsupported chain")
	}
}

func TestIsRateLimitedGeneric(t *testing.T) {
	cases := []struct {
		resp *provider.Response
		want bool
	}{
		{&provider.Response{StatusCode: 429}, true},
		{&provider.Response{StatusCode: 200, Body: []byte(`{"jsonrpc":"2.0","error":{"code":-32068,"message":"x"}}`)}, true},
		{&provider.Response{StatusCode: 200, Body: []byte(`{"jsonrpc":"2.0","result":"0x1"}`)}, false},
		{&provider.Response{StatusCode: 500}, false},
	}
	for _, c := range cases {
		if got := IsRateLimitedGeneric(c.resp); got != c.want {
			t.Fatalf("IsRateLimitedGeneric(%+v) = %v, want %v", c.resp, got, c.want)
		}
	}
}
