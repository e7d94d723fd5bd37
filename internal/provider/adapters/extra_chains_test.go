package adapters

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/synnergy-network/rpc-gateway/internal/caip2"
)

func TestBitcoinAdapterUsesBasicAuth(t *testing.T) {
	btc := caip2.MustParse("bip122:000000000019d6689c085ae165831e93")
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, pass, ok := r.BasicAuth()
		if !ok || user != "bitcoin-rpc" || pass != "secret" {
			t.Errorf("expected basic auth, got user=%q pass=%q ok=%v", user, pass, ok)
		}
		w.Write([]byte(`{"jsonrpc":"2.0","id":1,"result":{"blocks":1}}`))
	}))
	defer srv.Close()

	a := NewBitcoinAdapter([]ChainEndpoint{{Chain: btc, URL: srv.URL}}, "secret")
	resp, err := a.Proxy(context.Background(), btc, http.MethodPost, nil, []byte(`{"jsonrpc":"2.0","id":1,"method":"getblockchaininfo","params":[]}`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("unexpected status %d", resp.StatusCode)
	}
}

func TestSuiAndNearAdaptersSupportConfiguredChains(t *testing.T) {
	sui := caip2.MustParse("sui:35834a8a")
	near := caip2.MustParse("near:mainnet")

	suiAdapter := NewSuiAdapter([]ChainEndpoint{{Chain: sui, URL: "http://example.invalid"}}, AuthBearerHeader, "key")
	if !suiAdapter.SupportsChain(sui) {
		t.Fatal("expected sui adapter to support its configured chain")
	}

	nearAdapter := NewNearAdapter([]ChainEndpoint{{Chain: near, URL: "http://example.invalid"}}, AuthNone, "")
	if !nearAdapter.SupportsChain(near) {
		t.Fatal("expected near adapter to support its configured chain")
	}
	if nearAdapter.SupportsChain(sui) {
		t.Fatal("expected near adapter to reject an unconfigured chain")
	}
}

func TestTonAdapterMapsMethodToPath(t *testing.T) {
	ton := caip2.MustParse("ton:-239")
	var gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		if got := r.Header.Get("X-API-Key"); got != "tonkey" {
			t.Errorf("expected api key header, got %q", got)
		}
		w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	a := NewTonAdapter([]ChainEndpoint{{Chain: ton, URL: srv.URL}}, "tonkey")
	body := []byte(`{"jsonrpc":"2.0","id":1,"method":"ton_getAddressInformation","params":["EQabc"]}`)
	resp, err := a.Proxy(context.Background(), ton, "", nil, body)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotPath != "/getAddressInformation" {
		t.Fatalf("unexpected upstream path %q", gotPath)
	}
	if string(resp.Body) != `{"result":{"ok":true}}` {
		t.Fatalf("unexpected wrapped body: %s", resp.Body)
	}
}
