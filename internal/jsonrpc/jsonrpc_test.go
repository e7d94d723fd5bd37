package jsonrpc

import "testing"

func TestParseRequestOK(t *testing.T) {
	req, ok := ParseRequest([]byte(`{"jsonrpc":"2.0","id":1,"method":"eth_chainId","params":[]}`))
	if !ok {
		t.Fatal("expected ok=true")
	}
	if req.Method != "eth_chainId" {
		t.Fatalf("unexpected method %q", req.Method)
	}
}

func TestParseRequestMalformed(t *testing.T) {
	if _, ok := ParseRequest([]byte(`not json`)); ok {
		t.Fatal("expected ok=false for malformed body")
	}
	if _, ok := ParseRequest([]byte(`{"jsonrpc":"2.0"}`)); ok {
		t.Fatal("expected ok=false when method is absent")
	}
}

func TestParseResponseErrorCode(t *testing.T) {
	resp, ok := ParseResponse([]byte(`{"jsonrpc":"2.0","id":1,"error":{"code":-32068,"message":"rate limited"}}`))
	if !ok {
		t.Fatal("expected ok=true")
	}
	if resp.Error == nil || resp.Error.Code != -32068 {
		t.Fatalf("expected error code -32068, got %+v", resp.Error)
	}
}

func TestWrap(t *testing.T) {
	out := Wrap([]byte(`"0x1"`))
	if string(out) != `{"result":"0x1"}` {
		t.Fatalf("unexpected wrap output: %s", out)
	}
}
