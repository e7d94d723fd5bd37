// Package jsonrpc provides a permissive JSON-RPC envelope used only for
// the rate-limit probe and analytics. The proxy engine must never use
// these types to rewrite a passthrough body: they exist to read a method
// name and an error code, not to round-trip a payload.
package jsonrpc

import "encoding/json"

// Request is a best-effort view of a JSON-RPC 2.0 request body.
type Request struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id,omitempty"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
}

// Response is a best-effort view of a JSON-RPC 2.0 response body.
type Response struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id,omitempty"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *Error          `json:"error,omitempty"`
}

// Error is a JSON-RPC 2.0 error object.
type Error struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data,omitempty"`
}

// ParseRequest attempts to decode body as a JSON-RPC request. It returns
// ok=false on any parse failure instead of an error: callers use this only
// for best-effort analytics and rate-limit probing, and a parse failure
// there must never affect the client-visible response.
func ParseRequest(body []byte) (req Request, ok bool) {
	if err := json.Unmarshal(body, &req); err != nil {
		return Request{}, false
	}
	return req, req.Method != ""
}

// ParseResponse attempts to decode body as a JSON-RPC response.
func ParseResponse(body []byte) (resp Response, ok bool) {
	if err := json.Unmarshal(body, &resp); err != nil {
		return Response{}, false
	}
	return resp, true
}

// Wrap produces a minimal {"result": raw} envelope, used by REST-shaped
// adapters (spec §4.2 "Tron/Stacks-style adapters") to present a REST
// response as a JSON-RPC result.
func Wrap(raw json.RawMessage) []byte {
	out, _ := json.Marshal(struct {
		Result json.RawMessage `json:"result"`
	}{Result: raw})
	return out
}
