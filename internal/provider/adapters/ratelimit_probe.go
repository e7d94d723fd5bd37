package adapters

import "github.com/synnergy-network/rpc-gateway/internal/jsonrpc"

// parseErrorCode returns the JSON-RPC error code embedded in a 200-status
// body, if the body parses as a JSON-RPC error response. This is the
// "best-effort, failure ignored" parse spec §9 permits outside the
// byte-transparent proxy path itself.
func parseErrorCode(body []byte) (int, bool) {
	resp, ok := jsonrpc.ParseResponse(body)
	if !ok || resp.Error == nil {
		return 0, false
	}
	return resp.Error.Code, true
}
