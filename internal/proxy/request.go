package proxy

import "net/http"

// RequestContext is the per-request, stack-scoped context threaded
// through the pipeline (spec §3 "Request context").
type RequestContext struct {
	ProjectID       string
	ChainID         string
	ProviderOverride string
	ClientIP        string
	Origin          string
	Headers         http.Header
	SourceTag       string
	SDKInfo         string
	RequestID       string
}
