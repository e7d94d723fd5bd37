// Command gateway is the C9 bootstrap: it loads RPC_PROXY_* configuration,
// wires the chain registry, provider adapters, provider registry, project
// authorizer, rate limiter, metrics collectors, and the proxy engine, then
// serves the public HTTP surface. Shaped after the teacher's
// cmd/explorer/main.go (godotenv + viper, construct service, NewServer,
// Start, log.Fatal on error) generalized to the gateway's larger
// collaborator set.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/synnergy-network/rpc-gateway/internal/caip2"
	"github.com/synnergy-network/rpc-gateway/internal/chainregistry"
	"github.com/synnergy-network/rpc-gateway/internal/config"
	"github.com/synnergy-network/rpc-gateway/internal/handlers"
	"github.com/synnergy-network/rpc-gateway/internal/httpapi"
	"github.com/synnergy-network/rpc-gateway/internal/metrics"
	"github.com/synnergy-network/rpc-gateway/internal/projectauth"
	"github.com/synnergy-network/rpc-gateway/internal/provider"
	"github.com/synnergy-network/rpc-gateway/internal/provider/adapters"
	"github.com/synnergy-network/rpc-gateway/internal/providerregistry"
	"github.com/synnergy-network/rpc-gateway/internal/proxy"
	"github.com/synnergy-network/rpc-gateway/internal/ratelimit"
	"github.com/synnergy-network/rpc-gateway/internal/selftransport"
)

// knownAdapterNames lists every `RPC_PROXY_<NAME>_*` block this build
// knows how to construct. config.Load validates every name it is given,
// so only adapters the operator actually lists in
// RPC_PROXY_ENABLED_ADAPTERS are required to carry a base_url.
var knownAdapterNames = map[string]bool{
	"infura": true, "pokt": true, "zksync": true, "binance": true,
	"solana": true, "trongrid": true, "hiro": true, "bitcoin": true,
	"toncenter": true, "sui": true, "near": true,
}

func main() {
	log := logrus.StandardLogger()
	log.SetFormatter(&logrus.JSONFormatter{})

	enabled, err := enabledAdapterNames()
	if err != nil {
		log.WithError(err).Fatal("configuration error")
	}

	cfg, err := config.Load(enabled)
	if err != nil {
		log.WithError(err).Fatal("configuration error")
	}

	adapterSet, err := buildAdapters(cfg)
	if err != nil {
		log.WithError(err).Fatal("failed to build provider adapters")
	}

	adapterList := make([]provider.Adapter, 0, len(adapterSet))
	for _, a := range adapterSet {
		adapterList = append(adapterList, a)
	}
	providers := providerregistry.New(adapterList)
	for name, a := range cfg.Adapters {
		adapter, ok := adapterSet[name]
		if !ok {
			continue
		}
		priority := parsePriority(a.Priority)
		for _, chain := range adapter.SupportedChains() {
			providers.SetPriority(adapter.Kind(), chain, priority)
		}
	}

	storageAddr := cfg.Storage.WriteAddr
	if storageAddr == "" {
		storageAddr = cfg.Storage.ReadAddr
	}
	var redisClient *redis.Client
	if storageAddr != "" {
		redisClient = redis.NewClient(&redis.Options{Addr: storageAddr, Password: cfg.Storage.Password})
	} else {
		log.Warn("no RPC_PROXY_STORAGE_* address configured; running with L1-only caches")
	}

	collectors := metrics.New()

	registryClient := projectauth.NewHTTPRegistry(cfg.Registry.URL, cfg.Registry.Token)
	authorizer, err := projectauth.New(registryClient, redisClient, 30*time.Second, 4096)
	if err != nil {
		log.WithError(err).Fatal("failed to build project authorizer")
	}

	limiter, err := ratelimit.New(redisClient, defaultRouteConfigs(), cfg.RateLimit.Whitelist, 4096)
	if err != nil {
		log.WithError(err).Fatal("failed to build rate limiter")
	}
	limiter.OnStoreError(func(err error) {
		collectors.RateLimitStoreErrors.Inc()
		log.WithError(err).Debug("rate limit store error, failing open")
	})

	analytics := metrics.NewEmitter(metrics.NoopSink{}, 1024, 64, log.WithField("component", "analytics"))
	defer analytics.Close()

	engine := &proxy.Engine{
		Providers:        providers,
		Auth:             authorizer,
		RateLimit:        limiter,
		Metrics:          collectors,
		Analytics:        analytics,
		TestingProjectID: cfg.Server.TestingProject,
		MaxRetries:       cfg.Server.MaxRetries,
		UpstreamTimeout:  cfg.UpstreamTimeout(),
		Log:              log,
	}

	transport := selftransport.New(engine)
	identity := &handlers.IdentityHandler{Transport: transport, ChainID: "eip155:1", Metrics: collectors, Log: log}

	server := httpapi.NewServer(httpapi.Options{
		Addr:     cfg.Server.ListenAddr,
		Engine:   engine,
		Metrics:  collectors,
		Log:      log,
		Handlers: []httpapi.RouteRegistrar{identity},
	})

	errCh := make(chan error, 1)
	go func() { errCh <- server.Start() }()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			log.WithError(err).Fatal("gateway server failed")
		}
	case sig := <-sigCh:
		log.WithField("signal", sig).Info("shutting down")
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(ctx); err != nil {
			log.WithError(err).Error("graceful shutdown failed")
			os.Exit(1)
		}
	}
}

// enabledAdapterNames reads RPC_PROXY_ENABLED_ADAPTERS, a comma-separated
// list of the adapter blocks this deployment actually configures
// (e.g. "infura,solana,trongrid"); each listed name must be one this
// build knows how to construct.
func enabledAdapterNames() ([]string, error) {
	raw := os.Getenv("RPC_PROXY_ENABLED_ADAPTERS")
	if raw == "" {
		return nil, nil
	}
	names := strings.Split(raw, ",")
	out := make([]string, 0, len(names))
	for _, n := range names {
		n = strings.TrimSpace(strings.ToLower(n))
		if n == "" {
			continue
		}
		if !knownAdapterNames[n] {
			return nil, fmt.Errorf("RPC_PROXY_ENABLED_ADAPTERS: unknown adapter %q", n)
		}
		out = append(out, n)
	}
	return out, nil
}

// buildAdapters constructs one provider.Adapter per configured adapter
// block whose base_url is set, per spec §4.2's "constructed once at
// bootstrap from configuration; shared by reference across all requests".
func buildAdapters(cfg *config.Config) (map[string]provider.Adapter, error) {
	out := make(map[string]provider.Adapter)
	for name, a := range cfg.Adapters {
		if a.BaseURL == "" {
			continue
		}
		endpoints, err := chainEndpoints(a)
		if err != nil {
			return nil, fmt.Errorf("adapter %q: %w", name, err)
		}

		// Switch on the block's own name, not a.Kind: a.Kind defaults to
		// name (loadAdapter) and several provider.Kind constants carry a
		// "-rpc" suffix the bare name doesn't (solana-rpc, bitcoin-rpc,
		// sui-rpc, near-rpc), so matching on a.Kind would misroute those
		// unless an operator manually overrode RPC_PROXY_<NAME>_KIND.
		var ad provider.Adapter
		switch name {
		case "infura", "pokt", "zksync", "binance":
			ad = adapters.NewHTTPJSONRPCAdapter(provider.Kind(a.Kind), endpoints, parseAuthStyle(a.AuthStyle), a.APIKey, nil)
		case "solana":
			ad = adapters.NewSolanaAdapter(endpoints, parseAuthStyle(a.AuthStyle), a.APIKey)
		case "sui":
			ad = adapters.NewSuiAdapter(endpoints, parseAuthStyle(a.AuthStyle), a.APIKey)
		case "near":
			ad = adapters.NewNearAdapter(endpoints, parseAuthStyle(a.AuthStyle), a.APIKey)
		case "bitcoin":
			ad = adapters.NewBitcoinAdapter(endpoints, a.APIKey)
		case "trongrid":
			ad = adapters.NewTronAdapter(endpoints, a.APIKey)
		case "hiro":
			ad = adapters.NewStacksAdapter(endpoints, a.APIKey)
		case "toncenter":
			ad = adapters.NewTonAdapter(endpoints, a.APIKey)
		default:
			return nil, fmt.Errorf("unknown adapter name %q", name)
		}

		if a.WSBaseURL != "" {
			wsEndpoints, err := wsChainEndpoints(a)
			if err != nil {
				return nil, fmt.Errorf("adapter %q: %w", name, err)
			}
			ad = adapters.WithWebSocket(ad, wsEndpoints)
		}

		out[name] = ad
	}
	return out, nil
}

func chainEndpoints(a config.AdapterConfig) ([]adapters.ChainEndpoint, error) {
	out := make([]adapters.ChainEndpoint, 0, len(a.SupportedChains))
	for _, raw := range a.SupportedChains {
		chain, err := caip2.Parse(raw)
		if err != nil {
			return nil, err
		}
		out = append(out, adapters.ChainEndpoint{Chain: chain, URL: a.BaseURL})
		if _, catalogued := chainregistry.Lookup(chain); !catalogued {
			chainregistry.Register(chain, chainregistry.ChainInfo{DisplayName: raw, ProviderIDs: []provider.Kind{provider.Kind(a.Kind)}})
		}
	}
	return out, nil
}

func wsChainEndpoints(a config.AdapterConfig) ([]adapters.ChainEndpoint, error) {
	out := make([]adapters.ChainEndpoint, 0, len(a.SupportedChains))
	for _, raw := range a.SupportedChains {
		chain, err := caip2.Parse(raw)
		if err != nil {
			return nil, err
		}
		out = append(out, adapters.ChainEndpoint{Chain: chain, URL: a.WSBaseURL})
	}
	return out, nil
}

func parseAuthStyle(style string) adapters.AuthStyle {
	switch strings.ToLower(style) {
	case "header_bearer":
		return adapters.AuthBearerHeader
	case "header_basic":
		return adapters.AuthBasicHeader
	case "query_param", "path_segment":
		return adapters.AuthEmbeddedInURL
	default:
		return adapters.AuthNone
	}
}

func parsePriority(p string) providerregistry.Priority {
	switch strings.ToLower(p) {
	case "disabled":
		return providerregistry.PriorityDisabled
	case "low":
		return providerregistry.PriorityLow
	case "high":
		return providerregistry.PriorityHigh
	default:
		return providerregistry.PriorityNormal
	}
}

// defaultRouteConfigs configures the single "proxy" route named in spec
// §4.6 step 3; the boundary scenario in spec §8 uses a 20-token/1s window.
func defaultRouteConfigs() map[string]ratelimit.RouteConfig {
	return map[string]ratelimit.RouteConfig{
		"proxy": {Capacity: 20, RefillInterval: time.Second, RefillTokens: 20},
	}
}
