package config

import (
	"os"
	"testing"

	"github.com/synnergy-network/rpc-gateway/internal/testutil"
)

func setenv(t *testing.T, kv map[string]string) {
	t.Helper()
	for k, v := range kv {
		t.Setenv(k, v)
	}
}

func TestLoadRequiresRegistryURL(t *testing.T) {
	setenv(t, map[string]string{
		"RPC_PROXY_LISTEN_ADDR": ":9090",
	})
	if _, err := Load(nil); err == nil {
		t.Fatal("expected an error when RPC_PROXY_REGISTRY_URL is unset")
	}
}

func TestLoadSucceedsWithMinimalAdapterConfig(t *testing.T) {
	setenv(t, map[string]string{
		"RPC_PROXY_REGISTRY_URL":       "https://registry.internal",
		"RPC_PROXY_INFURA_BASE_URL":    "https://infura.example/v3/{chain}",
		"RPC_PROXY_INFURA_SUPPORTED_CHAINS": "eip155:1,eip155:10",
	})
	cfg, err := Load([]string{"infura"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Server.ListenAddr != ":8080" {
		t.Fatalf("expected default listen_addr, got %q", cfg.Server.ListenAddr)
	}
	a, ok := cfg.Adapters["infura"]
	if !ok || a.BaseURL != "https://infura.example/v3/{chain}" {
		t.Fatalf("expected infura adapter config loaded, got %+v ok=%v", a, ok)
	}
	if len(a.SupportedChains) != 2 {
		t.Fatalf("expected 2 supported chains, got %+v", a.SupportedChains)
	}
}

func TestLoadPicksUpLocalEnvFile(t *testing.T) {
	sb, err := testutil.NewSandbox()
	if err != nil {
		t.Fatalf("NewSandbox failed: %v", err)
	}
	defer sb.Cleanup()

	if err := sb.WriteEnvFile(map[string]string{"RPC_PROXY_REGISTRY_URL": "https://registry.sandbox"}); err != nil {
		t.Fatalf("WriteEnvFile failed: %v", err)
	}

	wd, err := os.Getwd()
	if err != nil {
		t.Fatalf("Getwd failed: %v", err)
	}
	if err := os.Chdir(sb.Root); err != nil {
		t.Fatalf("Chdir failed: %v", err)
	}
	defer os.Chdir(wd)

	cfg, err := Load(nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Registry.URL != "https://registry.sandbox" {
		t.Fatalf("expected registry url from .env file, got %q", cfg.Registry.URL)
	}
}

func TestLoadRejectsAdapterWithoutBaseURL(t *testing.T) {
	setenv(t, map[string]string{
		"RPC_PROXY_REGISTRY_URL": "https://registry.internal",
	})
	if _, err := Load([]string{"infura"}); err == nil {
		t.Fatal("expected an error when an adapter has no base_url configured")
	}
}
