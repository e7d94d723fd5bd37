// Command gatewayctl is the operator CLI for the gateway: config
// validation, a chain catalogue dump, and a cache flush signal. Shaped
// after the teacher's cmd/cli (spf13/cobra command objects, godotenv.Load
// before anything else) and cmd/synnergy/main.go's root-command wiring,
// generalized from per-domain business commands to operator tooling over
// internal/config and internal/chainregistry.
package main

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"github.com/synnergy-network/rpc-gateway/internal/chainregistry"
	"github.com/synnergy-network/rpc-gateway/internal/config"
)

func main() {
	_ = godotenv.Load()

	root := &cobra.Command{
		Use:   "gatewayctl",
		Short: "Operator tooling for the rpc-gateway process",
	}
	root.AddCommand(validateConfigCmd())
	root.AddCommand(listChainsCmd())
	root.AddCommand(flushCacheCmd())

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

// validateConfigCmd loads RPC_PROXY_* configuration the same way
// cmd/gateway does at bootstrap and reports whether it is well-formed,
// without starting any server.
func validateConfigCmd() *cobra.Command {
	var adaptersFlag string
	cmd := &cobra.Command{
		Use:   "validate-config",
		Short: "Load RPC_PROXY_* configuration and report errors",
		RunE: func(cmd *cobra.Command, args []string) error {
			names := splitNames(adaptersFlag)
			cfg, err := config.Load(names)
			if err != nil {
				return fmt.Errorf("config invalid: %w", err)
			}
			fmt.Printf("config OK: listen_addr=%s adapters=%d upstream_timeout=%s\n",
				cfg.Server.ListenAddr, len(cfg.Adapters), cfg.UpstreamTimeout())
			return nil
		},
	}
	cmd.Flags().StringVar(&adaptersFlag, "adapters", os.Getenv("RPC_PROXY_ENABLED_ADAPTERS"),
		"comma-separated adapter block names to validate (default: $RPC_PROXY_ENABLED_ADAPTERS)")
	return cmd
}

// listChainsCmd dumps the built-in chain catalogue. It does not load any
// configuration, so chains that cmd/gateway registers from adapter
// configuration at bootstrap are not listed.
func listChainsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list-chains",
		Short: "Print every chain the chain registry recognizes",
		RunE: func(cmd *cobra.Command, args []string) error {
			ids := chainregistry.All()
			sort.Slice(ids, func(i, j int) bool { return ids[i].String() < ids[j].String() })
			for _, id := range ids {
				info, _ := chainregistry.Lookup(id)
				providers := make([]string, 0, len(info.ProviderIDs))
				for _, p := range info.ProviderIDs {
					providers = append(providers, string(p))
				}
				fmt.Printf("%-40s %-28s [%s]\n", id.String(), info.DisplayName, strings.Join(providers, ","))
			}
			return nil
		},
	}
	return cmd
}

// flushCacheCmd deletes every cache key this process maintains in Redis
// (project authorization entries and rate-limit token buckets), by key
// prefix rather than FLUSHDB so it is safe against a shared Redis
// instance holding unrelated data.
func flushCacheCmd() *cobra.Command {
	var addr, password string
	var timeoutSeconds int
	cmd := &cobra.Command{
		Use:   "flush-cache",
		Short: "Delete cached project-auth and rate-limit entries from Redis",
		RunE: func(cmd *cobra.Command, args []string) error {
			if addr == "" {
				return fmt.Errorf("flush-cache: --addr or RPC_PROXY_STORAGE_WRITE_ADDR is required")
			}
			client := redis.NewClient(&redis.Options{Addr: addr, Password: password})
			defer client.Close()

			ctx, cancel := context.WithTimeout(context.Background(), time.Duration(timeoutSeconds)*time.Second)
			defer cancel()

			deleted := 0
			for _, prefix := range []string{"rpcproxy:project:*", "rpcproxy:rl:*"} {
				n, err := deleteByPattern(ctx, client, prefix)
				if err != nil {
					return fmt.Errorf("flush-cache: %w", err)
				}
				deleted += n
			}
			fmt.Printf("flushed %d cache entries\n", deleted)
			return nil
		},
	}
	cmd.Flags().StringVar(&addr, "addr", os.Getenv("RPC_PROXY_STORAGE_WRITE_ADDR"), "Redis address")
	cmd.Flags().StringVar(&password, "password", os.Getenv("RPC_PROXY_STORAGE_PASSWORD"), "Redis password")
	cmd.Flags().IntVar(&timeoutSeconds, "timeout-seconds", 10, "overall command timeout")
	return cmd
}

func deleteByPattern(ctx context.Context, client *redis.Client, pattern string) (int, error) {
	var cursor uint64
	deleted := 0
	for {
		keys, next, err := client.Scan(ctx, cursor, pattern, 256).Result()
		if err != nil {
			return deleted, err
		}
		if len(keys) > 0 {
			if err := client.Del(ctx, keys...).Err(); err != nil {
				return deleted, err
			}
			deleted += len(keys)
		}
		cursor = next
		if cursor == 0 {
			break
		}
	}
	return deleted, nil
}

func splitNames(raw string) []string {
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(strings.ToLower(p))
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
