package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/MUSTAQ-AHAMMAD/bulk-photo-generation-ai/internal/infra"
	"github.com/MUSTAQ-AHAMMAD/bulk-photo-generation-ai/internal/infra/credentials"
)

var providerEnv = map[string]string{
	credentials.ProviderOpenAI:    "OPENAI_API_KEY",
	credentials.ProviderStability: "STABILITY_API_KEY",
	credentials.ProviderReplicate: "REPLICATE_API_KEY",
}

func newSetKeyCmd(g *globalOptions) *cobra.Command {
	var (
		key   string
		dbURL string
	)
	cmd := &cobra.Command{
		Use:   "set-key <" + strings.Join(credentials.Providers, "|") + ">",
		Short: "Store an engine API key in the database",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			provider := strings.ToLower(strings.TrimSpace(args[0]))
			if _, ok := providerEnv[provider]; !ok {
				return fmt.Errorf("unsupported provider %q", args[0])
			}
			if strings.TrimSpace(key) == "" {
				key = os.Getenv(providerEnv[provider])
			}
			if strings.TrimSpace(key) == "" {
				return fmt.Errorf("%s api key is required via --key or %s", provider, providerEnv[provider])
			}
			if strings.TrimSpace(dbURL) == "" {
				return fmt.Errorf("DATABASE_URL is required")
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), 15*time.Second)
			defer cancel()
			pool, err := infra.NewDBPool(ctx, &infra.Config{DatabaseURL: dbURL})
			if err != nil {
				return err
			}
			defer pool.Close()

			logger := g.logger().With().Str("cmd", "set-key").Str("provider", provider).Logger()
			if err := credentials.NewStore(infra.NewSQLRunner(pool, logger)).SetToken(ctx, provider, key); err != nil {
				return fmt.Errorf("persist %s api key: %w", provider, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s api key stored\n", provider)
			return nil
		},
	}
	cmd.Flags().StringVar(&key, "key", "", "API key (default: the provider's environment variable)")
	cmd.Flags().StringVar(&dbURL, "database-url", os.Getenv("DATABASE_URL"), "postgres connection url")
	return cmd
}
