package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/MUSTAQ-AHAMMAD/bulk-photo-generation-ai/internal/infra"
)

type globalOptions struct {
	redisURL string
	queue    string
	verbose  bool
}

func newRootCmd() *cobra.Command {
	g := &globalOptions{}
	root := &cobra.Command{
		Use:           "photogenctl",
		Short:         "Operator tooling for the photo generation worker",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	root.PersistentFlags().StringVar(&g.redisURL, "redis-url", envOr("REDIS_URL", "redis://localhost:6379/0"), "redis connection url")
	root.PersistentFlags().StringVar(&g.queue, "queue", envOr("QUEUE_NAME", "photogen:generation"), "queue list name")
	root.PersistentFlags().BoolVarP(&g.verbose, "verbose", "v", false, "debug logging")

	root.AddCommand(
		newEnqueueCmd(g),
		newSSIMCmd(),
		newProcessCmd(),
		newEmbedCmd(g),
		newSetKeyCmd(g),
	)
	return root
}

func (g *globalOptions) logger() infra.Logger {
	env := "production"
	if g.verbose {
		env = "development"
	}
	return infra.NewLogger(env, "photogenctl")
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
