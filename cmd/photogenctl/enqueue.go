package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"github.com/MUSTAQ-AHAMMAD/bulk-photo-generation-ai/internal/domain"
	"github.com/MUSTAQ-AHAMMAD/bulk-photo-generation-ai/internal/queue"
)

func newEnqueueCmd(g *globalOptions) *cobra.Command {
	var (
		file string
		req  domain.GenerationRequest
		seed int64
	)
	cmd := &cobra.Command{
		Use:   "enqueue",
		Short: "Push a generation request onto the queue",
		Long: `Push a generation request onto the queue. The request is read from --file
when given; flags fill in anything the file leaves empty.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if file != "" {
				raw, err := os.ReadFile(file)
				if err != nil {
					return fmt.Errorf("read request: %w", err)
				}
				var fromFile domain.GenerationRequest
				if err := json.Unmarshal(raw, &fromFile); err != nil {
					return fmt.Errorf("decode request: %w", err)
				}
				mergeRequest(&fromFile, req)
				req = fromFile
			}
			if cmd.Flags().Changed("seed") {
				req.Seed = &seed
			}
			if req.GenerationID == "" {
				req.GenerationID = uuid.NewString()
			}
			if err := req.Validate(); err != nil {
				return err
			}

			opts, err := redis.ParseURL(g.redisURL)
			if err != nil {
				return fmt.Errorf("parse redis url: %w", err)
			}
			rdb := redis.NewClient(opts)
			defer rdb.Close()

			if err := queue.New(rdb, g.queue).Enqueue(cmd.Context(), req); err != nil {
				return err
			}
			logger := g.logger()
			logger.Info().Str("job_id", req.GenerationID).Str("queue", g.queue).Msg("photogenctl: enqueued")
			fmt.Fprintln(cmd.OutOrStdout(), req.GenerationID)
			return nil
		},
	}
	f := cmd.Flags()
	f.StringVarP(&file, "file", "f", "", "JSON request file")
	f.StringVar(&req.GenerationID, "generation-id", "", "generation id (default: random uuid)")
	f.StringVar(&req.UserID, "user-id", "", "owning user id")
	f.StringVarP(&req.Prompt, "prompt", "p", "", "product prompt")
	f.StringVar(&req.Pose, "pose", "FRONT", "pose tag")
	f.StringVar((*string)(&req.Background), "background", string(domain.BackgroundPureWhite), "PURE_WHITE, LIGHT_GRAY or CUSTOM")
	f.StringVar(&req.BackgroundHex, "background-hex", "", "hex color for CUSTOM backgrounds")
	f.StringVar((*string)(&req.Resolution), "resolution", string(domain.Resolution1500), "RES_4000, RES_2500, RES_1500 or RES_1000")
	f.StringVar((*string)(&req.OutputFormat), "format", string(domain.OutputFormatWebP), "WEBP, PNG or JPEG")
	f.StringVar((*string)(&req.EnginePreset), "preset", string(domain.EnginePresetBalanced), "BEST_QUALITY, BALANCED or FAST")
	f.BoolVar(&req.StrictMode, "strict", false, "enable the identity lock")
	f.Int64Var(&seed, "seed", 0, "deterministic seed")
	f.StringVar(&req.ProductImageURL, "product-url", "", "reference product image for the fidelity gate")
	return cmd
}

// mergeRequest copies non-empty identifying flags over the file contents.
func mergeRequest(dst *domain.GenerationRequest, flags domain.GenerationRequest) {
	if flags.GenerationID != "" {
		dst.GenerationID = flags.GenerationID
	}
	if dst.UserID == "" {
		dst.UserID = flags.UserID
	}
	if dst.Prompt == "" {
		dst.Prompt = flags.Prompt
	}
	if dst.Pose == "" {
		dst.Pose = flags.Pose
	}
	if dst.Background == "" {
		dst.Background = flags.Background
	}
	if dst.Resolution == "" {
		dst.Resolution = flags.Resolution
	}
	if dst.OutputFormat == "" {
		dst.OutputFormat = flags.OutputFormat
	}
	if dst.EnginePreset == "" {
		dst.EnginePreset = flags.EnginePreset
	}
	if dst.ProductImageURL == "" {
		dst.ProductImageURL = flags.ProductImageURL
	}
}
