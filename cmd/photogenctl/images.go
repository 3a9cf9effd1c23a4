package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/MUSTAQ-AHAMMAD/bulk-photo-generation-ai/internal/domain"
	"github.com/MUSTAQ-AHAMMAD/bulk-photo-generation-ai/internal/fidelity"
	"github.com/MUSTAQ-AHAMMAD/bulk-photo-generation-ai/internal/processing"
	"github.com/MUSTAQ-AHAMMAD/bulk-photo-generation-ai/internal/providers/insightface"
)

func newSSIMCmd() *cobra.Command {
	var (
		threshold float64
		region    fidelity.Region
	)
	cmd := &cobra.Command{
		Use:   "ssim <reference> <candidate>",
		Short: "Score two local images with the product fidelity check",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ref, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			cand, err := os.ReadFile(args[1])
			if err != nil {
				return err
			}
			var r *fidelity.Region
			if region.Width > 0 && region.Height > 0 {
				r = &region
			}
			res, err := fidelity.Score(ref, cand, r, threshold)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "ssim=%.4f passed=%t\n", res.Score, res.Passed)
			return nil
		},
	}
	f := cmd.Flags()
	f.Float64Var(&threshold, "threshold", fidelity.DefaultThreshold, "pass mark")
	f.IntVar(&region.X, "x", 0, "region left")
	f.IntVar(&region.Y, "y", 0, "region top")
	f.IntVar(&region.Width, "width", 0, "region width (0 compares whole images)")
	f.IntVar(&region.Height, "height", 0, "region height")
	return cmd
}

func newProcessCmd() *cobra.Command {
	var (
		resolution string
		format     string
		dpi        int
	)
	cmd := &cobra.Command{
		Use:   "process <input> <output>",
		Short: "Resize, encode and DPI-stamp a local image",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			edge := domain.Resolution(resolution).Edge()
			out, err := processing.Process(data, processing.Options{
				Width:  edge,
				Height: edge,
				Format: domain.OutputFormat(format).Normalize(),
				DPI:    dpi,
			})
			if err != nil {
				return err
			}
			if err := os.WriteFile(args[1], out, 0o644); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s (%dx%d, %d bytes)\n", args[1], edge, edge, len(out))
			return nil
		},
	}
	f := cmd.Flags()
	f.StringVar(&resolution, "resolution", string(domain.Resolution1500), "target resolution")
	f.StringVar(&format, "format", string(domain.OutputFormatWebP), "WEBP, PNG or JPEG")
	f.IntVar(&dpi, "dpi", processing.DefaultDPI, "density to stamp")
	return cmd
}

func newEmbedCmd(g *globalOptions) *cobra.Command {
	var baseURL string
	cmd := &cobra.Command{
		Use:   "embed <image-url>...",
		Short: "Print reference face embeddings as JSON for modelEmbeddings",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := g.logger()
			client := insightface.NewClient(insightface.Options{BaseURL: baseURL, Logger: &logger})
			results, err := client.BatchEmbed(cmd.Context(), args)
			if err != nil {
				return err
			}
			vectors := make([][]float64, 0, len(results))
			for i, r := range results {
				if !r.FaceDetected {
					logger.Warn().Str("image", args[i]).Msg("photogenctl: no face detected, skipping")
					continue
				}
				vectors = append(vectors, r.Vector)
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			return enc.Encode(vectors)
		},
	}
	cmd.Flags().StringVar(&baseURL, "insightface-url", envOr("INSIGHTFACE_URL", "http://localhost:5000"), "embedding service url")
	return cmd
}
