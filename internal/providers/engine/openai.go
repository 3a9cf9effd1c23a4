package engine

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/MUSTAQ-AHAMMAD/bulk-photo-generation-ai/internal/infra"
)

// OpenAIOptions configures the quality-optimized DALL-E 3 engine.
type OpenAIOptions struct {
	APIKey          string
	BaseURL         string
	HTTPClient      *http.Client
	Logger          *infra.Logger
	GenerateTimeout time.Duration
}

// OpenAI is the quality-optimized engine.
type OpenAI struct {
	client  openai.Client
	hasKey  bool
	timeout time.Duration
	logger  *infra.Logger
}

// NewOpenAI constructs the DALL-E 3 engine.
func NewOpenAI(opts OpenAIOptions) *OpenAI {
	reqOpts := []option.RequestOption{
		option.WithAPIKey(strings.TrimSpace(opts.APIKey)),
		option.WithMaxRetries(0),
	}
	if base := strings.TrimSpace(opts.BaseURL); base != "" {
		reqOpts = append(reqOpts, option.WithBaseURL(strings.TrimRight(base, "/")+"/"))
	}
	if opts.HTTPClient != nil {
		reqOpts = append(reqOpts, option.WithHTTPClient(opts.HTTPClient))
	}
	timeout := opts.GenerateTimeout
	if timeout <= 0 {
		timeout = 120 * time.Second
	}
	return &OpenAI{
		client:  openai.NewClient(reqOpts...),
		hasKey:  strings.TrimSpace(opts.APIKey) != "",
		timeout: timeout,
		logger:  discardLogger(opts.Logger),
	}
}

// Name identifies the engine in logs and outcomes.
func (e *OpenAI) Name() string {
	return "openai-dall-e-3"
}

// Generate requests one HD image. DALL-E 3 takes no seed, so the requested
// seed is echoed back or a fresh one is reported.
func (e *OpenAI) Generate(ctx context.Context, spec Spec) (Result, error) {
	if !e.hasKey {
		return Result{}, wrap(e.Name(), "generate", ErrMissingAPIKey)
	}
	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	// Every requested size maps to the square ceiling.
	resp, err := e.client.Images.Generate(ctx, openai.ImageGenerateParams{
		Prompt:         qualityStyle.augment(spec),
		Model:          openai.ImageModelDallE3,
		N:              openai.Int(1),
		Quality:        openai.ImageGenerateParamsQualityHD,
		ResponseFormat: openai.ImageGenerateParamsResponseFormatURL,
		Size:           openai.ImageGenerateParamsSize1024x1024,
	})
	if err != nil {
		return Result{}, wrap(e.Name(), "generate", err)
	}
	if len(resp.Data) == 0 {
		return Result{}, wrap(e.Name(), "generate", errors.New("empty image list"))
	}
	img := resp.Data[0]
	imageURL := strings.TrimSpace(img.URL)
	if imageURL == "" && img.B64JSON != "" {
		imageURL = "data:image/png;base64," + img.B64JSON
	}
	if imageURL == "" {
		return Result{}, wrap(e.Name(), "generate", errors.New("empty image url"))
	}
	seed := resolveSeed(spec.Seed, 1000000)
	e.logger.Debug().Str("engine", e.Name()).Int64("seed", seed).Msg("openai: generated image")
	return Result{ImageURL: imageURL, Seed: seed, Engine: e.Name()}, nil
}

var _ Engine = (*OpenAI)(nil)
