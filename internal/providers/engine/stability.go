package engine

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/MUSTAQ-AHAMMAD/bulk-photo-generation-ai/internal/infra"
)

const (
	stabilityEngineID     = "stable-diffusion-xl-1024-v1-0"
	stabilityNegative     = "blurry, low quality, watermark, text, bad anatomy, distorted"
	stabilityDefaultSteps = 30
	stabilityDefaultCFG   = 7
)

// StabilityOptions configures the balanced SDXL engine.
type StabilityOptions struct {
	APIKey          string
	BaseURL         string
	HTTPClient      *http.Client
	Logger          *infra.Logger
	GenerateTimeout time.Duration
}

// Stability is the balanced engine. It returns the image inline as a data URL.
type Stability struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
	timeout    time.Duration
	logger     *infra.Logger
}

type stabilityPrompt struct {
	Text   string  `json:"text"`
	Weight float64 `json:"weight"`
}

type stabilityRequest struct {
	TextPrompts []stabilityPrompt `json:"text_prompts"`
	CFGScale    float64           `json:"cfg_scale"`
	Height      int               `json:"height"`
	Width       int               `json:"width"`
	Steps       int               `json:"steps"`
	Samples     int               `json:"samples"`
	Seed        int64             `json:"seed"`
}

type stabilityResponse struct {
	Artifacts []struct {
		Base64       string `json:"base64"`
		Seed         int64  `json:"seed"`
		FinishReason string `json:"finishReason"`
	} `json:"artifacts"`
}

type stabilityError struct {
	Name    string `json:"name"`
	Message string `json:"message"`
}

// NewStability constructs the SDXL engine.
func NewStability(opts StabilityOptions) *Stability {
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	baseURL := strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/")
	if baseURL == "" {
		baseURL = "https://api.stability.ai"
	}
	timeout := opts.GenerateTimeout
	if timeout <= 0 {
		timeout = 120 * time.Second
	}
	return &Stability{
		apiKey:     strings.TrimSpace(opts.APIKey),
		baseURL:    baseURL,
		httpClient: httpClient,
		timeout:    timeout,
		logger:     discardLogger(opts.Logger),
	}
}

// Name identifies the engine in logs and outcomes.
func (e *Stability) Name() string {
	return "stability-sdxl"
}

// Generate runs one text-to-image call.
func (e *Stability) Generate(ctx context.Context, spec Spec) (Result, error) {
	if e.apiKey == "" {
		return Result{}, wrap(e.Name(), "generate", ErrMissingAPIKey)
	}
	width, height := clampSize(spec.Width, spec.Height)
	seed := resolveSeed(spec.Seed, maxSeed)
	negative := strings.TrimSpace(spec.NegativePrompt)
	if negative == "" {
		negative = stabilityNegative
	}
	steps := spec.Steps
	if steps <= 0 {
		steps = stabilityDefaultSteps
	}
	cfg := spec.GuidanceScale
	if cfg <= 0 {
		cfg = stabilityDefaultCFG
	}
	payload := stabilityRequest{
		TextPrompts: []stabilityPrompt{
			{Text: balancedStyle.augment(spec), Weight: 1},
			{Text: negative, Weight: -1},
		},
		CFGScale: cfg,
		Height:   height,
		Width:    width,
		Steps:    steps,
		Samples:  1,
		Seed:     seed,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return Result{}, wrap(e.Name(), "encode", err)
	}

	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	endpoint := fmt.Sprintf("%s/v1/generation/%s/text-to-image", e.baseURL, stabilityEngineID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return Result{}, wrap(e.Name(), "build request", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Bearer "+e.apiKey)

	resp, err := e.httpClient.Do(req)
	if err != nil {
		return Result{}, wrap(e.Name(), "http request", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return Result{}, wrap(e.Name(), "read response", err)
	}
	if resp.StatusCode >= 300 {
		var detail stabilityError
		if err := json.Unmarshal(raw, &detail); err == nil && detail.Message != "" {
			return Result{}, wrap(e.Name(), "generate", fmt.Errorf("%s (%s)", detail.Message, detail.Name))
		}
		return Result{}, wrap(e.Name(), "generate", fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(raw))))
	}

	var decoded stabilityResponse
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return Result{}, wrap(e.Name(), "decode response", err)
	}
	if len(decoded.Artifacts) == 0 || decoded.Artifacts[0].Base64 == "" {
		return Result{}, wrap(e.Name(), "generate", errors.New("empty artifact list"))
	}
	artifact := decoded.Artifacts[0]
	if artifact.FinishReason == "ERROR" {
		return Result{}, wrap(e.Name(), "generate", errors.New("artifact finished with ERROR"))
	}
	e.logger.Debug().Str("engine", e.Name()).Int64("seed", seed).Str("finish_reason", artifact.FinishReason).Msg("stability: generated image")
	return Result{
		ImageURL: "data:image/png;base64," + artifact.Base64,
		Seed:     seed,
		Engine:   e.Name(),
	}, nil
}

var _ Engine = (*Stability)(nil)
