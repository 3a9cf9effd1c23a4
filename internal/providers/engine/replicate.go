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
	// DefaultReplicateVersion pins the SDXL model on Replicate.
	DefaultReplicateVersion = "stability-ai/sdxl:39ed52f2a78e934b3ba6e2a89f5b1c712de7dfea535525255b1aa35c5565e08b"

	replicateNegative        = "blurry, low quality, watermark, text, distorted"
	replicateDefaultSteps    = 25
	replicateDefaultGuidance = 7.5
)

// ReplicateOptions configures the fast engine.
type ReplicateOptions struct {
	APIKey          string
	BaseURL         string
	ModelVersion    string
	HTTPClient      *http.Client
	Logger          *infra.Logger
	CreateTimeout   time.Duration
	StatusTimeout   time.Duration
	PollInterval    time.Duration
	PollMaxAttempts int
}

// Replicate is the fast engine. Predictions are asynchronous and polled.
type Replicate struct {
	apiKey          string
	baseURL         string
	version         string
	httpClient      *http.Client
	logger          *infra.Logger
	createTimeout   time.Duration
	statusTimeout   time.Duration
	pollInterval    time.Duration
	pollMaxAttempts int
}

type replicateInput struct {
	Prompt            string  `json:"prompt"`
	NegativePrompt    string  `json:"negative_prompt"`
	Width             int     `json:"width"`
	Height            int     `json:"height"`
	NumInferenceSteps int     `json:"num_inference_steps"`
	GuidanceScale     float64 `json:"guidance_scale"`
	Seed              int64   `json:"seed"`
}

type replicateRequest struct {
	Version string         `json:"version"`
	Input   replicateInput `json:"input"`
}

type prediction struct {
	ID     string          `json:"id"`
	Status string          `json:"status"`
	Output json.RawMessage `json:"output"`
	Error  any             `json:"error"`
}

// NewReplicate constructs the polling engine.
func NewReplicate(opts ReplicateOptions) *Replicate {
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	baseURL := strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/")
	if baseURL == "" {
		baseURL = "https://api.replicate.com/v1"
	}
	version := strings.TrimSpace(opts.ModelVersion)
	if version == "" {
		version = DefaultReplicateVersion
	}
	createTimeout := opts.CreateTimeout
	if createTimeout <= 0 {
		createTimeout = 30 * time.Second
	}
	statusTimeout := opts.StatusTimeout
	if statusTimeout <= 0 {
		statusTimeout = 10 * time.Second
	}
	interval := opts.PollInterval
	if interval <= 0 {
		interval = 2 * time.Second
	}
	attempts := opts.PollMaxAttempts
	if attempts <= 0 {
		attempts = 60
	}
	return &Replicate{
		apiKey:          strings.TrimSpace(opts.APIKey),
		baseURL:         baseURL,
		version:         version,
		httpClient:      httpClient,
		logger:          discardLogger(opts.Logger),
		createTimeout:   createTimeout,
		statusTimeout:   statusTimeout,
		pollInterval:    interval,
		pollMaxAttempts: attempts,
	}
}

// Name identifies the engine in logs and outcomes.
func (e *Replicate) Name() string {
	return "replicate-sdxl"
}

// Generate creates a prediction and polls it until it settles.
func (e *Replicate) Generate(ctx context.Context, spec Spec) (Result, error) {
	if e.apiKey == "" {
		return Result{}, wrap(e.Name(), "generate", ErrMissingAPIKey)
	}
	width, height := clampSize(spec.Width, spec.Height)
	seed := resolveSeed(spec.Seed, maxSeed)
	input := replicateInput{
		Prompt:            fastStyle.augment(spec),
		NegativePrompt:    strings.TrimSpace(spec.NegativePrompt),
		Width:             width,
		Height:            height,
		NumInferenceSteps: spec.Steps,
		GuidanceScale:     spec.GuidanceScale,
		Seed:              seed,
	}
	if input.NegativePrompt == "" {
		input.NegativePrompt = replicateNegative
	}
	if input.NumInferenceSteps <= 0 {
		input.NumInferenceSteps = replicateDefaultSteps
	}
	if input.GuidanceScale <= 0 {
		input.GuidanceScale = replicateDefaultGuidance
	}

	created, err := e.create(ctx, replicateRequest{Version: e.version, Input: input})
	if err != nil {
		return Result{}, wrap(e.Name(), "create prediction", err)
	}
	imageURL, err := e.poll(ctx, created.ID)
	if err != nil {
		return Result{}, wrap(e.Name(), "poll prediction", err)
	}
	return Result{ImageURL: imageURL, Seed: seed, Engine: e.Name()}, nil
}

func (e *Replicate) create(ctx context.Context, payload replicateRequest) (*prediction, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encode request: %w", err)
	}
	ctx, cancel := context.WithTimeout(ctx, e.createTimeout)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.baseURL+"/predictions", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	p, err := e.do(req)
	if err != nil {
		return nil, err
	}
	if p.ID == "" {
		return nil, errors.New("prediction id missing")
	}
	return p, nil
}

// poll waits pollInterval before each status check, up to pollMaxAttempts.
func (e *Replicate) poll(ctx context.Context, id string) (string, error) {
	timer := time.NewTimer(e.pollInterval)
	defer timer.Stop()
	for attempt := 1; attempt <= e.pollMaxAttempts; attempt++ {
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-timer.C:
		}
		p, err := e.status(ctx, id)
		if err != nil {
			return "", err
		}
		switch p.Status {
		case "succeeded":
			if out := firstOutput(p.Output); out != "" {
				return out, nil
			}
		case "failed", "canceled":
			return "", fmt.Errorf("prediction %s: %v", p.Status, p.Error)
		}
		e.logger.Debug().Str("prediction_id", id).Str("status", p.Status).Int("poll", attempt).Msg("replicate: prediction pending")
		timer.Reset(e.pollInterval)
	}
	return "", fmt.Errorf("prediction %s after %d polls: %w", id, e.pollMaxAttempts, ErrPollTimeout)
}

func (e *Replicate) status(ctx context.Context, id string) (*prediction, error) {
	ctx, cancel := context.WithTimeout(ctx, e.statusTimeout)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, e.baseURL+"/predictions/"+id, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	return e.do(req)
}

func (e *Replicate) do(req *http.Request) (*prediction, error) {
	req.Header.Set("Authorization", "Token "+e.apiKey)
	resp, err := e.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode >= 300 {
		return nil, fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(raw)))
	}
	var p prediction
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return &p, nil
}

// firstOutput accepts both a list of URLs and a single URL.
func firstOutput(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var list []string
	if err := json.Unmarshal(raw, &list); err == nil {
		for _, u := range list {
			if u = strings.TrimSpace(u); u != "" {
				return u
			}
		}
		return ""
	}
	var single string
	if err := json.Unmarshal(raw, &single); err == nil {
		return strings.TrimSpace(single)
	}
	return ""
}

var _ Engine = (*Replicate)(nil)
