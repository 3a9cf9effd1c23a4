package insightface

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

	"github.com/rs/zerolog"

	"github.com/MUSTAQ-AHAMMAD/bulk-photo-generation-ai/internal/domain"
	"github.com/MUSTAQ-AHAMMAD/bulk-photo-generation-ai/internal/identity"
	"github.com/MUSTAQ-AHAMMAD/bulk-photo-generation-ai/internal/infra"
)

// Options configures the face embedding service client.
type Options struct {
	BaseURL           string
	HTTPClient        *http.Client
	Logger            *infra.Logger
	EmbedTimeout      time.Duration
	SimilarityTimeout time.Duration
}

// Client talks to the face embedding service.
type Client struct {
	baseURL           string
	httpClient        *http.Client
	logger            *infra.Logger
	embedTimeout      time.Duration
	similarityTimeout time.Duration
}

type embedRequest struct {
	ImageURL string `json:"image_url"`
}

type embedResponse struct {
	Embedding    []float64 `json:"embedding"`
	FaceDetected bool      `json:"face_detected"`
	DetScore     float64   `json:"det_score,omitempty"`
	Error        string    `json:"error,omitempty"`
}

type batchEmbedRequest struct {
	ImageURLs []string `json:"image_urls"`
}

type batchEmbedResponse struct {
	Results []embedResponse `json:"results"`
}

type similarityRequest struct {
	Embedding1 []float64 `json:"embedding1"`
	Embedding2 []float64 `json:"embedding2"`
}

type similarityResponse struct {
	Similarity *float64 `json:"similarity"`
	Error      string   `json:"error,omitempty"`
}

// NewClient constructs a client with defaults for unset options.
func NewClient(opts Options) *Client {
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	baseURL := strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/")
	if baseURL == "" {
		baseURL = "http://insightface:5000"
	}
	embedTimeout := opts.EmbedTimeout
	if embedTimeout <= 0 {
		embedTimeout = 30 * time.Second
	}
	similarityTimeout := opts.SimilarityTimeout
	if similarityTimeout <= 0 {
		similarityTimeout = 10 * time.Second
	}
	var logger *infra.Logger
	if opts.Logger != nil {
		logger = opts.Logger
	} else {
		discard := zerolog.New(io.Discard)
		l := infra.Logger(discard)
		logger = &l
	}
	return &Client{
		baseURL:           baseURL,
		httpClient:        httpClient,
		logger:            logger,
		embedTimeout:      embedTimeout,
		similarityTimeout: similarityTimeout,
	}
}

// Embed extracts the most confident face embedding from the image.
func (c *Client) Embed(ctx context.Context, imageURL string) (identity.Embedding, error) {
	imageURL = strings.TrimSpace(imageURL)
	if imageURL == "" {
		return identity.Embedding{}, errors.New("insightface: image url is required")
	}
	var decoded embedResponse
	if err := c.post(ctx, "/embed", c.embedTimeout, embedRequest{ImageURL: imageURL}, &decoded); err != nil {
		return identity.Embedding{}, err
	}
	if decoded.Error != "" {
		c.logger.Debug().Str("error", decoded.Error).Msg("insightface: embed reported error")
	}
	return identity.Embedding{Vector: decoded.Embedding, FaceDetected: decoded.FaceDetected}, nil
}

// BatchEmbed extracts one embedding per image, in input order.
func (c *Client) BatchEmbed(ctx context.Context, imageURLs []string) ([]identity.Embedding, error) {
	if len(imageURLs) == 0 {
		return nil, nil
	}
	var decoded batchEmbedResponse
	if err := c.post(ctx, "/batch-embed", c.embedTimeout*time.Duration(len(imageURLs)), batchEmbedRequest{ImageURLs: imageURLs}, &decoded); err != nil {
		return nil, err
	}
	if len(decoded.Results) != len(imageURLs) {
		return nil, fmt.Errorf("insightface: batch returned %d results for %d images", len(decoded.Results), len(imageURLs))
	}
	out := make([]identity.Embedding, 0, len(decoded.Results))
	for _, r := range decoded.Results {
		out = append(out, identity.Embedding{Vector: r.Embedding, FaceDetected: r.FaceDetected})
	}
	return out, nil
}

// Similarity asks the service for the cosine similarity of two embeddings.
func (c *Client) Similarity(ctx context.Context, a, b []float64) (float64, error) {
	var decoded similarityResponse
	if err := c.post(ctx, "/similarity", c.similarityTimeout, similarityRequest{Embedding1: a, Embedding2: b}, &decoded); err != nil {
		return 0, err
	}
	if decoded.Similarity == nil {
		return 0, fmt.Errorf("insightface: similarity missing from response: %s", decoded.Error)
	}
	return *decoded.Similarity, nil
}

// Health probes the service health endpoint.
func (c *Client) Health(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, c.similarityTimeout)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/health", nil)
	if err != nil {
		return fmt.Errorf("insightface: build request: %w", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("insightface: %w: %v", domain.ErrDependencyUnavailable, err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)
	if resp.StatusCode >= 300 {
		return fmt.Errorf("insightface: %w: health status %d", domain.ErrDependencyUnavailable, resp.StatusCode)
	}
	return nil
}

func (c *Client) post(ctx context.Context, path string, timeout time.Duration, payload, out any) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("insightface: encode request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("insightface: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("insightface: %w: %v", domain.ErrDependencyUnavailable, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("insightface: read response: %w", err)
	}
	if resp.StatusCode >= 300 {
		return fmt.Errorf("insightface: status %d: %s", resp.StatusCode, strings.TrimSpace(string(raw)))
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("insightface: decode response: %w", err)
	}
	return nil
}

var _ identity.Embedder = (*Client)(nil)
