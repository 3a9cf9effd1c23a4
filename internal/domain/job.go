package domain

import (
	"fmt"
	"strings"
	"time"
)

// JobStatus enumerates generation lifecycle states.
type JobStatus string

const (
	JobStatusPending    JobStatus = "PENDING"
	JobStatusProcessing JobStatus = "PROCESSING"
	JobStatusCompleted  JobStatus = "COMPLETED"
	JobStatusRejected   JobStatus = "REJECTED"
	JobStatusFailed     JobStatus = "FAILED"
)

// IsTerminal reports whether no further processing may happen in this state.
func (s JobStatus) IsTerminal() bool {
	switch s {
	case JobStatusCompleted, JobStatusRejected, JobStatusFailed:
		return true
	default:
		return false
	}
}

// Background selects the backdrop described to the engine.
type Background string

const (
	BackgroundPureWhite Background = "PURE_WHITE"
	BackgroundLightGray Background = "LIGHT_GRAY"
	BackgroundCustom    Background = "CUSTOM"
)

// Resolution is one of the fixed square output sizes.
type Resolution string

const (
	Resolution4000 Resolution = "RES_4000"
	Resolution2500 Resolution = "RES_2500"
	Resolution1500 Resolution = "RES_1500"
	Resolution1000 Resolution = "RES_1000"
)

// Edge returns the side length in pixels. Unknown values fall back to 1500.
func (r Resolution) Edge() int {
	switch r {
	case Resolution4000:
		return 4000
	case Resolution2500:
		return 2500
	case Resolution1000:
		return 1000
	default:
		return 1500
	}
}

// OutputFormat is the encoding of the processed artifact.
type OutputFormat string

const (
	OutputFormatWebP OutputFormat = "WEBP"
	OutputFormatPNG  OutputFormat = "PNG"
	OutputFormatJPEG OutputFormat = "JPEG"
)

// Normalize upper-cases the format and maps aliases like "jpg".
func (f OutputFormat) Normalize() OutputFormat {
	switch strings.ToUpper(strings.TrimSpace(string(f))) {
	case "PNG":
		return OutputFormatPNG
	case "JPEG", "JPG":
		return OutputFormatJPEG
	case "WEBP", "":
		return OutputFormatWebP
	default:
		return OutputFormat(strings.ToUpper(string(f)))
	}
}

// Extension returns the file extension for the format.
func (f OutputFormat) Extension() string {
	switch f.Normalize() {
	case OutputFormatPNG:
		return ".png"
	case OutputFormatJPEG:
		return ".jpg"
	default:
		return ".webp"
	}
}

// EnginePreset selects the engine variant.
type EnginePreset string

const (
	EnginePresetBestQuality EnginePreset = "BEST_QUALITY"
	EnginePresetBalanced    EnginePreset = "BALANCED"
	EnginePresetFast        EnginePreset = "FAST"
)

// GenerationRequest is the immutable job payload delivered by the queue.
type GenerationRequest struct {
	GenerationID    string       `json:"generationId"`
	UserID          string       `json:"userId"`
	Prompt          string       `json:"prompt"`
	Pose            string       `json:"pose"`
	Background      Background   `json:"background"`
	BackgroundHex   string       `json:"backgroundHex,omitempty"`
	Resolution      Resolution   `json:"resolution"`
	OutputFormat    OutputFormat `json:"outputFormat"`
	EnginePreset    EnginePreset `json:"enginePreset"`
	StrictMode      bool         `json:"strictMode"`
	Seed            *int64       `json:"seed,omitempty"`
	ProductImageURL string       `json:"productImageUrl,omitempty"`
	ModelImageURLs  []string     `json:"modelImageUrls,omitempty"`
	ModelEmbeddings [][]float64  `json:"modelEmbeddings,omitempty"`

	// Per-request gate thresholds; zero means the configured default.
	IdentityThreshold float64 `json:"similarityThreshold,omitempty"`
	FidelityThreshold float64 `json:"ssimThreshold,omitempty"`
}

// Validate checks the fields every job needs before it can be attempted.
func (r GenerationRequest) Validate() error {
	if strings.TrimSpace(r.GenerationID) == "" {
		return fmt.Errorf("%w: generationId is required", ErrInvalidRequest)
	}
	if strings.TrimSpace(r.UserID) == "" {
		return fmt.Errorf("%w: userId is required", ErrInvalidRequest)
	}
	if strings.TrimSpace(r.Prompt) == "" {
		return fmt.Errorf("%w: prompt is required", ErrInvalidRequest)
	}
	switch r.OutputFormat.Normalize() {
	case OutputFormatWebP, OutputFormatPNG, OutputFormatJPEG:
	default:
		return fmt.Errorf("%w: unsupported output format %q", ErrInvalidRequest, r.OutputFormat)
	}
	return nil
}

// IdentityLockRequested reports whether the identity gate applies to this request.
func (r GenerationRequest) IdentityLockRequested() bool {
	return r.StrictMode && len(r.ModelEmbeddings) > 0
}

// FidelityRequested reports whether the structural fidelity gate applies.
func (r GenerationRequest) FidelityRequested() bool {
	return strings.TrimSpace(r.ProductImageURL) != ""
}

// GenerationRecord is the persisted view of a generation used for readback.
type GenerationRecord struct {
	ID                string     `json:"id"`
	UserID            string     `json:"userId"`
	Pose              string     `json:"pose"`
	Status            JobStatus  `json:"status"`
	ResultImageURL    string     `json:"resultImageUrl,omitempty"`
	ProcessedImageURL string     `json:"processedImageUrl,omitempty"`
	Seed              *int64     `json:"seed,omitempty"`
	AttemptCount      int        `json:"attemptCount"`
	SimilarityScore   *float64   `json:"similarityScore,omitempty"`
	SSIMScore         *float64   `json:"ssimScore,omitempty"`
	RejectionReason   string     `json:"rejectionReason,omitempty"`
	UpdatedAt         *time.Time `json:"updatedAt,omitempty"`
}
