package pipeline

import (
	"github.com/MUSTAQ-AHAMMAD/bulk-photo-generation-ai/internal/fidelity"
	"github.com/MUSTAQ-AHAMMAD/bulk-photo-generation-ai/internal/infra"
	"github.com/MUSTAQ-AHAMMAD/bulk-photo-generation-ai/internal/processing"
)

// Options is the immutable tuning of the retry controller.
type Options struct {
	MaxRetries        int
	IdentityThreshold float64
	FidelityThreshold float64
	OutputDPI         int
}

// DefaultOptions returns the stock retry budget and gate thresholds.
func DefaultOptions() Options {
	return Options{
		MaxRetries:        3,
		IdentityThreshold: 0.65,
		FidelityThreshold: fidelity.DefaultThreshold,
		OutputDPI:         processing.DefaultDPI,
	}
}

// OptionsFromConfig lifts the pipeline settings out of the loaded config.
func OptionsFromConfig(cfg *infra.Config) Options {
	opts := DefaultOptions()
	if cfg == nil {
		return opts
	}
	opts.MaxRetries = cfg.MaxRetries
	opts.IdentityThreshold = cfg.IdentityThreshold
	opts.FidelityThreshold = cfg.FidelityThreshold
	opts.OutputDPI = cfg.OutputDPI
	return opts.normalized()
}

func (o Options) normalized() Options {
	def := DefaultOptions()
	if o.MaxRetries < 1 {
		o.MaxRetries = def.MaxRetries
	}
	if o.IdentityThreshold <= 0 {
		o.IdentityThreshold = def.IdentityThreshold
	}
	if o.FidelityThreshold <= 0 {
		o.FidelityThreshold = def.FidelityThreshold
	}
	if o.OutputDPI <= 0 {
		o.OutputDPI = def.OutputDPI
	}
	return o
}
