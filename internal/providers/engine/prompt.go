package engine

import (
	"fmt"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/MUSTAQ-AHAMMAD/bulk-photo-generation-ai/internal/domain"
)

const defaultBackgroundHex = "#f0f0f0"

// promptStyle is the wording one backend responds best to.
type promptStyle struct {
	template  string // pose, background, prompt
	lightGray string
	custom    string // hex
}

var (
	qualityStyle = promptStyle{
		template:  "Professional ecommerce fashion product photo, %s pose, %s, high-end studio lighting, sharp focus, %s. No watermarks, photorealistic, commercial photography style.",
		lightGray: "light gray background",
		custom:    "%s solid background",
	}
	balancedStyle = promptStyle{
		template:  "professional fashion ecommerce product photography, %s, %s, studio lighting, sharp details, %s, photorealistic, high resolution",
		lightGray: "light gray studio background",
		custom:    "solid %s background",
	}
	fastStyle = promptStyle{
		template:  "fashion product photo, %s, %s, professional lighting, %s",
		lightGray: "light gray background",
		custom:    "solid %s background",
	}
)

// augment expands the free-text prompt with pose and backdrop wording.
func (s promptStyle) augment(spec Spec) string {
	return fmt.Sprintf(s.template, humanizePose(spec.Pose), s.background(spec.Background, spec.BackgroundHex), strings.TrimSpace(spec.Prompt))
}

func (s promptStyle) background(bg domain.Background, hex string) string {
	switch bg {
	case domain.BackgroundPureWhite:
		return "pure white background"
	case domain.BackgroundLightGray:
		return s.lightGray
	default:
		hex = strings.TrimSpace(hex)
		if hex == "" {
			hex = defaultBackgroundHex
		}
		return fmt.Sprintf(s.custom, hex)
	}
}

// humanizePose turns a tag like FRONT_VIEW into "front view".
func humanizePose(pose string) string {
	// Casers are stateful, so each call gets its own.
	return strings.ReplaceAll(cases.Lower(language.Und).String(strings.TrimSpace(pose)), "_", " ")
}
