package engine

import (
	"testing"

	"github.com/MUSTAQ-AHAMMAD/bulk-photo-generation-ai/internal/domain"
)

func TestAugmentQualityTemplate(t *testing.T) {
	got := qualityStyle.augment(Spec{Prompt: " red linen shirt ", Pose: "FRONT_VIEW", Background: domain.BackgroundPureWhite})
	want := "Professional ecommerce fashion product photo, front view pose, pure white background, high-end studio lighting, sharp focus, red linen shirt. No watermarks, photorealistic, commercial photography style."
	if got != want {
		t.Fatalf("augment = %q\nwant %q", got, want)
	}
}

func TestAugmentBackgrounds(t *testing.T) {
	tests := []struct {
		style promptStyle
		bg    domain.Background
		hex   string
		want  string
	}{
		{balancedStyle, domain.BackgroundLightGray, "", "light gray studio background"},
		{fastStyle, domain.BackgroundLightGray, "", "light gray background"},
		{qualityStyle, domain.BackgroundCustom, "#112233", "#112233 solid background"},
		{balancedStyle, domain.BackgroundCustom, "", "solid #f0f0f0 background"},
		{fastStyle, domain.BackgroundPureWhite, "", "pure white background"},
	}
	for _, tt := range tests {
		if got := tt.style.background(tt.bg, tt.hex); got != tt.want {
			t.Fatalf("background(%s, %q) = %q, want %q", tt.bg, tt.hex, got, tt.want)
		}
	}
}

func TestAugmentIsDeterministic(t *testing.T) {
	spec := Spec{Prompt: "denim jacket", Pose: "SIDE_PROFILE", Background: domain.BackgroundLightGray}
	if a, b := fastStyle.augment(spec), fastStyle.augment(spec); a != b {
		t.Fatalf("augment not deterministic: %q vs %q", a, b)
	}
	if got := humanizePose("THREE_QUARTER_LEFT"); got != "three quarter left" {
		t.Fatalf("humanizePose = %q", got)
	}
}

func TestClampSize(t *testing.T) {
	w, h := clampSize(4000, 2500)
	if w != MaxEdge || h != MaxEdge {
		t.Fatalf("clampSize = %dx%d, want %dx%d", w, h, MaxEdge, MaxEdge)
	}
	w, h = clampSize(512, 768)
	if w != 512 || h != 768 {
		t.Fatalf("clampSize = %dx%d, want 512x768", w, h)
	}
}

func TestResolveSeed(t *testing.T) {
	seed := int64(42)
	if got := resolveSeed(&seed, maxSeed); got != 42 {
		t.Fatalf("resolveSeed = %d, want 42", got)
	}
	for i := 0; i < 100; i++ {
		if got := resolveSeed(nil, 1000000); got < 0 || got >= 1000000 {
			t.Fatalf("random seed %d out of range", got)
		}
	}
}
