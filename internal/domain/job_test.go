package domain

import (
	"errors"
	"testing"
)

func TestResolutionEdge(t *testing.T) {
	cases := map[Resolution]int{
		Resolution4000: 4000,
		Resolution2500: 2500,
		Resolution1500: 1500,
		Resolution1000: 1000,
		"RES_8K":       1500,
		"":             1500,
	}
	for res, want := range cases {
		if got := res.Edge(); got != want {
			t.Fatalf("%q.Edge() = %d, want %d", res, got, want)
		}
	}
}

func TestOutputFormatNormalize(t *testing.T) {
	cases := []struct {
		in   OutputFormat
		want OutputFormat
		ext  string
	}{
		{"", OutputFormatWebP, ".webp"},
		{"webp", OutputFormatWebP, ".webp"},
		{"png", OutputFormatPNG, ".png"},
		{"jpg", OutputFormatJPEG, ".jpg"},
		{"JPEG", OutputFormatJPEG, ".jpg"},
	}
	for _, tc := range cases {
		if got := tc.in.Normalize(); got != tc.want {
			t.Fatalf("Normalize(%q) = %q, want %q", tc.in, got, tc.want)
		}
		if got := tc.in.Extension(); got != tc.ext {
			t.Fatalf("Extension(%q) = %q, want %q", tc.in, got, tc.ext)
		}
	}
}

func TestGenerationRequestValidate(t *testing.T) {
	valid := GenerationRequest{GenerationID: "g", UserID: "u", Prompt: "shirt"}
	if err := valid.Validate(); err != nil {
		t.Fatalf("Validate returned %v", err)
	}

	missingPrompt := valid
	missingPrompt.Prompt = "  "
	if err := missingPrompt.Validate(); !errors.Is(err, ErrInvalidRequest) {
		t.Fatalf("err = %v, want ErrInvalidRequest", err)
	}

	badFormat := valid
	badFormat.OutputFormat = "gif"
	if err := badFormat.Validate(); !errors.Is(err, ErrInvalidRequest) {
		t.Fatalf("err = %v, want ErrInvalidRequest", err)
	}
}

func TestGateApplicability(t *testing.T) {
	req := GenerationRequest{StrictMode: true}
	if req.IdentityLockRequested() {
		t.Fatalf("identity lock needs embeddings")
	}
	req.ModelEmbeddings = [][]float64{{1, 0}}
	if !req.IdentityLockRequested() {
		t.Fatalf("identity lock should apply")
	}
	req.StrictMode = false
	if req.IdentityLockRequested() {
		t.Fatalf("identity lock needs strict mode")
	}
	if req.FidelityRequested() {
		t.Fatalf("fidelity needs a product image")
	}
	req.ProductImageURL = "http://x/p.png"
	if !req.FidelityRequested() {
		t.Fatalf("fidelity should apply")
	}
}

func TestJobStatusIsTerminal(t *testing.T) {
	for _, s := range []JobStatus{JobStatusCompleted, JobStatusRejected, JobStatusFailed} {
		if !s.IsTerminal() {
			t.Fatalf("%s should be terminal", s)
		}
	}
	for _, s := range []JobStatus{JobStatusPending, JobStatusProcessing} {
		if s.IsTerminal() {
			t.Fatalf("%s should not be terminal", s)
		}
	}
}
