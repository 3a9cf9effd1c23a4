package main

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/MUSTAQ-AHAMMAD/bulk-photo-generation-ai/internal/domain"
)

func writePNG(t *testing.T, path string, w, h int) {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.NRGBA{R: uint8(x * 8), G: uint8(y * 8), B: 90, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode: %v", err)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
}

func TestSSIMCommandIdenticalImages(t *testing.T) {
	dir := t.TempDir()
	ref := filepath.Join(dir, "ref.png")
	writePNG(t, ref, 16, 16)

	var out bytes.Buffer
	root := newRootCmd()
	root.SetOut(&out)
	root.SetArgs([]string{"ssim", ref, ref})
	if err := root.Execute(); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if !strings.Contains(out.String(), "ssim=1.0000 passed=true") {
		t.Fatalf("output = %q", out.String())
	}
}

func TestProcessCommandWritesResizedImage(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "in.png")
	dst := filepath.Join(dir, "out.png")
	writePNG(t, in, 20, 10)

	root := newRootCmd()
	root.SetOut(&bytes.Buffer{})
	root.SetArgs([]string{"process", in, dst, "--resolution", "RES_1000", "--format", "png"})
	if err := root.Execute(); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	data, err := os.ReadFile(dst)
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	cfg, err := png.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("decode output: %v", err)
	}
	if cfg.Width != 1000 || cfg.Height != 1000 {
		t.Fatalf("size = %dx%d, want 1000x1000", cfg.Width, cfg.Height)
	}
}

func TestMergeRequestPrefersFileValues(t *testing.T) {
	file := domain.GenerationRequest{UserID: "file-user", Prompt: "from file"}
	flags := domain.GenerationRequest{
		GenerationID: "flag-id",
		UserID:       "flag-user",
		Prompt:       "from flags",
		Pose:         "FRONT",
		OutputFormat: domain.OutputFormatPNG,
	}
	mergeRequest(&file, flags)
	if file.GenerationID != "flag-id" || file.UserID != "file-user" || file.Prompt != "from file" {
		t.Fatalf("unexpected merge %+v", file)
	}
	if file.Pose != "FRONT" || file.OutputFormat != domain.OutputFormatPNG {
		t.Fatalf("defaults not filled: %+v", file)
	}
}
