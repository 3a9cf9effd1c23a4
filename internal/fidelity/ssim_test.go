package fidelity

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"math"
	"testing"
)

func gradient(w, h int) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.NRGBA{R: uint8(x * 255 / w), G: uint8(y * 255 / h), B: uint8((x + y) % 256), A: 255})
		}
	}
	return img
}

func checkerboard(w, h, cell int) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			c := color.NRGBA{A: 255}
			if (x/cell+y/cell)%2 == 0 {
				c.R, c.G, c.B = 255, 255, 255
			}
			img.Set(x, y, c)
		}
	}
	return img
}

func encodePNG(t *testing.T, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return buf.Bytes()
}

func TestScoreIdenticalImageIsOne(t *testing.T) {
	data := encodePNG(t, gradient(320, 200))
	copyData := append([]byte(nil), data...)

	for _, region := range []*Region{nil, {X: 10, Y: 20, Width: 64, Height: 48}} {
		res, err := Score(data, copyData, region, 0)
		if err != nil {
			t.Fatalf("Score error: %v", err)
		}
		if math.Abs(res.Score-1) > 1e-9 {
			t.Fatalf("score = %v, want 1 (region %+v)", res.Score, region)
		}
		if !res.Passed {
			t.Fatalf("expected pass for identical images")
		}
	}
}

func TestScoreFlatIdenticalImages(t *testing.T) {
	flat := image.NewGray(image.Rect(0, 0, 16, 16))
	if got := Compare(flat, flat, nil); math.Abs(got-1) > 1e-9 {
		t.Fatalf("flat score = %v, want 1", got)
	}
}

func TestScoreHeavilyDifferentImagesFail(t *testing.T) {
	ref := encodePNG(t, checkerboard(128, 128, 8))
	inverted := checkerboard(128, 128, 8)
	for i := 0; i < len(inverted.Pix); i += 4 {
		inverted.Pix[i] = 255 - inverted.Pix[i]
		inverted.Pix[i+1] = 255 - inverted.Pix[i+1]
		inverted.Pix[i+2] = 255 - inverted.Pix[i+2]
	}
	res, err := Score(ref, encodePNG(t, inverted), nil, DefaultThreshold)
	if err != nil {
		t.Fatalf("Score error: %v", err)
	}
	if res.Passed || res.Score >= 0.5 {
		t.Fatalf("expected low failing score, got %+v", res)
	}
}

func TestCompareRegionOutsideBounds(t *testing.T) {
	a := gradient(32, 32)
	if got := Compare(a, a, &Region{X: 100, Y: 100, Width: 10, Height: 10}); got != 0 {
		t.Fatalf("score = %v, want 0 for empty crop", got)
	}
}

func TestCompareRegionSizeMismatch(t *testing.T) {
	a := gradient(64, 64)
	b := gradient(40, 40)
	if got := Compare(a, b, &Region{X: 20, Y: 20, Width: 40, Height: 40}); got != 0 {
		t.Fatalf("score = %v, want 0 for mismatched crops", got)
	}
}

func TestScoreRejectsUndecodableInput(t *testing.T) {
	if _, err := Score([]byte("not an image"), encodePNG(t, gradient(8, 8)), nil, 0); err == nil {
		t.Fatalf("expected decode error")
	}
}
