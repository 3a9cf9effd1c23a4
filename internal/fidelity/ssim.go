// Package fidelity scores how closely a generated image preserves the
// appearance of a reference product image.
package fidelity

import (
	"bytes"
	"fmt"
	"image"

	// Registered decoders for reference and candidate images.
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/webp"
)

const (
	// C1 and C2 are (0.01*255)^2 and (0.03*255)^2.
	C1 = 6.5025
	C2 = 58.5225

	// DefaultThreshold is the pass mark for product fidelity.
	DefaultThreshold = 0.92

	maxSampleEdge = 256
)

// Region is a window in image coordinates.
type Region struct {
	X      int `json:"x"`
	Y      int `json:"y"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Result carries an SSIM score and its verdict against a threshold.
type Result struct {
	Score  float64
	Passed bool
}

// Score decodes both images and compares them. A non-positive threshold
// selects DefaultThreshold.
func Score(reference, candidate []byte, region *Region, threshold float64) (Result, error) {
	if threshold <= 0 {
		threshold = DefaultThreshold
	}
	ref, err := imaging.Decode(bytes.NewReader(reference), imaging.AutoOrientation(true))
	if err != nil {
		return Result{}, fmt.Errorf("fidelity: decode reference: %w", err)
	}
	cand, err := imaging.Decode(bytes.NewReader(candidate), imaging.AutoOrientation(true))
	if err != nil {
		return Result{}, fmt.Errorf("fidelity: decode candidate: %w", err)
	}
	score := Compare(ref, cand, region)
	return Result{Score: score, Passed: score >= threshold}, nil
}

// Compare returns the single-window SSIM of the luminance of a and b.
//
// With a region both images are cropped to it. Otherwise both are fitted to
// min(width,256) x min(height,256) of the reference.
func Compare(a, b image.Image, region *Region) float64 {
	var sa, sb []uint8
	if region != nil {
		sa = luminance(crop(a, *region))
		sb = luminance(crop(b, *region))
	} else {
		w := min(a.Bounds().Dx(), maxSampleEdge)
		h := min(a.Bounds().Dy(), maxSampleEdge)
		if w <= 0 || h <= 0 {
			return 0
		}
		sa = luminance(imaging.Fill(a, w, h, imaging.Center, imaging.Lanczos))
		sb = luminance(imaging.Fill(b, w, h, imaging.Center, imaging.Lanczos))
	}
	return ssim(sa, sb)
}

func crop(img image.Image, r Region) image.Image {
	origin := img.Bounds().Min
	rect := image.Rect(r.X, r.Y, r.X+r.Width, r.Y+r.Height).Add(origin)
	return imaging.Crop(img, rect)
}

func luminance(img image.Image) []uint8 {
	gray := imaging.Grayscale(img)
	out := make([]uint8, 0, len(gray.Pix)/4)
	for i := 0; i < len(gray.Pix); i += 4 {
		out = append(out, gray.Pix[i])
	}
	return out
}

func ssim(a, b []uint8) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	n := float64(len(a))

	var muA, muB float64
	for i := range a {
		muA += float64(a[i])
		muB += float64(b[i])
	}
	muA /= n
	muB /= n

	var varA, varB, cov float64
	for i := range a {
		dA := float64(a[i]) - muA
		dB := float64(b[i]) - muB
		varA += dA * dA
		varB += dB * dB
		cov += dA * dB
	}
	varA /= n
	varB /= n
	cov /= n

	num := (2*muA*muB + C1) * (2*cov + C2)
	den := (muA*muA + muB*muB + C1) * (varA + varB + C2)
	if den == 0 {
		return 1
	}
	return num / den
}
