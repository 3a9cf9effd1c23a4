// Package processing finalizes accepted images: cover resize, encode and
// DPI stamping.
package processing

import (
	"bytes"
	"fmt"
	"image"
	"image/png"

	// Registered decoders for engine output.
	_ "image/gif"
	_ "image/jpeg"

	"github.com/HugoSmits86/nativewebp"
	"github.com/disintegration/imaging"
	"github.com/gen2brain/jpegli"
	_ "golang.org/x/image/webp"

	"github.com/MUSTAQ-AHAMMAD/bulk-photo-generation-ai/internal/domain"
)

// DefaultDPI is stamped when no density is requested.
const DefaultDPI = 300

// Options selects the output geometry and encoding.
type Options struct {
	Width  int
	Height int
	Format domain.OutputFormat
	DPI    int
}

// Process decodes data, cover-fits it to the target size and re-encodes it.
func Process(data []byte, opts Options) ([]byte, error) {
	if opts.Width <= 0 || opts.Height <= 0 {
		return nil, fmt.Errorf("processing: invalid target size %dx%d", opts.Width, opts.Height)
	}
	if opts.DPI <= 0 {
		opts.DPI = DefaultDPI
	}
	src, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("processing: decode: %w", err)
	}
	fitted := imaging.Fill(src, opts.Width, opts.Height, imaging.Center, imaging.Lanczos)
	return Encode(fitted, opts.Format, opts.DPI)
}

// Encode writes img at maximum quality for format and stamps dpi.
func Encode(img image.Image, format domain.OutputFormat, dpi int) ([]byte, error) {
	var buf bytes.Buffer
	switch format.Normalize() {
	case domain.OutputFormatWebP:
		if err := nativewebp.Encode(&buf, img, &nativewebp.Options{UseExtendedFormat: true}); err != nil {
			return nil, fmt.Errorf("processing: encode webp: %w", err)
		}
		return stampWebP(buf.Bytes(), dpi)
	case domain.OutputFormatPNG:
		enc := png.Encoder{CompressionLevel: png.NoCompression}
		if err := enc.Encode(&buf, img); err != nil {
			return nil, fmt.Errorf("processing: encode png: %w", err)
		}
		return stampPNG(buf.Bytes(), dpi)
	case domain.OutputFormatJPEG:
		opts := &jpegli.EncodingOptions{
			Quality:           100,
			ChromaSubsampling: image.YCbCrSubsampleRatio444,
		}
		if err := jpegli.Encode(&buf, img, opts); err != nil {
			return nil, fmt.Errorf("processing: encode jpeg: %w", err)
		}
		return stampJPEG(buf.Bytes(), dpi)
	default:
		return nil, fmt.Errorf("processing: unsupported format %q", format)
	}
}
