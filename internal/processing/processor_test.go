package processing

import (
	"bytes"
	"encoding/binary"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/MUSTAQ-AHAMMAD/bulk-photo-generation-ai/internal/domain"
)

func sampleImage(w, h int) []byte {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.NRGBA{R: uint8(x), G: uint8(y), B: 128, A: 255})
		}
	}
	var buf bytes.Buffer
	_ = png.Encode(&buf, img)
	return buf.Bytes()
}

func TestProcessCoverFitsAndEnlarges(t *testing.T) {
	out, err := Process(sampleImage(120, 60), Options{Width: 200, Height: 200, Format: domain.OutputFormatPNG})
	if err != nil {
		t.Fatalf("Process error: %v", err)
	}
	cfg, format, err := image.DecodeConfig(bytes.NewReader(out))
	if err != nil {
		t.Fatalf("decode output: %v", err)
	}
	if format != "png" {
		t.Fatalf("format = %q, want png", format)
	}
	if cfg.Width != 200 || cfg.Height != 200 {
		t.Fatalf("size = %dx%d, want 200x200", cfg.Width, cfg.Height)
	}
}

func TestProcessIsDeterministic(t *testing.T) {
	src := sampleImage(90, 70)
	a, err := Process(src, Options{Width: 64, Height: 64, Format: domain.OutputFormatPNG, DPI: 300})
	if err != nil {
		t.Fatalf("Process error: %v", err)
	}
	b, err := Process(src, Options{Width: 64, Height: 64, Format: domain.OutputFormatPNG, DPI: 300})
	if err != nil {
		t.Fatalf("Process error: %v", err)
	}
	if !bytes.Equal(a, b) {
		t.Fatalf("expected identical output for identical input")
	}
}

func TestProcessRejectsInvalidSize(t *testing.T) {
	if _, err := Process(sampleImage(4, 4), Options{Width: 0, Height: 10, Format: domain.OutputFormatPNG}); err == nil {
		t.Fatalf("expected error for zero width")
	}
}

func TestStampPNGWritesPhys(t *testing.T) {
	out, err := Process(sampleImage(16, 16), Options{Width: 16, Height: 16, Format: domain.OutputFormatPNG})
	if err != nil {
		t.Fatalf("Process error: %v", err)
	}
	idx := bytes.Index(out, []byte("pHYs"))
	if idx != 37 {
		t.Fatalf("pHYs offset = %d, want 37", idx)
	}
	ppm := binary.BigEndian.Uint32(out[idx+4 : idx+8])
	if ppm != 11811 {
		t.Fatalf("pixels per metre = %d, want 11811", ppm)
	}
	if out[idx+12] != 1 {
		t.Fatalf("unit = %d, want 1", out[idx+12])
	}
	if _, err := png.Decode(bytes.NewReader(out)); err != nil {
		t.Fatalf("stamped png no longer decodes: %v", err)
	}
}

func TestStampJPEGPatchesJFIF(t *testing.T) {
	jfif := []byte{0xFF, 0xD8, 0xFF, 0xE0, 0x00, 0x10, 'J', 'F', 'I', 'F', 0x00, 0x01, 0x01, 0x00, 0x00, 0x01, 0x00, 0x01, 0x00, 0x00, 0xFF, 0xD9}
	out, err := stampJPEG(jfif, 300)
	if err != nil {
		t.Fatalf("stampJPEG error: %v", err)
	}
	if out[13] != 1 || binary.BigEndian.Uint16(out[14:16]) != 300 || binary.BigEndian.Uint16(out[16:18]) != 300 {
		t.Fatalf("density not patched: % x", out[11:18])
	}
	if len(out) != len(jfif) {
		t.Fatalf("length changed from %d to %d", len(jfif), len(out))
	}
}

func TestStampJPEGInsertsJFIF(t *testing.T) {
	bare := []byte{0xFF, 0xD8, 0xFF, 0xDB, 0x00, 0x02, 0xFF, 0xD9}
	out, err := stampJPEG(bare, 72)
	if err != nil {
		t.Fatalf("stampJPEG error: %v", err)
	}
	if out[2] != 0xFF || out[3] != 0xE0 || string(out[6:11]) != "JFIF\x00" {
		t.Fatalf("APP0 not inserted: % x", out[:12])
	}
	if binary.BigEndian.Uint16(out[14:16]) != 72 {
		t.Fatalf("x density = %d, want 72", binary.BigEndian.Uint16(out[14:16]))
	}
	if !bytes.Equal(out[20:], bare[2:]) {
		t.Fatalf("original segments not preserved")
	}
}

func TestStampWebPAddsExif(t *testing.T) {
	riff := []byte("RIFF\x00\x00\x00\x00WEBPVP8X\x0a\x00\x00\x00\x10\x00\x00\x00\x00\x00\x00\x00\x00VP8L\x01\x00\x00\x00\x2f")
	out, err := stampWebP(riff, 300)
	if err != nil {
		t.Fatalf("stampWebP error: %v", err)
	}
	if out[20]&0x08 == 0 {
		t.Fatalf("EXIF flag not set: %08b", out[20])
	}
	if out[20]&0x10 == 0 {
		t.Fatalf("existing flags lost: %08b", out[20])
	}
	if got := binary.LittleEndian.Uint32(out[4:8]); int(got) != len(out)-8 {
		t.Fatalf("riff size = %d, want %d", got, len(out)-8)
	}
	idx := bytes.Index(out, []byte("EXIF"))
	if idx < 0 || idx%2 != 0 {
		t.Fatalf("EXIF chunk offset = %d", idx)
	}
	payload := out[idx+8:]
	if string(payload[:4]) != "II*\x00" {
		t.Fatalf("tiff header = % x", payload[:4])
	}
	xOff := binary.LittleEndian.Uint32(payload[8+2+8 : 8+2+12])
	if binary.LittleEndian.Uint32(payload[xOff:xOff+4]) != 300 {
		t.Fatalf("XResolution not 300")
	}
}

func TestEncodeAllFormats(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 8, 8))
	for _, f := range []domain.OutputFormat{domain.OutputFormatWebP, domain.OutputFormatPNG, domain.OutputFormatJPEG} {
		out, err := Encode(img, f, 300)
		if err != nil {
			t.Fatalf("Encode(%s) error: %v", f, err)
		}
		if len(out) == 0 {
			t.Fatalf("Encode(%s) returned no bytes", f)
		}
	}
	if _, err := Encode(img, domain.OutputFormat("TIFF"), 300); err == nil {
		t.Fatalf("expected error for unsupported format")
	}
}
