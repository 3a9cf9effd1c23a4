package processing

import (
	"bytes"
	"encoding/binary"
	"errors"
	"hash/crc32"
	"math"
)

var (
	pngSignature = []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n'}
	errMalformed = errors.New("processing: malformed encoder output")
)

// stampPNG inserts a pHYs chunk right after IHDR.
func stampPNG(data []byte, dpi int) ([]byte, error) {
	const ihdrEnd = 8 + 4 + 4 + 13 + 4
	if len(data) < ihdrEnd || !bytes.Equal(data[:8], pngSignature) || string(data[12:16]) != "IHDR" {
		return nil, errMalformed
	}
	ppm := uint32(math.Round(float64(dpi) / 0.0254))

	chunk := make([]byte, 4+4+9+4)
	binary.BigEndian.PutUint32(chunk[0:4], 9)
	copy(chunk[4:8], "pHYs")
	binary.BigEndian.PutUint32(chunk[8:12], ppm)
	binary.BigEndian.PutUint32(chunk[12:16], ppm)
	chunk[16] = 1 // metre
	binary.BigEndian.PutUint32(chunk[17:21], crc32.ChecksumIEEE(chunk[4:17]))

	out := make([]byte, 0, len(data)+len(chunk))
	out = append(out, data[:ihdrEnd]...)
	out = append(out, chunk...)
	out = append(out, data[ihdrEnd:]...)
	return out, nil
}

// stampJPEG writes dpi into the JFIF APP0 segment, adding one if absent.
func stampJPEG(data []byte, dpi int) ([]byte, error) {
	if len(data) < 4 || data[0] != 0xFF || data[1] != 0xD8 {
		return nil, errMalformed
	}
	density := uint16(min(dpi, math.MaxUint16))
	if len(data) >= 18 && data[2] == 0xFF && data[3] == 0xE0 && string(data[6:11]) == "JFIF\x00" {
		out := append([]byte(nil), data...)
		out[13] = 1 // dots per inch
		binary.BigEndian.PutUint16(out[14:16], density)
		binary.BigEndian.PutUint16(out[16:18], density)
		return out, nil
	}

	app0 := []byte{0xFF, 0xE0, 0x00, 0x10, 'J', 'F', 'I', 'F', 0x00, 0x01, 0x02, 0x01, 0, 0, 0, 0, 0x00, 0x00}
	binary.BigEndian.PutUint16(app0[12:14], density)
	binary.BigEndian.PutUint16(app0[14:16], density)

	out := make([]byte, 0, len(data)+len(app0))
	out = append(out, data[:2]...)
	out = append(out, app0...)
	out = append(out, data[2:]...)
	return out, nil
}

// stampWebP appends an EXIF chunk carrying the resolution to an extended
// (VP8X) WebP file and sets the EXIF feature flag.
func stampWebP(data []byte, dpi int) ([]byte, error) {
	if len(data) < 30 || string(data[0:4]) != "RIFF" || string(data[8:12]) != "WEBP" || string(data[12:16]) != "VP8X" {
		return nil, errMalformed
	}
	exif := exifResolution(uint32(dpi))

	out := make([]byte, 0, len(data)+8+len(exif)+1)
	out = append(out, data...)
	out[20] |= 0x08
	if len(out)%2 == 1 {
		out = append(out, 0)
	}

	var header [8]byte
	copy(header[0:4], "EXIF")
	binary.LittleEndian.PutUint32(header[4:8], uint32(len(exif)))
	out = append(out, header[:]...)
	out = append(out, exif...)
	if len(exif)%2 == 1 {
		out = append(out, 0)
	}
	binary.LittleEndian.PutUint32(out[4:8], uint32(len(out)-8))
	return out, nil
}

// exifResolution builds a little-endian TIFF block with XResolution,
// YResolution and ResolutionUnit=inches in IFD0.
func exifResolution(dpi uint32) []byte {
	const (
		ifdOffset   = 8
		entries     = 3
		ifdSize     = 2 + entries*12 + 4
		xRationalAt = ifdOffset + ifdSize
		yRationalAt = xRationalAt + 8
	)
	buf := make([]byte, yRationalAt+8)
	le := binary.LittleEndian

	copy(buf[0:4], []byte{'I', 'I', 0x2A, 0x00})
	le.PutUint32(buf[4:8], ifdOffset)
	le.PutUint16(buf[8:10], entries)

	entry := func(i int, tag, typ uint16, count, value uint32) {
		at := ifdOffset + 2 + i*12
		le.PutUint16(buf[at:], tag)
		le.PutUint16(buf[at+2:], typ)
		le.PutUint32(buf[at+4:], count)
		le.PutUint32(buf[at+8:], value)
	}
	entry(0, 0x011A, 5, 1, xRationalAt)
	entry(1, 0x011B, 5, 1, yRationalAt)
	entry(2, 0x0128, 3, 1, 2)
	le.PutUint32(buf[ifdOffset+2+entries*12:], 0)

	le.PutUint32(buf[xRationalAt:], dpi)
	le.PutUint32(buf[xRationalAt+4:], 1)
	le.PutUint32(buf[yRationalAt:], dpi)
	le.PutUint32(buf[yRationalAt+4:], 1)
	return buf
}
