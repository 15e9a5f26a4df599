package texture

import (
	"errors"
	"fmt"

	"github.com/cogentcore/webgpu/wgpu"
)

// ErrChannelMismatch is returned when pixel data cannot be converted to the channel count a format needs.
var ErrChannelMismatch = errors.New("unsupported channel conversion")

// ErrUnsupportedFormat is returned for texture formats the engine cannot upload 8-bit pixels into.
var ErrUnsupportedFormat = errors.New("unsupported texture format")

// FormatChannels returns the bytes per pixel of an 8-bit-per-channel texture format.
//
// Parameters:
//   - format: the GPU texture format
//
// Returns:
//   - int: the channel count, or 0 for formats the engine does not upload
func FormatChannels(format wgpu.TextureFormat) int {
	switch format {
	case wgpu.TextureFormatR8Unorm:
		return 1
	case wgpu.TextureFormatRG8Unorm:
		return 2
	case wgpu.TextureFormatRGBA8Unorm, wgpu.TextureFormatRGBA8UnormSrgb:
		return 4
	default:
		return 0
	}
}

// ConvertChannels repacks 8-bit pixels from one channel count to another. Expanding to four channels
// synthesizes an opaque alpha; gray is replicated across RGB. Dropping from four to three discards alpha,
// and collapsing color to one or two channels keeps the red channel (plus alpha for two).
// Returns the input slice unchanged when from == to.
//
// Parameters:
//   - pixels: the packed source pixels
//   - from: source bytes per pixel (1-4)
//   - to: destination bytes per pixel (1-4)
//
// Returns:
//   - []byte: the packed destination pixels
//   - error: ErrChannelMismatch for channel counts outside 1-4 or a buffer not a multiple of from
func ConvertChannels(pixels []byte, from, to int) ([]byte, error) {
	if from < 1 || from > 4 || to < 1 || to > 4 {
		return nil, fmt.Errorf("%w: %d -> %d", ErrChannelMismatch, from, to)
	}
	if len(pixels)%from != 0 {
		return nil, fmt.Errorf("%w: %d bytes is not a whole number of %d-channel pixels", ErrChannelMismatch, len(pixels), from)
	}
	if from == to {
		return pixels, nil
	}

	count := len(pixels) / from
	out := make([]byte, count*to)
	for i := 0; i < count; i++ {
		r, g, b, a := unpackPixel(pixels[i*from:i*from+from], from)
		dst := out[i*to : i*to+to]
		switch to {
		case 1:
			dst[0] = r
		case 2:
			dst[0], dst[1] = r, a
		case 3:
			dst[0], dst[1], dst[2] = r, g, b
		case 4:
			dst[0], dst[1], dst[2], dst[3] = r, g, b, a
		}
	}
	return out, nil
}

// unpackPixel expands a 1-4 channel pixel to RGBA with opaque alpha when the source has none.
func unpackPixel(p []byte, channels int) (r, g, b, a byte) {
	switch channels {
	case 1:
		return p[0], p[0], p[0], 0xff
	case 2:
		return p[0], p[0], p[0], p[1]
	case 3:
		return p[0], p[1], p[2], 0xff
	default:
		return p[0], p[1], p[2], p[3]
	}
}
