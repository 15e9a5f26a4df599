package texture

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// ErrEmptyImage is returned when a decoder is handed no bytes.
var ErrEmptyImage = errors.New("image data is empty")

// DecodedImage is tightly packed 8-bit pixel data produced by a Decoder.
type DecodedImage struct {
	// Pixels holds Width*Height*Channels bytes, row-major, top row first.
	Pixels []byte
	// Width is the image width in pixels.
	Width uint32
	// Height is the image height in pixels.
	Height uint32
	// Channels is the number of bytes per pixel (1 gray, 2 gray+alpha, 3 RGB, 4 RGBA).
	Channels int
}

// Decoder converts encoded image bytes into pixels.
type Decoder interface {
	// Decode decodes data. desiredChannels is a hint; a decoder may return a different channel count and
	// leave repair to the caller.
	//
	// Parameters:
	//   - data: the encoded image bytes
	//   - desiredChannels: the channel count the caller will upload, 0 for no preference
	//
	// Returns:
	//   - DecodedImage: the decoded pixels
	//   - error: error if the data is empty, truncated or in an unknown format
	Decode(data []byte, desiredChannels int) (DecodedImage, error)
}

// imageDecoderImpl is the implementation of the Decoder interface on top of the image package.
type imageDecoderImpl struct{}

var _ Decoder = &imageDecoderImpl{}

// NewImageDecoder creates a Decoder for every format registered with the image package: PNG, JPEG, GIF,
// BMP, TIFF and WebP. The decoder reports each image in its native channel layout.
//
// Returns:
//   - Decoder: the decoder
func NewImageDecoder() Decoder {
	return &imageDecoderImpl{}
}

func (d *imageDecoderImpl) Decode(data []byte, desiredChannels int) (DecodedImage, error) {
	if len(data) == 0 {
		return DecodedImage{}, ErrEmptyImage
	}

	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return DecodedImage{}, fmt.Errorf("failed to decode image: %w", err)
	}

	bounds := img.Bounds()
	if bounds.Empty() {
		return DecodedImage{}, fmt.Errorf("decoded %s image has zero extent", format)
	}

	channels := nativeChannels(img)
	width, height := bounds.Dx(), bounds.Dy()

	var pixels []byte
	switch channels {
	case 1:
		gray := image.NewGray(image.Rect(0, 0, width, height))
		draw.Draw(gray, gray.Bounds(), img, bounds.Min, draw.Src)
		pixels = gray.Pix
	default:
		nrgba := image.NewNRGBA(image.Rect(0, 0, width, height))
		draw.Draw(nrgba, nrgba.Bounds(), img, bounds.Min, draw.Src)
		pixels = nrgba.Pix
		if channels == 3 {
			pixels, err = ConvertChannels(pixels, 4, 3)
			if err != nil {
				return DecodedImage{}, err
			}
		}
	}

	return DecodedImage{
		Pixels:   pixels,
		Width:    uint32(width),
		Height:   uint32(height),
		Channels: channels,
	}, nil
}

// nativeChannels reports how many channels an image carries: 1 for grayscale, 3 for opaque color and 4
// for color with alpha.
func nativeChannels(img image.Image) int {
	switch m := img.(type) {
	case *image.Gray, *image.Gray16:
		return 1
	case *image.YCbCr, *image.CMYK:
		return 3
	case *image.Paletted:
		for _, c := range m.Palette {
			if _, _, _, a := c.RGBA(); a != 0xffff {
				return 4
			}
		}
		return 3
	}

	if img.ColorModel() == color.GrayModel || img.ColorModel() == color.Gray16Model {
		return 1
	}
	return 4
}
