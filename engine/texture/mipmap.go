package texture

import (
	"image"
	"math/bits"

	"golang.org/x/image/draw"
)

// MipLevelCount returns the length of a full mip chain for a texture of the given size, including level 0.
//
// Parameters:
//   - width: the width of level 0
//   - height: the height of level 0
//
// Returns:
//   - uint32: the number of levels down to 1x1
func MipLevelCount(width, height uint32) uint32 {
	largest := max(width, height)
	if largest == 0 {
		return 0
	}
	return uint32(bits.Len32(largest))
}

// GenerateMipChain builds mip levels 1..n for packed pixel data by repeated bilinear downsampling, each
// level half the size of the previous one (rounded down, minimum 1). Only 1- and 4-channel data is
// supported; other layouts return nil so the texture is uploaded without mips.
//
// Parameters:
//   - pixels: level 0 pixels
//   - width: level 0 width
//   - height: level 0 height
//   - channels: bytes per pixel
//
// Returns:
//   - [][]byte: the pixels of levels 1..n, or nil when no levels can be generated
func GenerateMipChain(pixels []byte, width, height uint32, channels int) [][]byte {
	levels := MipLevelCount(width, height)
	if levels <= 1 || len(pixels) < int(width*height)*channels {
		return nil
	}

	var src draw.Image
	switch channels {
	case 1:
		src = &image.Gray{Pix: pixels, Stride: int(width), Rect: image.Rect(0, 0, int(width), int(height))}
	case 4:
		src = &image.NRGBA{Pix: pixels, Stride: int(width) * 4, Rect: image.Rect(0, 0, int(width), int(height))}
	default:
		return nil
	}

	chain := make([][]byte, 0, levels-1)
	w, h := int(width), int(height)
	for level := uint32(1); level < levels; level++ {
		w, h = max(w/2, 1), max(h/2, 1)
		rect := image.Rect(0, 0, w, h)

		var dst draw.Image
		var pix func() []byte
		if channels == 1 {
			g := image.NewGray(rect)
			dst, pix = g, func() []byte { return g.Pix }
		} else {
			n := image.NewNRGBA(rect)
			dst, pix = n, func() []byte { return n.Pix }
		}

		draw.BiLinear.Scale(dst, rect, src, src.Bounds(), draw.Src, nil)
		chain = append(chain, pix())
		src = dst
	}
	return chain
}
