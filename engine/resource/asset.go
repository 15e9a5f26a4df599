package resource

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/pierrec/lz4"
)

// CompressedExt is the suffix of asset files stored as an lz4 frame. Such files are decompressed
// transparently by ReadAsset.
const CompressedExt = ".lz4"

// ErrEmptyAsset is returned by ReadAsset when the asset resolves to zero bytes.
var ErrEmptyAsset = errors.New("asset is empty")

// ReadAsset reads the full contents of an asset file. Files ending in CompressedExt are decompressed
// from their lz4 frame before being returned. A zero-length result is reported as ErrEmptyAsset so
// decoders never have to special-case empty input.
//
// Parameters:
//   - path: the resolved asset path
//
// Returns:
//   - []byte: the (decompressed) asset bytes
//   - error: error if the file cannot be read, decompressed, or is empty
func ReadAsset(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read asset %s: %w", path, err)
	}

	if strings.HasSuffix(strings.ToLower(path), CompressedExt) {
		data, err = Decompress(data)
		if err != nil {
			return nil, fmt.Errorf("failed to decompress asset %s: %w", path, err)
		}
	}

	if len(data) == 0 {
		return nil, fmt.Errorf("%s: %w", path, ErrEmptyAsset)
	}
	return data, nil
}

// Decompress decodes a complete lz4 frame.
//
// Parameters:
//   - data: the lz4 frame bytes
//
// Returns:
//   - []byte: the decompressed bytes
//   - error: error if the frame is malformed
func Decompress(data []byte) ([]byte, error) {
	r := lz4.NewReader(bytes.NewReader(data))
	var out bytes.Buffer
	if _, err := io.Copy(&out, r); err != nil {
		return nil, err
	}
	return out.Bytes(), nil
}

// Compress encodes data as a single lz4 frame. It is the inverse of Decompress and is used by tooling
// that packs assets for distribution.
//
// Parameters:
//   - data: the raw bytes to compress
//
// Returns:
//   - []byte: the lz4 frame
//   - error: error if compression fails
func Compress(data []byte) ([]byte, error) {
	var out bytes.Buffer
	w := lz4.NewWriter(&out)
	if _, err := w.Write(data); err != nil {
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}
	return out.Bytes(), nil
}
