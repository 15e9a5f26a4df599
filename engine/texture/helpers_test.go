package texture

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/Carmen-Shannon/oxy-assets/common"

	"github.com/stretchr/testify/require"
)

type fakeGPUTexture struct {
	backend *fakeBackend
	data    common.TextureStagingData
}

func (f *fakeGPUTexture) Release() {
	f.backend.releasedTextures.Add(1)
}

type fakeSampler struct {
	backend *fakeBackend
	data    common.SamplerStagingData
}

func (f *fakeSampler) Release() {
	f.backend.releasedSamplers.Add(1)
}

// fakeBackend records every GPU allocation instead of talking to a device.
type fakeBackend struct {
	mu      sync.Mutex
	created []common.TextureStagingData

	textures         atomic.Int32
	samplers         atomic.Int32
	releasedTextures atomic.Int32
	releasedSamplers atomic.Int32

	failTextures atomic.Bool
	failSamplers atomic.Bool
}

func (b *fakeBackend) CreateTexture(data common.TextureStagingData) (GPUTexture, error) {
	if b.failTextures.Load() {
		return nil, errors.New("out of device memory")
	}
	b.textures.Add(1)
	b.mu.Lock()
	b.created = append(b.created, data)
	b.mu.Unlock()
	return &fakeGPUTexture{backend: b, data: data}, nil
}

func (b *fakeBackend) CreateSampler(label string, data common.SamplerStagingData) (GPUSampler, error) {
	if b.failSamplers.Load() {
		return nil, errors.New("sampler limit reached")
	}
	b.samplers.Add(1)
	return &fakeSampler{backend: b, data: data}, nil
}

func (b *fakeBackend) lastCreated() common.TextureStagingData {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.created[len(b.created)-1]
}

// countingDecoder wraps the image decoder, counting calls and optionally blocking until released.
type countingDecoder struct {
	inner   Decoder
	calls   atomic.Int32
	entered chan struct{}
	gate    chan struct{}
	panics  bool
}

func newCountingDecoder() *countingDecoder {
	return &countingDecoder{inner: NewImageDecoder()}
}

func newGatedDecoder() *countingDecoder {
	d := newCountingDecoder()
	d.entered = make(chan struct{}, 64)
	d.gate = make(chan struct{})
	return d
}

func (d *countingDecoder) Decode(data []byte, desiredChannels int) (DecodedImage, error) {
	d.calls.Add(1)
	if d.panics {
		panic("corrupt decoder state")
	}
	if d.entered != nil {
		d.entered <- struct{}{}
	}
	if d.gate != nil {
		<-d.gate
	}
	return d.inner.Decode(data, desiredChannels)
}

func encodePNG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := range h {
		for x := range w {
			img.SetNRGBA(x, y, color.NRGBA{R: uint8(x * 10), G: uint8(y * 10), B: 200, A: 128})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func encodeJPEG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := range h {
		for x := range w {
			img.Set(x, y, color.RGBA{R: 200, G: 100, B: 50, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, img, nil))
	return buf.Bytes()
}

func writeFile(t *testing.T, dir, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return path
}
