package texture

import (
	"errors"
	"fmt"
	"sync"

	"github.com/Carmen-Shannon/oxy-assets/common"

	"github.com/cogentcore/webgpu/wgpu"
)

// WGPUTexture is the GPUTexture created by the WebGPU backend. Renderers bind View directly.
type WGPUTexture struct {
	Texture *wgpu.Texture
	View    *wgpu.TextureView
}

// Release frees the view and the texture.
func (t *WGPUTexture) Release() {
	if t.View != nil {
		t.View.Release()
		t.View = nil
	}
	if t.Texture != nil {
		t.Texture.Release()
		t.Texture = nil
	}
}

// WGPUSampler is the GPUSampler created by the WebGPU backend.
type WGPUSampler struct {
	Sampler *wgpu.Sampler
}

// Release frees the sampler.
func (s *WGPUSampler) Release() {
	if s.Sampler != nil {
		s.Sampler.Release()
		s.Sampler = nil
	}
}

// wgpuBackendImpl is the implementation of the Backend interface on top of WebGPU.
type wgpuBackendImpl struct {
	mu sync.Mutex

	instance *wgpu.Instance
	adapter  *wgpu.Adapter
	device   *wgpu.Device
	queue    *wgpu.Queue

	ownsDevice bool
}

// WGPUBackend is a Backend that allocates textures on a WebGPU device.
type WGPUBackend interface {
	Backend

	// Device returns the WebGPU device textures are created on.
	//
	// Returns:
	//   - *wgpu.Device: the device
	Device() *wgpu.Device

	// Release frees the device, adapter and instance if the backend created them.
	Release()
}

var _ WGPUBackend = &wgpuBackendImpl{}

// NewWGPUBackend creates a Backend on an existing device, typically the renderer's.
//
// Parameters:
//   - device: the WebGPU device
//   - queue: the device queue used for uploads
//
// Returns:
//   - WGPUBackend: the backend
func NewWGPUBackend(device *wgpu.Device, queue *wgpu.Queue) WGPUBackend {
	if device == nil || queue == nil {
		panic("texture: NewWGPUBackend requires a device and queue")
	}
	return &wgpuBackendImpl{
		device: device,
		queue:  queue,
	}
}

// NewHeadlessWGPUBackend creates a Backend on a device of its own, without a surface. This is used by
// tools that load assets without opening a window.
//
// Parameters:
//   - forceFallbackAdapter: request the software fallback adapter
//
// Returns:
//   - WGPUBackend: the backend
//   - error: error if no adapter or device is available
func NewHeadlessWGPUBackend(forceFallbackAdapter bool) (WGPUBackend, error) {
	instance := wgpu.CreateInstance(nil)

	a, err := instance.RequestAdapter(&wgpu.RequestAdapterOptions{
		ForceFallbackAdapter: forceFallbackAdapter,
	})
	if err != nil {
		instance.Release()
		return nil, fmt.Errorf("failed to request adapter: %w", err)
	}

	d, err := a.RequestDevice(&wgpu.DeviceDescriptor{
		Label: "Asset Device",
		RequiredLimits: &wgpu.RequiredLimits{
			Limits: wgpu.DefaultLimits(),
		},
	})
	if err != nil {
		a.Release()
		instance.Release()
		return nil, fmt.Errorf("failed to request device: %w", err)
	}

	return &wgpuBackendImpl{
		instance:   instance,
		adapter:    a,
		device:     d,
		queue:      d.GetQueue(),
		ownsDevice: true,
	}, nil
}

func (b *wgpuBackendImpl) Device() *wgpu.Device {
	return b.device
}

func (b *wgpuBackendImpl) Release() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.ownsDevice {
		return
	}
	if b.device != nil {
		b.device.Release()
		b.device = nil
	}
	if b.adapter != nil {
		b.adapter.Release()
		b.adapter = nil
	}
	if b.instance != nil {
		b.instance.Release()
		b.instance = nil
	}
}

func (b *wgpuBackendImpl) CreateTexture(data common.TextureStagingData) (GPUTexture, error) {
	if data.Width == 0 || data.Height == 0 {
		return nil, errors.New("texture has zero extent")
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.device == nil {
		return nil, errors.New("backend released")
	}

	mipLevelCount := data.MipLevelCount()
	tex, err := b.device.CreateTexture(&wgpu.TextureDescriptor{
		Label:     data.Label + " Texture",
		Usage:     wgpu.TextureUsageTextureBinding | wgpu.TextureUsageCopyDst,
		Dimension: wgpu.TextureDimension2D,
		Size: wgpu.Extent3D{
			Width:              data.Width,
			Height:             data.Height,
			DepthOrArrayLayers: 1,
		},
		Format:        data.Format,
		MipLevelCount: mipLevelCount,
		SampleCount:   1,
	})
	if err != nil {
		return nil, err
	}

	levels := append([][]byte{data.Pixels}, data.MipLevels...)
	width, height := data.Width, data.Height
	for level, pixels := range levels {
		b.queue.WriteTexture(
			&wgpu.ImageCopyTexture{
				Texture:  tex,
				MipLevel: uint32(level),
				Origin:   wgpu.Origin3D{},
				Aspect:   wgpu.TextureAspectAll,
			},
			pixels,
			&wgpu.TextureDataLayout{
				Offset:       0,
				BytesPerRow:  width * uint32(data.Channels),
				RowsPerImage: height,
			},
			&wgpu.Extent3D{
				Width:              width,
				Height:             height,
				DepthOrArrayLayers: 1,
			},
		)
		width, height = max(width/2, 1), max(height/2, 1)
	}

	view, err := tex.CreateView(nil)
	if err != nil {
		tex.Release()
		return nil, err
	}

	return &WGPUTexture{Texture: tex, View: view}, nil
}

func (b *wgpuBackendImpl) CreateSampler(label string, data common.SamplerStagingData) (GPUSampler, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.device == nil {
		return nil, errors.New("backend released")
	}

	samp, err := b.device.CreateSampler(&wgpu.SamplerDescriptor{
		Label:         label + " Sampler",
		AddressModeU:  common.Coalesce(data.AddressModeU, wgpu.AddressModeRepeat),
		AddressModeV:  common.Coalesce(data.AddressModeV, wgpu.AddressModeRepeat),
		AddressModeW:  common.Coalesce(data.AddressModeW, wgpu.AddressModeRepeat),
		MagFilter:     common.Coalesce(data.MagFilter, wgpu.FilterModeLinear),
		MinFilter:     common.Coalesce(data.MinFilter, wgpu.FilterModeLinear),
		MipmapFilter:  common.Coalesce(data.MipmapFilter, wgpu.MipmapFilterModeLinear),
		LodMinClamp:   common.Coalesce(data.LodMinClamp, 0.0),
		LodMaxClamp:   common.Coalesce(data.LodMaxClamp, 32.0),
		MaxAnisotropy: common.Coalesce(data.MaxAnisotropy, 1),
		Compare:       data.Compare,
	})
	if err != nil {
		return nil, err
	}
	return &WGPUSampler{Sampler: samp}, nil
}
