// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package swapchain builds swapchains against the window surface a
// device was created for. Formats, present modes, extent and image
// count are negotiated against the surface capabilities, recreation
// after a window resize chains through the retired swapchain.
package swapchain

import (
	"errors"
	"math"
	"sync/atomic"

	vk "github.com/devblok/vulkan"

	"github.com/devblok/vkboot/core"
	"github.com/devblok/vkboot/device"
)

var (
	// ErrRequiredMinImageCountTooLow means the surface cannot go as
	// low as the demanded image count.
	ErrRequiredMinImageCountTooLow = errors.New("required minimum image count below surface capability")

	// ErrRequiredUsageNotSupported means the surface cannot create
	// images with the requested usage.
	ErrRequiredUsageNotSupported = errors.New("required image usage not supported by the surface")

	// ErrNoSurfaceFormats means the driver reported no formats for
	// the surface at all.
	ErrNoSurfaceFormats = errors.New("surface reports no formats")
)

// Builder collects swapchain parameters before creation. Defaults:
// 8 bit SRGB color, mailbox presentation falling back to FIFO, the
// surface's own extent and transform, one more image than the
// surface minimum, color attachment usage.
type Builder struct {
	dev *device.Device

	formats      []vk.SurfaceFormat
	presentModes []vk.PresentMode

	width  uint32
	height uint32

	minImageCount    uint32
	requiredMinCount bool

	usage vk.ImageUsageFlags

	arrayLayers uint32
	clipped     bool

	preTransform    vk.SurfaceTransformFlagBits
	hasPreTransform bool

	compositeAlpha    vk.CompositeAlphaFlagBits
	hasCompositeAlpha bool

	graphicsIndex uint32
	presentIndex  uint32
	hasIndices    bool

	oldSwapchain *Swapchain
}

// NewBuilder prepares swapchain creation on a device. The device's
// instance must carry a surface.
func NewBuilder(dev *device.Device) *Builder {
	return &Builder{
		dev:         dev,
		usage:       vk.ImageUsageFlags(vk.ImageUsageColorAttachmentBit),
		arrayLayers: 1,
		clipped:     true,
	}
}

// DesiredFormat makes this the first choice format, dropping
// previously configured ones.
func (b *Builder) DesiredFormat(format vk.SurfaceFormat) *Builder {
	b.formats = []vk.SurfaceFormat{format}
	return b
}

// AddFallbackFormat appends a format tried when earlier ones are
// unsupported.
func (b *Builder) AddFallbackFormat(format vk.SurfaceFormat) *Builder {
	b.formats = append(b.formats, format)
	return b
}

// UseDefaultFormats appends the default format preferences.
func (b *Builder) UseDefaultFormats() *Builder {
	b.formats = append(b.formats, defaultFormats()...)
	return b
}

// DesiredPresentMode makes this the first choice present mode,
// dropping previously configured ones.
func (b *Builder) DesiredPresentMode(mode vk.PresentMode) *Builder {
	b.presentModes = []vk.PresentMode{mode}
	return b
}

// AddFallbackPresentMode appends a present mode tried when earlier
// ones are unsupported.
func (b *Builder) AddFallbackPresentMode(mode vk.PresentMode) *Builder {
	b.presentModes = append(b.presentModes, mode)
	return b
}

// UseDefaultPresentModes appends the default present mode
// preferences.
func (b *Builder) UseDefaultPresentModes() *Builder {
	b.presentModes = append(b.presentModes, defaultPresentModes()...)
	return b
}

// DesiredExtent sets the wanted image size in pixels. Surfaces that
// dictate their extent win over this.
func (b *Builder) DesiredExtent(width, height uint32) *Builder {
	b.width = width
	b.height = height
	return b
}

// MinImageCount requests a minimum number of swapchain images,
// clamped into what the surface allows. Zero means surface minimum
// plus one.
func (b *Builder) MinImageCount(count uint32) *Builder {
	b.minImageCount = count
	b.requiredMinCount = false
	return b
}

// RequiredMinImageCount is MinImageCount that fails instead of
// clamping up when the surface minimum is higher.
func (b *Builder) RequiredMinImageCount(count uint32) *Builder {
	b.minImageCount = count
	b.requiredMinCount = true
	return b
}

// ImageUsage replaces the image usage flags.
func (b *Builder) ImageUsage(usage vk.ImageUsageFlags) *Builder {
	b.usage = usage
	return b
}

// AddImageUsage enables additional image usage bits.
func (b *Builder) AddImageUsage(usage vk.ImageUsageFlags) *Builder {
	b.usage |= usage
	return b
}

// ArrayLayers sets layers per image, more than one only makes sense
// for stereoscopic rendering.
func (b *Builder) ArrayLayers(layers uint32) *Builder {
	b.arrayLayers = layers
	return b
}

// Clipped lets the driver skip shading pixels another window covers,
// on by default.
func (b *Builder) Clipped(clipped bool) *Builder {
	b.clipped = clipped
	return b
}

// PreTransform overrides the surface transform, the surface's
// current transform is used otherwise.
func (b *Builder) PreTransform(transform vk.SurfaceTransformFlagBits) *Builder {
	b.preTransform = transform
	b.hasPreTransform = true
	return b
}

// CompositeAlpha overrides how the image is composited with other
// windows, the first mode the surface supports is used otherwise.
func (b *Builder) CompositeAlpha(alpha vk.CompositeAlphaFlagBits) *Builder {
	b.compositeAlpha = alpha
	b.hasCompositeAlpha = true
	return b
}

// QueueIndices overrides the graphics and present families the
// swapchain images are shared across, the device resolves them
// otherwise.
func (b *Builder) QueueIndices(graphics, present uint32) *Builder {
	b.graphicsIndex = graphics
	b.presentIndex = present
	b.hasIndices = true
	return b
}

// OldSwapchain chains creation through a swapchain being replaced.
// The old one is retired by the driver but still needs its Destroy.
func (b *Builder) OldSwapchain(old *Swapchain) *Builder {
	b.oldSwapchain = old
	return b
}

func defaultFormats() []vk.SurfaceFormat {
	return []vk.SurfaceFormat{
		{Format: vk.FormatB8g8r8a8Srgb, ColorSpace: vk.ColorSpaceSrgbNonlinear},
		{Format: vk.FormatR8g8b8a8Srgb, ColorSpace: vk.ColorSpaceSrgbNonlinear},
	}
}

func defaultPresentModes() []vk.PresentMode {
	return []vk.PresentMode{vk.PresentModeMailbox, vk.PresentModeFifo}
}

// chooseSurfaceFormat picks the first desired format the surface
// supports, else whatever the surface lists first.
func chooseSurfaceFormat(available, desired []vk.SurfaceFormat) vk.SurfaceFormat {
	for _, want := range desired {
		for _, have := range available {
			if have.Format == want.Format && have.ColorSpace == want.ColorSpace {
				return want
			}
		}
	}
	return available[0]
}

// choosePresentMode picks the first desired mode the surface
// supports. FIFO is the guaranteed fallback.
func choosePresentMode(available, desired []vk.PresentMode) vk.PresentMode {
	for _, want := range desired {
		for _, have := range available {
			if have == want {
				return want
			}
		}
	}
	return vk.PresentModeFifo
}

// chooseExtent resolves the image size. Surfaces that report a
// current extent dictate it, everything else clamps the request into
// the supported range.
func chooseExtent(caps vk.SurfaceCapabilities, width, height uint32) vk.Extent2D {
	if caps.CurrentExtent.Width != math.MaxUint32 {
		return vk.Extent2D{
			Width:  caps.CurrentExtent.Width,
			Height: caps.CurrentExtent.Height,
		}
	}
	if width == 0 || height == 0 {
		width, height = 800, 600
	}
	if width < caps.MinImageExtent.Width {
		width = caps.MinImageExtent.Width
	}
	if width > caps.MaxImageExtent.Width {
		width = caps.MaxImageExtent.Width
	}
	if height < caps.MinImageExtent.Height {
		height = caps.MinImageExtent.Height
	}
	if height > caps.MaxImageExtent.Height {
		height = caps.MaxImageExtent.Height
	}
	return vk.Extent2D{Width: width, Height: height}
}

// chooseImageCount clamps the requested image count into the
// surface's range. Zero requests one above the surface minimum.
func chooseImageCount(caps vk.SurfaceCapabilities, requested uint32) uint32 {
	count := requested
	if count == 0 {
		count = caps.MinImageCount + 1
	}
	if count < caps.MinImageCount {
		count = caps.MinImageCount
	}
	if caps.MaxImageCount > 0 && count > caps.MaxImageCount {
		count = caps.MaxImageCount
	}
	return count
}

// chooseCompositeAlpha scans for the first composition mode the
// surface supports.
func chooseCompositeAlpha(caps vk.SurfaceCapabilities) vk.CompositeAlphaFlagBits {
	order := []vk.CompositeAlphaFlagBits{
		vk.CompositeAlphaOpaqueBit,
		vk.CompositeAlphaPreMultipliedBit,
		vk.CompositeAlphaPostMultipliedBit,
		vk.CompositeAlphaInheritBit,
	}
	for _, bit := range order {
		if caps.SupportedCompositeAlpha&vk.CompositeAlphaFlags(bit) != 0 {
			return bit
		}
	}
	return vk.CompositeAlphaOpaqueBit
}

// chooseSharingMode shares images across families only when graphics
// and present live apart.
func chooseSharingMode(graphics, present uint32) vk.SharingMode {
	if graphics == present {
		return vk.SharingModeExclusive
	}
	return vk.SharingModeConcurrent
}

// Build negotiates against the surface and creates the swapchain.
// The new Swapchain retains the device until its own Destroy.
func (b *Builder) Build() (*Swapchain, error) {
	surface, ok := b.dev.Instance().Surface()
	if !ok {
		return nil, core.ErrSurfaceRequired
	}
	physical := b.dev.PhysicalDevice().Handle()

	var caps vk.SurfaceCapabilities
	if err := core.Check("vk.GetPhysicalDeviceSurfaceCapabilities", vk.GetPhysicalDeviceSurfaceCapabilities(physical, surface, &caps)); err != nil {
		return nil, err
	}
	caps.Deref()
	caps.CurrentExtent.Deref()
	caps.MinImageExtent.Deref()
	caps.MaxImageExtent.Deref()

	var formatCount uint32
	if err := core.Check("vk.GetPhysicalDeviceSurfaceFormats", vk.GetPhysicalDeviceSurfaceFormats(physical, surface, &formatCount, nil)); err != nil {
		return nil, err
	}
	available := make([]vk.SurfaceFormat, formatCount)
	if err := core.Check("vk.GetPhysicalDeviceSurfaceFormats", vk.GetPhysicalDeviceSurfaceFormats(physical, surface, &formatCount, available)); err != nil {
		return nil, err
	}
	if len(available) == 0 {
		return nil, ErrNoSurfaceFormats
	}
	for idx := range available {
		available[idx].Deref()
	}

	var modeCount uint32
	if err := core.Check("vk.GetPhysicalDeviceSurfacePresentModes", vk.GetPhysicalDeviceSurfacePresentModes(physical, surface, &modeCount, nil)); err != nil {
		return nil, err
	}
	modes := make([]vk.PresentMode, modeCount)
	if err := core.Check("vk.GetPhysicalDeviceSurfacePresentModes", vk.GetPhysicalDeviceSurfacePresentModes(physical, surface, &modeCount, modes)); err != nil {
		return nil, err
	}

	desiredFormats := b.formats
	if len(desiredFormats) == 0 {
		desiredFormats = defaultFormats()
	}
	desiredModes := b.presentModes
	if len(desiredModes) == 0 {
		desiredModes = defaultPresentModes()
	}

	format := chooseSurfaceFormat(available, desiredFormats)
	presentMode := choosePresentMode(modes, desiredModes)

	if b.requiredMinCount && b.minImageCount < caps.MinImageCount {
		return nil, ErrRequiredMinImageCountTooLow
	}
	imageCount := chooseImageCount(caps, b.minImageCount)

	if caps.SupportedUsageFlags&b.usage != b.usage {
		return nil, ErrRequiredUsageNotSupported
	}

	extent := chooseExtent(caps, b.width, b.height)

	graphicsIndex, presentIndex := b.graphicsIndex, b.presentIndex
	if !b.hasIndices {
		var err error
		if graphicsIndex, err = b.dev.QueueIndex(device.GraphicsQueue); err != nil {
			return nil, err
		}
		if presentIndex, err = b.dev.QueueIndex(device.PresentQueue); err != nil {
			return nil, err
		}
	}
	sharingMode := chooseSharingMode(graphicsIndex, presentIndex)

	preTransform := b.preTransform
	if !b.hasPreTransform {
		preTransform = caps.CurrentTransform
	}
	compositeAlpha := b.compositeAlpha
	if !b.hasCompositeAlpha {
		compositeAlpha = chooseCompositeAlpha(caps)
	}

	clipped := vk.Bool32(vk.False)
	if b.clipped {
		clipped = vk.Bool32(vk.True)
	}

	var old vk.Swapchain
	if b.oldSwapchain != nil {
		old = b.oldSwapchain.handle
	}

	createInfo := vk.SwapchainCreateInfo{
		SType:            vk.StructureTypeSwapchainCreateInfo,
		Surface:          surface,
		MinImageCount:    imageCount,
		ImageFormat:      format.Format,
		ImageColorSpace:  format.ColorSpace,
		ImageExtent:      extent,
		ImageArrayLayers: b.arrayLayers,
		ImageUsage:       b.usage,
		ImageSharingMode: sharingMode,
		PreTransform:     preTransform,
		CompositeAlpha:   compositeAlpha,
		PresentMode:      presentMode,
		Clipped:          clipped,
		OldSwapchain:     old,
	}
	if sharingMode == vk.SharingModeConcurrent {
		indices := []uint32{graphicsIndex, presentIndex}
		createInfo.QueueFamilyIndexCount = uint32(len(indices))
		createInfo.PQueueFamilyIndices = indices
	}

	var handle vk.Swapchain
	if err := core.Check("vk.CreateSwapchain", vk.CreateSwapchain(b.dev.Handle(), &createInfo, nil, &handle)); err != nil {
		return nil, err
	}

	b.dev.Retain()
	return &Swapchain{
		refs:        1,
		handle:      handle,
		dev:         b.dev,
		format:      format.Format,
		colorSpace:  format.ColorSpace,
		extent:      extent,
		presentMode: presentMode,
		imageCount:  imageCount,
		usage:       b.usage,
	}, nil
}

// Swapchain owns a vk.Swapchain and remembers what it negotiated.
// It holds a reference on the device it was created on.
type Swapchain struct {
	refs int32

	handle vk.Swapchain
	dev    *device.Device

	format      vk.Format
	colorSpace  vk.ColorSpace
	extent      vk.Extent2D
	presentMode vk.PresentMode
	imageCount  uint32
	usage       vk.ImageUsageFlags
}

// Handle returns the raw swapchain for calls the library does not
// wrap.
func (s *Swapchain) Handle() vk.Swapchain {
	return s.handle
}

// Format is the negotiated image format.
func (s *Swapchain) Format() vk.Format {
	return s.format
}

// ColorSpace is the negotiated color space.
func (s *Swapchain) ColorSpace() vk.ColorSpace {
	return s.colorSpace
}

// Extent is the image size the swapchain was created with.
func (s *Swapchain) Extent() vk.Extent2D {
	return s.extent
}

// PresentMode is the negotiated presentation mode.
func (s *Swapchain) PresentMode() vk.PresentMode {
	return s.presentMode
}

// ImageCount is the image count handed to the driver. The driver may
// actually allocate more, Images tells the truth.
func (s *Swapchain) ImageCount() uint32 {
	return s.imageCount
}

// Images fetches the swapchain's images. They belong to the
// swapchain and go away with it.
func (s *Swapchain) Images() ([]vk.Image, error) {
	var count uint32
	if err := core.Check("vk.GetSwapchainImages", vk.GetSwapchainImages(s.dev.Handle(), s.handle, &count, nil)); err != nil {
		return nil, err
	}
	images := make([]vk.Image, count)
	if err := core.Check("vk.GetSwapchainImages", vk.GetSwapchainImages(s.dev.Handle(), s.handle, &count, images)); err != nil {
		return nil, err
	}
	return images, nil
}

// ImageViews creates a 2D color view with identity swizzles for
// every swapchain image. The views are the caller's to destroy, half
// built sets are cleaned up on failure.
func (s *Swapchain) ImageViews() ([]vk.ImageView, error) {
	images, err := s.Images()
	if err != nil {
		return nil, err
	}

	var views []vk.ImageView
	for _, image := range images {
		createInfo := vk.ImageViewCreateInfo{
			SType:    vk.StructureTypeImageViewCreateInfo,
			Image:    image,
			ViewType: vk.ImageViewType2d,
			Format:   s.format,
			Components: vk.ComponentMapping{
				R: vk.ComponentSwizzleIdentity,
				G: vk.ComponentSwizzleIdentity,
				B: vk.ComponentSwizzleIdentity,
				A: vk.ComponentSwizzleIdentity,
			},
			SubresourceRange: vk.ImageSubresourceRange{
				AspectMask: vk.ImageAspectFlags(vk.ImageAspectColorBit),
				LevelCount: 1,
				LayerCount: 1,
			},
		}
		var view vk.ImageView
		if err := core.Check("vk.CreateImageView", vk.CreateImageView(s.dev.Handle(), &createInfo, nil, &view)); err != nil {
			s.DestroyImageViews(views)
			return nil, err
		}
		views = append(views, view)
	}
	return views, nil
}

// DestroyImageViews releases views created by ImageViews.
func (s *Swapchain) DestroyImageViews(views []vk.ImageView) {
	for _, view := range views {
		vk.DestroyImageView(s.dev.Handle(), view, nil)
	}
}

// Recreate builds a replacement swapchain for a new window size,
// keeping the negotiated format, mode and image count. The old
// swapchain is retired by the driver but still needs its Destroy,
// after the last command buffer referencing it finished.
func (s *Swapchain) Recreate(width, height uint32) (*Swapchain, error) {
	return NewBuilder(s.dev).
		DesiredFormat(vk.SurfaceFormat{Format: s.format, ColorSpace: s.colorSpace}).
		DesiredPresentMode(s.presentMode).
		ImageUsage(s.usage).
		MinImageCount(s.imageCount).
		DesiredExtent(width, height).
		OldSwapchain(s).
		Build()
}

// Retain adds a reference for holders that outlive the creator.
func (s *Swapchain) Retain() {
	atomic.AddInt32(&s.refs, 1)
}

// Destroy releases one reference. The native swapchain is destroyed
// with the last one, then the device reference is released.
func (s *Swapchain) Destroy() {
	if atomic.AddInt32(&s.refs, -1) != 0 {
		return
	}
	vk.DestroySwapchain(s.dev.Handle(), s.handle, nil)
	s.dev.Destroy()
}
