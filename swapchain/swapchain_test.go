// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package swapchain

import (
	"math"
	"testing"

	vk "github.com/devblok/vulkan"
)

func surfaceCaps() vk.SurfaceCapabilities {
	return vk.SurfaceCapabilities{
		MinImageCount:  2,
		MaxImageCount:  8,
		CurrentExtent:  vk.Extent2D{Width: math.MaxUint32, Height: math.MaxUint32},
		MinImageExtent: vk.Extent2D{Width: 200, Height: 100},
		MaxImageExtent: vk.Extent2D{Width: 2000, Height: 1000},
	}
}

func TestChooseSurfaceFormat(t *testing.T) {
	available := []vk.SurfaceFormat{
		{Format: vk.FormatR8g8b8a8Unorm, ColorSpace: vk.ColorSpaceSrgbNonlinear},
		{Format: vk.FormatB8g8r8a8Srgb, ColorSpace: vk.ColorSpaceSrgbNonlinear},
	}

	picked := chooseSurfaceFormat(available, defaultFormats())
	if picked.Format != vk.FormatB8g8r8a8Srgb {
		t.Errorf("expected the default SRGB format, got %d", picked.Format)
	}

	desired := []vk.SurfaceFormat{
		{Format: vk.FormatB8g8r8a8Unorm, ColorSpace: vk.ColorSpaceSrgbNonlinear},
	}
	picked = chooseSurfaceFormat(available, desired)
	if picked.Format != vk.FormatR8g8b8a8Unorm {
		t.Errorf("expected fallback to the first available format, got %d", picked.Format)
	}
}

func TestChoosePresentMode(t *testing.T) {
	available := []vk.PresentMode{vk.PresentModeFifo, vk.PresentModeImmediate}

	if mode := choosePresentMode(available, defaultPresentModes()); mode != vk.PresentModeFifo {
		t.Errorf("expected FIFO without mailbox support, got %d", mode)
	}
	if mode := choosePresentMode(available, []vk.PresentMode{vk.PresentModeImmediate}); mode != vk.PresentModeImmediate {
		t.Errorf("expected the desired immediate mode, got %d", mode)
	}
	if mode := choosePresentMode(nil, []vk.PresentMode{vk.PresentModeMailbox}); mode != vk.PresentModeFifo {
		t.Errorf("expected the guaranteed FIFO fallback, got %d", mode)
	}
}

func TestChooseExtentSurfaceDictates(t *testing.T) {
	caps := surfaceCaps()
	caps.CurrentExtent = vk.Extent2D{Width: 1280, Height: 720}

	extent := chooseExtent(caps, 640, 480)
	if extent.Width != 1280 || extent.Height != 720 {
		t.Errorf("expected the surface extent to win, got %dx%d", extent.Width, extent.Height)
	}
}

func TestChooseExtentClamps(t *testing.T) {
	caps := surfaceCaps()

	extent := chooseExtent(caps, 100, 5000)
	if extent.Width != 200 {
		t.Errorf("expected width raised to the minimum, got %d", extent.Width)
	}
	if extent.Height != 1000 {
		t.Errorf("expected height capped to the maximum, got %d", extent.Height)
	}

	extent = chooseExtent(caps, 0, 0)
	if extent.Width != 800 || extent.Height != 600 {
		t.Errorf("expected the default extent when none desired, got %dx%d", extent.Width, extent.Height)
	}
}

func TestChooseImageCount(t *testing.T) {
	caps := surfaceCaps()

	if count := chooseImageCount(caps, 0); count != 3 {
		t.Errorf("expected one above the surface minimum, got %d", count)
	}
	if count := chooseImageCount(caps, 1); count != 2 {
		t.Errorf("expected the count raised to the minimum, got %d", count)
	}
	if count := chooseImageCount(caps, 100); count != 8 {
		t.Errorf("expected the count capped to the maximum, got %d", count)
	}

	caps.MaxImageCount = 0
	if count := chooseImageCount(caps, 100); count != 100 {
		t.Errorf("expected no cap on an unbounded surface, got %d", count)
	}
}

func TestChooseCompositeAlpha(t *testing.T) {
	caps := surfaceCaps()
	caps.SupportedCompositeAlpha = vk.CompositeAlphaFlags(vk.CompositeAlphaPostMultipliedBit)

	if alpha := chooseCompositeAlpha(caps); alpha != vk.CompositeAlphaPostMultipliedBit {
		t.Errorf("expected the only supported mode, got %d", alpha)
	}

	caps.SupportedCompositeAlpha = vk.CompositeAlphaFlags(vk.CompositeAlphaOpaqueBit | vk.CompositeAlphaInheritBit)
	if alpha := chooseCompositeAlpha(caps); alpha != vk.CompositeAlphaOpaqueBit {
		t.Errorf("expected opaque preferred, got %d", alpha)
	}
}

func TestChooseSharingMode(t *testing.T) {
	if mode := chooseSharingMode(0, 0); mode != vk.SharingModeExclusive {
		t.Error("expected exclusive sharing for a single family")
	}
	if mode := chooseSharingMode(0, 2); mode != vk.SharingModeConcurrent {
		t.Error("expected concurrent sharing across families")
	}
}

func TestBuilderDefaults(t *testing.T) {
	builder := NewBuilder(nil)

	if builder.usage != vk.ImageUsageFlags(vk.ImageUsageColorAttachmentBit) {
		t.Error("expected color attachment usage by default")
	}
	if builder.arrayLayers != 1 {
		t.Errorf("expected a single array layer by default, got %d", builder.arrayLayers)
	}
	if !builder.clipped {
		t.Error("expected clipping on by default")
	}
}

func TestBuilderAccumulates(t *testing.T) {
	builder := NewBuilder(nil).
		UseDefaultFormats().
		AddFallbackFormat(vk.SurfaceFormat{Format: vk.FormatB8g8r8a8Unorm, ColorSpace: vk.ColorSpaceSrgbNonlinear}).
		DesiredPresentMode(vk.PresentModeImmediate).
		RequiredMinImageCount(2).
		AddImageUsage(vk.ImageUsageFlags(vk.ImageUsageTransferDstBit)).
		DesiredExtent(1024, 768)

	if len(builder.formats) != 3 {
		t.Errorf("expected defaults plus one fallback, got %d formats", len(builder.formats))
	}
	if len(builder.presentModes) != 1 || builder.presentModes[0] != vk.PresentModeImmediate {
		t.Error("expected the desired present mode to drop earlier choices")
	}
	if !builder.requiredMinCount || builder.minImageCount != 2 {
		t.Error("expected a hard minimum image count")
	}
	want := vk.ImageUsageFlags(vk.ImageUsageColorAttachmentBit | vk.ImageUsageTransferDstBit)
	if builder.usage != want {
		t.Errorf("expected usage bits to accumulate, got %b", builder.usage)
	}
	if builder.width != 1024 || builder.height != 768 {
		t.Error("expected the desired extent recorded")
	}

	builder.DesiredFormat(vk.SurfaceFormat{Format: vk.FormatR8g8b8a8Srgb, ColorSpace: vk.ColorSpaceSrgbNonlinear})
	if len(builder.formats) != 1 {
		t.Error("expected the desired format to drop earlier choices")
	}

	builder.MinImageCount(3)
	if builder.requiredMinCount {
		t.Error("expected MinImageCount to relax the hard minimum")
	}
}
