package device_test

import (
	"testing"

	vk "github.com/devblok/vulkan"

	"github.com/devblok/vkboot/device"
)

func TestQueueTypeString(t *testing.T) {
	classes := map[device.QueueType]string{
		device.GraphicsQueue: "graphics",
		device.ComputeQueue:  "compute",
		device.TransferQueue: "transfer",
		device.PresentQueue:  "present",
	}
	for class, expected := range classes {
		if class.String() != expected {
			t.Errorf("expected %q, got %q", expected, class.String())
		}
	}
}

func TestTypeString(t *testing.T) {
	if s := device.TypeString(vk.PhysicalDeviceTypeDiscreteGpu); s != "discrete" {
		t.Errorf("unexpected type name %q", s)
	}
	if s := device.TypeString(vk.PhysicalDeviceTypeOther); s != "other" {
		t.Errorf("unexpected type name %q", s)
	}
}

func TestQueueFlagString(t *testing.T) {
	flags := vk.QueueFlags(vk.QueueGraphicsBit | vk.QueueComputeBit | vk.QueueTransferBit)
	if s := device.QueueFlagString(flags); s != "graphics|compute|transfer" {
		t.Errorf("unexpected flag string %q", s)
	}
	if s := device.QueueFlagString(0); s != "none" {
		t.Errorf("unexpected flag string %q", s)
	}
}

func TestEnableExtensionIfPresent(t *testing.T) {
	var dev device.PhysicalDevice
	if dev.EnableExtensionIfPresent("VK_KHR_swapchain") {
		t.Error("enabled an extension on a device that has none")
	}
	if len(dev.EnabledExtensions()) != 0 {
		t.Error("nothing should be queued for enabling")
	}
}
