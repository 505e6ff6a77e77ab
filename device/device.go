// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package device picks a physical device by criteria and turns it
// into a logical device with queues resolved by capability class.
// It sits between the instance and the swapchain: a Selector needs a
// built core.Instance, a Device keeps that instance alive until its
// own Destroy.
package device

import (
	"errors"

	vk "github.com/devblok/vulkan"

	"github.com/devblok/vkboot/core"
)

var (
	// ErrNoDevices means the instance sees no Vulkan capable hardware.
	ErrNoDevices = errors.New("no vulkan capable devices found")

	// ErrNoSuitableDevice means hardware exists but nothing satisfies
	// the selection criteria.
	ErrNoSuitableDevice = errors.New("no device satisfies the selection criteria")

	// ErrGraphicsUnavailable and friends mean the built device has no
	// queue family for the asked capability class.
	ErrGraphicsUnavailable = errors.New("no graphics queue family")
	ErrComputeUnavailable  = errors.New("no compute queue family")
	ErrTransferUnavailable = errors.New("no transfer queue family")
	ErrPresentUnavailable  = errors.New("no queue family can present to the surface")
)

// PhysicalDevice is a piece of hardware plus everything the selector
// learned about it. All driver queries happen once at construction,
// suitability checks and info dumps read the cache.
type PhysicalDevice struct {
	handle vk.PhysicalDevice

	properties vk.PhysicalDeviceProperties
	features   vk.PhysicalDeviceFeatures
	memory     vk.PhysicalDeviceMemoryProperties
	families   []vk.QueueFamilyProperties
	extensions []string

	enabled   []string
	requested vk.PhysicalDeviceFeatures
}

// newPhysicalDevice queries and caches a device's properties,
// features, memory layout, queue families and extension set.
func newPhysicalDevice(handle vk.PhysicalDevice) (*PhysicalDevice, error) {
	d := &PhysicalDevice{handle: handle}

	vk.GetPhysicalDeviceProperties(handle, &d.properties)
	d.properties.Deref()
	vk.GetPhysicalDeviceFeatures(handle, &d.features)
	d.features.Deref()
	vk.GetPhysicalDeviceMemoryProperties(handle, &d.memory)
	d.memory.Deref()

	var familyCount uint32
	vk.GetPhysicalDeviceQueueFamilyProperties(handle, &familyCount, nil)
	d.families = make([]vk.QueueFamilyProperties, familyCount)
	vk.GetPhysicalDeviceQueueFamilyProperties(handle, &familyCount, d.families)
	for idx := range d.families {
		d.families[idx].Deref()
	}

	var extCount uint32
	if err := core.Check("vk.EnumerateDeviceExtensionProperties", vk.EnumerateDeviceExtensionProperties(handle, "", &extCount, nil)); err != nil {
		return nil, err
	}
	extProps := make([]vk.ExtensionProperties, extCount)
	if err := core.Check("vk.EnumerateDeviceExtensionProperties", vk.EnumerateDeviceExtensionProperties(handle, "", &extCount, extProps)); err != nil {
		return nil, err
	}
	for _, ext := range extProps {
		ext.Deref()
		d.extensions = append(d.extensions, vk.ToString(ext.ExtensionName[:]))
	}
	return d, nil
}

// Handle returns the raw physical device.
func (d *PhysicalDevice) Handle() vk.PhysicalDevice {
	return d.handle
}

// Name is the device name the driver reports.
func (d *PhysicalDevice) Name() string {
	return vk.ToString(d.properties.DeviceName[:])
}

// Type is the hardware class the driver reports.
func (d *PhysicalDevice) Type() vk.PhysicalDeviceType {
	return d.properties.DeviceType
}

// Version is the newest Vulkan version the device implements.
func (d *PhysicalDevice) Version() core.Version {
	return core.VersionFromPacked(d.properties.ApiVersion)
}

// VendorID identifies the GPU vendor.
func (d *PhysicalDevice) VendorID() uint32 {
	return d.properties.VendorID
}

// DeviceID identifies the GPU model.
func (d *PhysicalDevice) DeviceID() uint32 {
	return d.properties.DeviceID
}

// PipelineCacheUUID changes whenever the driver stops accepting
// previously stored pipeline caches.
func (d *PhysicalDevice) PipelineCacheUUID() [16]byte {
	return d.properties.PipelineCacheUUID
}

// Features returns the feature set the hardware supports.
func (d *PhysicalDevice) Features() vk.PhysicalDeviceFeatures {
	return d.features
}

// QueueFamilies returns the cached queue family properties.
func (d *PhysicalDevice) QueueFamilies() []vk.QueueFamilyProperties {
	return d.families
}

// Extensions lists every device extension the hardware supports.
func (d *PhysicalDevice) Extensions() []string {
	return d.extensions
}

// HasExtension reports whether the device supports an extension.
func (d *PhysicalDevice) HasExtension(name string) bool {
	for _, ext := range d.extensions {
		if ext == name {
			return true
		}
	}
	return false
}

// EnableExtensionIfPresent marks an extension for enabling at device
// creation when the hardware has it. Reports whether it did.
func (d *PhysicalDevice) EnableExtensionIfPresent(name string) bool {
	if !d.HasExtension(name) {
		return false
	}
	for _, enabled := range d.enabled {
		if enabled == name {
			return true
		}
	}
	d.enabled = append(d.enabled, name)
	return true
}

// EnableExtensionsIfPresent marks every supported extension of the
// list and returns the ones it could.
func (d *PhysicalDevice) EnableExtensionsIfPresent(names []string) []string {
	var enabled []string
	for _, name := range names {
		if d.EnableExtensionIfPresent(name) {
			enabled = append(enabled, name)
		}
	}
	return enabled
}

// EnabledExtensions lists the extensions queued up for device
// creation, selector requirements included.
func (d *PhysicalDevice) EnabledExtensions() []string {
	return d.enabled
}

// localMemorySize is the largest device local heap.
func (d *PhysicalDevice) localMemorySize() vk.DeviceSize {
	var largest vk.DeviceSize
	for idx := uint32(0); idx < d.memory.MemoryHeapCount; idx++ {
		d.memory.MemoryHeaps[idx].Deref()
		heap := d.memory.MemoryHeaps[idx]
		if heap.Flags&vk.MemoryHeapFlags(vk.MemoryHeapDeviceLocalBit) == 0 {
			continue
		}
		if heap.Size > largest {
			largest = heap.Size
		}
	}
	return largest
}

// Info builds the serializable summary of this device.
func (d *PhysicalDevice) Info() Info {
	return describeDevice(d.handle)
}

// QueueFamilyInfo is one queue family in an Info summary.
type QueueFamilyInfo struct {
	Index uint32 `json:"index"`
	Count uint32 `json:"count"`
	Flags string `json:"flags"`
}

// Info describes a physical device for display. Invalid devices had
// enumeration failures, their remaining fields are best effort.
type Info struct {
	Name          string            `json:"name"`
	Type          string            `json:"type"`
	DeviceID      uint32            `json:"deviceId"`
	VendorID      uint32            `json:"vendorId"`
	APIVersion    string            `json:"apiVersion"`
	DriverVersion uint32            `json:"driverVersion"`
	Memory        vk.DeviceSize     `json:"memory"`
	QueueFamilies []QueueFamilyInfo `json:"queueFamilies"`
	Extensions    []string          `json:"extensions"`
	Layers        []string          `json:"layers"`
	Invalid       bool              `json:"invalid,omitempty"`
}

// EnumerateInfo summarizes every device the instance sees. Failures
// on a single device mark it invalid instead of failing the whole
// enumeration, a tool wants to show the healthy ones regardless.
func EnumerateInfo(instance *core.Instance) ([]Info, error) {
	handles, err := instance.PhysicalDevices()
	if err != nil {
		return nil, err
	}
	infos := make([]Info, len(handles))
	for idx, handle := range handles {
		infos[idx] = describeDevice(handle)
	}
	return infos, nil
}

func describeDevice(handle vk.PhysicalDevice) Info {
	var info Info

	var properties vk.PhysicalDeviceProperties
	vk.GetPhysicalDeviceProperties(handle, &properties)
	properties.Deref()
	info.Name = vk.ToString(properties.DeviceName[:])
	info.Type = TypeString(properties.DeviceType)
	info.DeviceID = properties.DeviceID
	info.VendorID = properties.VendorID
	info.APIVersion = core.VersionFromPacked(properties.ApiVersion).String()
	info.DriverVersion = properties.DriverVersion

	var memory vk.PhysicalDeviceMemoryProperties
	vk.GetPhysicalDeviceMemoryProperties(handle, &memory)
	memory.Deref()
	for idx := uint32(0); idx < memory.MemoryHeapCount; idx++ {
		memory.MemoryHeaps[idx].Deref()
		info.Memory += memory.MemoryHeaps[idx].Size
	}

	var familyCount uint32
	vk.GetPhysicalDeviceQueueFamilyProperties(handle, &familyCount, nil)
	families := make([]vk.QueueFamilyProperties, familyCount)
	vk.GetPhysicalDeviceQueueFamilyProperties(handle, &familyCount, families)
	for idx := range families {
		families[idx].Deref()
		info.QueueFamilies = append(info.QueueFamilies, QueueFamilyInfo{
			Index: uint32(idx),
			Count: families[idx].QueueCount,
			Flags: QueueFlagString(families[idx].QueueFlags),
		})
	}

	var extCount uint32
	if err := core.Check("vk.EnumerateDeviceExtensionProperties", vk.EnumerateDeviceExtensionProperties(handle, "", &extCount, nil)); err != nil {
		info.Invalid = true
	}
	extProps := make([]vk.ExtensionProperties, extCount)
	if err := core.Check("vk.EnumerateDeviceExtensionProperties", vk.EnumerateDeviceExtensionProperties(handle, "", &extCount, extProps)); err != nil {
		info.Invalid = true
	}
	for _, ext := range extProps {
		ext.Deref()
		info.Extensions = append(info.Extensions, vk.ToString(ext.ExtensionName[:]))
	}

	var layerCount uint32
	if err := core.Check("vk.EnumerateDeviceLayerProperties", vk.EnumerateDeviceLayerProperties(handle, &layerCount, nil)); err != nil {
		info.Invalid = true
	}
	layerProps := make([]vk.LayerProperties, layerCount)
	if err := core.Check("vk.EnumerateDeviceLayerProperties", vk.EnumerateDeviceLayerProperties(handle, &layerCount, layerProps)); err != nil {
		info.Invalid = true
	}
	for _, layer := range layerProps {
		layer.Deref()
		info.Layers = append(info.Layers, vk.ToString(layer.LayerName[:]))
	}

	return info
}

// TypeString names a hardware class for display.
func TypeString(t vk.PhysicalDeviceType) string {
	switch t {
	case vk.PhysicalDeviceTypeIntegratedGpu:
		return "integrated"
	case vk.PhysicalDeviceTypeDiscreteGpu:
		return "discrete"
	case vk.PhysicalDeviceTypeVirtualGpu:
		return "virtual"
	case vk.PhysicalDeviceTypeCpu:
		return "cpu"
	default:
		return "other"
	}
}

// QueueFlagString names the capabilities of a queue family for
// display, "graphics|compute|transfer" style.
func QueueFlagString(flags vk.QueueFlags) string {
	var out string
	appendFlag := func(bit vk.QueueFlagBits, name string) {
		if flags&vk.QueueFlags(bit) == 0 {
			return
		}
		if out != "" {
			out += "|"
		}
		out += name
	}
	appendFlag(vk.QueueGraphicsBit, "graphics")
	appendFlag(vk.QueueComputeBit, "compute")
	appendFlag(vk.QueueTransferBit, "transfer")
	appendFlag(vk.QueueSparseBindingBit, "sparse")
	if out == "" {
		out = "none"
	}
	return out
}
