// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package device

import (
	"errors"
	"sync/atomic"
	"unsafe"

	vk "github.com/devblok/vulkan"
	"github.com/sirupsen/logrus"

	"github.com/devblok/vkboot/core"
)

// QueueType is a queue capability class.
type QueueType int

// The capability classes queues are resolved by.
const (
	GraphicsQueue QueueType = iota
	ComputeQueue
	TransferQueue
	PresentQueue
)

func (t QueueType) String() string {
	switch t {
	case GraphicsQueue:
		return "graphics"
	case ComputeQueue:
		return "compute"
	case TransferQueue:
		return "transfer"
	case PresentQueue:
		return "present"
	default:
		return "unknown"
	}
}

// DeviceBuilder turns a selected physical device into a logical
// device. By default it creates one queue at priority 1.0 in every
// family and enables the extensions the selector required plus
// VK_KHR_swapchain whenever the instance carries a surface.
type DeviceBuilder struct {
	physical *PhysicalDevice
	instance *core.Instance

	priorities  map[uint32][]float32
	extensions  []string
	features    vk.PhysicalDeviceFeatures
	hasFeatures bool
}

// NewDeviceBuilder prepares device creation from a selected physical
// device on the instance it came from.
func NewDeviceBuilder(physical *PhysicalDevice, instance *core.Instance) *DeviceBuilder {
	return &DeviceBuilder{physical: physical, instance: instance}
}

// QueuePriorities replaces the default queue setup for one family.
// Once any family is described this way, only described families get
// queues at all.
func (b *DeviceBuilder) QueuePriorities(family uint32, priorities []float32) *DeviceBuilder {
	if b.priorities == nil {
		b.priorities = make(map[uint32][]float32)
	}
	b.priorities[family] = priorities
	return b
}

// EnableExtension adds a device extension on top of what the
// selector already required.
func (b *DeviceBuilder) EnableExtension(name string) *DeviceBuilder {
	b.extensions = append(b.extensions, name)
	return b
}

// EnableExtensions adds several device extensions.
func (b *DeviceBuilder) EnableExtensions(names []string) *DeviceBuilder {
	b.extensions = append(b.extensions, names...)
	return b
}

// Features overrides the feature set enabled on the device. Unset,
// the features the selector required are enabled.
func (b *DeviceBuilder) Features(features vk.PhysicalDeviceFeatures) *DeviceBuilder {
	b.features = features
	b.hasFeatures = true
	return b
}

// Build creates the logical device. The new Device retains the
// instance until its own Destroy.
func (b *DeviceBuilder) Build() (*Device, error) {
	seen := make(map[string]struct{})
	var extensions []string
	add := func(names []string) {
		for _, name := range names {
			if _, ok := seen[name]; ok {
				continue
			}
			seen[name] = struct{}{}
			extensions = append(extensions, name)
		}
	}
	add(b.physical.EnabledExtensions())
	add(b.extensions)
	if _, ok := b.instance.Surface(); ok {
		add([]string{vk.KhrSwapchainExtensionName})
	}

	var missing []string
	for _, name := range extensions {
		if !b.physical.HasExtension(name) {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		logrus.WithField("extensions", missing).Error("device extensions not present")
		return nil, core.ErrExtensionsNotPresent
	}

	var queueInfos []vk.DeviceQueueCreateInfo
	if len(b.priorities) > 0 {
		for idx := range b.physical.families {
			priorities, ok := b.priorities[uint32(idx)]
			if !ok {
				continue
			}
			queueInfos = append(queueInfos, vk.DeviceQueueCreateInfo{
				SType:            vk.StructureTypeDeviceQueueCreateInfo,
				QueueFamilyIndex: uint32(idx),
				QueueCount:       uint32(len(priorities)),
				PQueuePriorities: priorities,
			})
		}
	} else {
		for idx := range b.physical.families {
			queueInfos = append(queueInfos, vk.DeviceQueueCreateInfo{
				SType:            vk.StructureTypeDeviceQueueCreateInfo,
				QueueFamilyIndex: uint32(idx),
				QueueCount:       1,
				PQueuePriorities: []float32{1.0},
			})
		}
	}

	features := b.physical.requested
	if b.hasFeatures {
		features = b.features
	}

	createInfo := vk.DeviceCreateInfo{
		SType:                   vk.StructureTypeDeviceCreateInfo,
		QueueCreateInfoCount:    uint32(len(queueInfos)),
		PQueueCreateInfos:       queueInfos,
		EnabledExtensionCount:   uint32(len(extensions)),
		PpEnabledExtensionNames: core.SafeStrings(append([]string{}, extensions...)),
		PEnabledFeatures:        []vk.PhysicalDeviceFeatures{features},
	}

	var handle vk.Device
	if err := core.Check("vk.CreateDevice", vk.CreateDevice(b.physical.handle, &createInfo, nil, &handle)); err != nil {
		return nil, err
	}

	b.instance.Retain()
	return &Device{
		refs:       1,
		handle:     handle,
		physical:   b.physical,
		instance:   b.instance,
		extensions: extensions,
	}, nil
}

// Device owns a vk.Device and resolves its queues by capability
// class. It holds a reference on the instance it was built from.
type Device struct {
	refs int32

	handle   vk.Device
	physical *PhysicalDevice
	instance *core.Instance

	extensions []string
}

// Handle returns the raw device for calls the library does not wrap.
func (d *Device) Handle() vk.Device {
	return d.handle
}

// PhysicalDevice returns the hardware the device was created on.
func (d *Device) PhysicalDevice() *PhysicalDevice {
	return d.physical
}

// Instance returns the instance the device was built from.
func (d *Device) Instance() *core.Instance {
	return d.instance
}

// Extensions lists the device extensions enabled at creation.
func (d *Device) Extensions() []string {
	return d.extensions
}

// QueueIndex resolves the queue family for a capability class.
// Graphics takes the first family with the graphics bit. Compute and
// transfer prefer a family apart from graphics and fall back to the
// first supporting one. Present scans for surface support.
func (d *Device) QueueIndex(t QueueType) (uint32, error) {
	switch t {
	case GraphicsQueue:
		if index, ok := firstQueueIndex(d.physical.families, vk.QueueFlags(vk.QueueGraphicsBit)); ok {
			return index, nil
		}
		return 0, ErrGraphicsUnavailable
	case ComputeQueue:
		if index, ok := separateQueueIndex(d.physical.families, vk.QueueFlags(vk.QueueComputeBit), vk.QueueFlags(vk.QueueTransferBit)); ok {
			return index, nil
		}
		if index, ok := firstQueueIndex(d.physical.families, vk.QueueFlags(vk.QueueComputeBit)); ok {
			return index, nil
		}
		return 0, ErrComputeUnavailable
	case TransferQueue:
		if index, ok := separateQueueIndex(d.physical.families, vk.QueueFlags(vk.QueueTransferBit), vk.QueueFlags(vk.QueueComputeBit)); ok {
			return index, nil
		}
		if index, ok := firstQueueIndex(d.physical.families, vk.QueueFlags(vk.QueueTransferBit)); ok {
			return index, nil
		}
		return 0, ErrTransferUnavailable
	case PresentQueue:
		surface, ok := d.instance.Surface()
		if !ok {
			return 0, core.ErrSurfaceRequired
		}
		if index, ok := presentQueueIndex(d.physical.handle, surface, d.physical.families); ok {
			return index, nil
		}
		return 0, ErrPresentUnavailable
	}
	return 0, errors.New("unknown queue class")
}

// Queue fetches the first queue of the family QueueIndex resolves.
// Families excluded by a custom QueuePriorities setup have no queues
// to fetch.
func (d *Device) Queue(t QueueType) (vk.Queue, error) {
	index, err := d.QueueIndex(t)
	if err != nil {
		return nil, err
	}
	var queue vk.Queue
	vk.GetDeviceQueue(d.handle, index, 0, &queue)
	return queue, nil
}

// WaitIdle blocks until the device finished all submitted work.
func (d *Device) WaitIdle() error {
	return core.Check("vk.DeviceWaitIdle", vk.DeviceWaitIdle(d.handle))
}

// CreatePipelineCache creates a pipeline cache, warm started from a
// previous run's blob when one is passed.
func (d *Device) CreatePipelineCache(initial []byte) (vk.PipelineCache, error) {
	createInfo := vk.PipelineCacheCreateInfo{
		SType: vk.StructureTypePipelineCacheCreateInfo,
	}
	if len(initial) > 0 {
		createInfo.InitialDataSize = uint(len(initial))
		createInfo.PInitialData = unsafe.Pointer(&initial[0])
	}
	var cache vk.PipelineCache
	if err := core.Check("vk.CreatePipelineCache", vk.CreatePipelineCache(d.handle, &createInfo, nil, &cache)); err != nil {
		return cache, err
	}
	return cache, nil
}

// PipelineCacheData serializes a pipeline cache for persisting
// between runs.
func (d *Device) PipelineCacheData(cache vk.PipelineCache) ([]byte, error) {
	var size uint
	if err := core.Check("vk.GetPipelineCacheData", vk.GetPipelineCacheData(d.handle, cache, &size, nil)); err != nil {
		return nil, err
	}
	data := make([]byte, size)
	if size == 0 {
		return data, nil
	}
	if err := core.Check("vk.GetPipelineCacheData", vk.GetPipelineCacheData(d.handle, cache, &size, unsafe.Pointer(&data[0]))); err != nil {
		return nil, err
	}
	return data[:size], nil
}

// DestroyPipelineCache releases a pipeline cache created on this
// device.
func (d *Device) DestroyPipelineCache(cache vk.PipelineCache) {
	vk.DestroyPipelineCache(d.handle, cache, nil)
}

// Retain adds a reference, swapchains do this for their lifetime.
func (d *Device) Retain() {
	atomic.AddInt32(&d.refs, 1)
}

// Destroy releases one reference. The native device is destroyed
// with the last one, then the instance reference is released, which
// keeps teardown in reverse construction order.
func (d *Device) Destroy() {
	if atomic.AddInt32(&d.refs, -1) != 0 {
		return
	}
	vk.DestroyDevice(d.handle, nil)
	d.instance.Destroy()
}
