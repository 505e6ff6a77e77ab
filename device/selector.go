// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package device

import (
	"reflect"

	vk "github.com/devblok/vulkan"

	"github.com/devblok/vkboot/core"
)

// PreferredType is the hardware class a Selector looks for first.
type PreferredType int

// Hardware classes in the driver's order.
const (
	Other PreferredType = iota
	Integrated
	Discrete
	Virtual
	CPU
)

func (t PreferredType) String() string {
	switch t {
	case Integrated:
		return "integrated"
	case Discrete:
		return "discrete"
	case Virtual:
		return "virtual"
	case CPU:
		return "cpu"
	default:
		return "other"
	}
}

func (t PreferredType) vkType() vk.PhysicalDeviceType {
	switch t {
	case Integrated:
		return vk.PhysicalDeviceTypeIntegratedGpu
	case Discrete:
		return vk.PhysicalDeviceTypeDiscreteGpu
	case Virtual:
		return vk.PhysicalDeviceTypeVirtualGpu
	case CPU:
		return vk.PhysicalDeviceTypeCpu
	default:
		return vk.PhysicalDeviceTypeOther
	}
}

type suitability int

const (
	unsuitable suitability = iota
	partial
	suitable
)

// Selector rates the instance's physical devices against criteria
// and picks the best match. Criteria methods chain, nothing touches
// the driver until Select.
type Selector struct {
	instance *core.Instance

	name           string
	preferred      PreferredType
	allowAny       bool
	requirePresent bool

	dedicatedCompute  bool
	separateCompute   bool
	dedicatedTransfer bool
	separateTransfer  bool

	requiredMemory vk.DeviceSize
	extensions     []string
	minVersion     core.Version

	features    vk.PhysicalDeviceFeatures
	hasFeatures bool

	selectFirst bool
}

// NewSelector prepares selection on an instance's devices. The
// defaults prefer a discrete GPU but allow any type, and demand
// present support unless the instance was built headless.
func NewSelector(instance *core.Instance) *Selector {
	return &Selector{
		instance:       instance,
		preferred:      Discrete,
		allowAny:       true,
		requirePresent: !instance.Headless(),
	}
}

// Name requires an exact device name match.
func (s *Selector) Name(name string) *Selector {
	s.name = name
	return s
}

// PreferredType sets the hardware class picked first.
func (s *Selector) PreferredType(t PreferredType) *Selector {
	s.preferred = t
	return s
}

// AllowAnyType falls back to devices of the wrong hardware class
// rather than failing, on by default.
func (s *Selector) AllowAnyType(allow bool) *Selector {
	s.allowAny = allow
	return s
}

// RequirePresent demands a queue family that can present to the
// instance surface. On by default on windowed instances.
func (s *Selector) RequirePresent(require bool) *Selector {
	s.requirePresent = require
	return s
}

// RequireDedicatedComputeQueue only accepts devices with a compute
// family that does neither graphics nor transfer.
func (s *Selector) RequireDedicatedComputeQueue() *Selector {
	s.dedicatedCompute = true
	return s
}

// RequireSeparateComputeQueue only accepts devices with a compute
// family apart from the graphics one.
func (s *Selector) RequireSeparateComputeQueue() *Selector {
	s.separateCompute = true
	return s
}

// RequireDedicatedTransferQueue only accepts devices with a transfer
// family that does neither graphics nor compute.
func (s *Selector) RequireDedicatedTransferQueue() *Selector {
	s.dedicatedTransfer = true
	return s
}

// RequireSeparateTransferQueue only accepts devices with a transfer
// family apart from the graphics one.
func (s *Selector) RequireSeparateTransferQueue() *Selector {
	s.separateTransfer = true
	return s
}

// RequiredMemorySize demands a device local heap of at least this
// size.
func (s *Selector) RequiredMemorySize(size vk.DeviceSize) *Selector {
	s.requiredMemory = size
	return s
}

// RequireExtension demands a device extension. Required extensions
// carry over to the device builder.
func (s *Selector) RequireExtension(name string) *Selector {
	s.extensions = append(s.extensions, name)
	return s
}

// RequireExtensions demands several device extensions.
func (s *Selector) RequireExtensions(names []string) *Selector {
	s.extensions = append(s.extensions, names...)
	return s
}

// MinimumVersion demands a device implementing at least this Vulkan
// version.
func (s *Selector) MinimumVersion(v core.Version) *Selector {
	s.minVersion = v
	return s
}

// RequireFeatures demands support for every feature set vk.True.
func (s *Selector) RequireFeatures(features vk.PhysicalDeviceFeatures) *Selector {
	s.features = features
	s.hasFeatures = true
	return s
}

// SelectFirstUnconditionally skips rating and takes the first
// enumerated device. Useful on single GPU systems and in CI.
func (s *Selector) SelectFirstUnconditionally(skip bool) *Selector {
	s.selectFirst = skip
	return s
}

// Select picks the best matching device: the first fully suitable
// one, else the first partial match when the hardware class is the
// only miss.
func (s *Selector) Select() (*PhysicalDevice, error) {
	devices, err := s.SelectAll()
	if err != nil {
		return nil, err
	}
	return devices[0], nil
}

// SelectAll returns every acceptable device, fully suitable ones
// first. The selector's required extensions are already queued on
// each for device creation.
func (s *Selector) SelectAll() ([]*PhysicalDevice, error) {
	if s.requirePresent && !s.selectFirst {
		if _, ok := s.instance.Surface(); !ok {
			return nil, core.ErrSurfaceRequired
		}
	}

	handles, err := s.instance.PhysicalDevices()
	if err != nil {
		return nil, err
	}
	if len(handles) == 0 {
		return nil, ErrNoDevices
	}

	if s.selectFirst {
		dev, err := newPhysicalDevice(handles[0])
		if err != nil {
			return nil, err
		}
		dev.enabled = append(dev.enabled, s.extensions...)
		return []*PhysicalDevice{dev}, nil
	}

	var full, partials []*PhysicalDevice
	for _, handle := range handles {
		dev, err := newPhysicalDevice(handle)
		if err != nil {
			return nil, err
		}
		switch s.rate(dev) {
		case suitable:
			full = append(full, dev)
		case partial:
			partials = append(partials, dev)
		}
	}

	picked := append(full, partials...)
	if len(picked) == 0 {
		return nil, ErrNoSuitableDevice
	}
	for _, dev := range picked {
		dev.enabled = append(dev.enabled, s.extensions...)
		if s.hasFeatures {
			dev.requested = s.features
		}
	}
	return picked, nil
}

// rate scores one device against the criteria. Only the hardware
// class can downgrade to partial, everything else is a hard miss.
func (s *Selector) rate(dev *PhysicalDevice) suitability {
	if s.name != "" && s.name != dev.Name() {
		return unsuitable
	}

	result := suitable
	if dev.Type() != s.preferred.vkType() {
		if !s.allowAny {
			return unsuitable
		}
		result = partial
	}

	if !s.minVersion.IsZero() && !dev.Version().AtLeast(s.minVersion) {
		return unsuitable
	}

	if s.dedicatedCompute {
		if _, ok := dedicatedQueueIndex(dev.families, vk.QueueFlags(vk.QueueComputeBit), vk.QueueFlags(vk.QueueTransferBit)); !ok {
			return unsuitable
		}
	}
	if s.separateCompute {
		if _, ok := separateQueueIndex(dev.families, vk.QueueFlags(vk.QueueComputeBit), vk.QueueFlags(vk.QueueTransferBit)); !ok {
			return unsuitable
		}
	}
	if s.dedicatedTransfer {
		if _, ok := dedicatedQueueIndex(dev.families, vk.QueueFlags(vk.QueueTransferBit), vk.QueueFlags(vk.QueueComputeBit)); !ok {
			return unsuitable
		}
	}
	if s.separateTransfer {
		if _, ok := separateQueueIndex(dev.families, vk.QueueFlags(vk.QueueTransferBit), vk.QueueFlags(vk.QueueComputeBit)); !ok {
			return unsuitable
		}
	}

	if s.requirePresent {
		surface, ok := s.instance.Surface()
		if !ok {
			return unsuitable
		}
		if _, ok := presentQueueIndex(dev.handle, surface, dev.families); !ok {
			return unsuitable
		}
	}

	for _, name := range s.extensions {
		if !dev.HasExtension(name) {
			return unsuitable
		}
	}

	if s.requiredMemory > 0 && dev.localMemorySize() < s.requiredMemory {
		return unsuitable
	}

	if s.hasFeatures && !featuresSupported(dev.features, s.features) {
		return unsuitable
	}

	return result
}

// featuresSupported reports whether every feature requested vk.True
// is supported. Only the vk.Bool32 flag fields of the binding struct
// take part in the comparison.
func featuresSupported(supported, requested vk.PhysicalDeviceFeatures) bool {
	flagType := reflect.TypeOf(vk.Bool32(0))
	sv := reflect.ValueOf(supported)
	rv := reflect.ValueOf(requested)
	for idx := 0; idx < rv.NumField(); idx++ {
		if rv.Field(idx).Type() != flagType {
			continue
		}
		if vk.Bool32(rv.Field(idx).Uint()) == vk.True && vk.Bool32(sv.Field(idx).Uint()) != vk.True {
			return false
		}
	}
	return true
}
