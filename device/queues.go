// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package device

import (
	vk "github.com/devblok/vulkan"
)

// firstQueueIndex returns the first family supporting every required
// capability.
func firstQueueIndex(families []vk.QueueFamilyProperties, required vk.QueueFlags) (uint32, bool) {
	for idx, family := range families {
		if family.QueueFlags&required == required {
			return uint32(idx), true
		}
	}
	return 0, false
}

// separateQueueIndex returns a family supporting desired that is not
// the graphics family, preferring one that also lacks the undesired
// capability. Work submitted there never contends with rendering.
func separateQueueIndex(families []vk.QueueFamilyProperties, desired, undesired vk.QueueFlags) (uint32, bool) {
	var index uint32
	var found bool
	for idx, family := range families {
		if family.QueueFlags&desired != desired {
			continue
		}
		if family.QueueFlags&vk.QueueFlags(vk.QueueGraphicsBit) != 0 {
			continue
		}
		if family.QueueFlags&undesired == 0 {
			return uint32(idx), true
		}
		index = uint32(idx)
		found = true
	}
	return index, found
}

// dedicatedQueueIndex returns a family supporting desired with
// neither graphics nor the undesired capability.
func dedicatedQueueIndex(families []vk.QueueFamilyProperties, desired, undesired vk.QueueFlags) (uint32, bool) {
	for idx, family := range families {
		if family.QueueFlags&desired != desired {
			continue
		}
		if family.QueueFlags&vk.QueueFlags(vk.QueueGraphicsBit) != 0 {
			continue
		}
		if family.QueueFlags&undesired != 0 {
			continue
		}
		return uint32(idx), true
	}
	return 0, false
}

// presentQueueIndex returns the first family able to present to the
// surface.
func presentQueueIndex(device vk.PhysicalDevice, surface vk.Surface, families []vk.QueueFamilyProperties) (uint32, bool) {
	for idx := range families {
		var supported vk.Bool32
		ret := vk.GetPhysicalDeviceSurfaceSupport(device, uint32(idx), surface, &supported)
		if ret != vk.Success {
			continue
		}
		if supported.B() {
			return uint32(idx), true
		}
	}
	return 0, false
}
