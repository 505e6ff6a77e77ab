// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package device

import (
	"testing"

	vk "github.com/devblok/vulkan"
)

// A typical discrete GPU layout: one do-everything family, a
// dedicated transfer family and a compute family without graphics.
var gpuFamilies = []vk.QueueFamilyProperties{
	{QueueFlags: vk.QueueFlags(vk.QueueGraphicsBit | vk.QueueComputeBit | vk.QueueTransferBit), QueueCount: 16},
	{QueueFlags: vk.QueueFlags(vk.QueueTransferBit), QueueCount: 2},
	{QueueFlags: vk.QueueFlags(vk.QueueComputeBit | vk.QueueTransferBit), QueueCount: 8},
}

// A single family that does everything, common on mobile chips.
var unifiedFamilies = []vk.QueueFamilyProperties{
	{QueueFlags: vk.QueueFlags(vk.QueueGraphicsBit | vk.QueueComputeBit | vk.QueueTransferBit), QueueCount: 1},
}

func TestFirstQueueIndex(t *testing.T) {
	index, ok := firstQueueIndex(gpuFamilies, vk.QueueFlags(vk.QueueGraphicsBit))
	if !ok || index != 0 {
		t.Errorf("expected the graphics family at 0, got %d %v", index, ok)
	}

	index, ok = firstQueueIndex(gpuFamilies, vk.QueueFlags(vk.QueueComputeBit))
	if !ok || index != 0 {
		t.Errorf("first compute family should be 0, got %d %v", index, ok)
	}

	if _, ok := firstQueueIndex(gpuFamilies, vk.QueueFlags(vk.QueueSparseBindingBit)); ok {
		t.Error("found a capability no family has")
	}

	if _, ok := firstQueueIndex(nil, vk.QueueFlags(vk.QueueGraphicsBit)); ok {
		t.Error("found a family in an empty list")
	}
}

func TestSeparateQueueIndex(t *testing.T) {
	// Family 2 computes away from graphics, transfer alongside is
	// tolerated because nothing better exists.
	index, ok := separateQueueIndex(gpuFamilies, vk.QueueFlags(vk.QueueComputeBit), vk.QueueFlags(vk.QueueTransferBit))
	if !ok || index != 2 {
		t.Errorf("expected the separate compute family at 2, got %d %v", index, ok)
	}

	index, ok = separateQueueIndex(gpuFamilies, vk.QueueFlags(vk.QueueTransferBit), vk.QueueFlags(vk.QueueComputeBit))
	if !ok || index != 1 {
		t.Errorf("expected the clean transfer family at 1, got %d %v", index, ok)
	}

	if _, ok := separateQueueIndex(unifiedFamilies, vk.QueueFlags(vk.QueueComputeBit), vk.QueueFlags(vk.QueueTransferBit)); ok {
		t.Error("a unified family cannot be separate from graphics")
	}
}

func TestSeparateQueueIndexPrefersClean(t *testing.T) {
	families := []vk.QueueFamilyProperties{
		{QueueFlags: vk.QueueFlags(vk.QueueGraphicsBit | vk.QueueComputeBit)},
		{QueueFlags: vk.QueueFlags(vk.QueueComputeBit | vk.QueueTransferBit)},
		{QueueFlags: vk.QueueFlags(vk.QueueComputeBit)},
	}
	index, ok := separateQueueIndex(families, vk.QueueFlags(vk.QueueComputeBit), vk.QueueFlags(vk.QueueTransferBit))
	if !ok || index != 2 {
		t.Errorf("expected the family without the undesired bit, got %d %v", index, ok)
	}
}

func TestDedicatedQueueIndex(t *testing.T) {
	index, ok := dedicatedQueueIndex(gpuFamilies, vk.QueueFlags(vk.QueueTransferBit), vk.QueueFlags(vk.QueueComputeBit))
	if !ok || index != 1 {
		t.Errorf("expected the dedicated transfer family at 1, got %d %v", index, ok)
	}

	// Family 2 carries transfer next to compute, so no dedicated
	// compute family exists in this layout.
	if _, ok := dedicatedQueueIndex(gpuFamilies, vk.QueueFlags(vk.QueueComputeBit), vk.QueueFlags(vk.QueueTransferBit)); ok {
		t.Error("found a dedicated compute family that does not exist")
	}

	if _, ok := dedicatedQueueIndex(unifiedFamilies, vk.QueueFlags(vk.QueueTransferBit), vk.QueueFlags(vk.QueueComputeBit)); ok {
		t.Error("a unified family cannot be dedicated")
	}
}

func BenchmarkSeparateQueueIndex(b *testing.B) {
	for idx := 0; idx < b.N; idx++ {
		separateQueueIndex(gpuFamilies, vk.QueueFlags(vk.QueueComputeBit), vk.QueueFlags(vk.QueueTransferBit))
	}
}
