package core_test

import (
	"testing"

	"github.com/devblok/vkboot/core"
)

var testInfo = &core.SystemInfo{
	Version: core.Version11,
	Layers: []core.Layer{
		{
			Name:        "VK_LAYER_LUNARG_standard_validation",
			Description: "LunarG Standard Validation Layer",
			Extensions:  []string{"VK_EXT_debug_report"},
		},
		{
			Name:        "VK_LAYER_MESA_overlay",
			Description: "Mesa Overlay layer",
		},
	},
	Extensions: []string{"VK_KHR_surface", "VK_KHR_xcb_surface"},
}

func TestHasLayer(t *testing.T) {
	if !testInfo.HasLayer("VK_LAYER_MESA_overlay") {
		t.Error("installed layer not found")
	}
	if testInfo.HasLayer("VK_LAYER_KHRONOS_validation") {
		t.Error("found a layer that is not installed")
	}
}

func TestHasExtension(t *testing.T) {
	if !testInfo.HasExtension("VK_KHR_surface") {
		t.Error("loader extension not found")
	}
	if !testInfo.HasExtension("VK_EXT_debug_report") {
		t.Error("layer provided extension not found")
	}
	if testInfo.HasExtension("VK_KHR_wayland_surface") {
		t.Error("found an extension that is not supported")
	}
}

func TestValidationLayerName(t *testing.T) {
	name, ok := testInfo.ValidationLayerName()
	if !ok {
		t.Error("validation layer not recognized")
	}
	if name != "VK_LAYER_LUNARG_standard_validation" {
		t.Errorf("unexpected validation layer %q", name)
	}

	bare := &core.SystemInfo{}
	if _, ok := bare.ValidationLayerName(); ok {
		t.Error("reported validation on a system without layers")
	}
}

func TestValidationLayerPreference(t *testing.T) {
	both := &core.SystemInfo{
		Layers: []core.Layer{
			{Name: "VK_LAYER_LUNARG_standard_validation"},
			{Name: "VK_LAYER_KHRONOS_validation"},
		},
	}
	name, ok := both.ValidationLayerName()
	if !ok {
		t.Error("validation layer not recognized")
	}
	if name != "VK_LAYER_KHRONOS_validation" {
		t.Error("the Khronos layer should win over the legacy one")
	}
}
