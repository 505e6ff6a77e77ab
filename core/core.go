// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package core implements the instance side of Vulkan bootstrapping.
// It enumerates what the loader offers before any instance exists,
// builds instances with validation layers and a diagnostic callback
// attached, and owns the teardown of everything it created. Handles
// are shared by reference counting: every dependent object retains
// the instance it was built from and releases it on its own Destroy,
// so the underlying handle goes away exactly once, with the last
// holder, and never before its dependents.
package core

// Destroyer is implemented by every object that owns native Vulkan
// handles. A holder calls Destroy exactly once; the native handle is
// released when the last holder does.
type Destroyer interface {
	Destroy()
}

// Validation layer names in preference order. The Khronos layer
// replaced the LunarG meta layer, older loaders only ship the latter.
var validationLayerNames = []string{
	"VK_LAYER_KHRONOS_validation",
	"VK_LAYER_LUNARG_standard_validation",
}

// DebugReportExtensionName is the instance extension the diagnostic
// messenger is built on.
const DebugReportExtensionName = "VK_EXT_debug_report"

// SurfaceExtensionName is required by any windowed instance on top of
// the platform specific surface extensions the window library reports.
const SurfaceExtensionName = "VK_KHR_surface"
