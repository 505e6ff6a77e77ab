// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package core

import (
	"sync"
	"unsafe"

	vk "github.com/devblok/vulkan"
)

var (
	loaderOnce sync.Once
	loaderErr  error
)

// initLoader points the binding at a Vulkan loader and resolves the
// global entrypoints. The first caller decides where the proc address
// comes from, every later call is a no-op.
func initLoader(procAddr unsafe.Pointer) error {
	loaderOnce.Do(func() {
		if procAddr != nil {
			vk.SetGetInstanceProcAddr(procAddr)
		} else if err := vk.SetDefaultGetInstanceProcAddr(); err != nil {
			loaderErr = ErrUnavailable
			return
		}
		if err := vk.Init(); err != nil {
			loaderErr = ErrUnavailable
		}
	})
	return loaderErr
}

// LoaderVersion reports the newest instance version the loader can
// create. Loaders that predate vkEnumerateInstanceVersion count as 1.0.
func LoaderVersion() Version {
	if err := initLoader(nil); err != nil {
		return Version{}
	}
	var packed uint32
	if vk.EnumerateInstanceVersion(&packed) != vk.Success {
		return Version10
	}
	return VersionFromPacked(packed)
}

// Layer is an installed instance layer together with the extensions
// it provides.
type Layer struct {
	Name           string
	Description    string
	SpecVersion    Version
	Implementation uint32
	Extensions     []string
}

// SystemInfo describes what the loader offers before any instance
// exists. Builders consult it to validate layer and extension
// requests up front instead of bouncing them off the driver.
type SystemInfo struct {
	// Version is the newest instance version the loader supports.
	Version Version

	// Layers lists every installed instance layer.
	Layers []Layer

	// Extensions lists the instance extensions implemented by the
	// loader and drivers themselves, without any layer enabled.
	Extensions []string

	// ValidationAvailable is set when a known validation layer is
	// installed, DebugReportAvailable when the diagnostic callback
	// extension is supported.
	ValidationAvailable  bool
	DebugReportAvailable bool
}

// GetSystemInfo enumerates the loader's layers and instance
// extensions. A nil procAddr loads the platform's default Vulkan
// library, window libraries that carry their own loader pass theirs.
func GetSystemInfo(procAddr unsafe.Pointer) (*SystemInfo, error) {
	if err := initLoader(procAddr); err != nil {
		return nil, err
	}
	info := &SystemInfo{Version: LoaderVersion()}

	var numLayers uint32
	if err := Check("vk.EnumerateInstanceLayerProperties", vk.EnumerateInstanceLayerProperties(&numLayers, nil)); err != nil {
		return nil, err
	}
	layerProps := make([]vk.LayerProperties, numLayers)
	if err := Check("vk.EnumerateInstanceLayerProperties", vk.EnumerateInstanceLayerProperties(&numLayers, layerProps)); err != nil {
		return nil, err
	}
	for _, props := range layerProps {
		props.Deref()
		layer := Layer{
			Name:           vk.ToString(props.LayerName[:]),
			Description:    vk.ToString(props.Description[:]),
			SpecVersion:    VersionFromPacked(props.SpecVersion),
			Implementation: props.ImplementationVersion,
		}
		exts, err := instanceExtensions(layer.Name)
		if err != nil {
			return nil, err
		}
		layer.Extensions = exts
		info.Layers = append(info.Layers, layer)
	}

	exts, err := instanceExtensions("")
	if err != nil {
		return nil, err
	}
	info.Extensions = exts

	_, info.ValidationAvailable = info.ValidationLayerName()
	info.DebugReportAvailable = info.HasExtension(DebugReportExtensionName)
	return info, nil
}

// instanceExtensions lists instance extensions, either the layerless
// set or the ones a named layer provides.
func instanceExtensions(layerName string) ([]string, error) {
	var num uint32
	if err := Check("vk.EnumerateInstanceExtensionProperties", vk.EnumerateInstanceExtensionProperties(layerName, &num, nil)); err != nil {
		return nil, err
	}
	props := make([]vk.ExtensionProperties, num)
	if err := Check("vk.EnumerateInstanceExtensionProperties", vk.EnumerateInstanceExtensionProperties(layerName, &num, props)); err != nil {
		return nil, err
	}
	names := make([]string, 0, num)
	for _, ext := range props {
		ext.Deref()
		names = append(names, vk.ToString(ext.ExtensionName[:]))
	}
	return names, nil
}

// HasLayer reports whether a layer is installed.
func (s *SystemInfo) HasLayer(name string) bool {
	for _, layer := range s.Layers {
		if layer.Name == name {
			return true
		}
	}
	return false
}

// HasExtension reports whether an instance extension is supported,
// either by the loader itself or through an installed layer.
func (s *SystemInfo) HasExtension(name string) bool {
	for _, ext := range s.Extensions {
		if ext == name {
			return true
		}
	}
	for _, layer := range s.Layers {
		for _, ext := range layer.Extensions {
			if ext == name {
				return true
			}
		}
	}
	return false
}

// ValidationLayerName picks the installed validation layer, prefering
// the consolidated Khronos layer over the older LunarG meta layer.
// The second return is false when none is installed.
func (s *SystemInfo) ValidationLayerName() (string, bool) {
	for _, name := range validationLayerNames {
		if s.HasLayer(name) {
			return name, true
		}
	}
	return "", false
}
