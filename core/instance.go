// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package core

import (
	"sync/atomic"
	"unsafe"

	vk "github.com/devblok/vulkan"
	"github.com/sirupsen/logrus"
)

// InstanceBuilder collects everything an instance needs before any
// driver state exists. The zero value is a usable windowed builder,
// setters chain:
//
//	instance, err := (&core.InstanceBuilder{}).
//		AppName("demo").
//		RequestValidationLayers(true).
//		UseDefaultMessenger().
//		WindowExtensions(win.VulkanGetInstanceExtensions()).
//		Build()
type InstanceBuilder struct {
	appName       string
	engineName    string
	appVersion    Version
	engineVersion Version

	required Version
	minimum  Version

	layers     []string
	extensions []string
	windowExts []string
	headless   bool

	requestValidation bool
	requireValidation bool

	useMessenger   bool
	messenger      MessengerFunc
	messengerFlags vk.DebugReportFlags

	procAddr unsafe.Pointer
}

// AppName names the application towards the driver.
func (b *InstanceBuilder) AppName(name string) *InstanceBuilder {
	b.appName = name
	return b
}

// EngineName names the engine towards the driver.
func (b *InstanceBuilder) EngineName(name string) *InstanceBuilder {
	b.engineName = name
	return b
}

// AppVersion reports the application version to the driver.
func (b *InstanceBuilder) AppVersion(major, minor, patch uint32) *InstanceBuilder {
	b.appVersion = MakeVersion(major, minor, patch)
	return b
}

// EngineVersion reports the engine version to the driver.
func (b *InstanceBuilder) EngineVersion(major, minor, patch uint32) *InstanceBuilder {
	b.engineVersion = MakeVersion(major, minor, patch)
	return b
}

// RequireAPIVersion makes Build fail when the loader cannot create an
// instance of at least this version. It also becomes the ApiVersion
// handed to the driver. Unset means 1.0.
func (b *InstanceBuilder) RequireAPIVersion(v Version) *InstanceBuilder {
	b.required = v
	return b
}

// MinimumInstanceVersion loosens RequireAPIVersion: Build succeeds as
// long as the loader reaches this version, even if it stays below the
// required one.
func (b *InstanceBuilder) MinimumInstanceVersion(v Version) *InstanceBuilder {
	b.minimum = v
	return b
}

// EnableLayer adds an instance layer to enable.
func (b *InstanceBuilder) EnableLayer(name string) *InstanceBuilder {
	b.layers = append(b.layers, name)
	return b
}

// EnableLayers adds several instance layers to enable.
func (b *InstanceBuilder) EnableLayers(names []string) *InstanceBuilder {
	b.layers = append(b.layers, names...)
	return b
}

// EnableExtension adds an instance extension to enable.
func (b *InstanceBuilder) EnableExtension(name string) *InstanceBuilder {
	b.extensions = append(b.extensions, name)
	return b
}

// EnableExtensions adds several instance extensions to enable.
func (b *InstanceBuilder) EnableExtensions(names []string) *InstanceBuilder {
	b.extensions = append(b.extensions, names...)
	return b
}

// RequestValidationLayers enables the validation layer when one is
// installed and silently goes without otherwise.
func (b *InstanceBuilder) RequestValidationLayers(request bool) *InstanceBuilder {
	b.requestValidation = request
	return b
}

// RequireValidationLayers enables the validation layer and makes Build
// fail with ErrValidationUnavailable when none is installed.
func (b *InstanceBuilder) RequireValidationLayers(require bool) *InstanceBuilder {
	b.requireValidation = require
	return b
}

// WindowExtensions takes the surface extension list the window
// library reports, sdl.Window.VulkanGetInstanceExtensions for the
// usual case.
func (b *InstanceBuilder) WindowExtensions(names []string) *InstanceBuilder {
	b.windowExts = append(b.windowExts, names...)
	return b
}

// Headless skips surface extensions entirely. Instances built
// headless cannot carry a surface and their devices cannot present.
func (b *InstanceBuilder) Headless(headless bool) *InstanceBuilder {
	b.headless = headless
	return b
}

// UseDefaultMessenger installs the logrus backed diagnostic callback.
func (b *InstanceBuilder) UseDefaultMessenger() *InstanceBuilder {
	b.useMessenger = true
	return b
}

// Messenger installs a custom diagnostic callback instead of the
// default one.
func (b *InstanceBuilder) Messenger(fn MessengerFunc) *InstanceBuilder {
	b.useMessenger = true
	b.messenger = fn
	return b
}

// MessengerFlags overrides the message classes the diagnostic
// callback subscribes to.
func (b *InstanceBuilder) MessengerFlags(flags vk.DebugReportFlags) *InstanceBuilder {
	b.messengerFlags = flags
	return b
}

// ProcAddr points the loader at a vkGetInstanceProcAddr supplied by
// the window library, sdl.VulkanGetVkGetInstanceProcAddr for the
// usual case. Unset loads the platform's default Vulkan library.
func (b *InstanceBuilder) ProcAddr(procAddr unsafe.Pointer) *InstanceBuilder {
	b.procAddr = procAddr
	return b
}

// effectiveAPIVersion negotiates the ApiVersion handed to the driver
// against what the loader offers. Loaders below 1.1 are pinned to 1.0
// because they reject anything newer.
func (b *InstanceBuilder) effectiveAPIVersion(loader Version) (Version, error) {
	required := b.required
	if required.IsZero() {
		required = Version10
	}
	if required.AtLeast(Version11) || !b.minimum.IsZero() {
		if !b.minimum.IsZero() {
			if !loader.AtLeast(b.minimum) {
				return Version{}, ErrVersionUnavailable
			}
		} else if !loader.AtLeast(required) {
			return Version{}, ErrVersionUnavailable
		}
	}
	if !loader.AtLeast(Version11) {
		return Version10, nil
	}
	return required, nil
}

// missingNames filters want down to the names have rejects.
func missingNames(have func(string) bool, want []string) []string {
	var missing []string
	for _, name := range want {
		if !have(name) {
			missing = append(missing, name)
		}
	}
	return missing
}

// Build creates the instance. It initializes the loader, negotiates
// the API version, resolves validation layers and surface extensions,
// verifies every request against what the system offers and only then
// touches the driver. Driver failures come back as ResultError with
// the code unchanged.
func (b *InstanceBuilder) Build() (*Instance, error) {
	info, err := GetSystemInfo(b.procAddr)
	if err != nil {
		return nil, err
	}

	api, err := b.effectiveAPIVersion(info.Version)
	if err != nil {
		return nil, err
	}

	layers := append([]string{}, b.layers...)
	extensions := append([]string{}, b.extensions...)

	if b.requestValidation || b.requireValidation {
		if name, ok := info.ValidationLayerName(); ok {
			layers = append(layers, name)
			extensions = append(extensions, DebugReportExtensionName)
		} else if b.requireValidation {
			return nil, ErrValidationUnavailable
		}
	}
	if b.useMessenger {
		extensions = append(extensions, DebugReportExtensionName)
	}

	var surfaceExts []string
	if !b.headless {
		surfaceExts = append(surfaceExts, SurfaceExtensionName)
		surfaceExts = append(surfaceExts, b.windowExts...)
		if missing := missingNames(info.HasExtension, surfaceExts); len(missing) > 0 {
			logrus.WithField("extensions", missing).Error("windowing extensions not present")
			return nil, ErrWindowingExtensionsNotPresent
		}
		extensions = append(extensions, surfaceExts...)
	}

	layers = dedupStrings(layers)
	extensions = dedupStrings(extensions)

	if missing := missingNames(info.HasLayer, layers); len(missing) > 0 {
		logrus.WithField("layers", missing).Error("instance layers not present")
		return nil, ErrLayersNotPresent
	}
	if missing := missingNames(info.HasExtension, extensions); len(missing) > 0 {
		logrus.WithField("extensions", missing).Error("instance extensions not present")
		return nil, ErrExtensionsNotPresent
	}

	appInfo := &vk.ApplicationInfo{
		SType:              vk.StructureTypeApplicationInfo,
		PApplicationName:   SafeString(b.appName),
		ApplicationVersion: b.appVersion.Packed(),
		PEngineName:        SafeString(b.engineName),
		EngineVersion:      b.engineVersion.Packed(),
		ApiVersion:         api.Packed(),
	}
	createInfo := vk.InstanceCreateInfo{
		SType:                   vk.StructureTypeInstanceCreateInfo,
		PApplicationInfo:        appInfo,
		EnabledLayerCount:       uint32(len(layers)),
		PpEnabledLayerNames:     SafeStrings(layers),
		EnabledExtensionCount:   uint32(len(extensions)),
		PpEnabledExtensionNames: SafeStrings(extensions),
	}

	var handle vk.Instance
	if err := Check("vk.CreateInstance", vk.CreateInstance(&createInfo, nil, &handle)); err != nil {
		return nil, err
	}
	vk.InitInstance(handle)

	instance := &Instance{
		refs:       1,
		handle:     handle,
		version:    api,
		layers:     layers,
		extensions: extensions,
		headless:   b.headless,
	}

	if b.useMessenger {
		fn := b.messenger
		if fn == nil {
			fn = DefaultMessenger
		}
		flags := b.messengerFlags
		if flags == 0 {
			flags = DefaultMessengerFlags
		}
		messenger, err := createMessenger(handle, flags, fn)
		if err != nil {
			vk.DestroyInstance(handle, nil)
			return nil, err
		}
		instance.messenger = messenger
		instance.hasMessenger = true
	}

	return instance, nil
}

// Instance owns a vk.Instance together with the validation messenger
// and the window surface registered on it. Dependents built from it
// hold a reference, the native handles go away with the last one.
type Instance struct {
	refs int32

	handle       vk.Instance
	messenger    vk.DebugReportCallback
	hasMessenger bool
	surface      vk.Surface
	hasSurface   bool

	version    Version
	layers     []string
	extensions []string
	headless   bool
}

// Handle returns the raw instance for calls the library does not wrap.
func (i *Instance) Handle() vk.Instance {
	return i.handle
}

// Version is the ApiVersion the instance was created with.
func (i *Instance) Version() Version {
	return i.version
}

// Layers lists the layers enabled on the instance.
func (i *Instance) Layers() []string {
	return i.layers
}

// Extensions lists the extensions enabled on the instance.
func (i *Instance) Extensions() []string {
	return i.extensions
}

// Headless reports whether the instance was built without surface
// support.
func (i *Instance) Headless() bool {
	return i.headless
}

// SetSurface registers the window surface for device selection and
// swapchain creation. The pointer comes straight from the window
// library, sdl.Window.VulkanCreateSurface for the usual case. The
// instance owns the surface from here on and destroys it at teardown.
func (i *Instance) SetSurface(pointer unsafe.Pointer) {
	i.surface = vk.SurfaceFromPointer(uintptr(pointer))
	i.hasSurface = true
}

// Surface returns the registered window surface, false when the
// instance is headless or none was set.
func (i *Instance) Surface() (vk.Surface, bool) {
	return i.surface, i.hasSurface
}

// PhysicalDevices enumerates the physical devices reachable through
// this instance.
func (i *Instance) PhysicalDevices() ([]vk.PhysicalDevice, error) {
	var deviceCount uint32
	if err := Check("vk.EnumeratePhysicalDevices", vk.EnumeratePhysicalDevices(i.handle, &deviceCount, nil)); err != nil {
		return nil, err
	}
	devices := make([]vk.PhysicalDevice, deviceCount)
	if err := Check("vk.EnumeratePhysicalDevices", vk.EnumeratePhysicalDevices(i.handle, &deviceCount, devices)); err != nil {
		return nil, err
	}
	return devices, nil
}

// Retain adds a reference. Everything built on top of the instance
// retains it for as long as the native handle must stay alive.
func (i *Instance) Retain() {
	atomic.AddInt32(&i.refs, 1)
}

// Destroy releases one reference. The surface, the messenger and the
// instance are destroyed in that order when the last reference goes,
// so dependents release after their own teardown and the handles die
// in reverse construction order no matter who calls first.
func (i *Instance) Destroy() {
	if atomic.AddInt32(&i.refs, -1) != 0 {
		return
	}
	if i.hasSurface {
		vk.DestroySurface(i.handle, i.surface, nil)
		i.hasSurface = false
	}
	if i.hasMessenger {
		vk.DestroyDebugReportCallback(i.handle, i.messenger, nil)
		i.hasMessenger = false
	}
	vk.DestroyInstance(i.handle, nil)
}
