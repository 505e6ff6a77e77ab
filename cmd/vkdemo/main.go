// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"runtime/pprof"
	"runtime/trace"
	"strconv"
	"time"

	vk "github.com/devblok/vulkan"
	"github.com/gobuffalo/envy"
	log "github.com/sirupsen/logrus"
	"github.com/veandco/go-sdl2/sdl"

	"github.com/devblok/vkboot/core"
	"github.com/devblok/vkboot/device"
	"github.com/devblok/vkboot/swapchain"
	"github.com/devblok/vkboot/utility/pcache"
)

func init() {
	runtime.LockOSThread()
}

// Profiling and selection
var (
	cpuProfile   = flag.String("cpuprof", "", "Profile CPU usage to file")
	memProfile   = flag.String("memprof", "", "Profile memory usage into a file")
	traceProfile = flag.String("trace", "", "Trace output for profiling")
	debug        = flag.Bool("vkdbg", false, "Load Vulkan validation layers")
	gpuName      = flag.String("gpu", "", "Select the device with this exact name")
	winWidth     = flag.Int("width", 0, "Window width, overrides VKDEMO_WIDTH")
	winHeight    = flag.Int("height", 0, "Window height, overrides VKDEMO_HEIGHT")
)

const (
	defaultWidth  = 800
	defaultHeight = 600
)

// windowSize resolves the initial window size. Flags win over the
// environment, envy picks a .env file up on its own.
func windowSize() (int32, int32) {
	width := envInt("VKDEMO_WIDTH", defaultWidth)
	height := envInt("VKDEMO_HEIGHT", defaultHeight)
	if *winWidth > 0 {
		width = int32(*winWidth)
	}
	if *winHeight > 0 {
		height = int32(*winHeight)
	}
	return width, height
}

func envInt(name string, fallback int32) int32 {
	parsed, err := strconv.Atoi(envy.Get(name, ""))
	if err != nil || parsed <= 0 {
		return fallback
	}
	return int32(parsed)
}

func newWindow(width, height int32) *sdl.Window {
	window, err := sdl.CreateWindow("vkboot demo",
		sdl.WINDOWPOS_UNDEFINED,
		sdl.WINDOWPOS_UNDEFINED,
		width,
		height,
		sdl.WINDOW_VULKAN|sdl.WINDOW_RESIZABLE)
	if err != nil {
		panic(err)
	}
	return window
}

func main() {
	flag.Parse()

	if *cpuProfile != "" {
		f, err := os.Create(*cpuProfile)
		if err != nil {
			panic(err)
		}
		if err := pprof.StartCPUProfile(f); err != nil {
			panic(err)
		}
		defer pprof.StopCPUProfile()
	}

	if *traceProfile != "" {
		f, err := os.Create(*traceProfile)
		if err != nil {
			panic(err)
		}
		if err := trace.Start(f); err != nil {
			panic(err)
		}
		defer trace.Stop()
	}

	if err := sdl.Init(sdl.INIT_VIDEO | sdl.INIT_EVENTS); err != nil {
		panic(err)
	}
	defer sdl.Quit()

	if err := sdl.VulkanLoadLibrary(""); err != nil {
		panic(err)
	}
	defer sdl.VulkanUnloadLibrary()

	width, height := windowSize()
	window := newWindow(width, height)
	defer window.Destroy()

	builder := (&core.InstanceBuilder{}).
		AppName(envy.Get("VKDEMO_NAME", "vkdemo")).
		EngineName("vkboot").
		AppVersion(0, 1, 0).
		WindowExtensions(window.VulkanGetInstanceExtensions()).
		ProcAddr(sdl.VulkanGetVkGetInstanceProcAddr())
	if *debug {
		builder.RequestValidationLayers(true).UseDefaultMessenger()
	}

	instance, err := builder.Build()
	if err != nil {
		log.Fatal(err)
	}
	log.WithFields(log.Fields{
		"version": instance.Version().String(),
		"layers":  instance.Layers(),
	}).Info("instance ready")

	surface, err := window.VulkanCreateSurface(instance.Handle())
	if err != nil {
		log.Fatal(err)
	}
	instance.SetSurface(surface)

	selector := device.NewSelector(instance).
		PreferredType(device.Discrete).
		RequireExtension(vk.KhrSwapchainExtensionName)
	if *gpuName != "" {
		selector.Name(*gpuName)
	}
	physical, err := selector.Select()
	if err != nil {
		log.Fatal(err)
	}
	log.WithFields(log.Fields{
		"device": physical.Name(),
		"type":   device.TypeString(physical.Type()),
		"api":    physical.Version().String(),
	}).Info("device selected")

	dev, err := device.NewDeviceBuilder(physical, instance).Build()
	if err != nil {
		log.Fatal(err)
	}

	for _, class := range []device.QueueType{
		device.GraphicsQueue,
		device.ComputeQueue,
		device.TransferQueue,
		device.PresentQueue,
	} {
		family, err := dev.QueueIndex(class)
		if err != nil {
			log.WithField("queue", class.String()).Warn("queue class unavailable")
			continue
		}
		if _, err := dev.Queue(class); err != nil {
			log.Fatal(err)
		}
		log.WithFields(log.Fields{
			"queue":  class.String(),
			"family": family,
		}).Info("queue ready")
	}

	store, key := openCacheStore(physical)
	cache, err := dev.CreatePipelineCache(loadCacheBlob(store, key))
	if err != nil {
		log.Fatal(err)
	}

	sc, err := swapchain.NewBuilder(dev).
		DesiredExtent(uint32(width), uint32(height)).
		Build()
	if err != nil {
		log.Fatal(err)
	}
	views, err := sc.ImageViews()
	if err != nil {
		log.Fatal(err)
	}
	logSwapchain(sc)

	eventTicker := time.NewTicker(20 * time.Millisecond)

EventLoop:
	for {
		<-eventTicker.C
		var event sdl.Event
		for event = sdl.PollEvent(); event != nil; event = sdl.PollEvent() {
			switch et := event.(type) {
			case *sdl.KeyboardEvent:
				if et.Keysym.Sym == sdl.K_ESCAPE {
					break EventLoop
				}
			case *sdl.WindowEvent:
				if et.Event == sdl.WINDOWEVENT_SIZE_CHANGED {
					sc, views = recreateSwapchain(dev, sc, views, uint32(et.Data1), uint32(et.Data2))
				}
			case *sdl.QuitEvent:
				break EventLoop
			}
		}
	}
	eventTicker.Stop()

	if err := dev.WaitIdle(); err != nil {
		log.Error(err)
	}
	sc.DestroyImageViews(views)
	sc.Destroy()
	saveCacheBlob(dev, store, key, cache)
	dev.DestroyPipelineCache(cache)
	dev.Destroy()
	instance.Destroy()

	if *memProfile != "" {
		f, err := os.Create(*memProfile)
		if err != nil {
			panic(err)
		}
		if err := pprof.WriteHeapProfile(f); err != nil {
			panic(err)
		}
	}
}

func recreateSwapchain(dev *device.Device, old *swapchain.Swapchain, views []vk.ImageView, width, height uint32) (*swapchain.Swapchain, []vk.ImageView) {
	if err := dev.WaitIdle(); err != nil {
		log.Error(err)
	}
	old.DestroyImageViews(views)

	replacement, err := old.Recreate(width, height)
	if err != nil {
		log.Fatal(err)
	}
	old.Destroy()

	views, err = replacement.ImageViews()
	if err != nil {
		log.Fatal(err)
	}
	logSwapchain(replacement)
	return replacement, views
}

func openCacheStore(physical *device.PhysicalDevice) (*pcache.Store, pcache.Key) {
	root, err := os.UserCacheDir()
	if err != nil {
		root = os.TempDir()
	}
	store, err := pcache.NewStore(filepath.Join(root, "vkboot"))
	if err != nil {
		log.Fatal(err)
	}
	return store, pcache.Key{
		VendorID: physical.VendorID(),
		DeviceID: physical.DeviceID(),
		UUID:     physical.PipelineCacheUUID(),
	}
}

func loadCacheBlob(store *pcache.Store, key pcache.Key) []byte {
	blob, err := store.Load(key)
	if err == pcache.ErrNotExist {
		return nil
	} else if err != nil {
		log.Warn("pipeline cache unusable: " + err.Error())
		return nil
	}
	log.WithField("bytes", len(blob)).Info("pipeline cache loaded")
	return blob
}

func saveCacheBlob(dev *device.Device, store *pcache.Store, key pcache.Key, cache vk.PipelineCache) {
	data, err := dev.PipelineCacheData(cache)
	if err != nil {
		log.Warn("pipeline cache not fetched: " + err.Error())
		return
	}
	if err := store.Save(key, data); err != nil {
		log.Warn("pipeline cache not saved: " + err.Error())
		return
	}
	log.WithField("bytes", len(data)).Info("pipeline cache saved")
}

func logSwapchain(sc *swapchain.Swapchain) {
	extent := sc.Extent()
	log.WithFields(log.Fields{
		"format": sc.Format(),
		"extent": fmt.Sprintf("%dx%d", extent.Width, extent.Height),
		"images": sc.ImageCount(),
	}).Info("swapchain ready")
}
