// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package manifest

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/gobuffalo/envy"
)

// Environment variables the loader honors. Both override the system
// search entirely instead of extending it.
const (
	ICDFilenamesEnv = "VK_ICD_FILENAMES"
	LayerPathEnv    = "VK_LAYER_PATH"
)

var systemDirs = []string{
	"/usr/local/etc/vulkan",
	"/usr/local/share/vulkan",
	"/etc/vulkan",
	"/usr/share/vulkan",
}

// ICDPaths lists the driver manifest files the loader would
// consider. VK_ICD_FILENAMES names files directly.
func ICDPaths() []string {
	if override := envy.Get(ICDFilenamesEnv, ""); override != "" {
		return splitPathList(override)
	}
	var paths []string
	for _, dir := range searchDirs() {
		paths = append(paths, globJSON(filepath.Join(dir, "icd.d"))...)
	}
	return paths
}

// LayerPaths lists the layer manifest files the loader would
// consider. VK_LAYER_PATH names directories to scan.
func LayerPaths() []string {
	if override := envy.Get(LayerPathEnv, ""); override != "" {
		var paths []string
		for _, dir := range splitPathList(override) {
			paths = append(paths, globJSON(dir)...)
		}
		return paths
	}
	var paths []string
	for _, dir := range searchDirs() {
		paths = append(paths, globJSON(filepath.Join(dir, "explicit_layer.d"))...)
		paths = append(paths, globJSON(filepath.Join(dir, "implicit_layer.d"))...)
	}
	return paths
}

func searchDirs() []string {
	dirs := append([]string{}, systemDirs...)
	if home := envy.Get("HOME", ""); home != "" {
		dirs = append(dirs, filepath.Join(home, ".local", "share", "vulkan"))
	}
	return dirs
}

func splitPathList(list string) []string {
	var out []string
	for _, path := range strings.Split(list, string(os.PathListSeparator)) {
		if path != "" {
			out = append(out, path)
		}
	}
	return out
}

func globJSON(dir string) []string {
	matches, err := filepath.Glob(filepath.Join(dir, "*.json"))
	if err != nil {
		return nil
	}
	return matches
}

// Discovery is everything found on the system, manifests that could
// not be read included.
type Discovery struct {
	ICDs   []ICD
	Layers []Layer
	Errors []error
}

// Discover scans the loader's search paths. A broken manifest lands
// in Errors, it must not hide the working drivers next to it.
func Discover() Discovery {
	var found Discovery
	for _, path := range ICDPaths() {
		icd, err := ReadICD(path)
		if err != nil {
			found.Errors = append(found.Errors, fmt.Errorf("%s: %v", path, err))
			continue
		}
		found.ICDs = append(found.ICDs, icd)
	}
	for _, path := range LayerPaths() {
		layers, err := ReadLayer(path)
		if err != nil {
			found.Errors = append(found.Errors, fmt.Errorf("%s: %v", path, err))
			continue
		}
		found.Layers = append(found.Layers, layers...)
	}
	return found
}
