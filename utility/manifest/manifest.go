// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package manifest reads the Vulkan loader's driver and layer
// manifests. The loader keeps quiet about what it found and where,
// so when an instance refuses to create or a layer silently does not
// exist, the manifests on disk are the place to look. Search paths
// and environment overrides follow the loader's own rules, what this
// package reports is what the loader sees.
package manifest

import (
	"encoding/json"
	"errors"
	"io/ioutil"
)

// ErrNoLayers means a manifest parsed fine but declares no layers.
var ErrNoLayers = errors.New("manifest declares no layers")

// ICD is one installable client driver manifest.
type ICD struct {
	LibraryPath string `json:"library_path"`
	APIVersion  string `json:"api_version"`

	// Path is the manifest file this came from.
	Path string `json:"-"`
}

type icdFile struct {
	FileFormatVersion string `json:"file_format_version"`
	ICD               ICD    `json:"ICD"`
}

// Layer is one layer declared in a layer manifest.
type Layer struct {
	Name                  string `json:"name"`
	Type                  string `json:"type"`
	LibraryPath           string `json:"library_path"`
	APIVersion            string `json:"api_version"`
	ImplementationVersion string `json:"implementation_version"`
	Description           string `json:"description"`

	// Path is the manifest file this came from.
	Path string `json:"-"`
}

type layerFile struct {
	FileFormatVersion string  `json:"file_format_version"`
	Layer             Layer   `json:"layer"`
	Layers            []Layer `json:"layers"`
}

// ReadICD parses a driver manifest.
func ReadICD(path string) (ICD, error) {
	bts, err := ioutil.ReadFile(path)
	if err != nil {
		return ICD{}, err
	}
	var file icdFile
	if err := json.Unmarshal(bts, &file); err != nil {
		return ICD{}, err
	}
	icd := file.ICD
	icd.Path = path
	return icd, nil
}

// ReadLayer parses a layer manifest. Format 1.0.1 and up may declare
// several layers in a single file.
func ReadLayer(path string) ([]Layer, error) {
	bts, err := ioutil.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var file layerFile
	if err := json.Unmarshal(bts, &file); err != nil {
		return nil, err
	}
	layers := file.Layers
	if file.Layer.Name != "" {
		layers = append([]Layer{file.Layer}, layers...)
	}
	if len(layers) == 0 {
		return nil, ErrNoLayers
	}
	for idx := range layers {
		layers[idx].Path = path
	}
	return layers, nil
}
