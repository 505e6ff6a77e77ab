// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package main

import (
	"encoding/json"
	"flag"
	"fmt"

	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"

	"github.com/devblok/vkboot/core"
	"github.com/devblok/vkboot/device"
	"github.com/devblok/vkboot/utility/manifest"
)

var (
	pretty    = flag.Bool("pretty", false, "Indent the JSON output")
	manifests = flag.Bool("manifests", false, "Include the loader manifests found on the system")
)

type report struct {
	LoaderVersion string           `json:"loaderVersion"`
	Validation    bool             `json:"validationAvailable"`
	Layers        []string         `json:"layers"`
	Extensions    []string         `json:"extensions"`
	Devices       []device.Info    `json:"devices"`
	Drivers       []manifest.ICD   `json:"drivers,omitempty"`
	LayerFiles    []manifest.Layer `json:"layerManifests,omitempty"`
}

func main() {
	flag.Parse()

	// A .env next to the binary can point the loader at custom
	// drivers via VK_ICD_FILENAMES before anything initializes.
	godotenv.Load()

	info, err := core.GetSystemInfo(nil)
	if err != nil {
		log.Fatal(err)
	}

	out := report{
		LoaderVersion: info.Version.String(),
		Validation:    info.ValidationAvailable,
		Extensions:    info.Extensions,
	}
	for _, layer := range info.Layers {
		out.Layers = append(out.Layers, layer.Name)
	}

	instance, err := (&core.InstanceBuilder{}).
		AppName("vkinfo").
		Headless(true).
		Build()
	if err != nil {
		log.Fatal(err)
	}

	devices, err := device.EnumerateInfo(instance)
	instance.Destroy()
	if err != nil {
		log.Fatal(err)
	}
	out.Devices = devices

	if *manifests {
		found := manifest.Discover()
		for _, err := range found.Errors {
			log.Warn(err)
		}
		out.Drivers = found.ICDs
		out.LayerFiles = found.Layers
	}

	var bts []byte
	if *pretty {
		bts, err = json.MarshalIndent(out, "", "  ")
	} else {
		bts, err = json.Marshal(out)
	}
	if err != nil {
		log.Fatal(err)
	}
	fmt.Printf("%s\n", bts)
}
