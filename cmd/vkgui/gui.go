// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package main

import (
	"errors"
	"fmt"

	"github.com/gobuffalo/packr"
	"github.com/gotk3/gotk3/glib"
	"github.com/gotk3/gotk3/gtk"
	log "github.com/sirupsen/logrus"

	"github.com/devblok/vkboot/core"
	"github.com/devblok/vkboot/device"
)

// Global variables for GTK and resources
var (
	Builder         *gtk.Builder
	StaticResources packr.Box
)

func init() {
	StaticResources = packr.NewBox("./resources")
}

// Columns of the device list store.
const (
	colName = iota
	colType
	colAPIVersion
	colDriverVersion
	colMemory
)

func buildInterface() (*gtk.Application, error) {
	app, err := gtk.ApplicationNew("org.devblok.vkboot.vkgui", glib.APPLICATION_FLAGS_NONE)
	if err != nil {
		return nil, err
	}

	app.Connect("startup", func() {
		log.Info("Application starting")
	})

	app.Connect("activate", func() {
		log.Info("Application activating")

		resource, err := StaticResources.FindString("vkgui.glade")
		if err != nil {
			log.Fatal(err)
		}

		builder, err := gtk.BuilderNew()
		if err != nil {
			log.Fatal(err)
		}
		if err := builder.AddFromString(resource); err != nil {
			log.Fatal(err)
		}

		Builder = builder

		obj, err := builder.GetObject("mainWindow")
		if err != nil {
			log.Error(err)
			return
		}
		win, ok := obj.(*gtk.Window)
		if !ok {
			log.Error(errors.New("failed to cast Object from builder to Window"))
			return
		}

		scrollObj, err := builder.GetObject("deviceScroll")
		if err != nil {
			log.Error(err)
			return
		}
		scroll, ok := scrollObj.(*gtk.ScrolledWindow)
		if !ok {
			log.Error(errors.New("failed to cast Object from builder to ScrolledWindow"))
			return
		}

		if view, err := deviceList(); err != nil {
			log.Error(err)
		} else {
			scroll.Add(view)
		}

		win.SetDefaultSize(720, 480)
		win.ShowAll()
		app.AddWindow(win)
	})

	app.Connect("shutdown", func() {
		log.Info("Application shutting down")
	})
	return app, nil
}

// deviceList enumerates the system's devices into a TreeView. The
// instance only lives for the enumeration.
func deviceList() (*gtk.TreeView, error) {
	store, err := gtk.ListStoreNew(glib.TYPE_STRING, glib.TYPE_STRING, glib.TYPE_STRING, glib.TYPE_STRING, glib.TYPE_STRING)
	if err != nil {
		return nil, err
	}

	infos, err := enumerateDevices()
	if err != nil {
		return nil, err
	}
	for _, info := range infos {
		name := info.Name
		if info.Invalid {
			name += " (enumeration failed)"
		}
		err := store.Set(store.Append(),
			[]int{colName, colType, colAPIVersion, colDriverVersion, colMemory},
			[]interface{}{
				name,
				info.Type,
				info.APIVersion,
				fmt.Sprintf("%d", info.DriverVersion),
				fmt.Sprintf("%d MiB", info.Memory/(1<<20)),
			})
		if err != nil {
			return nil, err
		}
	}

	view, err := gtk.TreeViewNewWithModel(store)
	if err != nil {
		return nil, err
	}
	for idx, title := range []string{"Device", "Type", "API", "Driver", "Memory"} {
		renderer, err := gtk.CellRendererTextNew()
		if err != nil {
			return nil, err
		}
		column, err := gtk.TreeViewColumnNewWithAttribute(title, renderer, "text", idx)
		if err != nil {
			return nil, err
		}
		view.AppendColumn(column)
	}
	return view, nil
}

func enumerateDevices() ([]device.Info, error) {
	instance, err := (&core.InstanceBuilder{}).
		AppName("vkgui").
		Headless(true).
		Build()
	if err != nil {
		return nil, err
	}
	defer instance.Destroy()
	return device.EnumerateInfo(instance)
}
