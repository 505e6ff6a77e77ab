// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package core_test

import (
	"testing"

	vk "github.com/devblok/vulkan"

	"github.com/devblok/vkboot/core"
)

func TestVersionPacking(t *testing.T) {
	v := core.MakeVersion(1, 2, 133)
	if v.Packed() != uint32(vk.MakeVersion(1, 2, 133)) {
		t.Error("packed version does not match the binding's packing")
	}

	back := core.VersionFromPacked(v.Packed())
	if back != v {
		t.Errorf("version did not survive the round trip, got %s", back)
	}
}

func TestVersionString(t *testing.T) {
	if s := core.MakeVersion(1, 1, 0).String(); s != "1.1.0" {
		t.Errorf("unexpected version string %q", s)
	}
}

func TestVersionAtLeast(t *testing.T) {
	if !core.Version11.AtLeast(core.Version10) {
		t.Error("1.1 should satisfy 1.0")
	}
	if !core.Version11.AtLeast(core.Version11) {
		t.Error("1.1 should satisfy itself")
	}
	if core.Version10.AtLeast(core.Version11) {
		t.Error("1.0 should not satisfy 1.1")
	}
	if !core.MakeVersion(1, 1, 101).AtLeast(core.MakeVersion(1, 1, 100)) {
		t.Error("patch versions should order")
	}
}
