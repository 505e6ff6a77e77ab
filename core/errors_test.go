// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package core_test

import (
	"strings"
	"testing"

	vk "github.com/devblok/vulkan"

	"github.com/devblok/vkboot/core"
)

func TestCheckSuccess(t *testing.T) {
	if err := core.Check("vk.CreateInstance", vk.Success); err != nil {
		t.Error(err)
	}
	if err := core.Check("vk.EnumeratePhysicalDevices", vk.Incomplete); err != nil {
		t.Error("incomplete enumeration should not be an error")
	}
}

func TestCheckPreservesResult(t *testing.T) {
	err := core.Check("vk.CreateInstance", vk.ErrorOutOfDeviceMemory)
	if err == nil {
		t.Error("expected an error")
	}

	re, ok := err.(*core.ResultError)
	if !ok {
		t.Errorf("expected a ResultError, got %T", err)
	}
	if re.Result != vk.ErrorOutOfDeviceMemory {
		t.Error("driver result code was not preserved")
	}
	if re.Op != "vk.CreateInstance" {
		t.Errorf("unexpected op %q", re.Op)
	}
	if !strings.HasPrefix(err.Error(), "vk.CreateInstance(): ") {
		t.Errorf("unexpected error format %q", err.Error())
	}
}
