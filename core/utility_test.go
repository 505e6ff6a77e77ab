// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package core_test

import (
	"testing"

	"github.com/devblok/vkboot/core"
)

func TestSafeString(t *testing.T) {
	if res := core.SafeString(""); res != "\x00" {
		t.Error("empty string should become a lone terminator")
	}
	if res := core.SafeString("VK_KHR_surface"); res != "VK_KHR_surface\x00" {
		t.Error("terminator was not appended")
	}
	if res := core.SafeString("VK_KHR_surface\x00"); res != "VK_KHR_surface\x00" {
		t.Error("terminated string should pass through unchanged")
	}
}

func TestSafeStrings(t *testing.T) {
	list := core.SafeStrings([]string{"one", "two\x00", ""})
	expected := []string{"one\x00", "two\x00", "\x00"}
	for idx := range expected {
		if list[idx] != expected[idx] {
			t.Errorf("entry %d not terminated correctly", idx)
		}
	}
}

func BenchmarkSafeStringsSmall(b *testing.B) {
	list := []string{"VK_KHR_surface", "VK_KHR_xcb_surface"}
	for idx := 0; idx < b.N; idx++ {
		core.SafeStrings(list)
	}
}

func BenchmarkSafeStringsBig(b *testing.B) {
	list := make([]string, 100)
	for idx := range list {
		list[idx] = "VK_KHR_surface"
	}
	for idx := 0; idx < b.N; idx++ {
		core.SafeStrings(list)
	}
}
