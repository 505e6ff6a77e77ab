// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package core

import "fmt"

// Version is a Vulkan API version triple. The Vulkan API packs it
// into a single word with 10 bits of major, 10 bits of minor and
// 12 bits of patch.
type Version struct {
	Major uint32
	Minor uint32
	Patch uint32
}

// Well known API versions.
var (
	Version10 = Version{Major: 1, Minor: 0}
	Version11 = Version{Major: 1, Minor: 1}
	Version12 = Version{Major: 1, Minor: 2}
)

// MakeVersion assembles a Version from its parts.
func MakeVersion(major, minor, patch uint32) Version {
	return Version{Major: major, Minor: minor, Patch: patch}
}

// VersionFromPacked unpacks a version word as reported by the driver.
func VersionFromPacked(packed uint32) Version {
	return Version{
		Major: packed >> 22,
		Minor: (packed >> 12) & 0x3ff,
		Patch: packed & 0xfff,
	}
}

// Packed returns the version in the driver's single word layout.
func (v Version) Packed() uint32 {
	return v.Major<<22 | v.Minor<<12 | v.Patch
}

// AtLeast reports whether v is the same or a later version than o.
func (v Version) AtLeast(o Version) bool {
	return v.Packed() >= o.Packed()
}

// IsZero reports whether the version was never set.
func (v Version) IsZero() bool {
	return v.Major == 0 && v.Minor == 0 && v.Patch == 0
}

func (v Version) String() string {
	return fmt.Sprintf("%d.%d.%d", v.Major, v.Minor, v.Patch)
}
