// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package core

import (
	"errors"

	vk "github.com/devblok/vulkan"
)

var (
	// ErrUnavailable means no Vulkan loader could be found on the system.
	ErrUnavailable = errors.New("vulkan is not available on this system")

	// ErrVersionUnavailable means the loader is older than the minimum
	// instance version the builder was asked for.
	ErrVersionUnavailable = errors.New("required vulkan version unavailable")

	// ErrLayersNotPresent means an explicitly required layer is not
	// installed on the system.
	ErrLayersNotPresent = errors.New("required layers not present")

	// ErrExtensionsNotPresent means an explicitly required instance
	// extension is not supported by the loader.
	ErrExtensionsNotPresent = errors.New("required extensions not present")

	// ErrWindowingExtensionsNotPresent means the surface extensions a
	// windowed instance needs are missing, usually a headless system.
	ErrWindowingExtensionsNotPresent = errors.New("windowing extensions not present")

	// ErrValidationUnavailable means validation was demanded but no
	// validation layer is installed.
	ErrValidationUnavailable = errors.New("validation layers requested but not available")

	// ErrSurfaceRequired means a surface bound operation ran on an
	// instance that was built headless.
	ErrSurfaceRequired = errors.New("operation requires a window surface")
)

// ResultError carries a failed driver call unchanged. Op names the
// Vulkan entrypoint, Result is the code the driver returned.
type ResultError struct {
	Op     string
	Result vk.Result
}

func (e *ResultError) Error() string {
	return e.Op + "(): " + vk.Error(e.Result).Error()
}

// Check converts a driver return code into an error, nil on success.
// Incomplete is not treated as a failure, enumeration loops handle it
// by calling again.
func Check(op string, ret vk.Result) error {
	if ret == vk.Success || ret == vk.Incomplete {
		return nil
	}
	return &ResultError{Op: op, Result: ret}
}
