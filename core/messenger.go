// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package core

import (
	"unsafe"

	vk "github.com/devblok/vulkan"
	"github.com/sirupsen/logrus"
)

// MessengerFunc handles one diagnostic message from the driver or an
// enabled layer. Returning vk.True asks the driver to abort the call
// that triggered the message, which only ever makes sense while
// debugging validation itself.
type MessengerFunc func(flags vk.DebugReportFlags, objectType vk.DebugReportObjectType,
	object uint64, location uint, messageCode int32, layerPrefix, message string,
	userData unsafe.Pointer) vk.Bool32

// DefaultMessengerFlags selects the message classes the default
// messenger subscribes to.
const DefaultMessengerFlags = vk.DebugReportFlags(vk.DebugReportErrorBit |
	vk.DebugReportWarningBit | vk.DebugReportPerformanceWarningBit)

// messengerLevel maps a report class to the level it is logged at.
// Flags may combine classes, the most severe one wins.
func messengerLevel(flags vk.DebugReportFlags) logrus.Level {
	switch {
	case flags&vk.DebugReportFlags(vk.DebugReportErrorBit) != 0:
		return logrus.ErrorLevel
	case flags&vk.DebugReportFlags(vk.DebugReportWarningBit) != 0:
		return logrus.WarnLevel
	case flags&vk.DebugReportFlags(vk.DebugReportPerformanceWarningBit) != 0:
		return logrus.WarnLevel
	case flags&vk.DebugReportFlags(vk.DebugReportInformationBit) != 0:
		return logrus.InfoLevel
	default:
		return logrus.DebugLevel
	}
}

// DefaultMessenger logs every message through logrus and lets the
// triggering call continue.
func DefaultMessenger(flags vk.DebugReportFlags, objectType vk.DebugReportObjectType,
	object uint64, location uint, messageCode int32, layerPrefix, message string,
	userData unsafe.Pointer) vk.Bool32 {
	logrus.WithFields(logrus.Fields{
		"layer": layerPrefix,
		"code":  messageCode,
	}).Log(messengerLevel(flags), message)
	return vk.False
}

// createMessenger registers a debug report callback on a live
// instance. The instance must have been built with the debug report
// extension enabled.
func createMessenger(instance vk.Instance, flags vk.DebugReportFlags, fn MessengerFunc) (vk.DebugReportCallback, error) {
	var callback vk.DebugReportCallback
	ret := vk.CreateDebugReportCallback(instance, &vk.DebugReportCallbackCreateInfo{
		SType: vk.StructureTypeDebugReportCallbackCreateInfo,
		Flags: flags,
		PfnCallback: func(flags vk.DebugReportFlags, objectType vk.DebugReportObjectType,
			object uint64, location uint, messageCode int32, layerPrefix, message string,
			userData unsafe.Pointer) vk.Bool32 {
			return fn(flags, objectType, object, location, messageCode, layerPrefix, message, userData)
		},
	}, nil, &callback)
	if err := Check("vk.CreateDebugReportCallback", ret); err != nil {
		return callback, err
	}
	return callback, nil
}
