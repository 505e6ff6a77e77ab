// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package pcache persists Vulkan pipeline caches between runs.
// Drivers rebuild every pipeline from scratch on startup unless they
// are handed the blob from a previous run, so a few kilobytes on disk
// directly cut startup time. Blobs are lz4 compressed and keyed to
// the exact device they came from, a cache written by a different GPU
// or driver version is rejected instead of being fed back to the
// driver. The on disk layout keeps the header readable without
// touching the blob, so files can be memory mapped and inspected
// cheaply.
package pcache

import (
	"bytes"
	"encoding/binary"
	"encoding/gob"
	"errors"
)

// package errors
var (
	ErrFileFormat     = errors.New("corrupted or not a pipeline cache file")
	ErrDeviceMismatch = errors.New("cache belongs to a different device")
	ErrNotExist       = errors.New("no cache stored for the device")
	ErrTempFail       = errors.New("temporary file operation failed")
)

// Sizes relevant to the header of the file
const (
	MagicLength            = 4
	HeaderSizeNumberLength = 16
)

const magic = "VKPC"

// Key identifies the device a cache blob belongs to. UUID is the
// driver's pipeline cache UUID, it changes between driver versions
// even on the same silicon.
type Key struct {
	VendorID uint32
	DeviceID uint32
	UUID     [16]byte
}

// Header describes the blob that follows it in the file.
type Header struct {
	VendorID       uint32
	DeviceID       uint32
	CacheUUID      []byte
	Created        int64
	Size           int64
	CompressedSize int64
}

func int64ToBinary(num int64) []byte {
	buf := make([]byte, HeaderSizeNumberLength)
	binary.LittleEndian.PutUint64(buf, uint64(num))
	return buf
}

func binaryToInt64(bts []byte) int64 {
	return int64(binary.LittleEndian.Uint64(bts))
}

func gobEncode(data interface{}) ([]byte, error) {
	var encoded bytes.Buffer
	enc := gob.NewEncoder(&encoded)
	if err := enc.Encode(data); err != nil {
		return nil, err
	}
	return encoded.Bytes(), nil
}

func gobDecode(obj interface{}, bts []byte) error {
	dec := gob.NewDecoder(bytes.NewBuffer(bts))
	if err := dec.Decode(obj); err != nil {
		return err
	}
	return nil
}
