// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package pcache_test

import (
	"bytes"
	"strings"
	"testing"

	"github.com/devblok/vkboot/utility/pcache"
)

var (
	testKey = pcache.Key{
		VendorID: 0x10de,
		DeviceID: 0x1f08,
		UUID:     [16]byte{0xde, 0xad, 0xbe, 0xef, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14, 15},
	}
	testBlob = "pipeline cache blobs are opaque driver bytes, any will do here"
)

func TestEncodeAndOpen(t *testing.T) {
	buf := bytes.NewBuffer([]byte{})
	if written, err := testKey.Encode(buf, []byte(testBlob)); err != nil {
		t.Error(err)
	} else {
		t.Logf("written %d", written)
	}

	cache, err := pcache.Open(bytes.NewReader(buf.Bytes()))
	if err != nil {
		t.Fatal(err)
	}
	if !cache.Matches(testKey) {
		t.Error("cache does not match the key that wrote it")
	}
	if header := cache.Header(); header.Size != int64(len(testBlob)) {
		t.Errorf("expected size %d, got %d", len(testBlob), header.Size)
	}

	data, err := cache.Data()
	if err != nil {
		t.Error(err)
	}
	if strings.Compare(string(data), testBlob) != 0 {
		t.Error("blob does not match up after the round trip")
	}
}

func TestOpenRejectsGarbage(t *testing.T) {
	if _, err := pcache.Open(bytes.NewReader([]byte("certainly not a cache file"))); err != pcache.ErrFileFormat {
		t.Errorf("expected ErrFileFormat, got %v", err)
	}
	if _, err := pcache.Open(bytes.NewReader([]byte("VK"))); err != pcache.ErrFileFormat {
		t.Errorf("expected ErrFileFormat on a truncated file, got %v", err)
	}
}

func TestMatchesRejectsOtherDevice(t *testing.T) {
	buf := bytes.NewBuffer([]byte{})
	if _, err := testKey.Encode(buf, []byte(testBlob)); err != nil {
		t.Error(err)
	}

	cache, err := pcache.Open(bytes.NewReader(buf.Bytes()))
	if err != nil {
		t.Fatal(err)
	}

	other := testKey
	other.DeviceID = 0x2204
	if cache.Matches(other) {
		t.Error("cache matched a different device")
	}
}
