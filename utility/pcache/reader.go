// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package pcache

import (
	"bytes"
	"io"
	"strings"

	"github.com/pierrec/lz4"
)

// Open reads the header of a pipeline cache file from r. It checks
// that the file actually is one, the blob itself stays untouched
// until Data is called.
func Open(r io.ReaderAt) (*Cache, error) {
	magicBytes := make([]byte, MagicLength)
	if num, err := r.ReadAt(magicBytes, 0); err != nil && err != io.EOF {
		return nil, err
	} else if num < MagicLength || strings.Compare(string(magicBytes), magic) != 0 {
		return nil, ErrFileFormat
	}

	headerSizeBytes := make([]byte, HeaderSizeNumberLength)
	if num, err := r.ReadAt(headerSizeBytes, MagicLength); err != nil && err != io.EOF {
		return nil, err
	} else if num < HeaderSizeNumberLength {
		return nil, ErrFileFormat
	}
	headerSize := binaryToInt64(headerSizeBytes)
	if headerSize <= 0 {
		return nil, ErrFileFormat
	}

	headerBytes := make([]byte, headerSize)
	if num, err := r.ReadAt(headerBytes, MagicLength+HeaderSizeNumberLength); err != nil && err != io.EOF {
		return nil, err
	} else if int64(num) < headerSize {
		return nil, ErrFileFormat
	}

	var header Header
	if err := gobDecode(&header, headerBytes); err != nil {
		return nil, ErrFileFormat
	}

	return &Cache{
		reader:     r,
		header:     header,
		dataOffset: MagicLength + HeaderSizeNumberLength + headerSize,
	}, nil
}

// Cache is an opened pipeline cache file. Reads are positioned, so
// it works off anything from os.File to an mmap reader.
type Cache struct {
	reader     io.ReaderAt
	header     Header
	dataOffset int64
}

// Header returns the decoded file header.
func (c *Cache) Header() Header {
	return c.header
}

// Matches reports whether the cache was written for the given
// device.
func (c *Cache) Matches(key Key) bool {
	return c.header.VendorID == key.VendorID &&
		c.header.DeviceID == key.DeviceID &&
		bytes.Equal(c.header.CacheUUID, key.UUID[:])
}

// Data decompresses and returns the pipeline cache blob, ready for
// vk.CreatePipelineCache.
func (c *Cache) Data() ([]byte, error) {
	blob := make([]byte, c.header.CompressedSize)
	if num, err := c.reader.ReadAt(blob, c.dataOffset); err != nil && err != io.EOF {
		return nil, err
	} else if int64(num) < c.header.CompressedSize {
		return nil, ErrFileFormat
	}

	data := make([]byte, c.header.Size)
	if _, err := io.ReadFull(lz4.NewReader(bytes.NewReader(blob)), data); err != nil {
		return nil, ErrFileFormat
	}
	return data, nil
}
