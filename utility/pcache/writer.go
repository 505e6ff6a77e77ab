// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package pcache

import (
	"bytes"
	"io"
	"time"

	"github.com/pierrec/lz4"
)

// Encode compresses a pipeline cache blob and writes it to w keyed
// to the device it was fetched from. Returns the number of bytes
// written.
func (k Key) Encode(w io.Writer, data []byte) (int64, error) {
	var blob bytes.Buffer
	compressor := lz4.NewWriter(&blob)
	if _, err := io.Copy(compressor, bytes.NewReader(data)); err != nil {
		return 0, err
	}
	if err := compressor.Close(); err != nil {
		return 0, err
	}

	header := Header{
		VendorID:       k.VendorID,
		DeviceID:       k.DeviceID,
		CacheUUID:      append([]byte{}, k.UUID[:]...),
		Created:        time.Now().Unix(),
		Size:           int64(len(data)),
		CompressedSize: int64(blob.Len()),
	}
	rawHeader, err := gobEncode(header)
	if err != nil {
		return 0, err
	}

	var written int64
	for _, chunk := range [][]byte{
		[]byte(magic),
		int64ToBinary(int64(len(rawHeader))),
		rawHeader,
		blob.Bytes(),
	} {
		num, err := w.Write(chunk)
		written += int64(num)
		if err != nil {
			return written, err
		}
	}
	return written, nil
}
