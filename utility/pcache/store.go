// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package pcache

import (
	"fmt"
	"io/ioutil"
	"os"
	"path/filepath"
)

// NewStore keeps pipeline caches under dir, one file per device.
// The directory is created when missing.
func NewStore(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}
	return &Store{dir: dir}, nil
}

// Store reads and writes pipeline cache files in a directory.
// Writes go through a temporary file and a rename, a crash mid write
// never leaves a truncated cache behind.
type Store struct {
	dir string
}

// Path is the file a cache for the device lives at.
func (s *Store) Path(key Key) string {
	name := fmt.Sprintf("%08x-%08x-%x.vkpc", key.VendorID, key.DeviceID, key.UUID)
	return filepath.Join(s.dir, name)
}

// Save writes a pipeline cache blob for the device, replacing any
// previous one.
func (s *Store) Save(key Key, data []byte) error {
	temp, err := ioutil.TempFile(s.dir, "pcache")
	if err != nil {
		return ErrTempFail
	}
	if _, err := key.Encode(temp, data); err != nil {
		temp.Close()
		os.Remove(temp.Name())
		return err
	}
	if err := temp.Close(); err != nil {
		os.Remove(temp.Name())
		return ErrTempFail
	}
	if err := os.Rename(temp.Name(), s.Path(key)); err != nil {
		os.Remove(temp.Name())
		return ErrTempFail
	}
	return nil
}

// Load returns the decompressed pipeline cache blob stored for the
// device. ErrNotExist when none was saved yet, ErrDeviceMismatch
// when the file on disk was written by a different device.
func (s *Store) Load(key Key) ([]byte, error) {
	f, err := os.Open(s.Path(key))
	if os.IsNotExist(err) {
		return nil, ErrNotExist
	} else if err != nil {
		return nil, err
	}
	defer f.Close()

	cache, err := Open(f)
	if err != nil {
		return nil, err
	}
	if !cache.Matches(key) {
		return nil, ErrDeviceMismatch
	}
	return cache.Data()
}
