package pcache

import (
	"io/ioutil"
	"os"
	"strings"
	"testing"

	"golang.org/x/exp/mmap"
)

var storeKey = Key{
	VendorID: 0x8086,
	DeviceID: 0x3e9b,
	UUID:     [16]byte{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14, 15, 16},
}

func tempStore(t *testing.T) (*Store, func()) {
	dir, err := ioutil.TempDir("", "pcacheStore")
	if err != nil {
		t.Fatal(err)
	}
	store, err := NewStore(dir)
	if err != nil {
		t.Fatal(err)
	}
	return store, func() { os.RemoveAll(dir) }
}

func TestSaveAndLoad(t *testing.T) {
	store, done := tempStore(t)
	defer done()

	blob := "driver bytes"
	if err := store.Save(storeKey, []byte(blob)); err != nil {
		t.Error(err)
	}

	data, err := store.Load(storeKey)
	if err != nil {
		t.Error(err)
	}
	if strings.Compare(string(data), blob) != 0 {
		t.Error("blob does not match up after the round trip")
	}
}

func TestSaveOverwrites(t *testing.T) {
	store, done := tempStore(t)
	defer done()

	if err := store.Save(storeKey, []byte("stale")); err != nil {
		t.Error(err)
	}
	if err := store.Save(storeKey, []byte("fresh")); err != nil {
		t.Error(err)
	}

	data, err := store.Load(storeKey)
	if err != nil {
		t.Error(err)
	}
	if strings.Compare(string(data), "fresh") != 0 {
		t.Error("expected the later save to win")
	}
}

func TestLoadMissing(t *testing.T) {
	store, done := tempStore(t)
	defer done()

	if _, err := store.Load(storeKey); err != ErrNotExist {
		t.Errorf("expected ErrNotExist, got %v", err)
	}
}

func TestLoadRejectsForeignFile(t *testing.T) {
	store, done := tempStore(t)
	defer done()

	other := storeKey
	other.VendorID = 0x1002
	if err := store.Save(other, []byte("foreign")); err != nil {
		t.Error(err)
	}
	// Same as a cache file copied over from another machine.
	if err := os.Rename(store.Path(other), store.Path(storeKey)); err != nil {
		t.Fatal(err)
	}

	if _, err := store.Load(storeKey); err != ErrDeviceMismatch {
		t.Errorf("expected ErrDeviceMismatch, got %v", err)
	}
}

func TestOpenMmap(t *testing.T) {
	store, done := tempStore(t)
	defer done()

	blob := "mapped driver bytes"
	if err := store.Save(storeKey, []byte(blob)); err != nil {
		t.Error(err)
	}

	r, err := mmap.Open(store.Path(storeKey))
	if err != nil {
		t.Fatal(err)
	}
	defer r.Close()

	cache, err := Open(r)
	if err != nil {
		t.Fatal(err)
	}

	data, err := cache.Data()
	if err != nil {
		t.Error(err)
	}
	if strings.Compare(string(data), blob) != 0 {
		t.Error("blob does not match up through the mapped reader")
	}
}
