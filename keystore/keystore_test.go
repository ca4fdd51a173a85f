package keystore

import (
	"os"
	"path/filepath"
	"testing"
)

func tempCachePath(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	return filepath.Join(dir, "subtree-cache")
}

func TestCachePutGet(t *testing.T) {
	path := tempCachePath(t)
	c, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer c.Close()

	addr := SubTreeAddress{PublicSeed: [32]byte{1, 2, 3}, Layer: 0, Base: 0, Height: 2}
	entry := Entry{
		Root:   [32]byte{9, 9, 9},
		Leaves: [][32]byte{{1}, {2}, {3}, {4}},
	}

	if _, ok, err := c.Get(addr); err != nil {
		t.Fatalf("Get on empty cache: %v", err)
	} else if ok {
		t.Fatal("Get returned ok=true on an empty cache")
	}

	if err := c.Put(addr, entry); err != nil {
		t.Fatalf("Put: %v", err)
	}

	got, ok, err := c.Get(addr)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if !ok {
		t.Fatal("Get returned ok=false after Put")
	}
	if got.Root != entry.Root {
		t.Fatalf("Root = %x, want %x", got.Root, entry.Root)
	}
	if len(got.Leaves) != len(entry.Leaves) {
		t.Fatalf("got %d leaves, want %d", len(got.Leaves), len(entry.Leaves))
	}
	for i := range entry.Leaves {
		if got.Leaves[i] != entry.Leaves[i] {
			t.Fatalf("leaf %d = %x, want %x", i, got.Leaves[i], entry.Leaves[i])
		}
	}
}

// TestCacheMultipleSlots stores entries under several distinct
// SubTreeAddresses and checks each is retrievable independently. Slot
// offsets beyond the first are not, in general, multiples of the OS
// page size, so this exercises the path Get/Put take for every slot
// after the first.
func TestCacheMultipleSlots(t *testing.T) {
	path := tempCachePath(t)
	c, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer c.Close()

	addrs := []SubTreeAddress{
		{PublicSeed: [32]byte{1}, Layer: 0, Base: 0, Height: 2},
		{PublicSeed: [32]byte{2}, Layer: 0, Base: 8, Height: 2},
		{PublicSeed: [32]byte{3}, Layer: 1, Base: 0, Height: 3},
	}
	entries := make([]Entry, len(addrs))
	for i, addr := range addrs {
		leaves := make([][32]byte, 1<<addr.Height)
		for j := range leaves {
			leaves[j][0] = byte(i)
			leaves[j][1] = byte(j)
		}
		entries[i] = Entry{Root: [32]byte{byte(10 + i)}, Leaves: leaves}
		if err := c.Put(addr, entries[i]); err != nil {
			t.Fatalf("Put(%d): %v", i, err)
		}
	}

	for i, addr := range addrs {
		got, ok, err := c.Get(addr)
		if err != nil {
			t.Fatalf("Get(%d): %v", i, err)
		}
		if !ok {
			t.Fatalf("Get(%d) returned ok=false", i)
		}
		if got.Root != entries[i].Root {
			t.Fatalf("slot %d: Root = %x, want %x", i, got.Root, entries[i].Root)
		}
		for j := range entries[i].Leaves {
			if got.Leaves[j] != entries[i].Leaves[j] {
				t.Fatalf("slot %d leaf %d = %x, want %x", i, j, got.Leaves[j], entries[i].Leaves[j])
			}
		}
	}
}

func TestCacheSurvivesReopen(t *testing.T) {
	path := tempCachePath(t)
	addr := SubTreeAddress{PublicSeed: [32]byte{4, 5, 6}, Layer: 1, Base: 8, Height: 3}
	entry := Entry{Root: [32]byte{7}, Leaves: make([][32]byte, 8)}
	for i := range entry.Leaves {
		entry.Leaves[i][0] = byte(i)
	}

	c1, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if err := c1.Put(addr, entry); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if err := c1.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	c2, err := Open(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer c2.Close()

	got, ok, err := c2.Get(addr)
	if err != nil {
		t.Fatalf("Get after reopen: %v", err)
	}
	if !ok {
		t.Fatal("entry did not survive reopen")
	}
	if got.Root != entry.Root {
		t.Fatalf("Root after reopen = %x, want %x", got.Root, entry.Root)
	}
}

func TestCacheLockPreventsSecondOpen(t *testing.T) {
	path := tempCachePath(t)
	c1, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer c1.Close()

	if _, err := Open(path); err == nil {
		t.Fatal("expected second Open of a locked cache file to fail")
	}
}

func TestCacheOpenCreatesMissingFile(t *testing.T) {
	path := tempCachePath(t)
	if _, err := os.Stat(path); err == nil {
		t.Fatal("cache file should not exist yet")
	}
	c, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer c.Close()
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("Open did not create the cache file: %v", err)
	}
}
