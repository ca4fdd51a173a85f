// Package keystore caches derived Merkle subtree roots and leaf
// public keys on disk so that repeatedly signing near the same
// hypertree address — in particular the upper layers, whose position
// range is small and gets revisited by many unrelated leaf indices —
// does not have to regenerate every WOTS+ chain in that subtree from
// scratch.
//
// This cache holds no secret material and no signature sequence number:
// the scheme it backs is stateless, so there is nothing here that must
// survive a crash to preserve a one-time-use guarantee. A cache miss
// only costs CPU time, never correctness; callers may freely discard or
// reset the cache.
package keystore

import (
	"bytes"
	"encoding/binary"
	"os"
	"path/filepath"
	"sync"

	"github.com/bwesterb/byteswriter"
	"github.com/cespare/xxhash"
	"github.com/edsrzf/mmap-go"
	"github.com/nightlyone/lockfile"
)

// SubTreeAddress identifies one cached subtree: the keypair's public
// seed, the hypertree layer and base position the subtree was built at,
// and its height (Merkle subtrees of different heights share one cache;
// the signer does not cache FORS subtrees).
type SubTreeAddress struct {
	PublicSeed [32]byte
	Layer      uint16
	Base       uint64
	Height     uint32
}

func (a SubTreeAddress) encode() []byte {
	buf := make([]byte, 32+2+8+4)
	copy(buf[0:32], a.PublicSeed[:])
	binary.BigEndian.PutUint16(buf[32:34], a.Layer)
	binary.BigEndian.PutUint64(buf[34:42], a.Base)
	binary.BigEndian.PutUint32(buf[42:46], a.Height)
	return buf
}

// key reduces a SubTreeAddress to the 64-bit lookup key used by the
// in-memory index. Collisions only degrade the cache to an extra miss
// (the encoded address is also stored in the slot header and checked on
// load), so a fast non-cryptographic hash is the right tool here.
func (a SubTreeAddress) key() uint64 {
	return xxhash.Sum64(a.encode())
}

// Entry is a cached subtree: its root and the leaf values (the WOTS+
// public keys of a Merkle subtree) that were paired to produce it, in
// index order.
type Entry struct {
	Root   [32]byte
	Leaves [][32]byte
}

func (e Entry) size() int {
	return 32 + len(e.Leaves)*32
}

func (e Entry) encode(buf []byte) {
	copy(buf[0:32], e.Root[:])
	off := 32
	for _, l := range e.Leaves {
		copy(buf[off:], l[:])
		off += 32
	}
}

func decodeEntry(buf []byte) Entry {
	var e Entry
	copy(e.Root[:], buf[0:32])
	n := (len(buf) - 32) / 32
	e.Leaves = make([][32]byte, n)
	off := 32
	for i := range e.Leaves {
		copy(e.Leaves[i][:], buf[off:])
		off += 32
	}
	return e
}

// slotHeader precedes every cached entry in the backing file: the 46
// bytes of the address it was stored under, and 1 byte marking the slot
// occupied. Written with byteswriter.
type slotHeader struct {
	Occupied byte
	Address  [46]byte
}

const slotHeaderSize = 1 + 46

func slotSize(height uint32) int {
	return slotHeaderSize + 32 + int(uint64(1)<<height)*32
}

// Cache is a disk-backed, process-shared cache of SubTreeAddress ->
// Entry, guarded by an advisory lockfile on the cache file's path.
type Cache struct {
	mu   sync.Mutex
	path string
	lock lockfile.Lockfile
	file *os.File

	slots    map[uint64]int64 // key -> byte offset of slot header
	nextSlot int64
	slotCap  int // largest slot size seen by scan; new slots are sized by slotSize(height)
}

// Open opens or creates a cache file at path, taking an advisory lock at
// path+".lock" so two processes do not interleave writes.
func Open(path string) (*Cache, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	lock, err := lockfile.New(abs + ".lock")
	if err != nil {
		return nil, err
	}
	// TryLock succeeds again for a lock this process already holds, so a
	// second Open of the same path within one process is refused here.
	if owner, err := lock.GetOwner(); err == nil && owner.Pid == os.Getpid() {
		return nil, lockfile.ErrBusy
	}
	if err := lock.TryLock(); err != nil {
		return nil, err
	}

	file, err := os.OpenFile(abs, os.O_RDWR|os.O_CREATE, 0600)
	if err != nil {
		lock.Unlock()
		return nil, err
	}

	c := &Cache{
		path:  abs,
		lock:  lock,
		file:  file,
		slots: make(map[uint64]int64),
	}
	if err := c.scan(); err != nil {
		file.Close()
		lock.Unlock()
		return nil, err
	}
	return c, nil
}

// scan rebuilds the in-memory slot index from an existing cache file by
// memory-mapping it once and walking every occupied slot.
func (c *Cache) scan() error {
	info, err := c.file.Stat()
	if err != nil {
		return err
	}
	size := info.Size()
	if size == 0 {
		return nil
	}
	if c.slotCap == 0 {
		c.slotCap = slotSize(0) // grown below as larger heights are seen
	}

	m, err := mmap.MapRegion(c.file, int(size), mmap.RDONLY, 0, 0)
	if err != nil {
		return err
	}
	defer m.Unmap()

	var off int64
	for off+int64(slotHeaderSize) <= size {
		if m[off] != 1 {
			break
		}
		var addrBuf [46]byte
		copy(addrBuf[:], m[off+1:off+1+46])
		height := binary.BigEndian.Uint32(addrBuf[42:46])
		ss := slotSize(height)
		if ss > c.slotCap {
			c.slotCap = ss
		}
		c.slots[xxhash.Sum64(addrBuf[:])] = off
		off += int64(ss)
	}
	c.nextSlot = off
	return nil
}

// Get returns the cached entry for addr, if present.
//
// mmap.MapRegion only accepts offsets that are a multiple of the OS page
// size, and a slot's byte offset in the cache file is not in general
// page-aligned (slots are packed tightly by slotSize). So every slot is
// reached through a single mapping of the whole file from offset 0,
// sliced in Go memory at the slot's offset, rather than mapping each
// slot as its own region.
func (c *Cache) Get(addr SubTreeAddress) (Entry, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	off, ok := c.slots[addr.key()]
	if !ok {
		return Entry{}, false, nil
	}
	ss := slotSize(addr.Height)
	start := int(off)
	m, err := mmap.MapRegion(c.file, start+ss, mmap.RDONLY, 0, 0)
	if err != nil {
		return Entry{}, false, err
	}
	defer m.Unmap()
	slot := m[start : start+ss]
	if slot[0] != 1 || !bytes.Equal(slot[1:slotHeaderSize], addr.encode()) {
		// A different address whose key collides with addr owns this slot.
		return Entry{}, false, nil
	}
	return decodeEntry(slot[slotHeaderSize:]), true, nil
}

// Put stores entry under addr, appending a new slot (growing the file)
// the first time this address is cached. See Get for why the whole file
// is mapped rather than just the slot's own region.
func (c *Cache) Put(addr SubTreeAddress, entry Entry) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	ss := slotSize(addr.Height)
	off, exists := c.slots[addr.key()]
	if !exists {
		off = c.nextSlot
		if err := c.file.Truncate(off + int64(ss)); err != nil {
			return err
		}
		c.nextSlot = off + int64(ss)
	}

	start := int(off)
	m, err := mmap.MapRegion(c.file, start+ss, mmap.RDWR, 0, 0)
	if err != nil {
		return err
	}
	defer m.Unmap()
	slot := m[start : start+ss]

	w := byteswriter.NewWriter(slot)
	if _, err := w.Write([]byte{1}); err != nil {
		return err
	}
	addrBuf := addr.encode()
	if _, err := w.Write(addrBuf); err != nil {
		return err
	}
	body := make([]byte, entry.size())
	entry.encode(body)
	if _, err := w.Write(body); err != nil {
		return err
	}
	if err := m.Flush(); err != nil {
		return err
	}

	c.slots[addr.key()] = off
	return nil
}

// Close flushes and releases the cache file and its lock.
func (c *Cache) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	err := c.file.Close()
	if unlockErr := c.lock.Unlock(); err == nil {
		err = unlockErr
	}
	return err
}
