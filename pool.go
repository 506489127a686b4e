// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package turnring

import (
	"encoding/binary"
	"hash/fnv"
	"os"
	"path/filepath"
	"unsafe"

	"golang.org/x/sys/unix"
)

// addrOf returns the numeric address of p, used only to compute an offset
// between two pointers known to alias the same backing mmap'd array.
func addrOf(p *byte) uintptr {
	return uintptr(unsafe.Pointer(p))
}

// Pool is a minimal file-backed, byte-addressable persistent-memory pool:
// the external collaborator a turnring.Queue assumes (allocation, mapping, and a
// persist(region) primitive with fsync-equivalent ordering), scoped down
// to exactly what a single reopening owner of one turnring.Queue needs.
//
// A pool file holds a fixed header followed by two equally sized slot
// regions ("A" and "B"). Exactly one region is active (holds the live
// slot array); the other is the recovery algorithm's spare, used so that
// OpenQueue can write a new canonical array, persist it, and atomically
// swap the active region by flipping one header field, without ever
// mutating the live region in place.
type Pool struct {
	path       string
	file       *os.File
	data       []byte
	capacity   uint64
	slotStride uint64
	regionSize uint64
}

const (
	poolHeaderSize = 64
	poolMagic      = uint64(0x5455524e524e4731) // "TURNRNG1"
)

// layoutHash derives a stable identifier from the pool file's basename,
// deriving the layout identifier from the pool file's basename rather than
// carrying the name itself in the header.
func layoutHash(path string) uint64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(filepath.Base(path)))
	return h.Sum64()
}

// roundUp64 rounds n up to the next multiple of 64 (a cache line), the
// alignment this implementation enforces explicitly rather than assuming.
func roundUp64(n uint64) uint64 {
	return (n + 63) &^ 63
}

// OpenOrCreatePool opens the pool at path, creating it first if it does
// not yet exist. capacity is the
// logical ring capacity (not counting the sentinel slot); slotSize is
// sizeof(slot[T]) for the element type the caller intends to store,
// rounded up to a 64-byte stride.
//
// A failed integrity check on an existing file returns ErrPoolInconsistent
// and is fatal: the caller must not use the returned error's pool (nil)
// and should treat this as an operator-intervention condition.
func OpenOrCreatePool(path string, capacity, slotSize uint64) (*Pool, error) {
	stride := roundUp64(slotSize)
	regionSize := (capacity + 1) * stride

	if _, err := os.Stat(path); os.IsNotExist(err) {
		if err := createPool(path, capacity, stride, regionSize); err != nil {
			return nil, err
		}
	}

	f, err := os.OpenFile(path, os.O_RDWR, 0o644)
	if err != nil {
		return nil, err
	}
	wantSize := int64(poolHeaderSize + 2*regionSize)
	fi, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, err
	}
	if fi.Size() != wantSize {
		f.Close()
		return nil, ErrPoolInconsistent
	}

	data, err := unix.Mmap(int(f.Fd()), 0, int(wantSize), unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
	if err != nil {
		f.Close()
		return nil, err
	}

	p := &Pool{path: path, file: f, data: data, capacity: capacity, slotStride: stride, regionSize: regionSize}
	if !p.Check() {
		p.Close()
		return nil, ErrPoolInconsistent
	}
	return p, nil
}

func createPool(path string, capacity, stride, regionSize uint64) error {
	size := int64(poolHeaderSize + 2*regionSize)
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()
	if err := f.Truncate(size); err != nil {
		return err
	}

	data, err := unix.Mmap(int(f.Fd()), 0, int(size), unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
	if err != nil {
		return err
	}
	defer unix.Munmap(data)

	binary.LittleEndian.PutUint64(data[0:8], poolMagic)
	binary.LittleEndian.PutUint64(data[8:16], capacity)
	binary.LittleEndian.PutUint64(data[16:24], stride)
	binary.LittleEndian.PutUint64(data[24:32], 0) // active region = A
	binary.LittleEndian.PutUint64(data[32:40], layoutHash(path))

	return unix.Msync(data[:poolHeaderSize], unix.MS_SYNC)
}

// Check verifies the pool's header: magic, capacity, slot stride, and
// layout hash must all match what this file was created with.
func (p *Pool) Check() bool {
	if len(p.data) < poolHeaderSize {
		return false
	}
	if binary.LittleEndian.Uint64(p.data[0:8]) != poolMagic {
		return false
	}
	if binary.LittleEndian.Uint64(p.data[8:16]) != p.capacity {
		return false
	}
	if binary.LittleEndian.Uint64(p.data[16:24]) != p.slotStride {
		return false
	}
	if binary.LittleEndian.Uint64(p.data[32:40]) != layoutHash(p.path) {
		return false
	}
	active := binary.LittleEndian.Uint64(p.data[24:32])
	return active == 0 || active == 1
}

func (p *Pool) active() uint64 {
	return binary.LittleEndian.Uint64(p.data[24:32])
}

// ActiveRegion returns the byte range of the currently live slot region.
func (p *Pool) ActiveRegion() []byte {
	off := poolHeaderSize + p.active()*p.regionSize
	return p.data[off : off+p.regionSize]
}

// InactiveRegion returns the byte range of the spare slot region, used by
// OpenQueue to stage the canonical slot array that Recover computed.
func (p *Pool) InactiveRegion() []byte {
	off := poolHeaderSize + (1-p.active())*p.regionSize
	return p.data[off : off+p.regionSize]
}

// SwapActive flips which region is live and persists the header. Callers
// must have already persisted the inactive region's new contents before
// calling this, so a crash never observes a half-written region as active.
func (p *Pool) SwapActive() error {
	next := 1 - p.active()
	binary.LittleEndian.PutUint64(p.data[24:32], next)
	return p.Persist(p.data[:poolHeaderSize])
}

// Persist flushes the memory backing region to the persistence domain.
// region must be a sub-slice of p's mmap'd data. The flush is rounded out
// to whole pages, since msync operates at page granularity.
func (p *Pool) Persist(region []byte) error {
	if len(region) == 0 {
		return nil
	}
	base := &p.data[0]
	start := addrOf(&region[0]) - addrOf(base)
	end := start + uintptr(len(region))

	pageSize := uintptr(os.Getpagesize())
	alignedStart := start &^ (pageSize - 1)
	alignedEnd := (end + pageSize - 1) &^ (pageSize - 1)
	if int(alignedEnd) > len(p.data) {
		alignedEnd = uintptr(len(p.data))
	}
	return unix.Msync(p.data[alignedStart:alignedEnd], unix.MS_SYNC)
}

// Capacity returns the logical ring capacity the pool was created with.
func (p *Pool) Capacity() uint64 { return p.capacity }

// SlotStride returns the per-slot byte stride in the pool's regions.
func (p *Pool) SlotStride() uint64 { return p.slotStride }

// Close flushes, unmaps, and closes the pool file. It does not destroy or
// zero any live elements in the active region — see Queue.Close's doc
// comment for why that is intentional rather than a latent bug.
func (p *Pool) Close() error {
	_ = unix.Msync(p.data, unix.MS_SYNC)
	err := unix.Munmap(p.data)
	if cerr := p.file.Close(); err == nil {
		err = cerr
	}
	return err
}
