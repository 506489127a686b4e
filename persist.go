// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package turnring

import "unsafe"

// persistentSlots is the persistent-mode slotArray: a fixed-stride view
// over a Pool's active region. The stride is rounded up to 64 bytes (see
// roundUp64) rather than assumed equal to unsafe.Sizeof(slot[T]{}), since
// the pool's on-disk layout must stay stable across rebuilds of this
// package even if slot[T]'s native Go layout changes.
type persistentSlots[T any] struct {
	base   unsafe.Pointer
	stride uintptr
}

func newPersistentSlots[T any](region []byte, stride uint64) persistentSlots[T] {
	return persistentSlots[T]{
		base:   unsafe.Pointer(&region[0]),
		stride: uintptr(stride),
	}
}

func (s persistentSlots[T]) at(i uint64) *slot[T] {
	return (*slot[T])(unsafe.Add(s.base, uintptr(i)*s.stride))
}

// persistentRing wraps a ring[T] together with the Pool backing its
// slots, so Queue's persist callback can flush individual slots without
// the ring itself needing to know about pools.
type persistentRing[T any] struct {
	*ring[T]
	pool *Pool
}

// newPersistentRing builds a ring[T] over pool's active region. The ring's
// capacity is taken from pool.Capacity(), which OpenOrCreatePool has
// already checked against the capacity the caller asked for.
func newPersistentRing[T any](pool *Pool) *persistentRing[T] {
	r := &ring[T]{
		slots:    newPersistentSlots[T](pool.ActiveRegion(), pool.SlotStride()),
		capacity: pool.Capacity(),
	}
	return &persistentRing[T]{ring: r, pool: pool}
}

// persistSlot flushes one slot (turn counter and payload together) to the
// pool's durability domain. It is wired in as Queue.persist in persistent
// mode, called once per Push/TryPush/Pop/TryPop after the terminal turn
// store, matching the single-flush-per-handoff ordering the turn protocol
// requires: value written, then turn written, then both flushed together.
func (pr *persistentRing[T]) persistSlot(idx uint64) {
	stride := pr.pool.SlotStride()
	region := pr.pool.ActiveRegion()
	off := idx * stride
	_ = pr.pool.Persist(region[off : off+stride])
}
