// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package turnring

import (
	"log/slog"
	"unsafe"
)

// NewQueue builds a volatile, in-memory queue of the given capacity.
// capacity must be >= 1; ErrInvalidArgument is returned otherwise.
func NewQueue[T any](capacity int) (*Queue[T], error) {
	if capacity < 1 {
		return nil, ErrInvalidArgument
	}
	return &Queue[T]{r: newRing[T](uint64(capacity))}, nil
}

// OpenQueue opens (creating if necessary) a persistent queue backed by the
// file at path, running crash recovery on every open —
// the durable header never stores head/tail, so they must always be
// reconstructed from the persisted turn vector rather than trusted as-is.
//
// logger receives the recovery outcome (element count, reconstructed
// head/tail) at Info level; a nil logger defaults to slog.Default().
func OpenQueue[T any](path string, capacity int, logger *slog.Logger) (*Queue[T], error) {
	if capacity < 1 {
		return nil, ErrInvalidArgument
	}
	if logger == nil {
		logger = slog.Default()
	}

	var zero slot[T]
	slotSize := uint64(unsafe.Sizeof(zero))

	pool, err := OpenOrCreatePool(path, uint64(capacity), slotSize)
	if err != nil {
		return nil, err
	}

	pr := newPersistentRing[T](pool)

	// Physical slot index capacity is the false-sharing sentinel (see
	// ring.go): Push/Pop only ever address 0..capacity-1 via k%capacity,
	// so it is excluded from the logical recovery view entirely.
	observed := make([]RecoveredSlot[T], capacity)
	for i := range observed {
		s := pr.slots.at(uint64(i))
		observed[i] = RecoveredSlot[T]{Turn: s.turn.LoadRelaxed(), Value: s.storage}
	}

	canonical, tail, head, err := Recover(observed)
	if err != nil {
		pool.Close()
		return nil, err
	}

	if !sameOrder(observed, canonical) {
		if err := rewriteInactive(pool, canonical); err != nil {
			pool.Close()
			return nil, err
		}
		if err := pool.SwapActive(); err != nil {
			pool.Close()
			return nil, err
		}
		pr = newPersistentRing[T](pool)
	}

	pr.head.StoreRelaxed(head)
	pr.tail.StoreRelaxed(tail)

	logger.Info("turnring: recovered queue",
		"path", path,
		"capacity", capacity,
		"head", head,
		"tail", tail,
		"inFlight", head-tail,
	)

	return &Queue[T]{r: pr.ring, persist: pr.persistSlot, pool: pool}, nil
}

func sameOrder[T any](a, b []RecoveredSlot[T]) bool {
	for i := range a {
		if a[i].Turn != b[i].Turn {
			return false
		}
	}
	return true
}

// rewriteInactive writes canonical into the pool's spare region (turn
// counters and payloads) and persists it, leaving the currently-active
// region untouched until the caller swaps. This is the write-new,
// persist, then swap sequence required so a crash mid-
// recovery never corrupts the array recovery started from.
func rewriteInactive[T any](pool *Pool, canonical []RecoveredSlot[T]) error {
	spare := newPersistentSlots[T](pool.InactiveRegion(), pool.SlotStride())
	for i, rs := range canonical {
		s := spare.at(uint64(i))
		s.storage = rs.Value
		s.turn.StoreRelaxed(rs.Turn)
	}
	return pool.Persist(pool.InactiveRegion())
}

// Close releases the resources backing q. In volatile mode it walks the
// ring and zeroes the storage of every slot still holding an unretrieved
// element, then lets the backing array be collected; it does not run any
// protocol on turn, since no further Push/Pop may race with Close. In
// persistent mode it flushes and unmaps the pool file instead, leaving
// odd-turn slots untouched, since those elements are exactly what the
// next OpenQueue's recovery is responsible for reconstructing.
func (q *Queue[T]) Close() error {
	if q.pool == nil {
		q.destroyLive()
		return nil
	}
	return q.pool.Close()
}
