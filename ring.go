// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package turnring

import "code.hybscloud.com/atomix"

// slotArray abstracts over where a ring's slots physically live: a plain
// Go heap slice in volatile mode, or a fixed-stride view over a
// persistent-memory-pool region in persistent mode (see persist.go). Both
// implementations hand out *slot[T] pointers whose turn field is the sole
// synchronization point, per the turn protocol.
type slotArray[T any] interface {
	at(i uint64) *slot[T]
}

// heapSlots is the volatile-mode slotArray: an ordinary Go slice.
type heapSlots[T any] []slot[T]

func (s heapSlots[T]) at(i uint64) *slot[T] { return &s[i] }

// ring is a contiguous array of capacity+1 slots (the extra slot prevents
// false sharing on the last usable slot, per the turn-protocol spec) plus
// head and tail ticket counters.
//
// head counts total enqueue tickets ever issued; tail counts total dequeue
// tickets ever issued. Both are unbounded monotonic uint64 counters: the
// ring index for ticket k is k % capacity, and the lap is k / capacity.
//
// head and tail are placed a cache line apart (head before tail) so
// producers and consumers contending on different counters do not thrash
// each other's cache lines.
type ring[T any] struct {
	_        pad
	head     atomix.Uint64 // enqueue ticket source
	_        pad
	tail     atomix.Uint64 // dequeue ticket source
	_        pad
	slots    slotArray[T]
	capacity uint64
}

// newRing allocates a volatile ring of the given capacity (capacity+1
// physical slots) with head and tail both at zero.
func newRing[T any](capacity uint64) *ring[T] {
	return &ring[T]{
		slots:    heapSlots[T](make([]slot[T], capacity+1)),
		capacity: capacity,
	}
}

// slotAt returns the slot for ticket value k and the lap it belongs to.
func (r *ring[T]) slotAt(k uint64) (*slot[T], uint64) {
	return r.slots.at(k % r.capacity), k / r.capacity
}
