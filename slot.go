// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package turnring

import "code.hybscloud.com/atomix"

// slot is a single ring cell: a turn counter plus inline storage for one
// element of type T.
//
// The turn protocol (see package doc) makes turn the only synchronization
// point: storage is non-atomic and is only ever touched by whichever role
// (producer until it publishes, consumer until it retires) currently holds
// the turn's parity. turn is even while the slot is empty and awaiting a
// producer, odd while it is full and awaiting a consumer.
//
// Slot carries a cache line's worth of trailing padding so that the turn
// counters of adjacent slots are at least 64 bytes apart. Its size is
// 64 + sizeof(T) bytes (plus alignment), which is a multiple of a cache
// line only when T has size 0; the volatile slot array is not rounded
// further (the persistent pool rounds its stride up to 64 bytes).
type slot[T any] struct {
	turn    atomix.Uint64
	storage T
	_       padShort
}

// construct stores v into the slot. Caller must have already observed an
// even turn (the slot is claimed and empty).
func (s *slot[T]) construct(v T) {
	s.storage = v
}

// take moves storage out of the slot, zeroing it so any references it
// holds can be garbage collected, and returns the removed value. Caller
// must have already observed an odd turn (the slot is claimed and full).
func (s *slot[T]) take() T {
	v := s.storage
	var zero T
	s.storage = zero
	return v
}

// padShort is a fixed 56 bytes of trailing padding, independent of T: with
// the 8-byte turn counter it adds up to one cache line on top of storage.
// It does not size the slot to a whole number of cache lines.
type padShort [64 - 8]byte

// pad is cache line padding used between fields to prevent false sharing.
type pad [64]byte
