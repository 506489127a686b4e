// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package turnring

import "code.hybscloud.com/spin"

// Queue is a bounded, lock-free, multi-producer multi-consumer FIFO.
//
// Producers and consumers coordinate through per-slot turn counters
// (see slot.go) rather than a shared CAS loop on head/tail: head and tail
// are only ever fetch-added (blocking ops) or CAS-advanced once the
// ticket-holder has confirmed its slot is ready (non-blocking ops).
//
// Queue is safe for any number of concurrent producers and consumers.
type Queue[T any] struct {
	r *ring[T]

	// persist, if non-nil, is called with the ring index of a slot
	// immediately after that slot's terminal turn store, flushing both the
	// payload and the turn counter to the persistence domain. nil in
	// volatile mode.
	persist func(idx uint64)

	// pool backs the ring's slots in persistent mode; nil in volatile
	// mode. Held only so Close can unmap and close it.
	pool *Pool
}

// Cap returns the queue's usable capacity (not counting the sentinel
// slot).
func (q *Queue[T]) Cap() int {
	return int(q.r.capacity)
}

// Push adds v to the queue, blocking (busy-spinning) until a slot becomes
// available. Push never returns an error: a ticket once drawn is always
// eventually serviceable, because every slot's turn strictly increases by
// one per handoff and a consumer cannot get permanently stuck behind a
// producer under the turn protocol.
//
// Callers that need cancellation must use TryPush instead: Push cannot be
// aborted after it has drawn a ticket without corrupting the ring.
func (q *Queue[T]) Push(v T) {
	k := q.r.head.AddAcqRel(1) - 1
	s, lap := q.r.slotAt(k)

	sw := spin.Wait{}
	for s.turn.LoadAcquire() != 2*lap {
		sw.Once()
	}
	s.construct(v)
	s.turn.StoreRelease(2*lap + 1)
	if q.persist != nil {
		q.persist(k % q.r.capacity)
	}
}

// TryPush attempts to add v without blocking. Returns ErrWouldBlock if the
// queue is currently full.
func (q *Queue[T]) TryPush(v T) error {
	head := q.r.head.LoadAcquire()
	for {
		s, lap := q.r.slotAt(head)
		turn := s.turn.LoadAcquire()

		if turn == 2*lap {
			if q.r.head.CompareAndSwapAcqRel(head, head+1) {
				s.construct(v)
				s.turn.StoreRelease(2*lap + 1)
				if q.persist != nil {
					q.persist(head % q.r.capacity)
				}
				return nil
			}
			// Lost the race; another producer claimed this ticket. Reload
			// and retry against the current head.
			head = q.r.head.LoadAcquire()
			continue
		}

		prev := head
		head = q.r.head.LoadAcquire()
		if head == prev {
			return ErrWouldBlock
		}
	}
}

// Pop removes and returns the next element, blocking (busy-spinning) until
// one becomes available.
func (q *Queue[T]) Pop() T {
	k := q.r.tail.AddAcqRel(1) - 1
	s, lap := q.r.slotAt(k)

	sw := spin.Wait{}
	for s.turn.LoadAcquire() != 2*lap+1 {
		sw.Once()
	}
	v := s.take()
	s.turn.StoreRelease(2*(lap + 1))
	if q.persist != nil {
		q.persist(k % q.r.capacity)
	}
	return v
}

// TryPop attempts to remove the next element without blocking. Returns
// ErrWouldBlock if the queue is currently empty.
func (q *Queue[T]) TryPop() (T, error) {
	tail := q.r.tail.LoadAcquire()
	for {
		s, lap := q.r.slotAt(tail)
		turn := s.turn.LoadAcquire()

		if turn == 2*lap+1 {
			if q.r.tail.CompareAndSwapAcqRel(tail, tail+1) {
				v := s.take()
				s.turn.StoreRelease(2 * (lap + 1))
				if q.persist != nil {
					q.persist(tail % q.r.capacity)
				}
				return v, nil
			}
			tail = q.r.tail.LoadAcquire()
			continue
		}

		prev := tail
		tail = q.r.tail.LoadAcquire()
		if tail == prev {
			var zero T
			return zero, ErrWouldBlock
		}
	}
}

// Emplace is a synonym for Push, kept for parity with the
// emplace(args...) operation. Go has no variadic in-place constructor, so
// construction always happens by value before the call; Emplace exists so
// callers porting code that distinguishes "construct in slot" from "copy
// an existing value" have a name for the former.
func (q *Queue[T]) Emplace(v T) {
	q.Push(v)
}

// TryEmplace is a synonym for TryPush. See Emplace.
func (q *Queue[T]) TryEmplace(v T) error {
	return q.TryPush(v)
}

// Size returns head - tail as a signed count. This is a best-effort,
// racy observation: concurrent producers/consumers may have drawn tickets
// for slots that are not yet published or not yet retired, so Size can
// read as negative momentarily even though it can never go negative at
// quiescence once every drawn ticket has been serviced.
func (q *Queue[T]) Size() int64 {
	head := q.r.head.LoadRelaxed()
	tail := q.r.tail.LoadRelaxed()
	return int64(head) - int64(tail)
}

// Empty reports whether the queue is empty, per the same best-effort
// semantics as Size.
func (q *Queue[T]) Empty() bool {
	return q.Size() <= 0
}

// destroyLive zeroes the storage of every slot still holding an
// unretrieved element (turn odd), so a volatile queue does not keep live
// references reachable through its backing array after Close.
func (q *Queue[T]) destroyLive() {
	for i := uint64(0); i < q.r.capacity; i++ {
		s := q.r.slots.at(i)
		if s.turn.LoadAcquire()%2 == 1 {
			s.take()
		}
	}
}
