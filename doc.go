// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package turnring provides a bounded, lock-free, multi-producer
// multi-consumer FIFO queue, optionally backed by byte-addressable
// persistent memory with crash recovery.
//
// The queue coordinates producers and consumers through a per-slot turn
// counter rather than a single shared CAS loop: each slot's turn
// alternates between "awaiting producer" (even) and "awaiting consumer"
// (odd), so a producer and a consumer can make progress on different
// slots of the ring simultaneously.
//
// # Quick Start
//
//	q, err := turnring.NewQueue[Event](1024)
//	if err != nil {
//	    // capacity < 1
//	}
//
//	q.Push(ev)             // blocks until space is available
//	err = q.TryPush(ev)    // returns ErrWouldBlock instead of blocking
//
//	ev = q.Pop()                  // blocks until an item is available
//	ev, err = q.TryPop()          // returns ErrWouldBlock instead of blocking
//
// Builder API:
//
//	q, err := turnring.Build[Event](turnring.New(1024))
//
// # Persistence and Recovery
//
// A queue can be backed by a file on byte-addressable persistent memory
// (or any mmap-able filesystem) instead of plain heap memory:
//
//	q, err := turnring.Build[Event](turnring.New(1024).Persistent("/mnt/pmem/events.turnring"))
//	defer q.Close()
//
// If the file does not exist, it is created. If it does exist (the
// process crashed or was killed mid-operation), Build/OpenQueue runs
// [Recover] over the persisted slot vector before handing the queue back,
// reconstructing head and tail — which are never themselves persisted —
// from the turn counters alone. Recover is exposed directly for callers
// that manage their own persisted slot vectors outside of Pool.
//
// Close on a persistent queue flushes and unmaps the backing pool. It
// does not drain or zero any element left in an odd-turn slot: that
// element is exactly what the next Open's recovery will reconstruct.
//
// # Basic Usage
//
//	q, _ := turnring.NewQueue[int](1024)
//
//	err := q.TryPush(42)
//	if turnring.IsWouldBlock(err) {
//	    // queue is full - handle backpressure
//	}
//
//	v, err := q.TryPop()
//	if turnring.IsWouldBlock(err) {
//	    // queue is empty - try again later
//	}
//
// # Common Pattern: Worker Pool
//
//	q, _ := turnring.NewQueue[Job](4096)
//
//	for range numWorkers {
//	    go func() {
//	        for {
//	            job := q.Pop()
//	            job.Run()
//	        }
//	    }()
//	}
//
//	func Submit(j Job) { q.Push(j) }
//
// # Error Handling
//
// TryPush and TryPop return [ErrWouldBlock] when they cannot proceed
// immediately. This error is sourced from [code.hybscloud.com/iox] for
// ecosystem consistency.
//
//	backoff := iox.Backoff{}
//	for {
//	    err := q.TryPush(item)
//	    if err == nil {
//	        backoff.Reset()
//	        break
//	    }
//	    if !turnring.IsWouldBlock(err) {
//	        return err // unexpected error
//	    }
//	    backoff.Wait()
//	}
//
// Push and Pop never return errors: a ticket once drawn is always
// eventually serviceable under the turn protocol.
//
// # Capacity
//
// Capacity is exact, not rounded to a power of 2: the ring index for
// ticket k is k % capacity, which has no power-of-2 requirement.
// Minimum capacity is 1.
//
// # Thread Safety
//
// Any number of goroutines may call Push/TryPush concurrently, and any
// number of goroutines may call Pop/TryPop concurrently, with no
// restriction on producer or consumer count.
//
// # Race Detection
//
// Go's race detector tracks explicit synchronization primitives (mutex,
// channels, WaitGroup) but cannot observe happens-before relationships
// established purely through atomic memory orderings. The turn protocol's
// correctness rests on acquire-release semantics on each slot's turn
// counter, which the race detector does not model as synchronization —
// expect false positives on the slot storage from concurrent use. The
// package's concurrent tests and examples are skipped or excluded when
// RaceEnabled is true for that reason.
//
// # Dependencies
//
// This package uses [code.hybscloud.com/iox] for semantic errors,
// [code.hybscloud.com/atomix] for atomic primitives with explicit memory
// ordering, [code.hybscloud.com/spin] for CPU pause instructions during
// blocking waits, and [golang.org/x/sys/unix] for mmap/msync in
// persistent mode.
package turnring
