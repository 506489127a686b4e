// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package turnring_test

import (
	"errors"
	"runtime"
	"testing"
	"time"

	"code.hybscloud.com/turnring"
)

// =============================================================================
// Basic Operations
// =============================================================================

func TestTryPushTryPopBasic(t *testing.T) {
	q, err := turnring.NewQueue[int](3)
	if err != nil {
		t.Fatalf("NewQueue: %v", err)
	}

	if q.Cap() != 3 {
		t.Fatalf("Cap: got %d, want 3", q.Cap())
	}

	for i := range 3 {
		if err := q.TryPush(i + 100); err != nil {
			t.Fatalf("TryPush(%d): %v", i, err)
		}
	}

	if err := q.TryPush(999); !errors.Is(err, turnring.ErrWouldBlock) {
		t.Fatalf("TryPush on full: got %v, want ErrWouldBlock", err)
	}

	for i := range 3 {
		val, err := q.TryPop()
		if err != nil {
			t.Fatalf("TryPop(%d): %v", i, err)
		}
		if val != i+100 {
			t.Fatalf("TryPop(%d): got %d, want %d", i, val, i+100)
		}
	}

	if _, err := q.TryPop(); !errors.Is(err, turnring.ErrWouldBlock) {
		t.Fatalf("TryPop on empty: got %v, want ErrWouldBlock", err)
	}
}

func TestPushPopBasic(t *testing.T) {
	q, err := turnring.NewQueue[string](2)
	if err != nil {
		t.Fatalf("NewQueue: %v", err)
	}

	q.Push("a")
	q.Push("b")

	if got := q.Pop(); got != "a" {
		t.Fatalf("Pop: got %q, want %q", got, "a")
	}
	if got := q.Pop(); got != "b" {
		t.Fatalf("Pop: got %q, want %q", got, "b")
	}
}

func TestEmplaceIsPush(t *testing.T) {
	q, _ := turnring.NewQueue[int](2)

	q.Emplace(7)
	if err := q.TryEmplace(8); err != nil {
		t.Fatalf("TryEmplace: %v", err)
	}
	if err := q.TryEmplace(9); !errors.Is(err, turnring.ErrWouldBlock) {
		t.Fatalf("TryEmplace on full: got %v, want ErrWouldBlock", err)
	}

	if v := q.Pop(); v != 7 {
		t.Fatalf("Pop: got %d, want 7", v)
	}
	if v := q.Pop(); v != 8 {
		t.Fatalf("Pop: got %d, want 8", v)
	}
}

// =============================================================================
// Wrap-Around — verify index wrap-around behavior across many laps
// =============================================================================

func TestWrapAround(t *testing.T) {
	q, _ := turnring.NewQueue[int](4)

	for round := range 10 {
		for i := range 4 {
			v := round*100 + i
			if err := q.TryPush(v); err != nil {
				t.Fatalf("round %d push %d: %v", round, i, err)
			}
		}

		for i := range 4 {
			val, err := q.TryPop()
			if err != nil {
				t.Fatalf("round %d pop %d: %v", round, i, err)
			}
			expected := round*100 + i
			if val != expected {
				t.Fatalf("round %d pop %d: got %d, want %d", round, i, val, expected)
			}
		}
	}
}

// =============================================================================
// Edge Cases
// =============================================================================

func TestZeroValue(t *testing.T) {
	q, _ := turnring.NewQueue[int](4)

	if err := q.TryPush(0); err != nil {
		t.Fatalf("push 0: %v", err)
	}
	val, err := q.TryPop()
	if err != nil {
		t.Fatalf("pop: %v", err)
	}
	if val != 0 {
		t.Fatalf("got %d, want 0", val)
	}
}

func TestPanicOnZeroCapacity(t *testing.T) {
	defer func() {
		if r := recover(); r == nil {
			t.Fatal("expected panic for capacity < 1")
		}
	}()
	turnring.New(0)
}

func TestNewQueueRejectsInvalidCapacity(t *testing.T) {
	_, err := turnring.NewQueue[int](0)
	if !errors.Is(err, turnring.ErrInvalidArgument) {
		t.Fatalf("got %v, want ErrInvalidArgument", err)
	}
}

// TestCloseDestroysLiveElements verifies that closing a volatile queue
// releases any element still sitting in an unretrieved (turn-odd) slot,
// rather than keeping it reachable through the backing array forever.
func TestCloseDestroysLiveElements(t *testing.T) {
	q, _ := turnring.NewQueue[*[4]int](4)

	// The pointee is 32 bytes on purpose: pointer-free objects under 16
	// bytes come from the runtime's tiny allocator, whose current block the
	// GC keeps live, so a finalizer on one may never run.
	v := new([4]int)
	v[0] = 42
	done := make(chan struct{})
	runtime.SetFinalizer(v, func(*[4]int) { close(done) })

	q.Push(v)
	v = nil

	if err := q.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	runtime.GC()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("finalizer did not run; Close left the pushed pointer reachable")
	}
}

// =============================================================================
// Builder
// =============================================================================

func TestBuilderVolatile(t *testing.T) {
	q, err := turnring.Build[int](turnring.New(8))
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if q.Cap() != 8 {
		t.Fatalf("Cap: got %d, want 8", q.Cap())
	}
	q.Push(1)
	if v := q.Pop(); v != 1 {
		t.Fatalf("Pop: got %d, want 1", v)
	}
}
