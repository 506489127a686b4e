// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package turnring

import "sort"

// RecoveredSlot is one persisted slot as observed at recovery time: its
// turn counter and whatever payload survived alongside it. Recover treats
// Value as opaque — it only ever reorders RecoveredSlot entries as a unit,
// never inspects or mutates Value itself.
type RecoveredSlot[T any] struct {
	Turn  uint64
	Value T
}

// Recover computes the unique canonical queue state for a persisted slot
// vector observed at an arbitrary instant during which at most one
// enqueue and one dequeue per slot may have been in flight.
//
// It is a pure function: it allocates and returns a new canonical slice,
// never mutating slots, and produces the same output for the same input
// every time (idempotent on its own output — recovering an already
// canonical array returns it unchanged other than head/tail).
//
// Returns a *RecoveryPreconditionError (matching [ErrRecoveryPrecondition]
// via errors.Is) if max(turn) - min(turn) > 2, which the ticket discipline
// guarantees cannot happen on a legally-produced snapshot.
func Recover[T any](slots []RecoveredSlot[T]) (canonical []RecoveredSlot[T], tail, head uint64, err error) {
	n := len(slots)
	if n == 0 {
		return nil, 0, 0, nil
	}

	minTurn, maxTurn := slots[0].Turn, slots[0].Turn
	for _, s := range slots[1:] {
		if s.Turn < minTurn {
			minTurn = s.Turn
		}
		if s.Turn > maxTurn {
			maxTurn = s.Turn
		}
	}
	if maxTurn-minTurn > 2 {
		return nil, 0, 0, &RecoveryPreconditionError{Min: minTurn, Max: maxTurn}
	}

	out := make([]RecoveredSlot[T], n)
	copy(out, slots)

	if maxTurn%2 == 1 {
		// Case A: only enqueues in flight. No consumer has started the
		// lap that produced maxTurn, so there is a single lap-break and a
		// whole-array stable descending sort is canonical.
		stableSortDescending(out)
	} else {
		// Case B: at least one dequeue has started on lap maxTurn/2 - 1.
		// By FIFO, only a contiguous prefix (ending at the last index
		// achieving maxTurn) can have advanced that far; every slot in
		// that prefix with a lower turn is a dequeue that moved its
		// element out but had not yet stored its terminal turn, so it is
		// safe to credit it as complete.
		jStar := -1
		for i := n - 1; i >= 0; i-- {
			if out[i].Turn == maxTurn {
				jStar = i
				break
			}
		}
		for i := 0; i <= jStar; i++ {
			if out[i].Turn < maxTurn {
				out[i].Turn = maxTurn
			}
		}
		stableSortDescending(out[jStar+1:])
	}

	firstZero := n
	for i, s := range out {
		if s.Turn == 0 {
			firstZero = i
			break
		}
	}
	for i := 0; i < firstZero; i++ {
		t := out[i].Turn
		tail += t / 2
		head += (t + 1) / 2
	}

	return out, tail, head, nil
}

func stableSortDescending[T any](s []RecoveredSlot[T]) {
	sort.SliceStable(s, func(i, j int) bool { return s[i].Turn > s[j].Turn })
}

// IsCanonical reports whether slots is sorted by turn strictly
// non-increasing, the postcondition Recover's output must satisfy.
// Exposed for tests; Recover always returns canonical output itself.
func IsCanonical[T any](slots []RecoveredSlot[T]) bool {
	for i := 1; i < len(slots); i++ {
		if slots[i].Turn > slots[i-1].Turn {
			return false
		}
	}
	return true
}

// CheckPrecondition reports whether slots satisfies Recover's precondition
// (max turn - min turn <= 2). Exposed so callers can validate a snapshot
// before committing to recovery.
func CheckPrecondition[T any](slots []RecoveredSlot[T]) bool {
	if len(slots) == 0 {
		return true
	}
	minTurn, maxTurn := slots[0].Turn, slots[0].Turn
	for _, s := range slots[1:] {
		if s.Turn < minTurn {
			minTurn = s.Turn
		}
		if s.Turn > maxTurn {
			maxTurn = s.Turn
		}
	}
	return maxTurn-minTurn <= 2
}
