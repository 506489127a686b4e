// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package turnring

import (
	"errors"
	"fmt"

	"code.hybscloud.com/iox"
)

// ErrWouldBlock indicates the operation cannot proceed immediately.
//
// For Push: the ring is full (backpressure).
// For Pop: the ring is empty (no data available).
//
// ErrWouldBlock is a control flow signal, not a failure. The caller should
// retry (with backoff) rather than propagating the error.
//
// This is an alias for [iox.ErrWouldBlock] for ecosystem consistency.
//
// Example:
//
//	backoff := iox.Backoff{}
//	for {
//	    err := q.TryPush(item)
//	    if err == nil {
//	        backoff.Reset()
//	        break
//	    }
//	    if turnring.IsWouldBlock(err) {
//	        backoff.Wait()
//	        continue
//	    }
//	    return err // unexpected error
//	}
var ErrWouldBlock = iox.ErrWouldBlock

// ErrInvalidArgument is returned when a constructor is called with
// capacity < 1. No queue state is created.
var ErrInvalidArgument = errors.New("turnring: capacity must be >= 1")

// ErrPoolInconsistent is returned when opening a persistent pool whose
// integrity check fails. This is fatal: the caller must not attempt to use
// the pool and should treat this as an operator-intervention condition
// rather than retry.
var ErrPoolInconsistent = errors.New("turnring: pool is in an inconsistent state")

// RecoveryPreconditionError is returned by Recover when the observed spread
// between the maximum and minimum persisted turn values exceeds 2, which
// the ticket discipline guarantees cannot happen on a legally-shut-down
// ring. It is fatal: the pool is unrecoverable by this algorithm.
type RecoveryPreconditionError struct {
	Min, Max uint64
}

func (e *RecoveryPreconditionError) Error() string {
	return fmt.Sprintf("turnring: recovery precondition violated: max turn %d - min turn %d > 2", e.Max, e.Min)
}

// ErrRecoveryPrecondition is a sentinel for errors.Is matching against any
// *RecoveryPreconditionError, since the struct carries instance-specific
// min/max values and cannot itself be a package-level sentinel.
var ErrRecoveryPrecondition = errors.New("turnring: recovery precondition violated")

func (e *RecoveryPreconditionError) Is(target error) bool {
	return target == ErrRecoveryPrecondition
}

// IsWouldBlock reports whether err indicates the operation would block.
// Delegates to [iox.IsWouldBlock] for wrapped error support.
func IsWouldBlock(err error) bool {
	return iox.IsWouldBlock(err)
}

// IsSemantic reports whether err is a control flow signal (not a failure).
// Delegates to [iox.IsSemantic].
func IsSemantic(err error) bool {
	return iox.IsSemantic(err)
}

// IsNonFailure reports whether err represents a non-failure condition.
// Delegates to [iox.IsNonFailure].
func IsNonFailure(err error) bool {
	return iox.IsNonFailure(err)
}
