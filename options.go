// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package turnring

import "log/slog"

// Builder provides a fluent API for configuring and creating a queue.
// The zero Builder is not usable; start from New.
//
// Example:
//
//	// Volatile queue
//	q, err := turnring.Build[Event](turnring.New(1024))
//
//	// Persistent queue, recovered from path if it already exists
//	q, err := turnring.Build[Event](turnring.New(1024).Persistent("/mnt/pmem/events.turnring"))
type Builder struct {
	capacity int
	path     string
	logger   *slog.Logger
}

// New creates a queue builder with the given capacity. capacity is the
// exact logical capacity (not rounded to a power of 2 — see DESIGN.md for
// why this module diverges from that common lock-free-queue convention).
//
// Panics if capacity < 1.
func New(capacity int) *Builder {
	if capacity < 1 {
		panic("turnring: capacity must be >= 1")
	}
	return &Builder{capacity: capacity}
}

// Persistent configures the builder to back the queue with a file at
// path, creating it if missing and running crash recovery if it already
// exists. Without a call to Persistent, Build produces a volatile,
// in-memory-only queue.
func (b *Builder) Persistent(path string) *Builder {
	b.path = path
	return b
}

// WithLogger sets the logger Build passes to OpenQueue for persistent
// queues. Has no effect on volatile queues. A nil logger (the default)
// means slog.Default().
func (b *Builder) WithLogger(logger *slog.Logger) *Builder {
	b.logger = logger
	return b
}

// Build creates the configured Queue[T]. If Persistent was called, this
// opens (or creates) the backing pool and runs recovery; otherwise it
// allocates a volatile queue.
func Build[T any](b *Builder) (*Queue[T], error) {
	if b.path != "" {
		return OpenQueue[T](b.path, b.capacity, b.logger)
	}
	return NewQueue[T](b.capacity)
}
