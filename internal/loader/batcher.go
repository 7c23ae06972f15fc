// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package loader

import (
	"context"
	"fmt"
)

// FlushFunc receives one full (or final partial) batch.
type FlushFunc[T any] func(ctx context.Context, batch []T) error

// Batcher accumulates items and hands them to a FlushFunc in batches of a
// fixed size. It is not safe for concurrent use.
type Batcher[T any] struct {
	size  int
	flush FlushFunc[T]
	buf   []T

	flushed int
	batches int
}

// NewBatcher returns a Batcher that flushes every size items.
func NewBatcher[T any](size int, flush FlushFunc[T]) (*Batcher[T], error) {
	if size < 1 {
		return nil, fmt.Errorf("batch size must be at least 1, got %d", size)
	}
	return &Batcher[T]{size: size, flush: flush, buf: make([]T, 0, size)}, nil
}

// Add appends item and flushes when the batch reaches the configured size.
// A flush error is returned as is; the items of the failed batch are dropped.
func (b *Batcher[T]) Add(ctx context.Context, item T) error {
	b.buf = append(b.buf, item)
	if len(b.buf) < b.size {
		return nil
	}
	return b.emit(ctx)
}

// Close flushes the remaining partial batch, if any.
func (b *Batcher[T]) Close(ctx context.Context) error {
	if len(b.buf) == 0 {
		return nil
	}
	return b.emit(ctx)
}

func (b *Batcher[T]) emit(ctx context.Context) error {
	batch := b.buf
	b.buf = make([]T, 0, b.size)
	if err := b.flush(ctx, batch); err != nil {
		return err
	}
	b.flushed += len(batch)
	b.batches++
	return nil
}

// Flushed returns the number of items in successfully flushed batches.
func (b *Batcher[T]) Flushed() int { return b.flushed }

// Batches returns the number of successful flushes.
func (b *Batcher[T]) Batches() int { return b.batches }

// Pending returns the number of items waiting for the next flush.
func (b *Batcher[T]) Pending() int { return len(b.buf) }
