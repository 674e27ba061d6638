// MIT License
//
// Copyright (c) 2023-2026 Emberd Authors
//
// Permission is hereby granted, free of charge, to any person obtaining a copy
// of this software and associated documentation files (the "Software"), to deal
// in the Software without restriction, including without limitation the rights
// to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
// copies of the Software, and to permit persons to whom the Software is
// furnished to do so, subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in all
// copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
// SOFTWARE.

package queue

import (
	"sync/atomic"
)

type node[T any] struct {
	value T
	next  atomic.Pointer[node[T]]
}

// MPSC is a multi-producer single-consumer FIFO queue. Any goroutine may
// Push; Pop and IsEmpty must only be called from the single consumer.
type MPSC[T any] struct {
	head, tail atomic.Pointer[node[T]]
	length     atomic.Int64
}

// NewMPSC creates an instance of MPSC
func NewMPSC[T any]() *MPSC[T] {
	empty := new(node[T])
	q := new(MPSC[T])
	q.head.Store(empty)
	q.tail.Store(empty)
	return q
}

// Push places the given value at the back of the queue.
func (q *MPSC[T]) Push(value T) {
	item := new(node[T])
	item.value = value
	var currentTail *node[T]
	for added := false; !added; {
		currentTail = q.tail.Load()
		currentNext := currentTail.next.Load()
		if currentNext != nil {
			q.tail.CompareAndSwap(currentTail, currentNext)
			continue
		}
		added = q.tail.Load().next.CompareAndSwap(currentNext, item)
	}
	q.tail.CompareAndSwap(currentTail, item)
	q.length.Add(1)
}

// Pop removes the value at the front of the queue.
// If false is returned, the queue was empty.
func (q *MPSC[T]) Pop() (T, bool) {
	var front *node[T]
	for removed := false; !removed; {
		head, tail := q.head.Load(), q.tail.Load()
		front = head.next.Load()
		if tail == head {
			if front != nil {
				q.tail.CompareAndSwap(tail, front)
				continue
			}
			return *new(T), false
		}
		removed = q.head.CompareAndSwap(head, front)
	}
	q.length.Add(-1)
	return front.value, true
}

// Len returns the number of queued values
func (q *MPSC[T]) Len() int64 {
	return q.length.Load()
}

// IsEmpty returns true when the queue is empty
func (q *MPSC[T]) IsEmpty() bool {
	return q.head.Load().next.Load() == nil
}
