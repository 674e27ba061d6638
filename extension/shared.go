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

package extension

import (
	"go.uber.org/atomic"
)

// Shared wraps a payload that is referenced by more than one attribute or
// entity at once, for example one certificate held by both a credential
// slot and a fallback indicator. The registry only owns the slot-to-entity
// binding, never the payload: a slot releaser drops one reference and the
// payload is finalized only when the last reference is dropped.
type Shared[T any] struct {
	value    T
	refs     atomic.Int64
	finalize func(T)
}

// NewShared wraps value with an initial reference count of one. finalize
// may be nil; when set it runs exactly once, when the count reaches zero.
func NewShared[T any](value T, finalize func(T)) *Shared[T] {
	s := &Shared[T]{value: value, finalize: finalize}
	s.refs.Store(1)
	return s
}

// Value returns the wrapped payload.
func (s *Shared[T]) Value() T {
	return s.value
}

// Refs returns the current reference count.
func (s *Shared[T]) Refs() int64 {
	return s.refs.Load()
}

// Retain takes an additional reference and returns the receiver.
func (s *Shared[T]) Retain() *Shared[T] {
	s.refs.Inc()
	return s
}

// Release drops one reference. It reports whether this was the last one, in
// which case the finalizer has run.
func (s *Shared[T]) Release() bool {
	if s.refs.Dec() == 0 {
		if s.finalize != nil {
			s.finalize(s.value)
		}
		return true
	}
	return false
}
