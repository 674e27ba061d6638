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

// Package errors defines the sentinel errors shared by the emberd
// extensibility core. Callers compare against these values with errors.Is.
package errors

import (
	"errors"
)

var (
	// ErrDuplicateSlot is returned when a slot name is already registered for
	// the same entity kind by a different owner module. This is a programming
	// error and blocks the offending module from activating.
	ErrDuplicateSlot = errors.New("extension slot is already registered by another module")

	// ErrSlotTypeMismatch is returned when a module re-registers one of its own
	// slots with a different value type than the one it was declared with.
	ErrSlotTypeMismatch = errors.New("extension slot value type does not match its declaration")

	// ErrUnknownSlot is returned when a slot name is not registered for the
	// requested entity kind, or the slot has been unregistered.
	ErrUnknownSlot = errors.New("extension slot is not registered")

	// ErrNotNetworkSynced is returned when a serialization operation is invoked
	// on a slot that does not participate in cross-server replication.
	ErrNotNetworkSynced = errors.New("extension slot is not network synchronized")

	// ErrInvalidSlotName is returned when a slot name does not satisfy the
	// naming rules: no more than 255 characters, starting with an alphanumeric
	// character and containing only alphanumeric characters, hyphens or
	// underscores thereafter.
	ErrInvalidSlotName = errors.New("invalid extension slot name, must contain only word characters (i.e. [a-zA-Z0-9] plus non-leading '-' or '_')")

	// ErrEntityDestroyed is returned when replicated metadata is applied to an
	// entity whose extension storage has already been torn down.
	ErrEntityDestroyed = errors.New("entity extension storage has been destroyed")
)
