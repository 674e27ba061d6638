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

// Package extension implements the typed extension-attribute storage of the
// emberd core. A feature module declares a named, typed slot for one entity
// kind and attaches values to individual entities through a statically typed
// handle; the registry itself only ever sees opaque values. Slots may opt in
// to cross-server replication through a text codec.
//
// All registry and slot operations are driven from the daemon's single
// cooperative control goroutine (see the runloop package) and therefore take
// no locks; they never block on I/O or on another entity's state.
package extension

import (
	"reflect"
)

// Kind identifies the core entity kind a slot attaches to.
type Kind int

const (
	// KindUser identifies user entities.
	KindUser Kind = iota
	// KindChannel identifies channel entities.
	KindChannel
	// KindMembership identifies channel membership entities.
	KindMembership
	// KindServer identifies server entities.
	KindServer
)

// String returns the text representation of the entity kind
func (k Kind) String() string {
	switch k {
	case KindUser:
		return "user"
	case KindChannel:
		return "channel"
	case KindMembership:
		return "membership"
	case KindServer:
		return "server"
	default:
		return "unknown"
	}
}

// slotKey uniquely identifies a slot descriptor within a registry.
type slotKey struct {
	name string
	kind Kind
}

// slot is the type-erased slot descriptor held by the registry. The value
// type is only known to the owning module through its Slot handle; every
// hook below operates on opaque values.
type slot struct {
	name      string
	kind      Kind
	owner     string
	valueType reflect.Type

	// network replication hooks; nil unless the slot is network synchronized
	encode func(any) string
	decode func(string) (any, error)

	// release runs when an attached value is replaced, cleared or torn down
	release func(any)

	// gone marks an unregistered descriptor so stale handles turn inert
	gone bool
}

func (s *slot) releaseValue(v any) {
	if s.release != nil {
		s.release(v)
	}
}
