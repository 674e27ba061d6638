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

// Extensible is the per-entity attribute store. Core entity types embed it
// so that feature modules can attach values to them through slot handles.
//
// An Extensible holds at most one value per slot. Once destroyed it turns
// inert: reads miss and writes are dropped, so references held across an
// entity teardown never observe stale data.
type Extensible struct {
	kind   Kind
	values map[*slot]any
	dead   bool
}

// NewExtensible creates the attribute store for an entity of the given kind.
func NewExtensible(kind Kind) Extensible {
	return Extensible{kind: kind}
}

// Kind returns the entity kind this store belongs to.
func (e *Extensible) Kind() Kind {
	return e.kind
}

// Destroyed reports whether the store has been torn down.
func (e *Extensible) Destroyed() bool {
	return e.dead
}

func (e *Extensible) getRaw(s *slot) (any, bool) {
	if e.dead {
		return nil, false
	}
	v, ok := e.values[s]
	return v, ok
}

// setRaw stores value and returns the previous value if one was attached.
// The write is dropped on a destroyed store.
func (e *Extensible) setRaw(s *slot, value any) (any, bool, bool) {
	if e.dead {
		return nil, false, false
	}
	if e.values == nil {
		e.values = make(map[*slot]any)
	}
	old, had := e.values[s]
	e.values[s] = value
	return old, had, true
}

// unsetRaw removes and returns the value attached under s, if any.
func (e *Extensible) unsetRaw(s *slot) (any, bool) {
	old, had := e.values[s]
	if had {
		delete(e.values, s)
	}
	return old, had
}
