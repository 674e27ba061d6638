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
	"fmt"
	"reflect"

	"github.com/emberchat/emberd/errors"
	"github.com/emberchat/emberd/internal/validation"
)

// Codec translates a slot value to and from the wire-safe text form used for
// cross-server replication.
//
// Encode returns the text form of a value; an empty string omits the value
// from replication. Decode is total: unparsable text must yield a usable
// sentinel value describing the failure rather than no value at all, so that
// garbled remote metadata degrades the attribute instead of desynchronizing
// the entity model. The returned error is diagnostic only; the value is
// attached either way.
type Codec[T any] interface {
	Encode(value T) string
	Decode(text string) (T, error)
}

// Slot is the statically typed handle to a registered extension slot. All
// attach, retrieve and clear operations on entities go through it, so a
// value stored under a slot is always of the type the slot was declared
// with; no unchecked casts escape this abstraction.
type Slot[T any] struct {
	reg  *Registry
	slot *slot
}

// SlotOption configures a slot at registration time.
type SlotOption[T any] func(*slotConfig[T])

type slotConfig[T any] struct {
	codec   Codec[T]
	release func(T)
}

// WithNetworkSync marks the slot as network synchronized using the given
// codec for the wire encoding.
func WithNetworkSync[T any](codec Codec[T]) SlotOption[T] {
	return func(c *slotConfig[T]) { c.codec = codec }
}

// WithReleaser sets the hook that runs exactly once for every attached value
// when it is replaced, cleared, or torn down with its entity or slot.
func WithReleaser[T any](release func(T)) SlotOption[T] {
	return func(c *slotConfig[T]) { c.release = release }
}

// Register declares a slot named name for entities of the given kind, owned
// by the named module, and returns its typed handle.
//
// Registering a name/kind pair already claimed by a different owner fails
// with errors.ErrDuplicateSlot. Re-registration by the same owner is
// idempotent and returns a handle to the existing descriptor, provided the
// declared value type matches; a type change fails with
// errors.ErrSlotTypeMismatch. Both are programming errors that must block
// the module from activating.
func Register[T any](r *Registry, name string, kind Kind, owner string, opts ...SlotOption[T]) (*Slot[T], error) {
	chain := validation.New(validation.FailFast()).
		AddValidator(validation.NewNameValidator(name, errors.ErrInvalidSlotName))
	if err := chain.Validate(); err != nil {
		return nil, err
	}

	key := slotKey{name: name, kind: kind}
	valueType := reflect.TypeOf((*T)(nil)).Elem()
	if existing, ok := r.slots[key]; ok {
		if existing.owner != owner {
			return nil, fmt.Errorf("%w: %s/%s is owned by %s", errors.ErrDuplicateSlot, kind, name, existing.owner)
		}
		if existing.valueType != valueType {
			return nil, fmt.Errorf("%w: %s/%s is declared as %s", errors.ErrSlotTypeMismatch, kind, name, existing.valueType)
		}
		return &Slot[T]{reg: r, slot: existing}, nil
	}

	config := new(slotConfig[T])
	for _, opt := range opts {
		opt(config)
	}

	descriptor := &slot{
		name:      name,
		kind:      kind,
		owner:     owner,
		valueType: valueType,
	}
	if config.release != nil {
		release := config.release
		descriptor.release = func(v any) { release(v.(T)) }
	}
	if config.codec != nil {
		codec := config.codec
		descriptor.encode = func(v any) string { return codec.Encode(v.(T)) }
		descriptor.decode = func(text string) (any, error) { return codec.Decode(text) }
	}

	r.slots[key] = descriptor
	r.logger.Debugf("registered extension slot %s/%s for module %s", kind, name, owner)
	return &Slot[T]{reg: r, slot: descriptor}, nil
}

// Name returns the slot name.
func (s *Slot[T]) Name() string {
	return s.slot.name
}

// Kind returns the entity kind the slot attaches to.
func (s *Slot[T]) Kind() Kind {
	return s.slot.kind
}

// NetworkSynced reports whether the slot participates in replication.
func (s *Slot[T]) NetworkSynced() bool {
	return s.slot.encode != nil
}

// Set attaches value to e, replacing any previous value. The previous
// value's release hook runs before the new value is stored. Writes to a
// destroyed entity or through an unregistered handle are dropped.
func (s *Slot[T]) Set(e *Extensible, value T) {
	if s.slot.gone {
		return
	}
	if e.Kind() != s.slot.kind {
		panic(fmt.Sprintf("extension: slot %s/%s used on a %s entity", s.slot.kind, s.slot.name, e.Kind()))
	}
	s.reg.attach(s.slot, e, value)
}

// Get returns the value attached to e, if any.
func (s *Slot[T]) Get(e *Extensible) (T, bool) {
	if s.slot.gone {
		var zero T
		return zero, false
	}
	v, ok := e.getRaw(s.slot)
	if !ok {
		var zero T
		return zero, false
	}
	return v.(T), true
}

// Clear releases and removes the value attached to e. It is a no-op when no
// value is attached.
func (s *Slot[T]) Clear(e *Extensible) {
	if s.slot.gone {
		return
	}
	s.reg.detach(s.slot, e)
}
