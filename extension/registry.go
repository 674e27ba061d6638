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
	"sort"

	"go.uber.org/multierr"

	"github.com/emberchat/emberd/errors"
	"github.com/emberchat/emberd/log"
)

// Metadata is one replicated attribute of an entity: the slot name and the
// slot-defined text encoding of its current value. The server-link layer
// frames each item as a `<slot-name> <encoded-value>` line.
type Metadata struct {
	Name  string
	Value string
}

// Registry owns the slot descriptors of one daemon instance and tracks
// which entities currently hold a value for each slot so that module
// teardown can release every live value. Construct one per process root;
// tests construct their own isolated instances.
type Registry struct {
	logger  log.Logger
	slots   map[slotKey]*slot
	holders map[*slot]map[*Extensible]struct{}
}

// Option configures the registry at creation time.
type Option func(*Registry)

// WithLogger sets the registry logger.
func WithLogger(logger log.Logger) Option {
	return func(r *Registry) { r.logger = logger }
}

// NewRegistry creates an instance of Registry
func NewRegistry(opts ...Option) *Registry {
	r := &Registry{
		logger:  log.DefaultLogger,
		slots:   make(map[slotKey]*slot),
		holders: make(map[*slot]map[*Extensible]struct{}),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Unregister tears down the named slot at module unload. Every entity still
// holding a value for the slot has that value released exactly once, then
// the descriptor is removed; stale handles to it turn inert. Entities that
// were already destroyed have run their own release pass and are no longer
// tracked here. A panicking release hook is converted to an error and the
// teardown continues; the aggregate is returned.
func (r *Registry) Unregister(name string, kind Kind) error {
	key := slotKey{name: name, kind: kind}
	descriptor, ok := r.slots[key]
	if !ok {
		return fmt.Errorf("%w: %s/%s", errors.ErrUnknownSlot, kind, name)
	}

	var violations error
	for holder := range r.holders[descriptor] {
		if old, had := holder.unsetRaw(descriptor); had {
			violations = multierr.Append(violations, r.safeRelease(descriptor, old))
		}
	}

	delete(r.holders, descriptor)
	delete(r.slots, key)
	descriptor.gone = true
	r.logger.Debugf("unregistered extension slot %s/%s", kind, name)
	return violations
}

// FreeAll releases every value still attached to e and marks its store
// inert. The core calls this through the entity's destruction hook before
// the entity is dropped; each remaining value is released exactly once, in
// unspecified order.
func (r *Registry) FreeAll(e *Extensible) {
	for descriptor, value := range e.values {
		delete(e.values, descriptor)
		r.removeHolder(descriptor, e)
		if err := r.safeRelease(descriptor, value); err != nil {
			r.logger.Error(err)
		}
	}
	e.values = nil
	e.dead = true
}

// Serialize returns the wire-safe text encoding of the value the named slot
// holds on e. ok is false when no value is attached or the value encodes to
// nothing. Only network-synchronized slots can be serialized.
func (r *Registry) Serialize(name string, e *Extensible) (text string, ok bool, err error) {
	descriptor, found := r.slots[slotKey{name: name, kind: e.Kind()}]
	if !found {
		return "", false, fmt.Errorf("%w: %s/%s", errors.ErrUnknownSlot, e.Kind(), name)
	}
	if descriptor.encode == nil {
		return "", false, fmt.Errorf("%w: %s/%s", errors.ErrNotNetworkSynced, e.Kind(), name)
	}
	value, present := e.getRaw(descriptor)
	if !present {
		return "", false, nil
	}
	encoded := descriptor.encode(value)
	return encoded, encoded != "", nil
}

// Deserialize parses text with the named slot's codec and attaches the
// reconstructed value to e. A parse failure attaches the codec's sentinel
// value and is logged rather than returned: malformed remote metadata must
// degrade the attribute, never desynchronize the entity model.
func (r *Registry) Deserialize(name string, e *Extensible, text string) error {
	descriptor, found := r.slots[slotKey{name: name, kind: e.Kind()}]
	if !found {
		return fmt.Errorf("%w: %s/%s", errors.ErrUnknownSlot, e.Kind(), name)
	}
	if descriptor.decode == nil {
		return fmt.Errorf("%w: %s/%s", errors.ErrNotNetworkSynced, e.Kind(), name)
	}
	if e.Destroyed() {
		return fmt.Errorf("%w: %s/%s", errors.ErrEntityDestroyed, e.Kind(), name)
	}

	value, err := descriptor.decode(text)
	if err != nil {
		r.logger.Warnf("attaching unparsed sentinel for slot %s/%s: %v", e.Kind(), name, err)
	}
	r.attach(descriptor, e, value)
	return nil
}

// CollectMetadata gathers, for every network-synchronized slot holding a
// value on e, its slot name and encoded value, ordered by slot name. The
// replication pass observes the most recent Set for each slot at call time.
func (r *Registry) CollectMetadata(e *Extensible) []Metadata {
	var items []Metadata
	for key, descriptor := range r.slots {
		if key.kind != e.Kind() || descriptor.encode == nil {
			continue
		}
		value, present := e.getRaw(descriptor)
		if !present {
			continue
		}
		if encoded := descriptor.encode(value); encoded != "" {
			items = append(items, Metadata{Name: key.name, Value: encoded})
		}
	}
	sort.Slice(items, func(i, j int) bool { return items[i].Name < items[j].Name })
	return items
}

// ApplyMetadata is the receiving side of the replication boundary. Items
// naming a slot this instance does not know are skipped: a peer may run
// extra modules.
func (r *Registry) ApplyMetadata(e *Extensible, items ...Metadata) {
	for _, item := range items {
		if err := r.Deserialize(item.Name, e, item.Value); err != nil {
			r.logger.Debugf("skipping replicated metadata %q for %s entity: %v", item.Name, e.Kind(), err)
		}
	}
}

// attach stores value under descriptor on e, releasing any previous value
// first. Writes to a destroyed entity are dropped.
func (r *Registry) attach(descriptor *slot, e *Extensible, value any) {
	old, had, stored := e.setRaw(descriptor, value)
	if !stored {
		return
	}
	if had {
		if err := r.safeRelease(descriptor, old); err != nil {
			r.logger.Error(err)
		}
	}
	r.addHolder(descriptor, e)
}

// detach releases and removes the value under descriptor on e, if any.
func (r *Registry) detach(descriptor *slot, e *Extensible) {
	old, had := e.unsetRaw(descriptor)
	if !had {
		return
	}
	r.removeHolder(descriptor, e)
	if err := r.safeRelease(descriptor, old); err != nil {
		r.logger.Error(err)
	}
}

func (r *Registry) addHolder(descriptor *slot, e *Extensible) {
	entities, ok := r.holders[descriptor]
	if !ok {
		entities = make(map[*Extensible]struct{})
		r.holders[descriptor] = entities
	}
	entities[e] = struct{}{}
}

func (r *Registry) removeHolder(descriptor *slot, e *Extensible) {
	if entities, ok := r.holders[descriptor]; ok {
		delete(entities, e)
	}
}

// safeRelease runs the slot's release hook, converting a panic into an
// error so one misbehaving hook cannot abort a teardown pass.
func (r *Registry) safeRelease(descriptor *slot, value any) (err error) {
	defer func() {
		if recovered := recover(); recovered != nil {
			err = fmt.Errorf("release hook for slot %s/%s panicked: %v", descriptor.kind, descriptor.name, recovered)
		}
	}()
	descriptor.releaseValue(value)
	return nil
}
