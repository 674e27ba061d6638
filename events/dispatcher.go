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

package events

import (
	"github.com/emberchat/emberd/log"
)

// Dispatcher maintains the ordered listener chains of one daemon instance.
// Construct one per process root; tests construct their own instances.
type Dispatcher struct {
	logger log.Logger
	chains map[string][]entry
	seq    uint64
}

// entry is one registered listener. Chains are kept ordered by
// (priority, seq): lower priority numbers run first, ties run in
// registration order.
type entry struct {
	seq      uint64
	priority int
	handler  func(payload any) Outcome
}

// Subscription identifies a registered listener so it can be removed.
type Subscription struct {
	kind string
	seq  uint64
}

// Option configures the dispatcher at creation time.
type Option func(*Dispatcher)

// WithLogger sets the dispatcher logger.
func WithLogger(logger log.Logger) Option {
	return func(d *Dispatcher) { d.logger = logger }
}

// NewDispatcher creates an instance of Dispatcher
func NewDispatcher(opts ...Option) *Dispatcher {
	d := &Dispatcher{
		logger: log.DefaultLogger,
		chains: make(map[string][]entry),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Subscribe registers listener for the given kind. Lower priority numbers
// run earlier; listeners with equal priority run in registration order.
func Subscribe[T any](d *Dispatcher, kind *Kind[T], priority int, listener func(*T) Outcome) *Subscription {
	d.seq++
	added := entry{
		seq:      d.seq,
		priority: priority,
		handler: func(payload any) Outcome {
			return listener(payload.(*T))
		},
	}

	// chains are rebuilt on every change so a dispatch in progress keeps
	// iterating its own snapshot
	current := d.chains[kind.name]
	chain := make([]entry, 0, len(current)+1)
	inserted := false
	for _, existing := range current {
		if !inserted && added.priority < existing.priority {
			chain = append(chain, added)
			inserted = true
		}
		chain = append(chain, existing)
	}
	if !inserted {
		chain = append(chain, added)
	}
	d.chains[kind.name] = chain

	return &Subscription{kind: kind.name, seq: added.seq}
}

// Observe registers a listener that never votes: it observes (and may
// mutate) the payload and always passes through. This is the natural shape
// for advisory kinds.
func Observe[T any](d *Dispatcher, kind *Kind[T], priority int, listener func(*T)) *Subscription {
	return Subscribe(d, kind, priority, func(payload *T) Outcome {
		listener(payload)
		return PassThrough
	})
}

// Unsubscribe removes the listener identified by sub. It is safe to call
// from inside a running dispatch: the chain being iterated is a snapshot.
func (d *Dispatcher) Unsubscribe(sub *Subscription) {
	if sub == nil {
		return
	}
	current := d.chains[sub.kind]
	chain := make([]entry, 0, len(current))
	for _, existing := range current {
		if existing.seq != sub.seq {
			chain = append(chain, existing)
		}
	}
	if len(chain) == 0 {
		delete(d.chains, sub.kind)
		return
	}
	d.chains[sub.kind] = chain
}

// Listeners returns the number of listeners subscribed for the given kind name.
func (d *Dispatcher) Listeners(name string) int {
	return len(d.chains[name])
}

// Dispatch raises an event of the given kind and runs its listener chain in
// order against the mutable payload. The first non-PassThrough vote is the
// final outcome and ends the chain; if every listener passes through the
// caller applies its default behavior. Advisory kinds run every listener
// and always report PassThrough. A listener that panics is logged and
// treated as PassThrough so one misbehaving module cannot block the action
// chain.
func Dispatch[T any](d *Dispatcher, kind *Kind[T], payload *T) Outcome {
	chain := d.chains[kind.name]
	for _, listener := range chain {
		outcome := d.invoke(kind.name, listener, payload)
		if !kind.advisory && outcome != PassThrough {
			return outcome
		}
	}
	return PassThrough
}

func (d *Dispatcher) invoke(name string, listener entry, payload any) (outcome Outcome) {
	defer func() {
		if recovered := recover(); recovered != nil {
			d.logger.Errorf("listener for %s event panicked: %v", name, recovered)
			outcome = PassThrough
		}
	}()
	return listener.handler(payload)
}
