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

// Package events implements the ordered event hook dispatch of the emberd
// core. Feature modules subscribe listeners to an event kind with a
// priority; when the core raises the event, listeners run in priority order
// and may allow, deny, or pass through the default action, with the first
// non-passthrough vote ending the chain. Advisory kinds carry no veto: every
// listener always runs.
//
// Dispatch runs on the daemon's single control goroutine and takes no locks.
package events

// Outcome is a listener's vote on a protocol action.
type Outcome int

const (
	// PassThrough defers the decision to the next listener, or to the
	// core's default behavior when no listener decides.
	PassThrough Outcome = iota
	// Allow accepts the action and stops the chain.
	Allow
	// Deny vetoes the action and stops the chain.
	Deny
)

// String returns the text representation of the outcome
func (o Outcome) String() string {
	switch o {
	case Allow:
		return "allow"
	case Deny:
		return "deny"
	case PassThrough:
		return "passthrough"
	default:
		return "unknown"
	}
}

// Kind identifies one event kind and fixes the payload type its listeners
// receive. Declare kinds once as package-level values; whether a kind is
// advisory is a property of the kind, not of an individual dispatch.
type Kind[T any] struct {
	name     string
	advisory bool
}

// NewKind declares a vetoable event kind.
func NewKind[T any](name string) *Kind[T] {
	return &Kind[T]{name: name}
}

// NewAdvisoryKind declares an advisory event kind: notification-style, with
// no veto concept. Dispatch runs every listener to completion and always
// reports PassThrough.
func NewAdvisoryKind[T any](name string) *Kind[T] {
	return &Kind[T]{name: name, advisory: true}
}

// Name returns the event kind name.
func (k *Kind[T]) Name() string {
	return k.name
}

// Advisory reports whether the kind is advisory.
func (k *Kind[T]) Advisory() bool {
	return k.advisory
}
