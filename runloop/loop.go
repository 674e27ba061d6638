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

// Package runloop drives the daemon's single cooperative control
// goroutine. All entity, slot and dispatch state is mutated only from this
// goroutine; asynchronous collaborators such as DNS resolution or a TLS
// handshake completing on another goroutine re-enter core state by posting
// a completion task instead of touching it directly.
package runloop

import (
	"context"

	"github.com/emberchat/emberd/internal/queue"
	"github.com/emberchat/emberd/log"
)

// Loop is the single-consumer task loop. Post may be called from any
// goroutine; tasks run one at a time, in post order, on the goroutine that
// called Run.
type Loop struct {
	logger log.Logger
	tasks  *queue.MPSC[func()]
	wake   chan struct{}
}

// Option configures the loop at creation time.
type Option func(*Loop)

// WithLogger sets the loop logger.
func WithLogger(logger log.Logger) Option {
	return func(l *Loop) { l.logger = logger }
}

// New creates an instance of Loop
func New(opts ...Option) *Loop {
	l := &Loop{
		logger: log.DefaultLogger,
		tasks:  queue.NewMPSC[func()](),
		wake:   make(chan struct{}, 1),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Post enqueues a task for the control goroutine. Safe to call from any
// goroutine, including from a task already running on the loop.
func (l *Loop) Post(task func()) {
	l.tasks.Push(task)
	select {
	case l.wake <- struct{}{}:
	default:
	}
}

// Run drains tasks until ctx is done and returns ctx.Err(). It must be
// called from exactly one goroutine; that goroutine is the daemon's control
// thread for the lifetime of the loop.
func (l *Loop) Run(ctx context.Context) error {
	for {
		l.drain()
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-l.wake:
		}
	}
}

func (l *Loop) drain() {
	for {
		task, ok := l.tasks.Pop()
		if !ok {
			return
		}
		l.execute(task)
	}
}

// execute runs one task, recovering a panic so a misbehaving completion
// cannot take down the control thread.
func (l *Loop) execute(task func()) {
	defer func() {
		if recovered := recover(); recovered != nil {
			l.logger.Errorf("posted task panicked: %v", recovered)
		}
	}()
	task()
}
