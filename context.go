// Copyright 2018 The go-zeromq Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package zmtp implements ZMTP 3.1 message transport over TCP with the
// NULL security mechanism, and the REQ/REP and PUB/SUB messaging
// patterns built on top of it.
package zmtp

import (
	"sync"

	"github.com/sirupsen/logrus"
)

// Context is the host-facing handle behind context_new/context_destroy:
// a registry of the Sockets it created, so that destroying it closes
// every Socket still open. It carries no protocol state of its own.
type Context struct {
	mu      sync.Mutex
	sockets map[*Socket]struct{}
	log     *logrus.Entry
}

// NewContext creates a new, empty Context.
func NewContext() *Context {
	return &Context{sockets: make(map[*Socket]struct{}), log: logFor(nil)}
}

// NewSocket creates a Socket of the given type bound to this Context.
// opts configures optional knobs (logger, identity) the way functional
// options generalise the teacher's positional Open(rw, sec, typ, id,
// server) constructor.
func (ctx *Context) NewSocket(typ SocketType, opts ...SocketOption) *Socket {
	s := newSocket(ctx, typ, opts...)
	ctx.mu.Lock()
	ctx.sockets[s] = struct{}{}
	ctx.mu.Unlock()
	ctx.log.WithFields(sockFields(typ)).Debug("zmtp: socket created")
	return s
}

func (ctx *Context) forget(s *Socket) {
	ctx.mu.Lock()
	delete(ctx.sockets, s)
	ctx.mu.Unlock()
}

// Close closes every Socket still registered with this Context.
func (ctx *Context) Close() error {
	ctx.mu.Lock()
	sockets := make([]*Socket, 0, len(ctx.sockets))
	for s := range ctx.sockets {
		sockets = append(sockets, s)
	}
	ctx.mu.Unlock()

	var firstErr error
	for _, s := range sockets {
		if err := s.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
