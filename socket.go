// Copyright 2018 The go-zeromq Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package zmtp

import (
	"net"
	"strconv"
	"strings"
	"sync"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// SendFlags mirrors the wire-level options recognised by send. Both
// DONTWAIT and SNDMORE are accepted syntactically by every pattern's
// Send for API compatibility with the wider option set, but neither is
// acted on: each pattern's Send already writes its fixed frame shape
// (REQ/REP's delimiter-plus-body, PUB's single frame) in one blocking
// call, so there is no partial send to defer and no multi-part
// message for the caller to continue. recv's flags word is reserved.
type SendFlags int

const (
	DONTWAIT SendFlags = 1 << iota
	SNDMORE
)

// SocketOption configures a Socket at construction time.
type SocketOption func(*Socket)

// WithLogger attaches a logrus entry used for this Socket's and its
// Connections' lifecycle logging.
func WithLogger(log *logrus.Entry) SocketOption {
	return func(s *Socket) { s.log = logFor(log) }
}

// WithIdentity sets the SocketIdentity advertised as an extra property
// in this Socket's READY commands. Without this option a random one is
// generated.
func WithIdentity(id SocketIdentity) SocketOption {
	return func(s *Socket) { s.ident = id }
}

// Socket is the user-facing object of a given ZMTP pattern. It owns
// either one Connection (client side, after connect) or a listener
// plus a set of accepted Connections (server side, after bind and one
// or more accept calls).
type Socket struct {
	typ   SocketType
	ident SocketIdentity
	ctx   *Context
	log   *logrus.Entry

	ln net.Listener

	mu      sync.Mutex
	conns   map[uint64]*Conn
	ids     connIDGen
	current *Conn // most recently accepted Connection; used by REP's single-peer request/reply cycle
}

func newSocket(ctx *Context, typ SocketType, opts ...SocketOption) *Socket {
	s := &Socket{
		typ:   typ,
		ident: newIdentity(),
		ctx:   ctx,
		conns: make(map[uint64]*Conn),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.log == nil {
		s.log = logFor(nil)
	}
	return s
}

// Type returns the Socket's pattern.
func (s *Socket) Type() SocketType { return s.typ }

// parseTCPEndpoint validates and splits an endpoint string of the form
// "tcp://host:port". host may be "*" only when used for Bind, meaning
// 0.0.0.0. Anything else -- a different scheme, or a missing colon --
// yields ErrInvalidEndpoint.
func parseTCPEndpoint(endpoint string, forBind bool) (string, error) {
	const prefix = "tcp://"
	if !strings.HasPrefix(endpoint, prefix) {
		return "", errors.Wrapf(ErrInvalidEndpoint, "zmtp: endpoint %q does not start with %q", endpoint, prefix)
	}
	hostport := strings.TrimPrefix(endpoint, prefix)

	host, port, err := net.SplitHostPort(hostport)
	if err != nil {
		return "", errors.Wrapf(ErrInvalidEndpoint, "zmtp: endpoint %q: %v", endpoint, err)
	}
	if host == "*" {
		if !forBind {
			return "", errors.Wrapf(ErrInvalidEndpoint, "zmtp: endpoint %q: \"*\" only valid for bind", endpoint)
		}
		host = "0.0.0.0"
	}

	p, err := strconv.Atoi(port)
	if err != nil || p < 0 || p > 65535 {
		return "", errors.Wrapf(ErrInvalidEndpoint, "zmtp: endpoint %q: invalid port %q", endpoint, port)
	}

	return net.JoinHostPort(host, port), nil
}

// Bind starts listening at endpoint ("tcp://host:port"). It does not
// itself accept any Connections; call Accept in a loop to do that.
func (s *Socket) Bind(endpoint string) error {
	addr, err := parseTCPEndpoint(endpoint, true)
	if err != nil {
		return err
	}
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return errors.Wrapf(err, "zmtp: could not bind %q", endpoint)
	}
	s.ln = ln
	return nil
}

// Addr returns the address the Socket is bound to, or nil if Bind has
// not been called. Useful for tests and for services that bind an
// ephemeral port (":0") and need to learn which one the OS picked.
func (s *Socket) Addr() net.Addr {
	if s.ln == nil {
		return nil
	}
	return s.ln.Addr()
}

// Accept blocks until a TCP connection arrives at the bound listener,
// performs the ZMTP handshake as the acceptor, installs the resulting
// Connection into this Socket's connection set, and -- for PUB sockets
// -- marks it non-blocking (see setNonblocking) and runs one initial harvest
// pass after a short grace period, per the Subscription Harvester
// design.
func (s *Socket) Accept() (*Conn, error) {
	if s.ln == nil {
		return nil, ErrNotBound
	}
	raw, err := s.ln.Accept()
	if err != nil {
		return nil, errors.Wrapf(err, "zmtp: accept failed")
	}

	s.mu.Lock()
	id := s.ids.nextID()
	s.mu.Unlock()

	conn := newConn(raw, id, s.typ, s.ident, true, s.log)
	if err := conn.handshake(); err != nil {
		conn.Close()
		return nil, err
	}

	if s.typ == PUB {
		conn.setNonblocking()
		harvestGracePeriod()
		if err := conn.harvest(); err != nil {
			conn.Close()
			return nil, err
		}
	}

	s.mu.Lock()
	s.conns[id] = conn
	s.current = conn
	s.mu.Unlock()

	s.log.WithFields(connFields(id)).Debug("zmtp: accepted connection")
	return conn, nil
}

// currentConn returns the Connection REP uses for its request/reply
// cycle: the most recently accepted one still open.
func (s *Socket) currentConn() (*Conn, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current == nil || !s.current.isOpen() {
		return nil, ErrNotConnected
	}
	return s.current, nil
}

// Connect dials endpoint ("tcp://host:port"), performs the ZMTP
// handshake as the initiator, and installs the single resulting
// Connection as this Socket's Connection.
func (s *Socket) Connect(endpoint string) error {
	addr, err := parseTCPEndpoint(endpoint, false)
	if err != nil {
		return err
	}
	raw, err := net.Dial("tcp", addr)
	if err != nil {
		return errors.Wrapf(err, "zmtp: could not connect %q", endpoint)
	}

	conn := newConn(raw, 0, s.typ, s.ident, false, s.log)
	if err := conn.handshake(); err != nil {
		conn.Close()
		return err
	}

	s.mu.Lock()
	s.conns[0] = conn
	s.mu.Unlock()

	return nil
}

// soleConn returns the Socket's single Connection (the client side
// after Connect); it is ErrNotConnected before that or after the
// Connection has died.
func (s *Socket) soleConn() (*Conn, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	conn, ok := s.conns[0]
	if !ok || !conn.isOpen() {
		return nil, ErrNotConnected
	}
	return conn, nil
}

// ConnectionCount returns the number of Connections currently held by
// this Socket (accepted server-side Connections, or 0/1 client-side).
func (s *Socket) ConnectionCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.conns)
}

// removeConn drops id from the connection set. It takes s.mu itself, so
// callers must not already hold it; removing an id that is no longer in
// the set is a no-op.
func (s *Socket) removeConn(id uint64) {
	s.mu.Lock()
	delete(s.conns, id)
	s.mu.Unlock()
}

// Close closes every Connection owned by this Socket and the listener,
// if any, and deregisters the Socket from its Context.
func (s *Socket) Close() error {
	s.mu.Lock()
	conns := make([]*Conn, 0, len(s.conns))
	for _, c := range s.conns {
		conns = append(conns, c)
	}
	s.conns = make(map[uint64]*Conn)
	ln := s.ln
	s.mu.Unlock()

	var firstErr error
	for _, c := range conns {
		if err := c.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	if ln != nil {
		if err := ln.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	if s.ctx != nil {
		s.ctx.forget(s)
	}
	return firstErr
}
