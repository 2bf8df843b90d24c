// Copyright 2018 The go-zeromq Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package zmtp

// PubSocket is the PUB side of a publish/subscribe pair: a listener
// plus the set of currently accepted subscriber Connections.
type PubSocket struct {
	*Socket
}

// NewPub creates a PUB socket bound to ctx.
func (ctx *Context) NewPub(opts ...SocketOption) *PubSocket {
	return &PubSocket{Socket: ctx.NewSocket(PUB, opts...)}
}

// Send fans data out to every currently open Connection that matches
// it: the subscription harvester is run per-Connection first to drain
// any pending SUBSCRIBE/CANCEL frames, then matches is evaluated, then
// matching Connections receive data as a single message frame. A write
// or harvest failure on one Connection removes and closes just that
// Connection; Send still reports success if any (or zero) eligible
// recipients remained. Ordering across Connections is not guaranteed;
// within one Connection, messages are delivered in call order.
func (p *PubSocket) Send(data []byte, flags SendFlags) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	for id, conn := range p.conns {
		if err := conn.harvest(); err != nil {
			p.log.WithFields(connFields(id)).WithError(err).Debug("zmtp: PUB harvest failed, dropping subscriber")
			conn.Close()
			delete(p.conns, id)
			continue
		}
		if !conn.matches(data) {
			continue
		}
		if err := conn.sendFrame(data, false); err != nil {
			p.log.WithFields(connFields(id)).WithError(err).Debug("zmtp: PUB write failed, dropping subscriber")
			conn.Close()
			delete(p.conns, id)
			continue
		}
	}
	return nil
}
