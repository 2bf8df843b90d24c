// Copyright 2018 The go-zeromq Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package zmtp

import "github.com/pkg/errors"

// RepSocket is the REP side of a request/reply pair: a listener plus
// the accepted Connections it serves. Requests and replies are
// exchanged with whichever Connection was most recently accepted, per
// Socket.currentConn -- this library does not implement ROUTER-style
// envelope multiplexing across simultaneous REP peers.
type RepSocket struct {
	*Socket
}

// NewRep creates a REP socket bound to ctx.
func (ctx *Context) NewRep(opts ...SocketOption) *RepSocket {
	return &RepSocket{Socket: ctx.NewSocket(REP, opts...)}
}

// Recv reads a request, applying the same multi-frame concatenation as
// REQ.
func (r *RepSocket) Recv(buf []byte) (int, error) {
	conn, err := r.currentConn()
	if err != nil {
		return 0, err
	}
	n, err := recvConcat(conn, buf)
	if err != nil {
		conn.markDead()
		r.removeConn(conn.id)
	}
	return n, err
}

// Send writes the envelope delimiter followed by data, mirroring REQ.
func (r *RepSocket) Send(data []byte, flags SendFlags) error {
	conn, err := r.currentConn()
	if err != nil {
		return err
	}
	if err := conn.sendFrame(nil, true); err != nil {
		conn.markDead()
		r.removeConn(conn.id)
		return errors.Wrapf(err, "zmtp: REP send delimiter failed")
	}
	if err := conn.sendFrame(data, false); err != nil {
		conn.markDead()
		r.removeConn(conn.id)
		return errors.Wrapf(err, "zmtp: REP send body failed")
	}
	return nil
}
