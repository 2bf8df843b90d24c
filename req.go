// Copyright 2018 The go-zeromq Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package zmtp

import "github.com/pkg/errors"

// ReqSocket is the REQ side of a request/reply pair: a single client
// Connection established via Connect.
type ReqSocket struct {
	*Socket
}

// NewReq creates a REQ socket bound to ctx.
func (ctx *Context) NewReq(opts ...SocketOption) *ReqSocket {
	return &ReqSocket{Socket: ctx.NewSocket(REQ, opts...)}
}

// Send writes the envelope delimiter (an empty message frame with MORE
// set) followed by data (MORE clear), matching REQ's framing.
func (r *ReqSocket) Send(data []byte, flags SendFlags) error {
	conn, err := r.soleConn()
	if err != nil {
		return err
	}
	if err := conn.sendFrame(nil, true); err != nil {
		conn.markDead()
		return errors.Wrapf(err, "zmtp: REQ send delimiter failed")
	}
	if err := conn.sendFrame(data, false); err != nil {
		conn.markDead()
		return errors.Wrapf(err, "zmtp: REQ send body failed")
	}
	return nil
}

// Recv reads frames until one arrives with MORE clear, concatenating
// all non-empty payloads into buf in arrival order (empty delimiter
// frames are skipped). It fails with ErrBufferTooSmall if the
// concatenated length exceeds len(buf).
func (r *ReqSocket) Recv(buf []byte) (int, error) {
	conn, err := r.soleConn()
	if err != nil {
		return 0, err
	}
	n, err := recvConcat(conn, buf)
	if err != nil {
		conn.markDead()
	}
	return n, err
}

// recvConcat implements the REQ/REP multi-frame concatenating recv
// shared by both sides of the pattern. PING commands interleaved in
// the stream are answered with PONG transparently by recvDataFrame and
// never counted as payload.
func recvConcat(conn *Conn, buf []byte) (int, error) {
	var n int
	for {
		payload, more, err := conn.recvDataFrame()
		if err != nil {
			return 0, err
		}
		if len(payload) > 0 {
			if n+len(payload) > len(buf) {
				return 0, ErrBufferTooSmall
			}
			n += copy(buf[n:], payload)
		}
		if !more {
			break
		}
	}
	return n, nil
}
