// Copyright 2018 The go-zeromq Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package zmtp

import "github.com/pkg/errors"

// SubSocket is the SUB side of a publish/subscribe pair: a single
// client Connection established via Connect.
type SubSocket struct {
	*Socket
}

// NewSub creates a SUB socket bound to ctx.
func (ctx *Context) NewSub(opts ...SocketOption) *SubSocket {
	return &SubSocket{Socket: ctx.NewSocket(SUB, opts...)}
}

// Subscribe writes a subscribe control message (0x01 || topic). An
// empty topic subscribes to all messages. Per the documented
// asymmetry, SUB-side Connections are not switched to non-blocking
// mode, so this write may block.
func (s *SubSocket) Subscribe(topic string) error {
	conn, err := s.soleConn()
	if err != nil {
		return err
	}
	payload := append([]byte{subMarker}, []byte(topic)...)
	if err := conn.sendFrame(payload, false); err != nil {
		conn.markDead()
		return errors.Wrapf(err, "zmtp: SUB subscribe failed")
	}
	return nil
}

// Unsubscribe writes an unsubscribe control message (0x00 || topic).
func (s *SubSocket) Unsubscribe(topic string) error {
	conn, err := s.soleConn()
	if err != nil {
		return err
	}
	payload := append([]byte{cancelMarker}, []byte(topic)...)
	if err := conn.sendFrame(payload, false); err != nil {
		conn.markDead()
		return errors.Wrapf(err, "zmtp: SUB unsubscribe failed")
	}
	return nil
}

// Send is illegal on a SUB socket.
func (s *SubSocket) Send(data []byte, flags SendFlags) error {
	return ErrInvalidOperation
}

// Recv reads one message frame and copies its payload into buf.
func (s *SubSocket) Recv(buf []byte) (int, error) {
	conn, err := s.soleConn()
	if err != nil {
		return 0, err
	}
	payload, _, err := conn.recvDataFrame()
	if err != nil {
		conn.markDead()
		return 0, err
	}
	if len(payload) > len(buf) {
		return 0, ErrBufferTooSmall
	}
	return copy(buf, payload), nil
}
