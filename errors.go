// Copyright 2018 The go-zeromq Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package zmtp

import "github.com/pkg/errors"

// Sentinel errors for the taxonomy described in the protocol design:
// configuration, protocol, transport, and usage classes. Callers should
// match against these with errors.Is; call sites wrap them with
// errors.Wrapf to attach context before returning.
var (
	// configuration
	ErrInvalidEndpoint   = errors.New("zmtp: invalid endpoint")
	ErrInvalidSocketType = errors.New("zmtp: invalid socket type for operation")
	ErrNotBound          = errors.New("zmtp: socket is not bound")
	ErrNotConnected      = errors.New("zmtp: socket is not connected")

	// protocol
	ErrBadFrame             = errors.New("zmtp: bad frame")
	ErrBadCommand           = errors.New("zmtp: bad command")
	ErrMechanismUnsupported = errors.New("zmtp: security mechanism not supported")

	// transport
	ErrStreamEnded = errors.New("zmtp: stream ended")
	ErrWouldBlock  = errors.New("zmtp: would block")

	// usage
	ErrBufferTooSmall   = errors.New("zmtp: receive buffer too small")
	ErrInvalidOperation = errors.New("zmtp: invalid operation for socket type")
)
