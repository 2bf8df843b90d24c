// Copyright 2018 The go-zeromq Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package zmtp

import (
	"sync/atomic"

	"github.com/google/uuid"
)

// SocketIdentity is an optional, wire-visible identity a Socket may
// advertise in its READY command alongside Socket-Type. It has no
// bearing on the REQ/REP/PUB/SUB data-plane semantics defined here;
// peers are required to tolerate it as an unknown property.
type SocketIdentity string

// newIdentity returns a fresh random identity, used when a Socket is
// constructed without an explicit one.
func newIdentity() SocketIdentity {
	return SocketIdentity(uuid.New().String())
}

// connIDGen hands out unique, monotonically increasing Connection ids
// scoped to a single Socket, as required by the Connection-ids-unique-
// within-a-Socket invariant.
type connIDGen struct {
	next uint64
}

func (g *connIDGen) nextID() uint64 {
	return atomic.AddUint64(&g.next, 1) - 1
}
