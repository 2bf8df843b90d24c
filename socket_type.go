// Copyright 2018 The go-zeromq Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package zmtp

import "strings"

// SocketType is the fixed ZMTP socket-type enumeration. Its wire value,
// used only for equality/ordering here, matches the ZMTP/libzmq
// constant for the type; the value actually placed on the wire during
// the READY handshake is the uppercase ASCII name returned by String.
type SocketType int

const (
	PAIR SocketType = iota
	PUB
	SUB
	REQ
	REP
	DEALER
	ROUTER
	PULL
	PUSH
	XPUB
	XSUB
	STREAM
)

var socketTypeNames = [...]string{
	PAIR: "PAIR", PUB: "PUB", SUB: "SUB", REQ: "REQ", REP: "REP",
	DEALER: "DEALER", ROUTER: "ROUTER", PULL: "PULL", PUSH: "PUSH",
	XPUB: "XPUB", XSUB: "XSUB", STREAM: "STREAM",
}

// String returns the uppercase ASCII tag used as the Socket-Type
// property value during the READY handshake.
func (t SocketType) String() string {
	if int(t) < 0 || int(t) >= len(socketTypeNames) {
		return ""
	}
	return socketTypeNames[t]
}

func parseSocketType(s string) (SocketType, bool) {
	s = strings.ToUpper(strings.TrimSpace(s))
	for i, n := range socketTypeNames {
		if n == s {
			return SocketType(i), true
		}
	}
	return 0, false
}

// compatiblePairs lists the socket types each type may legally pair
// with over a single Connection. Types outside the four implemented
// patterns (REQ/REP/PUB/SUB) must still be representable on the wire
// per the core's scope, but no data-plane behaviour is required for
// them, so they are treated as compatible with anything -- only the
// pairs this library actually drives data over are checked strictly.
var compatiblePairs = map[SocketType]map[SocketType]bool{
	REQ: {REP: true, ROUTER: true},
	REP: {REQ: true, DEALER: true},
	PUB: {SUB: true, XSUB: true},
	SUB: {PUB: true, XPUB: true},
}

// IsCompatible reports whether a peer advertising socketType other may
// legally complete a handshake with a local socket of type t. A local
// socket of a type this library does not implement a data plane for
// accepts any peer type; a local REQ, REP, PUB or SUB accepts only the
// peer types listed for it in compatiblePairs.
func (t SocketType) IsCompatible(other SocketType) bool {
	pairs, ok := compatiblePairs[t]
	if !ok {
		return true
	}
	return pairs[other]
}
