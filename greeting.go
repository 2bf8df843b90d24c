// Copyright 2018 The go-zeromq Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package zmtp

import (
	"io"

	"github.com/pkg/errors"
)

const greetingSize = 64

const (
	sigStart byte = 0xff
	sigEnd   byte = 0x7f
)

// version is the (major, minor) pair emitted in every greeting. This
// library always emits 3.1; the peer's version is read but not checked.
type version struct {
	major, minor byte
}

var defaultVersion = version{major: 3, minor: 1}

// greeting is the fixed 64-byte record exchanged once at the start of
// each Connection. See the wire layout table: offset 0 and 9 carry the
// signature, 10-11 the version, 12-31 the zero-padded mechanism name,
// 32 the as_server flag, 33-63 reserved.
type greeting struct {
	Version   version
	Mechanism SecurityMechanism
	AsServer  bool
}

// encodeGreeting serialises g into the wire's 64-byte form.
func encodeGreeting(g greeting) []byte {
	buf := make([]byte, greetingSize)
	buf[0] = sigStart
	buf[9] = sigEnd
	buf[10] = g.Version.major
	buf[11] = g.Version.minor
	copy(buf[12:32], []byte(g.Mechanism))
	if g.AsServer {
		buf[32] = 1
	}
	return buf
}

// writeGreeting sends the encoded greeting for this library's fixed
// version (3.1) and mechanism (NULL), with as_server set according to
// whether this side is the handshake acceptor.
func writeGreeting(w io.Writer, asServer bool) error {
	g := greeting{Version: defaultVersion, Mechanism: NullSecurity, AsServer: asServer}
	_, err := w.Write(encodeGreeting(g))
	return errors.Wrapf(err, "zmtp: could not send greeting")
}

// decodeGreeting parses an in-memory 64-byte greeting buffer with no
// read tolerance; used by tests exercising the codec in isolation
// (see P3) and internally by readGreeting once a full read succeeds.
func decodeGreeting(buf []byte) (greeting, error) {
	if len(buf) != greetingSize {
		return greeting{}, errors.Errorf("zmtp: greeting must be %d bytes, got %d", greetingSize, len(buf))
	}
	return greeting{
		Version:   version{major: buf[10], minor: buf[11]},
		Mechanism: parseMechanism(string(buf[12:32])),
		AsServer:  buf[32] != 0,
	}, nil
}

// readGreeting reads a peer's greeting. Per the handshake-tolerance
// rule, any peer greeting yielding at least 10 readable bytes (enough
// to validate the ZMTP signature) is accepted even if the remainder
// cannot be read in full; in that case the connection proceeds on the
// assumption of ZMTP 3.1 / NULL.
func readGreeting(r io.Reader) (greeting, error) {
	var buf [greetingSize]byte
	n, err := io.ReadFull(r, buf[:])
	if err != nil && n < 10 {
		return greeting{}, errors.Wrapf(ErrStreamEnded, "zmtp: short greeting read (%d bytes)", n)
	}
	if n < greetingSize {
		// Tolerate a short read past the signature: assume 3.1/NULL.
		return greeting{Version: defaultVersion, Mechanism: NullSecurity}, nil
	}

	return decodeGreeting(buf[:])
}
