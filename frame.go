// Copyright 2018 The go-zeromq Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package zmtp

import (
	"encoding/binary"
	"io"

	"github.com/pkg/errors"
)

// Frame flag bits, per the ZMTP 3.1 wire format.
const (
	flagMore    byte = 0x01
	flagLong    byte = 0x02
	flagCommand byte = 0x04
)

// shortMax is the largest payload length that fits the 1-byte length
// prefix; anything larger uses the 8-byte big-endian long form.
const shortMax = 255

// encodeMessage renders payload as a message frame (COMMAND bit
// clear), setting MORE when more is true and choosing the short or
// long length form based on len(payload).
func encodeMessage(payload []byte, more bool) []byte {
	return encodeFrame(payload, more, false)
}

// encodeCommand renders payload as a command frame (COMMAND bit set).
// Command frames never carry MORE.
func encodeCommand(payload []byte) []byte {
	return encodeFrame(payload, false, true)
}

func encodeFrame(payload []byte, more, isCommand bool) []byte {
	var flag byte
	isLong := len(payload) > shortMax
	if more {
		flag |= flagMore
	}
	if isLong {
		flag |= flagLong
	}
	if isCommand {
		flag |= flagCommand
	}

	var hdr []byte
	if isLong {
		hdr = make([]byte, 1+8)
		hdr[0] = flag
		binary.BigEndian.PutUint64(hdr[1:], uint64(len(payload)))
	} else {
		hdr = make([]byte, 1+1)
		hdr[0] = flag
		hdr[1] = byte(len(payload))
	}

	out := make([]byte, 0, len(hdr)+len(payload))
	out = append(out, hdr...)
	out = append(out, payload...)
	return out
}

// legalFlags is the closed set of flag-byte values this implementation
// will parse. The parser compares the flag byte against this set by
// exact equality rather than masking the three defined bits
// individually -- this matches the teacher's behaviour and is
// preserved deliberately (see the design notes on flag-byte handling).
var legalFlags = map[byte]bool{
	0x00: true, // message, last, short
	0x01: true, // message, more, short
	0x02: true, // message, last, long
	0x03: true, // message, more, long
	0x04: true, // command, short
	0x06: true, // command, long
}

// parseFrame reads exactly one frame from r: the flags byte, the
// length (1 or 8 bytes depending on the LONG bit), and then exactly
// length payload bytes. It returns the payload, whether MORE was set,
// and whether the frame was a command frame.
func parseFrame(r io.Reader) (payload []byte, more bool, isCommand bool, err error) {
	// A read timeout stays in the returned error's chain so that
	// isTimeout can recognise it; any other read failure is ErrStreamEnded.
	streamErr := func(err error, format string, args ...interface{}) error {
		if isTimeout(err) {
			return errors.Wrapf(err, format, args...)
		}
		return errors.Wrapf(ErrStreamEnded, format+": %v", append(args, err)...)
	}

	var flagBuf [1]byte
	if _, err = io.ReadFull(r, flagBuf[:]); err != nil {
		return nil, false, false, streamErr(err, "zmtp: could not read frame flags")
	}
	fl := flagBuf[0]
	if !legalFlags[fl] {
		return nil, false, false, errors.Wrapf(ErrBadFrame, "zmtp: illegal flag byte 0x%02x", fl)
	}

	more = fl&flagMore != 0
	isCommand = fl&flagCommand != 0
	isLong := fl&flagLong != 0

	var length uint64
	if isLong {
		var lenBuf [8]byte
		if _, err = io.ReadFull(r, lenBuf[:]); err != nil {
			return nil, false, false, streamErr(err, "zmtp: could not read long length")
		}
		length = binary.BigEndian.Uint64(lenBuf[:])
	} else {
		var lenBuf [1]byte
		if _, err = io.ReadFull(r, lenBuf[:]); err != nil {
			return nil, false, false, streamErr(err, "zmtp: could not read short length")
		}
		length = uint64(lenBuf[0])
	}

	payload = make([]byte, length)
	if length > 0 {
		if _, err = io.ReadFull(r, payload); err != nil {
			return nil, false, false, streamErr(err, "zmtp: could not read %d byte payload", length)
		}
	}

	return payload, more, isCommand, nil
}
