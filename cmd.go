// Copyright 2018 The go-zeromq Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package zmtp

import (
	"bytes"
	"encoding/binary"
	"io"

	"github.com/pkg/errors"
)

// Command names recognised on the wire. Any other name yields
// ErrBadCommand.
const (
	CmdReady     = "READY"
	CmdError     = "ERROR"
	CmdPing      = "PING"
	CmdPong      = "PONG"
	CmdSubscribe = "SUBSCRIBE"
	CmdCancel    = "CANCEL"
)

var knownCommands = map[string]bool{
	CmdReady: true, CmdError: true, CmdPing: true, CmdPong: true,
	CmdSubscribe: true, CmdCancel: true,
}

// Property is one name/value pair of a command's metadata, e.g.
// Socket-Type -> "REQ" in a READY command.
type Property struct {
	Name  string
	Value []byte
}

// Cmd is a decoded ZMTP command: a name followed by zero or more
// metadata properties. Wire layout inside the enclosing COMMAND frame:
// name_len:u8 || name || repeated(prop_name_len:u8 || prop_name ||
// prop_value_len:u32-be || prop_value). No property count precedes the
// property list.
type Cmd struct {
	Name       string
	Properties []Property
}

// property looks up the first property with the given name,
// case-sensitively (ZMTP property names are conventionally
// capitalised, e.g. Socket-Type).
func (c Cmd) property(name string) ([]byte, bool) {
	for _, p := range c.Properties {
		if p.Name == name {
			return p.Value, true
		}
	}
	return nil, false
}

// marshal renders the command's COMMAND-frame payload.
func (c Cmd) marshal() ([]byte, error) {
	if len(c.Name) > 255 {
		return nil, errors.Wrapf(ErrBadCommand, "zmtp: command name %q too long", c.Name)
	}
	var buf bytes.Buffer
	buf.WriteByte(byte(len(c.Name)))
	buf.WriteString(c.Name)
	for _, p := range c.Properties {
		if len(p.Name) > 255 {
			return nil, errors.Wrapf(ErrBadCommand, "zmtp: property name %q too long", p.Name)
		}
		buf.WriteByte(byte(len(p.Name)))
		buf.WriteString(p.Name)
		var lenBuf [4]byte
		binary.BigEndian.PutUint32(lenBuf[:], uint32(len(p.Value)))
		buf.Write(lenBuf[:])
		buf.Write(p.Value)
	}
	return buf.Bytes(), nil
}

// unmarshalCmd parses a COMMAND frame's payload into a Cmd. Unknown
// command names yield ErrBadCommand; malformed property lists
// (truncated length prefixes or short value data) likewise yield
// ErrBadCommand. Extra, unrecognised properties from a peer are parsed
// into Properties and simply ignored by the handshake logic that
// consults specific property names.
func unmarshalCmd(payload []byte) (Cmd, error) {
	r := bytes.NewReader(payload)

	nameLen, err := r.ReadByte()
	if err != nil {
		return Cmd{}, errors.Wrapf(ErrBadCommand, "zmtp: empty command payload")
	}
	nameBuf := make([]byte, nameLen)
	if _, err := io.ReadFull(r, nameBuf); err != nil {
		return Cmd{}, errors.Wrapf(ErrBadCommand, "zmtp: truncated command name")
	}
	name := string(nameBuf)
	if !knownCommands[name] {
		return Cmd{}, errors.Wrapf(ErrBadCommand, "zmtp: unknown command %q", name)
	}

	cmd := Cmd{Name: name}
	for {
		pNameLen, err := r.ReadByte()
		if err == io.EOF {
			break
		}
		if err != nil {
			return Cmd{}, errors.Wrapf(ErrBadCommand, "zmtp: truncated property")
		}
		pNameBuf := make([]byte, pNameLen)
		if _, err := io.ReadFull(r, pNameBuf); err != nil {
			return Cmd{}, errors.Wrapf(ErrBadCommand, "zmtp: truncated property name")
		}

		var vLenBuf [4]byte
		if _, err := io.ReadFull(r, vLenBuf[:]); err != nil {
			return Cmd{}, errors.Wrapf(ErrBadCommand, "zmtp: truncated property value length")
		}
		vLen := binary.BigEndian.Uint32(vLenBuf[:])
		value := make([]byte, vLen)
		if vLen > 0 {
			if _, err := io.ReadFull(r, value); err != nil {
				return Cmd{}, errors.Wrapf(ErrBadCommand, "zmtp: truncated property value")
			}
		}

		cmd.Properties = append(cmd.Properties, Property{Name: string(pNameBuf), Value: value})
	}

	return cmd, nil
}

// sendCmd frames and writes a command over w.
func sendCmd(w io.Writer, cmd Cmd) error {
	body, err := cmd.marshal()
	if err != nil {
		return err
	}
	_, err = w.Write(encodeCommand(body))
	return errors.Wrapf(err, "zmtp: could not send %s command", cmd.Name)
}

// recvCmd reads one frame from r and parses it as a command. It
// returns ErrBadFrame if the frame was not a command frame.
func recvCmd(r io.Reader) (Cmd, error) {
	payload, _, isCommand, err := parseFrame(r)
	if err != nil {
		return Cmd{}, err
	}
	if !isCommand {
		return Cmd{}, errors.Wrapf(ErrBadFrame, "zmtp: expected command frame, got message frame")
	}
	return unmarshalCmd(payload)
}

const (
	propSocketType = "Socket-Type"
	propIdentity   = "Identity"
)

// readyCmd builds the local READY command for the given socket type
// and optional identity. Socket-Type is always present and first;
// Identity, if non-empty, is added as a second, additive property that
// tolerant peers are required to ignore if they don't understand it.
func readyCmd(typ SocketType, id SocketIdentity) Cmd {
	props := []Property{{Name: propSocketType, Value: []byte(typ.String())}}
	if id != "" {
		props = append(props, Property{Name: propIdentity, Value: []byte(id)})
	}
	return Cmd{Name: CmdReady, Properties: props}
}
