// Copyright 2018 The go-zeromq Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package zmtp

import (
	"bytes"
	"strconv"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFrameRoundTrip(t *testing.T) {
	lengths := []int{0, 1, 255, 256, 65535, 65536}
	for _, n := range lengths {
		for _, more := range []bool{false, true} {
			t.Run(nameFor(n, more), func(t *testing.T) {
				payload := bytes.Repeat([]byte{0x5a}, n)

				encoded := encodeMessage(payload, more)
				r := bytes.NewReader(encoded)

				gotPayload, gotMore, gotCmd, err := parseFrame(r)
				require.NoError(t, err)
				require.Equal(t, payload, gotPayload)
				require.Equal(t, more, gotMore)
				require.False(t, gotCmd)
			})
		}
	}
}

func nameFor(n int, more bool) string {
	if more {
		return "len" + strconv.Itoa(n) + "/more"
	}
	return "len" + strconv.Itoa(n) + "/last"
}

func TestFrameFlagByte(t *testing.T) {
	short := []byte("hi")
	long := bytes.Repeat([]byte{0x01}, 256)

	require.Equal(t, byte(0x00), encodeMessage(short, false)[0])
	require.Equal(t, byte(0x01), encodeMessage(short, true)[0])
	require.Equal(t, byte(0x02), encodeMessage(long, false)[0])
	require.Equal(t, byte(0x03), encodeMessage(long, true)[0])
	require.Equal(t, byte(0x04), encodeCommand(short)[0])
	require.Equal(t, byte(0x06), encodeCommand(long)[0])
}

func TestFrameBadFlag(t *testing.T) {
	r := bytes.NewReader([]byte{0xff, 0x00})
	_, _, _, err := parseFrame(r)
	require.Error(t, err)
}

func TestFrameShortRead(t *testing.T) {
	r := bytes.NewReader([]byte{0x00, 0x05, 'h', 'i'})
	_, _, _, err := parseFrame(r)
	require.Error(t, err)
}
