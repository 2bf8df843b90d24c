// Copyright 2018 The go-zeromq Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package zmtp

import (
	"net"
	"testing"

	"github.com/stretchr/testify/require"
)

func newTestConn(t *testing.T) *Conn {
	t.Helper()
	c1, c2 := net.Pipe()
	t.Cleanup(func() { c1.Close(); c2.Close() })
	return newConn(c1, 0, PUB, "", true, nil)
}

func TestSubscriptionPrefixMatch(t *testing.T) {
	conn := newTestConn(t)

	conn.addSubscription([]byte("weather"))
	require.True(t, conn.matches([]byte("weather: 25C")))
	require.False(t, conn.matches([]byte("news: x")))
}

func TestSubscriptionMatchAll(t *testing.T) {
	conn := newTestConn(t)

	conn.addSubscription(nil)
	require.True(t, conn.matches([]byte("anything")))

	conn.removeSubscription(nil)
	require.False(t, conn.matches([]byte("anything")))
}

func TestSubscriptionDuplicateIsIdempotent(t *testing.T) {
	conn := newTestConn(t)

	conn.addSubscription([]byte("weather"))
	conn.addSubscription([]byte("weather"))
	require.Len(t, conn.subs, 1)
}

func TestSubscriptionRemoveUnknownIsNoop(t *testing.T) {
	conn := newTestConn(t)
	conn.removeSubscription([]byte("weather"))
	require.Len(t, conn.subs, 0)
}
