// Copyright 2018 The go-zeromq Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package zmtp

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func bindEphemeral(t *testing.T, s *Socket) string {
	t.Helper()
	require.NoError(t, s.Bind("tcp://127.0.0.1:0"))
	return fmt.Sprintf("tcp://%s", s.Addr().String())
}

func TestInvalidEndpointRejected(t *testing.T) {
	ctx := NewContext()
	req := ctx.NewReq()

	require.ErrorIs(t, req.Connect("udp://localhost:5555"), ErrInvalidEndpoint)
	require.ErrorIs(t, req.Connect("tcp://localhost"), ErrInvalidEndpoint)
}

func TestConnectRejectsStarHost(t *testing.T) {
	ctx := NewContext()
	req := ctx.NewReq()
	require.ErrorIs(t, req.Connect("tcp://*:5555"), ErrInvalidEndpoint)
}

// TestReqRepEndToEnd exercises P9: REP bound, REQ connects, sends
// "Hello ZeroMQ"; REP receives it and replies; REQ receives the reply.
func TestReqRepEndToEnd(t *testing.T) {
	ctx := NewContext()
	defer ctx.Close()

	rep := ctx.NewRep()
	addr := bindEphemeral(t, rep.Socket)

	acceptErr := make(chan error, 1)
	go func() {
		_, err := rep.Accept()
		acceptErr <- err
	}()

	req := ctx.NewReq()
	require.NoError(t, req.Connect(addr))
	require.NoError(t, <-acceptErr)

	require.NoError(t, req.Send([]byte("Hello ZeroMQ"), 0))

	buf := make([]byte, 256)
	n, err := rep.Recv(buf)
	require.NoError(t, err)
	require.Equal(t, "Hello ZeroMQ", string(buf[:n]))

	reply := "Reply to: " + string(buf[:n])
	require.NoError(t, rep.Send([]byte(reply), 0))

	n, err = req.Recv(buf)
	require.NoError(t, err)
	require.Equal(t, reply, string(buf[:n]))
}

// TestReqSendWireShape exercises P5: a single Send("Hello") produces,
// in order, an empty MORE frame then a data frame with MORE clear.
func TestReqSendWireShape(t *testing.T) {
	ctx := NewContext()
	defer ctx.Close()

	rep := ctx.NewRep()
	addr := bindEphemeral(t, rep.Socket)

	acceptDone := make(chan *Conn, 1)
	go func() {
		c, _ := rep.Accept()
		acceptDone <- c
	}()

	req := ctx.NewReq()
	require.NoError(t, req.Connect(addr))
	serverConn := <-acceptDone
	require.NotNil(t, serverConn)

	require.NoError(t, req.Send([]byte("Hello"), 0))

	p1, more1, cmd1, err := parseFrame(serverConn.rw)
	require.NoError(t, err)
	require.Empty(t, p1)
	require.True(t, more1)
	require.False(t, cmd1)

	p2, more2, cmd2, err := parseFrame(serverConn.rw)
	require.NoError(t, err)
	require.Equal(t, "Hello", string(p2))
	require.False(t, more2)
	require.False(t, cmd2)
}

// TestRepRecvConcatenation exercises P6: frames 0x01 "", 0x01 "foo",
// 0x00 "bar" concatenate to "foobar".
func TestRepRecvConcatenation(t *testing.T) {
	ctx := NewContext()
	defer ctx.Close()

	rep := ctx.NewRep()
	addr := bindEphemeral(t, rep.Socket)

	acceptDone := make(chan *Conn, 1)
	go func() {
		c, _ := rep.Accept()
		acceptDone <- c
	}()

	req := ctx.NewReq()
	require.NoError(t, req.Connect(addr))
	<-acceptDone

	reqConn, err := req.soleConn()
	require.NoError(t, err)

	require.NoError(t, reqConn.sendFrame(nil, true))
	require.NoError(t, reqConn.sendFrame([]byte("foo"), true))
	require.NoError(t, reqConn.sendFrame([]byte("bar"), false))

	buf := make([]byte, 64)
	n, err := rep.Recv(buf)
	require.NoError(t, err)
	require.Equal(t, "foobar", string(buf[:n]))
}

// TestPubSubEndToEnd exercises P10: PUB bound, SUB connects and
// subscribes to "weather"; matching messages are delivered, others are
// not.
func TestPubSubEndToEnd(t *testing.T) {
	ctx := NewContext()
	defer ctx.Close()

	pub := ctx.NewPub()
	addr := bindEphemeral(t, pub.Socket)

	acceptErr := make(chan error, 1)
	go func() {
		_, err := pub.Accept()
		acceptErr <- err
	}()

	sub := ctx.NewSub()
	require.NoError(t, sub.Connect(addr))
	require.NoError(t, <-acceptErr)

	require.NoError(t, sub.Subscribe("weather"))
	time.Sleep(50 * time.Millisecond)

	require.NoError(t, pub.Send([]byte("weather T=25"), 0))

	buf := make([]byte, 64)
	n, err := sub.Recv(buf)
	require.NoError(t, err)
	require.Equal(t, "weather T=25", string(buf[:n]))
}

// TestPubFiltering exercises P7: three subscribers (A: "weather", B:
// "news", C: match-all); send("weather: 25C") reaches A and C only.
func TestPubFiltering(t *testing.T) {
	ctx := NewContext()
	defer ctx.Close()

	pub := ctx.NewPub()
	addr := bindEphemeral(t, pub.Socket)

	accept3 := make(chan error, 3)
	go func() {
		for i := 0; i < 3; i++ {
			_, err := pub.Accept()
			accept3 <- err
		}
	}()

	subA := ctx.NewSub()
	require.NoError(t, subA.Connect(addr))
	require.NoError(t, <-accept3)
	require.NoError(t, subA.Subscribe("weather"))

	subB := ctx.NewSub()
	require.NoError(t, subB.Connect(addr))
	require.NoError(t, <-accept3)
	require.NoError(t, subB.Subscribe("news"))

	subC := ctx.NewSub()
	require.NoError(t, subC.Connect(addr))
	require.NoError(t, <-accept3)
	require.NoError(t, subC.Subscribe(""))

	time.Sleep(80 * time.Millisecond)

	require.NoError(t, pub.Send([]byte("weather: 25C"), 0))

	buf := make([]byte, 64)

	n, err := subA.Recv(buf)
	require.NoError(t, err)
	require.Equal(t, "weather: 25C", string(buf[:n]))

	n, err = subC.Recv(buf)
	require.NoError(t, err)
	require.Equal(t, "weather: 25C", string(buf[:n]))

	subBConn, err := subB.soleConn()
	require.NoError(t, err)
	require.NoError(t, subBConn.rw.SetReadDeadline(time.Now().Add(200*time.Millisecond)))
	_, err = subB.Recv(buf)
	require.Error(t, err)
}

// TestMultiSubscriberOrdering exercises P11: three SUBs subscribed to
// everything each receive "m1" then "m2" in order.
func TestMultiSubscriberOrdering(t *testing.T) {
	ctx := NewContext()
	defer ctx.Close()

	pub := ctx.NewPub()
	addr := bindEphemeral(t, pub.Socket)

	accept3 := make(chan error, 3)
	go func() {
		for i := 0; i < 3; i++ {
			_, err := pub.Accept()
			accept3 <- err
		}
	}()

	subs := make([]*SubSocket, 3)
	for i := range subs {
		subs[i] = ctx.NewSub()
		require.NoError(t, subs[i].Connect(addr))
		require.NoError(t, <-accept3)
		require.NoError(t, subs[i].Subscribe(""))
	}

	time.Sleep(80 * time.Millisecond)

	require.NoError(t, pub.Send([]byte("m1"), 0))
	require.NoError(t, pub.Send([]byte("m2"), 0))

	buf := make([]byte, 64)
	for _, s := range subs {
		n, err := s.Recv(buf)
		require.NoError(t, err)
		require.Equal(t, "m1", string(buf[:n]))

		n, err = s.Recv(buf)
		require.NoError(t, err)
		require.Equal(t, "m2", string(buf[:n]))
	}
}

// TestGreetingDecodesPaddedNullAndPlainMechanism covers the greeting
// part of P8: a lower-case, zero-padded "null" mechanism decodes as
// NULL, and a PLAIN mechanism decodes as PLAIN, not NULL.
func TestGreetingDecodesPaddedNullAndPlainMechanism(t *testing.T) {
	buf := encodeGreeting(greeting{Version: defaultVersion, Mechanism: "null\x00\x00", AsServer: false})
	g, err := decodeGreeting(buf)
	require.NoError(t, err)
	require.Equal(t, NullSecurity, g.Mechanism)

	buf = encodeGreeting(greeting{Version: defaultVersion, Mechanism: PlainSecurity, AsServer: false})
	g, err = decodeGreeting(buf)
	require.NoError(t, err)
	require.Equal(t, PlainSecurity, g.Mechanism)
	require.NotEqual(t, NullSecurity, g.Mechanism)
}
