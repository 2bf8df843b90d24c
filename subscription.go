// Copyright 2018 The go-zeromq Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package zmtp

import (
	"strings"
	"time"

	"github.com/pkg/errors"
)

// harvestGraceDelay is the pause after accepting a new PUB-side
// Connection before the first harvest pass, giving a same-host SUB
// time to deliver its initial SUBSCRIBE frame.
const harvestGraceDelay = 20 * time.Millisecond

func harvestGracePeriod() {
	time.Sleep(harvestGraceDelay)
}

const (
	subMarker    byte = 0x01
	cancelMarker byte = 0x00
)

// addSubscription records topic as a prefix this Connection's peer
// wants to receive. An empty topic sets match_all instead of growing
// the topic set. Duplicate topics are idempotent.
func (c *Conn) addSubscription(topic []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(topic) == 0 {
		c.matchAll = true
		return
	}
	c.subs[string(topic)] = struct{}{}
}

// removeSubscription undoes addSubscription. An empty topic clears
// match_all; otherwise the first equal entry, if any, is removed.
func (c *Conn) removeSubscription(topic []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(topic) == 0 {
		c.matchAll = false
		return
	}
	delete(c.subs, string(topic))
}

// matches reports whether data should be delivered to this Connection:
// true if match_all is set, or if any registered topic is a prefix of
// data.
func (c *Conn) matches(data []byte) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.matchAll {
		return true
	}
	s := string(data)
	for topic := range c.subs {
		if strings.HasPrefix(s, topic) {
			return true
		}
	}
	return false
}

// harvest drains whatever subscription control messages are
// immediately available on the Connection's stream without blocking.
// It is invoked just before any PUB fan-out and once right after
// accepting a new Connection. A would-block condition ends the loop
// successfully; a fatal stream error is returned so the caller can
// remove and close the dead Connection.
func (c *Conn) harvest() error {
	for {
		payload, _, isCommand, err := c.nonblockingParseFrame()
		if err != nil {
			if errors.Is(err, ErrWouldBlock) {
				return nil
			}
			return err
		}
		if isCommand || len(payload) < 1 {
			continue
		}

		switch payload[0] {
		case subMarker:
			c.addSubscription(payload[1:])
		case cancelMarker:
			c.removeSubscription(payload[1:])
		default:
			// unrecognised first byte: silently ignored, per spec.
		}
	}
}
