/*
 * MIT License
 *
 * Copyright (c) 2025 Nicolas JUHEL
 *
 * Permission is hereby granted, free of charge, to any person obtaining a copy
 * of this software and associated documentation files (the "Software"), to deal
 * in the Software without restriction, including without limitation the rights
 * to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
 * copies of the Software, and to permit persons to whom the Software is
 * furnished to do so, subject to the following conditions:
 *
 * The above copyright notice and this permission notice shall be included in all
 * copies or substantial portions of the Software.
 *
 * THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
 * IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
 * FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
 * AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
 * LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
 * OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
 * SOFTWARE.
 *
 */

package enet

import "github/sabouaram/enet/protoconst"

// Channel is one of a peer's independent ordered sub-streams. Channel
// indices 0..channelCount-1 carry user traffic; channel id 0xFF (outside
// this array) is reserved for system commands and tracked on the peer
// directly.
type Channel struct {
	outgoingReliableSequenceNumber   uint16
	outgoingUnreliableSequenceNumber uint16
	incomingReliableSequenceNumber   uint16
	incomingUnreliableSequenceNumber uint16

	// reliableWindows[w] counts outstanding reliable commands whose
	// reliable sequence number falls in window w = seq / ReliableWindowSize.
	reliableWindows [protoconst.ReliableWindows]uint16
	// usedReliableWindows has bit w set iff reliableWindows[w] > 0.
	usedReliableWindows uint16

	incomingReliableCommands   *cmdQueue[*IncomingCommand]
	incomingUnreliableCommands *cmdQueue[*IncomingCommand]
}

func newChannel() *Channel {
	return &Channel{
		incomingReliableCommands:   newCmdQueue[*IncomingCommand](),
		incomingUnreliableCommands: newCmdQueue[*IncomingCommand](),
	}
}

func (c *Channel) windowOf(seq uint16) uint16 {
	return seq / protoconst.ReliableWindowSize
}

// incrWindow bumps the count for the window containing seq and keeps the
// used-window mask in sync; the invariant "bit w set iff count[w] > 0"
// (§8) is restored immediately.
func (c *Channel) incrWindow(seq uint16) {
	w := c.windowOf(seq)
	c.reliableWindows[w]++
	c.usedReliableWindows |= 1 << w
}

func (c *Channel) decrWindow(seq uint16) {
	w := c.windowOf(seq)
	if c.reliableWindows[w] > 0 {
		c.reliableWindows[w]--
	}
	if c.reliableWindows[w] == 0 {
		c.usedReliableWindows &^= 1 << w
	}
}

// windowBlocked reports whether a new reliable command in window w may not
// yet be sent: either the previous window is saturated, or the span of
// windows from w-1 through w+FreeReliableWindows+1 already intersects the
// used-window mask (§4.2).
func (c *Channel) windowBlocked(seq uint16) bool {
	w := c.windowOf(seq)
	prev := (w + protoconst.ReliableWindows - 1) % protoconst.ReliableWindows
	if c.reliableWindows[prev] >= protoconst.ReliableWindowSize {
		return true
	}
	for i := 0; i < protoconst.FreeReliableWindows+3; i++ {
		probe := (prev + uint16(i)) % protoconst.ReliableWindows
		if c.usedReliableWindows&(1<<probe) != 0 && probe != w {
			return true
		}
	}
	return false
}

func (c *Channel) reset() {
	c.outgoingReliableSequenceNumber = 0
	c.outgoingUnreliableSequenceNumber = 0
	c.incomingReliableSequenceNumber = 0
	c.incomingUnreliableSequenceNumber = 0
	for i := range c.reliableWindows {
		c.reliableWindows[i] = 0
	}
	c.usedReliableWindows = 0
	c.incomingReliableCommands.Clear()
	c.incomingUnreliableCommands.Clear()
}
