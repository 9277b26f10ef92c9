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

// commandHeader is the 4-byte header common to every protocol command.
type commandHeader struct {
	command               uint8 // low 4 bits = code, bit6 unsequenced, bit7 ack
	channelID              uint8
	reliableSequenceNumber uint16
}

func (h commandHeader) code() uint8 {
	return h.command & 0x0F
}

func (h commandHeader) acknowledge() bool {
	return h.command&0x80 != 0
}

func (h commandHeader) unsequenced() bool {
	return h.command&0x40 != 0
}

// OutgoingCommand is a queued or in-flight command awaiting transmission or
// acknowledgement.
type OutgoingCommand struct {
	header commandHeader

	unreliableSequenceNumber uint16

	fragmentOffset uint32
	fragmentLength uint32
	startSeqNum    uint16 // SEND_FRAGMENT's start_sequence_number
	fragmentCount  uint32
	fragmentIndex  uint32
	totalLength    uint32

	sendAttempts     uint16
	sentTime         uint32
	roundTripTimeout uint32
	queueTime        uint64

	// commandExtra holds the fixed, type-specific fields for non-payload
	// commands (CONNECT, VERIFY_CONNECT, DISCONNECT, PING,
	// BANDWIDTH_LIMIT, THROTTLE_CONFIGURE) encoded ahead of time.
	commandExtra []byte

	packet *Packet // nil for commands without a payload
}

func (c *OutgoingCommand) payload() []byte {
	if c.packet == nil {
		return nil
	}
	lo := c.fragmentOffset
	hi := lo + c.fragmentLength
	if hi > uint32(c.packet.Len()) {
		hi = uint32(c.packet.Len())
	}
	return c.packet.Data()[lo:hi]
}

func (c *OutgoingCommand) release() {
	if c.packet != nil && c.packet.release() {
		c.packet = nil
	}
}

// reliable reports whether this command occupies a reliable sequence slot
// and therefore participates in window accounting and retransmission.
func (c *OutgoingCommand) reliable() bool {
	switch c.header.code() {
	case 0: // CommandNone, never reliable
		return false
	default:
		return c.isReliableCode()
	}
}

func (c *OutgoingCommand) isReliableCode() bool {
	switch c.header.code() {
	case 6, 8: // SendReliable, SendFragment
		return true
	case 2, 3, 4: // Connect, VerifyConnect, Disconnect are carried reliably
		return true
	default:
		return false
	}
}

// IncomingCommand is a received command staged for ordered dispatch or
// fragment reassembly.
type IncomingCommand struct {
	header commandHeader

	unreliableSequenceNumber uint16

	fragmentCount      uint32
	fragmentsRemaining uint32
	fragmentsBitset     []uint32 // one bit per fragment index
	totalLength         uint32
	fragmentOffset      uint32

	packet *Packet
}

func (c *IncomingCommand) fragmentBit(idx uint32) bool {
	w := idx / 32
	if int(w) >= len(c.fragmentsBitset) {
		return false
	}
	return c.fragmentsBitset[w]&(1<<(idx%32)) != 0
}

func (c *IncomingCommand) setFragmentBit(idx uint32) {
	w := idx / 32
	if int(w) >= len(c.fragmentsBitset) {
		return
	}
	c.fragmentsBitset[w] |= 1 << (idx % 32)
}

// Acknowledgement records an incoming command header pending an outbound
// ACKNOWLEDGE, plus the wire-observed send time, which the ACK echoes back
// so the remote side can compute its RTT sample when the ACK arrives.
type Acknowledgement struct {
	header     commandHeader
	sentTime   uint32
}
