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

import "sync/atomic"

// PacketFlag marks delivery semantics and lifecycle state of a Packet.
type PacketFlag uint32

const (
	// PacketFlagReliable requests in-order, retransmitted delivery.
	PacketFlagReliable PacketFlag = 1 << iota
	// PacketFlagUnsequenced requests delivery outside channel ordering,
	// with duplicate suppression via the unsequenced window.
	PacketFlagUnsequenced
	// PacketFlagUnreliableFragment marks a packet staged for fragmented
	// unreliable-sequenced delivery.
	PacketFlagUnreliableFragment
	// PacketFlagSent is set once the packet's data has been handed to the
	// substrate at least once.
	PacketFlagSent
)

// Packet is a reference-counted, immutable payload buffer. The same Packet
// may be shared by the caller's handle, pending outgoing commands, and an
// incoming reassembly slot; its buffer is released when the last reference
// is dropped.
type Packet struct {
	data  []byte
	flags PacketFlag
	refs  int32
}

// NewPacket copies data into a new Packet with an initial reference count
// of one and the given flags.
func NewPacket(data []byte, flags PacketFlag) *Packet {
	buf := make([]byte, len(data))
	copy(buf, data)
	return &Packet{data: buf, flags: flags, refs: 1}
}

// Data returns the packet's payload. The caller must not mutate it.
func (p *Packet) Data() []byte { return p.data }

// Len returns the payload length in bytes.
func (p *Packet) Len() int { return len(p.data) }

// Flags returns the packet's delivery flags.
func (p *Packet) Flags() PacketFlag { return p.flags }

// acquire increments the reference count; called whenever a new command or
// reassembly slot begins referencing the packet.
func (p *Packet) acquire() {
	atomic.AddInt32(&p.refs, 1)
}

// release decrements the reference count and reports whether the packet
// reached zero references (and should be discarded by the caller).
func (p *Packet) release() bool {
	return atomic.AddInt32(&p.refs, -1) <= 0
}

// markSent sets PacketFlagSent; idempotent.
func (p *Packet) markSent() {
	p.flags |= PacketFlagSent
}
