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

import (
	"github/sabouaram/enet/protoconst"
)

// Send queues data for delivery to the peer on channelID, according to
// flags. Guarded at the boundary (§7): never mutates peer state on
// failure.
func (p *Peer) Send(channelID uint8, data []byte, flags PacketFlag) error {
	if !p.connected() {
		return ErrPeerNotConnected.Error(nil)
	}
	if p.channel(channelID) == nil {
		return ErrInvalidChannel.Error(nil)
	}
	if uint32(len(data)) > p.host.config.MaximumPacketSize {
		return ErrPacketTooLarge.Error(nil)
	}

	headerSize := 4 // SendReliable/Unreliable-ish common header
	fragmentPayload := int(p.mtu) - headerSize - protoconst.CommandSize[protoconst.CommandSendFragment]

	if flags&PacketFlagUnsequenced != 0 {
		return p.queueUnsequenced(channelID, data)
	}

	if flags&PacketFlagReliable == 0 && len(data) <= fragmentPayload+2 {
		return p.queueUnreliable(channelID, data)
	}

	if len(data) <= fragmentPayload {
		return p.queueReliable(channelID, data)
	}

	return p.queueFragmented(channelID, data, flags&PacketFlagReliable != 0, fragmentPayload)
}

func (p *Peer) nextOutgoingReliable(ch *Channel) uint16 {
	ch.outgoingReliableSequenceNumber++
	return ch.outgoingReliableSequenceNumber
}

func (p *Peer) queueReliable(channelID uint8, data []byte) error {
	ch := p.channel(channelID)
	pkt := NewPacket(data, PacketFlagReliable)
	seq := p.nextOutgoingReliable(ch)

	if ch.windowBlocked(seq) {
		p.flags |= PeerFlagContinueSending
	}

	oc := &OutgoingCommand{
		header: commandHeader{
			command:                protoconst.CommandSendReliable,
			channelID:              channelID,
			reliableSequenceNumber: seq,
		},
		fragmentLength: uint32(len(data)),
		packet:         pkt,
	}
	ch.incrWindow(seq)
	p.reliableDataInTransit += oc.fragmentLength
	p.outgoingSendReliableCommands.PushBack(oc)
	return nil
}

func (p *Peer) queueUnreliable(channelID uint8, data []byte) error {
	ch := p.channel(channelID)
	pkt := NewPacket(data, 0)
	ch.outgoingUnreliableSequenceNumber++

	oc := &OutgoingCommand{
		header: commandHeader{
			command:   protoconst.CommandSendUnreliable,
			channelID: channelID,
		},
		unreliableSequenceNumber: ch.outgoingUnreliableSequenceNumber,
		fragmentLength:           uint32(len(data)),
		packet:                   pkt,
	}
	p.outgoingCommands.PushBack(oc)
	return nil
}

func (p *Peer) queueUnsequenced(channelID uint8, data []byte) error {
	pkt := NewPacket(data, PacketFlagUnsequenced)
	p.outgoingUnsequencedGroup++

	oc := &OutgoingCommand{
		header: commandHeader{
			command:   protoconst.CommandSendUnsequenced | protoconst.CommandFlagUnsequenced,
			channelID: channelID,
		},
		unreliableSequenceNumber: p.outgoingUnsequencedGroup,
		fragmentLength:           uint32(len(data)),
		packet:                   pkt,
	}
	p.outgoingCommands.PushBack(oc)
	return nil
}

// queueFragmented splits data into MTU-sized fragments and queues one
// SEND_FRAGMENT (reliable) or SEND_UNRELIABLE_FRAGMENT command per slice,
// all sharing one Packet and one start sequence number (§4.2).
func (p *Peer) queueFragmented(channelID uint8, data []byte, reliable bool, fragmentPayload int) error {
	if fragmentPayload <= 0 {
		return ErrInvalidArgument.Error(nil)
	}
	count := (len(data) + fragmentPayload - 1) / fragmentPayload
	if count > protoconst.MaximumFragmentCount {
		return ErrPacketTooLarge.Error(nil)
	}

	ch := p.channel(channelID)
	var flags PacketFlag
	if reliable {
		flags = PacketFlagReliable
	} else {
		flags = PacketFlagUnreliableFragment
	}
	pkt := NewPacket(data, flags)

	var startSeq uint16
	code := uint8(protoconst.CommandSendUnreliableFragment)
	if reliable {
		startSeq = p.nextOutgoingReliable(ch)
		code = protoconst.CommandSendFragment
	} else {
		ch.outgoingUnreliableSequenceNumber++
		startSeq = ch.outgoingUnreliableSequenceNumber
	}

	for i := 0; i < count; i++ {
		if i > 0 {
			pkt.acquire()
		}
		offset := i * fragmentPayload
		length := fragmentPayload
		if offset+length > len(data) {
			length = len(data) - offset
		}

		oc := &OutgoingCommand{
			header: commandHeader{
				command:                code,
				channelID:              channelID,
				reliableSequenceNumber: startSeq,
			},
			fragmentOffset: uint32(offset),
			fragmentLength: uint32(length),
			startSeqNum:    startSeq,
			fragmentCount:  uint32(count),
			fragmentIndex:  uint32(i),
			totalLength:    uint32(len(data)),
			packet:         pkt,
		}

		if reliable {
			ch.incrWindow(startSeq)
			p.reliableDataInTransit += oc.fragmentLength
			p.outgoingSendReliableCommands.PushBack(oc)
		} else {
			p.outgoingCommands.PushBack(oc)
		}
	}

	return nil
}

func (h *Host) queueSystemCommand(p *Peer, code uint8, extra []byte) {
	oc := &OutgoingCommand{
		header: commandHeader{
			command:   code,
			channelID: protoconst.ChannelSystem,
		},
		commandExtra: extra,
	}
	if oc.isReliableCode() {
		p.outgoingReliableSequenceNumber++
		oc.header.reliableSequenceNumber = p.outgoingReliableSequenceNumber
		p.outgoingSendReliableCommands.PushBack(oc)
	} else {
		p.outgoingCommands.PushBack(oc)
	}
}

func (h *Host) queueConnect(p *Peer, channelCount uint8, data uint32) {
	extra := make([]byte, 44)
	putUint16(extra[0:], p.incomingPeerID)
	extra[2] = p.incomingSessionID
	extra[3] = p.outgoingSessionID
	putUint32(extra[4:], p.mtu)
	putUint32(extra[8:], p.windowSize)
	putUint32(extra[12:], uint32(channelCount))
	putUint32(extra[16:], h.config.IncomingBandwidth)
	putUint32(extra[20:], h.config.OutgoingBandwidth)
	putUint32(extra[24:], p.packetThrottleInterval)
	putUint32(extra[28:], p.packetThrottleAcceleration)
	putUint32(extra[32:], p.packetThrottleDeceleration)
	putUint32(extra[36:], p.connectID)
	putUint32(extra[40:], data)

	h.queueSystemCommand(p, protoconst.CommandConnect, extra)
}

func (h *Host) queueVerifyConnect(p *Peer) {
	extra := make([]byte, 40)
	putUint16(extra[0:], p.incomingPeerID)
	extra[2] = p.incomingSessionID
	extra[3] = p.outgoingSessionID
	putUint32(extra[4:], p.mtu)
	putUint32(extra[8:], p.windowSize)
	putUint32(extra[12:], uint32(len(p.channels)))
	putUint32(extra[16:], h.config.IncomingBandwidth)
	putUint32(extra[20:], h.config.OutgoingBandwidth)
	putUint32(extra[24:], p.packetThrottleInterval)
	putUint32(extra[28:], p.packetThrottleAcceleration)
	putUint32(extra[32:], p.packetThrottleDeceleration)
	putUint32(extra[36:], p.connectID)

	h.queueSystemCommand(p, protoconst.CommandVerifyConnect, extra)
}

func (h *Host) queueBandwidthLimit(p *Peer) {
	extra := make([]byte, 8)
	putUint32(extra[0:], h.config.IncomingBandwidth)
	putUint32(extra[4:], p.packetThrottleLimit*h.config.OutgoingBandwidth/protoconst.PeerPacketThrottleScale)
	h.queueSystemCommand(p, protoconst.CommandBandwidthLimit, extra)
}
