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
	"github/sabouaram/enet/xlog"
)

// handleConnect accepts a fresh CONNECT into a free slot (AcknowledgingConnect,
// §4.1). A CONNECT from an already-matched peer returns that peer unchanged;
// no VERIFY_CONNECT is resent for it.
func (h *Host) handleConnect(p *Peer, peerID uint16, addr Address, hdr commandHeader, payload []byte, serviceTime uint32) *Peer {
	if p != nil {
		return p
	}

	np := h.freeSlot()
	if np == nil {
		h.errs.Add(ErrResourceExhausted.Errorf("no free peer slot for connect from %s", addr))
		return nil
	}

	np.address = addr
	np.outgoingPeerID = getUint16(payload[0:])
	np.incomingSessionID = payload[2]
	np.outgoingSessionID = payload[3]
	np.mtu = clampMTU(getUint32(payload[4:]))
	np.windowSize = getUint32(payload[8:])
	channelCount := clampChannels(uint8(getUint32(payload[12:])))
	np.incomingBandwidth = getUint32(payload[16:])
	np.outgoingBandwidth = getUint32(payload[20:])
	np.packetThrottleInterval = getUint32(payload[24:])
	np.packetThrottleAcceleration = getUint32(payload[28:])
	np.packetThrottleDeceleration = getUint32(payload[32:])
	np.connectID = getUint32(payload[36:])
	data := getUint32(payload[40:])

	np.channels = make([]*Channel, channelCount)
	for i := range np.channels {
		np.channels[i] = newChannel()
	}
	np.eventData = data
	np.setState(PeerAcknowledgingConnect)

	h.queueVerifyConnect(np)

	return np
}

func (h *Host) handleVerifyConnect(p *Peer, hdr commandHeader, payload []byte, serviceTime uint32) {
	if p == nil || p.state != PeerConnecting {
		return
	}

	outgoingID := getUint16(payload[0:])
	channelCount := clampChannels(uint8(getUint32(payload[12:])))

	if int(outgoingID) >= len(h.peers) || int(channelCount) != len(p.channels) {
		h.disconnectDueToMismatch(p)
		return
	}

	p.outgoingPeerID = outgoingID
	p.outgoingSessionID = payload[3]
	p.mtu = clampMTU(getUint32(payload[4:]))
	if m := getUint32(payload[4:]); clampMTU(m) < p.mtu {
		p.mtu = clampMTU(m)
	}
	p.windowSize = getUint32(payload[8:])
	p.incomingBandwidth = getUint32(payload[16:])
	p.outgoingBandwidth = getUint32(payload[20:])

	p.setState(PeerConnectionSucceeded)
	p.markNeedsDispatch()
}

func (h *Host) disconnectDueToMismatch(p *Peer) {
	p.reset()
}

func (h *Host) handleDisconnect(p *Peer, hdr commandHeader, payload []byte) {
	if p == nil {
		return
	}
	data := getUint32(payload[0:])

	switch p.state {
	case PeerConnected, PeerDisconnectLater:
		h.markDisconnectedCounters(p)
		p.eventData = data
		if hdr.acknowledge() {
			p.setState(PeerAcknowledgingDisconnect)
		} else {
			p.setState(PeerZombie)
			p.markNeedsDispatch()
		}
	case PeerDisconnected, PeerZombie:
		// already gone
	default:
		p.reset()
	}
}

func (h *Host) handleAcknowledge(p *Peer, payload []byte, serviceTime uint32) {
	if p == nil {
		return
	}
	recvSeq := getUint16(payload[0:])
	recvSentTime := uint32(getUint16(payload[2:]))

	items := p.sentReliableCommands.All()
	for i, oc := range items {
		if oc.header.reliableSequenceNumber != recvSeq {
			continue
		}
		p.onAcknowledge(recvSentTime, serviceTime)
		if oc.packet != nil {
			p.reliableDataInTransit -= oc.fragmentLength
		}
		ch := p.channel(oc.header.channelID)
		if ch != nil {
			ch.decrWindow(oc.header.reliableSequenceNumber)
		}
		oc.release()
		p.sentReliableCommands.RemoveAt(i)
		break
	}

	if p.state == PeerAcknowledgingConnect {
		p.setState(PeerConnectionPending)
		p.markNeedsDispatch()
	} else if p.state == PeerDisconnecting && p.sentReliableCommands.Empty() && p.outgoingSendReliableCommands.Empty() {
		p.setState(PeerZombie)
		p.markNeedsDispatch()
	}
}

func (h *Host) markIncomingBudget(p *Peer, length int) bool {
	if p.totalWaitingData+uint32(length) > h.config.MaximumWaitingData {
		return false
	}
	p.totalWaitingData += uint32(length)
	return true
}

func (h *Host) handleSendReliable(p *Peer, hdr commandHeader, payload []byte, rest []byte) []byte {
	if p == nil {
		return rest
	}
	length := dataLength(payload, 0)
	if len(rest) < length {
		h.errs.Add(ErrProtocolViolation.Errorf("truncated reliable payload"))
		h.logDrop("dropped datagram: truncated reliable payload", xlog.PeerFields(p.incomingPeerID, hdr.channelID, hdr.command))
		return nil
	}
	data := rest[:length]
	rest = rest[length:]

	ch := p.channel(hdr.channelID)
	if ch == nil {
		return rest
	}
	if !seq16Greater(hdr.reliableSequenceNumber, ch.incomingReliableSequenceNumber) {
		return rest // duplicate / already dispatched
	}
	if !h.markIncomingBudget(p, length) {
		return rest
	}

	ic := &IncomingCommand{header: hdr, packet: NewPacket(data, PacketFlagReliable)}
	insertIncomingReliable(ch, ic)
	p.markNeedsDispatch()
	return rest
}

func (h *Host) handleSendUnreliable(p *Peer, hdr commandHeader, payload []byte, rest []byte) []byte {
	if p == nil {
		return rest
	}
	unreliableSeq := getUint16(payload[0:])
	length := dataLength(payload, 2)
	if len(rest) < length {
		h.errs.Add(ErrProtocolViolation.Errorf("truncated unreliable payload"))
		h.logDrop("dropped datagram: truncated unreliable payload", xlog.PeerFields(p.incomingPeerID, hdr.channelID, hdr.command))
		return nil
	}
	data := rest[:length]
	rest = rest[length:]

	ch := p.channel(hdr.channelID)
	if ch == nil {
		return rest
	}
	if !seq16Greater(hdr.reliableSequenceNumber, ch.incomingReliableSequenceNumber) &&
		hdr.reliableSequenceNumber != ch.incomingReliableSequenceNumber {
		return rest
	}
	if hdr.reliableSequenceNumber == ch.incomingReliableSequenceNumber &&
		!seq16Greater(unreliableSeq, ch.incomingUnreliableSequenceNumber) {
		return rest
	}
	if !h.markIncomingBudget(p, length) {
		return rest
	}

	ic := &IncomingCommand{header: hdr, unreliableSequenceNumber: unreliableSeq, packet: NewPacket(data, 0)}
	ch.incomingUnreliableCommands.PushBack(ic)
	p.markNeedsDispatch()
	return rest
}

func (h *Host) handleSendUnsequenced(p *Peer, hdr commandHeader, payload []byte, rest []byte) []byte {
	if p == nil {
		return rest
	}
	group := getUint16(payload[0:])
	length := dataLength(payload, 2)
	if len(rest) < length {
		h.errs.Add(ErrProtocolViolation.Errorf("truncated unsequenced payload"))
		h.logDrop("dropped datagram: truncated unsequenced payload", xlog.PeerFields(p.incomingPeerID, hdr.channelID, hdr.command))
		return nil
	}
	data := rest[:length]
	rest = rest[length:]

	if !h.unsequencedFresh(p, group) {
		return rest
	}
	if !h.markIncomingBudget(p, length) {
		return rest
	}

	ic := &IncomingCommand{header: hdr, packet: NewPacket(data, PacketFlagUnsequenced)}
	p.dispatchedCommands.PushBack(ic)
	p.markNeedsDispatch()
	return rest
}

// unsequencedFresh applies the 1024-bit window + group-distance discard
// rule (§4.2): too-far-ahead groups are dropped, duplicates within the
// window are dropped, and the window slides forward on acceptance.
func (h *Host) unsequencedFresh(p *Peer, group uint16) bool {
	dist := seq16Diff(group, p.incomingUnsequencedGroup)
	if dist < 0 {
		return false
	}
	if int(dist) >= protoconst.FreeUnsequencedWindows*protoconst.UnsequencedWindowSize {
		return false
	}

	if dist >= protoconst.UnsequencedWindowSize {
		shift := uint(dist) - protoconst.UnsequencedWindowSize + 1
		for i := uint(0); i < shift && i < protoconst.UnsequencedWindowSize; i++ {
			p.unsequencedWindow.Clear(uint((uint(p.incomingUnsequencedGroup) + i) % protoconst.UnsequencedWindowSize))
		}
		p.incomingUnsequencedGroup += uint16(shift)
	}

	bit := uint(group) % protoconst.UnsequencedWindowSize
	if p.unsequencedWindow.Test(bit) {
		return false
	}
	p.unsequencedWindow.Set(bit)
	return true
}

func (h *Host) handleSendFragment(p *Peer, hdr commandHeader, payload []byte, rest []byte, reliable bool) []byte {
	if p == nil {
		return rest
	}
	startSeq := getUint16(payload[0:])
	length := dataLength(payload, 2)
	fragCount := getUint32(payload[4:])
	fragIndex := getUint32(payload[8:])
	totalLength := getUint32(payload[12:])
	fragOffset := getUint32(payload[16:])

	if len(rest) < length || fragCount == 0 || fragCount > protoconst.MaximumFragmentCount ||
		fragIndex >= fragCount || fragOffset+uint32(length) > totalLength {
		h.errs.Add(ErrProtocolViolation.Errorf("inconsistent fragment metadata"))
		h.logDrop("dropped datagram: inconsistent fragment metadata", xlog.PeerFields(p.incomingPeerID, hdr.channelID, hdr.command))
		return nil
	}
	data := rest[:length]
	rest = rest[length:]

	ch := p.channel(hdr.channelID)
	if ch == nil {
		return rest
	}

	if reliable {
		if !seq16Greater(hdr.reliableSequenceNumber, ch.incomingReliableSequenceNumber) {
			return rest
		}
		if !h.markIncomingBudget(p, length) {
			return rest
		}
		ic := findOrCreateFragment(ch.incomingReliableCommands, hdr, startSeq, fragCount, totalLength)
		applyFragment(ic, fragIndex, fragOffset, data)
		if ic.fragmentsRemaining == 0 {
			p.markNeedsDispatch()
		}
	} else {
		if !h.markIncomingBudget(p, length) {
			return rest
		}
		ic := findOrCreateFragment(ch.incomingUnreliableCommands, hdr, startSeq, fragCount, totalLength)
		applyFragment(ic, fragIndex, fragOffset, data)
		if ic.fragmentsRemaining == 0 {
			p.markNeedsDispatch()
		}
	}

	return rest
}

func findOrCreateFragment(q *cmdQueue[*IncomingCommand], hdr commandHeader, startSeq uint16, fragCount, totalLength uint32) *IncomingCommand {
	for _, ic := range q.All() {
		if ic.header.reliableSequenceNumber == hdr.reliableSequenceNumber && ic.fragmentCount == fragCount {
			return ic
		}
	}
	ic := &IncomingCommand{
		header:             hdr,
		fragmentCount:      fragCount,
		fragmentsRemaining: fragCount,
		fragmentsBitset:    make([]uint32, (fragCount+31)/32),
		totalLength:        totalLength,
		packet:             NewPacket(make([]byte, totalLength), PacketFlagUnreliableFragment),
	}
	q.PushBack(ic)
	return ic
}

func applyFragment(ic *IncomingCommand, index, offset uint32, data []byte) {
	if ic.fragmentBit(index) {
		return
	}
	ic.setFragmentBit(index)
	copy(ic.packet.Data()[offset:], data)
	if ic.fragmentsRemaining > 0 {
		ic.fragmentsRemaining--
	}
}

func (h *Host) handleBandwidthLimit(p *Peer, payload []byte) {
	if p == nil {
		return
	}
	p.incomingBandwidth = getUint32(payload[0:])
	p.outgoingBandwidth = getUint32(payload[4:])
}

func (h *Host) handleThrottleConfigure(p *Peer, payload []byte) {
	if p == nil {
		return
	}
	p.packetThrottleInterval = getUint32(payload[0:])
	p.packetThrottleAcceleration = getUint32(payload[4:])
	p.packetThrottleDeceleration = getUint32(payload[8:])
}

func (p *Peer) markNeedsDispatch() {
	p.flags |= PeerFlagNeedsDispatch
}

// insertIncomingReliable keeps the reliable queue ordered by sequence
// number, inserting at the position that preserves ascending order.
func insertIncomingReliable(ch *Channel, ic *IncomingCommand) {
	items := ch.incomingReliableCommands.All()
	idx := len(items)
	for i, other := range items {
		if other.header.reliableSequenceNumber == ic.header.reliableSequenceNumber {
			return // duplicate retransmission, already queued
		}
		if seq16Less(ic.header.reliableSequenceNumber, other.header.reliableSequenceNumber) {
			idx = i
			break
		}
	}
	if idx == len(items) {
		ch.incomingReliableCommands.PushBack(ic)
		return
	}
	items = append(items, nil)
	copy(items[idx+1:], items[idx:])
	items[idx] = ic
	*ch.incomingReliableCommands = cmdQueue[*IncomingCommand]{items: items}
}
