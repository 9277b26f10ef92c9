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
	"sort"

	"github/sabouaram/enet/protoconst"

	"github.com/sirupsen/logrus"
)

// dispatchOne surfaces at most one pending event: state-machine transitions
// (Connect/Disconnect) take priority over queued Receive events, mirroring
// the reference implementation's dispatch ordering (§4.3, §4.7).
func (h *Host) dispatchOne() (Event, bool) {
	for _, p := range h.peers {
		switch p.state {
		case PeerConnectionSucceeded, PeerConnectionPending:
			p.setState(PeerConnected)
			h.markConnectedCounters(p)
			return Event{Type: EventConnect, Peer: p, Data: p.eventData}, true
		case PeerZombie:
			data := p.eventData
			p.reset()
			return Event{Type: EventDisconnect, Peer: p, Data: data}, true
		}
	}

	for _, p := range h.peers {
		if p.flags&PeerFlagNeedsDispatch == 0 {
			continue
		}
		h.advanceDispatch(p)
		if ic, ok := p.dispatchedCommands.PopFront(); ok {
			if p.dispatchedCommands.Empty() {
				p.flags &^= PeerFlagNeedsDispatch
			}
			return Event{Type: EventReceive, Peer: p, ChannelID: ic.header.channelID, Packet: ic.packet}, true
		}
		p.flags &^= PeerFlagNeedsDispatch
	}

	return Event{}, false
}

// advanceDispatch moves every channel's ready commands into the peer's flat
// dispatch queue: a contiguous run of reassembled reliable commands starting
// right after incomingReliableSequenceNumber, and any reassembled unreliable
// commands newer than incomingUnreliableSequenceNumber (stale or duplicate
// ones are dropped, §4.2/§4.3).
func (h *Host) advanceDispatch(p *Peer) {
	for _, ch := range p.channels {
		for {
			items := ch.incomingReliableCommands.All()
			if len(items) == 0 {
				break
			}
			ic := items[0]
			if ic.fragmentCount > 0 && ic.fragmentsRemaining > 0 {
				break
			}
			expected := ch.incomingReliableSequenceNumber + 1
			if ic.header.reliableSequenceNumber != expected {
				break
			}
			ch.incomingReliableCommands.PopFront()
			ch.incomingReliableSequenceNumber = expected
			p.dispatchedCommands.PushBack(ic)
		}

		items := ch.incomingUnreliableCommands.All()
		if len(items) == 0 {
			continue
		}
		sort.Slice(items, func(i, j int) bool {
			return seq16Less(items[i].unreliableSequenceNumber, items[j].unreliableSequenceNumber)
		})
		kept := make([]*IncomingCommand, 0, len(items))
		for _, ic := range items {
			if ic.fragmentCount > 0 && ic.fragmentsRemaining > 0 {
				kept = append(kept, ic)
				continue
			}
			if !seq16Greater(ic.unreliableSequenceNumber, ch.incomingUnreliableSequenceNumber) {
				continue // stale or duplicate
			}
			ch.incomingUnreliableSequenceNumber = ic.unreliableSequenceNumber
			p.dispatchedCommands.PushBack(ic)
		}
		ch.incomingUnreliableCommands = &cmdQueue[*IncomingCommand]{items: kept}
	}
}

// checkTimeouts walks a peer's in-flight reliable commands, doubling each
// one's retransmission timeout and requeuing it for resend once its RTO has
// elapsed, or disconnecting the peer once the timeout ceiling is reached
// (§4.4 retransmission, §4.1 Connected -> Zombie via timeout).
func (h *Host) checkTimeouts(p *Peer, serviceTime uint32) {
	items := p.sentReliableCommands.All()
	kept := make([]*OutgoingCommand, 0, len(items))
	for _, oc := range items {
		elapsed := timeDifference(serviceTime, oc.sentTime)
		if elapsed < oc.roundTripTimeout {
			kept = append(kept, oc)
			continue
		}
		if elapsed >= p.timeoutMaximum || (uint32(oc.sendAttempts) >= p.timeoutLimit && elapsed >= p.timeoutMinimum) {
			h.errs.Add(ErrTimeout.Errorf("peer %d timed out waiting for acknowledgement", p.incomingPeerID))
			h.logDrop("synthesized disconnect: peer timed out waiting for acknowledgement", logrus.Fields{"peer_id": p.incomingPeerID})
			p.disconnectNow(0)
			return
		}
		oc.sendAttempts++
		oc.roundTripTimeout *= 2
		if oc.roundTripTimeout > protoconst.PeerTimeoutMaximum {
			oc.roundTripTimeout = protoconst.PeerTimeoutMaximum
		}
		p.packetsLost++
		p.outgoingSendReliableCommands.PushBack(oc)
	}
	p.sentReliableCommands = &cmdQueue[*OutgoingCommand]{items: kept}
}

func encodeCommand(buf *[]byte, oc *OutgoingCommand) {
	var hdr [4]byte
	flag := oc.header.code()
	if oc.isReliableCode() {
		flag |= protoconst.CommandFlagAcknowledge
	}
	if oc.header.unsequenced() {
		flag |= protoconst.CommandFlagUnsequenced
	}
	hdr[0] = flag
	hdr[1] = oc.header.channelID
	putUint16(hdr[2:], oc.header.reliableSequenceNumber)
	*buf = append(*buf, hdr[:]...)

	switch oc.header.code() {
	case protoconst.CommandSendReliable:
		var f [2]byte
		putUint16(f[:], uint16(oc.fragmentLength))
		*buf = append(*buf, f[:]...)
		*buf = append(*buf, oc.payload()...)
	case protoconst.CommandSendUnreliable, protoconst.CommandSendUnsequenced:
		var f [4]byte
		putUint16(f[0:], oc.unreliableSequenceNumber)
		putUint16(f[2:], uint16(oc.fragmentLength))
		*buf = append(*buf, f[:]...)
		*buf = append(*buf, oc.payload()...)
	case protoconst.CommandSendFragment, protoconst.CommandSendUnreliableFragment:
		var f [20]byte
		putUint16(f[0:], oc.startSeqNum)
		putUint16(f[2:], uint16(oc.fragmentLength))
		putUint32(f[4:], oc.fragmentCount)
		putUint32(f[8:], oc.fragmentIndex)
		putUint32(f[12:], oc.totalLength)
		putUint32(f[16:], oc.fragmentOffset)
		*buf = append(*buf, f[:]...)
		*buf = append(*buf, oc.payload()...)
	default:
		*buf = append(*buf, oc.commandExtra...)
	}
}

func encodeAck(buf *[]byte, ack *Acknowledgement) {
	var b [8]byte
	b[0] = protoconst.CommandAcknowledge
	b[1] = ack.header.channelID
	putUint16(b[4:], ack.header.reliableSequenceNumber)
	putUint16(b[6:], uint16(ack.sentTime))
	*buf = append(*buf, b[:]...)
}

func commandWireSize(oc *OutgoingCommand) int {
	size := protoconst.CommandSize[oc.header.code()]
	if size == 0 {
		size = 4
	}
	return size + int(oc.fragmentLength)
}

// sendPeerDatagram assembles and hands one datagram per peer to the
// substrate: outstanding acknowledgements first, then due reliable
// retransmits, then best-effort unreliable/unsequenced commands, bounded by
// MaximumPacketCommands and the peer's MTU (§4.4). An idle peer with nothing
// to say gets a keep-alive PING once PeerPingInterval has elapsed.
func (h *Host) sendPeerDatagram(p *Peer, serviceTime uint32) {
	if h.substrate == nil || p.address == nil {
		return
	}

	var buf []byte
	commandCount := 0

	for _, ack := range p.acknowledgements.All() {
		if commandCount >= protoconst.MaximumPacketCommands {
			break
		}
		encodeAck(&buf, ack)
		commandCount++
	}
	p.acknowledgements.Clear()

	// The ack just flushed above may be the ack of the remote's DISCONNECT;
	// only now, with it actually on the wire, does this side finish its own
	// half of the handshake (original_source enet_protocol_send_acknowledgements).
	// The connected-peer count was already decremented in handleDisconnect,
	// when the peer left Connected/DisconnectLater for AcknowledgingDisconnect.
	if p.state == PeerAcknowledgingDisconnect {
		p.setState(PeerZombie)
		p.markNeedsDispatch()
	}

	pending := p.outgoingSendReliableCommands.All()
	stillPending := make([]*OutgoingCommand, 0, len(pending))
	for _, oc := range pending {
		if commandCount >= protoconst.MaximumPacketCommands || len(buf)+commandWireSize(oc) > int(p.mtu) {
			stillPending = append(stillPending, oc)
			continue
		}
		encodeCommand(&buf, oc)
		commandCount++
		oc.sentTime = serviceTime
		if oc.roundTripTimeout == 0 {
			oc.roundTripTimeout = p.roundTripTime + 4*p.roundTripTimeVariance
			if oc.roundTripTimeout < protoconst.PeerDefaultRoundTripTime {
				oc.roundTripTimeout = protoconst.PeerDefaultRoundTripTime
			}
		}
		if oc.packet != nil {
			oc.packet.markSent()
		}
		p.outgoingDataTotal += oc.fragmentLength
		p.sentReliableCommands.PushBack(oc)
	}
	p.outgoingSendReliableCommands = &cmdQueue[*OutgoingCommand]{items: stillPending}

	unreliable := p.outgoingCommands.All()
	keptUnreliable := make([]*OutgoingCommand, 0, len(unreliable))
	for _, oc := range unreliable {
		if commandCount >= protoconst.MaximumPacketCommands || len(buf)+commandWireSize(oc) > int(p.mtu) {
			keptUnreliable = append(keptUnreliable, oc)
			continue
		}
		encodeCommand(&buf, oc)
		commandCount++
		p.outgoingDataTotal += oc.fragmentLength
		if oc.packet != nil {
			oc.packet.markSent()
			oc.release()
		}
	}
	p.outgoingCommands = &cmdQueue[*OutgoingCommand]{items: keptUnreliable}

	if commandCount == 0 {
		if !p.connected() || timeDifference(serviceTime, p.lastSendTime) < protoconst.PeerPingInterval {
			return
		}
		var b [4]byte
		b[0] = protoconst.CommandPing
		buf = append(buf, b[:]...)
		commandCount = 1
	}

	p.lastSendTime = serviceTime
	p.packetsSent++

	flags := uint16(protoconst.HeaderFlagSentTime) | (p.outgoingPeerID & protoconst.HeaderPeerIDMask)
	flags |= uint16(p.outgoingSessionID&protoconst.HeaderSessionMask) << protoconst.HeaderSessionShift

	payload := buf
	if h.config.Compressor != nil {
		out := make([]byte, len(payload))
		if n := h.config.Compressor.Compress([][]byte{payload}, out); n > 0 && n < len(payload) {
			payload = out[:n]
			flags |= protoconst.HeaderFlagCompressed
		}
	}

	header := make([]byte, 4)
	putUint16(header[0:], flags)
	putUint16(header[2:], uint16(serviceTime))

	buffers := make([][]byte, 0, 3)
	buffers = append(buffers, header)

	if h.config.Checksum != nil {
		slot := make([]byte, 4)
		putUint32(slot, p.connectID)
		sum := h.config.Checksum.Sum([][]byte{header, slot, payload})
		putUint32(slot, sum)
		buffers = append(buffers, slot)
	}
	buffers = append(buffers, payload)

	if _, err := h.substrate.Send(p.address, buffers); err != nil {
		h.errs.Add(ErrSubstrateSendFailure.Errorf("send to %s: %v", p.address, err))
	}
}

// sendOutgoingCommands drives one send pass over every non-idle peer,
// followed by the host-wide bandwidth fairness recalculation (§4.4, §4.6).
func (h *Host) sendOutgoingCommands(serviceTime uint32) {
	for _, p := range h.peers {
		if p.state == PeerDisconnected {
			continue
		}
		h.checkTimeouts(p, serviceTime)
		if p.state == PeerDisconnected || p.state == PeerZombie {
			continue
		}
		h.sendPeerDatagram(p, serviceTime)

		if p.state == PeerDisconnectLater && p.outgoingCommands.Empty() &&
			p.outgoingSendReliableCommands.Empty() && p.sentReliableCommands.Empty() {
			p.Disconnect(p.eventData)
		}
	}

	if h.bandwidthThrottle(serviceTime) {
		for _, p := range h.peers {
			if p.connected() {
				h.queueBandwidthLimit(p)
			}
		}
	}
}
