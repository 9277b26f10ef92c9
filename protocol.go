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

	"github.com/sirupsen/logrus"
)

// receiveIncomingCommands drains up to 256 datagrams from the substrate
// (§5) and feeds each through the dispatcher.
func (h *Host) receiveIncomingCommands(serviceTime uint32) error {
	if h.substrate == nil {
		return nil
	}
	for i := 0; i < 256; i++ {
		addr, data, partial, ok, err := h.substrate.Receive(protoconst.BufferMaximum)
		if err != nil {
			return ErrSubstrateReceiveFailure.Error(err)
		}
		if !ok {
			return nil
		}
		if partial {
			// A message larger than BufferMaximum was observed; silently
			// discard (§9, Open Question (a)).
			continue
		}
		h.handleIncomingDatagram(addr, data, serviceTime)
	}
	return nil
}

// findPeer locates the slot matching a wire peer id and sender address.
// peerID == PeerIDSentinel means "unassigned"; used for the first CONNECT
// of a new session.
func (h *Host) findPeer(peerID uint16, addr Address) *Peer {
	if peerID != protoconst.PeerIDSentinel && int(peerID) < len(h.peers) {
		p := h.peers[peerID]
		if p.state != PeerDisconnected && p.address != nil && p.address.SameHost(addr) {
			return p
		}
		return nil
	}
	for _, p := range h.peers {
		if p.address != nil && p.address.Equal(addr) {
			return p
		}
	}
	return nil
}

func (h *Host) handleIncomingDatagram(addr Address, data []byte, serviceTime uint32) {
	if len(data) < 2 {
		return
	}

	flagsAndID := getUint16(data)
	headerLen := 2
	var sentTime uint32
	hasSentTime := flagsAndID&protoconst.HeaderFlagSentTime != 0
	if hasSentTime {
		if len(data) < 4 {
			return
		}
		sentTime = uint32(getUint16(data[2:]))
		headerLen = 4
	}

	peerID := flagsAndID & protoconst.HeaderPeerIDMask
	sessionID := uint8((flagsAndID >> protoconst.HeaderSessionShift) & protoconst.HeaderSessionMask)
	compressed := flagsAndID&protoconst.HeaderFlagCompressed != 0

	body := data[headerLen:]

	p := h.findPeer(peerID, addr)

	if h.config.Checksum != nil {
		if len(body) < 4 {
			return
		}
		wire := getUint32(body)
		var connectID uint32
		if p != nil {
			connectID = p.connectID
		}
		check := make([]byte, 4)
		putUint32(check, connectID)
		sum := h.config.Checksum.Sum([][]byte{data[:headerLen], check, body[4:]})
		if sum != wire {
			h.errs.Add(ErrProtocolViolation.Errorf("checksum mismatch from %s", addr))
			h.logDrop("dropped datagram: checksum mismatch", logrus.Fields{"addr": addr.String()})
			return
		}
		body = body[4:]
	}

	if compressed {
		if h.config.Compressor == nil {
			h.errs.Add(ErrProtocolViolation.Errorf("compressed datagram without compressor configured"))
			h.logDrop("dropped datagram: no compressor configured", logrus.Fields{"addr": addr.String()})
			return
		}
		out := make([]byte, protoconst.BufferMaximum)
		n := h.config.Compressor.Decompress(body, out)
		if n == 0 {
			h.errs.Add(ErrProtocolViolation.Errorf("decompression failed"))
			h.logDrop("dropped datagram: decompression failed", logrus.Fields{"addr": addr.String()})
			return
		}
		body = out[:n]
	}

	if p != nil && sessionID != p.incomingSessionID && p.state != PeerDisconnected {
		return
	}

	h.handleCommandStream(p, peerID, addr, body, serviceTime, hasSentTime, sentTime)
}

func (h *Host) handleCommandStream(p *Peer, peerID uint16, addr Address, body []byte, serviceTime uint32, hasSentTime bool, sentTime uint32) {
	for len(body) >= 4 && len(h.peers) > 0 {
		hdr := commandHeader{
			command:                body[0],
			channelID:              body[1],
			reliableSequenceNumber: getUint16(body[2:]),
		}
		code := hdr.code()
		if code == protoconst.CommandNone || int(code) >= protoconst.CommandCount {
			h.errs.Add(ErrProtocolViolation.Errorf("unknown command code %d", code))
			h.logDrop("dropped datagram: unknown command code", logrus.Fields{"addr": addr.String(), "command": code})
			return
		}
		size := protoconst.CommandSize[code]
		if size == 0 || len(body) < size {
			h.errs.Add(ErrProtocolViolation.Errorf("short command %d from %s", code, addr))
			h.logDrop("dropped datagram: short command", logrus.Fields{"addr": addr.String(), "command": code})
			return
		}

		payload := body[4:size]
		rest := body[size:]

		switch code {
		case protoconst.CommandConnect:
			p = h.handleConnect(p, peerID, addr, hdr, payload, serviceTime)
		case protoconst.CommandVerifyConnect:
			h.handleVerifyConnect(p, hdr, payload, serviceTime)
		case protoconst.CommandDisconnect:
			h.handleDisconnect(p, hdr, payload)
		case protoconst.CommandPing:
			// no-op: receipt alone proves liveness, no ack required.
		case protoconst.CommandAcknowledge:
			h.handleAcknowledge(p, payload, serviceTime)
		case protoconst.CommandSendReliable:
			rest = h.handleSendReliable(p, hdr, payload, rest)
		case protoconst.CommandSendUnreliable:
			rest = h.handleSendUnreliable(p, hdr, payload, rest)
		case protoconst.CommandSendFragment:
			rest = h.handleSendFragment(p, hdr, payload, rest, true)
		case protoconst.CommandSendUnreliableFragment:
			rest = h.handleSendFragment(p, hdr, payload, rest, false)
		case protoconst.CommandSendUnsequenced:
			rest = h.handleSendUnsequenced(p, hdr, payload, rest)
		case protoconst.CommandBandwidthLimit:
			h.handleBandwidthLimit(p, payload)
		case protoconst.CommandThrottleConfigure:
			h.handleThrottleConfigure(p, payload)
		}

		if p != nil && hdr.acknowledge() && code != protoconst.CommandAcknowledge {
			p.acknowledgements.PushBack(&Acknowledgement{header: hdr, sentTime: sentTime})
		}

		body = rest
	}

	_ = hasSentTime
}

func dataLength(b []byte, off int) int {
	return int(getUint16(b[off:]))
}
