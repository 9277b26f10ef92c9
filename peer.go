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
	"github.com/bits-and-blooms/bitset"
	"github.com/sirupsen/logrus"

	"github/sabouaram/enet/protoconst"
)

// PeerState is one of the ten states of the peer session state machine
// (§4.1). Disconnected is both the initial and terminal state.
type PeerState uint8

const (
	PeerDisconnected PeerState = iota
	PeerConnecting
	PeerAcknowledgingConnect
	PeerConnectionPending
	PeerConnectionSucceeded
	PeerConnected
	PeerDisconnectLater
	PeerDisconnecting
	PeerAcknowledgingDisconnect
	PeerZombie
)

func (s PeerState) String() string {
	switch s {
	case PeerDisconnected:
		return "disconnected"
	case PeerConnecting:
		return "connecting"
	case PeerAcknowledgingConnect:
		return "acknowledging-connect"
	case PeerConnectionPending:
		return "connection-pending"
	case PeerConnectionSucceeded:
		return "connection-succeeded"
	case PeerConnected:
		return "connected"
	case PeerDisconnectLater:
		return "disconnect-later"
	case PeerDisconnecting:
		return "disconnecting"
	case PeerAcknowledgingDisconnect:
		return "acknowledging-disconnect"
	case PeerZombie:
		return "zombie"
	default:
		return "unknown"
	}
}

// PeerFlag marks per-cycle scheduler hints on a peer.
type PeerFlag uint8

const (
	PeerFlagNeedsDispatch PeerFlag = 1 << iota
	PeerFlagContinueSending
)

// Peer represents one session slot of a Host. incoming_peer_id is fixed at
// construction (the slot index); outgoing_peer_id is learned from the
// remote during handshake.
type Peer struct {
	host *Host

	incomingPeerID uint16
	outgoingPeerID uint16

	incomingSessionID uint8
	outgoingSessionID uint8

	state PeerState
	flags PeerFlag

	address Address

	connectID uint32

	mtu               uint32
	windowSize         uint32
	incomingBandwidth  uint32
	outgoingBandwidth  uint32

	roundTripTime                    uint32
	roundTripTimeVariance             uint32
	lowestRoundTripTime               uint32
	highestRoundTripTimeVariance      uint32
	lastRoundTripTime                 uint32
	lastRoundTripTimeVariance         uint32

	packetThrottle             uint32
	packetThrottleLimit        uint32
	packetThrottleCounter      uint32
	packetThrottleEpoch        uint32
	packetThrottleInterval     uint32
	packetThrottleAcceleration uint32
	packetThrottleDeceleration uint32

	timeoutLimit   uint32
	timeoutMinimum uint32
	timeoutMaximum uint32
	earliestTimeout uint32
	nextTimeout     uint32

	packetsSent        uint32
	packetsLost        uint32
	packetLoss         uint32
	packetLossVariance uint32
	packetLossEpoch    uint32

	reliableDataInTransit uint32

	outgoingReliableSequenceNumber uint16

	channels []*Channel

	acknowledgements *cmdQueue[*Acknowledgement]

	sentReliableCommands      *cmdQueue[*OutgoingCommand]
	outgoingCommands          *cmdQueue[*OutgoingCommand]
	outgoingSendReliableCommands *cmdQueue[*OutgoingCommand]
	dispatchedCommands        *cmdQueue[*IncomingCommand]

	incomingUnsequencedGroup uint16
	outgoingUnsequencedGroup uint16
	unsequencedWindow         *bitset.BitSet

	totalWaitingData uint32

	eventData uint32

	// outgoingDataTotal / incoming accumulate this throttle-interval's
	// bandwidth demand for the host-wide fairness pass (§4.6).
	outgoingDataTotal uint32
	bandwidthLimited  bool
	needsBandwidthAck bool

	// lastSendTime gates the idle keep-alive PING: a datagram is only
	// synthesized from nothing once PeerPingInterval has elapsed since the
	// last one actually went out.
	lastSendTime uint32
}

func newPeer(host *Host, slot uint16) *Peer {
	p := &Peer{
		host:                       host,
		incomingPeerID:             slot,
		outgoingPeerID:             protoconst.PeerIDSentinel,
		state:                      PeerDisconnected,
		mtu:                        host.config.MTU,
		windowSize:                 protoconst.MaximumWindowSize,
		packetThrottle:             protoconst.PeerDefaultPacketThrottle,
		packetThrottleLimit:        protoconst.PeerPacketThrottleScale,
		packetThrottleInterval:     protoconst.PeerPacketThrottleInterval,
		packetThrottleAcceleration: protoconst.PeerPacketThrottleAcceleration,
		packetThrottleDeceleration: protoconst.PeerPacketThrottleDeceleration,
		timeoutLimit:               protoconst.PeerTimeoutLimit,
		timeoutMinimum:             protoconst.PeerTimeoutMinimum,
		timeoutMaximum:             protoconst.PeerTimeoutMaximum,
		roundTripTime:              protoconst.PeerDefaultRoundTripTime,
		acknowledgements:           newCmdQueue[*Acknowledgement](),
		sentReliableCommands:       newCmdQueue[*OutgoingCommand](),
		outgoingCommands:           newCmdQueue[*OutgoingCommand](),
		outgoingSendReliableCommands: newCmdQueue[*OutgoingCommand](),
		dispatchedCommands:         newCmdQueue[*IncomingCommand](),
		unsequencedWindow:          bitset.New(protoconst.UnsequencedWindowSize),
	}
	return p
}

// IncomingID returns the peer's fixed slot index.
func (p *Peer) IncomingID() uint16 { return p.incomingPeerID }

// State returns the peer's current state machine state.
func (p *Peer) State() PeerState { return p.state }

// Address returns the peer's substrate endpoint, or nil before handshake.
func (p *Peer) Address() Address { return p.address }

// RoundTripTime returns the current smoothed RTT estimate, in milliseconds.
func (p *Peer) RoundTripTime() uint32 { return p.roundTripTime }

// PacketsSent returns the count of packets handed to the substrate on
// behalf of this peer in the current packet-loss interval; the count is
// reset to zero each time the packet-loss estimate is updated.
func (p *Peer) PacketsSent() uint32 { return p.packetsSent }

// PacketsLost returns the count of reliable commands declared lost
// (retransmitted after their round-trip timeout elapsed) in the current
// packet-loss interval; the count is reset together with PacketsSent.
func (p *Peer) PacketsLost() uint32 { return p.packetsLost }

// PacketLoss returns the current EWMA packet-loss estimate, in units of
// PeerPacketLossScale (1<<16 = 100%).
func (p *Peer) PacketLoss() uint32 { return p.packetLoss }

func (p *Peer) connected() bool {
	return p.state == PeerConnected || p.state == PeerDisconnectLater
}

// setState transitions the peer state machine to s, logging the move at
// Debug (§4.1) whenever a logger is configured and the state actually
// changes.
func (p *Peer) setState(s PeerState) {
	if p.host != nil && p.host.log != nil && s != p.state {
		p.host.log.WithFields(logrus.Fields{
			"peer_id": p.incomingPeerID,
			"from":    p.state.String(),
			"to":      s.String(),
		}).Debug("peer state transition")
	}
	p.state = s
}

// channel returns the channel for id, or nil if id is out of range or the
// reserved system channel.
func (p *Peer) channel(id uint8) *Channel {
	if int(id) >= len(p.channels) {
		return nil
	}
	return p.channels[id]
}

// reset returns the peer to Disconnected, freeing its channels and
// draining every queue (§3, ownership & lifecycle).
func (p *Peer) reset() {
	p.outgoingPeerID = protoconst.PeerIDSentinel
	p.connectID = 0
	p.setState(PeerDisconnected)
	p.incomingSessionID = 0
	p.outgoingSessionID = 0
	p.address = nil

	p.mtu = p.host.config.MTU
	p.windowSize = protoconst.MaximumWindowSize
	p.incomingBandwidth = 0
	p.outgoingBandwidth = 0

	p.roundTripTime = protoconst.PeerDefaultRoundTripTime
	p.roundTripTimeVariance = 0
	p.lowestRoundTripTime = 0
	p.highestRoundTripTimeVariance = 0
	p.lastRoundTripTime = protoconst.PeerDefaultRoundTripTime
	p.lastRoundTripTimeVariance = 0

	p.packetThrottle = protoconst.PeerDefaultPacketThrottle
	p.packetThrottleLimit = protoconst.PeerPacketThrottleScale
	p.packetThrottleCounter = 0
	p.packetThrottleEpoch = 0
	p.packetThrottleInterval = protoconst.PeerPacketThrottleInterval
	p.packetThrottleAcceleration = protoconst.PeerPacketThrottleAcceleration
	p.packetThrottleDeceleration = protoconst.PeerPacketThrottleDeceleration

	p.timeoutLimit = protoconst.PeerTimeoutLimit
	p.timeoutMinimum = protoconst.PeerTimeoutMinimum
	p.timeoutMaximum = protoconst.PeerTimeoutMaximum
	p.earliestTimeout = 0
	p.nextTimeout = 0

	p.packetsSent = 0
	p.packetsLost = 0
	p.packetLoss = 0
	p.packetLossVariance = 0
	p.packetLossEpoch = 0

	p.reliableDataInTransit = 0
	p.outgoingReliableSequenceNumber = 0

	p.channels = nil
	p.acknowledgements.Clear()
	p.sentReliableCommands.Clear()
	p.outgoingCommands.Clear()
	p.outgoingSendReliableCommands.Clear()
	p.dispatchedCommands.Clear()

	p.incomingUnsequencedGroup = 0
	p.outgoingUnsequencedGroup = 0
	p.unsequencedWindow.ClearAll()

	p.totalWaitingData = 0
	p.flags = 0
	p.eventData = 0
	p.outgoingDataTotal = 0
	p.bandwidthLimited = false
	p.lastSendTime = 0
}

// disconnectNow immediately tears the peer down to Zombie, to be reset on
// next event dispatch, recording eventData for the synthesized Disconnect.
func (p *Peer) disconnectNow(data uint32) {
	p.host.markDisconnectedCounters(p)
	p.eventData = data
	p.setState(PeerZombie)
}

// DisconnectLater requests a graceful disconnect once the outgoing queues
// drain; if the queues are already empty, it disconnects immediately. Only
// valid from Connected; a call while already DisconnectLater/Disconnecting
// is a no-op (§4 supplemented semantics, grounded on rusty_enet's
// two-step peer_disconnect_later).
func (p *Peer) DisconnectLater(data uint32) {
	if p.state != PeerConnected && p.state != PeerDisconnectLater {
		return
	}
	if p.state == PeerDisconnectLater {
		return
	}
	if p.outgoingCommands.Empty() && p.outgoingSendReliableCommands.Empty() && p.sentReliableCommands.Empty() {
		p.Disconnect(data)
		return
	}
	p.eventData = data
	p.setState(PeerDisconnectLater)
}

// Disconnect requests an immediate graceful disconnect: queue a DISCONNECT
// command and move to Disconnecting.
func (p *Peer) Disconnect(data uint32) {
	if p.state == PeerDisconnected || p.state == PeerZombie {
		return
	}
	p.eventData = data
	if p.state == PeerConnecting || p.state == PeerAcknowledgingConnect {
		p.reset()
		return
	}
	p.host.markDisconnectedCounters(p)
	p.host.queueDisconnect(p, data)
	p.setState(PeerDisconnecting)
}

// Ping schedules an explicit PING, resetting the idle-ping timer.
func (p *Peer) Ping() {
	if !p.connected() {
		return
	}
	p.host.queuePing(p)
}
