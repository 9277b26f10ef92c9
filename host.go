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
	"math/rand"
	"time"

	libatm "github/sabouaram/enet/atomic"
	liberr "github/sabouaram/enet/errors"
	errpool "github/sabouaram/enet/errors/pool"
	"github/sabouaram/enet/logger/level"
	"github/sabouaram/enet/protoconst"
	"github/sabouaram/enet/xlog"

	"github.com/sirupsen/logrus"
)

// TimeSource is the abstract "now, in milliseconds" provider the host
// snapshots once per service cycle. Deliberately out of core scope per the
// transport's purpose statement; DefaultTimeSource wraps time.Now.
type TimeSource func() uint32

// DefaultTimeSource returns a TimeSource anchored at the moment it is
// constructed, so the returned values fit in 32 bits for a long process
// lifetime.
func DefaultTimeSource() TimeSource {
	start := time.Now()
	return func() uint32 {
		return uint32(time.Since(start).Milliseconds())
	}
}

// HostOption configures optional Host construction parameters, following
// the functional-options idiom used across this module's config packages.
type HostOption func(*Host)

func WithCompressor(c Compressor) HostOption {
	return func(h *Host) { h.config.Compressor = c }
}

func WithChecksum(c Checksum) HostOption {
	return func(h *Host) { h.config.Checksum = c }
}

func WithRandomSeed(seed uint32) HostOption {
	return func(h *Host) { h.rng = rand.New(rand.NewSource(int64(seed))) }
}

func WithLogger(l *logrus.Logger) HostOption {
	return func(h *Host) { h.log = l }
}

func WithTimeSource(t TimeSource) HostOption {
	return func(h *Host) { h.now = t }
}

// Host owns a fixed-size pool of peer slots and drives the service loop
// (§3, §4.7 host facade).
type Host struct {
	config    Config
	substrate Substrate
	now       TimeSource
	rng       *rand.Rand
	log       *logrus.Logger

	peers          []*Peer
	connectedPeers libatm.Value[int]

	// serviceTime is snapshotted once per Service/Flush call but read by
	// ServiceTime from any goroutine (e.g. a caller polling stats while
	// runner.Runner drives Service on its own goroutine), hence the atomic
	// wrapper instead of a bare uint32.
	serviceTime libatm.Value[uint32]

	bandwidthThrottleEpoch      uint32
	recalculateBandwidthLimits bool

	errs errpool.Pool

	pendingDispatch []uint16 // incoming peer ids flagged NeedsDispatch
}

func clampMTU(m uint32) uint32 {
	if m < protoconst.MinimumMTU {
		return protoconst.MinimumMTU
	}
	if m > protoconst.MaximumMTU {
		return protoconst.MaximumMTU
	}
	return m
}

func clampChannels(c uint8) uint8 {
	if c < protoconst.MinimumChannelCount {
		return protoconst.MinimumChannelCount
	}
	if c > protoconst.MaximumChannelCount {
		return protoconst.MaximumChannelCount
	}
	return c
}

// NewHost constructs a host bound to the given substrate, validating cfg
// and clamping MTU/channel count to their wire boundaries (§6.6).
func NewHost(cfg Config, substrate Substrate, opts ...HostOption) (*Host, error) {
	if cfg.MTU == 0 {
		cfg.MTU = protoconst.HostDefaultMTU
	}
	cfg.MTU = clampMTU(cfg.MTU)
	cfg.ChannelLimit = clampChannels(cfg.ChannelLimit)
	if cfg.MaximumPacketSize == 0 {
		cfg.MaximumPacketSize = protoconst.HostDefaultMaximumPacketSize
	}
	if cfg.MaximumWaitingData == 0 {
		cfg.MaximumWaitingData = protoconst.HostDefaultMaximumWaitingData
	}

	if verr := cfg.Validate(); verr != nil {
		return nil, verr
	}

	h := &Host{
		config:         cfg,
		substrate:      substrate,
		now:            DefaultTimeSource(),
		rng:            rand.New(rand.NewSource(time.Now().UnixNano())),
		errs:           errpool.New(),
		log:            xlog.New(level.InfoLevel),
		connectedPeers: libatm.NewValue[int](),
		serviceTime:    libatm.NewValue[uint32](),
	}

	for _, o := range opts {
		o(h)
	}

	if h.substrate != nil {
		if err := h.substrate.Init(protoconst.HostSendBufferSize, protoconst.HostReceiveBufferSize); err != nil {
			return nil, liberr.New(ErrSubstrateSendFailure.Uint16(), "substrate init failed", err)
		}
	}

	h.peers = make([]*Peer, cfg.PeerLimit)
	for i := range h.peers {
		h.peers[i] = newPeer(h, uint16(i))
	}

	return h, nil
}

func (h *Host) markDisconnectedCounters(p *Peer) {
	if p.connected() {
		h.connectedPeers.Store(h.connectedPeers.Load() - 1)
	}
}

func (h *Host) markConnectedCounters(p *Peer) {
	h.connectedPeers.Store(h.connectedPeers.Load() + 1)
}

// freeSlot returns a Disconnected peer, or nil if the pool is exhausted
// (ResourceExhausted, §7).
func (h *Host) freeSlot() *Peer {
	for _, p := range h.peers {
		if p.state == PeerDisconnected {
			return p
		}
	}
	return nil
}

// Connect allocates a peer slot and stages an outgoing CONNECT handshake
// command; the connection completes asynchronously through Service.
func (h *Host) Connect(addr Address, channelCount uint8, data uint32) (*Peer, error) {
	if addr == nil {
		return nil, ErrInvalidArgument.Error(nil)
	}
	channelCount = clampChannels(channelCount)

	p := h.freeSlot()
	if p == nil {
		return nil, ErrResourceExhausted.Error(nil)
	}

	p.address = addr
	p.channels = make([]*Channel, channelCount)
	for i := range p.channels {
		p.channels[i] = newChannel()
	}
	p.connectID = h.rng.Uint32()
	p.outgoingSessionID = 0
	p.setState(PeerConnecting)

	h.queueConnect(p, channelCount, data)

	return p, nil
}

// PeerLimit returns the configured peer-slot count.
func (h *Host) PeerLimit() int { return len(h.peers) }

// ConnectedPeers returns the count of peers currently in Connected or
// DisconnectLater.
func (h *Host) ConnectedPeers() int { return h.connectedPeers.Load() }

// Errors drains the host's recoverable-error pool (malformed datagrams,
// per-peer substrate send failures) collected since the previous Errors
// call, following the teacher's errors/pool idiom for non-fatal error
// collection across a batch operation.
func (h *Host) Errors() []error {
	errs := h.errs.Slice()
	h.errs.Clear()
	return errs
}

// logDrop records a dropped datagram or synthesized timeout disconnect at
// Debug (§2.2), with the teacher's structured-field convention over ad hoc
// string formatting.
func (h *Host) logDrop(reason string, fields logrus.Fields) {
	if h.log == nil {
		return
	}
	h.log.WithFields(fields).Debug(reason)
}

// logThrottleCap records a peer's packetThrottleLimit being capped below its
// configured ceiling during host-wide bandwidth fairness, at Warn (§2.2).
func (h *Host) logThrottleCap(p *Peer, limit uint32) {
	if h.log == nil {
		return
	}
	h.log.WithFields(logrus.Fields{
		"peer_id": p.incomingPeerID,
		"limit":   limit,
		"ceiling": p.incomingBandwidth,
	}).Warn("peer packet throttle capped below configured ceiling")
}

// ServiceTime returns the host's most recent per-cycle time snapshot.
func (h *Host) ServiceTime() uint32 { return h.serviceTime.Load() }

// Service drives one cooperative cycle: dispatch pending events, send
// outgoing, receive incoming (up to 256 datagrams), send outgoing again,
// dispatch pending (§5). Returns at most one event; callers loop until ok
// is false to drain.
func (h *Host) Service() (Event, bool, error) {
	h.serviceTime.Store(h.now())
	serviceTime := h.serviceTime.Load()

	if ev, ok := h.dispatchOne(); ok {
		return ev, true, nil
	}

	h.sendOutgoingCommands(serviceTime)

	if err := h.receiveIncomingCommands(serviceTime); err != nil {
		return Event{}, false, err
	}

	h.sendOutgoingCommands(serviceTime)

	return h.dispatchOne()
}

// CheckEvents drains any already-dispatched events without advancing the
// service cycle (no send/receive), mirroring the reference
// check_events/service split.
func (h *Host) CheckEvents() (Event, bool) {
	return h.dispatchOne()
}

// Flush sends all pending outgoing commands without checking for dispatch
// events or receiving.
func (h *Host) Flush() {
	h.serviceTime.Store(h.now())
	h.sendOutgoingCommands(h.serviceTime.Load())
}

// Broadcast queues data on channelID, with the given flags, to every peer
// in Connected or DisconnectLater.
func (h *Host) Broadcast(channelID uint8, data []byte, flags PacketFlag) {
	for _, p := range h.peers {
		if !p.connected() {
			continue
		}
		_ = p.Send(channelID, data, flags)
	}
}

func (h *Host) queuePing(p *Peer) {
	h.queueSystemCommand(p, protoconst.CommandPing, nil)
}

func (h *Host) queueDisconnect(p *Peer, data uint32) {
	buf := make([]byte, 4)
	putUint32(buf, data)
	h.queueSystemCommand(p, protoconst.CommandDisconnect, buf)
}
