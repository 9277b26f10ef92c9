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

// onAcknowledge updates RTT, variance, and throttle state from a received
// ACKNOWLEDGE's wire-observed send time, per §4.5.
func (p *Peer) onAcknowledge(sentTime uint32, serviceTime uint32) {
	// Extend the 16-bit wire send time to 32 bits using the high half of
	// the current service time, with a 0x8000 roll-over correction.
	received := (serviceTime & 0xFFFF0000) | uint32(uint16(sentTime))
	if received > serviceTime && received-serviceTime >= 0x8000 {
		received -= 0x10000
	}

	sample := timeDifference(serviceTime, received)
	if sample < 1 {
		sample = 1
	}
	if sample >= protoconst.TimeOverflow {
		return
	}

	if p.lastRoundTripTime == 0 && p.packetThrottleEpoch == 0 {
		p.roundTripTime = sample
		p.roundTripTimeVariance = (sample + 1) / 2
	} else {
		p.roundTripTimeVariance -= p.roundTripTimeVariance / 4
		if sample >= p.roundTripTime {
			diff := sample - p.roundTripTime
			p.roundTripTimeVariance += diff / 4
			p.roundTripTime += diff / 8
		} else {
			diff := p.roundTripTime - sample
			p.roundTripTimeVariance += diff / 4
			p.roundTripTime -= diff / 8
		}
	}

	if p.lowestRoundTripTime == 0 || p.roundTripTime < p.lowestRoundTripTime {
		p.lowestRoundTripTime = p.roundTripTime
	}
	if p.roundTripTimeVariance > p.highestRoundTripTimeVariance {
		p.highestRoundTripTimeVariance = p.roundTripTimeVariance
	}

	if p.packetThrottleEpoch == 0 || timeDifference(serviceTime, p.packetThrottleEpoch) >= p.packetThrottleInterval {
		p.lastRoundTripTime = p.lowestRoundTripTime
		if p.highestRoundTripTimeVariance < 1 {
			p.lastRoundTripTimeVariance = 1
		} else {
			p.lastRoundTripTimeVariance = p.highestRoundTripTimeVariance
		}
		p.lowestRoundTripTime = p.roundTripTime
		p.highestRoundTripTimeVariance = p.roundTripTimeVariance
		p.packetThrottleEpoch = serviceTime
	}

	p.adjustThrottle(sample)

	if serviceTime-p.packetLossEpoch >= protoconst.PeerPacketLossInterval {
		p.updatePacketLoss()
		p.packetLossEpoch = serviceTime
	}
}

// adjustThrottle applies the packet-throttle accel/decel rule (§4.5) for
// one new RTT sample.
func (p *Peer) adjustThrottle(sample uint32) {
	if p.lastRoundTripTime <= p.lastRoundTripTimeVariance {
		p.packetThrottle = p.packetThrottleLimit
		return
	}
	if sample <= p.lastRoundTripTime {
		p.packetThrottle += p.packetThrottleAcceleration
		if p.packetThrottle > p.packetThrottleLimit {
			p.packetThrottle = p.packetThrottleLimit
		}
		return
	}
	if sample > p.lastRoundTripTime+2*p.lastRoundTripTimeVariance {
		if p.packetThrottle > p.packetThrottleDeceleration {
			p.packetThrottle -= p.packetThrottleDeceleration
		} else {
			p.packetThrottle = 0
		}
	}
}

// updatePacketLoss recomputes the EWMA packet-loss mean and variance and
// resets the sent/lost counters for the next interval (§4.5).
func (p *Peer) updatePacketLoss() {
	if p.packetsSent == 0 {
		return
	}

	loss := p.packetsLost * protoconst.PeerPacketLossScale / p.packetsSent

	diff := int64(loss) - int64(p.packetLoss)
	p.packetLoss = uint32(int64(p.packetLoss) + diff/8)

	if diff >= 0 {
		p.packetLossVariance += uint32(diff) / 4
	} else if p.packetLossVariance > uint32(-diff)/4 {
		p.packetLossVariance -= uint32(-diff) / 4
	} else {
		p.packetLossVariance = 0
	}

	p.packetsSent = 0
	p.packetsLost = 0
}

// bandwidthThrottle recomputes per-peer send throttle limits for host-wide
// fairness (§4.6), iterating until stable. Returns true if any connected
// peer's packetThrottleLimit changed and a BANDWIDTH_LIMIT command should
// be broadcast.
func (h *Host) bandwidthThrottle(serviceTime uint32) bool {
	elapsed := timeDifference(serviceTime, h.bandwidthThrottleEpoch)
	if elapsed < protoconst.HostBandwidthThrottleInterval {
		return false
	}
	h.bandwidthThrottleEpoch = serviceTime

	connectedPeers := h.connectedPeers.Load()
	if connectedPeers == 0 {
		return false
	}

	var dataTotal uint64
	var bandwidth uint64 = ^uint64(0)
	if h.config.OutgoingBandwidth != 0 {
		bandwidth = uint64(h.config.OutgoingBandwidth) * uint64(elapsed) / 1000
	}

	limited := make([]*Peer, 0, connectedPeers)
	for _, p := range h.peers {
		if !p.connected() {
			continue
		}
		dataTotal += uint64(p.outgoingDataTotal)
		if p.incomingBandwidth != 0 {
			limited = append(limited, p)
		}
	}

	changed := false
	for len(limited) > 0 && bandwidth != ^uint64(0) {
		throttle := uint64(protoconst.PeerPacketThrottleScale)
		if dataTotal > 0 && bandwidth < dataTotal {
			throttle = bandwidth * protoconst.PeerPacketThrottleScale / dataTotal
		}

		next := limited[:0]
		progressed := false
		for _, p := range limited {
			share := throttle * uint64(p.outgoingDataTotal) / protoconst.PeerPacketThrottleScale
			cap64 := uint64(p.incomingBandwidth) * uint64(elapsed) / 1000
			if share <= cap64 {
				next = append(next, p)
				continue
			}
			limit := uint32(cap64 * protoconst.PeerPacketThrottleScale / uint64(p.outgoingDataTotal))
			if p.packetThrottleLimit != limit {
				p.packetThrottleLimit = limit
				changed = true
				h.logThrottleCap(p, limit)
			}
			dataTotal -= uint64(p.outgoingDataTotal)
			bandwidth -= cap64
			progressed = true
		}
		limited = next
		if !progressed {
			for _, p := range limited {
				if p.packetThrottleLimit != protoconst.PeerPacketThrottleScale {
					p.packetThrottleLimit = protoconst.PeerPacketThrottleScale
					changed = true
				}
			}
			break
		}
	}

	finalThrottle := uint32(protoconst.PeerPacketThrottleScale)
	if dataTotal > 0 && bandwidth != ^uint64(0) && bandwidth < dataTotal {
		finalThrottle = uint32(bandwidth * protoconst.PeerPacketThrottleScale / dataTotal)
	}
	for _, p := range h.peers {
		if !p.connected() || p.incomingBandwidth != 0 {
			continue
		}
		if p.packetThrottleLimit != finalThrottle {
			p.packetThrottleLimit = finalThrottle
			changed = true
		}
	}

	for _, p := range h.peers {
		p.outgoingDataTotal = 0
	}

	return changed
}
