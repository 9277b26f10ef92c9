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

// Package protoconst carries the fixed wire and tuning constants of the
// transport, transcribed from the reference implementation's consts module.
package protoconst

const (
	MinimumMTU              = 576
	MaximumMTU              = 4096
	MaximumPacketCommands   = 32
	MaximumWindowSize       = 65536
	MinimumWindowSize       = 4096
	MaximumChannelCount     = 255
	MinimumChannelCount     = 1
	MaximumPeerID           = 0xFFF
	MaximumFragmentCount    = 1 << 20

	FreeReliableWindows   = 8
	ReliableWindowSize    = 0x1000
	ReliableWindows       = 16
	FreeUnsequencedWindows = 32
	UnsequencedWindowSize  = 1024
	UnsequencedWindows     = 32

	PeerPingInterval              = 500  // ms
	PeerTimeoutMinimum             = 5000 // ms
	PeerTimeoutMaximum             = 30000 // ms
	PeerTimeoutLimit                = 32
	PeerWindowSizeScale              = 64 * 1024
	PeerPacketLossInterval          = 10000 // ms
	PeerPacketLossScale              = 1 << 16
	PeerPacketThrottleInterval       = 5000 // ms
	PeerPacketThrottleDeceleration   = 2
	PeerPacketThrottleAcceleration   = 2
	PeerPacketThrottleCounter        = 7
	PeerPacketThrottleScale          = 32
	PeerDefaultPacketThrottle        = 16
	PeerDefaultRoundTripTime         = 500 // ms

	HostDefaultMaximumWaitingData = 32 * 1024 * 1024
	HostDefaultMaximumPacketSize  = 32 * 1024 * 1024
	HostDefaultMTU                = 1392
	HostBandwidthThrottleInterval = 1000 // ms
	HostSendBufferSize            = 256 * 1024
	HostReceiveBufferSize         = 256 * 1024

	BufferMaximum = 65536

	// PeerIDSentinel marks an outgoing_peer_id not yet learned from the remote.
	PeerIDSentinel = MaximumPeerID

	// TimeOverflow is the fixed horizon (ms) partitioning past from future in
	// wrap-aware 32-bit time comparisons: 24 hours.
	TimeOverflow = 86400000
)

// Command codes, low 4 bits of the command byte.
const (
	CommandNone = iota
	CommandAcknowledge
	CommandConnect
	CommandVerifyConnect
	CommandDisconnect
	CommandPing
	CommandSendReliable
	CommandSendUnreliable
	CommandSendFragment
	CommandSendUnsequenced
	CommandBandwidthLimit
	CommandThrottleConfigure
	CommandSendUnreliableFragment
	CommandCount
)

// Command header flag bits (high bits of the command byte).
const (
	CommandFlagAcknowledge = 1 << 7
	CommandFlagUnsequenced = 1 << 6
	CommandMask            = 0x0F
)

// Protocol header flag bits (within peer_id_and_flags).
const (
	HeaderFlagCompressed = 1 << 14
	HeaderFlagSentTime   = 1 << 15
	HeaderSessionShift    = 12
	HeaderSessionMask     = 0x3
	HeaderPeerIDMask      = 0x0FFF
)

// ChannelSystem is the reserved channel id for system (channel-255) commands.
const ChannelSystem = 0xFF

// Fixed, header-inclusive command sizes in bytes (wire format, §6.4).
var CommandSize = [CommandCount]int{
	CommandNone:                   0,
	CommandAcknowledge:            8,
	CommandConnect:                48,
	CommandVerifyConnect:          44,
	CommandDisconnect:             8,
	CommandPing:                   4,
	CommandSendReliable:           6,
	CommandSendUnreliable:         8,
	CommandSendFragment:           24,
	CommandSendUnsequenced:        8,
	CommandBandwidthLimit:         12,
	CommandThrottleConfigure:      16,
	CommandSendUnreliableFragment: 24,
}
