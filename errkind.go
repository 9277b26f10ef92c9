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

import liberr "github/sabouaram/enet/errors"

// Error kinds surfaced across the public facade (§7). Each is a
// liberr.CodeError registered with its own message, in the MinAvailable
// block reserved by errors/modules.go for callers outside the curated
// per-package ranges — these kinds are cross-cutting (raised from Host,
// Peer, and the protocol dispatcher alike) rather than owned by one
// package's code range.
const (
	ErrInvalidArgument liberr.CodeError = liberr.MinAvailable + iota
	ErrResourceExhausted
	ErrPeerNotConnected
	ErrInvalidChannel
	ErrPacketTooLarge
	ErrSubstrateSendFailure
	ErrSubstrateReceiveFailure
	ErrProtocolViolation
	ErrTimeout
)

func init() {
	liberr.RegisterIdFctMessage(ErrInvalidArgument, func(code liberr.CodeError) string {
		switch code {
		case ErrInvalidArgument:
			return "argument outside the allowed range"
		case ErrResourceExhausted:
			return "no free peer slot or queue node available"
		case ErrPeerNotConnected:
			return "peer is not in a connected state"
		case ErrInvalidChannel:
			return "channel id outside the configured channel count"
		case ErrPacketTooLarge:
			return "packet exceeds the configured maximum packet size"
		case ErrSubstrateSendFailure:
			return "substrate send failed"
		case ErrSubstrateReceiveFailure:
			return "substrate receive failed"
		case ErrProtocolViolation:
			return "malformed or inconsistent protocol command"
		case ErrTimeout:
			return "peer exceeded its timeout limit"
		default:
			return ""
		}
	})
}
