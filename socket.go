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

// Address identifies a substrate endpoint. Implementations must support
// value equality ("same peer") and host equality ("same host, different
// port"), and must be able to say whether they denote a broadcast target.
type Address interface {
	// Equal reports whether other names the same peer endpoint.
	Equal(other Address) bool
	// SameHost reports whether other names the same host, regardless of
	// port.
	SameHost(other Address) bool
	// Broadcast reports whether this address is a broadcast target.
	Broadcast() bool
	// String returns a human-readable form, for logging.
	String() string
}

// Substrate is the abstract, non-blocking datagram carrier the host is
// built on. A UDP implementation is provided in package udp; any
// best-effort or connection-oriented byte-stream carrier may implement it.
type Substrate interface {
	// Init is invoked once at host construction with the requested
	// send/receive buffer sizes (hints; an implementation may ignore
	// them).
	Init(sendBufferSize, recvBufferSize int) error

	// Send is non-blocking; it returns the number of bytes written, 0 to
	// indicate the substrate would otherwise block, or an error.
	Send(addr Address, buffers [][]byte) (int, error)

	// Receive is non-blocking. A nil Address with ok=false means no
	// datagram was available. partial=true means a message larger than
	// maxLen was observed at the substrate and was discarded; the caller
	// must treat this as a silent drop, never as payload.
	Receive(maxLen int) (addr Address, data []byte, partial bool, ok bool, err error)

	// Close releases substrate resources.
	Close() error
}
