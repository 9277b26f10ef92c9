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

// Package udp implements enet.Substrate and enet.Address over net.UDPConn,
// with an optional golang.org/x/time/rate limiter shaping outbound
// datagrams the way the host-wide bandwidth throttle shapes command
// scheduling.
package udp

import (
	"context"
	"net"
	"time"

	"golang.org/x/time/rate"

	"github/sabouaram/enet"
)

// Addr wraps net.UDPAddr to satisfy enet.Address.
type Addr struct {
	*net.UDPAddr
}

// Equal reports whether other names the same ip:port.
func (a Addr) Equal(other enet.Address) bool {
	o, ok := other.(Addr)
	if !ok {
		return false
	}
	return a.UDPAddr.IP.Equal(o.UDPAddr.IP) && a.UDPAddr.Port == o.UDPAddr.Port &&
		a.UDPAddr.Zone == o.UDPAddr.Zone
}

// SameHost reports whether other names the same IP, regardless of port.
func (a Addr) SameHost(other enet.Address) bool {
	o, ok := other.(Addr)
	if !ok {
		return false
	}
	return a.UDPAddr.IP.Equal(o.UDPAddr.IP)
}

// Broadcast reports whether a denotes a broadcast or multicast target.
func (a Addr) Broadcast() bool {
	return a.UDPAddr.IP.IsMulticast() || a.UDPAddr.IP.Equal(net.IPv4bcast)
}

// Substrate carries enet datagrams over a bound net.UDPConn. Send is rate
// limited by an optional golang.org/x/time/rate.Limiter so a single Host
// cannot monopolize an outbound link shared with other traffic; Receive is
// a non-blocking read bounded by a short deadline, matching the Substrate
// contract's "no datagram available" semantics.
type Substrate struct {
	conn    *net.UDPConn
	limiter *rate.Limiter
}

// Option configures a Substrate at construction.
type Option func(*Substrate)

// WithRateLimit attaches a token-bucket limiter over outbound bytes per
// second, with the given burst size.
func WithRateLimit(bytesPerSecond float64, burst int) Option {
	return func(s *Substrate) {
		s.limiter = rate.NewLimiter(rate.Limit(bytesPerSecond), burst)
	}
}

// Listen binds a UDP socket at addr (host:port, empty host for all
// interfaces) and returns a ready Substrate.
func Listen(addr string, opts ...Option) (*Substrate, error) {
	udpAddr, err := net.ResolveUDPAddr("udp", addr)
	if err != nil {
		return nil, err
	}
	conn, err := net.ListenUDP("udp", udpAddr)
	if err != nil {
		return nil, err
	}
	s := &Substrate{conn: conn}
	for _, o := range opts {
		o(s)
	}
	return s, nil
}

// Init applies the host's requested buffer sizes as socket options, best
// effort: a failure to raise a buffer size is not fatal.
func (s *Substrate) Init(sendBufferSize, recvBufferSize int) error {
	_ = s.conn.SetWriteBuffer(sendBufferSize)
	_ = s.conn.SetReadBuffer(recvBufferSize)
	return nil
}

// Send writes buffers as one concatenated datagram to addr, applying the
// rate limiter if configured.
func (s *Substrate) Send(addr enet.Address, buffers [][]byte) (int, error) {
	a, ok := addr.(Addr)
	if !ok {
		return 0, errInvalidAddr{}
	}

	var total int
	for _, b := range buffers {
		total += len(b)
	}
	out := make([]byte, 0, total)
	for _, b := range buffers {
		out = append(out, b...)
	}

	if s.limiter != nil {
		if err := s.limiter.WaitN(context.Background(), len(out)); err != nil {
			return 0, err
		}
	}

	return s.conn.WriteToUDP(out, a.UDPAddr)
}

// Receive performs one non-blocking read: it sets a near-zero deadline so a
// caller driving its own loop (via Host.Service) never stalls on an idle
// socket, reporting ok=false rather than an error when nothing is pending.
func (s *Substrate) Receive(maxLen int) (addr enet.Address, data []byte, partial bool, ok bool, err error) {
	buf := make([]byte, maxLen)
	_ = s.conn.SetReadDeadline(time.Now().Add(time.Millisecond))

	n, from, rerr := s.conn.ReadFromUDP(buf)
	if rerr != nil {
		if ne, isNet := rerr.(net.Error); isNet && ne.Timeout() {
			return nil, nil, false, false, nil
		}
		return nil, nil, false, false, rerr
	}

	if n == maxLen {
		// Cannot distinguish an exact-fit datagram from a truncated one
		// with ReadFromUDP; treat a full buffer as possibly truncated.
		return Addr{from}, nil, true, true, nil
	}

	return Addr{from}, buf[:n], false, true, nil
}

// Close releases the underlying socket.
func (s *Substrate) Close() error {
	return s.conn.Close()
}

type errInvalidAddr struct{}

func (errInvalidAddr) Error() string { return "udp: address is not a udp.Addr" }
