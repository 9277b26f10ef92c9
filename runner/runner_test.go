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

package runner_test

import (
	"context"
	"sync"
	"time"

	"github/sabouaram/enet"
	"github/sabouaram/enet/runner"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

// loopbackDatagram and loopbackSubstrate stand in for a real UDP socket so a
// Runner-driven handshake can complete without the network, mirroring the
// Host-level loopback fixture this module uses for its own end-to-end test.
type loopbackDatagram struct {
	from enet.Address
	data []byte
}

type loopbackSubstrate struct {
	self stubAddr
	in   chan loopbackDatagram
	out  chan loopbackDatagram
}

func newLoopbackPair(addrA, addrB string) (*loopbackSubstrate, *loopbackSubstrate) {
	ab := make(chan loopbackDatagram, 64)
	ba := make(chan loopbackDatagram, 64)
	a := &loopbackSubstrate{self: stubAddr{id: addrA}, in: ba, out: ab}
	b := &loopbackSubstrate{self: stubAddr{id: addrB}, in: ab, out: ba}
	return a, b
}

func (s *loopbackSubstrate) Init(int, int) error { return nil }

func (s *loopbackSubstrate) Send(addr enet.Address, buffers [][]byte) (int, error) {
	var total int
	for _, b := range buffers {
		total += len(b)
	}
	data := make([]byte, 0, total)
	for _, b := range buffers {
		data = append(data, b...)
	}
	s.out <- loopbackDatagram{from: s.self, data: data}
	return len(data), nil
}

func (s *loopbackSubstrate) Receive(maxLen int) (enet.Address, []byte, bool, bool, error) {
	select {
	case d := <-s.in:
		return d.from, d.data, false, true, nil
	default:
		return nil, nil, false, false, nil
	}
}

func (s *loopbackSubstrate) Close() error { return nil }

type stubAddr struct{ id string }

func (a stubAddr) Equal(other enet.Address) bool {
	o, ok := other.(stubAddr)
	return ok && o.id == a.id
}
func (a stubAddr) SameHost(other enet.Address) bool { return a.Equal(other) }
func (a stubAddr) Broadcast() bool                  { return false }
func (a stubAddr) String() string                   { return a.id }

var _ = Describe("Runner", func() {
	It("drives a Host's Service loop on a ticker and delivers events to the handler", func() {
		subA, subB := newLoopbackPair("host-a", "host-b")

		hostA, err := enet.NewHost(enet.DefaultConfig(), subA)
		Expect(err).ToNot(HaveOccurred())
		hostB, err := enet.NewHost(enet.DefaultConfig(), subB)
		Expect(err).ToNot(HaveOccurred())

		var mu sync.Mutex
		var eventsA, eventsB []enet.Event
		collect := func(dst *[]enet.Event) runner.Handler {
			return func(ev enet.Event) {
				mu.Lock()
				*dst = append(*dst, ev)
				mu.Unlock()
			}
		}

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		rA := runner.New(hostA, 5*time.Millisecond)
		rB := runner.New(hostB, 5*time.Millisecond)
		rA.Start(ctx, collect(&eventsA))
		rB.Start(ctx, collect(&eventsB))

		_, err = hostA.Connect(stubAddr{id: "host-b"}, 1, 0)
		Expect(err).ToNot(HaveOccurred())

		hasConnect := func(dst *[]enet.Event) func() bool {
			return func() bool {
				mu.Lock()
				defer mu.Unlock()
				for _, ev := range *dst {
					if ev.Type == enet.EventConnect {
						return true
					}
				}
				return false
			}
		}

		Eventually(hasConnect(&eventsA), 2*time.Second, 10*time.Millisecond).Should(BeTrue())
		Eventually(hasConnect(&eventsB), 2*time.Second, 10*time.Millisecond).Should(BeTrue())

		Expect(rA.Stop()).ToNot(HaveOccurred())
		Expect(rB.Stop()).ToNot(HaveOccurred())
	})

	It("Stop is a no-op when the Runner was never started", func() {
		h, err := enet.NewHost(enet.DefaultConfig(), nil)
		Expect(err).ToNot(HaveOccurred())
		r := runner.New(h, time.Millisecond)
		Expect(r.Stop()).ToNot(HaveOccurred())
	})
})
