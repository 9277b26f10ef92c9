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

// Package runner drives a Host's service loop on a ticker in its own
// goroutine, using golang.org/x/sync/errgroup the way the teacher wires up
// its own background service loops, so callers who do not want to call
// Host.Service themselves in a hand-rolled for-loop can hand the host to
// Runner.Start instead.
package runner

import (
	"context"
	"errors"
	"time"

	"golang.org/x/sync/errgroup"

	"github/sabouaram/enet"
)

// Runner drives one Host's Service loop at a fixed tick, dispatching every
// event it produces to Handler until the context is cancelled or Stop is
// called.
type Runner struct {
	host   *enet.Host
	tick   time.Duration
	cancel context.CancelFunc
	group  *errgroup.Group
}

// Handler receives every event a Runner's Host produces.
type Handler func(enet.Event)

// New builds a Runner over host, ticking at interval.
func New(host *enet.Host, interval time.Duration) *Runner {
	return &Runner{host: host, tick: interval}
}

// Start launches the service loop in a background goroutine. Calling Stop,
// or cancelling the context passed to Start, ends the loop; Start itself
// never blocks.
func (r *Runner) Start(ctx context.Context, handle Handler) {
	ctx, cancel := context.WithCancel(ctx)
	r.cancel = cancel

	g, gctx := errgroup.WithContext(ctx)
	r.group = g

	g.Go(func() error {
		ticker := time.NewTicker(r.tick)
		defer ticker.Stop()

		for {
			select {
			case <-gctx.Done():
				return gctx.Err()
			case <-ticker.C:
				for {
					ev, ok, err := r.host.Service()
					if err != nil {
						return err
					}
					if !ok {
						break
					}
					if handle != nil {
						handle(ev)
					}
				}
			}
		}
	})
}

// Stop cancels the loop and waits for it to exit, returning any error the
// loop's last Service call produced. Cancellation itself is the expected
// shutdown path and is not reported as an error.
func (r *Runner) Stop() error {
	if r.cancel == nil {
		return nil
	}
	r.cancel()
	if err := r.group.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
