// SPDX-License-Identifier: Apache-2.0
// Copyright Authors of gwcore

package control

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"
)

// DefaultTickPeriod is the control loop's periodic-maintenance interval:
// flow reaping and adjacency refresh.
const DefaultTickPeriod = 100 * time.Millisecond

// ControlMessage is one event on the control channel: Lock, Unlock,
// GuardedUnlock, Configure, Show, or Finish.
type ControlMessage struct {
	Lock          bool
	Unlock        bool
	GuardedUnlock bool
	Configure     *ConfigureRequest
	Show          chan<- RouterState
	Finish        bool
}

// ConfigureRequest carries a configuration to apply plus the channel its
// result is delivered on.
type ConfigureRequest struct {
	Apply func(ctx context.Context) error
	Reply chan<- error
}

// Loop is the single-threaded event loop multiplexing the control channel,
// CPI ingress, and the periodic tick. It does not itself own a socket —
// callers feed decoded events in over the channels — keeping this package
// transport-agnostic, separate from whatever reads the CPI socket or the
// control channel.
type Loop struct {
	router  *Router
	control <-chan ControlMessage
	cpi     <-chan any
	tick    time.Duration

	onTick func(ctx context.Context)
}

// NewLoop returns a Loop driving router from the given channels. onTick, if
// non-nil, is invoked on every tick (flow reaping and adjacency refresh are
// the caller's responsibility to wire in, since Router does not itself own
// a flowtable.Table).
func NewLoop(router *Router, control <-chan ControlMessage, cpi <-chan any, tick time.Duration, onTick func(ctx context.Context)) *Loop {
	if tick <= 0 {
		tick = DefaultTickPeriod
	}
	return &Loop{router: router, control: control, cpi: cpi, tick: tick, onTick: onTick}
}

// Run drives the loop until ctx is cancelled or a Finish message arrives.
// It runs on the caller's goroutine — this loop is meant to be
// single-threaded — but uses an errgroup internally only to bound the
// lifetime of a Configure call's own sub-work, not to parallelize the loop
// itself.
func (l *Loop) Run(ctx context.Context) error {
	ticker := time.NewTicker(l.tick)
	defer ticker.Stop()

	for {
		// Locked: leave inbound CPI events queued in the channel.
		cpi := l.cpi
		if l.router.Frozen() {
			cpi = nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()

		case msg, ok := <-l.control:
			if !ok {
				return nil
			}
			if done := l.handleControl(ctx, msg); done {
				return nil
			}

		case ev, ok := <-cpi:
			if !ok {
				l.cpi = nil
				continue
			}
			l.dispatchCpi(ev)

		case <-ticker.C:
			if l.onTick != nil {
				l.onTick(ctx)
			}
		}
	}
}

func (l *Loop) handleControl(ctx context.Context, msg ControlMessage) (finish bool) {
	switch {
	case msg.Lock:
		l.router.Lock()
	case msg.Unlock, msg.GuardedUnlock:
		l.router.Unlock()
	case msg.Configure != nil:
		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error { return msg.Configure.Apply(gctx) })
		err := g.Wait()
		if msg.Configure.Reply != nil {
			msg.Configure.Reply <- err
		}
	case msg.Show != nil:
		msg.Show <- l.router.ShowState()
	case msg.Finish:
		return true
	}
	return false
}

func (l *Loop) dispatchCpi(ev any) {
	var err error
	switch e := ev.(type) {
	case CpiRouteEvent:
		err = l.router.ApplyRouteEvent(e)
	case CpiRmacEvent:
		err = l.router.ApplyRmacEvent(e)
	}
	if err != nil {
		l.router.log.Warn("cpi event rejected", "error", err)
	}
}
