// SPDX-License-Identifier: Apache-2.0
// Copyright Authors of gwcore

package flowtable

import (
	"context"
	"fmt"
	"time"

	"github.com/cilium/workerpool"
)

// DefaultReapPeriod is how often each shard's queue is swept for expired
// entries when driven by a Reaper.
const DefaultReapPeriod = 250 * time.Millisecond

// OnExpired decides what happens to a popped, possibly-stale entry; see
// Evaluate for the default decision table.
type OnExpired[K comparable, V any] func(key K, value V, info *Info) Decision

// OnReaped is invoked once a flow is finalized and removed from its queue.
type OnReaped[K comparable, V any] func(key K, value V)

// Reaper drives one cooperative reaping goroutine per shard of a Table,
// using a worker pool so each shard's sweep runs independently: a slow
// onReaped callback on one shard never delays another shard's reaping.
type Reaper[K comparable, V any] struct {
	table     *Table[K, V]
	period    time.Duration
	onExpired OnExpired[K, V]
	onReaped  OnReaped[K, V]
	wp        *workerpool.WorkerPool
}

// NewReaper returns a Reaper over table, sweeping every period. If
// onExpired is nil, Evaluate is used as the default decision function.
func NewReaper[K comparable, V any](table *Table[K, V], period time.Duration, onExpired OnExpired[K, V], onReaped OnReaped[K, V]) *Reaper[K, V] {
	if period <= 0 {
		period = DefaultReapPeriod
	}
	if onExpired == nil {
		onExpired = func(_ K, _ V, info *Info) Decision {
			return Evaluate(info, time.Now())
		}
	}
	return &Reaper[K, V]{table: table, period: period, onExpired: onExpired, onReaped: onReaped}
}

// Start spawns one worker per shard, each ticking at the reaper's period
// and sweeping its own shard. Starting an already-started Reaper is a
// no-op.
func (r *Reaper[K, V]) Start() error {
	if r.wp != nil {
		return nil
	}
	r.wp = workerpool.New(r.table.Shards())
	for i := 0; i < r.table.Shards(); i++ {
		shard := r.table.Shard(i)
		name := fmt.Sprintf("flowtable-shard-%d", i)
		if err := r.wp.Submit(name, func(ctx context.Context) error {
			return r.runShard(ctx, shard)
		}); err != nil {
			return err
		}
	}
	return nil
}

func (r *Reaper[K, V]) runShard(ctx context.Context, shard *Queue[K, V]) error {
	ticker := time.NewTicker(r.period)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case now := <-ticker.C:
			shard.ReapExpired(now, func(key K, value V, info *Info, now time.Time) Decision {
				return r.onExpired(key, value, info)
			}, r.onReaped)
		}
	}
}

// Stop closes the worker pool, cancelling every shard's reap loop and
// blocking until all have returned.
func (r *Reaper[K, V]) Stop() error {
	if r.wp == nil {
		return nil
	}
	err := r.wp.Close()
	r.wp = nil
	return err
}
