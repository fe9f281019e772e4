// SPDX-License-Identifier: Apache-2.0
// Copyright Authors of gwcore

// Package flowtable is the flow-table expiration engine: per-shard priority
// queues of flow entries keyed by expiry instant, reaped by a cooperative
// loop that honors an atomic extend-expiry/status protocol on each entry so
// a data-plane worker can keep a hot flow alive without taking the queue's
// lock.
package flowtable

import (
	"sync/atomic"
	"time"
)

// Status is a flow entry's lifecycle state.
type Status int32

const (
	StatusActive Status = iota
	StatusExpired
	StatusRemoved
)

func (s Status) String() string {
	switch s {
	case StatusExpired:
		return "expired"
	case StatusRemoved:
		return "removed"
	default:
		return "active"
	}
}

// Info is the atomic expiry/status pair embedded in every flow entry. A
// data-plane worker extends expiry with a relaxed add; status changes only
// through compare-and-swap, by the reaper (expired) or by Queue.Remove
// (removed).
type Info struct {
	expiresAt atomic.Int64 // unix nanoseconds
	status    atomic.Int32
}

// NewInfo returns an Info expiring at expiresAt, initially active.
func NewInfo(expiresAt time.Time) *Info {
	info := &Info{}
	info.expiresAt.Store(expiresAt.UnixNano())
	return info
}

// ExpiresAt returns the current expiry instant.
func (i *Info) ExpiresAt() time.Time {
	return time.Unix(0, i.expiresAt.Load())
}

// ExtendExpiry pushes the expiry instant out by d. Cheap and lock-free: a
// relaxed fetch-add, safe to call from a data-plane worker on the hot path.
// The reaper's own re-read of expiresAt establishes a fresh view, so no
// stronger ordering is required here.
func (i *Info) ExtendExpiry(d time.Duration) {
	i.expiresAt.Add(int64(d))
}

// SetExpiresAt overwrites the expiry instant outright.
func (i *Info) SetExpiresAt(t time.Time) {
	i.expiresAt.Store(t.UnixNano())
}

// Status returns the current lifecycle state.
func (i *Info) Status() Status {
	return Status(i.status.Load())
}

// markExpired transitions status from Active to Expired via
// compare-and-swap, reporting whether this call performed the transition.
func (i *Info) markExpired() bool {
	return i.status.CompareAndSwap(int32(StatusActive), int32(StatusExpired))
}

// MarkRemoved transitions status to Removed unconditionally, for an entry
// withdrawn explicitly (Table.Remove) rather than reaped for inactivity.
func (i *Info) MarkRemoved() {
	i.status.Store(int32(StatusRemoved))
}

// Decision is what an onExpired callback tells the reaper to do with a
// popped entry.
type Decision struct {
	reap    bool
	updated time.Time
}

// Reap finalizes the entry: it is removed from the queue and on_reaped is
// invoked.
func Reap() Decision { return Decision{reap: true} }

// Update reinserts the entry at newExpiry without invoking on_reaped; used
// when the popped entry's expiry was stale because a worker extended it
// after it was queued.
func Update(newExpiry time.Time) Decision { return Decision{reap: false, updated: newExpiry} }

// Evaluate implements the on_expired decision table for a popped entry
// observed at now.
func Evaluate(info *Info, now time.Time) Decision {
	if info.Status() == StatusExpired {
		return Reap()
	}
	if expiry := info.ExpiresAt(); expiry.After(now) {
		return Update(expiry)
	}
	if info.markExpired() {
		return Reap()
	}
	// Lost the race to another reaper call; the winner already reaps it.
	return Reap()
}
