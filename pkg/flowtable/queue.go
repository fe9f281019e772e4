// SPDX-License-Identifier: Apache-2.0
// Copyright Authors of gwcore

package flowtable

import (
	"container/heap"
	"time"

	"github.com/vpcfabric/gwcore/pkg/lock"
)

// entry is one queued flow, ordered by its Info's expiry instant: earlier
// instants sort first, so the heap's root is always the next entry due for
// reaping.
type entry[K comparable, V any] struct {
	key   K
	value V
	info  *Info
	index int
}

type entryHeap[K comparable, V any] []*entry[K, V]

func (h entryHeap[K, V]) Len() int { return len(h) }
func (h entryHeap[K, V]) Less(i, j int) bool {
	return h[i].info.ExpiresAt().Before(h[j].info.ExpiresAt())
}
func (h entryHeap[K, V]) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
	h[i].index = i
	h[j].index = j
}
func (h *entryHeap[K, V]) Push(x any) {
	e := x.(*entry[K, V])
	e.index = len(*h)
	*h = append(*h, e)
}
func (h *entryHeap[K, V]) Pop() any {
	old := *h
	n := len(old)
	e := old[n-1]
	old[n-1] = nil
	e.index = -1
	*h = old[:n-1]
	return e
}

// Queue is one shard's priority queue: a min-heap by expiry instant plus a
// key index for O(log n) lookup, update, and removal.
type Queue[K comparable, V any] struct {
	mu      lock.Mutex
	heap    entryHeap[K, V]
	byKey   map[K]*entry[K, V]
}

// NewQueue returns an empty Queue.
func NewQueue[K comparable, V any]() *Queue[K, V] {
	return &Queue[K, V]{byKey: map[K]*entry[K, V]{}}
}

// Push inserts or replaces key's entry, returning the previous expiry and
// whether one existed.
func (q *Queue[K, V]) Push(key K, value V, expiresAt time.Time) (prev time.Time, existed bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if old, ok := q.byKey[key]; ok {
		prev = old.info.ExpiresAt()
		old.value = value
		old.info.SetExpiresAt(expiresAt)
		heap.Fix(&q.heap, old.index)
		return prev, true
	}

	e := &entry[K, V]{key: key, value: value, info: NewInfo(expiresAt)}
	q.byKey[key] = e
	heap.Push(&q.heap, e)
	return time.Time{}, false
}

// Info returns the live Info handle for key, so a data-plane worker can
// extend its expiry directly without going through the queue at all.
func (q *Queue[K, V]) Info(key K) (*Info, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	e, ok := q.byKey[key]
	if !ok {
		return nil, false
	}
	return e.info, true
}

// Remove deletes key outright, without invoking any reap callback. The
// entry's Info is marked Removed first, so a caller holding a reference to
// it (e.g. a data-plane worker mid-lookup) observes that it was withdrawn
// rather than expired.
func (q *Queue[K, V]) Remove(key K) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	e, ok := q.byKey[key]
	if !ok {
		return false
	}
	e.info.MarkRemoved()
	heap.Remove(&q.heap, e.index)
	delete(q.byKey, key)
	return true
}

func (q *Queue[K, V]) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.heap)
}

// ReapExpired pops every entry whose expiry is <= now, in expiry order, and
// applies the reap/update protocol: onExpired decides whether a popped
// entry is finalized (invoking onReaped and dropping it) or reinserted at
// a fresh expiry because it was extended after being queued.
func (q *Queue[K, V]) ReapExpired(now time.Time, onExpired func(K, V, *Info, time.Time) Decision, onReaped func(K, V)) {
	q.mu.Lock()
	defer q.mu.Unlock()

	// Workers extend expiry in place through Info, which leaves heap order
	// stale; restore it before reading the top.
	heap.Init(&q.heap)
	for len(q.heap) > 0 {
		top := q.heap[0]
		if top.info.ExpiresAt().After(now) {
			break
		}
		e := heap.Pop(&q.heap).(*entry[K, V])
		decision := onExpired(e.key, e.value, e.info, now)
		if decision.reap {
			delete(q.byKey, e.key)
			if onReaped != nil {
				onReaped(e.key, e.value)
			}
			continue
		}
		e.info.SetExpiresAt(decision.updated)
		heap.Push(&q.heap, e)
	}
}
