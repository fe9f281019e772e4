// SPDX-License-Identifier: Apache-2.0
// Copyright Authors of gwcore

package flowtable

import (
	"fmt"
	"hash/maphash"
	"time"
)

// Hasher maps a key to a shard index; callers with a natural hash for K
// (e.g. a 5-tuple) should supply one. With a nil Hasher the table falls
// back to maphash over the key's string form.
type Hasher[K comparable] func(key K) uint64

// Table is a set of per-shard Queues, giving each data-plane worker its own
// priority queue. Sharding lets independent workers push and extend flows
// without contending on a single queue's lock; ReapAllExpired simply walks
// every shard.
type Table[K comparable, V any] struct {
	shards []*Queue[K, V]
	hash   Hasher[K]
	seed   maphash.Seed
}

// NewTable returns a Table with the given number of shards (normally one
// per data-plane worker thread). If hash is nil, keys are hashed generically
// via maphash over their string form — callers with a cheap natural hash
// (e.g. a flow 5-tuple) should supply one instead.
func NewTable[K comparable, V any](shards int, hash Hasher[K]) *Table[K, V] {
	if shards < 1 {
		shards = 1
	}
	t := &Table[K, V]{
		shards: make([]*Queue[K, V], shards),
		hash:   hash,
		seed:   maphash.MakeSeed(),
	}
	for i := range t.shards {
		t.shards[i] = NewQueue[K, V]()
	}
	return t
}

func (t *Table[K, V]) shardFor(key K) *Queue[K, V] {
	var h uint64
	if t.hash != nil {
		h = t.hash(key)
	} else {
		var mh maphash.Hash
		mh.SetSeed(t.seed)
		mh.WriteString(fmt.Sprintf("%v", key))
		h = mh.Sum64()
	}
	return t.shards[h%uint64(len(t.shards))]
}

// Push inserts or replaces key's entry in its shard.
func (t *Table[K, V]) Push(key K, value V, expiresAt time.Time) (prev time.Time, existed bool) {
	return t.shardFor(key).Push(key, value, expiresAt)
}

// Info returns the live Info handle for key.
func (t *Table[K, V]) Info(key K) (*Info, bool) {
	return t.shardFor(key).Info(key)
}

// Remove deletes key outright.
func (t *Table[K, V]) Remove(key K) bool {
	return t.shardFor(key).Remove(key)
}

// Len returns the total number of live entries across all shards.
func (t *Table[K, V]) Len() int {
	n := 0
	for _, q := range t.shards {
		n += q.Len()
	}
	return n
}

// ReapAllExpired walks every shard's queue, reaping everything expired as
// of now.
func (t *Table[K, V]) ReapAllExpired(now time.Time, onExpired func(K, V, *Info, time.Time) Decision, onReaped func(K, V)) {
	for _, q := range t.shards {
		q.ReapExpired(now, onExpired, onReaped)
	}
}

// Shards returns the number of shards, mainly so a reaper can size its
// worker pool to match.
func (t *Table[K, V]) Shards() int { return len(t.shards) }

// Shard returns the i'th shard's Queue directly, letting a reaper assign
// one worker goroutine per shard without re-hashing.
func (t *Table[K, V]) Shard(i int) *Queue[K, V] { return t.shards[i] }
