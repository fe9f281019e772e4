// SPDX-License-Identifier: Apache-2.0
// Copyright Authors of gwcore

package flowtable

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPushReplaceReturnsPreviousExpiry(t *testing.T) {
	q := NewQueue[string, int]()
	t0 := time.Unix(1000, 0)
	_, existed := q.Push("a", 1, t0)
	assert.False(t, existed)

	t1 := t0.Add(time.Second)
	prev, existed := q.Push("a", 2, t1)
	assert.True(t, existed)
	assert.True(t, prev.Equal(t0))
	assert.Equal(t, 1, q.Len())
}

// TestFlowExtensionRacesReap covers a worker extending a flow's expiry
// just before the reaper observes it, so the reaper must reinsert rather
// than finalize.
func TestFlowExtensionRacesReap(t *testing.T) {
	q := NewQueue[string, int]()
	t0 := time.Unix(1_000_000, 0)
	q.Push("flow", 1, t0)

	info, ok := q.Info("flow")
	require.True(t, ok)

	// Worker extends expiry by 5s at t0-1ms.
	info.ExtendExpiry(5 * time.Second)

	var reapedCalled bool
	now := t0.Add(time.Millisecond)
	q.ReapExpired(now, func(key string, value int, info *Info, now time.Time) Decision {
		return Evaluate(info, now)
	}, func(string, int) {
		reapedCalled = true
	})

	assert.False(t, reapedCalled)
	assert.Equal(t, 1, q.Len())

	gotInfo, ok := q.Info("flow")
	require.True(t, ok)
	assert.True(t, gotInfo.ExpiresAt().Equal(t0.Add(5*time.Second)))
}

func TestReapExpiredFinalizesPastDueEntry(t *testing.T) {
	q := NewQueue[string, int]()
	t0 := time.Unix(2_000_000, 0)
	q.Push("flow", 42, t0)

	var reapedKey string
	var reapedValue int
	q.ReapExpired(t0.Add(time.Second), func(key string, value int, info *Info, now time.Time) Decision {
		return Evaluate(info, now)
	}, func(key string, value int) {
		reapedKey = key
		reapedValue = value
	})

	assert.Equal(t, "flow", reapedKey)
	assert.Equal(t, 42, reapedValue)
	assert.Equal(t, 0, q.Len())
}

func TestReapExpiredStopsAtFirstUnexpiredEntry(t *testing.T) {
	q := NewQueue[string, int]()
	t0 := time.Unix(3_000_000, 0)
	q.Push("early", 1, t0)
	q.Push("late", 2, t0.Add(time.Hour))

	var reaped []string
	q.ReapExpired(t0.Add(time.Second), func(key string, value int, info *Info, now time.Time) Decision {
		return Evaluate(info, now)
	}, func(key string, value int) {
		reaped = append(reaped, key)
	})

	assert.Equal(t, []string{"early"}, reaped)
	assert.Equal(t, 1, q.Len())
}

func TestTableShardsAcrossKeys(t *testing.T) {
	table := NewTable[string, int](4, nil)
	now := time.Unix(4_000_000, 0)
	for i := 0; i < 20; i++ {
		table.Push(string(rune('a'+i)), i, now.Add(time.Duration(i)*time.Second))
	}
	assert.Equal(t, 20, table.Len())

	var reaped int
	table.ReapAllExpired(now.Add(25*time.Second), func(key string, value int, info *Info, now time.Time) Decision {
		return Evaluate(info, now)
	}, func(string, int) {
		reaped++
	})
	assert.Equal(t, 20, reaped)
	assert.Equal(t, 0, table.Len())
}

func TestRemoveDeletesWithoutCallback(t *testing.T) {
	q := NewQueue[string, int]()
	q.Push("a", 1, time.Unix(0, 0))
	assert.True(t, q.Remove("a"))
	assert.False(t, q.Remove("a"))
	assert.Equal(t, 0, q.Len())
}
