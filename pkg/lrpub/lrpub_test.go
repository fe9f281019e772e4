// SPDX-License-Identifier: Apache-2.0
// Copyright Authors of gwcore

package lrpub

import (
	"maps"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type intMap struct {
	m map[string]int
}

func (t intMap) Clone() intMap {
	return intMap{m: maps.Clone(t.m)}
}

type setOp struct {
	key   string
	value int
}

func (o setOp) Apply(write, _ *intMap) {
	write.m[o.key] = o.value
}

type delOp struct{ key string }

func (o delOp) Apply(write, _ *intMap) {
	delete(write.m, o.key)
}

func newTable() intMap { return intMap{m: map[string]int{}} }

func TestReadersBeforeAndAfterPublishSeeConsistentState(t *testing.T) {
	w, r := NewWriter(newTable())

	g1, ok := r.Enter()
	require.True(t, ok)
	before := maps.Clone(g1.Value().m)

	w.Append(setOp{"a", 1})
	w.Publish()

	g2, ok := r.Enter()
	require.True(t, ok)
	after := maps.Clone(g2.Value().m)

	g1.Close()
	g2.Close()

	assert.Empty(t, before)
	assert.Equal(t, map[string]int{"a": 1}, after)
}

func TestTwoReadersBeforePublishSeeIdenticalState(t *testing.T) {
	w, r := NewWriter(newTable())
	w.Append(setOp{"a", 1})
	w.Publish()

	g1, _ := r.Enter()
	g2, _ := r.Enter()
	defer g1.Close()
	defer g2.Close()

	assert.Equal(t, g1.Value().m, g2.Value().m)
}

func TestBothCopiesConvergeAfterPublish(t *testing.T) {
	w, r := NewWriter(newTable())
	w.Append(setOp{"a", 1})
	w.Publish()
	w.Append(setOp{"b", 2})
	w.Publish()

	g, ok := r.Enter()
	require.True(t, ok)
	defer g.Close()
	assert.Equal(t, map[string]int{"a": 1, "b": 2}, g.Value().m)

	// Both internal copies must have received every op twice by now: force
	// another publish cycle (which starts from the "stale" copy) and check
	// it still has everything.
	w.Append(delOp{"a"})
	w.Publish()
	g2, _ := r.Enter()
	defer g2.Close()
	assert.Equal(t, map[string]int{"b": 2}, g2.Value().m)
}

func TestEnterAfterCloseReturnsFalse(t *testing.T) {
	w, r := NewWriter(newTable())
	w.Close()
	_, ok := r.Enter()
	assert.False(t, ok)
}

func TestSyncWithReplacesWholeTable(t *testing.T) {
	w, r := NewWriter(newTable())
	w.SyncWith(intMap{m: map[string]int{"z": 9}})
	g, _ := r.Enter()
	defer g.Close()
	assert.Equal(t, map[string]int{"z": 9}, g.Value().m)
}

func TestConcurrentReadersDoNotBlockPublish(t *testing.T) {
	w, r := NewWriter(newTable())
	w.Append(setOp{"a", 1})
	w.Publish()

	var wg sync.WaitGroup
	stop := make(chan struct{})
	wg.Add(1)
	go func() {
		defer wg.Done()
		for {
			select {
			case <-stop:
				return
			default:
				g, ok := r.Enter()
				if ok {
					_ = g.Value().m["a"]
					g.Close()
				}
			}
		}
	}()

	for i := 0; i < 100; i++ {
		w.Append(setOp{"a", i})
		w.Publish()
	}
	close(stop)
	wg.Wait()

	g, _ := r.Enter()
	defer g.Close()
	assert.Equal(t, 99, g.Value().m["a"])
}
