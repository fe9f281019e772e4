// SPDX-License-Identifier: Apache-2.0
// Copyright Authors of gwcore

package vpcmap

import (
	"github.com/vpcfabric/gwcore/pkg/gwerr"
	"github.com/vpcfabric/gwcore/pkg/netaddr"
)

// Pair is implemented by entries stored in a PairMap: something that names
// an east and a west VpcDiscriminant and can hand back side-specific data
// for either one.
type Pair[D any] interface {
	EastDisc() netaddr.VpcDiscriminant
	WestDisc() netaddr.VpcDiscriminant
	EastData() D
	WestData() D
}

type pairKey struct {
	a, b netaddr.VpcDiscriminant
}

// PairMap stores one entry per unordered pair of VpcDiscriminants, reachable
// by querying either (east, west) or (west, east) — the two orderings share
// the same stored entry, so one cannot exist without the other.
type PairMap[P Pair[D], D any] struct {
	entries map[pairKey]P
}

// NewPairMap returns an empty PairMap.
func NewPairMap[P Pair[D], D any]() PairMap[P, D] {
	return PairMap[P, D]{entries: map[pairKey]P{}}
}

// Clone implements lrpub.Cloner.
func (m PairMap[P, D]) Clone() PairMap[P, D] {
	out := PairMap[P, D]{entries: make(map[pairKey]P, len(m.entries))}
	for k, v := range m.entries {
		out.entries[k] = v
	}
	return out
}

// Add inserts entry under both (east, west) and (west, east). Storing an
// entry with east == west is a caller bug, not a recoverable error — it
// panics.
func (m PairMap[P, D]) Add(entry P) error {
	east, west := entry.EastDisc(), entry.WestDisc()
	if east == west {
		panic("vpcmap: pair with identical east and west discriminants")
	}
	if _, ok := m.entries[pairKey{east, west}]; ok {
		return gwerr.EntryExists(east.String() + "," + west.String())
	}
	m.entries[pairKey{east, west}] = entry
	m.entries[pairKey{west, east}] = entry
	return nil
}

// Del removes the entry for the (east, west) pair under both orderings.
func (m PairMap[P, D]) Del(east, west netaddr.VpcDiscriminant) {
	delete(m.entries, pairKey{east, west})
	delete(m.entries, pairKey{west, east})
}

// Get returns the entry stored for the (east, west) pair.
func (m PairMap[P, D]) Get(east, west netaddr.VpcDiscriminant) (P, bool) {
	v, ok := m.entries[pairKey{east, west}]
	return v, ok
}

// OrderedGet returns (data-for-east-as-queried, data-for-west-as-queried): a
// query of (3000, 4000) and a query of (4000, 3000) against the same stored
// entry return the two D values in opposite order, matching the
// directionality forward/return NAT lookups need.
func (m PairMap[P, D]) OrderedGet(east, west netaddr.VpcDiscriminant) (eastData, westData D, ok bool) {
	entry, found := m.entries[pairKey{east, west}]
	if !found {
		return eastData, westData, false
	}
	return sidedData(entry, east), sidedData(entry, west), true
}

func sidedData[P Pair[D], D any](entry P, disc netaddr.VpcDiscriminant) D {
	switch disc {
	case entry.EastDisc():
		return entry.EastData()
	case entry.WestDisc():
		return entry.WestData()
	default:
		panic("vpcmap: discriminant belongs to neither side of the pair")
	}
}

func (m PairMap[P, D]) Len() int { return len(m.entries) }

// PairAddOp is an lrpub.Op[PairMap[P, D]] that adds a pair entry.
type PairAddOp[P Pair[D], D any] struct {
	Entry P
	Err   *error
}

func (o *PairAddOp[P, D]) Apply(write, _ *PairMap[P, D]) {
	err := write.Add(o.Entry)
	if o.Err != nil {
		*o.Err = err
	}
}

// PairDelOp is an lrpub.Op[PairMap[P, D]] that removes a pair entry.
type PairDelOp[P Pair[D], D any] struct {
	East, West netaddr.VpcDiscriminant
}

func (o PairDelOp[P, D]) Apply(write, _ *PairMap[P, D]) {
	write.Del(o.East, o.West)
}
