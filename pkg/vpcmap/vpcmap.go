// SPDX-License-Identifier: Apache-2.0
// Copyright Authors of gwcore

// Package vpcmap is the generic per-VPC and per-VPC-pair data store (spec
// component C9): tables that associate arbitrary data to a VpcDiscriminant,
// or to an unordered pair of them, published through pkg/lrpub the same way
// every other table in this module is.
package vpcmap

import (
	"github.com/vpcfabric/gwcore/pkg/gwerr"
	"github.com/vpcfabric/gwcore/pkg/netaddr"
)

// Map associates arbitrary data T with a VpcDiscriminant. T is expected to
// be a plain value type: Clone performs a shallow copy of the map, which is
// only deep enough if T itself carries no shared mutable state.
type Map[T any] struct {
	entries map[netaddr.VpcDiscriminant]T
}

// NewMap returns an empty Map.
func NewMap[T any]() Map[T] {
	return Map[T]{entries: map[netaddr.VpcDiscriminant]T{}}
}

// Clone implements lrpub.Cloner.
func (m Map[T]) Clone() Map[T] {
	out := Map[T]{entries: make(map[netaddr.VpcDiscriminant]T, len(m.entries))}
	for k, v := range m.entries {
		out.entries[k] = v
	}
	return out
}

// Add inserts entry under disc, failing with EntryExists if one is already
// present.
func (m Map[T]) Add(disc netaddr.VpcDiscriminant, entry T) error {
	if _, ok := m.entries[disc]; ok {
		return gwerr.EntryExists(disc.String())
	}
	m.entries[disc] = entry
	return nil
}

// Set inserts or replaces entry under disc unconditionally.
func (m Map[T]) Set(disc netaddr.VpcDiscriminant, entry T) {
	m.entries[disc] = entry
}

// Del removes the entry for disc, if any. It never fails.
func (m Map[T]) Del(disc netaddr.VpcDiscriminant) {
	delete(m.entries, disc)
}

// Get returns the entry for disc, if present.
func (m Map[T]) Get(disc netaddr.VpcDiscriminant) (T, bool) {
	v, ok := m.entries[disc]
	return v, ok
}

func (m Map[T]) Len() int { return len(m.entries) }

// AddOp is an lrpub.Op[Map[T]] that adds an entry, recording any error.
type AddOp[T any] struct {
	Disc  netaddr.VpcDiscriminant
	Entry T
	Err   *error
}

func (o *AddOp[T]) Apply(write, _ *Map[T]) {
	err := write.Add(o.Disc, o.Entry)
	if o.Err != nil {
		*o.Err = err
	}
}

// DelOp is an lrpub.Op[Map[T]] that removes an entry.
type DelOp[T any] struct {
	Disc netaddr.VpcDiscriminant
}

func (o DelOp[T]) Apply(write, _ *Map[T]) {
	write.Del(o.Disc)
}

// SetMapOp is an lrpub.Op[Map[T]] that wholesale-replaces the map, useful
// when the table is rebuilt from a fresh configuration rather than diffed
// entry by entry (e.g. NAT table recompilation).
type SetMapOp[T any] struct {
	Map Map[T]
}

func (o SetMapOp[T]) Apply(write, _ *Map[T]) {
	*write = o.Map.Clone()
}
