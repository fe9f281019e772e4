// SPDX-License-Identifier: Apache-2.0
// Copyright Authors of gwcore

package iftable

import (
	"maps"

	"github.com/vpcfabric/gwcore/pkg/netaddr"
)

// IfTable is the keyed collection of Interfaces, published through
// pkg/lrpub.
type IfTable struct {
	byIndex map[netaddr.IfIndex]Interface
}

// New returns an empty interface table.
func New() IfTable {
	return IfTable{byIndex: map[netaddr.IfIndex]Interface{}}
}

// Clone implements lrpub.Cloner.
func (t IfTable) Clone() IfTable {
	out := IfTable{byIndex: make(map[netaddr.IfIndex]Interface, len(t.byIndex))}
	for k, v := range t.byIndex {
		v.Addresses = maps.Clone(v.Addresses)
		out.byIndex[k] = v
	}
	return out
}

func (t IfTable) Len() int { return len(t.byIndex) }

func (t IfTable) Contains(ifindex netaddr.IfIndex) bool {
	_, ok := t.byIndex[ifindex]
	return ok
}

func (t IfTable) Get(ifindex netaddr.IfIndex) (Interface, bool) {
	iface, ok := t.byIndex[ifindex]
	return iface, ok
}

// Values returns a snapshot slice of all interfaces, for range-and-read
// callers that don't want to hold the guard across iteration.
func (t IfTable) Values() []Interface {
	out := make([]Interface, 0, len(t.byIndex))
	for _, v := range t.byIndex {
		out = append(out, v)
	}
	return out
}
