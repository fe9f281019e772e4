// SPDX-License-Identifier: Apache-2.0
// Copyright Authors of gwcore

// Package adjacency is the adjacency table: L3→L2 resolutions keyed by
// (ip, ifindex), refreshed periodically from the OS neighbor table and
// published through pkg/lrpub like every other table in this module.
package adjacency

import (
	"net/netip"

	"github.com/vpcfabric/gwcore/pkg/netaddr"
)

// Adjacency is a single resolved (ip, ifindex) -> mac binding.
type Adjacency struct {
	IP      netip.Addr
	IfIndex netaddr.IfIndex
	Mac     netaddr.Mac
}

type key struct {
	ip      netip.Addr
	ifindex netaddr.IfIndex
}

// Table is the keyed collection of Adjacencies.
type Table struct {
	byKey map[key]Adjacency
}

// New returns an empty adjacency table.
func New() Table {
	return Table{byKey: map[key]Adjacency{}}
}

// Clone implements lrpub.Cloner.
func (t Table) Clone() Table {
	out := Table{byKey: make(map[key]Adjacency, len(t.byKey))}
	for k, v := range t.byKey {
		out.byKey[k] = v
	}
	return out
}

func (t Table) add(a Adjacency) {
	t.byKey[key{ip: a.IP, ifindex: a.IfIndex}] = a
}

func (t Table) clear() {
	clear(t.byKey)
}

func (t Table) Len() int { return len(t.byKey) }

func (t Table) Get(ip netip.Addr, ifindex netaddr.IfIndex) (Adjacency, bool) {
	a, ok := t.byKey[key{ip: ip, ifindex: ifindex}]
	return a, ok
}

// Values returns a snapshot slice of all adjacencies.
func (t Table) Values() []Adjacency {
	out := make([]Adjacency, 0, len(t.byKey))
	for _, v := range t.byKey {
		out = append(out, v)
	}
	return out
}

// AddOp is an lrpub.Op[Table] that adds or replaces a single adjacency.
type AddOp struct {
	Adjacency Adjacency
}

func (o AddOp) Apply(write, _ *Table) {
	write.add(o.Adjacency)
}

// DeleteOp is an lrpub.Op[Table] that removes the adjacency for (ip, ifindex),
// if present.
type DeleteOp struct {
	IP      netip.Addr
	IfIndex netaddr.IfIndex
}

func (o DeleteOp) Apply(write, _ *Table) {
	delete(write.byKey, key{ip: o.IP, ifindex: o.IfIndex})
}

// ReplaceAllOp is the clear+bulk-add op the resolver uses every poll cycle:
// the whole table is replaced with the freshly-read set of adjacencies in
// one atomic publication, rather than diffed entry by entry.
type ReplaceAllOp struct {
	Adjacencies []Adjacency
}

func (o ReplaceAllOp) Apply(write, _ *Table) {
	write.clear()
	for _, a := range o.Adjacencies {
		write.add(a)
	}
}
