// SPDX-License-Identifier: Apache-2.0
// Copyright Authors of gwcore

// Package rib is the per-VRF RIB and next-hop store: longest-prefix-match
// route tables, an interned next-hop store with resolver links forming a
// DAG, and the FIB-compiler entry points that turn a resolved next-hop
// into a fib.FibGroup. Next hops are interned by a comparable key, resolved
// recursively against a designated VRF's route table at insertion time, and
// the resulting resolver graph is acyclic by construction because a
// next-hop only links to already-interned resolvers.
package rib

import (
	"net/netip"

	"github.com/vpcfabric/gwcore/pkg/fib"
	"github.com/vpcfabric/gwcore/pkg/netaddr"
	"github.com/vpcfabric/gwcore/pkg/rmac"
)

// RouteOrigin classifies how a route was learned.
type RouteOrigin int

const (
	OriginLocal RouteOrigin = iota
	OriginConnected
	OriginStatic
	OriginOspf
	OriginIsis
	OriginBgp
	OriginOther
)

// FwAction is the terminal forwarding action for a next-hop lacking any
// other resolution.
type FwAction int

const (
	FwForward FwAction = iota
	FwDrop
)

// NhopKey is the interning key for a next-hop: two route next-hops with an
// identical key share one Nhop object. Comparable by value so it can be
// used directly as a map key; dmac in a Vxlan encap is always the zero
// value here (resolution fills it in on the cached instructions, not the
// key).
type NhopKey struct {
	Origin     RouteOrigin
	HasAddress bool
	Address    netip.Addr
	HasIfindex bool
	Ifindex    netaddr.IfIndex
	HasEncap   bool
	Encap      fib.Encapsulation
	FwAction   FwAction
	Ifname     string
}

// buildPktInstructions produces the flat instruction list for a next-hop's
// own key. It does not consult resolvers.
func (k NhopKey) buildPktInstructions() []fib.PktInstruction {
	if k.Origin == OriginLocal {
		return []fib.PktInstruction{{Kind: fib.InstLocal, Local: k.Ifindex}}
	}
	if k.FwAction == FwDrop {
		return []fib.PktInstruction{{Kind: fib.InstDrop}}
	}
	egress := func() fib.PktInstruction {
		return fib.PktInstruction{Kind: fib.InstEgress, Egress: fib.EgressObject{
			HasIfindex: k.HasIfindex,
			Ifindex:    k.Ifindex,
			HasAddress: k.HasAddress,
			Address:    k.Address,
			Ifname:     k.Ifname,
		}}
	}
	if k.HasEncap {
		return []fib.PktInstruction{{Kind: fib.InstEncap, Encap: k.Encap}, egress()}
	}
	if k.HasIfindex {
		return []fib.PktInstruction{egress()}
	}
	return nil
}

// Nhop is one interned next-hop: its key, its resolver list (already
// interned next-hops this one recurses through), and caches recomputed by
// RefreshFibGroup.
type Nhop struct {
	Key          NhopKey
	Resolvers    []*Nhop
	instructions []fib.PktInstruction
	group        fib.FibGroup
}

// ResolveInstructions recomputes and resolves this next-hop's own
// instruction list (dropping any prior one), without touching its
// resolvers' caches.
func (n *Nhop) ResolveInstructions(rstore rmac.Store, vtep rmac.VtepConfig) {
	n.instructions = n.Key.buildPktInstructions()
	for i := range n.instructions {
		n.instructions[i].Resolve(rstore, vtep)
	}
}

// AsFibEntryGroupLazy is the recursive group build: start from an empty
// FibEntry, append this next-hop's instructions, and recurse into each
// resolver; a leaf (no resolvers) commits a squashed copy of the
// accumulated entry.
func (n *Nhop) AsFibEntryGroupLazy() fib.FibGroup {
	var out fib.FibGroup
	n.appendEntryGroup(&out, fib.FibEntry{})
	return out
}

func (n *Nhop) appendEntryGroup(group *fib.FibGroup, entry fib.FibEntry) {
	entry.Instructions = append(append([]fib.PktInstruction{}, entry.Instructions...), n.instructions...)
	if len(n.Resolvers) == 0 {
		entry.Squash()
		group.AddEntry(entry)
		return
	}
	for _, resolver := range n.Resolvers {
		resolver.appendEntryGroup(group, entry)
	}
}

// RefreshFibGroup resolves the instructions of this next-hop and of every
// next-hop it recurses through, then recomputes its cached FibGroup from
// the current resolver graph.
func (n *Nhop) RefreshFibGroup(rstore rmac.Store, vtep rmac.VtepConfig) {
	var resolve func(m *Nhop)
	resolve = func(m *Nhop) {
		m.ResolveInstructions(rstore, vtep)
		for _, r := range m.Resolvers {
			resolve(r)
		}
	}
	resolve(n)
	n.group = n.AsFibEntryGroupLazy()
}

// FibGroup returns the next-hop's most recently computed FibGroup.
func (n *Nhop) FibGroup() fib.FibGroup { return n.group }
