// SPDX-License-Identifier: Apache-2.0
// Copyright Authors of gwcore

// Package fib holds the packet-instruction vocabulary and the compiled
// forwarding objects: PktInstruction, FibEntry, FibGroup and the per-VRF
// published FIB itself. Optional fields are expressed as explicit
// has/value pairs since Go has no sum-type payloads to lean on.
package fib

import (
	"net/netip"

	"github.com/vpcfabric/gwcore/pkg/logging"
	"github.com/vpcfabric/gwcore/pkg/logging/logfields"
	"github.com/vpcfabric/gwcore/pkg/netaddr"
	"github.com/vpcfabric/gwcore/pkg/rmac"
)

// EncapKind discriminates an Encapsulation's variant.
type EncapKind int

const (
	EncapVxlan EncapKind = iota
	EncapMpls
)

// VxlanEncap is a VXLAN encapsulation instruction. Local/Smac/Dmac start
// unresolved (zero value) and are filled in by Resolve.
type VxlanEncap struct {
	Vni    netaddr.Vni
	Remote netip.Addr
	Local  netip.Addr
	Smac   netaddr.Mac
	Dmac   netaddr.Mac
	TTL    uint8
}

// Encapsulation is a tagged union of the encapsulation kinds this core
// understands. MplsLabel is carried for the Mpls variant; VXLAN details are
// carried in Vxlan.
type Encapsulation struct {
	Kind      EncapKind
	Vxlan     VxlanEncap
	MplsLabel uint32
}

// EgressObject names the interface and, optionally, next-hop address a
// packet should be sent out on. A missing Address means ARP/ND resolution
// is still required downstream.
type EgressObject struct {
	HasIfindex bool
	Ifindex    netaddr.IfIndex
	HasAddress bool
	Address    netip.Addr
	Ifname     string
}

// Merge folds other into e: an unset ifindex is filled in, a set address on
// other always wins (later address wins), and an unset ifname is filled in.
// Mirrors EgressObject::merge used while squashing a FibEntry.
func (e *EgressObject) Merge(other EgressObject) {
	if !e.HasIfindex && other.HasIfindex {
		e.Ifindex, e.HasIfindex = other.Ifindex, true
	}
	if other.HasAddress {
		e.Address, e.HasAddress = other.Address, true
	}
	if e.Ifname == "" && other.Ifname != "" {
		e.Ifname = other.Ifname
	}
}

// InstructionKind discriminates a PktInstruction's variant.
type InstructionKind int

const (
	InstDrop InstructionKind = iota
	InstLocal
	InstEncap
	InstEgress
)

// PktInstruction is one step of a compiled forwarding recipe.
type PktInstruction struct {
	Kind    InstructionKind
	Local   netaddr.IfIndex // InstLocal
	Encap   Encapsulation   // InstEncap
	Egress  EgressObject    // InstEgress
}

// Resolve fills in the runtime-dependent fields of an instruction: only
// InstEncap instructions carrying a VXLAN encapsulation need it.
func (i *PktInstruction) Resolve(rstore rmac.Store, vtep rmac.VtepConfig) {
	if i.Kind != InstEncap || i.Encap.Kind != EncapVxlan {
		return
	}
	v := &i.Encap.Vxlan
	v.Local = vtep.LocalAddress
	v.Smac = vtep.LocalMac
	if !vtep.LocalAddress.IsValid() {
		logging.DefaultLogger.Warn("vtep local address is not set")
	}
	if vtep.LocalMac.IsZero() {
		logging.DefaultLogger.Warn("vtep local mac is not set")
	}
	entry, ok := rstore.Get(v.Vni, v.Remote)
	if !ok {
		logging.DefaultLogger.Warn("router mac unknown",
			logfields.VNI, v.Vni.AsU32(), "remote", v.Remote)
		return
	}
	v.Dmac = entry.Mac
}

// FibEntry is a sequence of instructions executed in order for one path.
type FibEntry struct {
	Instructions []PktInstruction
}

// clone returns an independent copy of the entry.
func (e FibEntry) clone() FibEntry {
	out := FibEntry{Instructions: make([]PktInstruction, len(e.Instructions))}
	copy(out.Instructions, e.Instructions)
	return out
}

// Squash merges each strictly-adjacent run of Egress instructions produced
// while walking a resolver chain into (at most) one: later address wins,
// first ifindex wins, names merge. Egress instructions separated by an
// Encap (a nested encapsulation boundary) are not merged with each other.
// Non-egress instructions pass through untouched.
func (e *FibEntry) Squash() {
	if len(e.Instructions) <= 1 {
		return
	}
	out := make([]PktInstruction, 0, len(e.Instructions))
	var merged EgressObject
	var haveEgress bool
	flush := func() {
		if haveEgress && merged.HasIfindex {
			out = append(out, PktInstruction{Kind: InstEgress, Egress: merged})
		}
		merged = EgressObject{}
		haveEgress = false
	}
	for _, inst := range e.Instructions {
		if inst.Kind == InstEgress {
			merged.Merge(inst.Egress)
			haveEgress = true
			continue
		}
		flush()
		out = append(out, inst)
	}
	flush()
	e.Instructions = out
}

// IsLocal reports whether the entry is exactly a single Local instruction.
func (e FibEntry) IsLocal() bool {
	return len(e.Instructions) == 1 && e.Instructions[0].Kind == InstLocal
}

// VxlanVni returns the VNI of the entry's VXLAN encapsulation, if any.
func (e FibEntry) VxlanVni() (netaddr.Vni, bool) {
	for _, inst := range e.Instructions {
		if inst.Kind == InstEncap && inst.Encap.Kind == EncapVxlan {
			return inst.Encap.Vxlan.Vni, true
		}
	}
	return netaddr.Vni{}, false
}

// Resolve resolves every instruction in the entry in place.
func (e *FibEntry) Resolve(rstore rmac.Store, vtep rmac.VtepConfig) {
	for i := range e.Instructions {
		e.Instructions[i].Resolve(rstore, vtep)
	}
}

// FibGroup is the set of FibEntries usable to forward a packet matching one
// prefix. Represented as a slice rather than a set: groups are small, and
// duplicate entries are harmless (may even be exploited to weight paths).
type FibGroup struct {
	Entries []FibEntry
}

// AddEntry appends entry to the group.
func (g *FibGroup) AddEntry(entry FibEntry) {
	g.Entries = append(g.Entries, entry)
}

func (g FibGroup) Len() int { return len(g.Entries) }

// Clone implements bart's cloner interface for value types stored in a
// Table, and lrpub.Cloner for groups published on their own.
func (g FibGroup) Clone() FibGroup {
	out := FibGroup{Entries: make([]FibEntry, len(g.Entries))}
	for i, e := range g.Entries {
		out.Entries[i] = e.clone()
	}
	return out
}

// Resolve resolves every entry in the group in place.
func (g *FibGroup) Resolve(rstore rmac.Store, vtep rmac.VtepConfig) {
	for i := range g.Entries {
		g.Entries[i].Resolve(rstore, vtep)
	}
}
