// SPDX-License-Identifier: Apache-2.0
// Copyright Authors of gwcore

// Package rmac is the EVPN router-MAC store: the per-(remote VTEP address,
// VNI) mapping to the remote router's MAC, used to build the inner
// destination MAC of VXLAN-encapsulated packets, plus the local VTEP's own
// address/MAC pair.
package rmac

import (
	"net/netip"

	"github.com/vpcfabric/gwcore/pkg/netaddr"
)

// Entry is a single router-MAC mapping.
type Entry struct {
	Address netip.Addr
	Mac     netaddr.Mac
	Vni     netaddr.Vni
}

type key struct {
	addr netip.Addr
	vni  netaddr.Vni
}

// Store is a collection of EVPN router-MAC entries, keyed by (address, vni).
// Not safe for concurrent use on its own; callers publish it through
// pkg/lrpub the same way as every other table in this module.
type Store struct {
	entries map[key]Entry
}

// New returns an empty router-MAC store.
func New() Store {
	return Store{entries: map[key]Entry{}}
}

// Clone implements lrpub.Cloner.
func (s Store) Clone() Store {
	out := Store{entries: make(map[key]Entry, len(s.entries))}
	for k, v := range s.entries {
		out.entries[k] = v
	}
	return out
}

// Add inserts or replaces the router-MAC entry for (vni, address), returning
// the previous entry if one existed.
func (s Store) Add(vni netaddr.Vni, address netip.Addr, mac netaddr.Mac) (Entry, bool) {
	k := key{addr: address, vni: vni}
	prev, had := s.entries[k]
	s.entries[k] = Entry{Address: address, Mac: mac, Vni: vni}
	return prev, had
}

// Delete removes the entry for (vni, address), but only if its mac matches —
// a sanity check mirroring the add/delete races this store is meant to
// tolerate. A mismatched mac is a silent no-op, not an error.
func (s Store) Delete(vni netaddr.Vni, address netip.Addr, mac netaddr.Mac) {
	k := key{addr: address, vni: vni}
	if existing, ok := s.entries[k]; ok && existing.Mac == mac {
		delete(s.entries, k)
	}
}

// Get looks up the router-MAC entry for (vni, address).
func (s Store) Get(vni netaddr.Vni, address netip.Addr) (Entry, bool) {
	e, ok := s.entries[key{addr: address, vni: vni}]
	return e, ok
}

// Len returns the number of entries in the store.
func (s Store) Len() int { return len(s.entries) }

// Values returns a snapshot slice of all entries.
func (s Store) Values() []Entry {
	out := make([]Entry, 0, len(s.entries))
	for _, v := range s.entries {
		out = append(out, v)
	}
	return out
}

// AddOp is an lrpub.Op[Store] that adds or replaces an rmac entry.
type AddOp struct {
	Vni     netaddr.Vni
	Address netip.Addr
	Mac     netaddr.Mac
}

func (o AddOp) Apply(write, _ *Store) {
	write.Add(o.Vni, o.Address, o.Mac)
}

// DeleteOp is an lrpub.Op[Store] that removes an rmac entry iff its mac
// still matches.
type DeleteOp struct {
	Vni     netaddr.Vni
	Address netip.Addr
	Mac     netaddr.Mac
}

func (o DeleteOp) Apply(write, _ *Store) {
	write.Delete(o.Vni, o.Address, o.Mac)
}

// VtepConfig is the local VTEP's own (address, mac) pair, used by the FIB
// compiler to fill in the outer source fields of encapsulation instructions.
type VtepConfig struct {
	LocalAddress netip.Addr
	LocalMac     netaddr.Mac
}
