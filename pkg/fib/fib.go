// SPDX-License-Identifier: Apache-2.0
// Copyright Authors of gwcore

package fib

import (
	"net/netip"

	"github.com/gaissmai/bart"

	"github.com/vpcfabric/gwcore/pkg/netaddr"
)

// Fib is one VRF's compiled forwarding table: a longest-prefix-match trie
// from prefix to FibGroup, identified by the VRF's FibKey. gaissmai/bart
// keeps IPv4 and IPv6 in the same table and picks the right trie
// internally.
type Fib struct {
	Key   netaddr.FibKey
	table *bart.Table[FibGroup]
}

// New returns an empty Fib for the given VRF key.
func New(key netaddr.FibKey) Fib {
	return Fib{Key: key, table: new(bart.Table[FibGroup])}
}

// Clone implements lrpub.Cloner.
func (f Fib) Clone() Fib {
	return Fib{Key: f.Key, table: f.table.Clone()}
}

// Lookup performs the forwarding-path LPM: longest prefix covering dst, or
// ok=false if there is no route (the root sentinel).
func (f Fib) Lookup(dst netip.Addr) (FibGroup, bool) {
	return f.table.Lookup(dst)
}

// Get returns the FibGroup installed for the exact prefix, without LPM.
func (f Fib) Get(prefix netaddr.Prefix) (FibGroup, bool) {
	return f.table.Get(prefix.Std())
}

func (f Fib) Size() int { return f.table.Size() }

// InstallOp is an lrpub.Op[Fib] that installs (or replaces) the FibGroup for
// one prefix.
type InstallOp struct {
	Prefix netaddr.Prefix
	Group  FibGroup
}

func (o InstallOp) Apply(write, _ *Fib) {
	write.table.Insert(o.Prefix.Std(), o.Group)
}

// RemoveOp is an lrpub.Op[Fib] that withdraws the route for one prefix.
type RemoveOp struct {
	Prefix netaddr.Prefix
}

func (o RemoveOp) Apply(write, _ *Fib) {
	write.table.Delete(o.Prefix.Std())
}

// BatchOp is an lrpub.Op[Fib] that installs or removes several prefixes in
// one publication: recompute the affected FibGroups and publish the whole
// batch atomically.
type BatchOp struct {
	Install []InstallOp
	Remove  []RemoveOp
}

func (o BatchOp) Apply(write, read *Fib) {
	for _, op := range o.Remove {
		op.Apply(write, read)
	}
	for _, op := range o.Install {
		op.Apply(write, read)
	}
}
