// SPDX-License-Identifier: Apache-2.0
// Copyright Authors of gwcore

package rib

import (
	"github.com/gaissmai/bart"

	"github.com/vpcfabric/gwcore/pkg/fib"
	"github.com/vpcfabric/gwcore/pkg/netaddr"
	"github.com/vpcfabric/gwcore/pkg/rmac"
)

// Route is a route record's routing-protocol metadata, independent of its
// next-hops.
type Route struct {
	Origin   RouteOrigin
	Distance uint8
	Metric   uint32
}

// RouteRecord is what's stored at a prefix: the route's metadata plus shim
// references to its interned next-hops.
type RouteRecord struct {
	Route      Route
	ShimNhops  []*Nhop
	ShimKeys   []NhopKey
}

// Vrf owns one VRF's RIB: per-family LPM route tables plus the next-hop
// store that interns and resolves next-hops referenced by those routes.
// Vrf is not itself published through lrpub — only the compiled fib.Fib
// derived from it is; Vrf is private control-loop state.
type Vrf struct {
	Key    netaddr.FibKey
	Nhops  *NhopStore
	routes4 *bart.Table[*RouteRecord]
	routes6 *bart.Table[*RouteRecord]
}

// NewVrf returns an empty VRF keyed by key.
func NewVrf(key netaddr.FibKey) *Vrf {
	return &Vrf{
		Key:     key,
		Nhops:   NewNhopStore(),
		routes4: new(bart.Table[*RouteRecord]),
		routes6: new(bart.Table[*RouteRecord]),
	}
}

func (v *Vrf) tableFor(p netaddr.Prefix) *bart.Table[*RouteRecord] {
	if p.IsV4() {
		return v.routes4
	}
	return v.routes6
}

// lookupAddress performs the recursive-resolution LPM: the route record
// covering addr in this VRF, or ok=false if there is none (no route, or
// addr has no valid family match).
func (v *Vrf) lookupAddress(p netaddr.Prefix) (*RouteRecord, bool) {
	addr, ok := p.AsAddress()
	if !ok {
		return nil, false
	}
	if addr.Is4() {
		return v.routes4.Lookup(addr)
	}
	return v.routes6.Lookup(addr)
}

// AddRoute installs prefix → (route, routeNhops), interning each next-hop
// key into this VRF's store and, for newly-created entries, linking
// resolvers by recursively looking up the next-hop's own address — in vrf0
// when the key carries a VXLAN encapsulation (an underlay lookup), in this
// same VRF otherwise (intra-VRF recursion).
//
// It returns the set of prefixes (in this VRF) whose FibGroup needs
// recomputation: this route's own prefix, plus any route already present
// whose shim next-hops' resolver lists changed as a result — either because
// one of its next-hops was newly interned by this call, or because prefix
// is now the longest match for an already-interned next-hop's address and
// its resolver list must be recomputed to reflect that.
func (v *Vrf) AddRoute(prefix netaddr.Prefix, route Route, routeNhops []NhopKey, vrf0 *Vrf) []netaddr.Prefix {
	shims := make([]*Nhop, 0, len(routeNhops))
	for _, key := range routeNhops {
		nhop, created := v.Nhops.Intern(key)
		shims = append(shims, nhop)
		if created {
			v.linkResolvers(nhop, vrf0)
		}
	}

	rec := &RouteRecord{Route: route, ShimNhops: shims, ShimKeys: append([]NhopKey{}, routeNhops...)}
	v.tableFor(prefix).Insert(prefix.Std(), rec)

	affected := []netaddr.Prefix{prefix}
	affected = append(affected, v.recomputeResolversUnder(prefix, vrf0)...)
	return affected
}

// linkResolvers performs the recursive LPM lookup establishing a next-hop's
// resolver list. A next-hop with no address (e.g. a pure Drop or Local
// entry) has no resolvers — it is always a leaf.
func (v *Vrf) linkResolvers(n *Nhop, vrf0 *Vrf) {
	if !n.Key.HasAddress {
		return
	}
	target := v
	if n.Key.HasEncap {
		target = vrf0
	}
	p, err := netaddr.NewPrefix(n.Key.Address, addrBits(n.Key.Address))
	if err != nil {
		return
	}
	rec, ok := target.lookupAddress(p)
	if !ok {
		return
	}
	n.Resolvers = rec.ShimNhops
}

func addrBits(a interface{ Is4() bool }) int {
	if a.Is4() {
		return 32
	}
	return 128
}

// recomputeResolversUnder finds every next-hop interned in this VRF whose
// recursive LPM lookup resolves against this same VRF — either an
// intra-VRF next-hop, or (when v is vrf0) an underlay next-hop — and whose
// own address falls within changed, meaning changed may now be (or may no
// longer be) that next-hop's longest match. Each such next-hop has its
// resolver list recomputed via linkResolvers, and the prefixes of every
// route still referencing it are returned so their FibGroups get
// recompiled. changed itself is excluded, since the caller already
// accounts for it.
func (v *Vrf) recomputeResolversUnder(changed netaddr.Prefix, vrf0 *Vrf) []netaddr.Prefix {
	var relinked []NhopKey
	for _, n := range v.Nhops.All() {
		if !n.Key.HasAddress {
			continue
		}
		target := v
		if n.Key.HasEncap {
			target = vrf0
		}
		if target != v {
			continue
		}
		if !changed.Std().Contains(n.Key.Address) {
			continue
		}
		v.linkResolvers(n, vrf0)
		relinked = append(relinked, n.Key)
	}
	if len(relinked) == 0 {
		return nil
	}
	return v.prefixesReferencing(relinked, changed)
}

// prefixesReferencing scans both route tables for records whose shim keys
// include one of keys, excluding exclude (the route the caller already
// accounts for).
func (v *Vrf) prefixesReferencing(keys []NhopKey, exclude netaddr.Prefix) []netaddr.Prefix {
	keySet := make(map[NhopKey]struct{}, len(keys))
	for _, k := range keys {
		keySet[k] = struct{}{}
	}
	var out []netaddr.Prefix
	scan := func(t *bart.Table[*RouteRecord]) {
		for p, rec := range t.All() {
			pfx, err := netaddr.NewPrefix(p.Addr(), p.Bits())
			if err != nil || pfx == exclude {
				continue
			}
			for _, k := range rec.ShimKeys {
				if _, ok := keySet[k]; ok {
					out = append(out, pfx)
					break
				}
			}
		}
	}
	scan(v.routes4)
	scan(v.routes6)
	return out
}

// DeleteRoute removes the route record at prefix, releasing its shim
// next-hops. Deleting an unknown prefix is a no-op (returns nil).
//
// It returns the set of prefixes (in this VRF) whose FibGroup needs
// recomputation: prefix's own FibGroup must be torn down, and any
// already-interned next-hop whose longest match was prefix now resolves
// differently (to a shorter-matching route, or to none), so every route
// still referencing such a next-hop needs its FibGroup recompiled too.
func (v *Vrf) DeleteRoute(prefix netaddr.Prefix, vrf0 *Vrf) []netaddr.Prefix {
	rec, ok := v.tableFor(prefix).Get(prefix.Std())
	if !ok {
		return nil
	}
	for _, k := range rec.ShimKeys {
		v.Nhops.Release(k)
	}
	v.tableFor(prefix).Delete(prefix.Std())

	affected := []netaddr.Prefix{prefix}
	affected = append(affected, v.recomputeResolversUnder(prefix, vrf0)...)
	return affected
}

// RefreshFib recomputes and resolves the FibGroup for each of the given
// prefixes from their current route record, returning the Fib operations
// ready to append to a fib.Fib's lrpub.Writer.
func (v *Vrf) RefreshFib(prefixes []netaddr.Prefix, rstore rmac.Store, vtep rmac.VtepConfig) fib.BatchOp {
	var batch fib.BatchOp
	seen := make(map[netaddr.Prefix]struct{}, len(prefixes))
	for _, p := range prefixes {
		if _, dup := seen[p]; dup {
			continue
		}
		seen[p] = struct{}{}
		rec, ok := v.tableFor(p).Get(p.Std())
		if !ok {
			batch.Remove = append(batch.Remove, fib.RemoveOp{Prefix: p})
			continue
		}
		var group fib.FibGroup
		for _, nhop := range rec.ShimNhops {
			nhop.RefreshFibGroup(rstore, vtep)
			group.Entries = append(group.Entries, nhop.FibGroup().Entries...)
		}
		batch.Install = append(batch.Install, fib.InstallOp{Prefix: p, Group: group})
	}
	return batch
}
