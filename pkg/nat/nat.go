// SPDX-License-Identifier: Apache-2.0
// Copyright Authors of gwcore

// Package nat is the VPC NAT compiler: it turns a VPC's expose rules into
// sorted, disjoint address ranges and derives constant-per-range stateless
// source/destination NAT mappings from them.
package nat

import (
	"math/big"
	"net/netip"

	"go4.org/netipx"

	"github.com/vpcfabric/gwcore/pkg/gwerr"
	"github.com/vpcfabric/gwcore/pkg/netaddr"
)

// Expose is one VPC's exposed address specification: the addresses it
// offers (minus exclusions) and, optionally, the addresses they are
// translated to for the peering (minus their own exclusions).
type Expose struct {
	IPs     []netaddr.Prefix
	Nots    []netaddr.Prefix
	AsRange []netaddr.Prefix
	NotAs   []netaddr.Prefix
}

// collapse builds the sorted, disjoint range set for include, minus
// exclude.
func collapse(include, exclude []netaddr.Prefix) ([]netipx.IPRange, error) {
	var b netipx.IPSetBuilder
	for _, p := range include {
		b.AddPrefix(p.Std())
	}
	for _, p := range exclude {
		b.RemovePrefix(p.Std())
	}
	set, err := b.IPSet()
	if err != nil {
		return nil, gwerr.Internal("collapsing nat prefixes", err)
	}
	return set.Ranges(), nil
}

func prefixesSize(prefixes []netaddr.Prefix) *big.Int {
	total := new(big.Int)
	for _, p := range prefixes {
		total.Add(total, p.Size())
	}
	return total
}

// Validate checks the size invariant: either AsRange is empty (pure
// source-side expose, no address translation) or the covered address
// counts must match up once exclusions are removed.
func (e Expose) Validate() error {
	if len(e.AsRange) == 0 {
		return nil
	}
	ips := prefixesSize(e.IPs)
	nots := prefixesSize(e.Nots)
	asRange := prefixesSize(e.AsRange)
	notAs := prefixesSize(e.NotAs)

	have := new(big.Int).Sub(ips, nots)
	want := new(big.Int).Sub(asRange, notAs)
	if have.Cmp(want) != 0 {
		return gwerr.MismatchedPrefixSizes(safeUint64(have), safeUint64(want))
	}
	return nil
}

func safeUint64(v *big.Int) uint64 {
	if !v.IsUint64() {
		return ^uint64(0)
	}
	return v.Uint64()
}

// NatTableValue is one contiguous range mapping: addresses in
// [OrigRangeStart, OrigRangeEnd] translate to a run starting at
// TargetRangeStart.
type NatTableValue struct {
	OrigRangeStart   netip.Addr
	OrigRangeEnd     netip.Addr
	TargetRangeStart netip.Addr
}

// GenerateRanges walks the collapsed origin and target range lists in
// sorted order and emits one NatTableValue per contiguous sub-run. The
// origin and target lists are assumed to cover the same total address
// count (callers validate this via Expose.Validate).
func GenerateRanges(origin, target []netipx.IPRange) []NatTableValue {
	var out []NatTableValue
	oi, ti := 0, 0
	var oCursor, tCursor netip.Addr
	oRemaining, tRemaining := false, false

	for oi < len(origin) && ti < len(target) {
		if !oRemaining {
			oCursor = origin[oi].From()
			oRemaining = true
		}
		if !tRemaining {
			tCursor = target[ti].From()
			tRemaining = true
		}

		oLen := addrSpan(oCursor, origin[oi].To())
		tLen := addrSpan(tCursor, target[ti].To())
		runLen := oLen
		if tLen.Cmp(runLen) < 0 {
			runLen = tLen
		}

		origEnd := addrAdvance(oCursor, new(big.Int).Sub(runLen, big.NewInt(1)))
		out = append(out, NatTableValue{
			OrigRangeStart:   oCursor,
			OrigRangeEnd:     origEnd,
			TargetRangeStart: tCursor,
		})

		if oLen.Cmp(runLen) == 0 {
			oi++
			oRemaining = false
		} else {
			oCursor = addrAdvance(oCursor, runLen)
		}
		if tLen.Cmp(runLen) == 0 {
			ti++
			tRemaining = false
		} else {
			tCursor = addrAdvance(tCursor, runLen)
		}
	}
	return out
}

// addrSpan returns to-from+1 as a count of addresses.
func addrSpan(from, to netip.Addr) *big.Int {
	f := new(big.Int).SetBytes(from.AsSlice())
	t := new(big.Int).SetBytes(to.AsSlice())
	return new(big.Int).Add(new(big.Int).Sub(t, f), big.NewInt(1))
}

// addrAdvance returns addr+delta, in the same address family.
func addrAdvance(addr netip.Addr, delta *big.Int) netip.Addr {
	v := new(big.Int).SetBytes(addr.AsSlice())
	v.Add(v, delta)
	buf := v.Bytes()
	width := 4
	if addr.Is6() {
		width = 16
	}
	padded := make([]byte, width)
	copy(padded[width-len(buf):], buf)
	a, _ := netip.AddrFromSlice(padded)
	if addr.Is4() {
		a = a.Unmap()
	}
	return a
}
