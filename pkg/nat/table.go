// SPDX-License-Identifier: Apache-2.0
// Copyright Authors of gwcore

package nat

import (
	"math/big"
	"net/netip"
	"sort"

	"github.com/vpcfabric/gwcore/pkg/netaddr"
)

// RuleTable is a sorted, disjoint set of NatTableValue ranges for one
// address family, supporting last-range-before-or-at lookup via binary
// search. IPv4 and IPv6 ranges are kept in separate slices since a lookup
// never crosses families.
type RuleTable struct {
	v4 []NatTableValue
	v6 []NatTableValue
}

// NewRuleTable builds a sorted RuleTable from an unordered slice of values.
func NewRuleTable(values []NatTableValue) RuleTable {
	var rt RuleTable
	for _, v := range values {
		if v.OrigRangeStart.Is4() {
			rt.v4 = append(rt.v4, v)
		} else {
			rt.v6 = append(rt.v6, v)
		}
	}
	less := func(s []NatTableValue) func(i, j int) bool {
		return func(i, j int) bool { return s[i].OrigRangeStart.Less(s[j].OrigRangeStart) }
	}
	sort.Slice(rt.v4, less(rt.v4))
	sort.Slice(rt.v6, less(rt.v6))
	return rt
}

// Clone returns an independent copy.
func (rt RuleTable) Clone() RuleTable {
	out := RuleTable{
		v4: append([]NatTableValue{}, rt.v4...),
		v6: append([]NatTableValue{}, rt.v6...),
	}
	return out
}

// Lookup translates addr if it falls within one of the table's ranges.
func (rt RuleTable) Lookup(addr netip.Addr) (netip.Addr, bool) {
	ranges := rt.v6
	if addr.Is4() {
		ranges = rt.v4
	}
	// Find the last range whose start is <= addr.
	i := sort.Search(len(ranges), func(i int) bool {
		return addr.Less(ranges[i].OrigRangeStart)
	}) - 1
	if i < 0 {
		return netip.Addr{}, false
	}
	r := ranges[i]
	if addr.Compare(r.OrigRangeEnd) > 0 {
		return netip.Addr{}, false
	}
	offset := addrSpan(r.OrigRangeStart, addr)
	offset.Sub(offset, big.NewInt(1))
	return addrAdvance(r.TargetRangeStart, offset), true
}

func (rt RuleTable) Len() int { return len(rt.v4) + len(rt.v6) }

// Contains reports whether addr falls within one of the table's ranges,
// without computing the translated address.
func (rt RuleTable) Contains(addr netip.Addr) bool {
	_, ok := rt.Lookup(addr)
	return ok
}

// PerVniTable is one source-VNI's NAT rules: one destination-NAT table
// shared across all peers, and one source-NAT table per destination VNI.
type PerVniTable struct {
	Vni    netaddr.Vni
	DstNat RuleTable
	SrcNat map[netaddr.Vni]RuleTable
}

// NewPerVniTable returns an empty table for vni.
func NewPerVniTable(vni netaddr.Vni) PerVniTable {
	return PerVniTable{Vni: vni, SrcNat: map[netaddr.Vni]RuleTable{}}
}

func (t PerVniTable) clone() PerVniTable {
	out := PerVniTable{Vni: t.Vni, DstNat: t.DstNat.Clone(), SrcNat: make(map[netaddr.Vni]RuleTable, len(t.SrcNat))}
	for k, v := range t.SrcNat {
		out.SrcNat[k] = v.Clone()
	}
	return out
}

// Tables is the full set of per-VNI NAT tables, keyed by source VNI.
type Tables struct {
	byVni map[netaddr.Vni]PerVniTable
}

// NewTables returns an empty Tables.
func NewTables() Tables {
	return Tables{byVni: map[netaddr.Vni]PerVniTable{}}
}

// Clone implements lrpub.Cloner.
func (t Tables) Clone() Tables {
	out := Tables{byVni: make(map[netaddr.Vni]PerVniTable, len(t.byVni))}
	for k, v := range t.byVni {
		out.byVni[k] = v.clone()
	}
	return out
}

// AddTable installs (or replaces) the PerVniTable for its own Vni.
func (t Tables) AddTable(table PerVniTable) {
	t.byVni[table.Vni] = table
}

// Get returns the PerVniTable for vni.
func (t Tables) Get(vni netaddr.Vni) (PerVniTable, bool) {
	table, ok := t.byVni[vni]
	return table, ok
}

func (t Tables) Len() int { return len(t.byVni) }

// SetTablesOp is an lrpub.Op[Tables] that wholesale-replaces the NAT table
// set, used when the control loop recompiles NAT from a fresh configuration
// rather than diffing peering by peering.
type SetTablesOp struct {
	Tables Tables
}

func (o SetTablesOp) Apply(write, _ *Tables) {
	*write = o.Tables.Clone()
}
