// SPDX-License-Identifier: Apache-2.0
// Copyright Authors of gwcore

package nat

import (
	"github.com/vpcfabric/gwcore/pkg/netaddr"
)

// Peering describes one direction-agnostic VPC peering's NAT-relevant
// configuration: each side's VNI and its Expose rules.
type Peering struct {
	EastVni    netaddr.Vni
	EastExpose Expose
	WestVni    netaddr.Vni
	WestExpose Expose
}

// natRanges turns one side's Expose into a sorted NatTableValue list: the
// "public" direction (reversed=false) maps its own private addresses to its
// own public addresses, for the source-NAT table it uses when talking to a
// peer; the "private" direction (reversed=true) maps the same addresses the
// other way, public to private, for a peer's destination-NAT table when
// that peer addresses packets to this side's public range.
func natRanges(e Expose, reversed bool) ([]NatTableValue, error) {
	if err := e.Validate(); err != nil {
		return nil, err
	}
	if len(e.AsRange) == 0 {
		return nil, nil
	}
	origin, err := collapse(e.IPs, e.Nots)
	if err != nil {
		return nil, err
	}
	target, err := collapse(e.AsRange, e.NotAs)
	if err != nil {
		return nil, err
	}
	if reversed {
		return GenerateRanges(target, origin), nil
	}
	return GenerateRanges(origin, target), nil
}

// AddPeering compiles one Peering into tbl, installing source-NAT entries
// for each side under the peer's VNI (built from its own expose, private to
// public) and destination-NAT entries for each side under its own VNI
// (built from the peer's expose, public to private — the translation a
// side applies to packets arriving addressed to the peer's public range).
// Both directions of the peering are installed in a single call.
func AddPeering(tbl Tables, p Peering) error {
	eastPublic, err := natRanges(p.EastExpose, false)
	if err != nil {
		return err
	}
	eastPrivate, err := natRanges(p.EastExpose, true)
	if err != nil {
		return err
	}
	westPublic, err := natRanges(p.WestExpose, false)
	if err != nil {
		return err
	}
	westPrivate, err := natRanges(p.WestExpose, true)
	if err != nil {
		return err
	}

	eastTable, ok := tbl.Get(p.EastVni)
	if !ok {
		eastTable = NewPerVniTable(p.EastVni)
	}
	westTable, ok := tbl.Get(p.WestVni)
	if !ok {
		westTable = NewPerVniTable(p.WestVni)
	}

	// A side's destination-NAT table is shared across its peers: add this
	// peering's ranges to those installed by earlier peerings.
	mergeDst := func(rt RuleTable, values []NatTableValue) RuleTable {
		return NewRuleTable(append(append(append([]NatTableValue{}, rt.v4...), rt.v6...), values...))
	}
	if eastPublic != nil {
		eastTable.SrcNat[p.WestVni] = NewRuleTable(eastPublic)
	}
	if westPrivate != nil {
		eastTable.DstNat = mergeDst(eastTable.DstNat, westPrivate)
	}
	if westPublic != nil {
		westTable.SrcNat[p.EastVni] = NewRuleTable(westPublic)
	}
	if eastPrivate != nil {
		westTable.DstNat = mergeDst(westTable.DstNat, eastPrivate)
	}

	tbl.AddTable(eastTable)
	tbl.AddTable(westTable)
	return nil
}

// BuildConfiguration compiles a full set of peerings into a fresh Tables.
func BuildConfiguration(peerings []Peering) (Tables, error) {
	tbl := NewTables()
	for _, p := range peerings {
		if err := AddPeering(tbl, p); err != nil {
			return Tables{}, err
		}
	}
	return tbl, nil
}
