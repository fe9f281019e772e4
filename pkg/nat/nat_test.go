// SPDX-License-Identifier: Apache-2.0
// Copyright Authors of gwcore

package nat

import (
	"net/netip"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vpcfabric/gwcore/pkg/gwerr"
	"github.com/vpcfabric/gwcore/pkg/netaddr"
)

func mustVni(v uint32) netaddr.Vni {
	vni, err := netaddr.NewVniChecked(v)
	if err != nil {
		panic(err)
	}
	return vni
}

func prefixes(ss ...string) []netaddr.Prefix {
	out := make([]netaddr.Prefix, len(ss))
	for i, s := range ss {
		out[i] = netaddr.MustPrefix(s)
	}
	return out
}

// TestNatMappingMatchesScenario covers a multi-range expose/withhold
// configuration end to end: mapping a source address to its translated
// form.
func TestNatMappingMatchesScenario(t *testing.T) {
	expose := Expose{
		IPs:     prefixes("1.1.0.0/16", "1.2.0.0/16"),
		Nots:    prefixes("1.1.1.0/24", "1.1.3.0/24", "1.1.5.0/24", "1.2.2.0/24"),
		AsRange: prefixes("2.1.0.0/16", "2.2.0.0/16"),
		NotAs:   prefixes("2.1.1.0/24", "2.1.2.0/24", "2.1.8.0/24", "2.1.10.0/24"),
	}
	require.NoError(t, expose.Validate())

	ranges, err := natRanges(expose, false)
	require.NoError(t, err)
	table := NewRuleTable(ranges)

	got, ok := table.Lookup(netip.MustParseAddr("1.2.3.4"))
	require.True(t, ok)
	assert.Equal(t, netip.MustParseAddr("2.2.0.4"), got)
}

func TestValidateRejectsSizeMismatch(t *testing.T) {
	expose := Expose{
		IPs:     prefixes("10.0.0.0/24"),
		AsRange: prefixes("10.1.0.0/25"),
	}
	err := expose.Validate()
	require.Error(t, err)
	assert.True(t, gwerr.Is(err, gwerr.KindValidation))
	assert.Contains(t, err.Error(), "MismatchedPrefixSizes")
}

func TestValidateAllowsEmptyAsRange(t *testing.T) {
	expose := Expose{IPs: prefixes("10.0.0.0/24"), Nots: prefixes("10.0.0.128/25")}
	assert.NoError(t, expose.Validate())
}

func TestLookupMissOutsideAnyRange(t *testing.T) {
	table := NewRuleTable([]NatTableValue{{
		OrigRangeStart:   netip.MustParseAddr("10.0.0.0"),
		OrigRangeEnd:     netip.MustParseAddr("10.0.0.255"),
		TargetRangeStart: netip.MustParseAddr("192.168.0.0"),
	}})
	_, ok := table.Lookup(netip.MustParseAddr("10.0.1.1"))
	assert.False(t, ok)

	got, ok := table.Lookup(netip.MustParseAddr("10.0.0.10"))
	require.True(t, ok)
	assert.Equal(t, netip.MustParseAddr("192.168.0.10"), got)
}

func TestAddPeeringInstallsBothDirections(t *testing.T) {
	eastVni := mustVni(100)
	westVni := mustVni(200)

	peering := Peering{
		EastVni: eastVni,
		EastExpose: Expose{
			IPs:     prefixes("10.0.0.0/24"),
			AsRange: prefixes("172.16.0.0/24"),
		},
		WestVni: westVni,
		WestExpose: Expose{
			IPs:     prefixes("10.1.0.0/24"),
			AsRange: prefixes("172.17.0.0/24"),
		},
	}

	tbl, err := BuildConfiguration([]Peering{peering})
	require.NoError(t, err)

	eastTable, ok := tbl.Get(eastVni)
	require.True(t, ok)
	assert.Equal(t, 1, eastTable.DstNat.Len())
	westSrc, ok := eastTable.SrcNat[westVni]
	require.True(t, ok)
	assert.Equal(t, 1, westSrc.Len())

	westTable, ok := tbl.Get(westVni)
	require.True(t, ok)
	assert.Equal(t, 1, westTable.DstNat.Len())
	eastSrc, ok := westTable.SrcNat[eastVni]
	require.True(t, ok)
	assert.Equal(t, 1, eastSrc.Len())

	// East's own source-NAT table (used sending to west) rewrites east's
	// own private addresses to east's own public range.
	gotEastSrc, ok := westSrc.Lookup(netip.MustParseAddr("10.0.0.5"))
	require.True(t, ok)
	assert.Equal(t, netip.MustParseAddr("172.16.0.5"), gotEastSrc)

	// West's own source-NAT table (used sending to east) rewrites west's
	// own private addresses to west's own public range.
	gotWestSrc, ok := eastSrc.Lookup(netip.MustParseAddr("10.1.0.7"))
	require.True(t, ok)
	assert.Equal(t, netip.MustParseAddr("172.17.0.7"), gotWestSrc)

	// East's destination-NAT table rewrites west's public range to west's
	// private range: east addresses packets to west's public address.
	gotEastDst, ok := eastTable.DstNat.Lookup(netip.MustParseAddr("172.17.0.5"))
	require.True(t, ok)
	assert.Equal(t, netip.MustParseAddr("10.1.0.5"), gotEastDst)

	// West's destination-NAT table rewrites east's public range to east's
	// private range: west addresses packets to east's public address.
	gotWestDst, ok := westTable.DstNat.Lookup(netip.MustParseAddr("172.16.0.9"))
	require.True(t, ok)
	assert.Equal(t, netip.MustParseAddr("10.0.0.9"), gotWestDst)
}
