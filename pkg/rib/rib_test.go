// SPDX-License-Identifier: Apache-2.0
// Copyright Authors of gwcore

package rib

import (
	"net/netip"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vpcfabric/gwcore/pkg/fib"
	"github.com/vpcfabric/gwcore/pkg/netaddr"
	"github.com/vpcfabric/gwcore/pkg/rmac"
)

func mustVni(v uint32) netaddr.Vni {
	vni, err := netaddr.NewVniChecked(v)
	if err != nil {
		panic(err)
	}
	return vni
}

func mustIfIndex(ifindex netaddr.IfIndex) netaddr.IfIndex { return ifindex }

// TestVxlanRouteInstallAndResolve covers an overlay route whose next-hop
// resolves through an underlay route in a different VRF, ending in a
// VXLAN-encapsulating FibEntry.
func TestVxlanRouteInstallAndResolve(t *testing.T) {
	vrf0 := NewVrf(netaddr.FibKeyFromID(0))
	vrf3 := NewVrf(netaddr.FibKeyFromID(3))

	// Underlay route in VRF 0: 10.0.0.2/32 -> Egress{ifindex=7, address=10.0.0.254}
	underlayKey := NhopKey{
		Origin:     OriginConnected,
		HasIfindex: true,
		Ifindex:    mustIfIndex(7),
		HasAddress: true,
		Address:    netip.MustParseAddr("10.0.0.254"),
	}
	vrf0.AddRoute(netaddr.MustPrefix("10.0.0.2/32"), Route{Origin: OriginConnected}, []NhopKey{underlayKey}, vrf0)

	// Overlay route in VRF 3: 192.0.2.0/24 -> {origin=Bgp, address=10.0.0.2, encap=Vxlan{vni=3000}}
	overlayKey := NhopKey{
		Origin:     OriginBgp,
		HasAddress: true,
		Address:    netip.MustParseAddr("10.0.0.2"),
		HasEncap:   true,
		Encap: fib.Encapsulation{
			Kind: fib.EncapVxlan,
			Vxlan: fib.VxlanEncap{
				Vni:    mustVni(3000),
				Remote: netip.MustParseAddr("10.0.0.2"),
			},
		},
	}
	affected := vrf3.AddRoute(netaddr.MustPrefix("192.0.2.0/24"), Route{Origin: OriginBgp}, []NhopKey{overlayKey}, vrf0)
	require.Len(t, affected, 1)

	rstore := rmac.New()
	rstore.Add(mustVni(3000), netip.MustParseAddr("10.0.0.2"), netaddr.Mac{0x02, 0, 0, 0, 0, 0x02})
	vtep := rmac.VtepConfig{
		LocalAddress: netip.MustParseAddr("10.0.0.1"),
		LocalMac:     netaddr.Mac{0x02, 0, 0, 0, 0, 0x01},
	}

	batch := vrf3.RefreshFib(affected, rstore, vtep)
	require.Len(t, batch.Install, 1)
	group := batch.Install[0].Group
	require.Len(t, group.Entries, 1)

	entry := group.Entries[0]
	require.Len(t, entry.Instructions, 2)

	assert.Equal(t, fib.InstEncap, entry.Instructions[0].Kind)
	vxlan := entry.Instructions[0].Encap.Vxlan
	assert.Equal(t, mustVni(3000), vxlan.Vni)
	assert.Equal(t, netip.MustParseAddr("10.0.0.1"), vxlan.Local)
	assert.Equal(t, netaddr.Mac{0x02, 0, 0, 0, 0, 0x01}, vxlan.Smac)
	assert.Equal(t, netaddr.Mac{0x02, 0, 0, 0, 0, 0x02}, vxlan.Dmac)
	assert.Equal(t, netip.MustParseAddr("10.0.0.2"), vxlan.Remote)

	assert.Equal(t, fib.InstEgress, entry.Instructions[1].Kind)
	egress := entry.Instructions[1].Egress
	assert.True(t, egress.HasIfindex)
	assert.Equal(t, mustIfIndex(7), egress.Ifindex)
	assert.True(t, egress.HasAddress)
	assert.Equal(t, netip.MustParseAddr("10.0.0.254"), egress.Address)
}

// TestRouteChangeRecomputesExistingResolvers covers the recursion-safety
// requirement that installing (or withdrawing) a more-specific route
// re-resolves already-interned next-hops whose longest match it changes,
// not just next-hops created by the call itself.
func TestRouteChangeRecomputesExistingResolvers(t *testing.T) {
	vrf := NewVrf(netaddr.FibKeyFromID(1))

	broadLeaf := NhopKey{Origin: OriginConnected, HasIfindex: true, Ifindex: mustIfIndex(1)}
	vrf.AddRoute(netaddr.MustPrefix("10.0.0.0/16"), Route{Origin: OriginConnected}, []NhopKey{broadLeaf}, vrf)

	recursive := NhopKey{
		Origin:     OriginBgp,
		HasAddress: true,
		Address:    netip.MustParseAddr("10.0.0.5"),
	}
	affected := vrf.AddRoute(netaddr.MustPrefix("192.0.2.0/24"), Route{Origin: OriginBgp}, []NhopKey{recursive}, vrf)
	require.Len(t, affected, 1)

	batch := vrf.RefreshFib(affected, rmac.New(), rmac.VtepConfig{})
	require.Len(t, batch.Install, 1)
	entry := batch.Install[0].Group.Entries[0]
	require.Len(t, entry.Instructions, 1)
	assert.Equal(t, mustIfIndex(1), entry.Instructions[0].Egress.Ifindex)

	// A more specific route now becomes the longest match for 10.0.0.5.
	// recursive was already interned before this call, so its resolver
	// list must be recomputed even though it isn't one of this route's
	// own next-hops.
	narrowLeaf := NhopKey{Origin: OriginConnected, HasIfindex: true, Ifindex: mustIfIndex(99)}
	affected = vrf.AddRoute(netaddr.MustPrefix("10.0.0.0/24"), Route{Origin: OriginConnected}, []NhopKey{narrowLeaf}, vrf)
	assert.ElementsMatch(t, []netaddr.Prefix{
		netaddr.MustPrefix("10.0.0.0/24"),
		netaddr.MustPrefix("192.0.2.0/24"),
	}, affected)

	batch = vrf.RefreshFib(affected, rmac.New(), rmac.VtepConfig{})
	require.Len(t, batch.Install, 2)
	var overlay fib.FibGroup
	for _, op := range batch.Install {
		if op.Prefix == netaddr.MustPrefix("192.0.2.0/24") {
			overlay = op.Group
		}
	}
	require.Len(t, overlay.Entries, 1)
	require.Len(t, overlay.Entries[0].Instructions, 1)
	assert.Equal(t, mustIfIndex(99), overlay.Entries[0].Instructions[0].Egress.Ifindex)

	// Withdrawing the more specific route falls back to the broad route
	// again, and the overlay route must be recompiled back to it.
	affected = vrf.DeleteRoute(netaddr.MustPrefix("10.0.0.0/24"), vrf)
	assert.ElementsMatch(t, []netaddr.Prefix{
		netaddr.MustPrefix("10.0.0.0/24"),
		netaddr.MustPrefix("192.0.2.0/24"),
	}, affected)

	batch = vrf.RefreshFib(affected, rmac.New(), rmac.VtepConfig{})
	for _, op := range batch.Install {
		if op.Prefix == netaddr.MustPrefix("192.0.2.0/24") {
			require.Len(t, op.Group.Entries[0].Instructions, 1)
			assert.Equal(t, mustIfIndex(1), op.Group.Entries[0].Instructions[0].Egress.Ifindex)
		}
	}
}

func TestDeleteRouteReleasesNextHops(t *testing.T) {
	vrf := NewVrf(netaddr.FibKeyFromID(1))
	key := NhopKey{Origin: OriginLocal, HasIfindex: true, Ifindex: mustIfIndex(1)}
	vrf.AddRoute(netaddr.MustPrefix("203.0.113.0/24"), Route{Origin: OriginLocal}, []NhopKey{key}, vrf)
	assert.Equal(t, 1, vrf.Nhops.Len())

	vrf.DeleteRoute(netaddr.MustPrefix("203.0.113.0/24"), vrf)
	assert.Equal(t, 0, vrf.Nhops.Len())
}

func TestLocalRouteProducesSingleLocalInstruction(t *testing.T) {
	vrf := NewVrf(netaddr.FibKeyFromID(1))
	key := NhopKey{Origin: OriginLocal, HasIfindex: true, Ifindex: mustIfIndex(4)}
	affected := vrf.AddRoute(netaddr.MustPrefix("198.51.100.1/32"), Route{Origin: OriginLocal}, []NhopKey{key}, vrf)

	batch := vrf.RefreshFib(affected, rmac.New(), rmac.VtepConfig{})
	require.Len(t, batch.Install, 1)
	group := batch.Install[0].Group
	require.Len(t, group.Entries, 1)
	assert.True(t, group.Entries[0].IsLocal())
}
