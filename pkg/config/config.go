// SPDX-License-Identifier: Apache-2.0
// Copyright Authors of gwcore

// Package config is the external, validated configuration tree accepted by
// the router control loop's Configure operation: device settings, the
// underlay VRF's BGP/router-id, the overlay VPC and peering tables,
// optional FRR configuration text, and a generation id.
package config

import (
	"fmt"
	"net/netip"

	"github.com/osrg/gobgp/v3/pkg/packet/bgp"

	"github.com/vpcfabric/gwcore/pkg/gwerr"
	"github.com/vpcfabric/gwcore/pkg/iftable"
	"github.com/vpcfabric/gwcore/pkg/nat"
	"github.com/vpcfabric/gwcore/pkg/netaddr"
	"github.com/vpcfabric/gwcore/pkg/rmac"
)

// Device is the node-level configuration: hostname and the full desired
// interface set (consumed by iftable.Reconfigure).
type Device struct {
	Hostname   string
	Interfaces []iftable.Config
}

// Underlay is the default VRF's BGP/router-id configuration and VTEP
// identity. Actual session establishment happens in FRR, reached over the
// FRR-agent socket; this is the config the control loop hands off to it.
type Underlay struct {
	Vrf      netaddr.FibKey
	RouterID netip.Addr
	LocalAS  uint32
	Families []bgp.RouteFamily
	Vtep     rmac.VtepConfig
}

// Vpc is one overlay VPC: a VNI, its human name, and the interfaces
// attached to it.
type Vpc struct {
	Disc        netaddr.VpcDiscriminant
	Name        string
	Attachments []netaddr.IfIndex
}

// Peering is one bidirectional VPC peering's NAT-relevant configuration.
type Peering struct {
	East       netaddr.VpcDiscriminant
	EastExpose nat.Expose
	West       netaddr.VpcDiscriminant
	WestExpose nat.Expose
}

// Config is the full validated tree.
type Config struct {
	Device   Device
	Underlay Underlay
	Vpcs     []Vpc
	Peerings []Peering
	FRRText  string
	GenID    int64
}

// Validate checks structural invariants that can be decided without
// touching any control-loop state: no duplicate VPC identity, no duplicate
// peerings, and that each peering's Expose rules carry consistent sizes.
func (c Config) Validate() error {
	byVni := make(map[netaddr.Vni]struct{}, len(c.Vpcs))
	byName := make(map[string]struct{}, len(c.Vpcs))
	for _, v := range c.Vpcs {
		vni := v.Disc.Vni()
		if _, dup := byVni[vni]; dup {
			return gwerr.DuplicateVpcVni(vni.AsU32())
		}
		byVni[vni] = struct{}{}
		if v.Name != "" {
			if _, dup := byName[v.Name]; dup {
				return gwerr.DuplicateVpcName(v.Name)
			}
			byName[v.Name] = struct{}{}
		}
	}

	seen := make(map[pairKey]struct{}, len(c.Peerings))
	for _, p := range c.Peerings {
		if p.East == p.West {
			return gwerr.BadVpcID(fmt.Sprintf("peering with identical endpoints %s", p.East))
		}
		key := normalizedPair(p.East, p.West)
		if _, dup := seen[key]; dup {
			return gwerr.DuplicateVpcPeerings(fmt.Sprintf("%s<->%s", p.East, p.West))
		}
		seen[key] = struct{}{}

		if err := p.EastExpose.Validate(); err != nil {
			return err
		}
		if err := p.WestExpose.Validate(); err != nil {
			return err
		}
	}
	return nil
}

type pairKey struct {
	a, b netaddr.VpcDiscriminant
}

func normalizedPair(a, b netaddr.VpcDiscriminant) pairKey {
	if a.Vni().AsU32() <= b.Vni().AsU32() {
		return pairKey{a, b}
	}
	return pairKey{b, a}
}

// NatPeerings converts the overlay peering table into nat.Peering values
// ready for nat.BuildConfiguration.
func (c Config) NatPeerings() []nat.Peering {
	out := make([]nat.Peering, 0, len(c.Peerings))
	for _, p := range c.Peerings {
		out = append(out, nat.Peering{
			EastVni:    p.East.Vni(),
			EastExpose: p.EastExpose,
			WestVni:    p.West.Vni(),
			WestExpose: p.WestExpose,
		})
	}
	return out
}
