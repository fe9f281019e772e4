// SPDX-License-Identifier: Apache-2.0
// Copyright Authors of gwcore

package control

import (
	"net/netip"

	"github.com/vpcfabric/gwcore/pkg/fib"
	"github.com/vpcfabric/gwcore/pkg/gwerr"
	"github.com/vpcfabric/gwcore/pkg/netaddr"
	"github.com/vpcfabric/gwcore/pkg/rib"
	"github.com/vpcfabric/gwcore/pkg/rmac"
)

// CpiNhop is one next-hop as carried on the CPI wire: address, ifindex,
// optional encapsulation, and forwarding action.
type CpiNhop struct {
	Origin     rib.RouteOrigin
	HasAddress bool
	Address    netip.Addr
	HasIfindex bool
	Ifindex    netaddr.IfIndex
	HasEncap   bool
	VxlanVni   uint32
	VxlanRemote netip.Addr
	FwAction   rib.FwAction
	Ifname     string
}

// ToNhopKey decodes one CpiNhop into a rib.NhopKey, enforcing the Vni range
// and address-validity checks CPI decoding requires.
func (n CpiNhop) ToNhopKey() (rib.NhopKey, error) {
	key := rib.NhopKey{
		Origin:     n.Origin,
		HasAddress: n.HasAddress,
		Address:    n.Address,
		HasIfindex: n.HasIfindex,
		Ifindex:    n.Ifindex,
		FwAction:   n.FwAction,
		Ifname:     n.Ifname,
	}
	if n.HasAddress && !n.Address.IsValid() {
		return rib.NhopKey{}, gwerr.BadPrefix("cpi nexthop carries invalid address")
	}
	if n.HasEncap {
		vni, err := netaddr.NewVniChecked(n.VxlanVni)
		if err != nil {
			return rib.NhopKey{}, err
		}
		if !n.VxlanRemote.IsValid() {
			return rib.NhopKey{}, gwerr.BadPrefix("cpi nexthop vxlan encap missing remote address")
		}
		key.HasEncap = true
		key.Encap = fib.Encapsulation{
			Kind: fib.EncapVxlan,
			Vxlan: fib.VxlanEncap{
				Vni:    vni,
				Remote: n.VxlanRemote,
			},
		}
	}
	return key, nil
}

// CpiRouteEvent is a route add/delete event from the CPI socket.
type CpiRouteEvent struct {
	Delete   bool
	Vrf      netaddr.FibKey
	Prefix   netaddr.Prefix
	Distance uint8
	Metric   uint32
	Origin   rib.RouteOrigin
	Nhops    []CpiNhop
}

// CpiRmacEvent is a router-mac add/delete event from the CPI socket.
type CpiRmacEvent struct {
	Delete  bool
	Vni     uint32
	Address netip.Addr
	Mac     netaddr.Mac
}

// ApplyRouteEvent decodes and applies a route event to the Router. Decoding errors
// (out-of-range Vni, invalid address) are returned to the caller without
// mutating any table.
func (r *Router) ApplyRouteEvent(ev CpiRouteEvent) error {
	if ev.Delete {
		return r.DeleteRoute(ev.Vrf, ev.Prefix)
	}

	keys := make([]rib.NhopKey, 0, len(ev.Nhops))
	for _, n := range ev.Nhops {
		key, err := n.ToNhopKey()
		if err != nil {
			return err
		}
		keys = append(keys, key)
	}
	route := rib.Route{Origin: ev.Origin, Distance: ev.Distance, Metric: ev.Metric}
	return r.AddRoute(ev.Vrf, ev.Prefix, route, keys)
}

// ApplyRmacEvent decodes and applies a router-mac event to the Router.
func (r *Router) ApplyRmacEvent(ev CpiRmacEvent) error {
	vni, err := netaddr.NewVniChecked(ev.Vni)
	if err != nil {
		return err
	}
	if !ev.Address.IsValid() {
		return gwerr.BadPrefix("cpi rmac event carries invalid address")
	}
	if ev.Delete {
		r.rmacW.Append(rmac.DeleteOp{Vni: vni, Address: ev.Address, Mac: ev.Mac})
		r.rmacW.Publish()
		return nil
	}
	r.AddRmac(vni, ev.Address, ev.Mac)
	return nil
}
