// SPDX-License-Identifier: Apache-2.0
// Copyright Authors of gwcore

package adjacency

import (
	"fmt"
	"net"
	"net/netip"
	"time"

	"github.com/mdlayher/arp"
	"github.com/mdlayher/ndp"

	"github.com/vpcfabric/gwcore/pkg/netaddr"
)

// DefaultProbeTimeout bounds how long an active resolution waits for a
// reply before giving up.
const DefaultProbeTimeout = 500 * time.Millisecond

// Prober actively resolves an address to a MAC on one interface, for
// targets the passive netlink poll in resolver.go hasn't observed yet.
// IPv4 targets are resolved with ARP, IPv6 targets with NDP neighbor
// solicitation; both block for at most Timeout.
type Prober struct {
	Timeout time.Duration
}

// NewProber returns a Prober using DefaultProbeTimeout.
func NewProber() *Prober {
	return &Prober{Timeout: DefaultProbeTimeout}
}

// Resolve sends a single ARP or NDP request for target out ifi and waits
// for the reply, returning the resolved MAC.
func (p *Prober) Resolve(ifi *net.Interface, target netip.Addr) (netaddr.Mac, error) {
	timeout := p.Timeout
	if timeout <= 0 {
		timeout = DefaultProbeTimeout
	}
	if target.Is4() {
		return resolveARP(ifi, target, timeout)
	}
	return resolveNDP(ifi, target, timeout)
}

func resolveARP(ifi *net.Interface, target netip.Addr, timeout time.Duration) (netaddr.Mac, error) {
	client, err := arp.Dial(ifi)
	if err != nil {
		return netaddr.Mac{}, fmt.Errorf("dial arp on %s: %w", ifi.Name, err)
	}
	defer client.Close()

	if err := client.SetDeadline(time.Now().Add(timeout)); err != nil {
		return netaddr.Mac{}, fmt.Errorf("set arp deadline: %w", err)
	}
	hw, err := client.Resolve(target.AsSlice())
	if err != nil {
		return netaddr.Mac{}, fmt.Errorf("resolve %s via arp on %s: %w", target, ifi.Name, err)
	}
	var mac netaddr.Mac
	copy(mac[:], hw)
	return mac, nil
}

func resolveNDP(ifi *net.Interface, target netip.Addr, timeout time.Duration) (netaddr.Mac, error) {
	conn, _, err := ndp.Listen(ifi, ndp.LinkLocal)
	if err != nil {
		return netaddr.Mac{}, fmt.Errorf("listen ndp on %s: %w", ifi.Name, err)
	}
	defer conn.Close()

	snm, err := ndp.SolicitedNodeMulticast(target)
	if err != nil {
		return netaddr.Mac{}, fmt.Errorf("solicited-node multicast for %s: %w", target, err)
	}

	msg := &ndp.NeighborSolicitation{
		TargetAddress: target,
		Options: []ndp.Option{
			&ndp.LinkLayerAddress{
				Direction: ndp.Source,
				Addr:      ifi.HardwareAddr,
			},
		},
	}
	if err := conn.WriteTo(msg, nil, snm); err != nil {
		return netaddr.Mac{}, fmt.Errorf("send neighbor solicitation to %s: %w", target, err)
	}

	deadline := time.Now().Add(timeout)
	if err := conn.SetReadDeadline(deadline); err != nil {
		return netaddr.Mac{}, fmt.Errorf("set ndp deadline: %w", err)
	}
	for {
		m, _, _, err := conn.ReadFrom()
		if err != nil {
			return netaddr.Mac{}, fmt.Errorf("read neighbor advertisement for %s: %w", target, err)
		}
		na, ok := m.(*ndp.NeighborAdvertisement)
		if !ok || na.TargetAddress != target {
			continue
		}
		for _, opt := range na.Options {
			lla, ok := opt.(*ndp.LinkLayerAddress)
			if !ok || lla.Direction != ndp.Target {
				continue
			}
			var mac netaddr.Mac
			copy(mac[:], lla.Addr)
			return mac, nil
		}
	}
}
