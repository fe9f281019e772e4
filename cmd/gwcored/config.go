// SPDX-License-Identifier: Apache-2.0
// Copyright Authors of gwcore

package main

import (
	"fmt"
	"net/netip"

	"github.com/osrg/gobgp/v3/pkg/packet/bgp"
	"github.com/spf13/viper"

	"github.com/vpcfabric/gwcore/pkg/config"
	"github.com/vpcfabric/gwcore/pkg/gwerr"
	"github.com/vpcfabric/gwcore/pkg/iftable"
	"github.com/vpcfabric/gwcore/pkg/nat"
	"github.com/vpcfabric/gwcore/pkg/netaddr"
	"github.com/vpcfabric/gwcore/pkg/rmac"
)

// fileConfig is the on-disk YAML shape: plain scalars and strings only, so
// viper's mapstructure decoder can populate it directly. It is translated
// into pkg/config's validated tree by buildConfig, which is where every
// string gets parsed through the owning package's constructor (so a bad
// MAC or VNI in the file fails with the same gwerr the control loop itself
// would raise, not a silent zero value).
type fileConfig struct {
	GenID    int64           `mapstructure:"genid"`
	Hostname string          `mapstructure:"hostname"`
	FRRText  string          `mapstructure:"frr_text"`
	Underlay fileUnderlay    `mapstructure:"underlay"`
	Ifaces   []fileInterface `mapstructure:"interfaces"`
	Vpcs     []fileVpc       `mapstructure:"vpcs"`
	Peerings []filePeering   `mapstructure:"peerings"`
}

type fileUnderlay struct {
	VrfID     uint32   `mapstructure:"vrf_id"`
	RouterID  string   `mapstructure:"router_id"`
	LocalAS   uint32   `mapstructure:"local_as"`
	Families  []string `mapstructure:"families"`
	VtepLocal string   `mapstructure:"vtep_local"`
	VtepMac   string   `mapstructure:"vtep_mac"`
}

type fileInterface struct {
	IfIndex uint32 `mapstructure:"ifindex"`
	Name    string `mapstructure:"name"`
	Kind    string `mapstructure:"kind"` // loopback | ethernet | dot1q
	Mac     string `mapstructure:"mac"`
	Vid     uint16 `mapstructure:"vid"`
	MTU     uint32 `mapstructure:"mtu"`
}

type fileVpc struct {
	Vni         uint32   `mapstructure:"vni"`
	Name        string   `mapstructure:"name"`
	Attachments []uint32 `mapstructure:"attachments"`
}

type fileExpose struct {
	IPs     []string `mapstructure:"ips"`
	Nots    []string `mapstructure:"nots"`
	AsRange []string `mapstructure:"as_range"`
	NotAs   []string `mapstructure:"not_as"`
}

type filePeering struct {
	East       uint32     `mapstructure:"east_vni"`
	EastExpose fileExpose `mapstructure:"east_expose"`
	West       uint32     `mapstructure:"west_vni"`
	WestExpose fileExpose `mapstructure:"west_expose"`
}

// loadConfig reads path with viper and translates it into a validated
// config.Config.
func loadConfig(path string) (config.Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return config.Config{}, gwerr.Internal("read config file", err)
	}

	var fc fileConfig
	if err := v.Unmarshal(&fc); err != nil {
		return config.Config{}, gwerr.Internal("decode config file", err)
	}

	return buildConfig(fc)
}

func buildConfig(fc fileConfig) (config.Config, error) {
	ifaces := make([]iftable.Config, 0, len(fc.Ifaces))
	for _, fi := range fc.Ifaces {
		c, err := buildInterface(fi)
		if err != nil {
			return config.Config{}, err
		}
		ifaces = append(ifaces, c)
	}

	underlay, err := buildUnderlay(fc.Underlay)
	if err != nil {
		return config.Config{}, err
	}

	vpcs := make([]config.Vpc, 0, len(fc.Vpcs))
	for _, fv := range fc.Vpcs {
		vni, err := netaddr.NewVniChecked(fv.Vni)
		if err != nil {
			return config.Config{}, err
		}
		attachments := make([]netaddr.IfIndex, 0, len(fv.Attachments))
		for _, a := range fv.Attachments {
			attachments = append(attachments, netaddr.IfIndex(a))
		}
		vpcs = append(vpcs, config.Vpc{
			Disc:        netaddr.NewVpcDiscriminant(vni),
			Name:        fv.Name,
			Attachments: attachments,
		})
	}

	peerings := make([]config.Peering, 0, len(fc.Peerings))
	for _, fp := range fc.Peerings {
		eastVni, err := netaddr.NewVniChecked(fp.East)
		if err != nil {
			return config.Config{}, err
		}
		westVni, err := netaddr.NewVniChecked(fp.West)
		if err != nil {
			return config.Config{}, err
		}
		eastExpose, err := buildExpose(fp.EastExpose)
		if err != nil {
			return config.Config{}, err
		}
		westExpose, err := buildExpose(fp.WestExpose)
		if err != nil {
			return config.Config{}, err
		}
		peerings = append(peerings, config.Peering{
			East:       netaddr.NewVpcDiscriminant(eastVni),
			EastExpose: eastExpose,
			West:       netaddr.NewVpcDiscriminant(westVni),
			WestExpose: westExpose,
		})
	}

	cfg := config.Config{
		Device:   config.Device{Hostname: fc.Hostname, Interfaces: ifaces},
		Underlay: underlay,
		Vpcs:     vpcs,
		Peerings: peerings,
		FRRText:  fc.FRRText,
		GenID:    fc.GenID,
	}
	if err := cfg.Validate(); err != nil {
		return config.Config{}, err
	}
	return cfg, nil
}

func buildInterface(fi fileInterface) (iftable.Config, error) {
	base := iftable.Config{IfIndex: netaddr.IfIndex(fi.IfIndex), Name: fi.Name}
	if fi.MTU != 0 {
		mtu, err := netaddr.NewMtuChecked(fi.MTU)
		if err != nil {
			return iftable.Config{}, err
		}
		base.MTU = mtu
	}

	switch fi.Kind {
	case "loopback":
		base.IfType = iftable.NewLoopback()
		return base, nil
	case "ethernet":
		mac, err := parseSourceMac(fi.Mac)
		if err != nil {
			return iftable.Config{}, err
		}
		base.IfType = iftable.NewEthernet(mac)
		return base, nil
	case "dot1q":
		mac, err := parseSourceMac(fi.Mac)
		if err != nil {
			return iftable.Config{}, err
		}
		vid, err := netaddr.NewVidChecked(fi.Vid)
		if err != nil {
			return iftable.Config{}, err
		}
		base.IfType = iftable.NewDot1q(mac, vid)
		return base, nil
	default:
		return iftable.Config{}, gwerr.BadVtepLocalAddress(fmt.Sprintf("unknown interface kind %q", fi.Kind))
	}
}

func parseSourceMac(s string) (netaddr.SourceMac, error) {
	mac, err := netaddr.ParseMac(s)
	if err != nil {
		return netaddr.SourceMac{}, err
	}
	return netaddr.NewSourceMac(mac)
}

func buildUnderlay(fu fileUnderlay) (config.Underlay, error) {
	var routerID netip.Addr
	if fu.RouterID != "" {
		var err error
		routerID, err = netip.ParseAddr(fu.RouterID)
		if err != nil {
			return config.Underlay{}, gwerr.BadPrefix(fmt.Sprintf("underlay router_id: %v", err))
		}
	}

	families := make([]bgp.RouteFamily, 0, len(fu.Families))
	for _, f := range fu.Families {
		switch f {
		case "ipv4-unicast":
			families = append(families, bgp.RF_IPv4_UC)
		case "ipv6-unicast":
			families = append(families, bgp.RF_IPv6_UC)
		case "evpn":
			families = append(families, bgp.RF_EVPN)
		default:
			return config.Underlay{}, gwerr.BadVtepLocalAddress(fmt.Sprintf("unknown address family %q", f))
		}
	}

	var vtep rmac.VtepConfig
	if fu.VtepLocal != "" {
		local, err := netip.ParseAddr(fu.VtepLocal)
		if err != nil {
			return config.Underlay{}, gwerr.BadVtepLocalAddress(fmt.Sprintf("vtep_local: %v", err))
		}
		mac, err := netaddr.ParseMac(fu.VtepMac)
		if err != nil {
			return config.Underlay{}, err
		}
		vtep = rmac.VtepConfig{LocalAddress: local, LocalMac: mac}
	}

	return config.Underlay{
		Vrf:      netaddr.FibKeyFromID(netaddr.VrfId(fu.VrfID)),
		RouterID: routerID,
		LocalAS:  fu.LocalAS,
		Families: families,
		Vtep:     vtep,
	}, nil
}

func buildExpose(fe fileExpose) (nat.Expose, error) {
	ips, err := parsePrefixes(fe.IPs)
	if err != nil {
		return nat.Expose{}, err
	}
	nots, err := parsePrefixes(fe.Nots)
	if err != nil {
		return nat.Expose{}, err
	}
	asRange, err := parsePrefixes(fe.AsRange)
	if err != nil {
		return nat.Expose{}, err
	}
	notAs, err := parsePrefixes(fe.NotAs)
	if err != nil {
		return nat.Expose{}, err
	}
	return nat.Expose{IPs: ips, Nots: nots, AsRange: asRange, NotAs: notAs}, nil
}

func parsePrefixes(ss []string) ([]netaddr.Prefix, error) {
	out := make([]netaddr.Prefix, 0, len(ss))
	for _, s := range ss {
		p, err := netaddr.ParsePrefix(s)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}
