// SPDX-License-Identifier: Apache-2.0
// Copyright Authors of gwcore

// Package iftable is the interface table: named network interfaces, their
// properties, admin/oper state, addresses and VRF/bridge attachment,
// published through pkg/lrpub.
package iftable

import (
	"fmt"
	"net/netip"
	"regexp"

	"github.com/vpcfabric/gwcore/pkg/gwerr"
	"github.com/vpcfabric/gwcore/pkg/netaddr"
)

// AdminState is the administratively configured state of an interface.
type AdminState int

const (
	AdminDown AdminState = iota
	AdminUp
)

// OperState is the observed operational state of an interface.
type OperState int

const (
	OperDown OperState = iota
	OperUp
	OperUnknown
	OperComplex
)

// IfType discriminates the kind of interface and carries its type-specific
// fields.
type IfType struct {
	kind ifKind

	// Ethernet, Dot1q, Vtep
	mac netaddr.SourceMac

	// Dot1q
	vid netaddr.Vid

	// Vtep
	vni      netaddr.Vni
	ttl      uint8
	localIP4 netip.Addr

	// Vrf
	tableID uint32
}

type ifKind int

const (
	IfLoopback ifKind = iota
	IfEthernet
	IfDot1q
	IfVtep
	IfBridge
	IfVrf
	IfPci
	IfOther
)

func (t IfType) Kind() ifKind { return t.kind }

func NewLoopback() IfType { return IfType{kind: IfLoopback} }

func NewEthernet(mac netaddr.SourceMac) IfType {
	return IfType{kind: IfEthernet, mac: mac}
}

func NewDot1q(mac netaddr.SourceMac, vid netaddr.Vid) IfType {
	return IfType{kind: IfDot1q, mac: mac, vid: vid}
}

// NewVtep builds a Vtep iftype. local must be a unicast IPv4 address and
// mac a valid source mac.
func NewVtep(mac netaddr.SourceMac, vni netaddr.Vni, ttl uint8, local netip.Addr) (IfType, error) {
	if !local.IsValid() || !local.Is4() || local.IsMulticast() || local.IsUnspecified() {
		return IfType{}, gwerr.BadVtepLocalAddress(fmt.Sprintf("%s is not a unicast ipv4 address", local))
	}
	return IfType{kind: IfVtep, mac: mac, vni: vni, ttl: ttl, localIP4: local}, nil
}

func NewBridge() IfType { return IfType{kind: IfBridge} }

func NewVrf(tableID uint32) IfType { return IfType{kind: IfVrf, tableID: tableID} }

func NewPci() IfType { return IfType{kind: IfPci} }

func NewOther() IfType { return IfType{kind: IfOther} }

func (t IfType) Mac() (netaddr.SourceMac, bool) {
	if t.kind == IfEthernet || t.kind == IfDot1q || t.kind == IfVtep {
		return t.mac, true
	}
	return netaddr.SourceMac{}, false
}

func (t IfType) Vid() (netaddr.Vid, bool) {
	if t.kind == IfDot1q {
		return t.vid, true
	}
	return 0, false
}

func (t IfType) Vni() (netaddr.Vni, bool) {
	if t.kind == IfVtep {
		return t.vni, true
	}
	return netaddr.Vni{}, false
}

func (t IfType) VtepLocal() (netip.Addr, bool) {
	if t.kind == IfVtep {
		return t.localIP4, true
	}
	return netip.Addr{}, false
}

func (t IfType) TableID() (uint32, bool) {
	if t.kind == IfVrf {
		return t.tableID, true
	}
	return 0, false
}

// AttachmentKind discriminates what an interface is attached to.
type AttachmentKind int

const (
	AttachNone AttachmentKind = iota
	AttachVRF
	AttachBD
)

// Attachment is an interface's attachment to a VRF or bridge domain.
type Attachment struct {
	Kind AttachmentKind
	VRF  netaddr.FibKey
}

// IfAddress is an (address, prefix length) pair assigned to an interface.
type IfAddress struct {
	Addr netip.Addr
	Len  int
}

// Interface is a single network interface.
type Interface struct {
	IfIndex     netaddr.IfIndex
	Name        string
	Description string
	IfType      IfType
	AdminState  AdminState
	OperState   OperState
	MTU         netaddr.Mtu
	Addresses   map[IfAddress]struct{}
	Attachment  Attachment
}

var ifNameRE = regexp.MustCompile(`^[A-Za-z0-9._-]{1,15}$`)

// ValidName reports whether name is a legal kernel-style interface name:
// bounded length, ASCII, no path separators.
func ValidName(name string) bool {
	return ifNameRE.MatchString(name)
}

// Config is the per-interface configuration used to add or modify an
// Interface entry.
type Config struct {
	IfIndex     netaddr.IfIndex
	Name        string
	Description string
	IfType      IfType
	AdminState  AdminState
	MTU         netaddr.Mtu
}

// Validate checks the invariants that are checkable from the config alone
// (VRF existence is checked by the caller holding the VRF table).
func (c Config) Validate() error {
	if !ValidName(c.Name) {
		return gwerr.BadPrefix(fmt.Sprintf("invalid interface name %q", c.Name))
	}
	if c.IfType.kind == IfEthernet || c.IfType.kind == IfDot1q || c.IfType.kind == IfVtep {
		if _, ok := c.IfType.Mac(); !ok {
			return gwerr.InvalidMac("missing source mac for interface type")
		}
	}
	return nil
}

func newInterface(c Config) Interface {
	return Interface{
		IfIndex:     c.IfIndex,
		Name:        c.Name,
		Description: c.Description,
		IfType:      c.IfType,
		AdminState:  c.AdminState,
		OperState:   OperUnknown,
		MTU:         c.MTU,
		Addresses:   map[IfAddress]struct{}{},
	}
}
