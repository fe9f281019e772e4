// SPDX-License-Identifier: Apache-2.0
// Copyright Authors of gwcore

// Package netaddr holds the core's scalar identifier and address types:
// Mac, Vni, Vid, Mtu, IfIndex, VrfId, VpcDiscriminant and Prefix.
package netaddr

import (
	"fmt"

	"github.com/mdlayher/ethernet"
)

// Mac is a 48-bit ethernet address.
type Mac [6]byte

// ZeroMac is the all-zeroes address, illegal as a source or destination in
// most contexts.
var ZeroMac = Mac{}

// BroadcastMac is the all-ones address.
var BroadcastMac = Mac{0xff, 0xff, 0xff, 0xff, 0xff, 0xff}

// ParseMac parses a colon-separated MAC address string using the same
// EUI-48 representation mdlayher/ethernet expects on the wire.
func ParseMac(s string) (Mac, error) {
	hw, err := ethernet.ParseMAC(s)
	if err != nil {
		return Mac{}, fmt.Errorf("parse mac %q: %w", s, err)
	}
	if len(hw) != 6 {
		return Mac{}, fmt.Errorf("parse mac %q: not EUI-48", s)
	}
	var m Mac
	copy(m[:], hw)
	return m, nil
}

func (m Mac) String() string {
	return fmt.Sprintf("%02x:%02x:%02x:%02x:%02x:%02x", m[0], m[1], m[2], m[3], m[4], m[5])
}

// IsBroadcast reports whether m is the all-ones address.
func (m Mac) IsBroadcast() bool { return m == BroadcastMac }

// IsZero reports whether m is the all-zeroes address.
func (m Mac) IsZero() bool { return m == ZeroMac }

// IsMulticast reports whether the least significant bit of the first octet
// is set.
func (m Mac) IsMulticast() bool { return m[0]&0x01 == 0x01 }

// IsUnicast is the negation of IsMulticast.
func (m Mac) IsUnicast() bool { return !m.IsMulticast() }

// IsLocallyAdministered reports whether the second least significant bit of
// the first octet is set.
func (m Mac) IsLocallyAdministered() bool { return m[0]&0x02 != 0 }

// IsLinkLocal reports whether m is in the 802.1D/LACP link-local reserved
// range 01:80:C2:00:00:0x.
func (m Mac) IsLinkLocal() bool {
	return m[0] == 0x01 && m[1] == 0x80 && m[2] == 0xc2 && m[3] == 0x00 && m[4] == 0x00 && m[5]&0x0f == m[5]
}

// validSource reports whether m is legal as an ethernet header source.
func (m Mac) validSource() error {
	switch {
	case m.IsZero():
		return fmt.Errorf("%w: zero mac is illegal as a source mac", errInvalidMac(m))
	case m.IsMulticast():
		return fmt.Errorf("%w: multicast macs are illegal as a source mac", errInvalidMac(m))
	default:
		return nil
	}
}

// validDestination reports whether m is legal as an ethernet header
// destination.
func (m Mac) validDestination() error {
	if m.IsZero() {
		return fmt.Errorf("%w: zero mac is illegal as a destination mac", errInvalidMac(m))
	}
	return nil
}

func errInvalidMac(m Mac) error { return fmt.Errorf("invalid mac %s", m) }

// SourceMac is a Mac known to be legal as an ethernet header source.
type SourceMac struct{ mac Mac }

// NewSourceMac validates mac as a legal source address.
func NewSourceMac(mac Mac) (SourceMac, error) {
	if err := mac.validSource(); err != nil {
		return SourceMac{}, err
	}
	return SourceMac{mac: mac}, nil
}

// Mac returns the underlying address.
func (s SourceMac) Mac() Mac { return s.mac }

func (s SourceMac) String() string { return s.mac.String() }

// DestinationMac is a Mac known to be legal as an ethernet header
// destination.
type DestinationMac struct{ mac Mac }

// NewDestinationMac validates mac as a legal destination address.
func NewDestinationMac(mac Mac) (DestinationMac, error) {
	if err := mac.validDestination(); err != nil {
		return DestinationMac{}, err
	}
	return DestinationMac{mac: mac}, nil
}

// Mac returns the underlying address.
func (d DestinationMac) Mac() Mac { return d.mac }

func (d DestinationMac) String() string { return d.mac.String() }
