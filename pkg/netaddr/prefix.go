// SPDX-License-Identifier: Apache-2.0
// Copyright Authors of gwcore

package netaddr

import (
	"fmt"
	"math/big"
	"net/netip"

	"github.com/vpcfabric/gwcore/pkg/gwerr"
)

// Prefix is an IPv4 or IPv6 prefix. It is a thin, validated wrapper around
// netip.Prefix so that pkg/nat can hand prefixes straight to go4.org/netipx
// for range collapsing.
type Prefix struct {
	p netip.Prefix
}

// NewPrefix validates addr/length and returns a canonical (masked) Prefix.
func NewPrefix(addr netip.Addr, length int) (Prefix, error) {
	if !addr.IsValid() {
		return Prefix{}, gwerr.BadPrefix("invalid address")
	}
	maxLen := 32
	if addr.Is6() && !addr.Is4In6() {
		maxLen = 128
	}
	if length < 0 || length > maxLen {
		return Prefix{}, gwerr.BadMask(fmt.Sprintf("length %d out of range for %s", length, addr))
	}
	p := netip.PrefixFrom(addr, length)
	return Prefix{p: p.Masked()}, nil
}

// MustPrefix is NewPrefix but panics on error; for literals in tests and
// fixtures only.
func MustPrefix(s string) Prefix {
	p, err := ParsePrefix(s)
	if err != nil {
		panic(err)
	}
	return p
}

// ParsePrefix parses the textual "addr/len" form.
func ParsePrefix(s string) (Prefix, error) {
	p, err := netip.ParsePrefix(s)
	if err != nil {
		return Prefix{}, gwerr.BadPrefix(err.Error())
	}
	return NewPrefix(p.Addr(), p.Bits())
}

func (p Prefix) String() string { return p.p.String() }

// Addr returns the (masked) network address.
func (p Prefix) Addr() netip.Addr { return p.p.Addr() }

// Length returns the prefix length.
func (p Prefix) Length() int { return p.p.Bits() }

// Std returns the underlying netip.Prefix, for interop with go4.org/netipx.
func (p Prefix) Std() netip.Prefix { return p.p }

// IsV4 reports whether this is an IPv4 prefix.
func (p Prefix) IsV4() bool { return p.p.Addr().Is4() }

// IsHost reports whether the prefix covers exactly one address.
func (p Prefix) IsHost() bool {
	if p.p.Addr().Is4() {
		return p.p.Bits() == 32
	}
	return p.p.Bits() == 128
}

// AsAddress returns the prefix's address when it is a host prefix.
func (p Prefix) AsAddress() (netip.Addr, bool) {
	if !p.IsHost() {
		return netip.Addr{}, false
	}
	return p.p.Addr(), true
}

// Root returns the all-zero, zero-length prefix of the same address family;
// LPM tries treat it as the "no route" sentinel.
func (p Prefix) Root() Prefix {
	if p.p.Addr().Is4() {
		return Prefix{p: netip.PrefixFrom(netip.IPv4Unspecified(), 0)}
	}
	return Prefix{p: netip.PrefixFrom(netip.IPv6Unspecified(), 0)}
}

// Covers reports whether p is a (non-strict) supernet of other: same
// address family and other falls within p's range.
func (p Prefix) Covers(other Prefix) bool {
	if p.p.Addr().Is4() != other.p.Addr().Is4() {
		return false
	}
	return p.p.Bits() <= other.p.Bits() && p.p.Contains(other.p.Addr())
}

// Size returns the number of addresses covered by the prefix, as a u128
// (represented with big.Int since Go has no native 128-bit integer).
func (p Prefix) Size() *big.Int {
	width := 32
	if !p.p.Addr().Is4() {
		width = 128
	}
	exp := width - p.p.Bits()
	return new(big.Int).Lsh(big.NewInt(1), uint(exp))
}
