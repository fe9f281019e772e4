// SPDX-License-Identifier: Apache-2.0
// Copyright Authors of gwcore

package netaddr

import (
	"fmt"

	"github.com/vpcfabric/gwcore/pkg/gwerr"
)

// Vni is a 24-bit VXLAN Network Identifier (RFC 7348 §5). Zero is reserved;
// the legal range is 1..=Vni.Max.
type Vni struct{ v uint32 }

// VniMin and VniMax bound the legal Vni range.
const (
	VniMin uint32 = 1
	VniMax uint32 = 0x00_FF_FF_FF
)

// NewVniChecked validates v and returns a Vni, or a *gwerr.Error with code
// InvalidVni if v is zero or exceeds VniMax.
func NewVniChecked(v uint32) (Vni, error) {
	if v == 0 {
		return Vni{}, gwerr.InvalidVni(v)
	}
	if v > VniMax {
		return Vni{}, gwerr.InvalidVni(v)
	}
	return Vni{v: v}, nil
}

// AsU32 returns the raw VNI value.
func (v Vni) AsU32() uint32 { return v.v }

func (v Vni) String() string { return fmt.Sprintf("%d", v.v) }

// VpcDiscriminant tags packets to a VPC; it wraps a Vni.
type VpcDiscriminant struct{ vni Vni }

// NewVpcDiscriminant wraps vni as a VpcDiscriminant.
func NewVpcDiscriminant(vni Vni) VpcDiscriminant { return VpcDiscriminant{vni: vni} }

// Vni returns the underlying VNI.
func (d VpcDiscriminant) Vni() Vni { return d.vni }

func (d VpcDiscriminant) String() string { return d.vni.String() }
