// SPDX-License-Identifier: Apache-2.0
// Copyright Authors of gwcore

package netaddr

import (
	"fmt"

	"github.com/vpcfabric/gwcore/pkg/gwerr"
)

// Vid is a 12-bit VLAN identifier.
type Vid uint16

const VidMax Vid = 0x0FFF

// NewVidChecked validates v as a legal 12-bit VLAN id.
func NewVidChecked(v uint16) (Vid, error) {
	if Vid(v) > VidMax {
		return 0, gwerr.BadMask(fmt.Sprintf("vid %d exceeds 12 bits", v))
	}
	return Vid(v), nil
}

// Mtu is a bounded positive MTU in bytes.
type Mtu uint32

const (
	MtuMin Mtu = 68
	MtuMax Mtu = 9216
)

// NewMtuChecked validates v as within [MtuMin, MtuMax].
func NewMtuChecked(v uint32) (Mtu, error) {
	m := Mtu(v)
	if m < MtuMin || m > MtuMax {
		return 0, gwerr.MissingParameter(fmt.Sprintf("mtu %d out of range [%d,%d]", v, MtuMin, MtuMax))
	}
	return m, nil
}

// IfIndex is an opaque kernel interface index.
type IfIndex uint32

func (i IfIndex) String() string { return fmt.Sprintf("if%d", uint32(i)) }

// VrfId is a 32-bit VRF identifier.
type VrfId uint32

// FibKey identifies a VRF's published FIB either by numeric id or by name;
// exactly one of the two is set.
type FibKey struct {
	id     VrfId
	name   string
	byName bool
}

// FibKeyFromID builds a FibKey identifying a VRF by its numeric id.
func FibKeyFromID(id VrfId) FibKey { return FibKey{id: id} }

// FibKeyFromName builds a FibKey identifying a VRF by name.
func FibKeyFromName(name string) FibKey { return FibKey{name: name, byName: true} }

// IsName reports whether the key identifies the VRF by name.
func (k FibKey) IsName() bool { return k.byName }

// ID returns the numeric id; valid only if !IsName().
func (k FibKey) ID() VrfId { return k.id }

// Name returns the VRF name; valid only if IsName().
func (k FibKey) Name() string { return k.name }

func (k FibKey) String() string {
	if k.byName {
		return k.name
	}
	return fmt.Sprintf("vrf%d", uint32(k.id))
}
