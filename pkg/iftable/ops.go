// SPDX-License-Identifier: Apache-2.0
// Copyright Authors of gwcore

package iftable

import (
	"github.com/vpcfabric/gwcore/pkg/gwerr"
	"github.com/vpcfabric/gwcore/pkg/netaddr"
)

// Op is an lrpub.Op[IfTable] mutation. The read copy is unused by every op
// here; interface-table mutations don't need to diff against the
// currently-published copy.

type AddInterfaceOp struct {
	Config Config
	Err    *error // filled in by Apply, consulted by the caller after Publish
}

func (o *AddInterfaceOp) Apply(write, _ *IfTable) {
	if write.Contains(o.Config.IfIndex) {
		err := gwerr.InterfaceExists(uint32(o.Config.IfIndex))
		if o.Err != nil {
			*o.Err = err
		}
		return
	}
	write.byIndex[o.Config.IfIndex] = newInterface(o.Config)
}

type ModifyInterfaceOp struct {
	Config Config
	Err    *error
}

func (o *ModifyInterfaceOp) Apply(write, _ *IfTable) {
	iface, ok := write.byIndex[o.Config.IfIndex]
	if !ok {
		if o.Err != nil {
			*o.Err = gwerr.NoSuchInterface(uint32(o.Config.IfIndex))
		}
		return
	}
	iface.Name = o.Config.Name
	iface.Description = o.Config.Description
	iface.IfType = o.Config.IfType
	iface.AdminState = o.Config.AdminState
	iface.MTU = o.Config.MTU
	write.byIndex[o.Config.IfIndex] = iface
}

type DeleteInterfaceOp struct {
	IfIndex netaddr.IfIndex
}

func (o DeleteInterfaceOp) Apply(write, _ *IfTable) {
	delete(write.byIndex, o.IfIndex)
}

// AttachToVrfOp attaches an interface to the VRF identified by key. The live
// FIB reader handle is obtained by packet workers from the VRF registry
// keyed by FibKey, not stored on the Interface itself — see DESIGN.md.
type AttachToVrfOp struct {
	IfIndex netaddr.IfIndex
	VRF     netaddr.FibKey
	Err     *error
}

func (o *AttachToVrfOp) Apply(write, _ *IfTable) {
	iface, ok := write.byIndex[o.IfIndex]
	if !ok {
		if o.Err != nil {
			*o.Err = gwerr.NoSuchInterface(uint32(o.IfIndex))
		}
		return
	}
	iface.Attachment = Attachment{Kind: AttachVRF, VRF: o.VRF}
	write.byIndex[o.IfIndex] = iface
}

type DetachFromVrfOp struct {
	IfIndex netaddr.IfIndex
}

func (o DetachFromVrfOp) Apply(write, _ *IfTable) {
	iface, ok := write.byIndex[o.IfIndex]
	if !ok {
		return
	}
	iface.Attachment = Attachment{}
	write.byIndex[o.IfIndex] = iface
}

type DetachAllInterfacesFromVrfOp struct {
	VRF netaddr.FibKey
}

func (o DetachAllInterfacesFromVrfOp) Apply(write, _ *IfTable) {
	for idx, iface := range write.byIndex {
		if iface.Attachment.Kind == AttachVRF && iface.Attachment.VRF == o.VRF {
			iface.Attachment = Attachment{}
			write.byIndex[idx] = iface
		}
	}
}

type AddAddressOp struct {
	IfIndex netaddr.IfIndex
	Address IfAddress
	Err     *error
}

func (o *AddAddressOp) Apply(write, _ *IfTable) {
	iface, ok := write.byIndex[o.IfIndex]
	if !ok {
		if o.Err != nil {
			*o.Err = gwerr.NoSuchInterface(uint32(o.IfIndex))
		}
		return
	}
	iface.Addresses[o.Address] = struct{}{}
	write.byIndex[o.IfIndex] = iface
}

type DeleteAddressOp struct {
	IfIndex netaddr.IfIndex
	Address IfAddress
}

func (o DeleteAddressOp) Apply(write, _ *IfTable) {
	iface, ok := write.byIndex[o.IfIndex]
	if !ok {
		return
	}
	delete(iface.Addresses, o.Address)
	write.byIndex[o.IfIndex] = iface
}

type SetAdminStateOp struct {
	IfIndex netaddr.IfIndex
	State   AdminState
}

func (o SetAdminStateOp) Apply(write, _ *IfTable) {
	iface, ok := write.byIndex[o.IfIndex]
	if !ok {
		return
	}
	iface.AdminState = o.State
	write.byIndex[o.IfIndex] = iface
}

type SetOperStateOp struct {
	IfIndex netaddr.IfIndex
	State   OperState
}

func (o SetOperStateOp) Apply(write, _ *IfTable) {
	iface, ok := write.byIndex[o.IfIndex]
	if !ok {
		return
	}
	iface.OperState = o.State
	write.byIndex[o.IfIndex] = iface
}
