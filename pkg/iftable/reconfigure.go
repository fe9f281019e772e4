// SPDX-License-Identifier: Apache-2.0
// Copyright Authors of gwcore

package iftable

import "github.com/vpcfabric/gwcore/pkg/netaddr"

// Plan is the partition of interface indices between a currently-published
// IfTable and a new set of per-interface configs: what to delete, modify
// and add. An interface whose configured fields are all unchanged is kept
// and appears in none of the three lists. Applying a Plan must happen delete → modify → add, and any
// attachment re-application happens after the interface itself exists.
type Plan struct {
	Delete []netaddr.IfIndex
	Modify []Config
	Add    []Config
}

// Reconfigure computes the Plan to bring current to match desired.
func Reconfigure(current IfTable, desired []Config) Plan {
	desiredIdx := make(map[netaddr.IfIndex]Config, len(desired))
	for _, c := range desired {
		desiredIdx[c.IfIndex] = c
	}

	var plan Plan
	for idx := range current.byIndex {
		if _, ok := desiredIdx[idx]; !ok {
			plan.Delete = append(plan.Delete, idx)
		}
	}
	for idx, c := range desiredIdx {
		iface, ok := current.byIndex[idx]
		switch {
		case !ok:
			plan.Add = append(plan.Add, c)
		case iface.Name != c.Name || iface.Description != c.Description || iface.IfType != c.IfType ||
			iface.AdminState != c.AdminState || iface.MTU != c.MTU:
			plan.Modify = append(plan.Modify, c)
		}
	}
	return plan
}

// Ops returns the plan's mutations in the required delete → modify → add
// order, ready to be appended to an lrpub.Writer[IfTable].
func (p Plan) Ops() []Op {
	ops := make([]Op, 0, len(p.Delete)+len(p.Modify)+len(p.Add))
	for _, idx := range p.Delete {
		ops = append(ops, DeleteInterfaceOp{IfIndex: idx})
	}
	for _, c := range p.Modify {
		ops = append(ops, &ModifyInterfaceOp{Config: c})
	}
	for _, c := range p.Add {
		ops = append(ops, &AddInterfaceOp{Config: c})
	}
	return ops
}

// Op is the lrpub.Op[IfTable] interface, restated locally so callers outside
// this package don't need to import lrpub just to name the type.
type Op interface {
	Apply(write, read *IfTable)
}
