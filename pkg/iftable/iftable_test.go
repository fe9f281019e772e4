// SPDX-License-Identifier: Apache-2.0
// Copyright Authors of gwcore

package iftable

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vpcfabric/gwcore/pkg/gwerr"
	"github.com/vpcfabric/gwcore/pkg/lrpub"
	"github.com/vpcfabric/gwcore/pkg/netaddr"
)

func mustSourceMac(s string) netaddr.SourceMac {
	mac, err := netaddr.ParseMac(s)
	if err != nil {
		panic(err)
	}
	sm, err := netaddr.NewSourceMac(mac)
	if err != nil {
		panic(err)
	}
	return sm
}

func TestAddInterfaceThenDuplicateFails(t *testing.T) {
	w, r := lrpub.NewWriter(New())
	cfg := Config{IfIndex: 1, Name: "eth0", IfType: NewEthernet(mustSourceMac("02:00:00:00:00:01"))}

	var err error
	w.Append(&AddInterfaceOp{Config: cfg, Err: &err})
	w.Publish()
	require.NoError(t, err)

	w.Append(&AddInterfaceOp{Config: cfg, Err: &err})
	w.Publish()
	require.Error(t, err)
	assert.True(t, gwerr.Is(err, gwerr.KindConflict))

	g, _ := r.Enter()
	defer g.Close()
	assert.Equal(t, 1, g.Value().Len())
}

func TestModifyUnknownInterfaceFails(t *testing.T) {
	w, _ := lrpub.NewWriter(New())
	var err error
	w.Append(&ModifyInterfaceOp{Config: Config{IfIndex: 99}, Err: &err})
	w.Publish()
	require.Error(t, err)
	assert.True(t, gwerr.Is(err, gwerr.KindNotFound))
}

func TestAttachToUnknownInterfaceFails(t *testing.T) {
	w, _ := lrpub.NewWriter(New())
	var err error
	w.Append(&AttachToVrfOp{IfIndex: 1, VRF: netaddr.FibKeyFromID(3), Err: &err})
	w.Publish()
	require.Error(t, err)
	assert.True(t, gwerr.Is(err, gwerr.KindNotFound))
}

func TestReconfigurePlanOrder(t *testing.T) {
	w, r := lrpub.NewWriter(New())
	w.Append(&AddInterfaceOp{Config: Config{IfIndex: 1, Name: "lo", IfType: NewLoopback()}})
	w.Append(&AddInterfaceOp{Config: Config{IfIndex: 2, Name: "eth0", IfType: NewEthernet(mustSourceMac("02:00:00:00:00:01"))}})
	w.Append(&AddInterfaceOp{Config: Config{IfIndex: 3, Name: "eth1.100", IfType: NewDot1q(mustSourceMac("02:00:00:00:00:02"), 100)}})
	w.Publish()

	g, _ := r.Enter()
	current := *g.Value()
	g.Close()

	desired := []Config{
		{IfIndex: 1, Name: "lo", IfType: NewLoopback()},
		{IfIndex: 2, Name: "eth0", IfType: NewEthernet(mustSourceMac("02:00:00:00:00:01")), MTU: 9000},
		{IfIndex: 4, Name: "eth2", IfType: NewEthernet(mustSourceMac("02:00:00:00:00:03"))},
	}
	plan := Reconfigure(current, desired)
	require.Equal(t, []netaddr.IfIndex{3}, plan.Delete)
	require.Len(t, plan.Modify, 1)
	assert.Equal(t, netaddr.IfIndex(2), plan.Modify[0].IfIndex)
	require.Len(t, plan.Add, 1)
	assert.Equal(t, netaddr.IfIndex(4), plan.Add[0].IfIndex)

	for _, op := range plan.Ops() {
		w.Append(op)
	}
	w.Publish()

	g2, _ := r.Enter()
	defer g2.Close()
	assert.False(t, g2.Value().Contains(3))
	assert.True(t, g2.Value().Contains(4))
	iface2, _ := g2.Value().Get(2)
	assert.Equal(t, netaddr.Mtu(9000), iface2.MTU)
}

func TestAttachToVrfRecordsAttachment(t *testing.T) {
	w, r := lrpub.NewWriter(New())
	w.Append(&AddInterfaceOp{Config: Config{IfIndex: 2, Name: "eth0", IfType: NewEthernet(mustSourceMac("02:00:00:00:00:01"))}})
	w.Publish()
	vrf := netaddr.FibKeyFromID(3)
	w.Append(&AttachToVrfOp{IfIndex: 2, VRF: vrf})
	w.Publish()

	g, _ := r.Enter()
	iface, _ := g.Value().Get(2)
	g.Close()
	assert.Equal(t, AttachVRF, iface.Attachment.Kind)
	assert.Equal(t, vrf, iface.Attachment.VRF)
}
