// SPDX-License-Identifier: Apache-2.0
// Copyright Authors of gwcore

package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildConfigTranslatesInterfacesAndVpcs(t *testing.T) {
	fc := fileConfig{
		GenID:    1,
		Hostname: "gw1",
		Underlay: fileUnderlay{
			VrfID:    0,
			RouterID: "10.0.0.1",
			LocalAS:  65000,
			Families: []string{"ipv4-unicast", "evpn"},
		},
		Ifaces: []fileInterface{
			{IfIndex: 1, Name: "lo", Kind: "loopback"},
			{IfIndex: 2, Name: "eth0", Kind: "ethernet", Mac: "02:00:00:00:00:01"},
		},
		Vpcs: []fileVpc{
			{Vni: 100, Name: "tenant-a", Attachments: []uint32{2}},
		},
	}

	cfg, err := buildConfig(fc)
	require.NoError(t, err)
	assert.Equal(t, "gw1", cfg.Device.Hostname)
	assert.Len(t, cfg.Device.Interfaces, 2)
	require.Len(t, cfg.Vpcs, 1)
	assert.Equal(t, "tenant-a", cfg.Vpcs[0].Name)
	assert.Equal(t, uint32(100), cfg.Vpcs[0].Disc.Vni().AsU32())
}

func TestBuildConfigRejectsUnknownInterfaceKind(t *testing.T) {
	fc := fileConfig{
		Ifaces: []fileInterface{{IfIndex: 1, Name: "weird", Kind: "bogus"}},
	}
	_, err := buildConfig(fc)
	assert.Error(t, err)
}

func TestBuildConfigTranslatesPeeringExpose(t *testing.T) {
	fc := fileConfig{
		Vpcs: []fileVpc{{Vni: 100}, {Vni: 200}},
		Peerings: []filePeering{{
			East:       100,
			EastExpose: fileExpose{IPs: []string{"10.0.0.0/24"}, AsRange: []string{"172.16.0.0/24"}},
			West:       200,
			WestExpose: fileExpose{IPs: []string{"10.1.0.0/24"}, AsRange: []string{"172.17.0.0/24"}},
		}},
	}
	cfg, err := buildConfig(fc)
	require.NoError(t, err)
	require.Len(t, cfg.Peerings, 1)
	assert.Len(t, cfg.Peerings[0].EastExpose.IPs, 1)
}
