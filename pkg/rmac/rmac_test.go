// SPDX-License-Identifier: Apache-2.0
// Copyright Authors of gwcore

package rmac

import (
	"net/netip"
	"sort"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vpcfabric/gwcore/pkg/netaddr"
)

func mustVni(v uint32) netaddr.Vni {
	vni, err := netaddr.NewVniChecked(v)
	if err != nil {
		panic(err)
	}
	return vni
}

func TestAddGetAndDuplicateReplace(t *testing.T) {
	s := New()
	remote := netip.MustParseAddr("7.0.0.1")

	_, had := s.Add(mustVni(3001), remote, netaddr.Mac{0, 0, 0, 0, 0, 1})
	require.False(t, had)
	_, had = s.Add(mustVni(3002), remote, netaddr.Mac{0, 0, 0, 0, 0, 2})
	require.False(t, had)
	_, had = s.Add(mustVni(3003), remote, netaddr.Mac{0, 0, 0, 0, 0, 3})
	require.False(t, had)
	assert.Equal(t, 3, s.Len())

	// Adding the same key again replaces, it doesn't duplicate.
	prev, had := s.Add(mustVni(3003), remote, netaddr.Mac{0, 0, 0, 0, 0, 3})
	require.True(t, had)
	assert.Equal(t, netaddr.Mac{0, 0, 0, 0, 0, 3}, prev.Mac)
	assert.Equal(t, 3, s.Len())
}

func TestDeleteRequiresMacMatch(t *testing.T) {
	s := New()
	remote := netip.MustParseAddr("7.0.0.1")
	s.Add(mustVni(3001), remote, netaddr.Mac{0, 0, 0, 0, 0, 1})
	s.Add(mustVni(3002), remote, netaddr.Mac{0, 0, 0, 0, 0, 2})

	s.Delete(mustVni(3001), remote, netaddr.Mac{0, 0, 0, 0, 0, 1})
	assert.Equal(t, 1, s.Len())

	// Wrong mac: no-op.
	s.Delete(mustVni(3002), remote, netaddr.Mac{0xb, 0xa, 0xd, 0xb, 0xa, 0xd})
	assert.Equal(t, 1, s.Len())

	e, ok := s.Get(mustVni(3002), remote)
	require.True(t, ok)
	assert.Equal(t, netaddr.Mac{0, 0, 0, 0, 0, 2}, e.Mac)
}

func TestReplaceUpdatesMac(t *testing.T) {
	s := New()
	remote := netip.MustParseAddr("7.0.0.1")
	s.Add(mustVni(3002), remote, netaddr.Mac{0, 0, 0, 0, 0, 2})

	prev, had := s.Add(mustVni(3002), remote, netaddr.Mac{0x11, 0x22, 0x33, 0x44, 0x55, 0x66})
	require.True(t, had)
	assert.Equal(t, netaddr.Mac{0, 0, 0, 0, 0, 2}, prev.Mac)

	e, ok := s.Get(mustVni(3002), remote)
	require.True(t, ok)
	assert.Equal(t, netaddr.Mac{0x11, 0x22, 0x33, 0x44, 0x55, 0x66}, e.Mac)
}

func TestValuesMatchesExpectedSet(t *testing.T) {
	s := New()
	remoteA := netip.MustParseAddr("7.0.0.1")
	remoteB := netip.MustParseAddr("7.0.0.2")
	s.Add(mustVni(3001), remoteA, netaddr.Mac{0, 0, 0, 0, 0, 1})
	s.Add(mustVni(3002), remoteB, netaddr.Mac{0, 0, 0, 0, 0, 2})

	want := []Entry{
		{Address: remoteA, Mac: netaddr.Mac{0, 0, 0, 0, 0, 1}, Vni: mustVni(3001)},
		{Address: remoteB, Mac: netaddr.Mac{0, 0, 0, 0, 0, 2}, Vni: mustVni(3002)},
	}
	got := s.Values()
	sort.Slice(got, func(i, j int) bool { return got[i].Vni.AsU32() < got[j].Vni.AsU32() })

	vniCmp := cmp.Comparer(func(a, b netaddr.Vni) bool { return a.AsU32() == b.AsU32() })
	if diff := cmp.Diff(want, got, vniCmp); diff != "" {
		t.Fatalf("unexpected store contents (-want +got):\n%s", diff)
	}
}

func TestCloneIsIndependent(t *testing.T) {
	s := New()
	remote := netip.MustParseAddr("7.0.0.1")
	s.Add(mustVni(3001), remote, netaddr.Mac{0, 0, 0, 0, 0, 1})

	c := s.Clone()
	c.Add(mustVni(3002), remote, netaddr.Mac{0, 0, 0, 0, 0, 2})

	assert.Equal(t, 1, s.Len())
	assert.Equal(t, 2, c.Len())
}
