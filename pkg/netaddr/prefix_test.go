// SPDX-License-Identifier: Apache-2.0
// Copyright Authors of gwcore

package netaddr

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrefixRoundTrip(t *testing.T) {
	p, err := ParsePrefix("192.0.2.0/24")
	require.NoError(t, err)
	assert.Equal(t, "192.0.2.0/24", p.String())
	assert.Equal(t, 24, p.Length())
}

func TestPrefixRejectsBadLength(t *testing.T) {
	addr := MustPrefix("10.0.0.0/8").Addr()
	_, err := NewPrefix(addr, 33)
	require.Error(t, err)
}

func TestPrefixIsHost(t *testing.T) {
	assert.True(t, MustPrefix("10.0.0.1/32").IsHost())
	assert.False(t, MustPrefix("10.0.0.0/24").IsHost())
	addr, ok := MustPrefix("10.0.0.1/32").AsAddress()
	require.True(t, ok)
	assert.Equal(t, "10.0.0.1", addr.String())
}

func TestPrefixCovers(t *testing.T) {
	outer := MustPrefix("10.0.0.0/8")
	inner := MustPrefix("10.1.2.0/24")
	assert.True(t, outer.Covers(inner))
	assert.False(t, inner.Covers(outer))
	assert.True(t, outer.Covers(outer))

	v6 := MustPrefix("2001:db8::/32")
	assert.False(t, outer.Covers(v6))
}

func TestPrefixSize(t *testing.T) {
	assert.Equal(t, big.NewInt(256), MustPrefix("10.0.0.0/24").Size())
	assert.Equal(t, big.NewInt(1), MustPrefix("10.0.0.1/32").Size())
}

func TestPrefixRootIsNoRouteSentinel(t *testing.T) {
	p := MustPrefix("192.0.2.0/24")
	root := p.Root()
	assert.Equal(t, 0, root.Length())
	assert.True(t, root.Covers(p))
}

func TestPrefixRejectsMixedFamilyCover(t *testing.T) {
	v4 := MustPrefix("10.0.0.0/8")
	v6 := MustPrefix("::/0")
	assert.False(t, v4.Covers(v6))
}
