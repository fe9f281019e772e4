// SPDX-License-Identifier: Apache-2.0
// Copyright Authors of gwcore

package netaddr

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vpcfabric/gwcore/pkg/gwerr"
)

func TestVniZeroIsReserved(t *testing.T) {
	_, err := NewVniChecked(0)
	require.Error(t, err)
	assert.True(t, gwerr.Is(err, gwerr.KindValidation))
}

func TestVniOneIsLegal(t *testing.T) {
	v, err := NewVniChecked(1)
	require.NoError(t, err)
	assert.Equal(t, uint32(1), v.AsU32())
}

func TestVniMaxIsLegal(t *testing.T) {
	v, err := NewVniChecked(VniMax)
	require.NoError(t, err)
	assert.Equal(t, VniMax, v.AsU32())
}

func TestVniMaxPlusOneIsTooLarge(t *testing.T) {
	_, err := NewVniChecked(VniMax + 1)
	require.Error(t, err)
}

func TestVniRoundTrip(t *testing.T) {
	for v := VniMin; v <= 1000; v++ {
		vni, err := NewVniChecked(v)
		require.NoError(t, err)
		assert.Equal(t, v, vni.AsU32())
	}
}
