// SPDX-License-Identifier: Apache-2.0
// Copyright Authors of gwcore

package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegisterRegistersEveryCollectorOnce(t *testing.T) {
	reg := prometheus.NewRegistry()
	require.NoError(t, Register(reg))

	families, err := reg.Gather()
	require.NoError(t, err)
	assert.Empty(t, families) // no samples observed yet, just registration
}

func TestRegisterTwiceOnSameRegistryFails(t *testing.T) {
	reg := prometheus.NewRegistry()
	require.NoError(t, Register(reg))
	assert.Error(t, Register(reg))
}
