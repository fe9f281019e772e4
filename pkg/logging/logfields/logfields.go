// SPDX-License-Identifier: Apache-2.0
// Copyright Authors of gwcore

// Package logfields holds well-known slog attribute keys shared across the
// core, so call sites don't restate the string literal at every log.With
// call.
package logfields

const (
	Prefix    = "prefix"
	VNI       = "vni"
	IfIndex   = "ifindex"
	VrfID     = "vrf_id"
	Mac       = "mac"
	Peer      = "peer"
	FlowKey   = "flow_key"
	GenID     = "genid"
	Component = "component"
	Error     = "error"
)
