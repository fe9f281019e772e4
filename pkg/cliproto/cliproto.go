// SPDX-License-Identifier: Apache-2.0
// Copyright Authors of gwcore

// Package cliproto is the peripheral wire protocol between the gwcore CLI
// binary and the running router: a request carrying an action and its
// arguments, and a response carrying either a string result or an error,
// both framed with a little-endian u64 length prefix over a Unix datagram
// socket. Requests and responses are CBOR-encoded.
package cliproto

import (
	"net/netip"

	"github.com/vpcfabric/gwcore/pkg/rib"
)

// RouteProtocol names the protocol family a route-listing action filters
// by. It mirrors rib.RouteOrigin but is kept distinct because the wire
// protocol is versioned independently of the RIB's internal type.
type RouteProtocol int

const (
	ProtocolLocal RouteProtocol = iota
	ProtocolConnected
	ProtocolStatic
	ProtocolOspf
	ProtocolIsis
	ProtocolBgp
)

// ToRouteOrigin converts the wire value to the RIB's own origin type.
func (p RouteProtocol) ToRouteOrigin() rib.RouteOrigin {
	switch p {
	case ProtocolConnected:
		return rib.OriginConnected
	case ProtocolStatic:
		return rib.OriginStatic
	case ProtocolOspf:
		return rib.OriginOspf
	case ProtocolIsis:
		return rib.OriginIsis
	case ProtocolBgp:
		return rib.OriginBgp
	default:
		return rib.OriginLocal
	}
}

// RequestArgs is the union of optional arguments any CliAction may need.
// Every field is a pointer with omitempty, so an absent argument is left
// out of the CBOR map entirely rather than sent as a misleading zero value.
type RequestArgs struct {
	Address      *netip.Addr    `cbor:"1,keyasint,omitempty"`
	PrefixAddr   *netip.Addr    `cbor:"2,keyasint,omitempty"`
	PrefixLength *uint8         `cbor:"3,keyasint,omitempty"`
	VrfID        *uint32        `cbor:"4,keyasint,omitempty"`
	Vni          *uint32        `cbor:"5,keyasint,omitempty"`
	Ifname       *string        `cbor:"6,keyasint,omitempty"`
	LogLevel     *string        `cbor:"7,keyasint,omitempty"`
	Protocol     *RouteProtocol `cbor:"8,keyasint,omitempty"`
}

// CliAction enumerates every command the CLI may dispatch. A concrete
// server may legally reject actions it does not implement with
// ErrNotSupported rather than implementing every one.
type CliAction uint16

const (
	ActionClear CliAction = iota
	ActionConnect
	ActionDisconnect
	ActionHelp
	ActionQuit

	ActionSetLoglevel

	ActionShowCpiStats
	ActionCpiRequestRefresh

	ActionShowFrrmiStats
	ActionShowFrrmiLastConfig
	ActionFrrmiApplyLastConfig

	ActionRouterEventLog

	ActionShowVpc
	ActionShowVpcPifs
	ActionShowVpcPolicies

	ActionShowPipeline
	ActionShowPipelineStages
	ActionShowPipelineStats

	ActionShowRouterInterfaces
	ActionShowRouterInterfaceAddresses
	ActionShowRouterVrfs
	ActionShowRouterIpv4Routes
	ActionShowRouterIpv6Routes
	ActionShowRouterIpv4NextHops
	ActionShowRouterIpv6NextHops
	ActionShowRouterEvpnVrfs
	ActionShowRouterEvpnRmacStore
	ActionShowRouterEvpnVtep
	ActionShowAdjacencies
	ActionShowRouterIpv4FibEntries
	ActionShowRouterIpv6FibEntries
	ActionShowRouterIpv4FibGroups
	ActionShowRouterIpv6FibGroups

	ActionShowDpdkPort
	ActionShowDpdkPortStats

	ActionShowKernelInterfaces

	ActionShowNatRules
	ActionShowNatPortUsage
)

var actionNames = map[CliAction]string{
	ActionClear:                        "Clear",
	ActionConnect:                      "Connect",
	ActionDisconnect:                   "Disconnect",
	ActionHelp:                         "Help",
	ActionQuit:                         "Quit",
	ActionSetLoglevel:                  "SetLoglevel",
	ActionShowCpiStats:                 "ShowCpiStats",
	ActionCpiRequestRefresh:            "CpiRequestRefresh",
	ActionShowFrrmiStats:               "ShowFrrmiStats",
	ActionShowFrrmiLastConfig:          "ShowFrrmiLastConfig",
	ActionFrrmiApplyLastConfig:         "FrrmiApplyLastConfig",
	ActionRouterEventLog:               "RouterEventLog",
	ActionShowVpc:                      "ShowVpc",
	ActionShowVpcPifs:                  "ShowVpcPifs",
	ActionShowVpcPolicies:              "ShowVpcPolicies",
	ActionShowPipeline:                 "ShowPipeline",
	ActionShowPipelineStages:           "ShowPipelineStages",
	ActionShowPipelineStats:            "ShowPipelineStats",
	ActionShowRouterInterfaces:         "ShowRouterInterfaces",
	ActionShowRouterInterfaceAddresses: "ShowRouterInterfaceAddresses",
	ActionShowRouterVrfs:               "ShowRouterVrfs",
	ActionShowRouterIpv4Routes:         "ShowRouterIpv4Routes",
	ActionShowRouterIpv6Routes:         "ShowRouterIpv6Routes",
	ActionShowRouterIpv4NextHops:       "ShowRouterIpv4NextHops",
	ActionShowRouterIpv6NextHops:       "ShowRouterIpv6NextHops",
	ActionShowRouterEvpnVrfs:           "ShowRouterEvpnVrfs",
	ActionShowRouterEvpnRmacStore:      "ShowRouterEvpnRmacStore",
	ActionShowRouterEvpnVtep:           "ShowRouterEvpnVtep",
	ActionShowAdjacencies:              "ShowAdjacencies",
	ActionShowRouterIpv4FibEntries:     "ShowRouterIpv4FibEntries",
	ActionShowRouterIpv6FibEntries:     "ShowRouterIpv6FibEntries",
	ActionShowRouterIpv4FibGroups:      "ShowRouterIpv4FibGroups",
	ActionShowRouterIpv6FibGroups:      "ShowRouterIpv6FibGroups",
	ActionShowDpdkPort:                 "ShowDpdkPort",
	ActionShowDpdkPortStats:            "ShowDpdkPortStats",
	ActionShowKernelInterfaces:         "ShowKernelInterfaces",
	ActionShowNatRules:                 "ShowNatRules",
	ActionShowNatPortUsage:             "ShowNatPortUsage",
}

func (a CliAction) String() string {
	if s, ok := actionNames[a]; ok {
		return s
	}
	return "Unknown"
}

// CliRequest is one CLI command and its arguments.
type CliRequest struct {
	Action CliAction   `cbor:"1,keyasint"`
	Args   RequestArgs `cbor:"2,keyasint"`
}

// ErrorKind classifies a CliError the way the original's CliError enum
// does: internal, not-found, or not-supported.
type ErrorKind int

const (
	ErrInternal ErrorKind = iota
	ErrNotFound
	ErrNotSupported
)

// CliError is the error half of a CliResponse's result.
type CliError struct {
	Kind   ErrorKind `cbor:"1,keyasint"`
	Detail string    `cbor:"2,keyasint,omitempty"`
}

func (e CliError) Error() string {
	switch e.Kind {
	case ErrNotFound:
		return "could not find: " + e.Detail
	case ErrNotSupported:
		return "not supported: " + e.Detail
	default:
		return "internal error"
	}
}

// CliResponse carries the original request back alongside either a string
// result or a CliError.
type CliResponse struct {
	Request CliRequest `cbor:"1,keyasint"`
	Ok      string     `cbor:"2,keyasint,omitempty"`
	Err     *CliError  `cbor:"3,keyasint,omitempty"`
}

// ResponseOK builds a successful response to request.
func ResponseOK(request CliRequest, data string) CliResponse {
	return CliResponse{Request: request, Ok: data}
}

// ResponseErr builds a failed response to request.
func ResponseErr(request CliRequest, err CliError) CliResponse {
	return CliResponse{Request: request, Err: &err}
}

// IsOK reports whether the response carries a successful result.
func (r CliResponse) IsOK() bool { return r.Err == nil }
